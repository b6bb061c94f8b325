package curve

import (
	"github.com/golang/geo/r3"

	"go.viam.com/phcurve/spatialmath"
)

// Below this speed the Frenet frame is undefined and frame queries report
// degeneracy instead of dividing by zero.
const defaultSpeedEpsilon = 1e-8

// PHCurve is a polynomial space curve represented by its hodograph
// r′(t) = A + Bt + Ct² + Dt³ + Et⁴ over the canonical domain t ∈ [0,1], plus a
// start-position offset. Quintic curves built by NewQuintic leave Start at the
// origin; cubic curves from the quaternion solver carry their true start.
// A PHCurve is immutable once returned by a factory; evaluation outside [0,1]
// is the plain polynomial extrapolation.
type PHCurve struct {
	A, B, C, D, E r3.Vector
	Start         r3.Vector
}

// Translated returns a copy of the curve anchored at the given start position.
func (c *PHCurve) Translated(start r3.Vector) *PHCurve {
	out := *c
	out.Start = start
	return &out
}

// Position evaluates the analytic integral of the hodograph,
// Start + ∫₀ᵗ r′(u)du.
func (c *PHCurve) Position(t float64) r3.Vector {
	p := c.A.Mul(t).
		Add(c.B.Mul(t * t / 2)).
		Add(c.C.Mul(t * t * t / 3)).
		Add(c.D.Mul(t * t * t * t / 4)).
		Add(c.E.Mul(t * t * t * t * t / 5))
	return c.Start.Add(p)
}

// Derivative evaluates the hodograph r′(t).
func (c *PHCurve) Derivative(t float64) r3.Vector {
	return c.A.
		Add(c.B.Mul(t)).
		Add(c.C.Mul(t * t)).
		Add(c.D.Mul(t * t * t)).
		Add(c.E.Mul(t * t * t * t))
}

// SecondDerivative evaluates r″(t).
func (c *PHCurve) SecondDerivative(t float64) r3.Vector {
	return c.B.
		Add(c.C.Mul(2 * t)).
		Add(c.D.Mul(3 * t * t)).
		Add(c.E.Mul(4 * t * t * t))
}

// Speed returns ‖r′(t)‖.
func (c *PHCurve) Speed(t float64) float64 {
	return c.Derivative(t).Norm()
}

// TangentUnit returns the unit tangent and whether it is defined. The zero
// vector is returned when the speed is below the degeneracy threshold.
func (c *PHCurve) TangentUnit(t float64) (r3.Vector, bool) {
	d := c.Derivative(t)
	s := d.Norm()
	if s < defaultSpeedEpsilon {
		return r3.Vector{}, false
	}
	return d.Mul(1 / s), true
}

// PrincipalNormal returns the unit principal normal, the normalized direction
// of the component of r″ orthogonal to r′, and whether it is defined. It is
// undefined at degenerate speed and on locally straight spans where r″ is
// parallel to r′.
func (c *PHCurve) PrincipalNormal(t float64) (r3.Vector, bool) {
	d1 := c.Derivative(t)
	s := d1.Norm()
	if s < defaultSpeedEpsilon {
		return r3.Vector{}, false
	}
	d2 := c.SecondDerivative(t)
	// derivative of the unit tangent: (d2·s − d1·(d1·d2)/s) / s²
	v := d2.Mul(s).Sub(d1.Mul(d1.Dot(d2) / s)).Mul(1 / (s * s))
	if v.Norm() < defaultSpeedEpsilon {
		return r3.Vector{}, false
	}
	return v.Normalize(), true
}

// Curvature returns ‖r′×r″‖/‖r′‖³, or 0 at degenerate speed.
func (c *PHCurve) Curvature(t float64) float64 {
	d1 := c.Derivative(t)
	s := d1.Norm()
	if s < defaultSpeedEpsilon {
		return 0
	}
	return d1.Cross(c.SecondDerivative(t)).Norm() / (s * s * s)
}

// BiTangent returns the binormal T×N and whether it is defined.
func (c *PHCurve) BiTangent(t float64) (r3.Vector, bool) {
	tan, ok := c.TangentUnit(t)
	if !ok {
		return r3.Vector{}, false
	}
	n, ok := c.PrincipalNormal(t)
	if !ok {
		return r3.Vector{}, false
	}
	return tan.Cross(n), true
}

// OffsetPoint returns Position(t) displaced by d along the principal normal.
// At degenerate frames the undisplaced position is returned.
func (c *PHCurve) OffsetPoint(t, d float64) r3.Vector {
	n, ok := c.PrincipalNormal(t)
	if !ok {
		return c.Position(t)
	}
	return c.Position(t).Add(n.Mul(d))
}

// Frame returns the full Frenet frame at t and whether it is defined.
func (c *PHCurve) Frame(t float64) (*spatialmath.Frame, bool) {
	tan, ok := c.TangentUnit(t)
	if !ok {
		return nil, false
	}
	n, ok := c.PrincipalNormal(t)
	if !ok {
		return nil, false
	}
	return &spatialmath.Frame{Tangent: tan, Normal: n, Binormal: tan.Cross(n)}, true
}
