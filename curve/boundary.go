// Package curve implements Pythagorean-hodograph (PH) polynomial space curves:
// a hodograph-coefficient representation with closed-form evaluation of
// position, Frenet frames, curvature and arc length, plus the closed-form
// quintic Hermite factory and time-domain normalization utilities.
package curve

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

var (
	errZeroTangent    = errors.New("boundary tangent magnitude is too small")
	errParallelNormal = errors.New("boundary normal is parallel to the tangent")
)

// BoundaryPoint is an immutable Hermite record at one end of a curve segment:
// a position, a tangent (direction and magnitude of r′), and optionally a
// signed curvature with its principal normal direction. Time is only
// meaningful for sample records handed to the segment fitter.
type BoundaryPoint struct {
	Position  r3.Vector
	Tangent   r3.Vector
	Curvature float64
	Normal    r3.Vector
	Time      float64
}

// NewBoundaryPoint returns a G¹ Hermite record with zero curvature.
func NewBoundaryPoint(position, tangent r3.Vector) BoundaryPoint {
	return BoundaryPoint{Position: position, Tangent: tangent}
}

// NewG2BoundaryPoint returns a Hermite record carrying curvature and principal
// normal for G² construction. The tangent must be nonzero and, when curvature
// is nonzero, the normal must be nonzero and non-parallel to the tangent.
func NewG2BoundaryPoint(position, tangent r3.Vector, curvature float64, normal r3.Vector) (BoundaryPoint, error) {
	if tangent.Norm() < defaultSpeedEpsilon {
		return BoundaryPoint{}, errZeroTangent
	}
	if curvature != 0 {
		t := tangent.Normalize()
		if normal.Sub(t.Mul(t.Dot(normal))).Norm() < defaultSpeedEpsilon {
			return BoundaryPoint{}, errParallelNormal
		}
	}
	return BoundaryPoint{Position: position, Tangent: tangent, Curvature: curvature, Normal: normal}, nil
}

// NewSample returns a time-stamped trajectory sample for the segment fitter.
// A zero tangent is allowed here; the fitter infers direction from neighboring
// samples.
func NewSample(time float64, position, tangent r3.Vector, curvature float64, normal r3.Vector) BoundaryPoint {
	return BoundaryPoint{Position: position, Tangent: tangent, Curvature: curvature, Normal: normal, Time: time}
}

// SecondDerivative returns the curvature vector target κ‖r′‖²·N this record
// prescribes for r″ at its endpoint.
func (bp BoundaryPoint) SecondDerivative() r3.Vector {
	return bp.Normal.Mul(bp.Curvature * bp.Tangent.Norm2())
}
