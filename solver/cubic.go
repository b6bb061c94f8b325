// Package solver constructs cubic Pythagorean-hodograph curves from Hermite
// boundary data through the quaternion pre-image parameterization
// r′(t) = q(t)·i·q̄(t). A cubic has too few degrees of freedom to interpolate
// position, tangent, curvature and normal at both ends simultaneously, so the
// end quaternion is found by an iterative least-squares solve over the
// curvature residuals, optionally joined by the end-position residual.
package solver

import (
	"math"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/quat"

	"go.viam.com/phcurve/curve"
	"go.viam.com/phcurve/spatialmath"
)

const (
	// Iteration budget for the Newton refinement.
	defaultMaxIterations = 50

	// Stop once the residual norm is below this.
	defaultResidualEpsilon = 1e-10

	// Stop once a Newton step no longer moves the iterate.
	defaultStepEpsilon = 1e-12

	// Finite-difference step for the numerical Jacobian.
	defaultJump = 1e-7

	// Singular values below this times the largest are treated as zero when
	// pseudo-inverting the linearized system.
	defaultRankEpsilon = 1e-12
)

var errUnsolvableSystem = errors.New("linearized system could not be factorized")

// Result reports the outcome of a cubic solve. Both residual norms are always
// populated so callers can judge the curvature-versus-position trade-off of
// the position-consistent variant. On Converged == false the returned curve is
// the last iterate, usable but outside the requested tolerance.
type Result struct {
	Converged        bool
	Iterations       int
	FrameResidual    float64
	PositionResidual float64
}

// Solve builds a cubic PH curve from two Hermite records, matching both end
// tangents exactly through the quaternion scaling and minimizing the two
// curvature-vector residuals. End position is not controlled; see
// SolvePositionConsistent.
func Solve(p0, p1 curve.BoundaryPoint, logger golog.Logger) (*curve.PHCurve, Result, error) {
	return solveCubic(p0, p1, logger, false)
}

// SolvePositionConsistent builds a cubic PH curve whose Newton refinement
// minimizes the end-position residual jointly with the curvature residuals,
// trading some curvature and normal accuracy for position accuracy.
func SolvePositionConsistent(p0, p1 curve.BoundaryPoint, logger golog.Logger) (*curve.PHCurve, Result, error) {
	return solveCubic(p0, p1, logger, true)
}

func solveCubic(p0, p1 curve.BoundaryPoint, logger golog.Logger, matchPosition bool) (*curve.PHCurve, Result, error) {
	q0, err := preimage(p0)
	if err != nil {
		return nil, Result{}, errors.Wrap(err, "start boundary point")
	}
	qGuess, err := preimage(p1)
	if err != nil {
		return nil, Result{}, errors.Wrap(err, "end boundary point")
	}

	sys := &cubicSystem{p0: p0, p1: p1, q0: q0, matchPosition: matchPosition}
	x := []float64{qGuess.Real, qGuess.Imag, qGuess.Jmag, qGuess.Kmag}

	var res Result
	r := sys.residual(x)
	norm := residualNorm(r)
	for res.Iterations = 0; res.Iterations < defaultMaxIterations; res.Iterations++ {
		if norm < defaultResidualEpsilon {
			res.Converged = true
			break
		}
		step, err := sys.newtonStep(x, r)
		if err != nil {
			return nil, res, err
		}
		for i := range x {
			x[i] += step[i]
		}
		r = sys.residual(x)
		norm = residualNorm(r)
		if residualNorm(step) < defaultStepEpsilon {
			res.Converged = true
			break
		}
	}
	logger.Debugw("cubic solve finished",
		"converged", res.Converged, "iterations", res.Iterations, "residual", norm)

	q1 := quat.Number{Real: x[0], Imag: x[1], Jmag: x[2], Kmag: x[3]}
	res.FrameResidual = residualNorm(sys.frameResidual(q1))
	res.PositionResidual = sys.positionResidual(q1).Norm()
	return hodographFromPreimage(q0, q1, p0.Position), res, nil
}

// preimage converts a boundary tangent/normal pair into the quaternion
// pre-image of its Frenet frame, scaled by the square root of the tangent
// magnitude so that q·i·q̄ reproduces the full tangent vector.
func preimage(bp curve.BoundaryPoint) (quat.Number, error) {
	normal := bp.Normal
	if normal.Norm() < 1e-8 || bp.Curvature == 0 {
		// curvature-free records leave the normal free; pick any direction
		// orthogonal to the tangent
		normal = anyOrthogonal(bp.Tangent)
	}
	f, err := spatialmath.NewFrame(bp.Tangent, normal)
	if err != nil {
		return quat.Number{}, err
	}
	return quat.Scale(math.Sqrt(bp.Tangent.Norm()), f.Quaternion()), nil
}

func anyOrthogonal(v r3.Vector) r3.Vector {
	if math.Abs(v.X) <= math.Abs(v.Y) && math.Abs(v.X) <= math.Abs(v.Z) {
		return r3.Vector{X: 1}.Sub(v.Mul(v.X / v.Norm2()))
	}
	if math.Abs(v.Y) <= math.Abs(v.Z) {
		return r3.Vector{Y: 1}.Sub(v.Mul(v.Y / v.Norm2()))
	}
	return r3.Vector{Z: 1}.Sub(v.Mul(v.Z / v.Norm2()))
}

// hodographFromPreimage converts the quaternion pair to monomial hodograph
// coefficients. With q(t) = q0(1−t) + q1·t the hodograph is quadratic in the
// Bernstein basis; A–C below are its monomial form and D, E stay zero.
func hodographFromPreimage(q0, q1 quat.Number, start r3.Vector) *curve.PHCurve {
	w00 := spatialmath.HodographProduct(q0, q0)
	w01 := spatialmath.SymmetricHodographProduct(q0, q1)
	w11 := spatialmath.HodographProduct(q1, q1)
	return &curve.PHCurve{
		A:     w00,
		B:     w01.Sub(w00.Mul(2)),
		C:     w00.Sub(w01).Add(w11),
		Start: start,
	}
}

type cubicSystem struct {
	p0, p1        curve.BoundaryPoint
	q0            quat.Number
	matchPosition bool
}

// frameResidual returns the six curvature-residual rows: at each endpoint, the
// component of r″ orthogonal to the prescribed tangent direction minus the
// prescribed curvature vector κ‖r′‖²·N.
func (s *cubicSystem) frameResidual(q1 quat.Number) []float64 {
	qd := quat.Sub(q1, s.q0)
	d20 := spatialmath.SymmetricHodographProduct(qd, s.q0)
	d21 := spatialmath.SymmetricHodographProduct(qd, q1)

	r0 := rejectAlong(d20, s.p0.Tangent).Sub(s.p0.SecondDerivative())
	r1 := rejectAlong(d21, s.p1.Tangent).Sub(s.p1.SecondDerivative())
	return []float64{r0.X, r0.Y, r0.Z, r1.X, r1.Y, r1.Z}
}

// positionResidual returns the end-position mismatch of the curve implied by
// q1, the integral of the Bernstein-form hodograph minus the position delta.
func (s *cubicSystem) positionResidual(q1 quat.Number) r3.Vector {
	w00 := spatialmath.HodographProduct(s.q0, s.q0)
	w01 := spatialmath.SymmetricHodographProduct(s.q0, q1)
	w11 := spatialmath.HodographProduct(q1, q1)
	end := w00.Mul(1. / 3).Add(w01.Mul(1. / 6)).Add(w11.Mul(1. / 3))
	return end.Sub(s.p1.Position.Sub(s.p0.Position))
}

func (s *cubicSystem) residual(x []float64) []float64 {
	q1 := quat.Number{Real: x[0], Imag: x[1], Jmag: x[2], Kmag: x[3]}
	r := s.frameResidual(q1)
	if s.matchPosition {
		p := s.positionResidual(q1)
		r = append(r, p.X, p.Y, p.Z)
	}
	return r
}

// newtonStep linearizes the residual by forward differencing and solves the
// least-squares system J·δ = −r through a singular-value pseudo-inverse; the
// system is over-determined in general and may be rank-deficient, so an exact
// solve is never assumed.
func (s *cubicSystem) newtonStep(x, r []float64) ([]float64, error) {
	m := len(r)
	jac := mat.NewDense(m, 4, nil)
	for col := 0; col < 4; col++ {
		perturbed := make([]float64, 4)
		copy(perturbed, x)
		perturbed[col] += defaultJump
		rp := s.residual(perturbed)
		for row := 0; row < m; row++ {
			jac.Set(row, col, (rp[row]-r[row])/defaultJump)
		}
	}

	rhs := mat.NewDense(m, 1, nil)
	for row := 0; row < m; row++ {
		rhs.Set(row, 0, -r[row])
	}

	var svd mat.SVD
	if !svd.Factorize(jac, mat.SVDThin) {
		return nil, errUnsolvableSystem
	}
	values := svd.Values(nil)
	rank := 0
	for _, v := range values {
		if v > defaultRankEpsilon*values[0] {
			rank++
		}
	}
	if rank == 0 {
		return nil, errUnsolvableSystem
	}
	var sol mat.Dense
	svd.SolveTo(&sol, rhs, rank)
	return []float64{sol.At(0, 0), sol.At(1, 0), sol.At(2, 0), sol.At(3, 0)}, nil
}

// rejectAlong returns v minus its projection onto dir.
func rejectAlong(v, dir r3.Vector) r3.Vector {
	u := dir.Normalize()
	return v.Sub(u.Mul(u.Dot(v)))
}

func residualNorm(r []float64) float64 {
	sum := 0.0
	for _, v := range r {
		sum += v * v
	}
	return math.Sqrt(sum)
}
