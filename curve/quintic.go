package curve

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Coefficient matrix of the three remaining Hermite constraints on (C,D,E)
// once A and B are pinned by the start data: end position (integral weights),
// end tangent, end second derivative. Fixed and non-singular for all inputs.
var hermiteSystem = mat.NewDense(3, 3, []float64{
	1. / 3, 1. / 4, 1. / 5,
	1, 1, 1,
	2, 3, 4,
})

// NewQuintic builds a quintic PH-form curve interpolating the two Hermite
// records exactly: position, tangent and curvature vector at both ends. The
// returned curve is anchored at the origin, with Position(1) equal to the
// endpoint position delta; callers wanting absolute coordinates use
// Translated with the true start position.
//
// A = r′(0) and B = r″(0) are read off the start record directly; the
// remaining coefficients come from one 3×3 solve with the three spatial axes
// as stacked right-hand sides.
func NewQuintic(p0, p1 BoundaryPoint) (*PHCurve, error) {
	if p0.Tangent.Norm() < defaultSpeedEpsilon || p1.Tangent.Norm() < defaultSpeedEpsilon {
		return nil, errZeroTangent
	}

	a := p0.Tangent
	b := p0.SecondDerivative()

	dp := p1.Position.Sub(p0.Position)
	rhsPos := dp.Sub(a).Sub(b.Mul(0.5))
	rhsTan := p1.Tangent.Sub(a).Sub(b)
	rhsCurv := p1.SecondDerivative().Sub(b)

	rhs := mat.NewDense(3, 3, []float64{
		rhsPos.X, rhsPos.Y, rhsPos.Z,
		rhsTan.X, rhsTan.Y, rhsTan.Z,
		rhsCurv.X, rhsCurv.Y, rhsCurv.Z,
	})

	var sol mat.Dense
	if err := sol.Solve(hermiteSystem, rhs); err != nil {
		return nil, errors.Wrap(err, "quintic Hermite system solve failed")
	}

	return &PHCurve{
		A: a,
		B: b,
		C: r3.Vector{X: sol.At(0, 0), Y: sol.At(0, 1), Z: sol.At(0, 2)},
		D: r3.Vector{X: sol.At(1, 0), Y: sol.At(1, 1), Z: sol.At(1, 2)},
		E: r3.Vector{X: sol.At(2, 0), Y: sol.At(2, 1), Z: sol.At(2, 2)},
	}, nil
}

// NewQuinticG1 builds a quintic from position and tangent alone, leaving both
// end curvatures at zero.
func NewQuinticG1(position0, tangent0, position1, tangent1 r3.Vector) (*PHCurve, error) {
	return NewQuintic(NewBoundaryPoint(position0, tangent0), NewBoundaryPoint(position1, tangent1))
}
