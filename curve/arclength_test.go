package curve

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
	"gonum.org/v1/gonum/num/quat"

	"go.viam.com/phcurve/spatialmath"
)

func TestArcLengthStraightLine(t *testing.T) {
	c, err := NewQuinticG1(r3.Vector{}, r3.Vector{X: 2}, r3.Vector{X: 2}, r3.Vector{X: 2})
	test.That(t, err, test.ShouldBeNil)

	test.That(t, c.ArcLength(1), test.ShouldAlmostEqual, 2.0, 1e-5)
	test.That(t, c.ArcLength(0.5), test.ShouldAlmostEqual, 1.0, 1e-5)
	test.That(t, c.ArcLength(0), test.ShouldAlmostEqual, 0, 1e-12)

	// a constant hodograph is an exact Pythagorean square
	sigma, ok := c.speedPolynomial()
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, sigma[0], test.ShouldAlmostEqual, 2, 1e-12)
}

// genuinePHCubic builds an exact Pythagorean-hodograph cubic directly from a
// linear quaternion pre-image.
func genuinePHCubic(t *testing.T) *PHCurve {
	t.Helper()
	f0, err := spatialmath.NewFrame(r3.Vector{X: 1}, r3.Vector{Y: 1})
	test.That(t, err, test.ShouldBeNil)
	f1, err := spatialmath.NewFrame(r3.Vector{X: 1, Y: 1}, r3.Vector{X: -1, Y: 1})
	test.That(t, err, test.ShouldBeNil)

	q0 := quat.Scale(math.Sqrt(1.5), f0.Quaternion())
	q1 := quat.Scale(math.Sqrt(2.0), f1.Quaternion())

	w00 := spatialmath.HodographProduct(q0, q0)
	w01 := spatialmath.SymmetricHodographProduct(q0, q1)
	w11 := spatialmath.HodographProduct(q1, q1)
	return &PHCurve{
		A: w00,
		B: w01.Sub(w00.Mul(2)),
		C: w00.Sub(w01).Add(w11),
	}
}

func TestArcLengthClosedFormMatchesSimpson(t *testing.T) {
	c := genuinePHCubic(t)

	// the quaternion pre-image guarantees an exact polynomial speed
	_, ok := c.speedPolynomial()
	test.That(t, ok, test.ShouldBeTrue)

	for _, u := range []float64{0.25, 0.5, 0.75, 1} {
		test.That(t, c.ArcLength(u), test.ShouldAlmostEqual, c.arcLengthSimpson(u), 1e-6)
	}
}

func TestArcLengthFallback(t *testing.T) {
	// arbitrary hodograph coefficients are generally not a Pythagorean square
	c := &PHCurve{
		A: r3.Vector{X: 1, Y: 0.5},
		B: r3.Vector{Y: 2, Z: -1},
		C: r3.Vector{X: -0.5, Z: 0.25},
		D: r3.Vector{Y: 0.1},
		E: r3.Vector{X: 0.3, Y: -0.2},
	}
	_, ok := c.speedPolynomial()
	test.That(t, ok, test.ShouldBeFalse)

	// the fallback still yields a sane monotone length
	l1, l2 := c.ArcLength(0.5), c.ArcLength(1)
	test.That(t, l1, test.ShouldBeGreaterThan, 0)
	test.That(t, l2, test.ShouldBeGreaterThan, l1)

	// and never undershoots the chord
	chord := c.Position(1).Sub(c.Position(0)).Norm()
	test.That(t, l2, test.ShouldBeGreaterThan, chord-1e-9)
}
