package spatialmath

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
	"gonum.org/v1/gonum/num/quat"
)

var (
	xAxis = r3.Vector{X: 1}
	yAxis = r3.Vector{Y: 1}
	zAxis = r3.Vector{Z: 1}
)

func TestNewFrame(t *testing.T) {
	f, err := NewFrame(r3.Vector{X: 2}, r3.Vector{Y: 5})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, R3VectorAlmostEqual(f.Tangent, xAxis, 1e-12), test.ShouldBeTrue)
	test.That(t, R3VectorAlmostEqual(f.Normal, yAxis, 1e-12), test.ShouldBeTrue)
	test.That(t, R3VectorAlmostEqual(f.Binormal, zAxis, 1e-12), test.ShouldBeTrue)
	test.That(t, f.OrthonormalWithin(1e-12), test.ShouldBeTrue)

	// the normal is re-orthogonalized against the tangent
	f, err = NewFrame(r3.Vector{X: 1}, r3.Vector{X: 3, Y: 1})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, R3VectorAlmostEqual(f.Normal, yAxis, 1e-12), test.ShouldBeTrue)
	test.That(t, f.OrthonormalWithin(1e-12), test.ShouldBeTrue)

	_, err = NewFrame(r3.Vector{}, yAxis)
	test.That(t, err, test.ShouldNotBeNil)

	_, err = NewFrame(xAxis, r3.Vector{X: -4})
	test.That(t, err, test.ShouldNotBeNil)
}

func TestFrameQuaternion(t *testing.T) {
	// identity frame maps to the identity quaternion
	f, err := NewFrame(xAxis, yAxis)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, QuaternionAlmostEqual(f.Quaternion(), quat.Number{Real: 1}, 1e-12), test.ShouldBeTrue)

	// a frame rotated 90 degrees about z maps i onto j
	f, err = NewFrame(yAxis, xAxis.Mul(-1))
	test.That(t, err, test.ShouldBeNil)
	q := f.Quaternion()
	test.That(t, R3VectorAlmostEqual(RotateByQuat(q, xAxis), yAxis, 1e-12), test.ShouldBeTrue)

	// round trip through an arbitrary frame recovers all three axes
	f, err = NewFrame(r3.Vector{X: 1, Y: 2, Z: -0.5}, r3.Vector{X: -1, Y: 1, Z: 3})
	test.That(t, err, test.ShouldBeNil)
	q = f.Quaternion()
	test.That(t, quat.Abs(q), test.ShouldAlmostEqual, 1, 1e-12)
	test.That(t, R3VectorAlmostEqual(RotateByQuat(q, xAxis), f.Tangent, 1e-10), test.ShouldBeTrue)
	test.That(t, R3VectorAlmostEqual(RotateByQuat(q, yAxis), f.Normal, 1e-10), test.ShouldBeTrue)
	test.That(t, R3VectorAlmostEqual(RotateByQuat(q, zAxis), f.Binormal, 1e-10), test.ShouldBeTrue)
}

func TestHodographProduct(t *testing.T) {
	// the hodograph of a frame quaternion scaled by sqrt(m) has magnitude m along
	// the frame tangent
	f, err := NewFrame(r3.Vector{X: 3, Y: 4}, zAxis.Mul(-1))
	test.That(t, err, test.ShouldBeNil)
	m := 2.5
	q := quat.Scale(math.Sqrt(m), f.Quaternion())
	hodo := HodographProduct(q, q)
	test.That(t, R3VectorAlmostEqual(hodo, f.Tangent.Mul(m), 1e-10), test.ShouldBeTrue)

	// the symmetric product is symmetric in its arguments
	p := quat.Number{Real: 0.3, Imag: -1.2, Jmag: 0.7, Kmag: 2}
	test.That(t, R3VectorAlmostEqual(
		SymmetricHodographProduct(p, q), SymmetricHodographProduct(q, p), 1e-14), test.ShouldBeTrue)
}
