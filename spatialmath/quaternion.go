package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// Normalize returns the unit quaternion pointing the same way as q. The zero
// quaternion is returned unchanged.
func Normalize(q quat.Number) quat.Number {
	n := quat.Abs(q)
	if n == 0 {
		return q
	}
	return quat.Scale(1/n, q)
}

// RotateByQuat rotates v by the unit quaternion q via the sandwich product
// q·v·q̄.
func RotateByQuat(q quat.Number, v r3.Vector) r3.Vector {
	w := quat.Mul(quat.Mul(q, quat.Number{Imag: v.X, Jmag: v.Y, Kmag: v.Z}), quat.Conj(q))
	return r3.Vector{X: w.Imag, Y: w.Jmag, Z: w.Kmag}
}

// HodographProduct returns the vector part of p·i·q̄, the kernel term of the
// quaternion form of a Pythagorean hodograph r′(t) = q(t)·i·q̄(t).
func HodographProduct(p, q quat.Number) r3.Vector {
	w := quat.Mul(quat.Mul(p, quat.Number{Imag: 1}), quat.Conj(q))
	return r3.Vector{X: w.Imag, Y: w.Jmag, Z: w.Kmag}
}

// SymmetricHodographProduct returns vec(p·i·q̄ + q·i·p̄). The result is a pure
// vector since the sum equals the negation of its own conjugate.
func SymmetricHodographProduct(p, q quat.Number) r3.Vector {
	return HodographProduct(p, q).Add(HodographProduct(q, p))
}

// QuaternionAlmostEqual tells whether two quaternions are within epsilon of one
// another component-wise.
func QuaternionAlmostEqual(a, b quat.Number, epsilon float64) bool {
	return math.Abs(a.Real-b.Real) < epsilon &&
		math.Abs(a.Imag-b.Imag) < epsilon &&
		math.Abs(a.Jmag-b.Jmag) < epsilon &&
		math.Abs(a.Kmag-b.Kmag) < epsilon
}

// R3VectorAlmostEqual tells whether two r3 vectors are within epsilon of one
// another component-wise.
func R3VectorAlmostEqual(a, b r3.Vector, epsilon float64) bool {
	return math.Abs(a.X-b.X) < epsilon && math.Abs(a.Y-b.Y) < epsilon && math.Abs(a.Z-b.Z) < epsilon
}
