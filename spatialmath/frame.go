// Package spatialmath defines the spatial mathematical operations shared by the
// curve construction and fitting packages: orthonormal Frenet frames, their
// quaternion representation, and the quaternion products underlying the
// Pythagorean-hodograph parameterization.
package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/num/quat"
)

// Below this magnitude a vector is treated as zero and cannot anchor a frame.
const defaultVectorEpsilon = 1e-8

var (
	errZeroTangent    = errors.New("tangent magnitude too small to define a frame")
	errParallelNormal = errors.New("normal is parallel to tangent, frame is undefined")
)

// Frame is an orthonormal (tangent, normal, binormal) triple describing the
// local orientation of a curve.
type Frame struct {
	Tangent  r3.Vector
	Normal   r3.Vector
	Binormal r3.Vector
}

// NewFrame builds an orthonormal frame from a tangent and an approximate normal.
// The tangent direction is kept exactly; the normal is re-orthogonalized against
// it and the binormal completes the right-handed triple. The inputs need not be
// unit length but must be nonzero and non-parallel.
func NewFrame(tangent, normal r3.Vector) (*Frame, error) {
	if tangent.Norm() < defaultVectorEpsilon {
		return nil, errZeroTangent
	}
	t := tangent.Normalize()
	n := normal.Sub(t.Mul(t.Dot(normal)))
	if n.Norm() < defaultVectorEpsilon {
		return nil, errParallelNormal
	}
	n = n.Normalize()
	return &Frame{Tangent: t, Normal: n, Binormal: t.Cross(n)}, nil
}

// Quaternion returns the unit quaternion rotating the standard basis onto the
// frame, i.e. i maps to Tangent, j to Normal, and k to Binormal. Conversion from
// the column matrix (T N B) uses Shepperd's method for numerical stability.
func (f *Frame) Quaternion() quat.Number {
	m00, m10, m20 := f.Tangent.X, f.Tangent.Y, f.Tangent.Z
	m01, m11, m21 := f.Normal.X, f.Normal.Y, f.Normal.Z
	m02, m12, m22 := f.Binormal.X, f.Binormal.Y, f.Binormal.Z
	tr := m00 + m11 + m22

	var q quat.Number
	switch {
	case tr > 0:
		s := math.Sqrt(tr+1.0) * 2
		q = quat.Number{Real: s / 4, Imag: (m21 - m12) / s, Jmag: (m02 - m20) / s, Kmag: (m10 - m01) / s}
	case m00 > m11 && m00 > m22:
		s := math.Sqrt(1.0+m00-m11-m22) * 2
		q = quat.Number{Real: (m21 - m12) / s, Imag: s / 4, Jmag: (m01 + m10) / s, Kmag: (m02 + m20) / s}
	case m11 > m22:
		s := math.Sqrt(1.0+m11-m00-m22) * 2
		q = quat.Number{Real: (m02 - m20) / s, Imag: (m01 + m10) / s, Jmag: s / 4, Kmag: (m12 + m21) / s}
	default:
		s := math.Sqrt(1.0+m22-m00-m11) * 2
		q = quat.Number{Real: (m10 - m01) / s, Imag: (m02 + m20) / s, Jmag: (m12 + m21) / s, Kmag: s / 4}
	}
	return Normalize(q)
}

// OrthonormalWithin returns whether the frame's three axes are unit length and
// mutually orthogonal within tol.
func (f *Frame) OrthonormalWithin(tol float64) bool {
	return math.Abs(f.Tangent.Norm()-1) <= tol &&
		math.Abs(f.Normal.Norm()-1) <= tol &&
		math.Abs(f.Binormal.Norm()-1) <= tol &&
		math.Abs(f.Tangent.Dot(f.Normal)) <= tol &&
		math.Abs(f.Tangent.Dot(f.Binormal)) <= tol &&
		math.Abs(f.Normal.Dot(f.Binormal)) <= tol
}
