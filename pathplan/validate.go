// Package pathplan chains Pythagorean-hodograph curve segments into paths and
// checks geometric continuity across their joins.
package pathplan

import (
	"go.viam.com/phcurve/curve"
)

// ValidateG2 reports whether curve b continues curve a with G² continuity at
// the shared join, i.e. a's end and b's start agree in position, tangent
// direction and principal normal within tol.
//
// Direction agreement is measured by cross-product magnitude, so exact
// parallel alignment is required rather than a small angle in one plane. Near
// 180° the cross product of unit vectors is also small, so antiparallel
// directions can slip through a loose tolerance; callers needing to exclude
// reversals must check orientation themselves.
func ValidateG2(a, b *curve.PHCurve, tol float64) bool {
	if a.Position(1).Sub(b.Position(0)).Norm() > tol {
		return false
	}

	ta, okA := a.TangentUnit(1)
	tb, okB := b.TangentUnit(0)
	if !okA || !okB {
		return false
	}
	if ta.Cross(tb).Norm() > tol {
		return false
	}

	na, okA := a.PrincipalNormal(1)
	nb, okB := b.PrincipalNormal(0)
	if okA != okB {
		return false
	}
	// two locally straight ends agree trivially
	if !okA {
		return true
	}
	return na.Cross(nb).Norm() <= tol
}
