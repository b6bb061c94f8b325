package curve

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/integrate"
)

const (
	// Tolerance for deciding that the recovered speed polynomial genuinely
	// squares back to the hodograph's Gram coefficients.
	sigmaRecoveryEpsilon = 1e-9

	// Fixed step count of the numerical fallback integration.
	arcLengthSteps = 200
)

// ArcLength returns the arc length of the curve over [0,t].
//
// When the curve is an exact Pythagorean hodograph, ‖r′(t)‖² has a polynomial
// square root σ(t) and the arc length is the closed-form integral of σ. The
// Hermite factories do not enforce the PH orthogonality constraints, so σ is
// recovered by convolution square root and verified against every Gram
// coefficient; when verification fails the length falls back to fixed-step
// Simpson integration of Speed. Both paths agree on genuine PH input.
func (c *PHCurve) ArcLength(t float64) float64 {
	if sigma, ok := c.speedPolynomial(); ok {
		length := 0.0
		for k, s := range sigma {
			length += s * math.Pow(t, float64(k+1)) / float64(k+1)
		}
		return length
	}
	return c.arcLengthSimpson(t)
}

// speedPolynomial attempts to recover σ(t) = s0 + s1·t + … + s4·t⁴ with
// σ(t)² = ‖r′(t)‖², reporting failure when the hodograph is not an exact
// Pythagorean square or σ changes sign on [0,1].
func (c *PHCurve) speedPolynomial() ([5]float64, bool) {
	var sigma [5]float64
	g := c.gramCoefficients()
	if g[0] < sigmaRecoveryEpsilon {
		return sigma, false
	}

	sigma[0] = math.Sqrt(g[0])
	sigma[1] = g[1] / (2 * sigma[0])
	sigma[2] = (g[2] - sigma[1]*sigma[1]) / (2 * sigma[0])
	sigma[3] = (g[3] - 2*sigma[1]*sigma[2]) / (2 * sigma[0])
	sigma[4] = (g[4] - 2*sigma[1]*sigma[3] - sigma[2]*sigma[2]) / (2 * sigma[0])

	// verify σ² reproduces every Gram coefficient, not just the five used above
	scale := 0.0
	for _, gk := range g {
		scale = math.Max(scale, math.Abs(gk))
	}
	tol := sigmaRecoveryEpsilon * math.Max(1, scale)
	for k := 0; k <= 8; k++ {
		conv := 0.0
		for i := 0; i <= 4; i++ {
			j := k - i
			if j < 0 || j > 4 {
				continue
			}
			conv += sigma[i] * sigma[j]
		}
		if math.Abs(conv-g[k]) > tol {
			return sigma, false
		}
	}

	// the branch s0 = +√g0 must stay nonnegative for the integral to be a length
	for i := 0; i <= 10; i++ {
		u := float64(i) / 10
		v := sigma[0] + u*(sigma[1]+u*(sigma[2]+u*(sigma[3]+u*sigma[4])))
		if v < 0 {
			return sigma, false
		}
	}
	return sigma, true
}

// gramCoefficients returns the coefficients g0..g8 of ‖r′(t)‖², the
// self-convolution of the hodograph coefficients under the dot product.
func (c *PHCurve) gramCoefficients() [9]float64 {
	hodo := [5]r3.Vector{c.A, c.B, c.C, c.D, c.E}
	var g [9]float64
	for i := 0; i <= 4; i++ {
		for j := 0; j <= 4; j++ {
			g[i+j] += hodo[i].Dot(hodo[j])
		}
	}
	return g
}

// arcLengthSimpson integrates Speed over [0,t] with a fixed-step Simpson rule.
func (c *PHCurve) arcLengthSimpson(t float64) float64 {
	if t == 0 {
		return 0
	}
	sign := 1.0
	if t < 0 {
		sign, t = -1, -t
	}
	xs := make([]float64, arcLengthSteps+1)
	ys := make([]float64, arcLengthSteps+1)
	for i := range xs {
		u := sign * t * float64(i) / arcLengthSteps
		xs[i] = t * float64(i) / arcLengthSteps
		ys[i] = c.Speed(u)
	}
	return sign * integrate.Simpsons(xs, ys)
}
