package fit

import (
	"math"
	"testing"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"go.viam.com/phcurve/curve"
	"go.viam.com/phcurve/spatialmath"
)

// quarterCircleSamples draws noise-free samples from a quintic built for a
// quarter circle of radius 1, with times already spanning [0,1].
func quarterCircleSamples(t *testing.T, n int, withTangents bool) []curve.BoundaryPoint {
	t.Helper()
	speed := math.Pi / 2
	p0 := curve.BoundaryPoint{Position: r3.Vector{X: 1}, Tangent: r3.Vector{Y: speed}, Curvature: 1, Normal: r3.Vector{X: -1}}
	p1 := curve.BoundaryPoint{Position: r3.Vector{Y: 1}, Tangent: r3.Vector{X: -speed}, Curvature: 1, Normal: r3.Vector{Y: -1}}
	gen, err := curve.NewQuintic(p0, p1)
	test.That(t, err, test.ShouldBeNil)
	abs := gen.Translated(p0.Position)

	samples := make([]curve.BoundaryPoint, 0, n)
	for i := 0; i < n; i++ {
		u := float64(i) / float64(n-1)
		normal, ok := abs.PrincipalNormal(u)
		test.That(t, ok, test.ShouldBeTrue)
		tangent := r3.Vector{}
		if withTangents {
			tangent = abs.Derivative(u)
		}
		samples = append(samples, curve.NewSample(u, abs.Position(u), tangent, abs.Curvature(u), normal))
	}
	return samples
}

func TestFitIdempotence(t *testing.T) {
	logger := golog.NewTestLogger(t)
	samples := quarterCircleSamples(t, 9, true)

	res, err := Segment(samples, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, res.Converged, test.ShouldBeTrue)
	test.That(t, res.RMSPosition, test.ShouldBeLessThan, 1e-5)
	test.That(t, res.RMSOrientation, test.ShouldBeLessThan, 1e-5)
	test.That(t, res.TimeScale.T0, test.ShouldEqual, 0)
	test.That(t, res.TimeScale.T1, test.ShouldEqual, 1)

	// the recovered tangent magnitudes reproduce the generator's speed
	test.That(t, res.Curve.Speed(0), test.ShouldAlmostEqual, math.Pi/2, 1e-3)
	test.That(t, res.Curve.Speed(1), test.ShouldAlmostEqual, math.Pi/2, 1e-3)

	// the fitted curve is anchored at the first sample
	test.That(t, spatialmath.R3VectorAlmostEqual(res.Curve.Position(0), samples[0].Position, 1e-9), test.ShouldBeTrue)
}

func TestFitInfersTangentDirections(t *testing.T) {
	logger := golog.NewTestLogger(t)
	// no tangents recorded at all: directions come from neighbor differences,
	// so the fit is approximate but must still land close
	samples := quarterCircleSamples(t, 17, false)

	res, err := Segment(samples, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, res.RMSPosition, test.ShouldBeLessThan, 0.05)
}

func TestFitAbsoluteTimeNormalization(t *testing.T) {
	logger := golog.NewTestLogger(t)
	samples := quarterCircleSamples(t, 9, true)
	// restamp onto an absolute window
	for i := range samples {
		samples[i].Time = 10 + 4*samples[i].Time
	}

	res, err := Segment(samples, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, res.Converged, test.ShouldBeTrue)
	test.That(t, res.TimeScale.T0, test.ShouldEqual, 10)
	test.That(t, res.TimeScale.T1, test.ShouldEqual, 14)
	test.That(t, res.RMSPosition, test.ShouldBeLessThan, 1e-5)

	// velocity in absolute time accounts for the 4-second traversal
	v := res.TimeScale.SpeedAt(res.Curve, 12)
	test.That(t, v, test.ShouldAlmostEqual, res.Curve.Speed(0.5)/4, 1e-12)
}

func TestFitInputValidation(t *testing.T) {
	logger := golog.NewTestLogger(t)

	_, err := Segment(nil, logger)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = Segment([]curve.BoundaryPoint{curve.NewSample(0, r3.Vector{}, r3.Vector{}, 0, r3.Vector{})}, logger)
	test.That(t, err, test.ShouldNotBeNil)

	// identical timestamps leave no time span to normalize
	same := []curve.BoundaryPoint{
		curve.NewSample(1, r3.Vector{}, r3.Vector{X: 1}, 0, r3.Vector{}),
		curve.NewSample(1, r3.Vector{X: 1}, r3.Vector{X: 1}, 0, r3.Vector{}),
	}
	_, err = Segment(same, logger)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestFitUnsortedSamples(t *testing.T) {
	logger := golog.NewTestLogger(t)
	samples := quarterCircleSamples(t, 9, true)
	// shuffle deterministically; the fitter orders by timestamp
	samples[0], samples[4] = samples[4], samples[0]
	samples[1], samples[7] = samples[7], samples[1]

	res, err := Segment(samples, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, res.Converged, test.ShouldBeTrue)
	test.That(t, res.RMSPosition, test.ShouldBeLessThan, 1e-5)
}
