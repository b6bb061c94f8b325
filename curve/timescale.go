package curve

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

var errEmptyTimeSpan = errors.New("time span must have positive duration")

// TimeScale maps an absolute time interval [T0,T1] onto the canonical curve
// parameter domain [0,1].
type TimeScale struct {
	T0, T1 float64
}

// NewTimeScale returns a scale over the given absolute interval. T1 must be
// strictly greater than T0.
func NewTimeScale(t0, t1 float64) (TimeScale, error) {
	if t1 <= t0 {
		return TimeScale{}, errEmptyTimeSpan
	}
	return TimeScale{T0: t0, T1: t1}, nil
}

// Duration returns T1 − T0.
func (ts TimeScale) Duration() float64 {
	return ts.T1 - ts.T0
}

// Normalize maps an absolute time onto [0,1]. Times outside [T0,T1]
// extrapolate linearly.
func (ts TimeScale) Normalize(abs float64) float64 {
	return (abs - ts.T0) / ts.Duration()
}

// Denormalize maps a canonical parameter back to absolute time.
func (ts TimeScale) Denormalize(u float64) float64 {
	return ts.T0 + u*ts.Duration()
}

// Velocity returns dr/dτ at the given absolute time τ, the canonical-domain
// derivative rescaled by the chain rule.
func (ts TimeScale) Velocity(c *PHCurve, abs float64) r3.Vector {
	return c.Derivative(ts.Normalize(abs)).Mul(1 / ts.Duration())
}

// SpeedAt returns the magnitude of Velocity at the given absolute time.
func (ts TimeScale) SpeedAt(c *PHCurve, abs float64) float64 {
	return c.Speed(ts.Normalize(abs)) / ts.Duration()
}
