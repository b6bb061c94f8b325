// Package fit estimates a Pythagorean-hodograph segment from time-stamped
// trajectory samples. The segment's endpoint tangent directions are taken from
// the data (or inferred from neighboring samples) and the two free tangent
// magnitudes are found by Levenberg–Marquardt over the stacked position and
// Frenet-normal residuals of every sample.
package fit

import (
	"math"
	"sort"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/phcurve/curve"
)

// default values for fitting options.
const (
	// iteration budget of the Levenberg–Marquardt loop; exhausting it reports
	// Converged == false, never an error.
	defaultMaxIterations = 100

	// stop once the gradient's infinity norm falls below this.
	defaultGradientEpsilon = 1e-10

	// stop once an accepted step no longer moves the magnitudes.
	defaultStepEpsilon = 1e-12

	// initial damping factor, raised tenfold on rejected steps and lowered
	// tenfold on accepted ones.
	defaultInitialDamping = 1e-3

	// forward-difference step for the numerical Jacobian.
	defaultJump = 1e-6

	// tangent magnitudes are kept above this to avoid degenerate candidates.
	minTangentMagnitude = 1e-9

	maxDamping = 1e12
	minDamping = 1e-12
)

var (
	errTooFewSamples = errors.New("need at least two samples to fit a segment")
	errNoTimeSpan    = errors.New("samples must span a nonzero time interval")
)

// Options configures the fitter. Zero values fall back to the defaults above.
type Options struct {
	MaxIterations   int
	GradientEpsilon float64
	StepEpsilon     float64
	InitialDamping  float64
}

// NewBasicOptions returns the default fitting options.
func NewBasicOptions() *Options {
	return &Options{
		MaxIterations:   defaultMaxIterations,
		GradientEpsilon: defaultGradientEpsilon,
		StepEpsilon:     defaultStepEpsilon,
		InitialDamping:  defaultInitialDamping,
	}
}

func (o *Options) fillDefaults() {
	def := NewBasicOptions()
	if o.MaxIterations <= 0 {
		o.MaxIterations = def.MaxIterations
	}
	if o.GradientEpsilon <= 0 {
		o.GradientEpsilon = def.GradientEpsilon
	}
	if o.StepEpsilon <= 0 {
		o.StepEpsilon = def.StepEpsilon
	}
	if o.InitialDamping <= 0 {
		o.InitialDamping = def.InitialDamping
	}
}

// Result is the immutable outcome of a fit. Curve is anchored at the first
// sample's position; TimeScale maps the samples' absolute time span onto the
// curve's canonical domain. On Converged == false the numeric fields describe
// the last iterate.
type Result struct {
	Curve          *curve.PHCurve
	Converged      bool
	Iterations     int
	RMSPosition    float64
	RMSOrientation float64
	TimeScale      curve.TimeScale
}

// Segment fits a PH segment to the samples with default options.
func Segment(samples []curve.BoundaryPoint, logger golog.Logger) (*Result, error) {
	return SegmentWithOptions(samples, NewBasicOptions(), logger)
}

// SegmentWithOptions fits a PH segment to at least two time-stamped samples.
// Sample positions and normals drive the residual; tangents and curvatures are
// used at the endpoints when present, with zero tangents inferred from the
// neighboring sample's finite difference.
func SegmentWithOptions(samples []curve.BoundaryPoint, opts *Options, logger golog.Logger) (*Result, error) {
	if len(samples) < 2 {
		return nil, errTooFewSamples
	}
	opts.fillDefaults()

	ordered := make([]curve.BoundaryPoint, len(samples))
	copy(ordered, samples)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Time < ordered[j].Time })

	ts, err := curve.NewTimeScale(ordered[0].Time, ordered[len(ordered)-1].Time)
	if err != nil {
		return nil, errNoTimeSpan
	}

	prob, err := newProblem(ordered, ts)
	if err != nil {
		return nil, err
	}

	chord := ordered[len(ordered)-1].Position.Sub(ordered[0].Position).Norm()
	x := []float64{chord, chord}

	res := &Result{TimeScale: ts}
	res.Converged = prob.levenbergMarquardt(x, opts, logger, res)

	final, err := prob.candidate(x)
	if err != nil {
		return nil, errors.Wrap(err, "rebuilding fitted curve")
	}
	res.Curve = final
	res.RMSPosition, res.RMSOrientation = prob.rmsErrors(final)
	logger.Debugw("segment fit finished",
		"converged", res.Converged, "iterations", res.Iterations,
		"rmsPosition", res.RMSPosition, "rmsOrientation", res.RMSOrientation)
	return res, nil
}

// problem holds the fixed parts of the fit: ordered samples, normalized sample
// times, endpoint directions and curvature data.
type problem struct {
	samples []curve.BoundaryPoint
	u       []float64
	dir0    r3.Vector
	dir1    r3.Vector
}

func newProblem(ordered []curve.BoundaryPoint, ts curve.TimeScale) (*problem, error) {
	n := len(ordered)
	p := &problem{samples: ordered, u: make([]float64, n)}
	for i, s := range ordered {
		p.u[i] = ts.Normalize(s.Time)
	}

	p.dir0 = tangentDirection(ordered[0], ordered[1])
	p.dir1 = tangentDirection(ordered[n-1], ordered[n-2])
	if p.dir0.Norm() < minTangentMagnitude || p.dir1.Norm() < minTangentMagnitude {
		return nil, errors.New("cannot infer endpoint tangent directions from coincident samples")
	}
	p.dir0 = p.dir0.Normalize()
	p.dir1 = p.dir1.Normalize()
	return p, nil
}

// tangentDirection uses the sample's own tangent when present, falling back to
// the finite difference toward its neighbor.
func tangentDirection(s, neighbor curve.BoundaryPoint) r3.Vector {
	if s.Tangent.Norm() >= minTangentMagnitude {
		return s.Tangent
	}
	diff := neighbor.Position.Sub(s.Position)
	if neighbor.Time < s.Time {
		diff = diff.Mul(-1)
	}
	return diff
}

// candidate builds the quintic implied by the two free tangent magnitudes,
// anchored at the first sample.
func (p *problem) candidate(x []float64) (*curve.PHCurve, error) {
	first := p.samples[0]
	last := p.samples[len(p.samples)-1]
	bp0 := curve.NewSample(0, first.Position, p.dir0.Mul(math.Max(x[0], minTangentMagnitude)), first.Curvature, first.Normal)
	bp1 := curve.NewSample(1, last.Position, p.dir1.Mul(math.Max(x[1], minTangentMagnitude)), last.Curvature, last.Normal)
	c, err := curve.NewQuintic(bp0, bp1)
	if err != nil {
		return nil, err
	}
	return c.Translated(first.Position), nil
}

// residual stacks, per sample, the position difference and the Frenet-normal
// difference between the candidate curve and the recorded data. Samples
// without a recorded normal contribute zero orientation rows so the system
// shape stays fixed.
func (p *problem) residual(x []float64) ([]float64, bool) {
	c, err := p.candidate(x)
	if err != nil {
		return nil, false
	}
	out := make([]float64, 0, 6*len(p.samples))
	for i, s := range p.samples {
		dp := c.Position(p.u[i]).Sub(s.Position)
		out = append(out, dp.X, dp.Y, dp.Z)
		var dn r3.Vector
		if s.Normal.Norm() >= minTangentMagnitude {
			if n, ok := c.PrincipalNormal(p.u[i]); ok {
				dn = n.Sub(s.Normal)
			}
		}
		out = append(out, dn.X, dn.Y, dn.Z)
	}
	return out, true
}

// levenbergMarquardt minimizes the summed squared residual over the two
// magnitudes in place, reporting whether it converged within the budget.
func (p *problem) levenbergMarquardt(x []float64, opts *Options, logger golog.Logger, res *Result) bool {
	r, ok := p.residual(x)
	if !ok {
		return false
	}
	cost := sumSquares(r)
	damping := opts.InitialDamping

	for res.Iterations = 0; res.Iterations < opts.MaxIterations; res.Iterations++ {
		jac := p.jacobian(x, r)
		grad := []float64{0, 0}
		hess := mat.NewDense(2, 2, nil)
		m := len(r)
		for row := 0; row < m; row++ {
			j0, j1 := jac.At(row, 0), jac.At(row, 1)
			grad[0] += j0 * r[row]
			grad[1] += j1 * r[row]
			hess.Set(0, 0, hess.At(0, 0)+j0*j0)
			hess.Set(0, 1, hess.At(0, 1)+j0*j1)
			hess.Set(1, 1, hess.At(1, 1)+j1*j1)
		}
		hess.Set(1, 0, hess.At(0, 1))

		if floats.Norm(grad, math.Inf(1)) < opts.GradientEpsilon {
			return true
		}

		// damped normal equations (H + λI)δ = −g
		damped := mat.NewDense(2, 2, []float64{
			hess.At(0, 0) + damping, hess.At(0, 1),
			hess.At(1, 0), hess.At(1, 1) + damping,
		})
		rhs := mat.NewDense(2, 1, []float64{-grad[0], -grad[1]})
		var sol mat.Dense
		if err := sol.Solve(damped, rhs); err != nil {
			damping = math.Min(damping*10, maxDamping)
			continue
		}
		step := []float64{sol.At(0, 0), sol.At(1, 0)}

		trial := []float64{
			math.Max(x[0]+step[0], minTangentMagnitude),
			math.Max(x[1]+step[1], minTangentMagnitude),
		}
		trialR, ok := p.residual(trial)
		trialCost := math.Inf(1)
		if ok {
			trialCost = sumSquares(trialR)
		}

		if trialCost < cost {
			stepNorm := math.Hypot(trial[0]-x[0], trial[1]-x[1])
			x[0], x[1] = trial[0], trial[1]
			r, cost = trialR, trialCost
			damping = math.Max(damping*0.1, minDamping)
			if stepNorm < opts.StepEpsilon {
				return true
			}
		} else {
			damping = math.Min(damping*10, maxDamping)
		}
	}
	logger.Debugw("fit iteration budget exhausted", "cost", cost, "damping", damping)
	return false
}

func (p *problem) jacobian(x, r []float64) *mat.Dense {
	m := len(r)
	jac := mat.NewDense(m, 2, nil)
	for col := 0; col < 2; col++ {
		perturbed := []float64{x[0], x[1]}
		perturbed[col] += defaultJump
		rp, ok := p.residual(perturbed)
		if !ok {
			continue
		}
		for row := 0; row < m; row++ {
			jac.Set(row, col, (rp[row]-r[row])/defaultJump)
		}
	}
	return jac
}

// rmsErrors recomputes the root-mean-square position and orientation errors of
// the final curve over all samples. Orientation averages only samples carrying
// a recorded normal.
func (p *problem) rmsErrors(c *curve.PHCurve) (float64, float64) {
	var posSum, oriSum float64
	oriCount := 0
	for i, s := range p.samples {
		posSum += c.Position(p.u[i]).Sub(s.Position).Norm2()
		if s.Normal.Norm() < minTangentMagnitude {
			continue
		}
		oriCount++
		if n, ok := c.PrincipalNormal(p.u[i]); ok {
			oriSum += n.Sub(s.Normal).Norm2()
		}
	}
	rmsPos := math.Sqrt(posSum / float64(len(p.samples)))
	rmsOri := 0.0
	if oriCount > 0 {
		rmsOri = math.Sqrt(oriSum / float64(oriCount))
	}
	return rmsPos, rmsOri
}

func sumSquares(r []float64) float64 {
	sum := 0.0
	for _, v := range r {
		sum += v * v
	}
	return sum
}
