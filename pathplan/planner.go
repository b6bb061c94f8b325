package pathplan

import (
	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/phcurve/curve"
)

// Planner assembles an ordered, append-only sequence of curve segments.
// Segments are never mutated in place; reads hand out snapshots. A Planner is
// not safe for concurrent mutation.
type Planner struct {
	segments []*curve.PHCurve
	logger   golog.Logger
}

// NewPlanner returns an empty planner.
func NewPlanner(logger golog.Logger) *Planner {
	return &Planner{logger: logger}
}

// AddSegment constructs a quintic segment from the two Hermite records and
// appends it, anchored at the start record's position so that adjacent
// segments share absolute coordinates.
func (p *Planner) AddSegment(p0, p1 curve.BoundaryPoint) error {
	c, err := curve.NewQuintic(p0, p1)
	if err != nil {
		return errors.Wrapf(err, "segment %d", len(p.segments))
	}
	p.segments = append(p.segments, c.Translated(p0.Position))
	p.logger.Debugw("segment appended", "count", len(p.segments))
	return nil
}

// AddCurve appends a pre-built segment, letting fitted or cubic curves join a
// path alongside factory-built quintics.
func (p *Planner) AddCurve(c *curve.PHCurve) {
	p.segments = append(p.segments, c)
}

// Len returns the number of segments.
func (p *Planner) Len() int {
	return len(p.segments)
}

// Segments returns a snapshot of the path in insertion order.
func (p *Planner) Segments() []*curve.PHCurve {
	out := make([]*curve.PHCurve, len(p.segments))
	copy(out, p.segments)
	return out
}

// ValidatePath reports whether every adjacent pair of segments joins with G²
// continuity, short-circuiting on the first failure. Paths with fewer than two
// segments are trivially valid.
func (p *Planner) ValidatePath(tol float64) bool {
	for i := 0; i+1 < len(p.segments); i++ {
		if !ValidateG2(p.segments[i], p.segments[i+1], tol) {
			return false
		}
	}
	return true
}

// ExplainPath checks every join and returns an aggregated error naming each
// one that fails, or nil when the whole path is continuous.
func (p *Planner) ExplainPath(tol float64) error {
	var err error
	for i := 0; i+1 < len(p.segments); i++ {
		if !ValidateG2(p.segments[i], p.segments[i+1], tol) {
			err = multierr.Append(err, errors.Errorf("join %d is not G2 continuous within %g", i, tol))
		}
	}
	return err
}
