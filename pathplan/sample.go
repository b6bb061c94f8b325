package pathplan

import (
	"context"
	"math"
	"runtime"
	"sync"

	"github.com/golang/geo/r3"
	"go.viam.com/utils"

	"go.viam.com/phcurve/curve"
)

// ParallelFactor controls the max level of parallelization of path sampling.
// This might be useful to set in tests where too much parallelism actually
// slows tests down in aggregate.
var ParallelFactor = runtime.GOMAXPROCS(0)

func init() {
	if ParallelFactor <= 0 {
		ParallelFactor = 1
	}
}

// SamplePath evaluates perSegment positions on every segment, spread uniformly
// over each segment's canonical domain, and returns them in path order.
// Evaluation is stateless, so the work is fanned out across worker goroutines
// in contiguous chunks.
func SamplePath(ctx context.Context, segments []*curve.PHCurve, perSegment int) ([]r3.Vector, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(segments) == 0 || perSegment <= 0 {
		return nil, nil
	}

	total := len(segments) * perSegment
	out := make([]r3.Vector, total)

	workers := ParallelFactor
	if workers > total {
		workers = total
	}
	chunk := int(math.Ceil(float64(total) / float64(workers)))

	var wait sync.WaitGroup
	for w := 0; w < workers; w++ {
		from := w * chunk
		to := from + chunk
		if to > total {
			to = total
		}
		if from >= to {
			break
		}
		wait.Add(1)
		utils.PanicCapturingGo(func() {
			defer wait.Done()
			for i := from; i < to; i++ {
				seg := segments[i/perSegment]
				u := 0.0
				if perSegment > 1 {
					u = float64(i%perSegment) / float64(perSegment-1)
				}
				out[i] = seg.Position(u)
			}
		})
	}
	wait.Wait()
	return out, nil
}
