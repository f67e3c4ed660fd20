package transform

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/restruct-labs/restruct/internal/cast"
)

// DefaultMaxSweeps bounds pathological oscillation. Hitting the
// ceiling is a diagnostic, not an error: the tree at that point is
// valid, just not maximally simplified.
const DefaultMaxSweeps = 32

// Report describes one pipeline run.
type Report struct {
	Changed   bool
	Sweeps    int
	Converged bool
}

// Pipeline runs an ordered list of passes repeatedly until a full
// sweep changes nothing, or the sweep ceiling is hit. Passes
// communicate only through the mutated tree.
type Pipeline struct {
	passes    []Pass
	maxSweeps int
	checkTree bool
	logger    *zap.Logger
}

// PipelineOption adjusts pipeline construction.
type PipelineOption func(*Pipeline)

// WithMaxSweeps overrides the sweep ceiling.
func WithMaxSweeps(n int) PipelineOption {
	return func(p *Pipeline) {
		if n > 0 {
			p.maxSweeps = n
		}
	}
}

// WithTreeCheck makes every sweep verify strict tree ownership.
// Violations are fatal internal-consistency errors.
func WithTreeCheck() PipelineOption {
	return func(p *Pipeline) { p.checkTree = true }
}

// NewPipeline assembles a pipeline over the given passes, in order.
func NewPipeline(logger *zap.Logger, passes []Pass, opts ...PipelineOption) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Pipeline{passes: passes, maxSweeps: DefaultMaxSweeps, logger: logger}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// RunToFixpoint mutates fn in place. The returned report is valid even
// on the non-convergence path; a non-nil error means fn must be
// discarded.
func (p *Pipeline) RunToFixpoint(fn *cast.Function) (Report, error) {
	var report Report
	for sweep := 0; sweep < p.maxSweeps; sweep++ {
		report.Sweeps = sweep + 1
		sweepChanged := false
		for _, pass := range p.passes {
			changed, err := pass.Run(fn)
			if err != nil {
				return report, fmt.Errorf("pass %s on %s: %w", pass.Name(), fn.Name, err)
			}
			if !changed {
				continue
			}
			sweepChanged = true
			p.logger.Debug("pass changed tree",
				zap.String("pass", pass.Name()),
				zap.String("function", fn.Name),
				zap.Int("sweep", sweep+1))
			p.invalidateOthers(pass)
		}
		if p.checkTree {
			if err := cast.CheckTree(fn); err != nil {
				return report, err
			}
		}
		if !sweepChanged {
			report.Converged = true
			return report, nil
		}
		report.Changed = true
	}
	p.logger.Warn("sweep ceiling reached before fixpoint",
		zap.String("function", fn.Name),
		zap.Int("max_sweeps", p.maxSweeps))
	return report, nil
}

// invalidateOthers drops the per-node caches of every pass except the
// one that just ran; a pass's own rewrites maintain its cache
// incrementally.
func (p *Pipeline) invalidateOthers(ran Pass) {
	for _, pass := range p.passes {
		if pass == ran {
			continue
		}
		if holder, ok := pass.(cacheHolder); ok {
			holder.InvalidateCache()
		}
	}
}
