package processor

import (
	"context"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is used when Processor.Concurrency is not positive
const DefaultConcurrency = 2

// ProcessAll runs jobs with at most Concurrency of them in flight. A
// failing job does not stop the others; results keep the order of jobs
// and the returned error combines every failure.
func (p *Processor) ProcessAll(ctx context.Context, jobs []Job) ([]Result, error) {
	limit := p.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}

	results := make([]Result, len(jobs))
	errs := make([]error, len(jobs))

	var g errgroup.Group
	g.SetLimit(limit)
	for i := range jobs {
		if ctx.Err() != nil {
			errs[i] = ctx.Err()
			results[i] = Result{Input: jobs[i].Input}
			continue
		}
		g.Go(func() error {
			results[i], errs[i] = p.Process(ctx, jobs[i])
			return nil
		})
	}
	_ = g.Wait()

	err := multierr.Combine(errs...)
	if err != nil {
		p.logger().Warn("batch finished with failures",
			zap.Int("jobs", len(jobs)),
			zap.Int("failed", len(multierr.Errors(err))))
	}
	return results, err
}
