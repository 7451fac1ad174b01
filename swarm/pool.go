package swarm

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// pool drains a shared job source with a fixed set of workers.
// Dispatch order is FIFO by input index; completion order is whatever
// the network gives us. The pool bounds in-flight concurrency, the
// admission controller bounds throughput.
type pool struct {
	workers   []*worker
	jobs      chan Job
	collector *Collector

	// onRecord is called after each outcome lands, outside the
	// collector's lock. Used for progress events.
	onRecord func(job Job, outcome Outcome, completed int)
}

// run returns once every job has reached a terminal outcome and been
// recorded. On batch cancellation the remaining jobs are drained and
// recorded as cancelled rather than abandoned. A collector error
// (double-processed job) is fatal to the run.
func (p *pool) run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	for _, w := range p.workers {
		w := w
		g.Go(func() error {
			for job := range p.jobs {
				var outcome Outcome
				if gctx.Err() != nil {
					outcome = cancelledOutcome()
				} else {
					outcome = w.process(gctx, job)
				}
				if err := p.collector.Record(job.Index, outcome); err != nil {
					return err
				}
				if p.onRecord != nil {
					p.onRecord(job, outcome, p.collector.Filled())
				}
			}
			return nil
		})
	}

	return g.Wait()
}
