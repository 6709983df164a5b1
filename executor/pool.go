package executor

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Pool is a worker-pool Executor backed by errgroup.Group. Tasks passed to
// Run beyond the concurrency limit queue until a slot frees up. Tasks
// submitted through Go, the Executor method that OwnedPvorm.Update and
// EncryptedPvorm.VerifyUpdate call, each get their own goroutine and are
// not bounded by the limit.
type Pool struct {
	limit int
}

// NewPool returns a Pool allowing up to limit concurrent tasks. limit <= 0
// means unbounded.
func NewPool(limit int) *Pool {
	return &Pool{limit: limit}
}

// Run executes a batch of independent tasks on the pool and returns the
// first error encountered, after waiting for every task to finish (spec §5,
// §9 Open Questions: wait-for-all rather than cancel-on-first-failure).
func (p *Pool) Run(tasks ...func() error) error {
	g, _ := errgroup.WithContext(context.Background())
	if p.limit > 0 {
		g.SetLimit(p.limit)
	}
	errs := make([]error, len(tasks))
	for i, fn := range tasks {
		i, fn := i, fn
		g.Go(func() error {
			errs[i] = fn()
			return nil // never short-circuit: we want every task to run
		})
	}
	_ = g.Wait()
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// Go schedules fn on an unbounded goroutine tracked by nothing but its own
// Handle; Pool satisfies Executor for call sites that build up a batch of
// Handles and Join them individually rather than calling Run.
func (p *Pool) Go(fn func() error) *Handle {
	return Pooled.Go(fn)
}

var _ Executor = (*Pool)(nil)
