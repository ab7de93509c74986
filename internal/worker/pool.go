// Package worker provides a small generic fan-out/fan-in pool, reused by
// the path sandbox's pass over multiple extracted path tokens and by the
// secrets guard's per-line text scan. Fan-out is coordinated with
// golang.org/x/sync's errgroup rather than a hand-rolled sync.WaitGroup.
package worker

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Result pairs a processed item's output with its original position so
// callers can restore input order after concurrent processing.
type Result[T any] struct {
	Index int
	Value T
	Err   error
}

// Pool runs a function over a list of strings with a bounded number of
// concurrent workers.
type Pool[T any] struct {
	concurrency int
}

// NewPool builds a pool with the given concurrency, defaulting to
// runtime.NumCPU() when concurrency <= 0.
func NewPool[T any](concurrency int) *Pool[T] {
	if concurrency <= 0 {
		concurrency = runtime.NumCPU()
	}
	return &Pool[T]{concurrency: concurrency}
}

// Process runs fn over items, returning results in input order. Per-item
// errors are captured in the corresponding Result rather than aborting the
// batch, so fn itself never returns an error to the group.
func (p *Pool[T]) Process(items []string, fn func(string) (T, error)) []Result[T] {
	results := make([]Result[T], len(items))

	g, _ := errgroup.WithContext(context.Background())
	g.SetLimit(p.concurrency)
	for i := range items {
		i := i
		g.Go(func() error {
			value, err := fn(items[i])
			results[i] = Result[T]{Index: i, Value: value, Err: err}
			return nil
		})
	}
	g.Wait()
	return results
}
