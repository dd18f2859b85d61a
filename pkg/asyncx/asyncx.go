// Package asyncx provides the concurrency primitives used across the
// service: bounded worker pools for fan-out work, hard timeouts around
// whole operations, and fire-and-forget goroutines for non-critical side
// effects. Every helper waits for the goroutines it launches, so contexts
// cancel cleanly and nothing leaks.
package asyncx

import (
	"context"
	"sync"
	"time"
)

// Do fires fn in a goroutine and forgets it.
func Do(fn func()) {
	go fn()
}

// Pool processes items using at most workers goroutines and returns results
// in the original order. The first error encountered is returned after all
// workers have finished.
//
// Use this where unbounded concurrency would be harmful, e.g. fanning out
// to a rate-limited submission provider.
func Pool[T any, R any](
	ctx context.Context,
	workers int,
	items []T,
	fn func(context.Context, T) (R, error),
) ([]R, error) {
	if workers <= 0 {
		workers = 1
	}

	type indexed struct {
		i    int
		item T
	}

	work := make(chan indexed, len(items))
	for i, item := range items {
		work <- indexed{i: i, item: item}
	}
	close(work)

	results := make([]R, len(items))
	errs := make([]error, len(items))

	var wg sync.WaitGroup
	wg.Add(workers)

	for range workers {
		go func() {
			defer wg.Done()
			for w := range work {
				select {
				case <-ctx.Done():
					errs[w.i] = ctx.Err()
					return
				default:
					results[w.i], errs[w.i] = fn(ctx, w.item)
				}
			}
		}()
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}

// WithTimeout runs fn with a deadline of d. Returns context.DeadlineExceeded
// if fn does not finish in time; fn keeps running in its goroutine but its
// result is discarded.
func WithTimeout[T any](ctx context.Context, d time.Duration, fn func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	type res struct {
		v   T
		err error
	}

	ch := make(chan res, 1)
	go func() {
		v, err := fn(ctx)
		ch <- res{v, err}
	}()

	select {
	case r := <-ch:
		return r.v, r.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
