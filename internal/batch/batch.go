// Package batch fans a set of API calls out across a bounded pool of
// workers and collects per-call results.
package batch

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// DefaultConcurrency is the default number of concurrent workers.
const DefaultConcurrency = 5

// Result is the outcome of a single call in a batch.
type Result[T any] struct {
	Key     string
	Success bool
	Error   error
	Data    T
}

// Run executes fn once per key with bounded parallelism. Individual call
// failures are recorded in the results rather than aborting the batch;
// only context cancellation stops the run early. When progress is set, a
// counter is written to errOut as calls complete.
func Run[T any](
	ctx context.Context,
	keys []string,
	concurrency int64,
	progress bool,
	errOut io.Writer,
	fn func(ctx context.Context, key string) (T, error),
) []Result[T] {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	if errOut == nil {
		errOut = io.Discard
	}

	sem := semaphore.NewWeighted(concurrency)
	var mu sync.Mutex
	results := make([]Result[T], 0, len(keys))
	total := len(keys)
	var done int64

	g, ctx := errgroup.WithContext(ctx)

	for _, key := range keys {
		key := key
		g.Go(func() error {
			if err := sem.Acquire(ctx, 1); err != nil {
				return nil // context cancelled, don't add to results
			}
			defer sem.Release(1)

			if ctx.Err() != nil {
				return nil
			}

			data, err := fn(ctx, key)

			mu.Lock()
			if err != nil {
				results = append(results, Result[T]{Key: key, Error: err})
			} else {
				results = append(results, Result[T]{Key: key, Success: true, Data: data})
			}
			mu.Unlock()

			if progress && total > 0 {
				current := atomic.AddInt64(&done, 1)
				mu.Lock()
				_, _ = fmt.Fprintf(errOut, "\rProcessed %d/%d", current, total)
				mu.Unlock()
			}

			return nil // individual errors never fail the group
		})
	}

	_ = g.Wait()

	if progress && total > 0 {
		mu.Lock()
		_, _ = fmt.Fprintf(errOut, "\rProcessed %d/%d\n", atomic.LoadInt64(&done), total)
		mu.Unlock()
	}

	return results
}

// Count returns success and failure tallies for a finished batch.
func Count[T any](results []Result[T]) (success, failure int) {
	for _, r := range results {
		if r.Success {
			success++
		} else {
			failure++
		}
	}
	return
}
