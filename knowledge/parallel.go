package knowledge

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
)

const workerCap = 16

type indexedResult[R any] struct {
	index  int
	result R
	err    error
}

// processParallel runs fn over items on a bounded worker pool and returns
// the results in item order. The first failure cancels the remaining work.
func processParallel[T, R any](ctx context.Context, workers int, items []T, fn func(context.Context, T) (R, error)) ([]R, error) {
	if len(items) == 0 {
		return []R{}, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	n := workerCount(workers, len(items))
	queue := make(chan int, len(items))
	results := make(chan indexedResult[R], len(items))

	var wg sync.WaitGroup
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range queue {
				if ctx.Err() != nil {
					results <- indexedResult[R]{index: i, err: ctx.Err()}
					continue
				}
				r, err := fn(ctx, items[i])
				if err != nil {
					cancel()
				}
				results <- indexedResult[R]{index: i, result: r, err: err}
			}
		}()
	}

	for i := range items {
		queue <- i
	}
	close(queue)

	wg.Wait()
	close(results)

	out := make([]R, len(items))
	var failed *indexedResult[R]
	for r := range results {
		if r.err == nil {
			out[r.index] = r.result
			continue
		}
		// Cancellations caused by the failing batch must not mask it.
		if failed == nil || (errors.Is(failed.err, context.Canceled) && !errors.Is(r.err, context.Canceled)) {
			failed = &r
		}
	}

	if failed != nil {
		return nil, fmt.Errorf("batch %d: %w", failed.index, failed.err)
	}
	return out, nil
}

// workerCount uses workers when positive, otherwise min(NumCPU*2,
// workerCap), never more than the number of items.
func workerCount(workers, items int) int {
	if workers <= 0 {
		workers = min(runtime.NumCPU()*2, workerCap)
	}
	return max(min(workers, items), 1)
}
