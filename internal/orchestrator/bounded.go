package orchestrator

import (
	"context"
	"sync"

	"interactions-backend/internal/concurrency"
)

// runBounded applies fn to every item concurrently, admission-bounded by
// limiter, and returns results in the same order as items regardless of
// completion order (spec §5: "across pairs, completion order is
// unspecified").
func runBounded[T, R any](ctx context.Context, limiter *concurrency.Limiter, items []T, fn func(context.Context, T) R) []R {
	results := make([]R, len(items))
	var wg sync.WaitGroup
	for i, item := range items {
		i, item := i, item
		wg.Add(1)
		go func() {
			defer wg.Done()
			limiter.Run(ctx, func(ctx context.Context) {
				results[i] = fn(ctx, item)
			})
		}()
	}
	wg.Wait()
	return results
}
