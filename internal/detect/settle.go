package detect

import (
	"context"
	"fmt"
	"sync"
)

// Settled is the outcome of one task: a value or an error, never both.
type Settled[T any] struct {
	Value T
	Err   error
}

// SettleAll runs every task with at most limit in flight and waits for all
// of them. A failing or panicking task only affects its own slot; results are
// in task order regardless of completion order. Tasks not yet started when
// ctx ends settle with ctx.Err().
func SettleAll[T any](ctx context.Context, limit int, tasks []func(context.Context) (T, error)) []Settled[T] {
	results := make([]Settled[T], len(tasks))
	if limit <= 0 || limit > len(tasks) {
		limit = len(tasks)
	}

	sem := make(chan struct{}, max(limit, 1))
	var wg sync.WaitGroup

	for i, task := range tasks {
		if err := ctx.Err(); err != nil {
			results[i].Err = err
			continue
		}
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			results[i].Err = ctx.Err()
			continue
		}

		wg.Add(1)
		go func(i int, task func(context.Context) (T, error)) {
			defer wg.Done()
			defer func() { <-sem }()
			defer func() {
				if r := recover(); r != nil {
					results[i] = Settled[T]{Err: fmt.Errorf("task %d panicked: %v", i, r)}
				}
			}()

			v, err := task(ctx)
			if err != nil {
				results[i] = Settled[T]{Err: err}
				return
			}
			results[i] = Settled[T]{Value: v}
		}(i, task)
	}

	wg.Wait()
	return results
}
