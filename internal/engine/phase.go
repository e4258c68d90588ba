package engine

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// slot holds one task's outcome. Each task writes only its own slot, so the
// phase needs no locking; Done is false when the task never ran.
type slot[T any] struct {
	Value T
	Done  bool
}

// runPhase runs task(ctx, i) for i in [0, n) on pool and returns once every
// submitted task has finished (the phase barrier). A failing task never
// cancels its siblings.
//
// The returned error joins task panics and submission failures (a done ctx,
// a closed pool). Tasks that could not be submitted leave their slot empty.
func runPhase[T any](ctx context.Context, pool *Pool, n int, task func(ctx context.Context, i int) T) ([]slot[T], error) {
	slots := make([]slot[T], n)
	taskErrs := make([]error, n)

	var g errgroup.Group
	var submitErr error
	for i := range n {
		if err := pool.Acquire(ctx); err != nil {
			submitErr = fmt.Errorf("submit task %d of %d: %w", i+1, n, err)
			break
		}
		g.Go(func() (err error) {
			defer pool.Release()
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("task %d panicked: %v", i, r)
					taskErrs[i] = err
				}
			}()
			slots[i] = slot[T]{Value: task(ctx, i), Done: true}
			return nil
		})
	}
	// taskErrs carries every panic; Wait only reports the first.
	_ = g.Wait()

	return slots, errors.Join(append([]error{submitErr}, taskErrs...)...)
}
