// Package pool runs independent tasks under a fixed concurrency ceiling.
package pool

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/semaphore"
)

// ErrPanicked marks a task that panicked instead of returning
var ErrPanicked = errors.New("task panicked")

// Result is the outcome of one task. Index refers to the position of the
// task's input, so results can be matched back to what produced them.
type Result[T any] struct {
	Index int
	Value T
	Err   error
}

// Map applies fn to every input with at most limit calls in flight.
// A permit is acquired before each goroutine starts and released as soon as
// fn returns. One task failing never affects the others. The returned slice
// has the same length and order as inputs.
//
// If ctx is cancelled while waiting for a permit, the remaining inputs are
// not started and their results carry the context error.
func Map[In, Out any](ctx context.Context, limit int, inputs []In, fn func(context.Context, In) (Out, error)) []Result[Out] {
	if limit < 1 {
		limit = 1
	}

	results := make([]Result[Out], len(inputs))
	sem := semaphore.NewWeighted(int64(limit))
	var wg sync.WaitGroup

	for i, in := range inputs {
		results[i].Index = i
		if err := sem.Acquire(ctx, 1); err != nil {
			for j := i; j < len(inputs); j++ {
				results[j] = Result[Out]{Index: j, Err: err}
			}
			break
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := run(ctx, sem, in, fn)
			results[i].Value = v
			results[i].Err = err
		}()
	}

	wg.Wait()
	return results
}

func run[In, Out any](ctx context.Context, sem *semaphore.Weighted, in In, fn func(context.Context, In) (Out, error)) (out Out, err error) {
	defer sem.Release(1)
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrPanicked, r)
		}
	}()
	return fn(ctx, in)
}
