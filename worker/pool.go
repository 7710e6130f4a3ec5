// Package worker runs blocking storage operations off the caller's goroutine
// under a fixed concurrency limit.
package worker

import (
	"context"

	"github.com/kbukum/imgkit/resilience"
)

// DefaultSize is the number of operations a Pool runs at once.
const DefaultSize = 4

// Pool bounds how many storage operations run concurrently.
type Pool struct {
	bulkhead *resilience.Bulkhead
}

// NewPool creates a pool with size slots. A non-positive size uses DefaultSize.
func NewPool(size int) *Pool {
	if size <= 0 {
		size = DefaultSize
	}
	return &Pool{
		bulkhead: resilience.NewBulkhead(resilience.BulkheadConfig{
			Name:          "worker",
			MaxConcurrent: size,
			MaxWait:       resilience.WaitForever,
		}),
	}
}

// Size returns the pool's concurrency limit.
func (p *Pool) Size() int { return p.bulkhead.MaxConcurrent() }

// InUse returns the number of operations currently running.
func (p *Pool) InUse() int { return p.bulkhead.InUse() }

// Result carries the outcome of an operation started with Go.
type Result[T any] struct {
	Value T
	Err   error
}

// Go starts fn on the pool and returns a channel that receives exactly one
// Result. The channel is buffered so an abandoned result never blocks the
// worker.
func Go[T any](ctx context.Context, p *Pool, fn func(context.Context) (T, error)) <-chan Result[T] {
	out := make(chan Result[T], 1)
	go func() {
		v, err := resilience.ExecuteWithResult(p.bulkhead, ctx, func() (T, error) {
			return fn(ctx)
		})
		out <- Result[T]{Value: v, Err: err}
	}()
	return out
}

// Do runs fn on the pool and waits for it. It returns early with the
// context's error if ctx ends first; fn keeps running with the cancelled
// context and its result is discarded.
func Do[T any](ctx context.Context, p *Pool, fn func(context.Context) (T, error)) (T, error) {
	select {
	case r := <-Go(ctx, p, fn):
		return r.Value, r.Err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
