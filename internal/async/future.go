// Package async delivers already-committed results after a simulated delay.
package async

import (
	"context"
	"time"

	"github.com/and161185/prismcms/internal/clock"
)

// Future holds the outcome of an operation that has already run.
// The delay only postpones when the caller may observe it.
type Future[T any] struct {
	done chan struct{}
	val  T
	err  error
}

// Run executes fn right away, then releases its result after delay.
// A zero or negative delay releases it immediately.
func Run[T any](clk clock.Clock, delay time.Duration, fn func() (T, error)) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	f.val, f.err = fn()
	if delay <= 0 || clk == nil {
		close(f.done)
		return f
	}
	clk.AfterFunc(delay, func() { close(f.done) })
	return f
}

// Done is closed once the result is observable.
func (f *Future[T]) Done() <-chan struct{} { return f.done }

// Await blocks until the result is observable or ctx ends.
// Abandoning the wait does not undo the operation.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
