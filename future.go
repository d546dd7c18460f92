package vecmem

import "context"

// Future is a single-assignment promise for the result of an asynchronous
// store operation. Every public data-path method returns a Future immediately
// after submitting the work to one of the store's worker pools.
//
// A Future is resolved exactly once. Wait may be called any number of times
// and from multiple goroutines.
type Future[T any] struct {
	done  chan struct{}
	value T
	err   error
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// failedFuture returns an already-resolved Future carrying err.
func failedFuture[T any](err error) *Future[T] {
	f := newFuture[T]()
	var zero T
	f.complete(zero, err)
	return f
}

// complete resolves the future. It must be called exactly once.
func (f *Future[T]) complete(value T, err error) {
	f.value = value
	f.err = err
	close(f.done)
}

// Done returns a channel that is closed when the future is resolved.
// Useful for select loops; use Wait to obtain the result.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the future is resolved or ctx is cancelled.
// Cancellation abandons the wait, not the underlying operation.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
