package future

import (
	"context"
	"time"
)

// NewFailable returns a future that can be fulfilled with a value of type T or
// an error, and its associated resolver.
func NewFailable[T any]() (Failable[T], FailableResolver[T]) {
	f, r := New[result[T]]()
	return Failable[T]{f}, FailableResolver[T]{r}
}

// Failable represents a future value of type T, or an error indicating that the
// value can not be computed.
type Failable[T any] struct {
	fut Future[result[T]]
}

// Ready returns a channel that is closed when the value is ready.
func (f Failable[T]) Ready() <-chan struct{} {
	return f.fut.Ready()
}

// Poll returns the value or error without blocking. ok is false if the future
// has not been resolved yet, in which case v and err are meaningless.
func (f Failable[T]) Poll() (v T, ok bool, err error) {
	r, ok := f.fut.Poll()
	return r.Value, ok, r.Err
}

// Get returns the value. It panics if the value is not ready.
func (f Failable[T]) Get() (T, error) {
	v := f.fut.Get()
	return v.Value, v.Err
}

// Wait blocks until the value is ready, then returns it.
//
// If ctx is canceled before the future is resolved, the context's error is
// returned. Use [Failable.WaitFor] to distinguish a timeout from a failure.
func (f Failable[T]) Wait(ctx context.Context) (T, error) {
	v, err := f.fut.Wait(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	return v.Value, v.Err
}

// WaitFor blocks until the future is resolved or d elapses.
//
// ok is false if the timeout elapsed first, which says nothing about whether
// the underlying operation eventually succeeds or fails.
func (f Failable[T]) WaitFor(d time.Duration) (v T, ok bool, err error) {
	r, ok := f.fut.WaitFor(d)
	return r.Value, ok, r.Err
}

// FailableResolver is used to provide a result value to a [Failable].
type FailableResolver[T any] struct {
	res Resolver[result[T]]
}

// Set resolves the future with the given value.
func (r FailableResolver[T]) Set(v T) {
	r.res.Set(result[T]{Value: v})
}

// Err resolves the future within the given error.
func (r FailableResolver[T]) Err(err error) {
	if err == nil {
		panic("future cannot be resolved with a nil error")
	}
	r.res.Set(result[T]{Err: err})
}

// IsResolved returns true if the future has been resolved, either successfully
// or with an error.
func (r FailableResolver[T]) IsResolved() bool {
	return r.res.IsResolved()
}

type result[T any] struct {
	Value T
	Err   error
}
