// Package future provides a completion primitive for values that become
// available at some later time.
//
// A [Future] represents a value that cannot fail. A [Failable] represents a
// value or an error describing why the value could not be produced. Both are
// views over the same underlying state.
package future

import (
	"context"
	"sync/atomic"
	"time"
)

// New returns a future that can be fulfilled with a value of type T,
// and its associated resolver.
func New[T any]() (Future[T], Resolver[T]) {
	f := &state[T]{
		Ready: make(chan struct{}),
	}

	return Future[T]{f}, Resolver[T]{f}
}

// Future represents a future value of type T.
type Future[T any] struct {
	f *state[T]
}

// Ready returns a channel that is closed when the value is ready.
func (f Future[T]) Ready() <-chan struct{} {
	return f.f.Ready
}

// Poll returns the value without blocking. ok is false if the value is not
// ready yet.
func (f Future[T]) Poll() (v T, ok bool) {
	if p := f.f.Value.Load(); p != nil {
		return *p, true
	}
	return v, false
}

// Get returns the value. It panics if the value is not ready.
func (f Future[T]) Get() T {
	if v, ok := f.Poll(); ok {
		return v
	}
	panic("future value is not ready")
}

// Wait blocks until the value is ready, then returns it.
func (f Future[T]) Wait(ctx context.Context) (T, error) {
	if v, ok := f.Poll(); ok {
		return v, nil
	}

	select {
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	case <-f.f.Ready:
		return *f.f.Value.Load(), nil
	}
}

// WaitFor blocks until the value is ready or d elapses, whichever happens
// first.
//
// ok is false if the timeout elapsed first. The future is unaffected; it may
// still be resolved later.
func (f Future[T]) WaitFor(d time.Duration) (v T, ok bool) {
	if v, ok := f.Poll(); ok {
		return v, true
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return v, false
	case <-f.f.Ready:
		return *f.f.Value.Load(), true
	}
}

// Resolver is used to provide a result value to a [Future].
type Resolver[T any] struct {
	f *state[T]
}

// Set resolves the future with the given value.
func (r Resolver[T]) Set(v T) {
	if !r.f.Value.CompareAndSwap(nil, &v) {
		panic("future has already been resolved")
	}
	close(r.f.Ready)
}

// IsResolved returns true if the future has been resolved.
func (r Resolver[T]) IsResolved() bool {
	return r.f.Value.Load() != nil
}

type state[T any] struct {
	Ready chan struct{}
	Value atomic.Pointer[T]
}
