// Package metrics defines simple counters and gauges.
//
// The Simple* types are intended for a single owner. The Shared* types may be
// mutated and read from multiple goroutines concurrently.
package metrics

import (
	"sync"

	"golang.org/x/exp/constraints"
)

// A Counter is a signed value that is changed by applying deltas.
type Counter[T constraints.Signed] interface {
	// Inc increments the counter by delta, which may be negative.
	Inc(delta T)

	// Dec decrements the counter by delta, which may be negative.
	//
	// Dec(n) is equivalent to Inc(-n).
	Dec(delta T)

	// Value returns the current value of the counter.
	Value() T
}

// A Gauge has a single value at any given moment in time. It is only updated
// by replacing the existing value (if any).
type Gauge[T any] interface {
	// Set replaces the gauge's value.
	Set(v T)

	// Clear removes the gauge's value.
	Clear()

	// Value returns the current value. ok is false if the gauge has no value.
	Value() (v T, ok bool)
}

// SimpleCounter is a [Counter] that is not safe for concurrent use.
type SimpleCounter[T constraints.Signed] struct {
	value T
}

// Inc increments the counter by delta.
func (c *SimpleCounter[T]) Inc(delta T) { c.value += delta }

// Dec decrements the counter by delta.
func (c *SimpleCounter[T]) Dec(delta T) { c.value -= delta }

// Value returns the current value of the counter.
func (c *SimpleCounter[T]) Value() T { return c.value }

// SharedCounter is a [Counter] that is safe for concurrent use.
type SharedCounter[T constraints.Signed] struct {
	m     sync.Mutex
	value T
}

// Inc increments the counter by delta.
func (c *SharedCounter[T]) Inc(delta T) {
	c.m.Lock()
	c.value += delta
	c.m.Unlock()
}

// Dec decrements the counter by delta.
func (c *SharedCounter[T]) Dec(delta T) {
	c.m.Lock()
	c.value -= delta
	c.m.Unlock()
}

// Value returns the current value of the counter.
func (c *SharedCounter[T]) Value() T {
	c.m.Lock()
	defer c.m.Unlock()
	return c.value
}

// SimpleGauge is a [Gauge] that is not safe for concurrent use.
type SimpleGauge[T any] struct {
	value T
	ok    bool
}

// Set replaces the gauge's value.
func (g *SimpleGauge[T]) Set(v T) {
	g.value, g.ok = v, true
}

// Clear removes the gauge's value.
func (g *SimpleGauge[T]) Clear() {
	var zero T
	g.value, g.ok = zero, false
}

// Value returns the current value of the gauge.
func (g *SimpleGauge[T]) Value() (T, bool) {
	return g.value, g.ok
}

// SharedGauge is a [Gauge] that is safe for concurrent use.
type SharedGauge[T any] struct {
	m sync.Mutex
	g SimpleGauge[T]
}

// Set replaces the gauge's value.
func (g *SharedGauge[T]) Set(v T) {
	g.m.Lock()
	g.g.Set(v)
	g.m.Unlock()
}

// Clear removes the gauge's value.
func (g *SharedGauge[T]) Clear() {
	g.m.Lock()
	g.g.Clear()
	g.m.Unlock()
}

// Value returns the current value of the gauge.
func (g *SharedGauge[T]) Value() (T, bool) {
	g.m.Lock()
	defer g.m.Unlock()
	return g.g.Value()
}

var (
	_ Counter[int64] = (*SimpleCounter[int64])(nil)
	_ Counter[int64] = (*SharedCounter[int64])(nil)
	_ Gauge[int64]   = (*SimpleGauge[int64])(nil)
	_ Gauge[int64]   = (*SharedGauge[int64])(nil)
)
