// Package signaling provides primitives for goroutines to notify each other
// that something has happened.
package signaling

import (
	"sync"
)

// Event is a signal that indicates some event has occurred.
//
// Multiple occurrences are coalesced until the event is observed.
type Event struct {
	init sync.Once
	sig  chan struct{}
}

// Signaled returns a channel that is readable if the event has occurred since
// the last successful read.
func (e *Event) Signaled() <-chan struct{} {
	return e.signal()
}

// Signal signals occurrence of the event.
func (e *Event) Signal() {
	select {
	case e.signal() <- struct{}{}:
	default:
	}
}

func (e *Event) signal() chan struct{} {
	e.init.Do(func() {
		e.sig = make(chan struct{}, 1)
	})
	return e.sig
}
