package signaling

import "sync/atomic"

// Broadcast notifies any number of watchers each time some condition changes.
//
// Watchers must re-check the condition after obtaining a channel from Watch,
// as the change may have happened before they started watching.
type Broadcast struct {
	latch atomic.Pointer[Latch]
}

// Watch returns a channel that is closed the next time Notify is called.
func (b *Broadcast) Watch() <-chan struct{} {
	for {
		if l := b.latch.Load(); l != nil {
			return l.Signaled()
		}
		b.latch.CompareAndSwap(nil, &Latch{})
	}
}

// Notify wakes all current watchers.
func (b *Broadcast) Notify() {
	if l := b.latch.Swap(nil); l != nil {
		l.Signal()
	}
}
