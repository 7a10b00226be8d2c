package signaling_test

import (
	"testing"
	"time"

	. "github.com/dogmatiq/crowdcontrol/internal/signaling"
	"pgregory.net/rapid"
)

func TestEvent(t *testing.T) {
	t.Parallel()

	t.Run("it coalesces signals until they are observed", func(t *testing.T) {
		t.Parallel()

		var e Event
		e.Signal()
		e.Signal()

		select {
		case <-e.Signaled():
		default:
			t.Fatal("expected event to be signaled")
		}

		select {
		case <-e.Signaled():
			t.Fatal("did not expect event to be signaled again")
		default:
		}
	})
}

func TestLatch(t *testing.T) {
	t.Parallel()

	t.Run("it remains signaled", func(t *testing.T) {
		t.Parallel()

		var l Latch

		if l.IsSignaled() {
			t.Fatal("did not expect latch to be signaled")
		}

		l.Signal()
		l.Signal()

		for i := 0; i < 2; i++ {
			select {
			case <-l.Signaled():
			default:
				t.Fatal("expected latch to be signaled")
			}
		}

		if !l.IsSignaled() {
			t.Fatal("expected latch to be signaled")
		}
	})
}

func TestBroadcast(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		var (
			b       Broadcast
			pending []<-chan struct{}
		)

		t.Repeat(map[string]func(*rapid.T){
			"watch": func(t *rapid.T) {
				ch := b.Watch()

				select {
				case <-ch:
					t.Fatal("did not expect a new watcher to be notified")
				default:
				}

				pending = append(pending, ch)
			},
			"notify": func(t *rapid.T) {
				b.Notify()

				for _, ch := range pending {
					select {
					case <-ch:
					case <-time.After(time.Second):
						t.Fatal("expected watcher to be notified")
					}
				}

				pending = nil
			},
		})
	})
}
