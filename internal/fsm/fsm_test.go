package fsm_test

import (
	"context"
	"errors"
	"testing"

	. "github.com/dogmatiq/crowdcontrol/internal/fsm"
)

func TestRun(t *testing.T) {
	t.Parallel()

	t.Run("it enters states until one stops the machine", func(t *testing.T) {
		t.Parallel()

		var (
			visits []string
			count  int
		)

		var counting, finish State

		counting = func(context.Context) Action {
			count++
			visits = append(visits, "counting")
			if count < 3 {
				return Stay()
			}
			return TransitionWith(
				func(_ context.Context, n int) Action {
					visits = append(visits, "with")
					if n != 3 {
						t.Fatalf("unexpected argument: got %d, want 3", n)
					}
					return Transition(finish)
				},
				count,
			)
		}

		finish = func(context.Context) Action {
			visits = append(visits, "finish")
			return Stop()
		}

		if err := Run(context.Background(), counting); err != nil {
			t.Fatal(err)
		}

		want := []string{"counting", "counting", "counting", "with", "finish"}
		if len(visits) != len(want) {
			t.Fatalf("unexpected visits: got %v, want %v", visits, want)
		}
		for i := range want {
			if visits[i] != want[i] {
				t.Fatalf("unexpected visits: got %v, want %v", visits, want)
			}
		}
	})

	t.Run("it returns the error passed to Fail()", func(t *testing.T) {
		t.Parallel()

		want := errors.New("<error>")

		err := Run(
			context.Background(),
			func(context.Context) Action {
				return Fail(want)
			},
		)

		if err != want {
			t.Fatalf("unexpected error: got %v, want %v", err, want)
		}
	})

	t.Run("it panics if a state returns the zero action", func(t *testing.T) {
		t.Parallel()

		defer func() {
			want := "state must return a valid action"
			if got := recover(); got != want {
				t.Fatalf("unexpected panic value: got %v, want %q", got, want)
			}
		}()

		Run(
			context.Background(),
			func(context.Context) Action {
				return Action{}
			},
		)
	})
}
