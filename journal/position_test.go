package journal_test

import (
	"strings"
	"testing"

	. "github.com/dogmatiq/crowdcontrol/journal"
)

func TestPosition(t *testing.T) {
	t.Parallel()

	j := openJournal(t, t.TempDir())
	positions := appendRecords(t, j, 0, 2)
	a, b := positions[0], positions[1]

	t.Run("func Compare()", func(t *testing.T) {
		t.Parallel()

		if a.Compare(b) >= 0 {
			t.Fatal("expected a < b")
		}
		if b.Compare(a) <= 0 {
			t.Fatal("expected b > a")
		}
		if a.Compare(a) != 0 {
			t.Fatal("expected a == a")
		}
	})

	t.Run("func Before()", func(t *testing.T) {
		t.Parallel()

		if !a.Before(b) || b.Before(a) || a.Before(a) {
			t.Fatal("unexpected ordering")
		}
	})

	t.Run("func After()", func(t *testing.T) {
		t.Parallel()

		if !b.After(a) || a.After(b) || a.After(a) {
			t.Fatal("unexpected ordering")
		}
	})

	t.Run("func String()", func(t *testing.T) {
		t.Parallel()

		if s := b.String(); !strings.HasSuffix(s, "#1") {
			t.Fatalf("unexpected string representation: %q", s)
		}
	})

	t.Run("the zero value is not a position of any journal", func(t *testing.T) {
		t.Parallel()

		if (Position{}) == j.Origin() {
			t.Fatal("expected the zero value to differ from the origin")
		}

		if j.IsDurable(Position{}) {
			t.Fatal("did not expect the zero value to be durable")
		}
	})
}
