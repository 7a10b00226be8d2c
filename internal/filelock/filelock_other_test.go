//go:build !unix && !windows

package filelock_test

import (
	"errors"
	"path/filepath"
	"testing"

	. "github.com/dogmatiq/crowdcontrol/internal/filelock"
)

func TestAcquire(t *testing.T) {
	t.Parallel()

	t.Run("it fails on platforms without file locking", func(t *testing.T) {
		t.Parallel()

		if _, err := Acquire(filepath.Join(t.TempDir(), "LOCK")); !errors.Is(err, errors.ErrUnsupported) {
			t.Fatalf("unexpected error: got %v, want %v", err, errors.ErrUnsupported)
		}
	})
}
