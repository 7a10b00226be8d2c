// Package filelock provides exclusive, advisory ownership of a file.
package filelock

import (
	"errors"
	"os"
)

// ErrLocked is returned by [Acquire] if the lock is held elsewhere.
var ErrLocked = errors.New("file is locked by another owner")

// Lock is an exclusive lock on a file.
type Lock struct {
	f *os.File
}

// Acquire acquires an exclusive lock on the file at the given path, creating
// it if necessary. It does not block; [ErrLocked] is returned if the lock is
// already held, including by another open handle within this process.
//
// Locking is supported on unix and windows. On other platforms Acquire
// returns an error that wraps [errors.ErrUnsupported].
func Acquire(path string) (*Lock, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, err
	}

	if err := lock(f); err != nil {
		f.Close()
		return nil, err
	}

	return &Lock{f}, nil
}

// Release releases the lock.
func (l *Lock) Release() error {
	return errors.Join(
		unlock(l.f),
		l.f.Close(),
	)
}
