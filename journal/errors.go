package journal

import (
	"errors"
	"fmt"
)

var (
	// ErrClosed is returned when a journal is used after it has been closed.
	ErrClosed = errors.New("journal is closed")

	// ErrFailed is returned by [Journal.Append] after a record could not be
	// made durable. The journal accepts no further appends; it must be closed
	// and reopened.
	ErrFailed = errors.New("journal has failed")

	// ErrForeignPosition is returned when a journal is given a position that
	// was not obtained from that journal.
	ErrForeignPosition = errors.New("position does not belong to this journal")
)

// DurabilityError indicates that a record could not be durably persisted.
//
// It is only ever reported via the completion signal returned by
// [Journal.Append], and wrapped by errors returned by later appends.
type DurabilityError struct {
	Cause error
}

func (e *DurabilityError) Error() string {
	return fmt.Sprintf("unable to make journal record durable: %s", e.Cause)
}

func (e *DurabilityError) Unwrap() error {
	return e.Cause
}

// CorruptionError indicates that a journal's persistent representation is
// damaged beyond the recoverable case of an incomplete trailing record.
type CorruptionError struct {
	Segment string
	Offset  int64
	Reason  string
}

func (e *CorruptionError) Error() string {
	return fmt.Sprintf(
		"journal is corrupt: %s at offset %d: %s",
		e.Segment,
		e.Offset,
		e.Reason,
	)
}
