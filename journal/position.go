package journal

import (
	"cmp"
	"fmt"

	"github.com/google/uuid"
)

// A Position identifies a slot in a [Journal]'s sequence of records.
//
// Positions are totally ordered, consistent with the order in which records
// were appended, including across restarts. They can only be obtained from a
// journal; the zero value is not a valid position of any journal.
type Position struct {
	journal uuid.UUID
	seq     uint64
}

// Compare returns -1 if p is before q, +1 if p is after q, and 0 if they are
// the same position.
//
// Comparing positions obtained from different journals is meaningless.
func (p Position) Compare(q Position) int {
	return cmp.Compare(p.seq, q.seq)
}

// Before returns true if p is before q.
func (p Position) Before(q Position) bool {
	return p.seq < q.seq
}

// After returns true if p is after q.
func (p Position) After(q Position) bool {
	return p.seq > q.seq
}

// Equal returns true if p and q are the same position of the same journal.
func (p Position) Equal(q Position) bool {
	return p == q
}

func (p Position) String() string {
	return fmt.Sprintf("%s#%d", p.journal, p.seq)
}

// Record is a payload that has been appended to a journal.
type Record struct {
	Position Position
	Payload  []byte
}
