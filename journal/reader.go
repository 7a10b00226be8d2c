package journal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
)

// ReadFrom returns a reader that yields the records from pos onwards, in
// order.
//
// The reader stops at the readable frontier as it was when ReadFrom was
// called. If pos is beyond that frontier the reader yields no records.
//
// It returns [ErrForeignPosition] if pos was not obtained from j.
func (j *Journal) ReadFrom(pos Position) (*Reader, error) {
	if j.isClosed.Load() {
		return nil, ErrClosed
	}

	if pos.journal != j.id {
		return nil, ErrForeignPosition
	}

	return &Reader{
		journal: j,
		next:    pos.seq,
		end:     j.readable.Load(),
	}, nil
}

// Reader yields records from a [Journal].
//
// It is not safe for concurrent use.
type Reader struct {
	journal *Journal
	next    uint64
	end     uint64

	file   *os.File
	frames *frameReader
	segEnd uint64
}

// Next returns the next record. ok is false when there are no more records.
func (r *Reader) Next(ctx context.Context) (rec Record, ok bool, err error) {
	if err := ctx.Err(); err != nil {
		return Record{}, false, err
	}

	if r.journal.isClosed.Load() {
		return Record{}, false, ErrClosed
	}

	if r.next >= r.end {
		return Record{}, false, nil
	}

	if r.file == nil || r.next >= r.segEnd {
		if err := r.open(); err != nil {
			return Record{}, false, err
		}
	}

	seq, payload, err := r.frames.Next()
	if err == io.EOF {
		err = errTorn
	}
	if err != nil {
		return Record{}, false, fmt.Errorf("unable to read record %d: %w", r.next, err)
	}

	if seq != r.next {
		return Record{}, false, fmt.Errorf("unable to read record %d: found record %d", r.next, seq)
	}

	r.next++

	return Record{
		Position: r.journal.position(seq),
		Payload:  payload,
	}, true, nil
}

// open opens the segment containing the next record, positioned at that
// record.
func (r *Reader) open() error {
	j := r.journal

	j.index.RLock()
	i := findSegment(j.segments, r.next)
	seg := j.segments[i]
	path := seg.Path
	offset := seg.Offsets[r.next-seg.First]
	end := uint64(math.MaxUint64)
	if i < len(j.segments)-1 {
		end = j.segments[i+1].First
	}
	j.index.RUnlock()

	if err := r.Close(); err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}

	info, err := f.Stat()
	if err != nil {
		return errors.Join(err, f.Close())
	}

	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return errors.Join(err, f.Close())
	}

	r.file = f
	r.frames = newFrameReader(f, offset, info.Size())
	r.segEnd = end

	return nil
}

// Close releases the reader's resources.
func (r *Reader) Close() error {
	if r.file == nil {
		return nil
	}

	f := r.file
	r.file = nil
	r.frames = nil

	return f.Close()
}

// A RangeFunc is called for each record in a [Journal.Range] call.
//
// If it returns false, or a non-nil error, ranging stops.
type RangeFunc func(context.Context, Record) (ok bool, err error)

// Range calls fn for each readable record from pos onwards, in order.
func (j *Journal) Range(ctx context.Context, pos Position, fn RangeFunc) error {
	r, err := j.ReadFrom(pos)
	if err != nil {
		return err
	}
	defer r.Close()

	for {
		rec, ok, err := r.Next(ctx)
		if !ok || err != nil {
			return err
		}

		ok, err = fn(ctx, rec)
		if !ok || err != nil {
			return err
		}
	}
}

// Get returns the record at pos. ok is false if the record is not yet
// readable.
func (j *Journal) Get(ctx context.Context, pos Position) (_ Record, ok bool, err error) {
	r, err := j.ReadFrom(pos)
	if err != nil {
		return Record{}, false, err
	}
	defer r.Close()

	return r.Next(ctx)
}
