// Package journal is a local, durable, strictly-ordered append-only journal of
// records.
//
// A journal guarantees the following:
//
//   - Each appended record is assigned a [Position]. Positions are allocated
//     in append order, without gaps.
//   - A record is reported as durable only once it has been synced to
//     storage.
//   - For any two records at positions A and B, where A < B, if B is durable
//     then so is A. Likewise, if B is readable then so is A.
//   - A record is never readable before it is durable.
package journal

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dogmatiq/crowdcontrol/future"
	"github.com/dogmatiq/crowdcontrol/internal/config"
	"github.com/dogmatiq/crowdcontrol/internal/filelock"
	"github.com/dogmatiq/crowdcontrol/internal/signaling"
	"github.com/dogmatiq/crowdcontrol/internal/telemetry"
	"github.com/google/uuid"
	"golang.org/x/exp/slices"
)

// Journal is a durable, append-only sequence of records stored in a local
// directory.
//
// It is safe for concurrent use. A directory may only be used by one open
// Journal at a time.
type Journal struct {
	dir       string
	id        uuid.UUID
	sync      func(*os.File) error
	maxSize   int64
	lock      *filelock.Lock
	telemetry *telemetry.Recorder
	metrics   *instruments

	// m guards position allocation and the staging queue.
	m       sync.Mutex
	next    uint64
	staged  []*pending
	closed  bool
	failure error

	isClosed atomic.Bool
	wake     signaling.Event
	stopped  future.Future[struct{}]

	// durable and readable are the sequence numbers after the last durable
	// and readable records, respectively.
	durable  atomic.Uint64
	readable atomic.Uint64
	advanced signaling.Broadcast

	// index guards the segment list and the record offsets within each
	// segment.
	index    sync.RWMutex
	segments []*segment
}

// pending is a record that has been allocated a position but is not yet
// known to be durable.
type pending struct {
	Seq      uint64
	Payload  []byte
	Staged   time.Time
	Resolver future.FailableResolver[Position]
}

// Open opens the journal in the given directory, creating it if it does not
// exist.
//
// Any incomplete record left at the end of the journal by a crash is
// discarded. If the journal is damaged in any other way a [*CorruptionError]
// is returned.
func Open(ctx context.Context, dir string, options ...Option) (_ *Journal, err error) {
	cfg := config.New(options)

	rec := cfg.Telemetry.Recorder(
		"journal",
		telemetry.String("dir", dir),
	)

	ctx, span := rec.StartSpan(ctx, "Journal.Open")
	defer span.End()

	defer func() {
		if err != nil {
			span.Error("could not open journal", err)
		}
	}()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	lock, err := filelock.Acquire(filepath.Join(dir, lockFile))
	if err != nil {
		return nil, fmt.Errorf("unable to acquire exclusive access to %s: %w", dir, err)
	}

	defer func() {
		if err != nil {
			lock.Release()
		}
	}()

	s, err := recoverJournal(ctx, rec, dir, cfg.Sync)
	if err != nil {
		return nil, err
	}

	j := &Journal{
		dir:       dir,
		id:        s.Journal,
		sync:      cfg.Sync,
		maxSize:   int64(cfg.MaxSegmentSize),
		lock:      lock,
		telemetry: rec,
		metrics:   newInstruments(rec),
		next:      s.End,
		segments:  s.Segments,
	}

	j.durable.Store(s.End)
	j.readable.Store(s.End)
	j.metrics.Open.Add(ctx, 1)
	j.metrics.Segments.Set(int64(len(s.Segments)))
	j.metrics.Durable.Set(int64(s.End))

	stopped, done := future.New[struct{}]()
	j.stopped = stopped

	go j.commit(done)

	span.SetAttributes(telemetry.Stringer("journal_id", j.id))
	span.Info(
		"opened journal",
		telemetry.Int("segments", len(s.Segments)),
		telemetry.Int("records", s.End),
		telemetry.Bool("repaired", s.TornBytes != 0),
	)

	return j, nil
}

// recoverJournal scans the journal in dir, discarding incomplete writes, and
// prepares the final segment for appending.
func recoverJournal(
	ctx context.Context,
	rec *telemetry.Recorder,
	dir string,
	sync func(*os.File) error,
) (*scan, error) {
	ctx, span := rec.StartSpan(ctx, "Journal.Recover")
	defer span.End()

	start := time.Now()

	s, err := scanDir(ctx, dir, true, sync)
	if err != nil {
		return nil, err
	}

	if s.TornBytes != 0 {
		span.Warn(
			"discarded incomplete write",
			telemetry.Int("torn_bytes", s.TornBytes),
			telemetry.Int("records", s.End),
		)
	}

	if len(s.Segments) == 0 {
		s.Journal = uuid.New()

		seg, err := createSegment(dir, header{s.Journal, 0}, sync)
		if err != nil {
			return nil, err
		}

		s.Segments = []*segment{seg}
		span.Debug("created new journal", telemetry.Stringer("journal_id", s.Journal))

		return s, nil
	}

	active := s.Segments[len(s.Segments)-1]
	active.File, err = os.OpenFile(active.Path, os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}

	span.Debug(
		"recovered journal",
		telemetry.Stringer("journal_id", s.Journal),
		telemetry.Int("records", s.End),
		telemetry.Int("segments", len(s.Segments)),
		telemetry.Duration("elapsed", time.Since(start)),
	)

	return s, nil
}

// Origin returns the position of the first record in the journal.
func (j *Journal) Origin() Position {
	return j.position(0)
}

// Append adds a record containing payload to the end of the journal.
//
// It returns the record's position immediately, along with a completion signal
// that resolves once the record is durable, or with a [*DurabilityError] if it
// can not be made durable. Durability failures are never retried. Abandoning
// the completion signal does not affect the record.
//
// A non-nil error indicates a usage error; no position is allocated and the
// completion signal is already resolved with that error.
func (j *Journal) Append(payload []byte) (Position, future.Failable[Position], error) {
	fut, res := future.NewFailable[Position]()

	p := &pending{
		Payload:  slices.Clone(payload),
		Staged:   time.Now(),
		Resolver: res,
	}

	j.m.Lock()

	if err := j.checkAppend(); err != nil {
		j.m.Unlock()
		res.Err(err)
		return Position{}, fut, err
	}

	p.Seq = j.next
	j.next++
	j.staged = append(j.staged, p)

	j.m.Unlock()

	j.metrics.Staged.Add(context.Background(), 1)
	j.wake.Signal()

	return j.position(p.Seq), fut, nil
}

// checkAppend returns an error if the journal is not accepting appends. j.m
// must be held.
func (j *Journal) checkAppend() error {
	if j.closed {
		return ErrClosed
	}

	if j.failure != nil {
		return fmt.Errorf("%w: %w", ErrFailed, j.failure)
	}

	return nil
}

// AppendAndWait adds a record to the end of the journal and waits for it to
// become durable.
//
// If ctx is canceled before the record is durable, the record may still be
// persisted.
func (j *Journal) AppendAndWait(ctx context.Context, payload []byte) (Position, error) {
	pos, fut, err := j.Append(payload)
	if err != nil {
		return Position{}, err
	}

	if _, err := fut.Wait(ctx); err != nil {
		return pos, err
	}

	return pos, nil
}

// DurableFrontier returns the position of the last durable record. ok is false
// if the journal contains no durable records.
func (j *Journal) DurableFrontier() (pos Position, ok bool) {
	return j.frontier(&j.durable)
}

// ReadableFrontier returns the position of the last record visible to readers.
// ok is false if there are no readable records.
func (j *Journal) ReadableFrontier() (pos Position, ok bool) {
	return j.frontier(&j.readable)
}

// IsDurable returns true if the record at pos is durable.
func (j *Journal) IsDurable(pos Position) bool {
	return pos.journal == j.id && pos.seq < j.durable.Load()
}

// IsReadable returns true if the record at pos is visible to readers.
func (j *Journal) IsReadable(pos Position) bool {
	return pos.journal == j.id && pos.seq < j.readable.Load()
}

// Sync blocks until every record appended before it was called is durable.
//
// It returns a [*DurabilityError] if any of those records can not be made
// durable.
func (j *Journal) Sync(ctx context.Context) error {
	j.m.Lock()
	end := j.next
	closed := j.closed
	j.m.Unlock()

	if closed {
		return ErrClosed
	}

	for {
		advanced := j.advanced.Watch()

		if j.durable.Load() >= end {
			return nil
		}

		j.m.Lock()
		err := j.failure
		j.m.Unlock()

		if err != nil {
			return &DurabilityError{Cause: err}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-advanced:
		}
	}
}

// Metrics returns the current values of the journal's operational metrics.
func (j *Journal) Metrics() Metrics {
	return j.metrics.snapshot()
}

// Close closes the journal.
//
// Records that have already been appended are still made durable, or fail,
// before Close returns.
func (j *Journal) Close() error {
	j.m.Lock()
	if j.closed {
		j.m.Unlock()
		return ErrClosed
	}
	j.closed = true
	j.isClosed.Store(true)
	j.m.Unlock()

	ctx, span := j.telemetry.StartSpan(context.Background(), "Journal.Close")
	defer span.End()

	j.wake.Signal()
	<-j.stopped.Ready()

	j.index.Lock()
	active := j.segments[len(j.segments)-1]
	j.index.Unlock()

	err := errors.Join(
		active.File.Close(),
		j.lock.Release(),
		j.metrics.Close(),
	)

	j.metrics.Open.Add(ctx, -1)
	j.advanced.Notify()

	if err != nil {
		span.Error("could not close journal", err)
		return err
	}

	span.Debug("closed journal")

	return nil
}

func (j *Journal) position(seq uint64) Position {
	return Position{j.id, seq}
}

func (j *Journal) frontier(end *atomic.Uint64) (Position, bool) {
	if n := end.Load(); n != 0 {
		return j.position(n - 1), true
	}
	return Position{}, false
}
