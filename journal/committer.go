package journal

import (
	"context"
	"errors"
	"time"

	"github.com/dogmatiq/crowdcontrol/future"
	"github.com/dogmatiq/crowdcontrol/internal/fsm"
	"github.com/dogmatiq/crowdcontrol/internal/telemetry"
)

// commit makes staged records durable until the journal is closed and every
// staged record has been resolved.
//
// It is the only goroutine that writes to segment files.
func (j *Journal) commit(done future.Resolver[struct{}]) {
	defer done.Set(struct{}{})

	// The states never fail, so the error is always nil.
	fsm.Run(context.Background(), j.stateAwait) //nolint:errcheck
}

// stateAwait waits for records to be staged.
func (j *Journal) stateAwait(context.Context) fsm.Action {
	j.m.Lock()
	batch := j.staged
	closed := j.closed
	j.staged = nil
	j.m.Unlock()

	if len(batch) != 0 {
		return fsm.TransitionWith(j.stateCommit, batch)
	}

	if closed {
		return fsm.Stop()
	}

	<-j.wake.Signaled()

	return fsm.Stay()
}

// stateCommit makes a batch of staged records durable, or fails them.
func (j *Journal) stateCommit(_ context.Context, batch []*pending) fsm.Action {
	j.commitBatch(batch)
	return fsm.Transition(j.stateAwait)
}

// commitBatch writes and syncs a batch of staged records, then resolves their
// completion signals in order.
func (j *Journal) commitBatch(batch []*pending) {
	ctx, span := j.telemetry.StartSpan(
		context.Background(),
		"Journal.Commit",
		telemetry.Int("records", len(batch)),
		telemetry.Int("first_seq", batch[0].Seq),
	)
	defer span.End()

	for len(batch) != 0 {
		if j.failure != nil {
			j.fail(ctx, batch, j.failure)
			return
		}

		n, err := j.write(ctx, span, batch)
		if err != nil {
			span.Error(
				"could not make records durable",
				err,
				telemetry.Int("failed_seq", batch[0].Seq),
			)
			j.fail(ctx, batch, err)
			return
		}

		batch = batch[n:]
	}
}

// write writes as many records from the start of batch as fit in the active
// segment, rotating to a new segment first if necessary. It returns the
// number of records that are now durable.
func (j *Journal) write(
	ctx context.Context,
	span *telemetry.Span,
	batch []*pending,
) (int, error) {
	active := j.segments[len(j.segments)-1]

	if active.Size > headerSize &&
		active.Size+int64(frameSize(batch[0].Seq, batch[0].Payload)) > j.maxSize {
		var err error
		if active, err = j.rotate(ctx, span, active); err != nil {
			return 0, err
		}
	}

	var (
		buf     []byte
		offsets []int64
	)

	for _, p := range batch {
		size := frameSize(p.Seq, p.Payload)
		offset := active.Size + int64(len(buf))

		if len(offsets) != 0 && offset+int64(size) > j.maxSize {
			break
		}

		offsets = append(offsets, offset)
		buf = appendFrame(buf, p.Seq, p.Payload)
	}

	if _, err := active.File.WriteAt(buf, active.Size); err != nil {
		return 0, j.rollback(active, err)
	}

	if err := j.sync(active.File); err != nil {
		return 0, j.rollback(active, err)
	}

	active.Size += int64(len(buf))
	j.confirm(ctx, active, batch[:len(offsets)], offsets, len(buf))

	return len(offsets), nil
}

// rollback discards any partially written frames from the end of the active
// segment.
//
// It is best-effort. If the discarded data has already reached storage and the
// truncation fails, the records may reappear when the journal is reopened.
func (j *Journal) rollback(active *segment, cause error) error {
	if err := active.File.Truncate(active.Size); err != nil {
		return errors.Join(cause, err)
	}
	return cause
}

// confirm publishes newly durable records to readers and resolves their
// completion signals.
func (j *Journal) confirm(
	ctx context.Context,
	active *segment,
	batch []*pending,
	offsets []int64,
	size int,
) {
	j.index.Lock()
	active.Offsets = append(active.Offsets, offsets...)
	j.index.Unlock()

	end := batch[len(batch)-1].Seq + 1

	// The durable frontier must never fall behind the readable frontier.
	j.durable.Store(end)
	j.readable.Store(end)
	j.advanced.Notify()

	now := time.Now()
	for _, p := range batch {
		p.Resolver.Set(j.position(p.Seq))
		j.metrics.Latency.Record(ctx, now.Sub(p.Staged).Microseconds())
	}

	n := int64(len(batch))
	j.metrics.Records.Add(ctx, n)
	j.metrics.Staged.Add(ctx, -n)
	j.metrics.Bytes.Add(ctx, int64(size), telemetry.WriteDirection)
	j.metrics.Syncs.Add(ctx, 1)
	j.metrics.Durable.Set(int64(end))
}

// rotate starts a new segment after the active one.
func (j *Journal) rotate(
	ctx context.Context,
	span *telemetry.Span,
	active *segment,
) (*segment, error) {
	seg, err := createSegment(
		j.dir,
		header{j.id, active.end()},
		j.sync,
	)
	if err != nil {
		return nil, err
	}

	j.index.Lock()
	j.segments = append(j.segments, seg)
	count := len(j.segments)
	j.index.Unlock()

	if err := active.File.Close(); err != nil {
		span.Warn(
			"could not close previous segment",
			telemetry.String("segment", active.Path),
			telemetry.String("error", err.Error()),
		)
	}
	active.File = nil

	j.metrics.Segments.Set(int64(count))

	span.Debug(
		"started new segment",
		telemetry.String("segment", seg.Path),
		telemetry.Int("first_seq", seg.First),
	)

	return seg, nil
}

// fail resolves the completion signals of records that could not be made
// durable, and prevents any further appends.
func (j *Journal) fail(ctx context.Context, batch []*pending, cause error) {
	j.m.Lock()
	if j.failure == nil {
		j.failure = cause
	}
	j.m.Unlock()

	j.advanced.Notify()

	err := &DurabilityError{Cause: cause}
	for _, p := range batch {
		p.Resolver.Err(err)
	}

	n := int64(len(batch))
	j.metrics.Failures.Add(ctx, n)
	j.metrics.Staged.Add(ctx, -n)
}
