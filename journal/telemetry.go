package journal

import (
	"errors"

	"github.com/dogmatiq/crowdcontrol/internal/telemetry"
)

// Metrics is a snapshot of a journal's operational metrics.
type Metrics struct {
	// Records is the number of records made durable since the journal was
	// opened.
	Records int64

	// Bytes is the number of bytes of record frames made durable since the
	// journal was opened.
	Bytes int64

	// Syncs is the number of successful flushes to stable storage.
	Syncs int64

	// Failures is the number of records that could not be made durable.
	Failures int64

	// Staged is the number of records that have been appended but are not yet
	// durable or failed.
	Staged int64

	// Segments is the number of segment files.
	Segments int64

	// DurableRecords is the total number of durable records in the journal.
	DurableRecords int64
}

type instruments struct {
	Open     *telemetry.UpDownCounter
	Staged   *telemetry.UpDownCounter
	Records  *telemetry.Counter
	Bytes    *telemetry.Counter
	Syncs    *telemetry.Counter
	Failures *telemetry.Counter
	Latency  *telemetry.Histogram
	Durable  *telemetry.Gauge
	Segments *telemetry.Gauge
}

func newInstruments(r *telemetry.Recorder) *instruments {
	return &instruments{
		Open:     r.UpDownCounter("open", "{journal}", "The number of open journals."),
		Staged:   r.UpDownCounter("records.staged", "{record}", "The number of records awaiting durability."),
		Records:  r.Counter("records.durable", "{record}", "The number of records made durable."),
		Bytes:    r.Counter("io", "By", "The number of bytes written to segment files."),
		Syncs:    r.Counter("syncs", "{sync}", "The number of successful flushes to stable storage."),
		Failures: r.Counter("records.failed", "{record}", "The number of records that could not be made durable."),
		Latency:  r.Histogram("append.latency", "us", "The time between appending a record and it becoming durable."),
		Durable:  r.Gauge("frontier", "{record}", "The number of durable records in the journal."),
		Segments: r.Gauge("segments", "{segment}", "The number of segment files."),
	}
}

func (i *instruments) snapshot() Metrics {
	m := Metrics{
		Records:  i.Records.Value(),
		Bytes:    i.Bytes.Value(),
		Syncs:    i.Syncs.Value(),
		Failures: i.Failures.Value(),
		Staged:   i.Staged.Value(),
	}

	m.Segments, _ = i.Segments.Value()
	m.DurableRecords, _ = i.Durable.Value()

	return m
}

// Close unregisters the asynchronous instruments.
func (i *instruments) Close() error {
	return errors.Join(
		i.Durable.Close(),
		i.Segments.Close(),
	)
}
