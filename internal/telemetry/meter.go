package telemetry

import (
	"context"

	"github.com/dogmatiq/crowdcontrol/metrics"
	"go.opentelemetry.io/otel/metric"
)

// Counter is a monotonic counter that is exported via OpenTelemetry and whose
// current value can also be read in-process.
type Counter struct {
	inst  metric.Int64Counter
	value metrics.SharedCounter[int64]
}

// Counter returns a new monotonic counter instrument.
func (r *Recorder) Counter(name, unit, desc string) *Counter {
	inst, err := r.Meter.Int64Counter(
		name,
		metric.WithUnit(unit),
		metric.WithDescription(desc),
	)
	if err != nil {
		panic(err)
	}

	return &Counter{inst: inst}
}

// Add adds v to the counter. v must not be negative.
func (c *Counter) Add(ctx context.Context, v int64, attrs ...Attr) {
	c.value.Inc(v)
	c.inst.Add(ctx, v, measurementAttrs(attrs))
}

// Value returns the current value of the counter.
func (c *Counter) Value() int64 {
	return c.value.Value()
}

// UpDownCounter is a counter that can increase or decrease.
type UpDownCounter struct {
	inst  metric.Int64UpDownCounter
	value metrics.SharedCounter[int64]
}

// UpDownCounter returns a new counter instrument that can increase or decrease.
func (r *Recorder) UpDownCounter(name, unit, desc string) *UpDownCounter {
	inst, err := r.Meter.Int64UpDownCounter(
		name,
		metric.WithUnit(unit),
		metric.WithDescription(desc),
	)
	if err != nil {
		panic(err)
	}

	return &UpDownCounter{inst: inst}
}

// Add adds v to the counter. v may be negative.
func (c *UpDownCounter) Add(ctx context.Context, v int64, attrs ...Attr) {
	c.value.Inc(v)
	c.inst.Add(ctx, v, measurementAttrs(attrs))
}

// Value returns the current value of the counter.
func (c *UpDownCounter) Value() int64 {
	return c.value.Value()
}

// Histogram records a distribution of values.
type Histogram struct {
	inst metric.Int64Histogram
}

// Histogram returns a new histogram instrument.
func (r *Recorder) Histogram(name, unit, desc string) *Histogram {
	inst, err := r.Meter.Int64Histogram(
		name,
		metric.WithUnit(unit),
		metric.WithDescription(desc),
	)
	if err != nil {
		panic(err)
	}

	return &Histogram{inst}
}

// Record adds v to the distribution.
func (h *Histogram) Record(ctx context.Context, v int64, attrs ...Attr) {
	h.inst.Record(ctx, v, measurementAttrs(attrs))
}

// Gauge is an asynchronous gauge whose value is set in-process and observed
// by OpenTelemetry when metrics are collected.
type Gauge struct {
	metrics.SharedGauge[int64]
	reg metric.Registration
}

// Gauge returns a new gauge instrument.
//
// The gauge must be closed when it is no longer needed.
func (r *Recorder) Gauge(name, unit, desc string) *Gauge {
	inst, err := r.Meter.Int64ObservableGauge(
		name,
		metric.WithUnit(unit),
		metric.WithDescription(desc),
	)
	if err != nil {
		panic(err)
	}

	g := &Gauge{}

	g.reg, err = r.Meter.RegisterCallback(
		func(_ context.Context, o metric.Observer) error {
			if v, ok := g.Value(); ok {
				o.ObserveInt64(inst, v)
			}
			return nil
		},
		inst,
	)
	if err != nil {
		panic(err)
	}

	return g
}

// Close stops the gauge from being observed.
func (g *Gauge) Close() error {
	return g.reg.Unregister()
}

func measurementAttrs(attrs []Attr) metric.MeasurementOption {
	set := attrSet{Attrs: attrs}
	return metric.WithAttributes(set.ForOpenTelemetry()...)
}

var (
	// ReadDirection is an attribute that indicates a read operation.
	ReadDirection = String("direction", "read")

	// WriteDirection is an attribute that indicates a write operation.
	WriteDirection = String("direction", "write")
)
