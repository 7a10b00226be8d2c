// Package telemetry records traces, metrics and logs.
package telemetry

import (
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/exp/slog"
)

// Recorder records traces, metrics and logs for a particular subsystem.
type Recorder struct {
	Name   string
	Tracer trace.Tracer
	Meter  metric.Meter
	Logger *slog.Logger

	errors *Counter
}

// Errors returns the number of errors recorded by spans of this recorder.
func (r *Recorder) Errors() int64 {
	return r.errors.Value()
}
