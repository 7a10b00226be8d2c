package journal

import (
	"fmt"
	"os"

	"github.com/dogmatiq/crowdcontrol/internal/config"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/exp/slog"
)

// An Option configures the behavior of a [Journal].
type Option func(*config.Config)

// WithOptionsFromEnvironment is an [Option] that configures the journal using
// options specified via environment variables.
//
// Any explicit options passed to [Open] take precedence over options from the
// environment.
func WithOptionsFromEnvironment() Option {
	return func(cfg *config.Config) {
		cfg.UseEnv = true
	}
}

// WithMaxSegmentSize is an [Option] that sets the size, in bytes, at which the
// journal begins writing to a new segment file.
//
// A record that is larger than this size is written to a segment of its own.
func WithMaxSegmentSize(n uint64) Option {
	if n < config.MinSegmentSize {
		panic(fmt.Sprintf("maximum segment size must be at least %d bytes", config.MinSegmentSize))
	}

	return func(cfg *config.Config) {
		cfg.MaxSegmentSize = n
	}
}

// WithTracerProvider is an [Option] that sets the OpenTelemetry tracer
// provider used by the journal.
func WithTracerProvider(p trace.TracerProvider) Option {
	if p == nil {
		panic("tracer provider must not be nil")
	}

	return func(cfg *config.Config) {
		cfg.Telemetry.TracerProvider = p
	}
}

// WithMeterProvider is an [Option] that sets the OpenTelemetry meter provider
// used by the journal.
func WithMeterProvider(p metric.MeterProvider) Option {
	if p == nil {
		panic("meter provider must not be nil")
	}

	return func(cfg *config.Config) {
		cfg.Telemetry.MeterProvider = p
	}
}

// WithLogger is an [Option] that sets the logger used by the journal.
func WithLogger(l *slog.Logger) Option {
	if l == nil {
		panic("logger must not be nil")
	}

	return func(cfg *config.Config) {
		cfg.Telemetry.Logger = l
	}
}

// WithSyncFunc is an [Option] that replaces the function used to flush files
// to stable storage.
//
// It is intended for simulating storage failures in tests.
func WithSyncFunc(fn func(*os.File) error) Option {
	if fn == nil {
		panic("sync function must not be nil")
	}

	return func(cfg *config.Config) {
		cfg.Sync = fn
	}
}
