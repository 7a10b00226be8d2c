package telemetry

import (
	"runtime/debug"

	"go.opentelemetry.io/otel/metric"
	noopmetric "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/exp/slices"
	"golang.org/x/exp/slog"
)

// Provider provides Recorder instances scoped to particular subsystems.
//
// The zero value of a *Provider is equivalent to a provider configured with
// no-op tracer and meter providers, and the default logger.
type Provider struct {
	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider
	Logger         *slog.Logger
	Attrs          []Attr
}

// Recorder returns a new Recorder for the subsystem with the given name.
func (p *Provider) Recorder(name string, attrs ...Attr) *Recorder {
	const pkg = "github.com/dogmatiq/crowdcontrol"

	var (
		tracerProvider trace.TracerProvider
		meterProvider  metric.MeterProvider
		logger         *slog.Logger
	)

	if p != nil {
		tracerProvider = p.TracerProvider
		meterProvider = p.MeterProvider
		logger = p.Logger
		attrs = append(slices.Clone(p.Attrs), attrs...)
	}

	if tracerProvider == nil {
		tracerProvider = nooptrace.NewTracerProvider()
	}

	if meterProvider == nil {
		meterProvider = noopmetric.NewMeterProvider()
	}

	if logger == nil {
		logger = slog.Default()
	}

	set := attrSet{Namespace: name, Attrs: attrs}

	r := &Recorder{
		Name: name,
		Tracer: tracerProvider.Tracer(
			pkg+"/"+name,
			tracerVersion,
			trace.WithInstrumentationAttributes(set.ForOpenTelemetry()...),
		),
		Meter: meterProvider.Meter(
			pkg+"/"+name,
			meterVersion,
			metric.WithInstrumentationAttributes(set.ForOpenTelemetry()...),
		),
		Logger: logger.With(
			slog.String("subsystem", name),
		).With(
			set.ForLogger()...,
		),
	}

	r.errors = r.Counter("errors", "{error}", "The number of errors that have occurred.")

	return r
}

var (
	// tracerVersion is a TracerOption that sets the instrumentation version
	// to the current version of the module.
	tracerVersion trace.TracerOption

	// meterVersion is a MeterOption that sets the instrumentation version to
	// the current version of the module.
	meterVersion metric.MeterOption
)

func init() {
	const modulePath = "github.com/dogmatiq/crowdcontrol"
	version := "unknown"

	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Path == modulePath {
			version = info.Main.Version
		}

		for _, dep := range info.Deps {
			if dep.Path == modulePath {
				version = dep.Version
				break
			}
		}
	}

	tracerVersion = trace.WithInstrumentationVersion(version)
	meterVersion = metric.WithInstrumentationVersion(version)
}
