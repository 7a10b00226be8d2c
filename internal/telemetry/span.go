package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"golang.org/x/exp/slog"
)

// Span represents a single named and timed operation of a workflow.
type Span struct {
	recorder *Recorder
	ctx      context.Context
	span     trace.Span
	logger   *slog.Logger
}

// StartSpan starts a new span.
func (r *Recorder) StartSpan(
	ctx context.Context,
	name string,
	attrs ...Attr,
) (context.Context, *Span) {
	set := attrSet{
		Namespace: r.Name,
		Attrs:     attrs,
	}

	ctx, span := r.Tracer.Start(
		ctx,
		name,
		trace.WithAttributes(set.ForOpenTelemetry()...),
	)

	extra := []slog.Attr{
		slog.String("span_name", name),
	}

	if sctx := span.SpanContext(); sctx.HasSpanID() {
		extra = append(
			extra,
			slog.String("span_id", sctx.SpanID().String()),
		)
	}

	return ctx, &Span{
		r,
		ctx,
		span,
		r.Logger.With(set.ForLogger(extra...)...),
	}
}

// End completes the span.
func (s *Span) End() {
	s.span.End()
}

// SetAttributes sets attributes on the span.
func (s *Span) SetAttributes(attrs ...Attr) {
	s.span.SetAttributes(
		s.eventAttrs(attrs).ForOpenTelemetry()...,
	)
}
