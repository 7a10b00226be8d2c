package telemetry

import (
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/exp/slog"
)

// Info logs an info-level event.
func (s *Span) Info(message string, attributes ...Attr) {
	s.event(slog.LevelInfo, message, attributes)
}

// Warn logs an warning-level event.
func (s *Span) Warn(message string, attributes ...Attr) {
	s.event(slog.LevelWarn, message, attributes)
}

// Debug logs a debug-level event.
func (s *Span) Debug(message string, attributes ...Attr) {
	s.event(slog.LevelDebug, message, attributes)
}

// Error logs an error-level event.
//
// It marks the span as an error and increments the recorder's "errors" metric.
func (s *Span) Error(message string, err error, attributes ...Attr) {
	attrs := s.eventAttrs(attributes)

	s.span.SetStatus(codes.Error, err.Error())
	s.span.RecordError(err, trace.WithAttributes(attrs.ForOpenTelemetry()...))

	s.recorder.errors.Add(s.ctx, 1)

	if !s.logger.Enabled(s.ctx, slog.LevelError) {
		return
	}

	s.logger.Log(
		s.ctx,
		slog.LevelError,
		message,
		attrs.ForLogger(
			slog.String("error", err.Error()),
		)...,
	)
}

func (s *Span) event(level slog.Level, message string, attributes []Attr) {
	if !s.logger.Enabled(s.ctx, level) {
		return
	}

	attrs := s.eventAttrs(attributes)

	s.span.AddEvent(message, trace.WithAttributes(attrs.ForOpenTelemetry()...))
	s.logger.Log(s.ctx, level, message, attrs.ForLogger()...)
}

func (s *Span) eventAttrs(attributes []Attr) attrSet {
	return attrSet{
		Namespace: s.recorder.Name,
		Attrs:     attributes,
	}
}
