package telemetry

import (
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/exp/constraints"
	"golang.org/x/exp/slog"
)

// Attr is a telemetry attribute.
type Attr struct {
	key   string
	value attribute.Value
}

// String returns a string attribute.
func String[T ~string](k string, v T) Attr {
	return Attr{k, attribute.StringValue(string(v))}
}

// Stringer returns a string attribute. The value is the result of calling
// v.String().
func Stringer(k string, v fmt.Stringer) Attr {
	return String(k, v.String())
}

// Bool returns a boolean attribute.
func Bool[T ~bool](k string, v T) Attr {
	return Attr{k, attribute.BoolValue(bool(v))}
}

// Int returns an int64 attribute.
func Int[T constraints.Integer](k string, v T) Attr {
	return Attr{k, attribute.Int64Value(int64(v))}
}

// Duration returns a string attributing containing v in human readable format.
func Duration(k string, v time.Duration) Attr {
	return String(k, v.String())
}

// attrSet is a set of attributes within a namespace.
type attrSet struct {
	Namespace string
	Attrs     []Attr
}

func (s attrSet) key(k string) string {
	if s.Namespace == "" {
		return k
	}
	return s.Namespace + "." + k
}

// ForOpenTelemetry returns the attributes as OpenTelemetry key/value pairs.
func (s attrSet) ForOpenTelemetry() []attribute.KeyValue {
	kvs := make([]attribute.KeyValue, 0, len(s.Attrs))
	for _, a := range s.Attrs {
		kvs = append(kvs, attribute.KeyValue{
			Key:   attribute.Key(s.key(a.key)),
			Value: a.value,
		})
	}
	return kvs
}

// ForLogger returns the attributes as arguments to an slog logging method.
func (s attrSet) ForLogger(extra ...slog.Attr) []any {
	args := make([]any, 0, len(s.Attrs)+len(extra))
	for _, a := range s.Attrs {
		args = append(args, slog.Any(a.key, a.value.AsInterface()))
	}
	for _, a := range extra {
		args = append(args, a)
	}
	return args
}
