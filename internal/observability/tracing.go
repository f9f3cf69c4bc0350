package observability

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Tracer returns a tracer from the globally registered provider. Applications
// that never configure a provider get the default no-op tracer, so
// instrumented code paths cost nothing unless tracing is enabled.
func Tracer(name string) trace.Tracer {
	return otel.Tracer(name)
}

// NoopTracer returns a tracer that records nothing. It is the default for
// components that accept a tracer via functional options.
func NoopTracer() trace.Tracer {
	return noop.NewTracerProvider().Tracer("")
}
