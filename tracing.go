package main

import (
	"context"

	log "github.com/sirupsen/logrus"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// logExporter writes finished spans to the logger at debug level.
type logExporter struct {
	logger *log.Logger
}

func (x logExporter) ExportSpans(_ context.Context, spans []sdktrace.ReadOnlySpan) error {
	for _, s := range spans {
		fields := log.Fields{
			"trace_id":    s.SpanContext().TraceID().String(),
			"span_id":     s.SpanContext().SpanID().String(),
			"span":        s.Name(),
			"duration_ms": float64(s.EndTime().Sub(s.StartTime())) / 1e6,
			"status":      s.Status().Code.String(),
		}
		if parent := s.Parent(); parent.IsValid() {
			fields["parent_span_id"] = parent.SpanID().String()
		}
		for _, kv := range s.Attributes() {
			fields[string(kv.Key)] = kv.Value.AsInterface()
		}
		x.logger.WithFields(fields).Debug("span")
	}
	return nil
}

func (logExporter) Shutdown(context.Context) error { return nil }

// newTracerProvider returns a provider that exports to the log when enabled
// and samples nothing otherwise.
func newTracerProvider(logger *log.Logger, enabled bool) *sdktrace.TracerProvider {
	if !enabled {
		return sdktrace.NewTracerProvider(sdktrace.WithSampler(sdktrace.NeverSample()))
	}
	return sdktrace.NewTracerProvider(sdktrace.WithBatcher(logExporter{logger: logger}))
}
