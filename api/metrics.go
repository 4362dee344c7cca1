package api

import (
	"context"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName         = "todolist/api"
	requestSpanName    = "todolist.http.request"
	requestEventName   = "todolist.http.request"
	requestEventDomain = "app"
	observabilityEvent = "observability.event"

	attrHTTPRoute      = "http.route"
	attrHTTPMethod     = "http.method"
	attrHTTPStatusCode = "http.status_code"
	attrTotalMillis    = "todo.total_ms"
	attrStorageMillis  = "todo.storage_ms"
	attrList           = "todo.list"
	attrItemsReturned  = "todo.items_returned"
	attrSeeded         = "todo.seeded"
	attrErrorStage     = "todo.error_stage"
	attrErrorMessage   = "error.message"
)

type requestMetrics struct {
	logger          *log.Logger
	span            trace.Span
	route           string
	method          string
	start           time.Time
	storageDuration time.Duration
	list            string
	itemsReturned   int
	seeded          bool
	errorStage      string
}

func newRequestMetrics(ctx context.Context, logger *log.Logger, method, route string) (*requestMetrics, context.Context) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, requestSpanName,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(attribute.String(attrHTTPRoute, route), attribute.String(attrHTTPMethod, method)),
	)
	return &requestMetrics{
		logger: logger,
		span:   span,
		route:  route,
		method: method,
		start:  time.Now(),
	}, ctx
}

func (m *requestMetrics) ObserveStorage(duration time.Duration) {
	if duration <= 0 {
		return
	}
	m.storageDuration += duration
}

func (m *requestMetrics) SetList(name string) {
	m.list = name
}

func (m *requestMetrics) SetItemsReturned(count int) {
	if count < 0 {
		count = 0
	}
	m.itemsReturned = count
}

func (m *requestMetrics) SetSeeded(seeded bool) {
	m.seeded = seeded
}

func (m *requestMetrics) SetErrorStage(stage string) {
	if stage == "" {
		return
	}
	m.errorStage = stage
}

// Log emits the request as an observability event on the logger and on the
// request span, then ends the span.
func (m *requestMetrics) Log(status int, err error) {
	if m == nil {
		return
	}

	severityText, severityNumber := severityForStatus(status, err)
	attrs := []attribute.KeyValue{
		attribute.String(attrHTTPRoute, m.route),
		attribute.String(attrHTTPMethod, m.method),
		attribute.Int(attrHTTPStatusCode, status),
		attribute.Float64(attrTotalMillis, durationToMillis(time.Since(m.start))),
		attribute.Int(attrItemsReturned, m.itemsReturned),
		attribute.Bool(attrSeeded, m.seeded),
	}
	if m.storageDuration > 0 {
		attrs = append(attrs, attribute.Float64(attrStorageMillis, durationToMillis(m.storageDuration)))
	}
	if m.list != "" {
		attrs = append(attrs, attribute.String(attrList, m.list))
	}
	if m.errorStage != "" {
		attrs = append(attrs, attribute.String(attrErrorStage, m.errorStage))
	}
	if err != nil {
		attrs = append(attrs, attribute.String(attrErrorMessage, err.Error()))
	}

	if m.span != nil {
		m.span.SetAttributes(attrs...)
		eventAttrs := append([]attribute.KeyValue{
			attribute.String("event.name", requestEventName),
			attribute.String("event.domain", requestEventDomain),
			attribute.String("severity_text", severityText),
			attribute.Int("severity_number", severityNumber),
		}, attrs...)
		m.span.AddEvent(observabilityEvent, trace.WithAttributes(eventAttrs...))
		switch {
		case err != nil:
			m.span.RecordError(err)
			m.span.SetStatus(codes.Error, err.Error())
		case status >= http.StatusInternalServerError:
			m.span.SetStatus(codes.Error, http.StatusText(status))
		default:
			m.span.SetStatus(codes.Ok, "")
		}
		m.span.End()
	}

	if m.logger == nil {
		return
	}
	fields := log.Fields{
		"event.name":      requestEventName,
		"event.domain":    requestEventDomain,
		"severity_text":   severityText,
		"severity_number": severityNumber,
		"attributes":      attributesToFields(attrs),
	}
	if m.span != nil {
		if sc := m.span.SpanContext(); sc.HasTraceID() {
			fields["trace_id"] = sc.TraceID().String()
			fields["span_id"] = sc.SpanID().String()
		}
	}
	entry := m.logger.WithFields(fields)
	switch severityText {
	case "ERROR":
		entry.Error(observabilityEvent)
	case "WARN":
		entry.Warn(observabilityEvent)
	default:
		entry.Info(observabilityEvent)
	}
}

// severityForStatus maps a response to OpenTelemetry log severity text and number.
func severityForStatus(status int, err error) (string, int) {
	switch {
	case err != nil || status >= http.StatusInternalServerError:
		return "ERROR", 17
	case status >= http.StatusBadRequest:
		return "WARN", 13
	default:
		return "INFO", 9
	}
}

func attributesToFields(attrs []attribute.KeyValue) map[string]any {
	out := make(map[string]any, len(attrs))
	for _, kv := range attrs {
		out[string(kv.Key)] = kv.Value.AsInterface()
	}
	return out
}

func durationToMillis(d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(d) / float64(time.Millisecond)
}
