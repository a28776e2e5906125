package observe

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// CorrelationHeader carries the trace ID of a request back to the client.
const CorrelationHeader = "X-Correlation-ID"

// Middleware instruments the HTTP listener. Each request runs inside a server
// span that continues an incoming W3C traceparent, answers with
// [CorrelationHeader], and is recorded in [Metrics.HTTPRequestDuration].
// Requests log at debug level, server errors at warn level.
func Middleware(m *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return &instrumented{next: next, metrics: m}
	}
}

type instrumented struct {
	next    http.Handler
	metrics *Metrics
	prop    propagation.TraceContext
}

func (h *instrumented) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	began := time.Now()

	ctx := h.prop.Extract(r.Context(), propagation.HeaderCarrier(r.Header))
	ctx, span := StartSpan(ctx, "HTTP "+r.Method+" "+r.URL.Path,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			semconv.HTTPRequestMethodKey.String(r.Method),
			semconv.URLPath(r.URL.Path),
		),
	)
	defer span.End()

	if id := CorrelationID(ctx); id != "" {
		w.Header().Set(CorrelationHeader, id)
	}
	h.prop.Inject(ctx, propagation.HeaderCarrier(w.Header()))

	sw := &statusWriter{ResponseWriter: w}
	h.next.ServeHTTP(sw, r.WithContext(ctx))
	h.finish(ctx, span, r, sw, time.Since(began))
}

func (h *instrumented) finish(ctx context.Context, span trace.Span, r *http.Request, sw *statusWriter, elapsed time.Duration) {
	status := sw.status()
	h.metrics.HTTPRequestDuration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(
		attribute.String("method", r.Method),
		attribute.String("path", r.URL.Path),
		attribute.String("status", strconv.Itoa(status)),
	))

	span.SetAttributes(semconv.HTTPResponseStatusCode(status))
	level := slog.LevelDebug
	if status >= http.StatusInternalServerError {
		span.SetStatus(codes.Error, http.StatusText(status))
		level = slog.LevelWarn
	}
	Logger(ctx).LogAttrs(ctx, level, "http request",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Int("status", status),
		slog.Int("bytes", sw.written),
		slog.Duration("duration", elapsed),
	)
}

// statusWriter records the status code and body size of a response.
type statusWriter struct {
	http.ResponseWriter
	code    int
	written int
}

func (w *statusWriter) WriteHeader(code int) {
	if w.code == 0 {
		w.code = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(p []byte) (int, error) {
	if w.code == 0 {
		w.code = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(p)
	w.written += n
	return n, err
}

func (w *statusWriter) status() int {
	if w.code == 0 {
		return http.StatusOK
	}
	return w.code
}

// Unwrap lets [http.ResponseController] reach the underlying writer.
func (w *statusWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }
