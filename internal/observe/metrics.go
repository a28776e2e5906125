// Package observe provides the observability primitives shared by the
// segmenter and the HTTP listener: OpenTelemetry metrics, tracing, trace-aware
// logging and HTTP middleware.
//
// Metrics are recorded through the OpenTelemetry Metrics API and exposed for
// Prometheus scraping by [InitProvider]. [DefaultMetrics] is bound to the
// global meter provider; tests should use [NewMetrics] with their own
// [metric.MeterProvider].
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope of all voxgate metrics.
const meterName = "github.com/MrWong99/voxgate"

// Metrics holds the OpenTelemetry instruments of the application. All
// instruments are safe for concurrent use.
type Metrics struct {
	// Commands counts finished recording attempts. Use with attribute
	// attribute.String("result", "success"|"failure").
	Commands metric.Int64Counter

	// CommandDuration records the seconds of audio captured per successful
	// command.
	CommandDuration metric.Float64Histogram

	// AudioBytes counts PCM bytes fed to recorders.
	AudioBytes metric.Int64Counter

	// TrimmedBytes counts bytes removed by the silence trimmer.
	TrimmedBytes metric.Int64Counter

	// VADErrors counts failed classifications. Use with attribute
	// attribute.String("provider", ...).
	VADErrors metric.Int64Counter

	// ActiveStreams tracks the number of input streams being segmented.
	ActiveStreams metric.Int64UpDownCounter

	// HTTPRequestDuration tracks HTTP request processing time. Use with
	// attributes attribute.String("method", ...), attribute.String("path", ...).
	HTTPRequestDuration metric.Float64Histogram
}

// commandBuckets are histogram boundaries in seconds sized for spoken
// commands.
var commandBuckets = []float64{
	0.25, 0.5, 1, 1.5, 2, 3, 5, 8, 13, 20, 30,
}

// NewMetrics creates every instrument from mp.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.Commands, err = m.Int64Counter("voxgate.commands",
		metric.WithDescription("Finished recording attempts by result."),
	); err != nil {
		return nil, err
	}
	if met.CommandDuration, err = m.Float64Histogram("voxgate.command.duration",
		metric.WithDescription("Audio duration of captured voice commands."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(commandBuckets...),
	); err != nil {
		return nil, err
	}
	if met.AudioBytes, err = m.Int64Counter("voxgate.audio.bytes",
		metric.WithDescription("PCM bytes fed to recorders."),
		metric.WithUnit("By"),
	); err != nil {
		return nil, err
	}
	if met.TrimmedBytes, err = m.Int64Counter("voxgate.trimmed.bytes",
		metric.WithDescription("PCM bytes removed by silence trimming."),
		metric.WithUnit("By"),
	); err != nil {
		return nil, err
	}
	if met.VADErrors, err = m.Int64Counter("voxgate.vad.errors",
		metric.WithDescription("Failed speech classifications by VAD provider."),
	); err != nil {
		return nil, err
	}
	if met.ActiveStreams, err = m.Int64UpDownCounter("voxgate.active_streams",
		metric.WithDescription("Number of input streams being segmented."),
	); err != nil {
		return nil, err
	}
	if met.HTTPRequestDuration, err = m.Float64Histogram("voxgate.http.request.duration",
		metric.WithDescription("HTTP request latency by method and path."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics], creating it from
// [otel.GetMeterProvider] on first use. It panics if instrument creation
// fails.
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// Attr is shorthand for [attribute.String].
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordCommand counts one finished attempt and, for successes, records the
// captured audio duration in seconds.
func (m *Metrics) RecordCommand(ctx context.Context, result string, audioSeconds float64) {
	m.Commands.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
	if result == "success" {
		m.CommandDuration.Record(ctx, audioSeconds)
	}
}

// RecordVADError counts one failed classification.
func (m *Metrics) RecordVADError(ctx context.Context, provider string) {
	m.VADErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("provider", provider)))
}
