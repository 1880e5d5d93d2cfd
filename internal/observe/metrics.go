// Package observe provides application-wide observability primitives for
// MeetWhiz: OpenTelemetry metrics, distributed tracing, structured logging,
// and HTTP middleware that ties them together.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can still
// be scraped via the standard /metrics endpoint. A package-level default
// [Metrics] instance ([DefaultMetrics]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all MeetWhiz metrics.
const meterName = "github.com/Oracle69digitalmarketing/meetwhiz"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// TaskDuration tracks studio task latency end to end. Use with attributes:
	//   attribute.String("kind", ...), attribute.String("status", ...)
	TaskDuration metric.Float64Histogram

	// InsightDuration tracks live-meeting insight pass latency.
	InsightDuration metric.Float64Histogram

	// ChatStreamDuration tracks assistant reply streaming time from submit to
	// final delta.
	ChatStreamDuration metric.Float64Histogram

	// ProviderRequests counts generative backend calls. Use with attributes:
	//   attribute.String("provider", ...), attribute.String("kind", ...), attribute.String("status", ...)
	ProviderRequests metric.Int64Counter

	// ProviderErrors counts generative backend errors. Use with attributes:
	//   attribute.String("provider", ...), attribute.String("kind", ...)
	ProviderErrors metric.Int64Counter

	// VideoPolls counts video-generation poll iterations.
	VideoPolls metric.Int64Counter

	// Suggestions counts insight suggestions by outcome. Use with attribute:
	//   attribute.String("outcome", "added"|"duplicate"|"accepted")
	Suggestions metric.Int64Counter

	// ActiveChatSessions tracks currently open assistant conversations.
	ActiveChatSessions metric.Int64UpDownCounter

	// ActiveScribeSessions tracks live meeting sessions in Listening state.
	ActiveScribeSessions metric.Int64UpDownCounter

	// HTTPRequestDuration tracks HTTP request processing time. Use with
	// attributes: attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries (in seconds). Studio
// tasks span interactive latencies up to multi-minute video generations.
var latencyBuckets = []float64{
	0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.TaskDuration, err = m.Float64Histogram("meetwhiz.task.duration",
		metric.WithDescription("Latency of studio tasks by kind and status."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.InsightDuration, err = m.Float64Histogram("meetwhiz.insight.duration",
		metric.WithDescription("Latency of live-meeting insight passes."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.ChatStreamDuration, err = m.Float64Histogram("meetwhiz.chat.stream.duration",
		metric.WithDescription("Assistant reply streaming time from submit to final delta."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	if met.ProviderRequests, err = m.Int64Counter("meetwhiz.provider.requests",
		metric.WithDescription("Total generative backend requests by provider, kind, and status."),
	); err != nil {
		return nil, err
	}
	if met.ProviderErrors, err = m.Int64Counter("meetwhiz.provider.errors",
		metric.WithDescription("Total generative backend errors by provider and kind."),
	); err != nil {
		return nil, err
	}
	if met.VideoPolls, err = m.Int64Counter("meetwhiz.video.polls",
		metric.WithDescription("Total video-generation poll iterations."),
	); err != nil {
		return nil, err
	}
	if met.Suggestions, err = m.Int64Counter("meetwhiz.scribe.suggestions",
		metric.WithDescription("Insight suggestions by outcome."),
	); err != nil {
		return nil, err
	}

	if met.ActiveChatSessions, err = m.Int64UpDownCounter("meetwhiz.active_chat_sessions",
		metric.WithDescription("Number of open assistant conversations."),
	); err != nil {
		return nil, err
	}
	if met.ActiveScribeSessions, err = m.Int64UpDownCounter("meetwhiz.active_scribe_sessions",
		metric.WithDescription("Number of live meeting sessions currently listening."),
	); err != nil {
		return nil, err
	}

	if met.HTTPRequestDuration, err = m.Float64Histogram("meetwhiz.http.request.duration",
		metric.WithDescription("HTTP request latency by method and path."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
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

// Attr is a convenience alias for [attribute.String] to reduce verbosity at
// call sites.
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordTask records one completed studio task.
func (m *Metrics) RecordTask(ctx context.Context, kind, status string, seconds float64) {
	m.TaskDuration.Record(ctx, seconds,
		metric.WithAttributes(
			attribute.String("kind", kind),
			attribute.String("status", status),
		),
	)
}

// RecordProviderRequest records a generative backend call with the standard
// attribute set.
func (m *Metrics) RecordProviderRequest(ctx context.Context, provider, kind, status string) {
	m.ProviderRequests.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("kind", kind),
			attribute.String("status", status),
		),
	)
}

// RecordProviderError records a generative backend error.
func (m *Metrics) RecordProviderError(ctx context.Context, provider, kind string) {
	m.ProviderErrors.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("kind", kind),
		),
	)
}

// RecordSuggestion records an insight suggestion outcome.
func (m *Metrics) RecordSuggestion(ctx context.Context, outcome string) {
	m.Suggestions.Add(ctx, 1,
		metric.WithAttributes(attribute.String("outcome", outcome)),
	)
}
