// Package observe holds the OpenTelemetry instruments recorded by the
// generate pipeline and the provider setup that exports them to Prometheus.
//
// Tests should build a [Metrics] with [NewMetrics] and a ManualReader-backed
// provider instead of relying on the global provider.
package observe

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/example/smartvoice"

// Metrics holds all instruments. Safe for concurrent use.
type Metrics struct {
	// GenerateDuration tracks end-to-end generate latency (build through playback).
	GenerateDuration metric.Float64Histogram

	// GenerateRequests counts generate actions by status ("ok" or "error").
	GenerateRequests metric.Int64Counter

	// GenerateErrors counts failed generate actions by error kind.
	GenerateErrors metric.Int64Counter

	// DownloadBytes counts audio bytes written to the output file.
	DownloadBytes metric.Int64Counter

	// HTTPRequestDuration tracks HTTP adapter request latency by method and path.
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets are in seconds; hosted synthesis plus download usually lands
// between half a second and a few seconds.
var latencyBuckets = []float64{
	0.1, 0.25, 0.5, 1, 2, 4, 8, 15, 30, 60,
}

// NewMetrics creates all instruments on mp.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.GenerateDuration, err = m.Float64Histogram("smartvoice.generate.duration",
		metric.WithDescription("Latency of a full generate action."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.GenerateRequests, err = m.Int64Counter("smartvoice.generate.requests",
		metric.WithDescription("Total generate actions by status."),
	); err != nil {
		return nil, err
	}
	if met.GenerateErrors, err = m.Int64Counter("smartvoice.generate.errors",
		metric.WithDescription("Total failed generate actions by error kind."),
	); err != nil {
		return nil, err
	}
	if met.DownloadBytes, err = m.Int64Counter("smartvoice.download.bytes",
		metric.WithDescription("Audio bytes written to the output file."),
		metric.WithUnit("By"),
	); err != nil {
		return nil, err
	}
	if met.HTTPRequestDuration, err = m.Float64Histogram("smartvoice.http.request.duration",
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

// DefaultMetrics returns a lazily created instance on the global provider.
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

// RecordGenerate records one finished generate action. kind is empty on
// success.
func (m *Metrics) RecordGenerate(ctx context.Context, d time.Duration, kind string) {
	status := "ok"
	if kind != "" {
		status = "error"
		m.GenerateErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
	}
	m.GenerateRequests.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
	m.GenerateDuration.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.String("status", status)))
}

// RecordDownload adds n bytes to the download counter.
func (m *Metrics) RecordDownload(ctx context.Context, n int64) {
	if n > 0 {
		m.DownloadBytes.Add(ctx, n)
	}
}

// Attr is a shorthand for attribute.String.
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

func metricAttrs(kv ...attribute.KeyValue) metric.MeasurementOption {
	return metric.WithAttributes(kv...)
}
