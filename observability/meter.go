package observability

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
)

// InitMeter initializes the OpenTelemetry meter provider and makes it global.
func InitMeter(ctx context.Context, cfg Config, res *resource.Resource) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(cfg.Endpoint),
	}
	if cfg.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(cfg.MetricInterval))),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)
	return mp, nil
}

// Metrics holds the instruments recorded around storage operations.
type Metrics struct {
	operationTotal    metric.Int64Counter
	operationDuration metric.Float64Histogram
	uploadBytes       metric.Int64Counter
	deleteAttempts    metric.Int64Counter
}

// NewMetrics creates metric instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	operationTotal, err := meter.Int64Counter("imgkit.operation.total",
		metric.WithDescription("Storage operations by provider, operation and outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating imgkit.operation.total counter: %w", err)
	}

	operationDuration, err := meter.Float64Histogram("imgkit.operation.duration",
		metric.WithDescription("Duration of storage operations in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating imgkit.operation.duration histogram: %w", err)
	}

	uploadBytes, err := meter.Int64Counter("imgkit.upload.bytes",
		metric.WithDescription("Bytes uploaded successfully"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating imgkit.upload.bytes counter: %w", err)
	}

	deleteAttempts, err := meter.Int64Counter("imgkit.delete.attempts",
		metric.WithDescription("Remote delete attempts per endpoint shape"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating imgkit.delete.attempts counter: %w", err)
	}

	return &Metrics{
		operationTotal:    operationTotal,
		operationDuration: operationDuration,
		uploadBytes:       uploadBytes,
		deleteAttempts:    deleteAttempts,
	}, nil
}

// RecordOperation records a finished operation.
func (m *Metrics) RecordOperation(ctx context.Context, provider, operation string, err error, duration time.Duration) {
	m.operationTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrProvider, provider),
		attribute.String(AttrOperation, operation),
		attribute.String(AttrOutcome, outcome(err)),
	))
	m.operationDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String(AttrProvider, provider),
		attribute.String(AttrOperation, operation),
	))
}

// RecordUploadBytes adds n bytes to the upload counter.
func (m *Metrics) RecordUploadBytes(ctx context.Context, provider string, n int64) {
	m.uploadBytes.Add(ctx, n, metric.WithAttributes(attribute.String(AttrProvider, provider)))
}

// RecordDeleteAttempt records one delete candidate and whether it succeeded.
func (m *Metrics) RecordDeleteAttempt(ctx context.Context, endpoint string, err error) {
	m.deleteAttempts.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrEndpoint, endpoint),
		attribute.String(AttrOutcome, outcome(err)),
	))
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// Default returns metrics bound to the global meter provider. Instruments are
// created on first use, so call Setup before the first operation.
func Default() *Metrics {
	defaultMetricsOnce.Do(func() {
		m, err := NewMetrics(otel.Meter(instrumentationName))
		if err != nil {
			// Instrument creation only fails on invalid names.
			panic(err)
		}
		defaultMetrics = m
	})
	return defaultMetrics
}
