package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/mediakit/mediakit/version"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	// ServiceName is the name of the service.
	ServiceName string
	// ServiceVersion is the version of the service.
	ServiceVersion string
	// Environment is the deployment environment (dev, staging, prod).
	Environment string
	// Endpoint is the OTLP HTTP endpoint host:port (e.g., "localhost:4318").
	Endpoint string
	// Insecure allows insecure connections (for development).
	Insecure bool
	// Interval is the metric export interval.
	Interval time.Duration
}

// DefaultMeterConfig returns sensible defaults for development.
func DefaultMeterConfig(serviceName string) MeterConfig {
	return MeterConfig{
		ServiceName:    serviceName,
		ServiceVersion: version.Short(),
		Environment:    "development",
		Endpoint:       "localhost:4318",
		Insecure:       true,
		Interval:       15 * time.Second,
	}
}

// InitMeter initializes the OpenTelemetry meter provider.
// Returns a MeterProvider that should be shut down on application exit.
func InitMeter(ctx context.Context, config MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(config.Endpoint),
	}
	if config.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(config.ServiceName, config.ServiceVersion, config.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	readerOpts := []sdkmetric.PeriodicReaderOption{}
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)
	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Metrics holds metric instruments for pipeline observability.
type Metrics struct {
	stageTotal     metric.Int64Counter
	stageDuration  metric.Float64Histogram
	stageActive    metric.Int64UpDownCounter
	cacheHitTotal  metric.Int64Counter
	cacheMissTotal metric.Int64Counter
	errorTotal     metric.Int64Counter
}

// NewMetrics creates metric instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	stageTotal, err := meter.Int64Counter("pipeline.stage.total",
		metric.WithDescription("Total number of stage executions"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating pipeline.stage.total counter: %w", err)
	}

	stageDuration, err := meter.Float64Histogram("pipeline.stage.duration",
		metric.WithDescription("Duration of stage executions in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating pipeline.stage.duration histogram: %w", err)
	}

	stageActive, err := meter.Int64UpDownCounter("pipeline.stage.active",
		metric.WithDescription("Number of currently running stages"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating pipeline.stage.active gauge: %w", err)
	}

	cacheHitTotal, err := meter.Int64Counter("pipeline.cache.hits",
		metric.WithDescription("Total pipeline cache hits"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating pipeline.cache.hits counter: %w", err)
	}

	cacheMissTotal, err := meter.Int64Counter("pipeline.cache.misses",
		metric.WithDescription("Total pipeline cache misses"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating pipeline.cache.misses counter: %w", err)
	}

	errorTotal, err := meter.Int64Counter("pipeline.error.total",
		metric.WithDescription("Total errors by type and capability"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating pipeline.error.total counter: %w", err)
	}

	return &Metrics{
		stageTotal:     stageTotal,
		stageDuration:  stageDuration,
		stageActive:    stageActive,
		cacheHitTotal:  cacheHitTotal,
		cacheMissTotal: cacheMissTotal,
		errorTotal:     errorTotal,
	}, nil
}

// RecordStageStart increments the active stage count.
func (m *Metrics) RecordStageStart(ctx context.Context) {
	m.stageActive.Add(ctx, 1)
}

// RecordStage records a completed stage execution.
func (m *Metrics) RecordStage(ctx context.Context, capability, status string, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("capability", capability),
		attribute.String("status", status),
	)
	m.stageActive.Add(ctx, -1)
	m.stageTotal.Add(ctx, 1, attrs)
	m.stageDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("capability", capability),
	))
}

// RecordCacheHit records a pipeline cache hit.
func (m *Metrics) RecordCacheHit(ctx context.Context, capability string) {
	m.cacheHitTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("capability", capability),
	))
}

// RecordCacheMiss records a pipeline cache miss.
func (m *Metrics) RecordCacheMiss(ctx context.Context, capability string) {
	m.cacheMissTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("capability", capability),
	))
}

// RecordError records an error by type and capability.
func (m *Metrics) RecordError(ctx context.Context, errType, capability string) {
	m.errorTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("type", errType),
		attribute.String("capability", capability),
	))
}
