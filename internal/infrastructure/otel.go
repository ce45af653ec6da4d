package infrastructure

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	ServiceName    = "freightbase"
	ServiceVersion = "1.0.0"
	MeterName      = "freightbase"
)

// OTelProviders holds the OpenTelemetry providers and the Prometheus
// handler serving the /metrics endpoint.
type OTelProviders struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Tracer         trace.Tracer
	Meter          metric.Meter
	PrometheusHTTP http.Handler
	Metrics        *Metrics
	Logger         *slog.Logger
}

// InitializeOTel sets up tracing (stdout exporter) and metrics (prometheus
// exporter) and registers the global providers.
func InitializeOTel(ctx context.Context, logger *slog.Logger) (*OTelProviders, error) {
	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(ServiceName),
		semconv.ServiceVersion(ServiceVersion),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	traceExporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}
	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tracerProvider)

	metricExporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create metric exporter: %w", err)
	}
	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(metricExporter),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(meterProvider)

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	meter := meterProvider.Meter(MeterName)
	metrics, err := newMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}

	logger.InfoContext(ctx, "OpenTelemetry initialized",
		slog.String("service", ServiceName),
		slog.String("version", ServiceVersion))

	return &OTelProviders{
		TracerProvider: tracerProvider,
		MeterProvider:  meterProvider,
		Tracer:         tracerProvider.Tracer(ServiceName),
		Meter:          meter,
		PrometheusHTTP: promhttp.Handler(),
		Metrics:        metrics,
		Logger:         logger,
	}, nil
}

// Shutdown flushes and stops the providers.
func (p *OTelProviders) Shutdown(ctx context.Context) error {
	if p == nil {
		return nil
	}
	var firstErr error
	if p.TracerProvider != nil {
		if err := p.TracerProvider.Shutdown(ctx); err != nil {
			firstErr = err
		}
	}
	if p.MeterProvider != nil {
		if err := p.MeterProvider.Shutdown(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Metrics carries the instrument set shared by the mapping and extraction
// components. It satisfies their Observer interfaces.
type Metrics struct {
	filesProcessed   metric.Int64Counter
	rowsExcluded     metric.Int64Counter
	mappingCacheHits metric.Int64Counter
	mappingCacheMiss metric.Int64Counter
}

func newMetrics(meter metric.Meter) (*Metrics, error) {
	filesProcessed, err := meter.Int64Counter("freightbase.files.processed",
		metric.WithDescription("Workbooks processed by the extraction engine"))
	if err != nil {
		return nil, err
	}
	rowsExcluded, err := meter.Int64Counter("freightbase.rows.excluded_as_totals",
		metric.WithDescription("Rows excluded as total-row artifacts"))
	if err != nil {
		return nil, err
	}
	cacheHits, err := meter.Int64Counter("freightbase.mapping.cache_hits",
		metric.WithDescription("Header resolutions served by the mapping store"))
	if err != nil {
		return nil, err
	}
	cacheMiss, err := meter.Int64Counter("freightbase.mapping.cache_misses",
		metric.WithDescription("Header resolutions that fell through to fuzzy matching"))
	if err != nil {
		return nil, err
	}
	return &Metrics{
		filesProcessed:   filesProcessed,
		rowsExcluded:     rowsExcluded,
		mappingCacheHits: cacheHits,
		mappingCacheMiss: cacheMiss,
	}, nil
}

// FileProcessed records one engine outcome.
func (m *Metrics) FileProcessed(ctx context.Context, vendor string, status string) {
	m.filesProcessed.Add(ctx, 1, metric.WithAttributes(
		attribute.String("vendor", vendor),
		attribute.String("status", status),
	))
}

// RowsExcluded records total-row exclusions for one tab.
func (m *Metrics) RowsExcluded(ctx context.Context, count int) {
	if count > 0 {
		m.rowsExcluded.Add(ctx, int64(count))
	}
}

// MappingCacheHit records a store hit by scope.
func (m *Metrics) MappingCacheHit(ctx context.Context, scope string) {
	m.mappingCacheHits.Add(ctx, 1, metric.WithAttributes(attribute.String("scope", scope)))
}

// MappingCacheMiss records a store miss.
func (m *Metrics) MappingCacheMiss(ctx context.Context) {
	m.mappingCacheMiss.Add(ctx, 1)
}
