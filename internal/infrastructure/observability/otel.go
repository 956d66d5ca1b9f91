package observability

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/zatekoja/fellowship/backend"

// Metrics holds all application metrics
type Metrics struct {
	RequestCount      metric.Int64Counter
	RequestDuration   metric.Float64Histogram
	PipelineOutcomes  metric.Int64Counter
	ScriptureLookups  metric.Int64Counter
	GenerationCount   metric.Int64Counter
	GenerationLatency metric.Float64Histogram
	GenerationErrors  metric.Int64Counter
}

var (
	metricsOnce sync.Once
	metrics     *Metrics
	metricsErr  error
)

// Setup initializes OpenTelemetry trace and metric export over OTLP gRPC
func Setup(ctx context.Context, serviceName, serviceVersion, endpoint string) (func(context.Context) error, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			attribute.String("service.name", serviceName),
			attribute.String("service.version", serviceVersion),
		),
	)
	if err != nil {
		return nil, err
	}

	traceExporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tracerProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	metricExporter, err := otlpmetricgrpc.New(ctx,
		otlpmetricgrpc.WithEndpoint(endpoint),
		otlpmetricgrpc.WithInsecure(),
	)
	if err != nil {
		_ = tracerProvider.Shutdown(ctx)
		return nil, err
	}

	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(meterProvider)

	if err := runtime.Start(runtime.WithMinimumReadMemStatsInterval(15 * time.Second)); err != nil {
		_ = tracerProvider.Shutdown(ctx)
		_ = meterProvider.Shutdown(ctx)
		return nil, err
	}

	shutdown := func(ctx context.Context) error {
		return errors.Join(
			tracerProvider.Shutdown(ctx),
			meterProvider.Shutdown(ctx),
		)
	}

	return shutdown, nil
}

// InitMetrics initializes application metrics against the global meter
// provider. It is safe to call more than once.
func InitMetrics() (*Metrics, error) {
	metricsOnce.Do(func() {
		metrics, metricsErr = newMetrics(otel.Meter(instrumentationName))
	})
	return metrics, metricsErr
}

func newMetrics(meter metric.Meter) (*Metrics, error) {
	requestCount, err := meter.Int64Counter(
		"http.server.request.count",
		metric.WithDescription("Number of HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	requestDuration, err := meter.Float64Histogram(
		"http.server.request.duration",
		metric.WithDescription("HTTP request duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	pipelineOutcomes, err := meter.Int64Counter(
		"verse.enrichment.outcome.count",
		metric.WithDescription("Verse enrichment runs by final status"),
	)
	if err != nil {
		return nil, err
	}

	scriptureLookups, err := meter.Int64Counter(
		"scripture.provider.lookup.count",
		metric.WithDescription("Verse text lookups by provider and result"),
	)
	if err != nil {
		return nil, err
	}

	generationCount, err := meter.Int64Counter(
		"ai.generation.request.count",
		metric.WithDescription("Number of generative provider requests"),
	)
	if err != nil {
		return nil, err
	}

	generationLatency, err := meter.Float64Histogram(
		"ai.generation.request.duration",
		metric.WithDescription("Generative provider request duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	generationErrors, err := meter.Int64Counter(
		"ai.generation.request.errors",
		metric.WithDescription("Number of failed generative provider requests"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		RequestCount:      requestCount,
		RequestDuration:   requestDuration,
		PipelineOutcomes:  pipelineOutcomes,
		ScriptureLookups:  scriptureLookups,
		GenerationCount:   generationCount,
		GenerationLatency: generationLatency,
		GenerationErrors:  generationErrors,
	}, nil
}

// StartSpan starts a new trace span
func StartSpan(ctx context.Context, spanName string) (context.Context, trace.Span) {
	tracer := otel.Tracer(instrumentationName)
	return tracer.Start(ctx, spanName)
}

// RecordError records an error in the current span
func RecordError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
	}
}

// SetSpanAttributes sets attributes on a span
func SetSpanAttributes(span trace.Span, attrs ...attribute.KeyValue) {
	span.SetAttributes(attrs...)
}

// RecordRequestMetric records an HTTP request
func RecordRequestMetric(ctx context.Context, m *Metrics, method, path string, statusCode int, duration time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("http.method", method),
		attribute.String("http.route", path),
		attribute.Int("http.status_code", statusCode),
	)

	m.RequestCount.Add(ctx, 1, attrs)
	m.RequestDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
}

// RecordPipelineOutcome counts a finished enrichment run by status
func RecordPipelineOutcome(ctx context.Context, status string) {
	m, err := InitMetrics()
	if err != nil {
		return
	}
	m.PipelineOutcomes.Add(ctx, 1, metric.WithAttributes(attribute.String("verse.status", status)))
}

// RecordScriptureLookup counts one text provider attempt
func RecordScriptureLookup(ctx context.Context, provider string, ok bool) {
	m, err := InitMetrics()
	if err != nil {
		return
	}
	m.ScriptureLookups.Add(ctx, 1, metric.WithAttributes(
		attribute.String("scripture.provider", provider),
		attribute.Bool("scripture.found", ok),
	))
}

// RecordGenerationMetric records one generative provider request
func RecordGenerationMetric(ctx context.Context, provider, model string, statusCode int, duration time.Duration, err error) {
	m, initErr := InitMetrics()
	if initErr != nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("ai.provider", provider),
		attribute.String("ai.model", model),
	}
	if statusCode > 0 {
		attrs = append(attrs, attribute.Int("http.status_code", statusCode))
	}

	m.GenerationCount.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.GenerationLatency.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
	if err != nil {
		m.GenerationErrors.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}
