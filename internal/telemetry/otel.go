package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	oteltrace "go.opentelemetry.io/otel/trace"
)

const ServiceName = "snapname"

// Init installs OTLP trace and metric providers exporting to endpoint.
// With an empty endpoint the global no-op providers stay in place and the
// returned shutdown does nothing.
func Init(ctx context.Context, endpoint, version string) (func(context.Context) error, error) {
	if endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			attribute.String("service.name", ServiceName),
			attribute.String("service.version", version),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	traceExporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	metricExporter, err := otlpmetricgrpc.New(ctx,
		otlpmetricgrpc.WithEndpoint(endpoint),
		otlpmetricgrpc.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create metric exporter: %w", err)
	}

	tp := trace.NewTracerProvider(
		trace.WithBatcher(traceExporter),
		trace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter,
			sdkmetric.WithInterval(30*time.Second))),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	slog.Debug("telemetry initialized", "otlp_endpoint", endpoint)

	return func(ctx context.Context) error {
		return errors.Join(tp.Shutdown(ctx), mp.Shutdown(ctx))
	}, nil
}

// Tracer returns the pipeline tracer from the global provider
func Tracer() oteltrace.Tracer {
	return otel.Tracer(ServiceName)
}

// Metrics holds the pipeline instruments
type Metrics struct {
	FilesProcessed    metric.Int64Counter
	ClipboardAttempts metric.Int64Counter
	Errors            metric.Int64Counter
	AnalysisDuration  metric.Float64Histogram
}

// NewMetrics creates the instruments on the global meter provider
func NewMetrics() (*Metrics, error) {
	return NewMetricsFrom(otel.Meter(ServiceName))
}

// NewMetricsFrom creates the instruments on the given meter
func NewMetricsFrom(meter metric.Meter) (*Metrics, error) {
	files, err := meter.Int64Counter("snapname_files_processed",
		metric.WithDescription("Images renamed or copied"))
	if err != nil {
		return nil, err
	}
	clip, err := meter.Int64Counter("snapname_clipboard_attempts",
		metric.WithDescription("Clipboard strategy attempts"))
	if err != nil {
		return nil, err
	}
	errs, err := meter.Int64Counter("snapname_errors",
		metric.WithDescription("Pipeline errors by stage"))
	if err != nil {
		return nil, err
	}
	dur, err := meter.Float64Histogram("snapname_analysis_duration_ms",
		metric.WithDescription("Analyzer call latency"),
		metric.WithUnit("ms"))
	if err != nil {
		return nil, err
	}
	return &Metrics{
		FilesProcessed:    files,
		ClipboardAttempts: clip,
		Errors:            errs,
		AnalysisDuration:  dur,
	}, nil
}

// RecordAnalysis records one analyzer call
func (m *Metrics) RecordAnalysis(ctx context.Context, provider string, elapsed time.Duration, success bool) {
	if m == nil {
		return
	}
	m.AnalysisDuration.Record(ctx, float64(elapsed.Milliseconds()),
		metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.Bool("success", success),
		))
}

// RecordFile counts one completed rename or copy
func (m *Metrics) RecordFile(ctx context.Context, mode string) {
	if m == nil {
		return
	}
	m.FilesProcessed.Add(ctx, 1, metric.WithAttributes(attribute.String("mode", mode)))
}

// RecordClipboard counts one clipboard strategy attempt
func (m *Metrics) RecordClipboard(ctx context.Context, strategy string, success bool) {
	if m == nil {
		return
	}
	m.ClipboardAttempts.Add(ctx, 1, metric.WithAttributes(
		attribute.String("strategy", strategy),
		attribute.Bool("success", success),
	))
}

// RecordError counts a failure at the given pipeline stage
func (m *Metrics) RecordError(ctx context.Context, stage string) {
	if m == nil {
		return
	}
	m.Errors.Add(ctx, 1, metric.WithAttributes(attribute.String("stage", stage)))
}
