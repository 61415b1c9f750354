package infrastructure

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/GravO8/mrs-dl/internal/config"
)

const (
	ServiceName = "mrs-dl"
	MeterName   = "mrs-dl"
)

// OTelConfig holds OpenTelemetry configuration
type OTelConfig struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	TraceExporter  string // "stdout", "none"
	MetricExporter string // "prometheus", "none"
	EnableMetrics  bool
	EnableTracing  bool
	SampleRatio    float64
}

// OTelProviders holds the OpenTelemetry providers
type OTelProviders struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Tracer         trace.Tracer
	Meter          metric.Meter
	PrometheusHTTP http.Handler
	Logger         *slog.Logger
}

// DefaultOTelConfig returns a configuration with both signals switched off.
// Batch runs opt in from the telemetry config section.
func DefaultOTelConfig() *OTelConfig {
	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	return &OTelConfig{
		ServiceName:    ServiceName,
		ServiceVersion: "dev",
		Environment:    env,
		TraceExporter:  "none",
		MetricExporter: "none",
		SampleRatio:    1.0,
	}
}

// InitializeOTel initializes the tracer and meter providers. Disabled signals
// fall back to no-op implementations so callers never nil-check.
func InitializeOTel(cfg *OTelConfig, logger *slog.Logger) (*OTelProviders, error) {
	if cfg == nil {
		cfg = DefaultOTelConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx := context.Background()

	logger.InfoContext(ctx, "Initializing OpenTelemetry",
		slog.String("service", cfg.ServiceName),
		slog.String("version", cfg.ServiceVersion),
		slog.String("environment", cfg.Environment),
		slog.Bool("tracing_enabled", cfg.EnableTracing),
		slog.Bool("metrics_enabled", cfg.EnableMetrics))

	res, err := createResource(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	providers := &OTelProviders{
		Tracer: tracenoop.NewTracerProvider().Tracer(MeterName),
		Meter:  noop.NewMeterProvider().Meter(MeterName),
		Logger: logger,
	}

	if cfg.EnableTracing {
		if err := initializeTracing(ctx, cfg, res, providers); err != nil {
			return nil, fmt.Errorf("failed to initialize tracing: %w", err)
		}
	}

	if cfg.EnableMetrics {
		if err := initializeMetrics(ctx, cfg, res, providers); err != nil {
			return nil, fmt.Errorf("failed to initialize metrics: %w", err)
		}
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return providers, nil
}

func createResource(cfg *OTelConfig) (*resource.Resource, error) {
	return resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
		semconv.DeploymentEnvironmentName(cfg.Environment),
		attribute.String("service.instance.id", generateInstanceID()),
	), nil
}

func initializeTracing(ctx context.Context, cfg *OTelConfig, res *resource.Resource, providers *OTelProviders) error {
	var exporter sdktrace.SpanExporter
	var err error

	switch cfg.TraceExporter {
	case "stdout":
		exporter, err = stdouttrace.New(
			stdouttrace.WithPrettyPrint(),
		)
	case "none":
		return nil
	default:
		return fmt.Errorf("unsupported trace exporter: %s", cfg.TraceExporter)
	}

	if err != nil {
		return fmt.Errorf("failed to create trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.TraceIDRatioBased(cfg.SampleRatio)),
	)

	providers.TracerProvider = tp
	providers.Tracer = tp.Tracer(MeterName, trace.WithInstrumentationVersion(cfg.ServiceVersion))

	otel.SetTracerProvider(tp)

	providers.Logger.InfoContext(ctx, "Tracing initialized",
		slog.String("exporter", cfg.TraceExporter),
		slog.Float64("sample_ratio", cfg.SampleRatio))

	return nil
}

func initializeMetrics(ctx context.Context, cfg *OTelConfig, res *resource.Resource, providers *OTelProviders) error {
	switch cfg.MetricExporter {
	case "prometheus":
		exporter, err := prometheus.New()
		if err != nil {
			return fmt.Errorf("failed to create prometheus exporter: %w", err)
		}

		providers.PrometheusHTTP = promhttp.Handler()

		mp := sdkmetric.NewMeterProvider(
			sdkmetric.WithResource(res),
			sdkmetric.WithReader(exporter),
		)

		providers.MeterProvider = mp
		providers.Meter = mp.Meter(MeterName, metric.WithInstrumentationVersion(cfg.ServiceVersion))

		otel.SetMeterProvider(mp)

	case "none":
		return nil
	default:
		return fmt.Errorf("unsupported metric exporter: %s", cfg.MetricExporter)
	}

	providers.Logger.InfoContext(ctx, "Metrics initialized",
		slog.String("exporter", cfg.MetricExporter))

	return nil
}

// ExperimentMetrics holds the instruments recorded by preprocessing and the fold driver
type ExperimentMetrics struct {
	FoldsTotal         metric.Int64Counter
	EvaluationsTotal   metric.Int64Counter
	EvaluationDuration metric.Float64Histogram
	EvaluationErrors   metric.Int64Counter
	ValuesNullified    metric.Int64Counter
	StageDuration      metric.Float64Histogram
}

// CreateExperimentMetrics registers the application instruments on meter
func CreateExperimentMetrics(meter metric.Meter) (*ExperimentMetrics, error) {
	foldsTotal, err := meter.Int64Counter(
		"experiment_folds_total",
		metric.WithDescription("Total number of cross-validation folds completed"),
	)
	if err != nil {
		return nil, err
	}

	evaluationsTotal, err := meter.Int64Counter(
		"experiment_evaluations_total",
		metric.WithDescription("Total number of feature-set evaluations"),
	)
	if err != nil {
		return nil, err
	}

	evaluationDuration, err := meter.Float64Histogram(
		"experiment_evaluation_duration_seconds",
		metric.WithDescription("Fit and evaluate duration per configuration and fold"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	evaluationErrors, err := meter.Int64Counter(
		"experiment_evaluation_errors_total",
		metric.WithDescription("Total number of failed evaluations"),
	)
	if err != nil {
		return nil, err
	}

	valuesNullified, err := meter.Int64Counter(
		"preprocessing_values_nullified_total",
		metric.WithDescription("Observed values replaced by missing during preprocessing"),
	)
	if err != nil {
		return nil, err
	}

	stageDuration, err := meter.Float64Histogram(
		"preprocessing_stage_duration_seconds",
		metric.WithDescription("Preprocessing stage duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &ExperimentMetrics{
		FoldsTotal:         foldsTotal,
		EvaluationsTotal:   evaluationsTotal,
		EvaluationDuration: evaluationDuration,
		EvaluationErrors:   evaluationErrors,
		ValuesNullified:    valuesNullified,
		StageDuration:      stageDuration,
	}, nil
}

// NoopExperimentMetrics returns instruments that record nothing
func NoopExperimentMetrics() *ExperimentMetrics {
	m, _ := CreateExperimentMetrics(noop.NewMeterProvider().Meter(MeterName))
	return m
}

// Shutdown flushes and stops the providers
func (p *OTelProviders) Shutdown(ctx context.Context) error {
	var errs []error

	if p.TracerProvider != nil {
		if err := p.TracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider shutdown: %w", err))
		}
	}

	if p.MeterProvider != nil {
		if err := p.MeterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider shutdown: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("opentelemetry shutdown errors: %v", errs)
	}

	p.Logger.InfoContext(ctx, "OpenTelemetry shutdown complete")
	return nil
}

func generateInstanceID() string {
	hostname, _ := os.Hostname()
	return fmt.Sprintf("%s-%d", hostname, time.Now().Unix())
}

// TraceIDFromContext extracts the span trace id for log correlation
func TraceIDFromContext(ctx context.Context) string {
	spanCtx := trace.SpanContextFromContext(ctx)
	if spanCtx.IsValid() {
		return spanCtx.TraceID().String()
	}
	return ""
}

// RecordError records an error on the current span
func RecordError(ctx context.Context, err error, options ...trace.EventOption) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	span.RecordError(err, options...)
	span.SetStatus(codes.Error, err.Error())
}

// RecordNullified adds n nullified values for a stage/column pair
func RecordNullified(ctx context.Context, metrics *ExperimentMetrics, stage, column string, n int) {
	if metrics == nil || n == 0 {
		return
	}
	metrics.ValuesNullified.Add(ctx, int64(n), metric.WithAttributes(
		attribute.String("stage", stage),
		attribute.String("column", column),
	))
}

// RecordEvaluation records one fit+evaluate of a configuration
func RecordEvaluation(ctx context.Context, metrics *ExperimentMetrics, config string, fold int, duration time.Duration, err error) {
	if metrics == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("config", config),
	}

	metrics.EvaluationsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))

	statusAttr := attribute.String("status", "success")
	if err != nil {
		statusAttr = attribute.String("status", "failure")
		metrics.EvaluationErrors.Add(ctx, 1, metric.WithAttributes(append(attrs,
			attribute.String("error.type", fmt.Sprintf("%T", err)))...))
	}
	metrics.EvaluationDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(append(attrs, statusAttr)...))

	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.AddEvent("experiment.evaluation_recorded",
			trace.WithAttributes(
				attribute.String("config", config),
				attribute.Int("fold", fold),
				attribute.Bool("success", err == nil),
				attribute.Float64("duration_seconds", duration.Seconds()),
			),
		)
	}
}

// RecordStage records a preprocessing stage duration
func RecordStage(ctx context.Context, metrics *ExperimentMetrics, stage string, duration time.Duration, err error) {
	if metrics == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "failure"
	}
	metrics.StageDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("stage", stage),
		attribute.String("status", status),
	))
}

// RecordFold counts one completed cross-validation fold
func RecordFold(ctx context.Context, metrics *ExperimentMetrics, fold int) {
	if metrics == nil {
		return
	}
	metrics.FoldsTotal.Add(ctx, 1)

	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.AddEvent("experiment.fold_completed", trace.WithAttributes(attribute.Int("fold", fold)))
	}
}

// OTelConfigFromConfig enables each signal whose exporter is not "none"
func OTelConfigFromConfig(cfg config.TelemetryConfig) *OTelConfig {
	c := DefaultOTelConfig()
	if cfg.Environment != "" {
		c.Environment = cfg.Environment
	}
	if cfg.TraceExporter != "" {
		c.TraceExporter = cfg.TraceExporter
	}
	if cfg.MetricExporter != "" {
		c.MetricExporter = cfg.MetricExporter
	}
	c.EnableTracing = c.TraceExporter != "none"
	c.EnableMetrics = c.MetricExporter != "none"
	return c
}
