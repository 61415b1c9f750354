package infrastructure

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/GravO8/mrs-dl/internal/config"
)

func TestOTelInitializationDisabled(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	providers, err := InitializeOTel(nil, logger)
	require.NoError(t, err)

	assert.Nil(t, providers.TracerProvider)
	assert.Nil(t, providers.MeterProvider)
	assert.NotNil(t, providers.Tracer, "disabled tracing still hands out a no-op tracer")
	assert.NotNil(t, providers.Meter)
	assert.Nil(t, providers.PrometheusHTTP)

	require.NoError(t, providers.Shutdown(context.Background()))
}

func TestOTelUnsupportedExporter(t *testing.T) {
	cfg := DefaultOTelConfig()
	cfg.EnableTracing = true
	cfg.TraceExporter = "jaeger"

	_, err := InitializeOTel(cfg, nil)
	assert.Error(t, err)
}

func TestExperimentMetricsRecording(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer mp.Shutdown(context.Background())

	metrics, err := CreateExperimentMetrics(mp.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	RecordEvaluation(ctx, metrics, "LR_2vars", 0, 10*time.Millisecond, nil)
	RecordEvaluation(ctx, metrics, "LR_2vars", 1, 10*time.Millisecond, errors.New("diverged"))
	RecordNullified(ctx, metrics, "outliers", "age", 4)
	RecordNullified(ctx, metrics, "outliers", "age", 0)
	RecordFold(ctx, metrics, 1)
	RecordFold(ctx, metrics, 2)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	sums := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if sum, ok := m.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range sum.DataPoints {
					sums[m.Name] += dp.Value
				}
			}
		}
	}

	assert.Equal(t, int64(2), sums["experiment_evaluations_total"])
	assert.Equal(t, int64(1), sums["experiment_evaluation_errors_total"])
	assert.Equal(t, int64(4), sums["preprocessing_values_nullified_total"])
	assert.Equal(t, int64(2), sums["experiment_folds_total"])
}

func TestRecordHelpersTolerateNilMetrics(t *testing.T) {
	assert.NotPanics(t, func() {
		RecordEvaluation(context.Background(), nil, "x", 0, time.Second, nil)
		RecordNullified(context.Background(), nil, "s", "c", 1)
		RecordStage(context.Background(), nil, "s", time.Second, nil)
		RecordFold(context.Background(), nil, 1)
	})
	assert.NotNil(t, NoopExperimentMetrics())
}

func TestOTelConfigFromConfig(t *testing.T) {
	cfg := OTelConfigFromConfig(config.TelemetryConfig{TraceExporter: "none", MetricExporter: "prometheus", Environment: "test"})
	assert.False(t, cfg.EnableTracing)
	assert.True(t, cfg.EnableMetrics)
	assert.Equal(t, "test", cfg.Environment)

	cfg = OTelConfigFromConfig(config.Default().Telemetry)
	assert.False(t, cfg.EnableTracing)
	assert.False(t, cfg.EnableMetrics)
}
