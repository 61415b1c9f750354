package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/GravO8/mrs-dl/internal/config"
	"github.com/GravO8/mrs-dl/internal/dataset"
	"github.com/GravO8/mrs-dl/internal/infrastructure"
	"github.com/GravO8/mrs-dl/internal/middleware"
	"github.com/GravO8/mrs-dl/internal/preprocessing"
	"github.com/GravO8/mrs-dl/internal/registry"
	handlers "github.com/GravO8/mrs-dl/internal/transport/http"
	"github.com/GravO8/mrs-dl/pkg/contracts"
)

// ShutdownTimeout bounds the telemetry server and provider shutdown
const ShutdownTimeout = 10 * time.Second

// Application holds the components shared by the commands
type Application struct {
	Config        *config.Config
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.ExperimentMetrics
	Registry      *registry.Registry
	Preprocessor  *preprocessing.Preprocessor
	Server        *http.Server
}

// New loads the configuration at configPath and initializes logging,
// telemetry, the registry and the preprocessor
func New(configPath string) (*Application, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	return NewWithConfig(cfg)
}

// NewWithConfig is New with an already loaded configuration
func NewWithConfig(cfg *config.Config) (*Application, error) {
	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	providers, err := infrastructure.InitializeOTel(infrastructure.OTelConfigFromConfig(cfg.Telemetry), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	metrics, err := infrastructure.CreateExperimentMetrics(providers.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create experiment metrics: %w", err)
	}

	reg := registry.Default()
	if cfg.Dataset.RegistryFile != "" {
		reg, err = registry.LoadFile(cfg.Dataset.RegistryFile, reg)
		if err != nil {
			return nil, err
		}
	}

	logger.Info("Application initialized",
		slog.String("version", contracts.GetVersionString()),
		slog.String("registry_file", cfg.Dataset.RegistryFile),
		slog.String("trace_exporter", cfg.Telemetry.TraceExporter),
		slog.String("metric_exporter", cfg.Telemetry.MetricExporter))

	return &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: providers,
		Metrics:       metrics,
		Registry:      reg,
		Preprocessor:  preprocessing.NewPreprocessor(logger, reg, metrics),
	}, nil
}

// LoadDataset reads, preprocesses and splits the configured dataset
func (a *Application) LoadDataset(ctx context.Context) (*dataset.Loader, error) {
	return dataset.LoadFile(ctx, a.Logger, a.Preprocessor, dataset.OptionsFromConfig(a.Config.Dataset))
}

// StartTelemetryServer serves the status and metrics endpoints when
// Telemetry.MetricsAddr is set. Serve errors are logged and cancel the run.
func (a *Application) StartTelemetryServer(ctx context.Context, cancel context.CancelFunc, status *handlers.StatusHandler) {
	addr := a.Config.Telemetry.MetricsAddr
	if addr == "" {
		return
	}

	tracing, err := middleware.NewOTelMiddleware(a.OTelProviders)
	if err != nil {
		a.Logger.WarnContext(ctx, "Request tracing disabled", slog.String("error", err.Error()))
	}

	a.Server = handlers.NewServer(addr, handlers.NewRouter(a.Logger, status, a.OTelProviders.PrometheusHTTP, tracing))
	go func() {
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.ErrorContext(ctx, "Telemetry server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	a.Logger.InfoContext(ctx, "Telemetry server started",
		slog.String("address", addr),
		slog.Bool("metrics", a.OTelProviders.PrometheusHTTP != nil))
}

// Close stops the telemetry server, flushes the providers and closes the log file
func (a *Application) Close(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, ShutdownTimeout)
	defer cancel()

	var errs []error
	if a.Server != nil {
		if err := a.Server.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("server shutdown error: %w", err))
		}
	}
	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}
	if err := infrastructure.CloseLogFile(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
