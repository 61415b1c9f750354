package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/GravO8/mrs-dl/internal/app"
	"github.com/GravO8/mrs-dl/internal/classifier"
	"github.com/GravO8/mrs-dl/internal/experiment"
	"github.com/GravO8/mrs-dl/internal/infrastructure"
	"github.com/GravO8/mrs-dl/internal/results"
	handlers "github.com/GravO8/mrs-dl/internal/transport/http"
)

func main() {
	configPath := flag.String("config", "", "path to the YAML configuration (defaults to the usual locations)")
	dataPath := flag.String("data", "", "trial table to load (overrides dataset.path)")
	outDir := flag.String("out", "", "results directory (overrides experiment.results_dir)")
	plotMetric := flag.String("plot-metric", "", "metric drawn in the fold plot (defaults to experiment.metric)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, stop, *configPath, *dataPath, *outDir, *plotMetric); err != nil {
		slog.Error("Paired experiment failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cancel context.CancelFunc, configPath, dataPath, outDir, plotMetric string) error {
	application, err := app.New(configPath)
	if err != nil {
		return err
	}
	defer application.Close(context.Background())

	cfg := application.Config
	if dataPath != "" {
		cfg.Dataset.Path = dataPath
	}
	if outDir != "" {
		cfg.Experiment.ResultsDir = outDir
	}
	if plotMetric == "" {
		plotMetric = cfg.Experiment.Metric
	}
	logger := infrastructure.WithComponent(application.Logger, "pairedttest")

	ctx = infrastructure.EnsureTraceID(ctx)
	runID := infrastructure.GetTraceID(ctx)

	data, err := application.LoadDataset(ctx)
	if err != nil {
		return err
	}

	store := experiment.NewStore()
	application.StartTelemetryServer(ctx, cancel, handlers.NewStatusHandler(application.Logger, runID, store))

	runLog, err := results.OpenRunLog(application.Logger, filepath.Join(cfg.Experiment.ResultsDir, results.RunLogName))
	if err != nil {
		return err
	}
	defer runLog.Close()

	var reference experiment.ReferenceScorer
	if cfg.Experiment.Reference {
		reference = classifier.NewASTRALScorer()
	}

	driver, err := experiment.NewDriver(
		application.Logger,
		classifier.NewLogisticEvaluator(application.Logger, nil),
		reference,
		results.Recorders{runLog, results.NewLogRecorder(application.Logger)},
		application.Metrics,
		experiment.OptionsFromConfig(cfg.Experiment, cfg.Dataset.EmptyValues),
	)
	if err != nil {
		return err
	}

	runErr := driver.RunInto(ctx, data, store)
	if store.Len() == 0 {
		return runErr
	}

	// partial runs still get their reports
	workbook := filepath.Join(cfg.Experiment.ResultsDir, results.WorkbookName)
	if err := results.WriteWorkbook(workbook, store); err != nil {
		logger.ErrorContext(ctx, "Failed to write workbook", slog.String("error", err.Error()))
	}
	plot := filepath.Join(cfg.Experiment.ResultsDir, results.PlotName)
	if err := results.PlotMetric(plot, store, plotMetric); err != nil {
		logger.ErrorContext(ctx, "Failed to plot fold metrics", slog.String("error", err.Error()))
	}

	summaries, err := results.Summarize(store, cfg.Experiment.Metric)
	if err != nil {
		return err
	}
	for _, s := range summaries {
		logger.InfoContext(ctx, "Configuration summary",
			slog.String("config", s.Config),
			slog.String("metric", cfg.Experiment.Metric),
			slog.Int("folds", s.Folds),
			slog.Float64("mean", s.Mean),
			slog.Float64("std", s.Std),
			slog.Float64("min", s.Min),
			slog.Float64("max", s.Max))
	}

	logger.InfoContext(ctx, "Results written",
		slog.String("run_log", runLog.Path()),
		slog.String("workbook", workbook),
		slog.String("plot", plot),
		slog.Int("records", store.Len()))
	return runErr
}
