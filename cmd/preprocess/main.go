package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/GravO8/mrs-dl/internal/app"
	"github.com/GravO8/mrs-dl/internal/config"
	"github.com/GravO8/mrs-dl/internal/dataset"
	apperrors "github.com/GravO8/mrs-dl/internal/errors"
	"github.com/GravO8/mrs-dl/internal/infrastructure"
	"github.com/GravO8/mrs-dl/internal/preprocessing"
	"github.com/GravO8/mrs-dl/internal/table"
)

func main() {
	configPath := flag.String("config", "", "path to the YAML configuration (defaults to the usual locations)")
	dataPath := flag.String("data", "", "trial table to preprocess (overrides dataset.path)")
	outPath := flag.String("out", "preprocessed.csv", "CSV file to write")
	stage := flag.String("stage", "", "keep stage (overrides dataset.keep_stage)")
	outliers := flag.Bool("outliers", false, "also remove out-of-range values")
	bom := flag.Bool("bom", false, "prefix the CSV with a UTF-8 BOM for Excel")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configPath, *dataPath, *outPath, *stage, *outliers, *bom); err != nil {
		slog.Error("Preprocessing failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath, dataPath, outPath, stage string, outliers, bom bool) error {
	application, err := app.New(configPath)
	if err != nil {
		return err
	}
	defer application.Close(context.Background())

	cfg := application.Config
	if dataPath != "" {
		cfg.Dataset.Path = dataPath
	}
	if stage != "" {
		cfg.Dataset.KeepStage = stage
		cfg.Dataset.KeepColumns = nil
	}
	if cfg.Dataset.Path == "" {
		return apperrors.NewConfigError("no dataset path given", nil)
	}
	logger := infrastructure.WithComponent(application.Logger, "preprocess")
	ctx = infrastructure.EnsureTraceID(ctx)

	raw, err := dataset.ReadTable(cfg.Dataset.Path, cfg.Dataset.MissingMarkers)
	if err != nil {
		return err
	}

	opts := dataset.OptionsFromConfig(cfg.Dataset)
	res, err := application.Preprocessor.Preprocess(ctx, raw, opts.Preprocess)
	if err != nil {
		return err
	}
	t := res.Table
	report := res.Report
	if outliers || cfg.Dataset.RemoveOutliers {
		var state *preprocessing.StageState
		t, state, err = application.Preprocessor.RemoveOutliers(ctx, t)
		if err != nil {
			return err
		}
		report.Stages = append(report.Stages, state)
	}

	out, err := t.Select(outputColumns(t, res.KeepColumns, cfg.Dataset))
	if err != nil {
		return apperrors.NewDataError("failed to select output columns", err)
	}
	if err := dataset.WriteTable(outPath, out, dataset.WriteOptions{BOMPrefix: bom}); err != nil {
		return err
	}

	for _, s := range report.Stages {
		logger.InfoContext(ctx, "Stage summary",
			slog.String("stage", s.ID),
			slog.String("status", string(s.Status)),
			slog.Int("nullified", s.NullifiedTotal()),
			slog.Duration("duration", s.Duration()))
	}
	logger.InfoContext(ctx, "Preprocessed table written",
		slog.String("path", outPath),
		slog.Int("rows", out.NumRows()),
		slog.Int("columns", out.NumColumns()))
	return nil
}

// outputColumns keeps the requested covariates still present plus the label
// and set columns so the output can be fed back to the loader
func outputColumns(t *table.Table, keep []string, cfg config.DatasetConfig) []string {
	seen := make(map[string]bool)
	var cols []string
	add := func(name string) {
		if name == "" || seen[name] || !t.Has(name) {
			return
		}
		seen[name] = true
		cols = append(cols, name)
	}
	for _, c := range keep {
		add(c)
	}
	add(cfg.TargetColumn)
	add(cfg.SetColumn)
	return cols
}
