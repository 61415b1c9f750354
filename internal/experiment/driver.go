package experiment

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/GravO8/mrs-dl/internal/classifier"
	"github.com/GravO8/mrs-dl/internal/config"
	"github.com/GravO8/mrs-dl/internal/dataset"
	apperrors "github.com/GravO8/mrs-dl/internal/errors"
	"github.com/GravO8/mrs-dl/internal/features"
	"github.com/GravO8/mrs-dl/internal/folds"
	"github.com/GravO8/mrs-dl/internal/infrastructure"
	"github.com/GravO8/mrs-dl/pkg/contracts/domain"
)

// TracerName is the instrumentation scope of experiment spans
const TracerName = "mrs-dl.experiment"

// Evaluator tunes and fits a classifier on the train subset of data
type Evaluator interface {
	Fit(ctx context.Context, data dataset.DataAccess, budget domain.SearchBudget) (classifier.Model, error)
}

// ReferenceScorer is a fixed clinical score evaluated on unnormalized columns
type ReferenceScorer interface {
	Name() string
	Columns() []string
	Fit(ctx context.Context, data dataset.DataAccess) (classifier.Model, error)
}

// Recorder persists performance records as they are produced. Record may be
// called from several goroutines when Parallelism > 1.
type Recorder interface {
	Record(ctx context.Context, rec domain.PerformanceRecord) error
}

// Options configures one paired cross-validation run
type Options struct {
	Folds       int
	FeatureSets []domain.FeatureSet
	Budget      domain.SearchBudget
	// RunPrefix names records <prefix>-<config>-<fold> under run runs-<prefix>-<config>
	RunPrefix string
	// Missing tags records with the empty-value policy of the dataset
	Missing     string
	Parallelism int
}

// OptionsFromConfig maps the experiment configuration onto driver options
func OptionsFromConfig(cfg config.ExperimentConfig, missing string) Options {
	return Options{
		Folds:       cfg.Folds,
		FeatureSets: FeatureSetsFromConfig(cfg.FeatureSets),
		Budget: domain.SearchBudget{
			Iterations: cfg.SearchIterations,
			InnerFolds: cfg.InnerFolds,
			Metric:     cfg.Metric,
			Seed:       cfg.Seed,
		},
		RunPrefix:   cfg.RunPrefix,
		Missing:     missing,
		Parallelism: cfg.Parallelism,
	}
}

// Driver runs the outer stratified folds and, per fold, every feature-set
// configuration plus the reference scorer
type Driver struct {
	logger    *slog.Logger
	evaluator Evaluator
	reference ReferenceScorer
	recorder  Recorder
	metrics   *infrastructure.ExperimentMetrics
	tracer    trace.Tracer
	opts      Options
}

// NewDriver validates opts and creates a driver. reference, recorder and
// metrics may be nil.
func NewDriver(logger *slog.Logger, evaluator Evaluator, reference ReferenceScorer, recorder Recorder, metrics *infrastructure.ExperimentMetrics, opts Options) (*Driver, error) {
	if evaluator == nil {
		return nil, apperrors.NewConfigError("experiment driver needs an evaluator", nil)
	}
	if opts.Folds < 2 {
		return nil, apperrors.NewConfigError("at least 2 folds are required", nil).WithContext("folds", opts.Folds)
	}
	if len(opts.FeatureSets) == 0 {
		return nil, apperrors.NewConfigError("no feature sets configured", nil)
	}
	seen := make(map[string]bool, len(opts.FeatureSets)+1)
	if reference != nil {
		seen[reference.Name()] = true
	}
	for _, fs := range opts.FeatureSets {
		if fs.Name == "" || len(fs.Columns) == 0 {
			return nil, apperrors.NewConfigError("feature set needs a name and columns", nil).WithContext("feature_set", fs.Name)
		}
		if seen[fs.Name] {
			return nil, apperrors.NewConfigError("duplicate feature set name", nil).WithContext("feature_set", fs.Name)
		}
		seen[fs.Name] = true
	}
	if opts.Parallelism < 1 {
		opts.Parallelism = 1
	}
	if opts.RunPrefix == "" {
		opts.RunPrefix = config.DefaultRunPrefix
	}

	return &Driver{
		logger:    infrastructure.WithComponent(logger, "experiment"),
		evaluator: evaluator,
		reference: reference,
		recorder:  recorder,
		metrics:   metrics,
		tracer:    otel.Tracer(TracerName),
		opts:      opts,
	}, nil
}

// ExperimentName returns <prefix>-<config>
func (d *Driver) ExperimentName(config string) string {
	return fmt.Sprintf("%s-%s", d.opts.RunPrefix, config)
}

// Run loads the train subset of data once and evaluates every configuration
// on every fold. The returned store holds the records produced before any
// failure.
func (d *Driver) Run(ctx context.Context, data dataset.DataAccess) (*Store, error) {
	store := NewStore()
	return store, d.RunInto(ctx, data, store)
}

// RunInto is Run recording into a caller-owned store, which can be read
// while the run progresses
func (d *Driver) RunInto(ctx context.Context, data dataset.DataAccess, store *Store) error {
	ctx = infrastructure.EnsureTraceID(ctx)
	ctx, span := d.tracer.Start(ctx, "experiment.run",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("experiment.run_id", infrastructure.GetTraceID(ctx)),
			attribute.Int("experiment.folds", d.opts.Folds),
			attribute.Int("experiment.feature_sets", len(d.opts.FeatureSets)),
		),
	)
	defer span.End()

	start := time.Now()

	x, y, err := data.Set(dataset.SetTrain)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		return err
	}
	if err := d.checkColumns(x); err != nil {
		infrastructure.RecordError(ctx, err)
		return err
	}

	splits, err := folds.StratifiedKFold{NSplits: d.opts.Folds}.Split(y)
	if err != nil {
		err = apperrors.NewDataError("failed to split folds", err).WithContext("rows", len(y))
		infrastructure.RecordError(ctx, err)
		return err
	}

	d.logger.InfoContext(ctx, "Experiment started",
		slog.String("run_id", infrastructure.GetTraceID(ctx)),
		slog.Int("rows", x.Rows()),
		slog.Int("columns", x.Cols()),
		slog.Int("folds", len(splits)),
		slog.Int("parallelism", d.opts.Parallelism))

	for _, split := range splits {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := d.runFold(ctx, x, y, split, store); err != nil {
			infrastructure.RecordError(ctx, err)
			return err
		}
	}

	d.logger.InfoContext(ctx, "Experiment complete",
		slog.Int("records", store.Len()),
		slog.Duration("duration", time.Since(start)))
	return nil
}

func (d *Driver) checkColumns(x *features.Matrix) error {
	for _, fs := range d.opts.FeatureSets {
		for _, col := range fs.Columns {
			if !x.Has(col) {
				return apperrors.NewConfigError("feature set column not loaded", nil).
					WithContext("feature_set", fs.Name).
					WithContext("column", col)
			}
		}
	}
	if d.reference != nil {
		for _, col := range d.reference.Columns() {
			if !x.Has(col) {
				return apperrors.NewConfigError("reference column not loaded", nil).
					WithContext("reference", d.reference.Name()).
					WithContext("column", col)
			}
		}
	}
	return nil
}

// runFold normalizes the fold on its train rows, evaluates the configurations
// over the read-only normalized snapshot and then the reference on raw values
func (d *Driver) runFold(ctx context.Context, x *features.Matrix, y []int, split folds.Split, store *Store) error {
	ctx = infrastructure.WithFold(ctx, split.Fold)
	ctx, span := d.tracer.Start(ctx, "experiment.fold",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.Int("fold", split.Fold),
			attribute.Int("fold.train_rows", len(split.Train)),
			attribute.Int("fold.test_rows", len(split.Test)),
		),
	)
	defer span.End()

	xTrain, xTest := x.RowsAt(split.Train), x.RowsAt(split.Test)
	yTrain, yTest := labelsAt(y, split.Train), labelsAt(y, split.Test)

	var scaler features.StandardScaler
	trainNorm, testNorm, err := scaler.FitTransform(xTrain, xTest)
	if err != nil {
		return fmt.Errorf("fold %d: normalize: %w", split.Fold, err)
	}

	d.logger.InfoContext(ctx, "Fold started",
		slog.Int("fold", split.Fold),
		slog.Int("train_rows", len(split.Train)),
		slog.Int("test_rows", len(split.Test)))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.opts.Parallelism)
	for _, fs := range d.opts.FeatureSets {
		g.Go(func() error {
			loader, err := sliceFold(trainNorm, yTrain, testNorm, yTest, fs.Columns)
			if err != nil {
				return err
			}
			return d.evaluate(gctx, fs.Name, split.Fold, len(yTrain), store, loader,
				func(ctx context.Context) (classifier.Model, error) {
					return d.evaluator.Fit(ctx, loader, d.opts.Budget)
				})
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if d.reference != nil {
		loader, err := sliceFold(xTrain, yTrain, xTest, yTest, d.reference.Columns())
		if err != nil {
			return err
		}
		err = d.evaluate(ctx, d.reference.Name(), split.Fold, len(yTrain), store, loader,
			func(ctx context.Context) (classifier.Model, error) {
				return d.reference.Fit(ctx, loader)
			})
		if err != nil {
			return err
		}
	}

	infrastructure.RecordFold(ctx, d.metrics, split.Fold)
	return nil
}

// evaluate fits one configuration on a fold, scores it on the fold's test
// rows and records the result
func (d *Driver) evaluate(ctx context.Context, config string, fold, trainRows int, store *Store, data dataset.DataAccess, fit func(context.Context) (classifier.Model, error)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ctx, span := d.tracer.Start(ctx, "experiment.evaluate",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("config", config),
			attribute.Int("fold", fold),
		),
	)
	defer span.End()

	start := time.Now()
	var metrics domain.Metrics
	model, err := fit(ctx)
	if err == nil {
		metrics, err = model.Evaluate(ctx, data)
	}
	duration := time.Since(start)
	infrastructure.RecordEvaluation(ctx, d.metrics, config, fold, duration, err)

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		infrastructure.RecordError(ctx, err)
		d.logger.ErrorContext(ctx, "Evaluation failed",
			slog.String("config", config),
			slog.Int("fold", fold),
			slog.String("error", err.Error()))
		return apperrors.NewEvaluationError("evaluation failed", err).
			WithContext("config", config).
			WithContext("fold", fold)
	}

	name := d.ExperimentName(config)
	rec := domain.PerformanceRecord{
		Config:       config,
		Fold:         fold,
		Name:         fmt.Sprintf("%s-%d", name, fold),
		Run:          "runs-" + name,
		Missing:      d.opts.Missing,
		Metrics:      metrics,
		Params:       model.Params(),
		TrainSamples: trainRows,
		Duration:     duration,
		RecordedAt:   time.Now().UTC(),
	}
	if err := store.Add(rec); err != nil {
		return apperrors.NewStorageError("failed to store performance record", err).
			WithContext("config", config).
			WithContext("fold", fold)
	}
	if d.recorder != nil {
		if err := d.recorder.Record(ctx, rec); err != nil {
			return apperrors.NewStorageError("failed to record performance", err).
				WithContext("config", config).
				WithContext("fold", fold)
		}
	}

	span.SetAttributes(attribute.Float64("metric.f1", metrics.F1), attribute.Float64("metric.roc_auc", metrics.ROCAUC))
	d.logger.InfoContext(ctx, "Configuration evaluated",
		slog.String("name", rec.Name),
		slog.String("run", rec.Run),
		slog.Float64("f1", metrics.F1),
		slog.Float64("accuracy", metrics.Accuracy),
		slog.Float64("roc_auc", metrics.ROCAUC),
		slog.Int("test_samples", metrics.Samples),
		slog.Duration("duration", duration))
	return nil
}

// sliceFold copies the named columns of a fold snapshot into a fresh loader
func sliceFold(xTrain *features.Matrix, yTrain []int, xTest *features.Matrix, yTest []int, columns []string) (*FoldLoader, error) {
	train, err := xTrain.Select(columns)
	if err != nil {
		return nil, err
	}
	test, err := xTest.Select(columns)
	if err != nil {
		return nil, err
	}
	return NewFoldLoader(train, append([]int{}, yTrain...), test, append([]int{}, yTest...))
}

func labelsAt(y []int, indices []int) []int {
	out := make([]int, len(indices))
	for i, idx := range indices {
		out[i] = y[idx]
	}
	return out
}
