package preprocessing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/GravO8/mrs-dl/internal/errors"
	"github.com/GravO8/mrs-dl/internal/infrastructure"
	"github.com/GravO8/mrs-dl/internal/registry"
	"github.com/GravO8/mrs-dl/internal/table"
)

// TracerName is the instrumentation scope of preprocessing spans
const TracerName = "mrs-dl.preprocessing"

// Options selects the optional pipeline behaviour
type Options struct {
	// FilterOutNoNCCT keeps only rows whose GateColumn equals GateValue
	FilterOutNoNCCT bool
	GateColumn      string
	GateValue       string
	// FilterNonWitnessed blanks onset intervals of unwitnessed strokes
	FilterNonWitnessed bool
	// KeepColumns wins over KeepStage when non-empty
	KeepColumns []string
	KeepStage   string
	Columns     DeriverColumns
}

// DefaultOptions returns the options of the trial export with the given keep stage
func DefaultOptions(stage string) Options {
	return Options{
		GateColumn: "NCCT",
		GateValue:  "OK",
		KeepStage:  stage,
		Columns:    DefaultDeriverColumns(),
	}
}

// Result is the outcome of one preprocessing run
type Result struct {
	Table *table.Table
	// KeepColumns is the resolved column request; pruned indicators may be absent from Table
	KeepColumns []string
	Report      *Report
}

// Preprocessor turns a raw trial table into a table of usable covariates
type Preprocessor struct {
	logger   *slog.Logger
	registry *registry.Registry
	metrics  *infrastructure.ExperimentMetrics
	tracer   trace.Tracer
}

// NewPreprocessor creates a preprocessor over an injected registry. metrics may be nil.
func NewPreprocessor(logger *slog.Logger, reg *registry.Registry, metrics *infrastructure.ExperimentMetrics) *Preprocessor {
	if logger == nil {
		logger = slog.Default()
	}
	if reg == nil {
		reg = registry.Default()
	}
	return &Preprocessor{
		logger:   infrastructure.WithComponent(logger, "preprocessing"),
		registry: reg,
		metrics:  metrics,
		tracer:   otel.Tracer(TracerName),
	}
}

// Preprocess runs gate → derive → decode → compact on t. The caller hands t
// over and must use Result.Table from then on.
func (p *Preprocessor) Preprocess(ctx context.Context, t *table.Table, opts Options) (*Result, error) {
	keep, err := p.ResolveColumns(opts)
	if err != nil {
		return nil, err
	}

	chain := NewChain()
	if opts.FilterOutNoNCCT {
		if err := chain.Add(NewGateFilter(opts.GateColumn, table.String(opts.GateValue))); err != nil {
			return nil, err
		}
	}
	stages := []Stage{
		NewVariableDeriver(p.logger, opts.Columns, opts.FilterNonWitnessed),
		NewSequenceDecoder(p.logger, p.registry.Sequences(), keep),
		compactStage{},
	}
	for _, s := range stages {
		if err := chain.Add(s); err != nil {
			return nil, err
		}
	}

	out, report, err := p.Run(ctx, chain, t)
	if err != nil {
		return nil, err
	}

	p.logger.InfoContext(ctx, "Preprocessing complete",
		slog.Int("rows", out.NumRows()),
		slog.Int("columns", out.NumColumns()),
		slog.Int("requested_columns", len(keep)))

	return &Result{Table: out, KeepColumns: keep, Report: report}, nil
}

// ResolveColumns returns the explicit column list, or the registry columns of
// the named stage
func (p *Preprocessor) ResolveColumns(opts Options) ([]string, error) {
	if len(opts.KeepColumns) > 0 {
		keep := make([]string, len(opts.KeepColumns))
		copy(keep, opts.KeepColumns)
		return keep, nil
	}
	return p.registry.StageColumns(opts.KeepStage)
}

// RemoveOutliers is the opt-in validity pass; it is never part of Preprocess
func (p *Preprocessor) RemoveOutliers(ctx context.Context, t *table.Table) (*table.Table, *StageState, error) {
	chain := NewChain()
	if err := chain.Add(NewOutlierFilter(p.logger, p.registry.Validity())); err != nil {
		return nil, nil, err
	}
	out, report, err := p.Run(ctx, chain, t)
	if err != nil {
		return nil, nil, err
	}
	return out, report.Stages[0], nil
}

// Run executes the chain in order, handing each stage's output to the next
func (p *Preprocessor) Run(ctx context.Context, chain *Chain, t *table.Table) (*table.Table, *Report, error) {
	p.logger.DebugContext(ctx, "Running stages",
		slog.Any("stages", chain.IDs()),
		slog.Int("rows", t.NumRows()))

	report := &Report{}
	for _, stage := range chain.stages {
		state := NewStageState(stage.ID())
		report.Stages = append(report.Stages, state)

		stageCtx, span := p.tracer.Start(ctx, "preprocessing.stage",
			trace.WithSpanKind(trace.SpanKindInternal),
			trace.WithAttributes(
				attribute.String("stage.id", stage.ID()),
				attribute.Int("stage.rows_in", t.NumRows()),
			),
		)

		state.Start(t)
		out, err := stage.Apply(stageCtx, t, state)
		infrastructure.RecordStage(stageCtx, p.metrics, stage.ID(), state.Duration(), err)
		if err != nil {
			state.Fail(err)
			infrastructure.RecordError(stageCtx, err)
			span.End()
			p.logger.ErrorContext(ctx, "Preprocessing stage failed",
				slog.String("stage", stage.ID()),
				slog.String("error", err.Error()))
			return nil, report, wrapStageError(stage.ID(), err)
		}
		state.Complete(out)

		for _, col := range state.NullifiedColumns() {
			infrastructure.RecordNullified(stageCtx, p.metrics, stage.ID(), col, state.Nullified[col])
		}
		span.SetAttributes(
			attribute.Int("stage.rows_out", out.NumRows()),
			attribute.Int("stage.nullified", state.NullifiedTotal()),
		)
		span.End()

		p.logger.InfoContext(ctx, "Preprocessing stage completed",
			slog.String("stage", stage.ID()),
			slog.String("status", string(state.Status)),
			slog.Int("rows_in", state.RowsIn),
			slog.Int("rows_out", state.RowsOut),
			slog.Int("columns_out", state.ColumnsOut),
			slog.Int("nullified", state.NullifiedTotal()),
			slog.Int("dropped_columns", len(state.Dropped)),
			slog.Duration("duration", state.Duration()))

		t = out
	}
	return t, report, nil
}

func wrapStageError(stage string, err error) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return fmt.Errorf("stage %s: %w", stage, err)
}

// GateFilter keeps only the rows whose column equals the gate value
type GateFilter struct {
	column string
	value  table.Value
}

// NewGateFilter creates a row gate
func NewGateFilter(column string, value table.Value) *GateFilter {
	return &GateFilter{column: column, value: value}
}

// ID returns the stage ID
func (g *GateFilter) ID() string { return "filter_gate" }

// Apply drops rows failing the gate; a missing gate column is a configuration error
func (g *GateFilter) Apply(_ context.Context, t *table.Table, state *StageState) (*table.Table, error) {
	if !t.Has(g.column) {
		return nil, apperrors.NewConfigError(
			fmt.Sprintf("gate column %s is missing from the table", g.column), table.ErrColumnNotFound).
			WithContext("stage", g.ID())
	}
	out := t.Filter(func(r table.Row) bool {
		return r.Get(g.column).Equal(g.value)
	})
	state.SetMessage(fmt.Sprintf("%d rows failed the %s gate", t.NumRows()-out.NumRows(), g.column))
	return out, nil
}

// compactStage hands the next consumer a fresh, compact copy of the table
type compactStage struct{}

func (compactStage) ID() string { return "compact" }

func (compactStage) Apply(_ context.Context, t *table.Table, _ *StageState) (*table.Table, error) {
	return t.Clone(), nil
}
