package dataset

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"sort"

	"github.com/GravO8/mrs-dl/internal/config"
	apperrors "github.com/GravO8/mrs-dl/internal/errors"
	"github.com/GravO8/mrs-dl/internal/features"
	"github.com/GravO8/mrs-dl/internal/infrastructure"
	"github.com/GravO8/mrs-dl/internal/preprocessing"
	"github.com/GravO8/mrs-dl/internal/table"
)

// Empty value policies
const (
	EmptyAmputate = "amputate"
	EmptyMean     = "mean"
	EmptyNone     = "none"
)

// SetAll puts every row in the train subset
const SetAll = "all"

// Options controls how a raw table becomes labelled subsets
type Options struct {
	Path           string
	MissingMarkers []string
	TargetColumn   string
	// SetColumn holds train/val/test assignments, or SetAll
	SetColumn      string
	JoinTrainVal   bool
	JoinTrainTest  bool
	Reshuffle      bool
	Seed           int64
	Normalize      bool
	EmptyValues    string
	RemoveOutliers bool
	Preprocess     preprocessing.Options
}

// OptionsFromConfig maps the dataset configuration section onto loader options
func OptionsFromConfig(cfg config.DatasetConfig) Options {
	pre := preprocessing.DefaultOptions(cfg.KeepStage)
	pre.KeepColumns = cfg.KeepColumns
	pre.FilterOutNoNCCT = cfg.FilterOutNoNCCT
	pre.FilterNonWitnessed = cfg.FilterNonWitnessed
	if cfg.GateColumn != "" {
		pre.GateColumn = cfg.GateColumn
	}
	if cfg.GateValue != "" {
		pre.GateValue = cfg.GateValue
	}

	return Options{
		Path:           cfg.Path,
		MissingMarkers: cfg.MissingMarkers,
		TargetColumn:   cfg.TargetColumn,
		SetColumn:      cfg.SetColumn,
		JoinTrainVal:   cfg.JoinTrainVal,
		JoinTrainTest:  cfg.JoinTrainTest,
		Reshuffle:      cfg.Reshuffle,
		Seed:           cfg.Seed,
		Normalize:      cfg.Normalize,
		EmptyValues:    cfg.EmptyValues,
		RemoveOutliers: cfg.RemoveOutliers,
		Preprocess:     pre,
	}
}

// Stats summarises what loading removed
type Stats struct {
	RawRows        int
	MissingLabels  int
	Amputated      map[string]int
	Imputed        map[string]int
	PrunedColumns  []string
	FeatureColumns []string
}

type subset struct {
	x *features.Matrix
	y []int
}

// Loader holds the labelled subsets of one preprocessed table. It is the
// DataAccess the fold driver reads the full dataset through.
type Loader struct {
	logger *slog.Logger
	sets   map[string]*subset
	report *preprocessing.Report
	stats  Stats
}

// LoadFile reads opts.Path and loads it
func LoadFile(ctx context.Context, logger *slog.Logger, pre *preprocessing.Preprocessor, opts Options) (*Loader, error) {
	if opts.Path == "" {
		return nil, apperrors.NewConfigError("dataset path is not set", nil)
	}
	raw, err := ReadTable(opts.Path, opts.MissingMarkers)
	if err != nil {
		return nil, err
	}
	return Load(ctx, logger, pre, raw, opts)
}

// Load preprocesses raw and splits it into labelled subsets. raw is handed
// over to the preprocessor.
func Load(ctx context.Context, logger *slog.Logger, pre *preprocessing.Preprocessor, raw *table.Table, opts Options) (*Loader, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if pre == nil {
		pre = preprocessing.NewPreprocessor(logger, nil, nil)
	}
	if opts.EmptyValues == "" {
		opts.EmptyValues = EmptyAmputate
	}
	l := &Loader{
		logger: infrastructure.WithComponent(logger, "dataset_loader"),
		sets:   make(map[string]*subset),
		stats: Stats{
			RawRows:   raw.NumRows(),
			Amputated: make(map[string]int),
			Imputed:   make(map[string]int),
		},
	}

	if !raw.Has(opts.TargetColumn) {
		return nil, apperrors.NewConfigError("target column not found", nil).WithContext("column", opts.TargetColumn)
	}
	splitBySet := opts.SetColumn != "" && opts.SetColumn != SetAll
	if splitBySet && !raw.Has(opts.SetColumn) {
		return nil, apperrors.NewConfigError("set column not found", nil).WithContext("column", opts.SetColumn)
	}

	res, err := pre.Preprocess(ctx, raw, opts.Preprocess)
	if err != nil {
		return nil, err
	}
	l.report = res.Report
	t := res.Table

	if opts.RemoveOutliers {
		var state *preprocessing.StageState
		t, state, err = pre.RemoveOutliers(ctx, t)
		if err != nil {
			return nil, err
		}
		l.report.Stages = append(l.report.Stages, state)
	}

	columns, err := l.featureColumns(t, res.KeepColumns, opts.TargetColumn)
	if err != nil {
		return nil, err
	}
	l.stats.FeatureColumns = columns

	labels, labelled, err := readLabels(t, opts.TargetColumn)
	if err != nil {
		return nil, err
	}
	l.stats.MissingLabels = t.NumRows() - len(labelled)

	groups, err := assignSets(t, labelled, opts)
	if err != nil {
		return nil, err
	}

	x, err := features.FromTable(t, columns)
	if err != nil {
		return nil, apperrors.NewDataError("failed to build feature matrix", err)
	}

	var rng *rand.Rand
	if opts.Reshuffle {
		rng = rand.New(rand.NewSource(opts.Seed))
	}
	for _, name := range []string{SetTrain, SetValidation, SetTest} {
		rows, ok := groups[name]
		if !ok {
			continue
		}
		s := &subset{x: x.RowsAt(rows), y: pick(labels, rows)}
		if opts.EmptyValues == EmptyAmputate {
			complete := s.x.CompleteRows()
			l.stats.Amputated[name] = s.x.Rows() - len(complete)
			s = &subset{x: s.x.RowsAt(complete), y: pick(s.y, complete)}
		}
		if rng != nil {
			perm := rng.Perm(s.x.Rows())
			s = &subset{x: s.x.RowsAt(perm), y: pick(s.y, perm)}
		}
		l.sets[name] = s
	}

	if _, ok := l.sets[SetTrain]; !ok {
		return nil, apperrors.NewDataError("no rows assigned to the train subset", nil)
	}
	if opts.EmptyValues == EmptyMean {
		if err := l.imputeMeans(); err != nil {
			return nil, err
		}
	}
	if opts.Normalize {
		if err := l.normalize(); err != nil {
			return nil, err
		}
	}

	l.logger.InfoContext(ctx, "Dataset loaded",
		slog.Int("raw_rows", l.stats.RawRows),
		slog.Int("missing_labels", l.stats.MissingLabels),
		slog.Int("features", len(columns)),
		slog.Int("pruned", len(l.stats.PrunedColumns)),
		slog.String("empty_values", opts.EmptyValues),
		slog.Any("rows", l.rowCounts()))
	return l, nil
}

// featureColumns returns the requested columns present after preprocessing.
// Indicators pruned by the decoder are dropped silently; any other absent
// column is a configuration error.
func (l *Loader) featureColumns(t *table.Table, keep []string, target string) ([]string, error) {
	pruned := make(map[string]bool)
	if state, ok := l.report.Stage("decode_sequences"); ok {
		for _, col := range state.Dropped {
			pruned[col] = true
		}
	}

	columns := make([]string, 0, len(keep))
	for _, col := range keep {
		if col == target {
			continue
		}
		if t.Has(col) {
			columns = append(columns, col)
			continue
		}
		if pruned[col] {
			l.stats.PrunedColumns = append(l.stats.PrunedColumns, col)
			continue
		}
		return nil, apperrors.NewConfigError("requested column not found", nil).WithContext("column", col)
	}
	if len(columns) == 0 {
		return nil, apperrors.NewConfigError("no feature columns left after preprocessing", nil)
	}
	return columns, nil
}

// readLabels returns the binary label of every row and the indices of rows
// that have one
func readLabels(t *table.Table, target string) ([]int, []int, error) {
	values, err := t.Column(target)
	if err != nil {
		return nil, nil, apperrors.NewConfigError("target column not found", err)
	}
	labels := make([]int, len(values))
	labelled := make([]int, 0, len(values))
	for i, v := range values {
		if v.IsMissing() {
			continue
		}
		f, ok := v.Float()
		if !ok || (f != 0 && f != 1) {
			return nil, nil, apperrors.NewDataError("target is not binary", nil).
				WithContext("column", target).
				WithContext("row", i).
				WithContext("value", v.String())
		}
		labels[i] = int(f)
		labelled = append(labelled, i)
	}
	return labels, labelled, nil
}

// assignSets groups the labelled rows into subsets
func assignSets(t *table.Table, rows []int, opts Options) (map[string][]int, error) {
	groups := make(map[string][]int)
	if opts.SetColumn == "" || opts.SetColumn == SetAll {
		groups[SetTrain] = rows
		return groups, nil
	}

	values, err := t.Column(opts.SetColumn)
	if err != nil {
		return nil, apperrors.NewConfigError("set column not found", err)
	}
	for _, i := range rows {
		name := values[i].String()
		switch name {
		case SetTrain:
		case SetValidation:
			if opts.JoinTrainVal {
				name = SetTrain
			}
		case SetTest:
			if opts.JoinTrainTest {
				name = SetTrain
			}
		default:
			return nil, apperrors.NewDataError("unknown set assignment", nil).
				WithContext("column", opts.SetColumn).
				WithContext("row", i).
				WithContext("value", values[i].String())
		}
		groups[name] = append(groups[name], i)
	}
	return groups, nil
}

// imputeMeans fills NaN cells of every subset with the train column mean
func (l *Loader) imputeMeans() error {
	train := l.sets[SetTrain].x
	for j, name := range train.Names() {
		col, err := train.Column(name)
		if err != nil {
			return err
		}
		sum, n := 0.0, 0
		for _, v := range col {
			if !math.IsNaN(v) {
				sum += v
				n++
			}
		}
		if n == 0 {
			return apperrors.NewDataError("column has no observed training values", nil).WithContext("column", name)
		}
		mean := sum / float64(n)

		for setName, s := range l.sets {
			for i := 0; i < s.x.Rows(); i++ {
				if math.IsNaN(s.x.At(i, j)) {
					s.x.Set(i, j, mean)
					l.stats.Imputed[setName]++
				}
			}
		}
	}
	return nil
}

// normalize standardizes every subset with statistics of the train subset
func (l *Loader) normalize() error {
	var scaler features.StandardScaler
	if err := scaler.Fit(l.sets[SetTrain].x); err != nil {
		return err
	}
	for _, s := range l.sets {
		scaled, err := scaler.Transform(s.x)
		if err != nil {
			return err
		}
		s.x = scaled
	}
	return nil
}

func (l *Loader) rowCounts() map[string]int {
	out := make(map[string]int, len(l.sets))
	for name, s := range l.sets {
		out[name] = s.x.Rows()
	}
	return out
}

// AvailableSets returns the subset names in train, val, test order
func (l *Loader) AvailableSets() []string {
	order := map[string]int{SetTrain: 0, SetValidation: 1, SetTest: 2}
	out := make([]string, 0, len(l.sets))
	for name := range l.sets {
		out = append(out, name)
	}
	sort.Slice(out, func(a, b int) bool { return order[out[a]] < order[out[b]] })
	return out
}

// Set returns a copy of the subset's features and labels
func (l *Loader) Set(name string) (*features.Matrix, []int, error) {
	s, ok := l.sets[name]
	if !ok {
		return nil, nil, apperrors.NewNotFoundError(fmt.Sprintf("subset %q", name))
	}
	return s.x.Clone(), append([]int(nil), s.y...), nil
}

// Column returns one feature column of a subset
func (l *Loader) Column(set, col string) ([]float64, error) {
	s, ok := l.sets[set]
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("subset %q", set))
	}
	return s.x.Column(col)
}

// SetColumn replaces or appends one feature column of a subset
func (l *Loader) SetColumn(set, col string, values []float64) error {
	s, ok := l.sets[set]
	if !ok {
		return apperrors.NewNotFoundError(fmt.Sprintf("subset %q", set))
	}
	return s.x.SetColumn(col, values)
}

// Report returns the preprocessing report of the load
func (l *Loader) Report() *preprocessing.Report { return l.report }

// Stats returns what loading removed or filled
func (l *Loader) Stats() Stats { return l.stats }

func pick(values []int, indices []int) []int {
	out := make([]int, len(indices))
	for k, i := range indices {
		out[k] = values[i]
	}
	return out
}
