package preprocessing

import (
	"context"
	"log/slog"
	"sort"

	"github.com/GravO8/mrs-dl/internal/registry"
	"github.com/GravO8/mrs-dl/internal/table"
)

// OutlierFilter replaces clinically invalid values with Missing, column by column
type OutlierFilter struct {
	logger   *slog.Logger
	validity registry.Validity
}

// NewOutlierFilter creates a filter for the given validity specification
func NewOutlierFilter(logger *slog.Logger, validity registry.Validity) *OutlierFilter {
	if logger == nil {
		logger = slog.Default()
	}
	return &OutlierFilter{logger: logger, validity: validity}
}

// ID returns the stage ID
func (f *OutlierFilter) ID() string { return "remove_outliers" }

// Apply filters every column present in both the table and the validity
// specification. Columns unknown to either side are left untouched.
func (f *OutlierFilter) Apply(ctx context.Context, t *table.Table, state *StageState) (*table.Table, error) {
	for _, col := range sortedKeys(f.validity.Intervals) {
		if !t.Has(col) {
			continue
		}
		values, _ := t.Column(col)
		n := FilterInterval(values, f.validity.Intervals[col])
		state.AddNullified(col, n)
		if err := t.SetColumn(col, values); err != nil {
			return nil, err
		}
	}

	for _, col := range sortedKeys(f.validity.Sets) {
		if !t.Has(col) {
			continue
		}
		values, _ := t.Column(col)
		n := FilterSet(values, f.validity.Sets[col])
		state.AddNullified(col, n)
		if err := t.SetColumn(col, values); err != nil {
			return nil, err
		}
	}

	f.logger.DebugContext(ctx, "Outliers removed",
		slog.Int("nullified", state.NullifiedTotal()))

	return t, nil
}

// FilterInterval nulls, in place, every observed value not strictly inside
// the interval; non-numeric values are outside by definition. It returns the
// number of values nulled.
func FilterInterval(values []table.Value, iv registry.Interval) int {
	nulled := 0
	for i, v := range values {
		if v.IsMissing() {
			continue
		}
		f, ok := v.Float()
		if ok && iv.Contains(f) {
			continue
		}
		values[i] = table.Missing()
		nulled++
	}
	return nulled
}

// FilterSet nulls, in place, every observed value outside allowed and returns
// the number of values nulled
func FilterSet(values []table.Value, allowed []table.Value) int {
	nulled := 0
	for i, v := range values {
		if v.IsMissing() || contains(allowed, v) {
			continue
		}
		values[i] = table.Missing()
		nulled++
	}
	return nulled
}

func contains(set []table.Value, v table.Value) bool {
	for _, s := range set {
		if s.Equal(v) {
			return true
		}
	}
	return false
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
