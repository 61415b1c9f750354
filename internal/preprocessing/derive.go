package preprocessing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	apperrors "github.com/GravO8/mrs-dl/internal/errors"
	"github.com/GravO8/mrs-dl/internal/registry"
	"github.com/GravO8/mrs-dl/internal/table"
)

// NullTime is a date-time that may be missing
type NullTime struct {
	Time  time.Time
	Valid bool
}

// ValidTime wraps a present date-time
func ValidTime(t time.Time) NullTime {
	return NullTime{Time: t, Valid: true}
}

// Age returns completed years between birth and onset, Missing if either is missing
func Age(birth, onset NullTime) table.Value {
	if !birth.Valid || !onset.Valid {
		return table.Missing()
	}
	years := onset.Time.Year() - birth.Time.Year()
	if onset.Time.Month() < birth.Time.Month() ||
		(onset.Time.Month() == birth.Time.Month() && onset.Time.Day() < birth.Time.Day()) {
		years--
	}
	return table.Int(years)
}

// OnsetToScanHours returns the whole hours elapsed from onset to scan. A scan
// before onset is a data error and yields Missing, never a negative value.
func OnsetToScanHours(onset, scan NullTime) table.Value {
	if !onset.Valid || !scan.Valid || scan.Time.Before(onset.Time) {
		return table.Missing()
	}
	return table.Int(int(scan.Time.Sub(onset.Time) / time.Hour))
}

// DeriverColumns names the raw inputs of the derived covariates
type DeriverColumns struct {
	BirthDate string
	OnsetDate string
	ScanTime  string
	Witnessed string
}

// DefaultDeriverColumns returns the column names of the trial export
func DefaultDeriverColumns() DeriverColumns {
	return DeriverColumns{
		BirthDate: "dataNascimento-1",
		OnsetDate: "dataAVC-4",
		ScanTime:  "data-7",
		Witnessed: "instAVCpre-4",
	}
}

// WitnessedValue is the affirmative value of the witnessed-onset column
var WitnessedValue = table.String("1")

// VariableDeriver adds the age and time_since_onset columns
type VariableDeriver struct {
	logger        *slog.Logger
	columns       DeriverColumns
	witnessedOnly bool
}

// NewVariableDeriver creates a deriver. With witnessedOnly set, onset intervals
// of rows whose onset was not witnessed are blanked after computation.
func NewVariableDeriver(logger *slog.Logger, columns DeriverColumns, witnessedOnly bool) *VariableDeriver {
	if logger == nil {
		logger = slog.Default()
	}
	return &VariableDeriver{
		logger:        logger,
		columns:       columns,
		witnessedOnly: witnessedOnly,
	}
}

// ID returns the stage ID
func (d *VariableDeriver) ID() string { return "derive_variables" }

// Apply computes both covariates for every row; no rows are dropped
func (d *VariableDeriver) Apply(ctx context.Context, t *table.Table, state *StageState) (*table.Table, error) {
	required := []string{d.columns.BirthDate, d.columns.OnsetDate, d.columns.ScanTime}
	if d.witnessedOnly {
		required = append(required, d.columns.Witnessed)
	}
	for _, col := range required {
		if !t.Has(col) {
			return nil, apperrors.NewConfigError(
				fmt.Sprintf("required column %s is missing from the table", col), table.ErrColumnNotFound).
				WithContext("stage", d.ID())
		}
	}

	birth := d.parseColumn(t, d.columns.BirthDate, state)
	onset := d.parseColumn(t, d.columns.OnsetDate, state)
	scan := d.parseColumn(t, d.columns.ScanTime, state)

	n := t.NumRows()
	age := make([]table.Value, n)
	hours := make([]table.Value, n)
	inverted := 0
	for i := 0; i < n; i++ {
		age[i] = Age(birth[i], onset[i])
		hours[i] = OnsetToScanHours(onset[i], scan[i])
		if onset[i].Valid && scan[i].Valid && hours[i].IsMissing() {
			inverted++
		}
	}
	state.AddNullified(registry.TimeSinceOnsetColumn, inverted)

	if d.witnessedOnly {
		masked := 0
		for i := 0; i < n; i++ {
			if !t.Row(i).Get(d.columns.Witnessed).Equal(WitnessedValue) && !hours[i].IsMissing() {
				hours[i] = table.Missing()
				masked++
			}
		}
		state.SetMessage(fmt.Sprintf("%d onset intervals blanked for unwitnessed onset", masked))
	}

	if err := t.SetColumn(registry.AgeColumn, age); err != nil {
		return nil, err
	}
	if err := t.SetColumn(registry.TimeSinceOnsetColumn, hours); err != nil {
		return nil, err
	}

	d.logger.DebugContext(ctx, "Derived variables added",
		slog.Int("rows", n),
		slog.Int("inverted_intervals", inverted),
		slog.Bool("witnessed_only", d.witnessedOnly))

	return t, nil
}

// parseColumn reads a date column; malformed cells degrade to missing and are counted
func (d *VariableDeriver) parseColumn(t *table.Table, col string, state *StageState) []NullTime {
	values, _ := t.Column(col)
	out := make([]NullTime, len(values))
	for i, v := range values {
		parsed, err := ParseDate(v)
		switch {
		case err == nil:
			out[i] = ValidTime(parsed)
		case errors.Is(err, ErrMissingValue):
		default:
			state.AddNullified(col, 1)
		}
	}
	return out
}
