package preprocessing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/GravO8/mrs-dl/internal/errors"
	"github.com/GravO8/mrs-dl/internal/registry"
	"github.com/GravO8/mrs-dl/internal/table"
)

func day(y int, m time.Month, d int) NullTime {
	return ValidTime(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
}

func at(y int, m time.Month, d, h, min int) NullTime {
	return ValidTime(time.Date(y, m, d, h, min, 0, 0, time.UTC))
}

func floatOf(t *testing.T, v table.Value) float64 {
	t.Helper()
	f, ok := v.Float()
	require.True(t, ok, "expected a number, got %q", v.String())
	return f
}

func TestAge(t *testing.T) {
	birth := day(2000, 6, 15)

	assert.Equal(t, 19.0, floatOf(t, Age(birth, day(2020, 6, 10))))
	assert.Equal(t, 20.0, floatOf(t, Age(birth, day(2020, 6, 20))))
	assert.Equal(t, 20.0, floatOf(t, Age(birth, day(2020, 6, 15))), "birthday counts as completed")
	assert.Equal(t, 19.0, floatOf(t, Age(birth, day(2020, 1, 31))))

	assert.True(t, Age(NullTime{}, day(2020, 6, 10)).IsMissing())
	assert.True(t, Age(birth, NullTime{}).IsMissing())
}

func TestOnsetToScanHours(t *testing.T) {
	onset := at(2021, 3, 1, 10, 0)

	assert.Equal(t, 0.0, floatOf(t, OnsetToScanHours(onset, at(2021, 3, 1, 10, 59))))
	assert.Equal(t, 3.0, floatOf(t, OnsetToScanHours(onset, at(2021, 3, 1, 13, 59))))
	assert.Equal(t, 0.0, floatOf(t, OnsetToScanHours(onset, onset)))
	assert.Equal(t, 49.0, floatOf(t, OnsetToScanHours(onset, at(2021, 3, 3, 11, 0))), "whole days count")

	assert.True(t, OnsetToScanHours(onset, at(2021, 3, 1, 9, 59)).IsMissing(), "scan before onset is never negative")
	assert.True(t, OnsetToScanHours(NullTime{}, onset).IsMissing())
	assert.True(t, OnsetToScanHours(onset, NullTime{}).IsMissing())
}

func derivationTable(t *testing.T) *table.Table {
	t.Helper()
	s := table.String
	tbl, err := table.FromRows(
		[]string{"dataNascimento-1", "dataAVC-4", "data-7", "instAVCpre-4"},
		[][]table.Value{
			{s("1950-06-15"), s("2020-06-10 08:00:00"), s("2020-06-10 10:30:00"), s("1")},
			{s("None"), s("2020-06-10 08:00:00"), s("2020-06-10 07:00:00"), s("1")},
			{s("1960-01-01"), s("0"), s("2020-06-10 07:00:00"), s("0")},
			{s("1970-02-02"), s("2020-01-01 00:00:00"), s("2020-01-01 05:00:00"), s("0")},
			{s("not a date"), s("2020-01-01 00:00:00"), s("2020-01-01 05:00:00"), table.Missing()},
		},
	)
	require.NoError(t, err)
	return tbl
}

func TestVariableDeriverApply(t *testing.T) {
	d := NewVariableDeriver(nil, DefaultDeriverColumns(), false)
	state := NewStageState(d.ID())

	out, err := d.Apply(context.Background(), derivationTable(t), state)
	require.NoError(t, err)
	require.Equal(t, 5, out.NumRows(), "no rows are dropped")

	age, err := out.Column(registry.AgeColumn)
	require.NoError(t, err)
	hours, err := out.Column(registry.TimeSinceOnsetColumn)
	require.NoError(t, err)

	assert.Equal(t, 69.0, floatOf(t, age[0]))
	assert.Equal(t, 2.0, floatOf(t, hours[0]))

	assert.True(t, age[1].IsMissing())
	assert.True(t, hours[1].IsMissing(), "scan before onset")

	assert.True(t, age[2].IsMissing())
	assert.True(t, hours[2].IsMissing())

	assert.Equal(t, 5.0, floatOf(t, hours[3]))

	assert.True(t, age[4].IsMissing(), "malformed birth date degrades to missing")
	assert.Equal(t, 5.0, floatOf(t, hours[4]))

	assert.Equal(t, 1, state.Nullified["dataNascimento-1"])
	assert.Equal(t, 1, state.Nullified[registry.TimeSinceOnsetColumn])
}

func TestVariableDeriverWitnessedOnly(t *testing.T) {
	d := NewVariableDeriver(nil, DefaultDeriverColumns(), true)
	state := NewStageState(d.ID())

	out, err := d.Apply(context.Background(), derivationTable(t), state)
	require.NoError(t, err)

	age, _ := out.Column(registry.AgeColumn)
	hours, _ := out.Column(registry.TimeSinceOnsetColumn)

	assert.Equal(t, 2.0, floatOf(t, hours[0]), "witnessed onset keeps its interval")
	assert.True(t, hours[3].IsMissing(), "unwitnessed onset is blanked")
	assert.True(t, hours[4].IsMissing(), "missing witness is not affirmative")
	assert.Equal(t, 49.0, floatOf(t, age[3]), "age is computed regardless of witness")
	assert.Contains(t, state.Message, "2 onset intervals blanked")
}

func TestVariableDeriverWitnessNumeric(t *testing.T) {
	tbl := derivationTable(t)
	witness, _ := tbl.Column("instAVCpre-4")
	require.NoError(t, tbl.SetColumn("instAVCpre-4", table.InferNumeric(witness)))

	out, err := NewVariableDeriver(nil, DefaultDeriverColumns(), true).
		Apply(context.Background(), tbl, NewStageState("derive"))
	require.NoError(t, err)

	hours, _ := out.Column(registry.TimeSinceOnsetColumn)
	assert.Equal(t, 2.0, floatOf(t, hours[0]), "numeric 1 matches the affirmative sentinel")
}

func TestVariableDeriverMissingColumn(t *testing.T) {
	tbl := derivationTable(t)
	require.NoError(t, tbl.DropColumn("data-7"))

	_, err := NewVariableDeriver(nil, DefaultDeriverColumns(), false).
		Apply(context.Background(), tbl, NewStageState("derive"))
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig))
}
