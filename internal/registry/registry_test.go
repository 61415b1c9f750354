package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/GravO8/mrs-dl/internal/errors"
	"github.com/GravO8/mrs-dl/internal/table"
)

func TestDefaultStages(t *testing.T) {
	r := Default()

	assert.Equal(t, []string{"all", "baseline", "discharge", "posttreatment", "pretreatment", "ttest"}, r.Stages())

	baseline, err := r.StageColumns(StageBaseline)
	require.NoError(t, err)
	assert.Contains(t, baseline, AgeColumn)
	assert.Contains(t, baseline, TimeSinceOnsetColumn)

	pre, err := r.StageColumns(StagePretreatment)
	require.NoError(t, err)
	assert.Contains(t, pre, "enfAnt-7-9")
	assert.NotContains(t, pre, "compRtPA-1")

	discharge, err := r.StageColumns(StageDischarge)
	require.NoError(t, err)
	assert.Contains(t, discharge, "ecocarAnormal-19")
	assert.NotContains(t, discharge, "ecocarAnormal-20")
}

func TestStageColumnsUnknownStage(t *testing.T) {
	_, err := Default().StageColumns("followup")
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig))
}

func TestRegistryIsImmutable(t *testing.T) {
	r := Default()

	cols, err := r.StageColumns(StageBaseline)
	require.NoError(t, err)
	cols[0] = "mutated"

	again, err := r.StageColumns(StageBaseline)
	require.NoError(t, err)
	assert.Equal(t, AgeColumn, again[0])

	v := r.Validity()
	v.Sets["aspects-7"][0] = table.Int(99)
	delete(v.Intervals, AgeColumn)
	fresh := r.Validity()
	assert.True(t, fresh.Sets["aspects-7"][0].Equal(table.Int(0)))
	assert.Contains(t, fresh.Intervals, AgeColumn)

	seqs := r.Sequences()
	seqs[0].Length = 100
	assert.Equal(t, 4, r.Sequences()[0].Length)
}

func TestDefaultReturnsIndependentRegistries(t *testing.T) {
	a := Default()
	b := Default()
	assert.NotSame(t, a, b)
	assert.Equal(t, a.Sequences(), b.Sequences())
}

func TestSequenceOutputColumns(t *testing.T) {
	seq := Sequence{Column: "outProc", Length: 4}
	assert.Equal(t, []string{"outProc-1", "outProc-2", "outProc-3", "outProc-4"}, seq.OutputColumns())
}

func TestIntervalIsExclusive(t *testing.T) {
	iv := Interval{Min: 0, Max: 120}
	assert.False(t, iv.Contains(0))
	assert.True(t, iv.Contains(0.5))
	assert.False(t, iv.Contains(120))
}

func TestParseOverride(t *testing.T) {
	data := []byte(`
stages:
  followup: [age, rankin-90]
intervals:
  aspects-7: {min: -1, max: 11}
sets:
  sexo-1: ["M", "F"]
  age: ["1", "2"]
`)
	r, err := Parse(data, Default())
	require.NoError(t, err)

	cols, err := r.StageColumns("followup")
	require.NoError(t, err)
	assert.Equal(t, []string{"age", "rankin-90"}, cols)

	_, err = r.StageColumns(StageBaseline)
	assert.NoError(t, err, "base stages survive the override")

	v := r.Validity()
	assert.Equal(t, Interval{Min: -1, Max: 11}, v.Intervals["aspects-7"])
	assert.NotContains(t, v.Sets, "aspects-7", "interval override removes the set entry")
	assert.NotContains(t, v.Intervals, "age", "set override removes the interval entry")
	assert.Equal(t, table.KindNumber, v.Sets["age"][0].Kind())
	assert.Equal(t, table.KindString, v.Sets["sexo-1"][0].Kind())

	assert.Len(t, r.Sequences(), 13)
}

func TestParseOverrideErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"inverted interval", "intervals:\n  age: {min: 10, max: 5}\n"},
		{"zero length sequence", "sequences:\n  - {column: outProc, length: 0}\n"},
		{"duplicate sequence", "sequences:\n  - {column: a, length: 1}\n  - {column: a, length: 2}\n"},
		{"unknown field", "stagez: {}\n"},
		{"empty stage", "stages:\n  empty: []\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data), Default())
			require.Error(t, err)
			assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig))
		})
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "registry.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sequences:\n  - {column: outProc, length: 2}\n"), 0o644))

	r, err := LoadFile(path, Default())
	require.NoError(t, err)
	assert.Equal(t, []Sequence{{Column: "outProc", Length: 2}}, r.Sequences())

	_, err = LoadFile(filepath.Join(dir, "missing.yaml"), Default())
	assert.Error(t, err)
}
