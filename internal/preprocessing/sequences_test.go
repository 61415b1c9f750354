package preprocessing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/GravO8/mrs-dl/internal/errors"
	"github.com/GravO8/mrs-dl/internal/registry"
	"github.com/GravO8/mrs-dl/internal/table"
)

func packedTable(t *testing.T, col string, cells ...table.Value) *table.Table {
	t.Helper()
	rows := make([][]table.Value, len(cells))
	for i, c := range cells {
		rows[i] = []table.Value{table.Int(i), c}
	}
	tbl, err := table.FromRows([]string{"id", col}, rows)
	require.NoError(t, err)
	return tbl
}

func numbers(t *testing.T, tbl *table.Table, col string) []float64 {
	t.Helper()
	values, err := tbl.Column(col)
	require.NoError(t, err)
	out := make([]float64, len(values))
	for i, v := range values {
		f, ok := v.Float()
		require.True(t, ok, "%s[%d] is missing", col, i)
		out[i] = f
	}
	return out
}

func decode(t *testing.T, tbl *table.Table, seqs []registry.Sequence, keep []string) (*table.Table, *StageState) {
	t.Helper()
	d := NewSequenceDecoder(nil, seqs, keep)
	state := NewStageState(d.ID())
	out, err := d.Apply(context.Background(), tbl, state)
	require.NoError(t, err)
	return out, state
}

func TestSequenceDecoderTwoRowScenario(t *testing.T) {
	tbl := packedTable(t, "col", table.String("True, False"), table.String("True,True"))
	seqs := []registry.Sequence{{Column: "col", Length: 2}}

	out, state := decode(t, tbl, seqs, []string{"col-1", "col-2"})

	assert.Equal(t, []string{"id", "col-1", "col-2"}, out.Columns(), "packed column replaced by indicators")
	assert.Equal(t, []float64{1, 1}, numbers(t, out, "col-1"))
	assert.Equal(t, []float64{0, 1}, numbers(t, out, "col-2"))
	assert.Empty(t, state.Dropped)
}

func TestSequenceDecoderLengthMismatchIsTotalLoss(t *testing.T) {
	raw := []table.Value{
		table.String("True,True,True"),
		table.String("True,True"),
		table.String("True,True,True,True"),
		table.String("None"),
		table.Missing(),
	}
	indicators, corrupt := DecodeSequence(raw, 3)

	require.Len(t, indicators, 3)
	for pos := 0; pos < 3; pos++ {
		f, ok := indicators[pos][0].Float()
		require.True(t, ok)
		assert.Equal(t, 1.0, f)
		for row := 1; row < len(raw); row++ {
			assert.True(t, indicators[pos][row].IsMissing(), "position %d row %d", pos, row)
		}
	}
	assert.Equal(t, 2, corrupt, "None and missing cells are not corrupt")
}

func TestSequenceDecoderUnknownTokensAreFalse(t *testing.T) {
	indicators, _ := DecodeSequence([]table.Value{table.String("yes,TRUE,,1")}, 4)
	got := make([]float64, 4)
	for i := range got {
		got[i], _ = indicators[i][0].Float()
	}
	assert.Equal(t, []float64{0, 1, 0, 0}, got)
}

func TestKeepIndicator(t *testing.T) {
	m := table.Missing()
	i := table.Int
	tests := []struct {
		name   string
		values []table.Value
		want   bool
	}{
		{"constant and fully observed", []table.Value{i(1), i(1), i(1)}, true},
		{"varying and fully observed", []table.Value{i(0), i(1)}, true},
		{"constant with gaps", []table.Value{i(1), m, i(1)}, false},
		{"binary with gaps", []table.Value{i(0), m, i(1)}, false},
		{"all missing", []table.Value{m, m}, false},
		{"three distinct with gaps", []table.Value{i(0), i(1), i(2), m}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KeepIndicator(tt.values))
		})
	}
}

func TestSequenceDecoderPrunesColumnsWithGaps(t *testing.T) {
	tbl := packedTable(t, "outProc",
		table.String("True,False"),
		table.String("True,True"),
		table.String("None"),
	)
	seqs := []registry.Sequence{{Column: "outProc", Length: 2}}

	out, state := decode(t, tbl, seqs, []string{"outProc-1"})

	assert.Equal(t, []string{"id"}, out.Columns())
	assert.Equal(t, []string{"outProc-1", "outProc-2"}, state.Dropped)
}

func TestSequenceDecoderSkipsUnrequested(t *testing.T) {
	tbl := packedTable(t, "outProc", table.String("True,False"))
	seqs := []registry.Sequence{
		{Column: "outProc", Length: 2},
		{Column: "absent", Length: 3},
	}

	out, state := decode(t, tbl, seqs, []string{"age"})
	assert.Equal(t, []string{"id", "outProc"}, out.Columns(), "packed column left untouched")
	assert.Equal(t, StageStatusSkipped, state.Status)
	assert.NotEmpty(t, state.Message)
}

func TestSequenceDecoderRequestedByLaterPosition(t *testing.T) {
	tbl := packedTable(t, "lacAntL-7", table.String("False,True"))
	seqs := []registry.Sequence{{Column: "lacAntL-7", Length: 2}}

	out, _ := decode(t, tbl, seqs, []string{"lacAntL-7-2"})
	assert.Equal(t, []string{"id", "lacAntL-7-1", "lacAntL-7-2"}, out.Columns())
}

func TestSequenceDecoderMissingBaseColumn(t *testing.T) {
	tbl := packedTable(t, "other", table.String("True"))
	d := NewSequenceDecoder(nil, []registry.Sequence{{Column: "outCom", Length: 8}}, []string{"outCom-1"})

	_, err := d.Apply(context.Background(), tbl, NewStageState(d.ID()))
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig))
}
