package table

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{"missing equals missing", Missing(), Missing(), true},
		{"missing differs from zero", Missing(), Number(0), false},
		{"missing differs from empty string", Missing(), String(""), false},
		{"numeric string equals number", String("1"), Number(1), true},
		{"numbers compare numerically", Number(2.0), String("2.0"), true},
		{"strings compare exactly", String("OK"), String("ok"), false},
		{"different numbers", Number(1), Number(2), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Equal(tt.b))
		})
	}
}

func TestNumberNaNIsMissing(t *testing.T) {
	assert.True(t, Number(math.NaN()).IsMissing())
}

func TestParseCell(t *testing.T) {
	assert.True(t, ParseCell("", DefaultMissingMarkers).IsMissing())
	assert.True(t, ParseCell(" NaN ", DefaultMissingMarkers).IsMissing())

	none := ParseCell("None", DefaultMissingMarkers)
	s, ok := none.Str()
	require.True(t, ok, "None is a domain sentinel, not a missing marker")
	assert.Equal(t, "None", s)
}

func TestInferNumeric(t *testing.T) {
	t.Run("all numeric", func(t *testing.T) {
		col := InferNumeric([]Value{String("1"), Missing(), String("2.5")})
		assert.Equal(t, KindNumber, col[0].Kind())
		assert.True(t, col[1].IsMissing())
		f, _ := col[2].Float()
		assert.Equal(t, 2.5, f)
	})

	t.Run("mixed stays string", func(t *testing.T) {
		in := []Value{String("1"), String("2020-01-01 10:00:00")}
		col := InferNumeric(in)
		assert.Equal(t, KindString, col[0].Kind())
	})

	t.Run("all missing stays missing", func(t *testing.T) {
		col := InferNumeric([]Value{Missing(), Missing()})
		assert.True(t, col[0].IsMissing())
	})
}

func TestTableColumns(t *testing.T) {
	tbl, err := FromRows([]string{"a", "b", "c"}, [][]Value{
		{Int(1), String("x"), Missing()},
		{Int(2), String("y")},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, tbl.NumRows())
	assert.Equal(t, []string{"a", "b", "c"}, tbl.Columns())

	c, err := tbl.Column("c")
	require.NoError(t, err)
	assert.True(t, c[1].IsMissing(), "short rows are padded with Missing")

	require.NoError(t, tbl.DropColumn("b"))
	assert.Equal(t, []string{"a", "c"}, tbl.Columns())
	assert.False(t, tbl.Has("b"))
	assert.True(t, tbl.Row(0).Get("c").IsMissing())

	_, err = tbl.Column("b")
	assert.ErrorIs(t, err, ErrColumnNotFound)

	err = tbl.SetColumn("d", []Value{Int(1)})
	assert.ErrorIs(t, err, ErrLengthMismatch)
}

func TestTableSetColumnReplacesInPlace(t *testing.T) {
	tbl, err := FromRows([]string{"a", "b"}, [][]Value{{Int(1), Int(2)}})
	require.NoError(t, err)

	require.NoError(t, tbl.SetColumn("a", []Value{Int(9)}))
	assert.Equal(t, []string{"a", "b"}, tbl.Columns())
	v, _ := tbl.Row(0).Get("a").Float()
	assert.Equal(t, 9.0, v)
}

func TestTableFilterTakeClone(t *testing.T) {
	tbl, err := FromRows([]string{"id", "flag"}, [][]Value{
		{Int(0), String("OK")},
		{Int(1), String("NO")},
		{Int(2), String("OK")},
	})
	require.NoError(t, err)

	kept := tbl.Filter(func(r Row) bool { return r.Get("flag").Equal(String("OK")) })
	assert.Equal(t, 2, kept.NumRows())
	assert.Equal(t, 3, tbl.NumRows(), "filter does not touch the source")

	reversed := tbl.Take([]int{2, 1, 0})
	first, _ := reversed.Row(0).Get("id").Float()
	assert.Equal(t, 2.0, first)

	clone := tbl.Clone()
	require.NoError(t, clone.SetColumn("id", []Value{Int(7), Int(7), Int(7)}))
	orig, _ := tbl.Row(0).Get("id").Float()
	assert.Equal(t, 0.0, orig, "clone must not alias the source")
}

func TestTableSelect(t *testing.T) {
	tbl, err := FromRows([]string{"a", "b", "c"}, [][]Value{{Int(1), Int(2), Int(3)}})
	require.NoError(t, err)

	sel, err := tbl.Select([]string{"c", "a"})
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a"}, sel.Columns())

	_, err = tbl.Select([]string{"z"})
	assert.ErrorIs(t, err, ErrColumnNotFound)
}
