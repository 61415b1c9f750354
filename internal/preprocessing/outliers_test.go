package preprocessing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GravO8/mrs-dl/internal/registry"
	"github.com/GravO8/mrs-dl/internal/table"
)

func TestFilterIntervalBoundsAreExclusive(t *testing.T) {
	values := []table.Value{
		table.Number(0),
		table.Number(0.1),
		table.Number(119.9),
		table.Number(120),
		table.Number(-3),
		table.Missing(),
		table.String("abc"),
		table.String("64"),
	}

	n := FilterInterval(values, registry.Interval{Min: 0, Max: 120})

	assert.Equal(t, 4, n)
	assert.True(t, values[0].IsMissing(), "min bound is excluded")
	assert.True(t, values[3].IsMissing(), "max bound is excluded")
	assert.True(t, values[4].IsMissing())
	assert.True(t, values[5].IsMissing())
	assert.True(t, values[6].IsMissing(), "non-numeric values are outside any interval")

	assert.True(t, values[1].Equal(table.Number(0.1)), "inside values are unchanged")
	assert.True(t, values[2].Equal(table.Number(119.9)))
	assert.True(t, values[7].Equal(table.Int(64)))
}

func TestFilterSet(t *testing.T) {
	values := []table.Value{table.Int(0), table.Int(4), table.String("3"), table.Missing(), table.String("x")}

	n := FilterSet(values, []table.Value{table.Int(0), table.Int(1), table.Int(2), table.Int(3)})

	assert.Equal(t, 2, n)
	assert.False(t, values[0].IsMissing())
	assert.True(t, values[1].IsMissing())
	assert.False(t, values[2].IsMissing(), "numeric strings match numeric members")
	assert.True(t, values[3].IsMissing())
	assert.True(t, values[4].IsMissing())
}

func TestOutlierFilterApply(t *testing.T) {
	tbl, err := table.FromRows([]string{"age", "aspects-7", "untracked"}, [][]table.Value{
		{table.Int(70), table.Int(10), table.Int(-999)},
		{table.Int(150), table.Int(11), table.Int(5)},
		{table.Missing(), table.Int(0), table.Int(6)},
	})
	require.NoError(t, err)

	f := NewOutlierFilter(nil, registry.Default().Validity())
	state := NewStageState(f.ID())
	out, err := f.Apply(context.Background(), tbl, state)
	require.NoError(t, err)

	age, _ := out.Column("age")
	aspects, _ := out.Column("aspects-7")
	untracked, _ := out.Column("untracked")

	assert.False(t, age[0].IsMissing())
	assert.True(t, age[1].IsMissing())
	assert.True(t, aspects[1].IsMissing())
	assert.False(t, aspects[2].IsMissing())
	assert.True(t, untracked[0].Equal(table.Int(-999)), "columns without a rule are untouched")

	assert.Equal(t, map[string]int{"age": 1, "aspects-7": 1}, state.Nullified)
}
