package preprocessing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/GravO8/mrs-dl/internal/errors"
	"github.com/GravO8/mrs-dl/internal/table"
)

func TestParseDateMissingSentinels(t *testing.T) {
	tests := []struct {
		name string
		raw  table.Value
	}{
		{"missing", table.Missing()},
		{"none string", table.String("None")},
		{"zero string", table.String("0")},
		{"zero number", table.Int(0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDate(tt.raw)
			assert.ErrorIs(t, err, ErrMissingValue)
		})
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		raw  string
		want time.Time
	}{
		{"2020-06-10 14:30:15", time.Date(2020, 6, 10, 14, 30, 15, 0, time.UTC)},
		{"2020-06-10T14:30:15", time.Date(2020, 6, 10, 14, 30, 15, 0, time.UTC)},
		{"2020-06-10 14:30:15.123456", time.Date(2020, 6, 10, 14, 30, 15, 0, time.UTC)},
		{"2020-06-10 14:30:15+01:00", time.Date(2020, 6, 10, 14, 30, 15, 0, time.UTC)},
		{"2020-06-10 14:30", time.Date(2020, 6, 10, 14, 30, 0, 0, time.UTC)},
		{"2020-06-10", time.Date(2020, 6, 10, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseDate(table.String(tt.raw))
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s", got)
		})
	}
}

func TestParseDateMalformed(t *testing.T) {
	for _, raw := range []table.Value{table.String("yesterday"), table.String("2020-13-45"), table.Int(20200610)} {
		_, err := ParseDate(raw)
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrMissingValue)
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeParsing))
	}
}

func TestParseBooleanToken(t *testing.T) {
	tests := []struct {
		token string
		want  bool
	}{
		{"True", true},
		{" true", true},
		{"TRUE ", true},
		{"tr ue", true},
		{"False", false},
		{"1", false},
		{"yes", false},
		// unrecognised tokens are false, never missing
		{"", false},
		{"None", false},
	}
	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseBooleanToken(tt.token))
		})
	}
}
