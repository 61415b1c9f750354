package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		expected string
	}{
		{
			name:     "without cause",
			err:      NewConfigError("unknown stage \"foo\"", nil),
			expected: "[CONFIG] unknown stage \"foo\"",
		},
		{
			name:     "with cause",
			err:      NewStorageError("write run log", fmt.Errorf("disk full")),
			expected: "[STORAGE] write run log: disk full",
		},
		{
			name:     "not found",
			err:      NewNotFoundError("column age"),
			expected: "[NOT_FOUND] column age not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := NewEvaluationError("fit failed", cause)

	assert.ErrorIs(t, err, cause)

	wrapped := fmt.Errorf("fold 3: %w", err)
	var appErr *AppError
	require.True(t, errors.As(wrapped, &appErr))
	assert.Equal(t, ErrTypeEvaluation, appErr.Type)
}

func TestAppError_WithContext(t *testing.T) {
	err := NewDataError("label column has no rows", nil).
		WithContext("column", "binary_rankin").
		WithContext("rows", 0)

	assert.Equal(t, "binary_rankin", err.Context["column"])
	assert.Equal(t, 0, err.Context["rows"])

	bare := &AppError{Type: ErrTypeData}
	bare.WithContext("k", "v")
	assert.Equal(t, "v", bare.Context["k"])
}

func TestIsType(t *testing.T) {
	err := fmt.Errorf("resolve keep columns: %w", NewConfigError("unknown stage", nil))

	assert.True(t, IsType(err, ErrTypeConfig))
	assert.False(t, IsType(err, ErrTypeData))
	assert.False(t, IsType(errors.New("plain"), ErrTypeConfig))
	assert.False(t, IsType(nil, ErrTypeConfig))
}
