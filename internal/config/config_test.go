package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/GravO8/mrs-dl/internal/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mrs.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "binary_rankin", cfg.Dataset.TargetColumn)
	assert.Equal(t, "all", cfg.Dataset.SetColumn)
	assert.True(t, cfg.Dataset.JoinTrainVal)
	assert.True(t, cfg.Dataset.JoinTrainTest)
	assert.True(t, cfg.Dataset.Reshuffle)
	assert.False(t, cfg.Dataset.Normalize)
	assert.False(t, cfg.Dataset.FilterOutNoNCCT)
	assert.Equal(t, "amputate", cfg.Dataset.EmptyValues)

	assert.Equal(t, 10, cfg.Experiment.Folds)
	assert.Equal(t, 40, cfg.Experiment.SearchIterations)
	assert.Equal(t, 5, cfg.Experiment.InnerFolds)
	assert.Equal(t, "f1", cfg.Experiment.Metric)
	assert.Equal(t, 1, cfg.Experiment.Parallelism)
	assert.True(t, cfg.Experiment.Reference)
}

func TestLoadPrecedence(t *testing.T) {
	path := writeConfig(t, `
logging:
  level: debug
dataset:
  target_column: mrs90
  empty_values: mean
experiment:
  folds: 5
  metric: accuracy
  feature_sets:
    - name: tiny
      columns: [age]
`)

	t.Setenv("MRS_EXPERIMENT_FOLDS", "7")
	t.Setenv("MRS_DATASET_KEEP_COLUMNS", "age,totalNIHSS-5")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level, "file overrides default")
	assert.Equal(t, "mrs90", cfg.Dataset.TargetColumn)
	assert.Equal(t, "mean", cfg.Dataset.EmptyValues)
	assert.Equal(t, "accuracy", cfg.Experiment.Metric)
	assert.Equal(t, 7, cfg.Experiment.Folds, "env overrides file")
	assert.Equal(t, []string{"age", "totalNIHSS-5"}, cfg.Dataset.KeepColumns)
	assert.Equal(t, 40, cfg.Experiment.SearchIterations, "absent keys keep defaults")
	require.Len(t, cfg.Experiment.FeatureSets, 1)
	assert.Equal(t, "tiny", cfg.Experiment.FeatureSets[0].Name)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown empty values method", "dataset:\n  empty_values: drop\n"},
		{"single fold", "experiment:\n  folds: 1\n"},
		{"unknown metric", "experiment:\n  metric: logloss\n"},
		{"feature set without columns", "experiment:\n  feature_sets:\n    - name: empty\n"},
		{"unknown key", "experiment:\n  fold: 3\n"},
		{"bad exporter", "telemetry:\n  trace_exporter: jaeger\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig))
		})
	}
}

func TestLoadInvalidEnv(t *testing.T) {
	t.Setenv("MRS_EXPERIMENT_FOLDS", "ten")
	_, err := Load(writeConfig(t, ""))
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
