package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GravO8/mrs-dl/internal/config"
	"github.com/GravO8/mrs-dl/internal/infrastructure"
)

func TestNewWithDefaults(t *testing.T) {
	defer infrastructure.ResetLoggerForTesting()

	application, err := NewWithConfig(config.Default())
	require.NoError(t, err)
	defer application.Close(context.Background())

	assert.NotNil(t, application.Logger)
	assert.NotNil(t, application.Metrics)
	assert.NotNil(t, application.Preprocessor)
	assert.NotEmpty(t, application.Registry.Stages())
	assert.Nil(t, application.OTelProviders.PrometheusHTTP)

	// no address, no server
	application.StartTelemetryServer(context.Background(), func() {}, nil)
	assert.Nil(t, application.Server)
}

func TestNewWithMissingRegistryFile(t *testing.T) {
	defer infrastructure.ResetLoggerForTesting()

	cfg := config.Default()
	cfg.Dataset.RegistryFile = filepath.Join(t.TempDir(), "missing.yaml")

	_, err := NewWithConfig(cfg)
	assert.Error(t, err)
}

func TestLoadDataset(t *testing.T) {
	defer infrastructure.ResetLoggerForTesting()

	path := filepath.Join(t.TempDir(), "trial.csv")
	content := "NCCT,dataNascimento-1,dataAVC-4,data-7,instAVCpre-4,totalNIHSS-5,binary_rankin\n" +
		"OK,1950-06-15,2020-06-10 08:00:00,2020-06-10 10:30:00,1,12,1\n" +
		"OK,1940-01-01,2020-06-10 08:00:00,2020-06-10 09:00:00,1,4,0\n" +
		"OK,1960-03-03,2020-06-11 08:00:00,2020-06-11 12:00:00,1,20,1\n" +
		"OK,1980-05-05,2020-06-12 08:00:00,2020-06-12 11:00:00,1,2,0\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg := config.Default()
	cfg.Dataset.Path = path
	cfg.Dataset.KeepStage = ""
	cfg.Dataset.KeepColumns = []string{"age", "totalNIHSS-5"}
	cfg.Dataset.FilterOutNoNCCT = false

	application, err := NewWithConfig(cfg)
	require.NoError(t, err)
	defer application.Close(context.Background())

	loader, err := application.LoadDataset(context.Background())
	require.NoError(t, err)

	x, y, err := loader.Set("train")
	require.NoError(t, err)
	assert.Equal(t, 4, x.Rows())
	assert.Len(t, y, 4)
}
