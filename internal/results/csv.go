package results

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/GravO8/mrs-dl/internal/infrastructure"
	"github.com/GravO8/mrs-dl/pkg/contracts/domain"
)

// RunLogName is the file name of the append-only performance log
const RunLogName = "performance.csv"

// RunLogHeaders is the column layout of the performance log
var RunLogHeaders = []string{
	"run_id", "name", "run", "config", "fold", "missing",
	"f1", "accuracy", "precision", "recall", "balanced_accuracy", "roc_auc",
	"samples", "train_samples", "duration_seconds", "params", "recorded_at",
}

// RunLog appends one CSV row per performance record. Runs share the file;
// the run_id column tells them apart.
type RunLog struct {
	mu     sync.Mutex
	path   string
	file   *os.File
	writer *csv.Writer
	logger *slog.Logger
}

// OpenRunLog opens path for appending, writing the header when the file is new
func OpenRunLog(logger *slog.Logger, path string) (*RunLog, error) {
	logger = infrastructure.WithComponent(logger, "run_log")

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	isNew := true
	if info, err := os.Stat(path); err == nil && info.Size() > 0 {
		isNew = false
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	writer := csv.NewWriter(file)
	if isNew {
		if err := writer.Write(RunLogHeaders); err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to write headers: %w", err)
		}
		writer.Flush()
		if err := writer.Error(); err != nil {
			file.Close()
			return nil, err
		}
	}

	logger.Info("Opened performance log",
		slog.String("file_path", path),
		slog.Bool("new_file", isNew))

	return &RunLog{path: path, file: file, writer: writer, logger: logger}, nil
}

// Path returns the log file path
func (l *RunLog) Path() string { return l.path }

// Record appends rec and flushes it to disk
func (l *RunLog) Record(ctx context.Context, rec domain.PerformanceRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.writer.Write(RunLogRow(infrastructure.GetTraceID(ctx), rec)); err != nil {
		return fmt.Errorf("failed to write record %s: %w", rec.Name, err)
	}
	l.writer.Flush()
	return l.writer.Error()
}

// Close flushes and closes the log
func (l *RunLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.writer.Flush()
	if err := l.writer.Error(); err != nil {
		l.file.Close()
		return err
	}
	return l.file.Close()
}

// RunLogRow formats rec in RunLogHeaders order
func RunLogRow(runID string, rec domain.PerformanceRecord) []string {
	m := rec.Metrics
	return []string{
		runID,
		rec.Name,
		rec.Run,
		rec.Config,
		strconv.Itoa(rec.Fold),
		rec.Missing,
		formatFloat(m.F1),
		formatFloat(m.Accuracy),
		formatFloat(m.Precision),
		formatFloat(m.Recall),
		formatFloat(m.BalancedAccuracy),
		formatFloat(m.ROCAUC),
		strconv.Itoa(m.Samples),
		strconv.Itoa(rec.TrainSamples),
		formatFloat(rec.Duration.Seconds()),
		formatParams(rec.Params),
		rec.RecordedAt.Format(time.RFC3339),
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// formatParams writes params as key=value pairs sorted by key
func formatParams(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + params[k]
	}
	return strings.Join(parts, ";")
}
