package results

import (
	"context"
	"log/slog"

	"github.com/GravO8/mrs-dl/internal/experiment"
	"github.com/GravO8/mrs-dl/pkg/contracts/domain"
)

// Recorders sends each record to every recorder in order, stopping at the
// first failure
type Recorders []experiment.Recorder

// Record implements experiment.Recorder
func (rs Recorders) Record(ctx context.Context, rec domain.PerformanceRecord) error {
	for _, r := range rs {
		if err := r.Record(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}

// LogRecorder writes each record to a structured logger
type LogRecorder struct {
	logger *slog.Logger
}

// NewLogRecorder creates a recorder logging at info level
func NewLogRecorder(logger *slog.Logger) *LogRecorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogRecorder{logger: logger.With(slog.String("component", "performance"))}
}

// Record implements experiment.Recorder
func (r *LogRecorder) Record(ctx context.Context, rec domain.PerformanceRecord) error {
	r.logger.InfoContext(ctx, "Performance recorded",
		slog.String("name", rec.Name),
		slog.String("run", rec.Run),
		slog.String("missing", rec.Missing),
		slog.Float64("f1", rec.Metrics.F1),
		slog.Float64("balanced_accuracy", rec.Metrics.BalancedAccuracy),
		slog.Float64("roc_auc", rec.Metrics.ROCAUC))
	return nil
}
