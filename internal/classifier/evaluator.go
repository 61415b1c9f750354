package classifier

import (
	"context"
	"log/slog"

	"github.com/GravO8/mrs-dl/internal/dataset"
	apperrors "github.com/GravO8/mrs-dl/internal/errors"
	"github.com/GravO8/mrs-dl/pkg/contracts/domain"
)

// Model is a fitted classifier that can be scored on a held-out subset
type Model interface {
	Evaluate(ctx context.Context, data dataset.DataAccess) (domain.Metrics, error)
	Params() map[string]string
}

// LogisticEvaluator tunes and fits a logistic regression on the train subset
type LogisticEvaluator struct {
	logger *slog.Logger
	sample Sampler
}

// NewLogisticEvaluator creates an evaluator. A nil sampler uses DefaultSampler.
func NewLogisticEvaluator(logger *slog.Logger, sample Sampler) *LogisticEvaluator {
	if logger == nil {
		logger = slog.Default()
	}
	if sample == nil {
		sample = DefaultSampler
	}
	return &LogisticEvaluator{
		logger: logger.With(slog.String("component", "logistic_evaluator")),
		sample: sample,
	}
}

// Fit runs the randomized search within budget on the train subset and refits
// the best candidate on all of it.
func (e *LogisticEvaluator) Fit(ctx context.Context, data dataset.DataAccess, budget domain.SearchBudget) (Model, error) {
	x, y, err := data.Set(dataset.SetTrain)
	if err != nil {
		return nil, apperrors.NewDataError("train subset unavailable", err)
	}

	search := RandomizedSearch{
		Iterations: budget.Iterations,
		InnerFolds: budget.InnerFolds,
		Metric:     budget.Metric,
		Seed:       budget.Seed,
		Sample:     e.sample,
	}
	result, err := search.Run(ctx, x, y)
	if err != nil {
		return nil, apperrors.NewEvaluationError("hyperparameter search failed", err).
			WithContext("rows", x.Rows()).
			WithContext("columns", x.Cols())
	}

	model := NewLogisticRegression(result.Best.Params)
	if err := model.Fit(x.Dense(), y); err != nil {
		return nil, apperrors.NewEvaluationError("final fit failed", err)
	}

	e.logger.DebugContext(ctx, "logistic regression fitted",
		slog.Float64("c", result.Best.Params.C),
		slog.Bool("balanced", result.Best.Params.Balanced),
		slog.Int("max_iter", result.Best.Params.MaxIter),
		slog.Float64("inner_score", result.Best.Score),
		slog.Int("iterations", model.Iterations),
		slog.Int("train_rows", x.Rows()),
	)
	return &fittedLogistic{model: model, columns: x.Names()}, nil
}

type fittedLogistic struct {
	model   *LogisticRegression
	columns []string
}

func (f *fittedLogistic) Params() map[string]string {
	return f.model.Params.Map()
}

func (f *fittedLogistic) Evaluate(ctx context.Context, data dataset.DataAccess) (domain.Metrics, error) {
	x, y, err := data.Set(dataset.SetTest)
	if err != nil {
		return domain.Metrics{}, apperrors.NewDataError("test subset unavailable", err)
	}
	x, err = x.Select(f.columns)
	if err != nil {
		return domain.Metrics{}, apperrors.NewDataError("test subset does not match the fitted columns", err)
	}
	if x.Rows() == 0 {
		return domain.Metrics{}, apperrors.NewDataError("test subset is empty", nil)
	}
	proba, err := f.model.PredictProba(x.Dense())
	if err != nil {
		return domain.Metrics{}, apperrors.NewEvaluationError("prediction failed", err)
	}
	return Evaluate(y, proba), nil
}
