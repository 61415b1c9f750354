package classifier

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/GravO8/mrs-dl/internal/dataset"
	apperrors "github.com/GravO8/mrs-dl/internal/errors"
	"github.com/GravO8/mrs-dl/internal/features"
	"github.com/GravO8/mrs-dl/pkg/contracts/domain"
)

// ASTRAL score inputs, in the order the score reads them
const (
	ASTRALAge           = "age"
	ASTRALSeverity      = "totalNIHSS-5"
	ASTRALOnset         = "time_since_onset"
	ASTRALVisual        = "altVis-5"
	ASTRALConsciousness = "altCons-5"
	ASTRALGlucose       = "gliceAd-4"
)

// ASTRALName is the configuration name the reference is recorded under
const ASTRALName = "ASTRAL"

// ASTRALColumns are the raw columns the reference scorer needs
var ASTRALColumns = []string{ASTRALAge, ASTRALSeverity, ASTRALOnset, ASTRALVisual, ASTRALConsciousness, ASTRALGlucose}

// Glucose bounds in mg/dL outside of which the score adds a point
const (
	glucoseLow  = 66
	glucoseHigh = 131
)

// ASTRALScore computes the integer ASTRAL score of one patient: one point per
// five years of age, the NIHSS total, 2 points for onset-to-scan over 3
// hours, 2 for a visual field defect, 3 for decreased consciousness and 1
// for admission glucose outside [66, 131].
func ASTRALScore(age, nihss, onsetHours, visual, consciousness, glucose float64) float64 {
	score := math.Floor(age/5) + nihss
	if onsetHours > 3 {
		score += 2
	}
	if visual > 0 {
		score += 2
	}
	if consciousness > 0 {
		score += 3
	}
	if glucose < glucoseLow || glucose > glucoseHigh {
		score++
	}
	return score
}

// ASTRALScorer is the clinical reference model. It maps each row to its
// ASTRAL score and fits a one-feature logistic regression of the outcome on
// the standardized score. It must see unnormalized clinical values.
type ASTRALScorer struct{}

// NewASTRALScorer creates the reference scorer
func NewASTRALScorer() *ASTRALScorer { return &ASTRALScorer{} }

// Name returns the configuration name
func (ASTRALScorer) Name() string { return ASTRALName }

// Columns returns the raw columns the score reads
func (ASTRALScorer) Columns() []string {
	return append([]string(nil), ASTRALColumns...)
}

// Fit scores the train subset and fits the score-to-outcome curve
func (ASTRALScorer) Fit(ctx context.Context, data dataset.DataAccess) (Model, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	x, y, err := data.Set(dataset.SetTrain)
	if err != nil {
		return nil, apperrors.NewDataError("train subset unavailable", err)
	}
	scores, err := astralScores(x)
	if err != nil {
		return nil, err
	}
	if len(scores) == 0 {
		return nil, apperrors.NewDataError("train subset is empty", nil)
	}

	mean, std := stat.PopMeanStdDev(scores, nil)
	if std == 0 || math.IsNaN(std) {
		std = 1
	}
	model := NewLogisticRegression(Params{C: 1e4, MaxIter: 2000})
	if err := model.Fit(standardized(scores, mean, std), y); err != nil {
		return nil, apperrors.NewEvaluationError("ASTRAL calibration failed", err)
	}
	return &fittedASTRAL{model: model, mean: mean, std: std}, nil
}

type fittedASTRAL struct {
	model     *LogisticRegression
	mean, std float64
}

func (f *fittedASTRAL) Params() map[string]string {
	return map[string]string{
		"score_mean": fmt.Sprintf("%.4f", f.mean),
		"score_std":  fmt.Sprintf("%.4f", f.std),
		"weight":     fmt.Sprintf("%.4f", f.model.Weights[0]),
		"bias":       fmt.Sprintf("%.4f", f.model.Bias),
	}
}

func (f *fittedASTRAL) Evaluate(ctx context.Context, data dataset.DataAccess) (domain.Metrics, error) {
	if err := ctx.Err(); err != nil {
		return domain.Metrics{}, err
	}
	x, y, err := data.Set(dataset.SetTest)
	if err != nil {
		return domain.Metrics{}, apperrors.NewDataError("test subset unavailable", err)
	}
	scores, err := astralScores(x)
	if err != nil {
		return domain.Metrics{}, err
	}
	if len(scores) == 0 {
		return domain.Metrics{}, apperrors.NewDataError("test subset is empty", nil)
	}
	proba, err := f.model.PredictProba(standardized(scores, f.mean, f.std))
	if err != nil {
		return domain.Metrics{}, apperrors.NewEvaluationError("ASTRAL prediction failed", err)
	}
	return Evaluate(y, proba), nil
}

func astralScores(x *features.Matrix) ([]float64, error) {
	cols := make([][]float64, len(ASTRALColumns))
	for k, name := range ASTRALColumns {
		col, err := x.Column(name)
		if err != nil {
			return nil, apperrors.NewDataError("ASTRAL input column missing", err).WithContext("column", name)
		}
		cols[k] = col
	}

	scores := make([]float64, x.Rows())
	for i := range scores {
		for k, col := range cols {
			if math.IsNaN(col[i]) {
				return nil, apperrors.NewDataError("ASTRAL input is missing", nil).
					WithContext("column", ASTRALColumns[k]).
					WithContext("row", i)
			}
		}
		scores[i] = ASTRALScore(cols[0][i], cols[1][i], cols[2][i], cols[3][i], cols[4][i], cols[5][i])
	}
	return scores, nil
}

func standardized(scores []float64, mean, std float64) *mat.Dense {
	out := make([]float64, len(scores))
	for i, s := range scores {
		out[i] = (s - mean) / std
	}
	return mat.NewDense(len(out), 1, out)
}
