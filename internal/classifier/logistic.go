package classifier

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

var (
	// ErrNoSamples is returned when fitting on an empty matrix
	ErrNoSamples = errors.New("no samples to fit")
	// ErrNoFeatures is returned when fitting on a matrix without columns
	ErrNoFeatures = errors.New("no features to fit")
	// ErrMissingFeature is returned when a feature cell is NaN
	ErrMissingFeature = errors.New("feature matrix contains missing values")
)

const defaultTolerance = 1e-5

// Params are the hyperparameters of a logistic regression fit
type Params struct {
	// C is the inverse L2 regularization strength
	C float64
	// Balanced reweights samples inversely to class frequency
	Balanced bool
	MaxIter  int
}

// Map renders the parameters for run logs
func (p Params) Map() map[string]string {
	weight := "none"
	if p.Balanced {
		weight = "balanced"
	}
	return map[string]string{
		"C":            fmt.Sprintf("%.6g", p.C),
		"class_weight": weight,
		"max_iter":     fmt.Sprintf("%d", p.MaxIter),
	}
}

// LogisticRegression is an L2-regularized binary logistic regression trained
// with full-batch gradient descent. Labels are 0 or 1.
type LogisticRegression struct {
	Params
	Tol float64

	Weights    []float64
	Bias       float64
	Iterations int
}

// NewLogisticRegression creates an unfitted model
func NewLogisticRegression(p Params) *LogisticRegression {
	if p.C <= 0 {
		p.C = 1
	}
	if p.MaxIter <= 0 {
		p.MaxIter = 100
	}
	return &LogisticRegression{Params: p, Tol: defaultTolerance}
}

// Fit minimizes the sample-weighted mean log-loss plus ||w||^2 / (2 C n).
// The step size is the inverse of a Lipschitz bound on the gradient so the
// descent is monotone without a line search.
func (m *LogisticRegression) Fit(x mat.Matrix, y []int) error {
	n, d := x.Dims()
	if n == 0 {
		return ErrNoSamples
	}
	if d == 0 {
		return ErrNoFeatures
	}
	if len(y) != n {
		return fmt.Errorf("got %d labels for %d rows", len(y), n)
	}
	for i, label := range y {
		if label != 0 && label != 1 {
			return fmt.Errorf("label %d at row %d is not binary", label, i)
		}
	}
	if err := checkFinite(x); err != nil {
		return err
	}

	weights := sampleWeights(y, m.Balanced)
	total := 0.0
	lipschitz := 0.0
	for i := 0; i < n; i++ {
		norm := 1.0
		for j := 0; j < d; j++ {
			v := x.At(i, j)
			norm += v * v
		}
		lipschitz += weights[i] * norm
		total += weights[i]
	}
	lambda := 1 / (m.C * total)
	step := 1 / (0.25*lipschitz/total + lambda)

	w := mat.NewVecDense(d, nil)
	z := mat.NewVecDense(n, nil)
	residual := mat.NewVecDense(n, nil)
	grad := mat.NewVecDense(d, nil)
	b := 0.0

	iter := 0
	for ; iter < m.MaxIter; iter++ {
		z.MulVec(x, w)
		gb := 0.0
		for i := 0; i < n; i++ {
			r := weights[i] * (sigmoid(z.AtVec(i)+b) - float64(y[i])) / total
			residual.SetVec(i, r)
			gb += r
		}
		grad.MulVec(x.T(), residual)
		grad.AddScaledVec(grad, lambda, w)

		if math.Abs(gb) < m.Tol && mat.Norm(grad, math.Inf(1)) < m.Tol {
			break
		}
		w.AddScaledVec(w, -step, grad)
		b -= step * gb
	}

	m.Weights = mat.Col(nil, 0, w)
	m.Bias = b
	m.Iterations = iter
	return nil
}

// PredictProba returns the positive-class probability of each row
func (m *LogisticRegression) PredictProba(x mat.Matrix) ([]float64, error) {
	n, d := x.Dims()
	if m.Weights == nil {
		return nil, errors.New("model is not fitted")
	}
	if d != len(m.Weights) {
		return nil, fmt.Errorf("model has %d features, got %d", len(m.Weights), d)
	}
	if n == 0 {
		return []float64{}, nil
	}
	if err := checkFinite(x); err != nil {
		return nil, err
	}

	z := mat.NewVecDense(n, nil)
	z.MulVec(x, mat.NewVecDense(d, append([]float64(nil), m.Weights...)))
	out := make([]float64, n)
	for i := range out {
		out[i] = sigmoid(z.AtVec(i) + m.Bias)
	}
	return out, nil
}

// Threshold turns probabilities into labels
func Threshold(proba []float64, cutoff float64) []int {
	out := make([]int, len(proba))
	for i, p := range proba {
		if p >= cutoff {
			out[i] = 1
		}
	}
	return out
}

// sampleWeights follows scikit-learn's "balanced" class weights:
// n_samples / (n_classes * count(class)).
func sampleWeights(y []int, balanced bool) []float64 {
	out := make([]float64, len(y))
	if !balanced {
		for i := range out {
			out[i] = 1
		}
		return out
	}
	var counts [2]int
	for _, label := range y {
		counts[label]++
	}
	classes := 0
	for _, c := range counts {
		if c > 0 {
			classes++
		}
	}
	for i, label := range y {
		out[i] = float64(len(y)) / float64(classes*counts[label])
	}
	return out
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}

func checkFinite(x mat.Matrix) error {
	n, d := x.Dims()
	for i := 0; i < n; i++ {
		for j := 0; j < d; j++ {
			v := x.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("%w: row %d column %d", ErrMissingFeature, i, j)
			}
		}
	}
	return nil
}
