package classifier

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/GravO8/mrs-dl/internal/features"
	"github.com/GravO8/mrs-dl/internal/folds"
)

// Sampler draws one hyperparameter candidate
type Sampler func(r *rand.Rand) Params

// maxIterChoices are the iteration caps a candidate can draw
var maxIterChoices = []int{200, 500, 1000}

// DefaultSampler draws C log-uniformly from [1e-3, 1e2], class weighting
// uniformly from {none, balanced} and an iteration cap from maxIterChoices.
func DefaultSampler(r *rand.Rand) Params {
	return Params{
		C:        math.Pow(10, -3+5*r.Float64()),
		Balanced: r.Intn(2) == 1,
		MaxIter:  maxIterChoices[r.Intn(len(maxIterChoices))],
	}
}

// RandomizedSearch picks logistic regression hyperparameters by mean inner
// cross-validation score over a fixed number of sampled candidates.
type RandomizedSearch struct {
	Iterations int
	InnerFolds int
	Metric     string
	Seed       int64
	Sample     Sampler
}

// Candidate is one evaluated hyperparameter draw
type Candidate struct {
	Params Params
	Score  float64
}

// SearchResult holds the winning candidate and every candidate tried, in draw order
type SearchResult struct {
	Best       Candidate
	Candidates []Candidate
}

// Run evaluates Iterations candidates on x and y. The first candidate with
// the highest mean score wins. The same seed always yields the same result.
func (s RandomizedSearch) Run(ctx context.Context, x *features.Matrix, y []int) (SearchResult, error) {
	if s.Iterations < 1 {
		return SearchResult{}, fmt.Errorf("search needs at least one iteration, got %d", s.Iterations)
	}
	if x.Rows() != len(y) {
		return SearchResult{}, fmt.Errorf("got %d labels for %d rows", len(y), x.Rows())
	}
	if x.Cols() == 0 {
		return SearchResult{}, ErrNoFeatures
	}
	sample := s.Sample
	if sample == nil {
		sample = DefaultSampler
	}

	splits, err := folds.StratifiedKFold{NSplits: s.InnerFolds}.Split(y)
	if err != nil {
		return SearchResult{}, fmt.Errorf("inner folds: %w", err)
	}

	// slice every inner fold once, candidates only refit
	type innerFold struct {
		train, test   *mat.Dense
		yTrain, yTest []int
	}
	inner := make([]innerFold, len(splits))
	for k, split := range splits {
		inner[k] = innerFold{
			train:  x.RowsAt(split.Train).Dense(),
			test:   x.RowsAt(split.Test).Dense(),
			yTrain: pick(y, split.Train),
			yTest:  pick(y, split.Test),
		}
	}

	rng := rand.New(rand.NewSource(s.Seed))
	result := SearchResult{
		Best:       Candidate{Score: math.Inf(-1)},
		Candidates: make([]Candidate, 0, s.Iterations),
	}
	for it := 0; it < s.Iterations; it++ {
		if err := ctx.Err(); err != nil {
			return SearchResult{}, err
		}
		params := sample(rng)

		total := 0.0
		for _, f := range inner {
			model := NewLogisticRegression(params)
			if err := model.Fit(f.train, f.yTrain); err != nil {
				return SearchResult{}, fmt.Errorf("candidate %d: %w", it, err)
			}
			proba, err := model.PredictProba(f.test)
			if err != nil {
				return SearchResult{}, fmt.Errorf("candidate %d: %w", it, err)
			}
			score, err := Score(s.Metric, f.yTest, proba)
			if err != nil {
				return SearchResult{}, err
			}
			total += score
		}

		c := Candidate{Params: params, Score: total / float64(len(inner))}
		result.Candidates = append(result.Candidates, c)
		if c.Score > result.Best.Score {
			result.Best = c
		}
	}
	return result, nil
}

func pick(y []int, indices []int) []int {
	out := make([]int, len(indices))
	for k, i := range indices {
		out[k] = y[i]
	}
	return out
}
