package classifier

import (
	"fmt"

	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat"

	"github.com/GravO8/mrs-dl/pkg/contracts/domain"
)

// confusion counts for binary labels
type confusion struct {
	tp, fp, tn, fn int
}

func confusionOf(yTrue, yPred []int) confusion {
	var c confusion
	for i := range yTrue {
		switch {
		case yTrue[i] == 1 && yPred[i] == 1:
			c.tp++
		case yTrue[i] == 0 && yPred[i] == 1:
			c.fp++
		case yTrue[i] == 0 && yPred[i] == 0:
			c.tn++
		default:
			c.fn++
		}
	}
	return c
}

// ratio returns 0 for an empty denominator, as scikit-learn does with
// zero_division=0.
func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

func (c confusion) accuracy() float64 {
	return ratio(c.tp+c.tn, c.tp+c.tn+c.fp+c.fn)
}

func (c confusion) precision() float64 { return ratio(c.tp, c.tp+c.fp) }

func (c confusion) recall() float64 { return ratio(c.tp, c.tp+c.fn) }

func (c confusion) f1() float64 {
	return ratio(2*c.tp, 2*c.tp+c.fp+c.fn)
}

// balancedAccuracy averages the recall of the classes present in yTrue
func (c confusion) balancedAccuracy() float64 {
	sum, classes := 0.0, 0
	if c.tp+c.fn > 0 {
		sum += c.recall()
		classes++
	}
	if c.tn+c.fp > 0 {
		sum += ratio(c.tn, c.tn+c.fp)
		classes++
	}
	if classes == 0 {
		return 0
	}
	return sum / float64(classes)
}

// ROCAUC returns the area under the ROC curve of the scores. When yTrue
// holds a single class the curve is undefined and 0.5 is returned.
func ROCAUC(yTrue []int, scores []float64) float64 {
	positives := 0
	for _, label := range yTrue {
		positives += label
	}
	if positives == 0 || positives == len(yTrue) {
		return 0.5
	}

	sorted := append([]float64(nil), scores...)
	classes := make([]bool, len(yTrue))
	for i, label := range yTrue {
		classes[i] = label == 1
	}
	stat.SortWeightedLabeled(sorted, classes, nil)
	tpr, fpr, _ := stat.ROC(nil, sorted, classes, nil)
	return integrate.Trapezoidal(fpr, tpr)
}

// Evaluate scores probabilities against labels at the 0.5 threshold
func Evaluate(yTrue []int, proba []float64) domain.Metrics {
	c := confusionOf(yTrue, Threshold(proba, 0.5))
	return domain.Metrics{
		F1:               c.f1(),
		Accuracy:         c.accuracy(),
		Precision:        c.precision(),
		Recall:           c.recall(),
		BalancedAccuracy: c.balancedAccuracy(),
		ROCAUC:           ROCAUC(yTrue, proba),
		Samples:          len(yTrue),
	}
}

// Score returns a single named metric, used to rank search candidates
func Score(metric string, yTrue []int, proba []float64) (float64, error) {
	if len(yTrue) != len(proba) {
		return 0, fmt.Errorf("got %d labels for %d predictions", len(yTrue), len(proba))
	}
	return Evaluate(yTrue, proba).Value(metric)
}
