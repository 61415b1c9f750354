package domain

import (
	"fmt"
	"time"
)

// FeatureSet names a model configuration and the columns it is trained on
type FeatureSet struct {
	Name    string   `json:"name" yaml:"name" validate:"required"`
	Columns []string `json:"columns" yaml:"columns" validate:"min=1,dive,required"`
}

// SearchBudget bounds the hyperparameter search of one evaluation
type SearchBudget struct {
	Iterations int    `json:"iterations" validate:"min=1"`
	InnerFolds int    `json:"inner_folds" validate:"min=2"`
	Metric     string `json:"metric" validate:"oneof=f1 accuracy precision recall roc_auc balanced_accuracy"`
	Seed       int64  `json:"seed"`
}

// Metrics are the held-out scores of one fitted model
type Metrics struct {
	F1               float64 `json:"f1"`
	Accuracy         float64 `json:"accuracy"`
	Precision        float64 `json:"precision"`
	Recall           float64 `json:"recall"`
	BalancedAccuracy float64 `json:"balanced_accuracy"`
	ROCAUC           float64 `json:"roc_auc"`
	Samples          int     `json:"samples"`
}

// MetricNames lists the metric names in report order
var MetricNames = []string{"f1", "accuracy", "precision", "recall", "balanced_accuracy", "roc_auc"}

// Value returns the named metric
func (m Metrics) Value(name string) (float64, error) {
	switch name {
	case "f1":
		return m.F1, nil
	case "accuracy":
		return m.Accuracy, nil
	case "precision":
		return m.Precision, nil
	case "recall":
		return m.Recall, nil
	case "balanced_accuracy":
		return m.BalancedAccuracy, nil
	case "roc_auc":
		return m.ROCAUC, nil
	default:
		return 0, fmt.Errorf("unknown metric %q", name)
	}
}

// PerformanceRecord is one (configuration, fold) sample of a paired experiment
type PerformanceRecord struct {
	Config       string            `json:"config"`
	Fold         int               `json:"fold"`
	Name         string            `json:"name"`
	Run          string            `json:"run"`
	Missing      string            `json:"missing"`
	Metrics      Metrics           `json:"metrics"`
	Params       map[string]string `json:"params,omitempty"`
	TrainSamples int               `json:"train_samples"`
	Duration     time.Duration     `json:"duration"`
	RecordedAt   time.Time         `json:"recorded_at"`
}
