package dataset

import (
	"github.com/GravO8/mrs-dl/internal/features"
)

// Subset names
const (
	SetTrain      = "train"
	SetValidation = "val"
	SetTest       = "test"
)

// DataAccess exposes named subsets of a labelled feature matrix. Set returns
// the subset's feature matrix and integer labels. Column and SetColumn work
// on one feature column of a subset; SetColumn appends the column when it is
// absent.
type DataAccess interface {
	AvailableSets() []string
	Set(name string) (*features.Matrix, []int, error)
	Column(set, col string) ([]float64, error)
	SetColumn(set, col string, values []float64) error
}
