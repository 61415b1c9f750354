package experiment

import (
	"fmt"

	"github.com/GravO8/mrs-dl/internal/dataset"
	apperrors "github.com/GravO8/mrs-dl/internal/errors"
	"github.com/GravO8/mrs-dl/internal/features"
)

type foldSet struct {
	x *features.Matrix
	y []int
}

// FoldLoader exposes one fold's train and test slices through dataset.DataAccess
type FoldLoader struct {
	sets map[string]*foldSet
}

// NewFoldLoader wraps the given slices. The loader owns them from then on.
func NewFoldLoader(xTrain *features.Matrix, yTrain []int, xTest *features.Matrix, yTest []int) (*FoldLoader, error) {
	if xTrain.Rows() != len(yTrain) {
		return nil, fmt.Errorf("train: %d rows, %d labels", xTrain.Rows(), len(yTrain))
	}
	if xTest.Rows() != len(yTest) {
		return nil, fmt.Errorf("test: %d rows, %d labels", xTest.Rows(), len(yTest))
	}
	return &FoldLoader{sets: map[string]*foldSet{
		dataset.SetTrain: {x: xTrain, y: yTrain},
		dataset.SetTest:  {x: xTest, y: yTest},
	}}, nil
}

// AvailableSets returns train and test
func (l *FoldLoader) AvailableSets() []string {
	return []string{dataset.SetTrain, dataset.SetTest}
}

// Set returns a copy of the named subset
func (l *FoldLoader) Set(name string) (*features.Matrix, []int, error) {
	s, err := l.set(name)
	if err != nil {
		return nil, nil, err
	}
	y := make([]int, len(s.y))
	copy(y, s.y)
	return s.x.Clone(), y, nil
}

// Column returns a copy of one feature column
func (l *FoldLoader) Column(set, col string) ([]float64, error) {
	s, err := l.set(set)
	if err != nil {
		return nil, err
	}
	return s.x.Column(col)
}

// SetColumn replaces or appends a feature column of a subset
func (l *FoldLoader) SetColumn(set, col string, values []float64) error {
	s, err := l.set(set)
	if err != nil {
		return err
	}
	return s.x.SetColumn(col, values)
}

func (l *FoldLoader) set(name string) (*foldSet, error) {
	s, ok := l.sets[name]
	if !ok {
		return nil, apperrors.NewNotFoundError("subset " + name)
	}
	return s, nil
}
