package features

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// ErrNotFitted is returned when Transform is called before Fit
var ErrNotFitted = errors.New("scaler is not fitted")

// StandardScaler standardizes columns to zero mean and unit variance using
// statistics of the rows it was fitted on. NaN cells are ignored when fitting
// and stay NaN after transforming.
type StandardScaler struct {
	Names []string
	Mean  []float64
	Scale []float64
}

// Fit computes per-column mean and population standard deviation. Columns
// with zero spread, or no observed values, get a scale of 1.
func (s *StandardScaler) Fit(m *Matrix) error {
	s.Names = m.Names()
	s.Mean = make([]float64, m.Cols())
	s.Scale = make([]float64, m.Cols())

	for j, name := range s.Names {
		col, err := m.Column(name)
		if err != nil {
			return err
		}
		observed := col[:0]
		for _, v := range col {
			if !math.IsNaN(v) {
				observed = append(observed, v)
			}
		}

		s.Scale[j] = 1
		if len(observed) == 0 {
			continue
		}
		mean, variance := stat.PopMeanVariance(observed, nil)
		s.Mean[j] = mean
		if std := math.Sqrt(variance); std > 0 {
			s.Scale[j] = std
		}
	}
	return nil
}

// Transform returns a standardized copy of m. The columns must match the
// fitted columns by name and order.
func (s *StandardScaler) Transform(m *Matrix) (*Matrix, error) {
	if s.Names == nil {
		return nil, ErrNotFitted
	}
	names := m.Names()
	if len(names) != len(s.Names) {
		return nil, fmt.Errorf("scaler fitted on %d columns, got %d", len(s.Names), len(names))
	}
	for j := range names {
		if names[j] != s.Names[j] {
			return nil, fmt.Errorf("column %d is %q, scaler fitted on %q", j, names[j], s.Names[j])
		}
	}

	out := m.Clone()
	for i := 0; i < out.Rows(); i++ {
		for j := range names {
			out.Set(i, j, (out.At(i, j)-s.Mean[j])/s.Scale[j])
		}
	}
	return out, nil
}

// FitTransform fits on train and transforms both train and test
func (s *StandardScaler) FitTransform(train, test *Matrix) (*Matrix, *Matrix, error) {
	if err := s.Fit(train); err != nil {
		return nil, nil, err
	}
	trainOut, err := s.Transform(train)
	if err != nil {
		return nil, nil, err
	}
	testOut, err := s.Transform(test)
	if err != nil {
		return nil, nil, err
	}
	return trainOut, testOut, nil
}
