package results

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/GravO8/mrs-dl/internal/experiment"
)

// Summary is the spread of one metric of one configuration over the paired folds
type Summary struct {
	Config string
	Folds  int
	Mean   float64
	// Std is the sample standard deviation; NaN with fewer than two folds
	Std float64
	Min float64
	Max float64
}

// Summarize returns one Summary per recorded configuration, in recording
// order, over the folds every configuration completed
func Summarize(store *experiment.Store, metric string) ([]Summary, error) {
	configs := store.Configs()
	_, values, err := store.Paired(metric, configs...)
	if err != nil {
		return nil, err
	}

	out := make([]Summary, 0, len(configs))
	for _, c := range configs {
		series := values[c]
		s := Summary{Config: c, Folds: len(series), Mean: math.NaN(), Std: math.NaN(), Min: math.NaN(), Max: math.NaN()}
		if len(series) > 0 {
			s.Mean = stat.Mean(series, nil)
			s.Min, s.Max = series[0], series[0]
			for _, v := range series[1:] {
				s.Min = math.Min(s.Min, v)
				s.Max = math.Max(s.Max, v)
			}
		}
		if len(series) > 1 {
			s.Std = stat.StdDev(series, nil)
		}
		out = append(out, s)
	}
	return out, nil
}
