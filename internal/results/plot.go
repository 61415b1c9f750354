package results

import (
	"fmt"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	_ "gonum.org/v1/plot/vg/vgimg"

	apperrors "github.com/GravO8/mrs-dl/internal/errors"
	"github.com/GravO8/mrs-dl/internal/experiment"
)

// PlotName is the file name of the per-fold metric box plot
const PlotName = "fold_metrics.png"

// PlotMetric draws one box per configuration of metric over the paired folds
// and saves it to path. The format follows the file extension.
func PlotMetric(path string, store *experiment.Store, metric string) error {
	configs := store.Configs()
	if len(configs) == 0 {
		return apperrors.NewDataError("no records to plot", nil)
	}
	folds, values, err := store.Paired(metric, configs...)
	if err != nil {
		return err
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s over %d folds", metric, len(folds))
	p.Y.Label.Text = metric

	width := vg.Points(20)
	for i, c := range configs {
		box, err := plotter.NewBoxPlot(width, float64(i), plotter.Values(values[c]))
		if err != nil {
			return fmt.Errorf("box plot %s: %w", c, err)
		}
		p.Add(box)
	}
	p.NominalX(configs...)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return apperrors.NewStorageError("failed to create results directory", err)
	}
	plotWidth := vg.Length(len(configs))*vg.Inch + 2*vg.Inch
	if err := p.Save(plotWidth, 4*vg.Inch, path); err != nil {
		return apperrors.NewStorageError("failed to save plot", err).WithContext("path", path)
	}
	return nil
}
