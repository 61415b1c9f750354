package results

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	apperrors "github.com/GravO8/mrs-dl/internal/errors"
	"github.com/GravO8/mrs-dl/internal/experiment"
	"github.com/GravO8/mrs-dl/pkg/contracts/domain"
)

// WorkbookName is the file name of the paired metrics workbook
const WorkbookName = "paired_metrics.xlsx"

// RecordsSheet lists every record of the run
const RecordsSheet = "records"

// WriteWorkbook writes the run to an xlsx file: a records sheet, then one
// sheet per metric with a row per paired fold, a column per configuration
// and mean/std rows underneath.
func WriteWorkbook(path string, store *experiment.Store) error {
	slog.Info("Writing results workbook",
		slog.String("file_path", path),
		slog.Int("record_count", store.Len()))

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return apperrors.NewStorageError("failed to create results directory", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", RecordsSheet); err != nil {
		return apperrors.NewStorageError("failed to name records sheet", err)
	}
	if err := writeRecords(f, store.Records()); err != nil {
		return err
	}

	for _, metric := range domain.MetricNames {
		if _, err := f.NewSheet(metric); err != nil {
			return apperrors.NewStorageError("failed to add sheet", err).WithContext("sheet", metric)
		}
		if err := writeMetricSheet(f, metric, store); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return apperrors.NewStorageError("failed to save workbook", err).WithContext("path", path)
	}
	return nil
}

func writeRecords(f *excelize.File, records []domain.PerformanceRecord) error {
	headers := RunLogHeaders[1:]
	if err := setRow(f, RecordsSheet, 1, toCells(headers)); err != nil {
		return err
	}
	for i, rec := range records {
		m := rec.Metrics
		row := []interface{}{
			rec.Name, rec.Run, rec.Config, rec.Fold, rec.Missing,
			m.F1, m.Accuracy, m.Precision, m.Recall, m.BalancedAccuracy, m.ROCAUC,
			m.Samples, rec.TrainSamples, rec.Duration.Seconds(),
			formatParams(rec.Params), rec.RecordedAt.Format(time.RFC3339),
		}
		if err := setRow(f, RecordsSheet, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func writeMetricSheet(f *excelize.File, metric string, store *experiment.Store) error {
	configs := store.Configs()
	folds, values, err := store.Paired(metric, configs...)
	if err != nil {
		return err
	}

	header := append([]interface{}{"fold"}, toCells(configs)...)
	if err := setRow(f, metric, 1, header); err != nil {
		return err
	}
	for i, fold := range folds {
		row := []interface{}{fold}
		for _, c := range configs {
			row = append(row, values[c][i])
		}
		if err := setRow(f, metric, i+2, row); err != nil {
			return err
		}
	}

	summaries, err := Summarize(store, metric)
	if err != nil {
		return err
	}
	mean := []interface{}{"mean"}
	std := []interface{}{"std"}
	for _, s := range summaries {
		mean = append(mean, cellFloat(s.Mean))
		std = append(std, cellFloat(s.Std))
	}
	next := len(folds) + 3
	if err := setRow(f, metric, next, mean); err != nil {
		return err
	}
	return setRow(f, metric, next+1, std)
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("failed to write row %d", row), err).WithContext("sheet", sheet)
	}
	return nil
}

// cellFloat leaves undefined statistics blank
func cellFloat(v float64) interface{} {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	return v
}

func toCells(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
