package dataset

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/GravO8/mrs-dl/internal/features"
	"github.com/GravO8/mrs-dl/internal/table"
)

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility
}

// WriteTable writes t to filePath as CSV. Missing cells are written empty.
func WriteTable(filePath string, t *table.Table, options WriteOptions) error {
	records := make([][]string, t.NumRows())
	columns := t.Columns()
	for i := range records {
		row := t.Row(i)
		records[i] = make([]string, len(columns))
		for j, name := range columns {
			records[i][j] = row.Get(name).String()
		}
	}
	return writeCSV(filePath, columns, records, options)
}

// WriteMatrix writes a feature subset with its labels as the last column
func WriteMatrix(filePath string, m *features.Matrix, labels []int, labelColumn string, options WriteOptions) error {
	if len(labels) != m.Rows() {
		return fmt.Errorf("got %d labels for %d rows", len(labels), m.Rows())
	}
	headers := append(m.Names(), labelColumn)
	records := make([][]string, m.Rows())
	for i := range records {
		values := m.Row(i)
		records[i] = make([]string, 0, len(headers))
		for _, v := range values {
			records[i] = append(records[i], table.Number(v).String())
		}
		records[i] = append(records[i], fmt.Sprintf("%d", labels[i]))
	}
	return writeCSV(filePath, headers, records, options)
}

func writeCSV(filePath string, headers []string, records [][]string, options WriteOptions) error {
	slog.Info("Writing CSV file",
		slog.String("file_path", filePath),
		slog.Int("record_count", len(records)))

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	if options.BOMPrefix {
		if _, err := file.Write([]byte(utf8BOM)); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(file)
	if err := writer.Write(headers); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}
	for i, record := range records {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return err
	}
	return file.Close()
}
