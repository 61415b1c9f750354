package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	apperrors "github.com/GravO8/mrs-dl/internal/errors"
	"github.com/GravO8/mrs-dl/internal/table"
)

const utf8BOM = "\ufeff"

// ReadTable loads a raw record table from a .csv or .xlsx file. Cells equal
// to one of markers (table.DefaultMissingMarkers when nil) become Missing and
// columns whose observed cells all read as numbers become numeric.
func ReadTable(path string, markers []string) (*table.Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return readXLSX(path, markers)
	default:
		f, err := os.Open(path)
		if err != nil {
			return nil, apperrors.NewStorageError("failed to open dataset", err).WithContext("path", path)
		}
		defer f.Close()
		return ReadCSV(f, markers)
	}
}

// ReadCSV reads a comma-separated table with a header row
func ReadCSV(r io.Reader, markers []string) (*table.Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, apperrors.NewParsingError("dataset has no header row", nil)
		}
		return nil, apperrors.NewParsingError("failed to read header", err)
	}

	var rows [][]string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, apperrors.NewParsingError("failed to read record", err).WithContext("record", len(rows)+1)
		}
		rows = append(rows, record)
	}
	return buildTable(header, rows, markers)
}

// readXLSX reads the first sheet of a workbook. The first row is the header.
func readXLSX(path string, markers []string) (*table.Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to open workbook", err).WithContext("path", path)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, apperrors.NewParsingError("workbook has no sheets", nil).WithContext("path", path)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, apperrors.NewParsingError("failed to read sheet", err).WithContext("sheet", sheets[0])
	}
	if len(rows) == 0 {
		return nil, apperrors.NewParsingError("dataset has no header row", nil).WithContext("sheet", sheets[0])
	}
	return buildTable(rows[0], rows[1:], markers)
}

func buildTable(header []string, rows [][]string, markers []string) (*table.Table, error) {
	if markers == nil {
		markers = table.DefaultMissingMarkers
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], utf8BOM)
	}

	seen := make(map[string]bool, len(header))
	for j, name := range header {
		name = strings.TrimSpace(name)
		if name == "" {
			name = fmt.Sprintf("column_%d", j)
		}
		if seen[name] {
			return nil, apperrors.NewParsingError("duplicate column in header", nil).WithContext("column", name)
		}
		seen[name] = true
		header[j] = name
	}

	t := table.New(len(rows))
	for j, name := range header {
		col := make([]table.Value, len(rows))
		for i, row := range rows {
			if j < len(row) {
				col[i] = table.ParseCell(row[j], markers)
			}
		}
		if err := t.SetColumn(name, table.InferNumeric(col)); err != nil {
			return nil, err
		}
	}
	return t, nil
}
