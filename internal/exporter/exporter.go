// Package exporter writes the cleaned table and its summary out as CSV, XLSX
// or JSON, for the download endpoints and the batch CLI.
package exporter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/xuri/excelize/v2"

	"salescope/internal/analysis"
	"salescope/internal/dataset"
)

// Exporter renders tables into downloadable formats.
type Exporter struct {
	logger *slog.Logger
}

// NewExporter creates an exporter. A nil logger falls back to slog.Default.
func NewExporter(logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{logger: logger.With(slog.String("component", "exporter"))}
}

// WriteCSV streams the table as CSV. The UTF-8 BOM keeps Excel happy with
// non-ASCII category names.
func (e *Exporter) WriteCSV(w io.Writer, t *dataset.Table, bomPrefix bool) error {
	if bomPrefix {
		if _, err := w.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(w)

	header := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c.Name
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write header row: %w", err)
	}

	for i, row := range t.Rows {
		record := make([]string, len(row))
		for j, cell := range row {
			record[j] = dataset.FormatCell(cell, t.Columns[j].Kind)
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// BuildXLSX assembles a workbook with the cleaned data and a summary sheet.
func (e *Exporter) BuildXLSX(t *dataset.Table, summary []analysis.ColumnSummary) (*excelize.File, error) {
	f := excelize.NewFile()

	const dataSheet = "Cleaned Data"
	if err := f.SetSheetName("Sheet1", dataSheet); err != nil {
		return nil, fmt.Errorf("failed to name data sheet: %w", err)
	}

	header := make([]interface{}, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c.Name
	}
	if err := f.SetSheetRow(dataSheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("failed to write header row: %w", err)
	}

	for i, row := range t.Rows {
		record := make([]interface{}, len(row))
		for j, cell := range row {
			if cell.Missing {
				record[j] = ""
				continue
			}
			switch t.Columns[j].Kind {
			case dataset.KindNumeric:
				record[j] = cell.Num
			default:
				record[j] = dataset.FormatCell(cell, t.Columns[j].Kind)
			}
		}
		axis, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, fmt.Errorf("failed to compute cell name for row %d: %w", i, err)
		}
		if err := f.SetSheetRow(dataSheet, axis, &record); err != nil {
			return nil, fmt.Errorf("failed to write data row %d: %w", i, err)
		}
	}

	if err := writeSummarySheet(f, summary); err != nil {
		return nil, err
	}

	e.logger.Info("assembled XLSX workbook",
		slog.Int("rows", t.NumRows()),
		slog.Int("columns", len(t.Columns)))

	return f, nil
}

func writeSummarySheet(f *excelize.File, summary []analysis.ColumnSummary) error {
	const sheet = "Summary"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create summary sheet: %w", err)
	}

	header := []interface{}{"Column", "Kind", "Count", "Unique", "Top", "Freq",
		"Mean", "Std", "Min", "Q25", "Median", "Q75", "Max"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write summary header: %w", err)
	}

	for i, s := range summary {
		row := []interface{}{
			s.Column, s.Kind, s.Count,
			optInt(s.Unique), optStr(s.Top), optInt(s.Freq),
			optFloat(s.Mean), optFloat(s.Std), optFloat(s.Min), optFloat(s.Q25),
			optFloat(s.Median), optFloat(s.Q75), optFloat(s.Max),
		}
		axis, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("failed to compute cell name for summary row %d: %w", i, err)
		}
		if err := f.SetSheetRow(sheet, axis, &row); err != nil {
			return fmt.Errorf("failed to write summary row %d: %w", i, err)
		}
	}
	return nil
}

func optInt(v *int) interface{} {
	if v == nil {
		return ""
	}
	return *v
}

func optStr(v *string) interface{} {
	if v == nil {
		return ""
	}
	return *v
}

func optFloat(v *float64) interface{} {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// ExportCSVFile writes the table to a CSV file, creating directories as needed.
func (e *Exporter) ExportCSVFile(path string, t *dataset.Table) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()
	return e.WriteCSV(file, t, true)
}

// ExportXLSXFile writes the workbook to disk.
func (e *Exporter) ExportXLSXFile(path string, t *dataset.Table, summary []analysis.ColumnSummary) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	f, err := e.BuildXLSX(t, summary)
	if err != nil {
		return err
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save XLSX file: %w", err)
	}
	return nil
}

// ExportJSONFile writes any report structure as indented JSON.
func (e *Exporter) ExportJSONFile(path string, v interface{}) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create JSON file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON report: %w", err)
	}
	return nil
}
