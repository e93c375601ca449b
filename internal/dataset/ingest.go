package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// missingMarkers are the textual values treated as missing on ingest.
var missingMarkers = map[string]bool{
	"":     true,
	"na":   true,
	"n/a":  true,
	"nan":  true,
	"null": true,
}

// dateLayouts are attempted in order when coercing a date-named column.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"01/02/2006",
	"02-01-2006",
}

// ParseCSV reads delimited text into a Table and classifies every column.
// Parsing is all-or-nothing: any structural CSV error is fatal and no partial
// table is returned.
//
// Classification happens once, here:
//   - a column whose name contains "date" (case-insensitive) is datetime;
//     values that fail coercion become missing, never errors
//   - otherwise numeric if every non-missing value parses as a float
//     (thousands separators tolerated)
//   - otherwise categorical; a column with no non-missing values at all is
//     unclassified
func ParseCSV(r io.Reader, logger *slog.Logger) (*Table, error) {
	if logger == nil {
		logger = slog.Default()
	}

	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("failed to parse CSV: file is empty")
	}

	header := records[0]
	if err := validateHeader(header); err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %w", err)
	}

	raw := records[1:]
	table := &Table{Columns: make([]Column, len(header))}
	for i, name := range header {
		table.Columns[i] = Column{Name: strings.TrimSpace(name), Kind: KindUnclassified}
	}

	// First pass: raw cells with missing markers resolved.
	table.Rows = make([][]Cell, len(raw))
	for i, record := range raw {
		row := make([]Cell, len(header))
		for j := range header {
			var text string
			if j < len(record) {
				text = strings.TrimSpace(record[j])
			}
			row[j] = Cell{Raw: text, Str: text, Missing: IsMissingMarker(text)}
		}
		table.Rows[i] = row
	}

	// Second pass: per-column kind decision and cell coercion.
	for j := range table.Columns {
		classifyColumn(table, j)
	}

	numeric, categorical, datetime := table.Buckets()
	logger.Info("parsed CSV upload",
		slog.Int("rows", len(table.Rows)),
		slog.Int("columns", len(table.Columns)),
		slog.Int("numeric_columns", len(numeric)),
		slog.Int("categorical_columns", len(categorical)),
		slog.Int("datetime_columns", len(datetime)))

	return table, nil
}

// IsMissingMarker reports whether the trimmed text denotes a missing value.
func IsMissingMarker(text string) bool {
	return missingMarkers[strings.ToLower(strings.TrimSpace(text))]
}

func validateHeader(header []string) error {
	if len(header) == 0 {
		return fmt.Errorf("header row is empty")
	}
	seen := make(map[string]bool, len(header))
	for i, name := range header {
		trimmed := strings.TrimSpace(name)
		if trimmed == "" {
			return fmt.Errorf("column %d has a blank name", i+1)
		}
		if seen[trimmed] {
			return fmt.Errorf("duplicate column name %q", trimmed)
		}
		seen[trimmed] = true
	}
	return nil
}

func classifyColumn(t *Table, col int) {
	name := t.Columns[col].Name

	if strings.Contains(strings.ToLower(name), "date") {
		t.Columns[col].Kind = KindDatetime
		for i := range t.Rows {
			cell := &t.Rows[i][col]
			if cell.Missing {
				continue
			}
			if ts, ok := parseDate(cell.Raw); ok {
				cell.Time = ts
			} else {
				cell.Missing = true
			}
		}
		return
	}

	numericCount, nonMissing := 0, 0
	for i := range t.Rows {
		cell := t.Rows[i][col]
		if cell.Missing {
			continue
		}
		nonMissing++
		if _, ok := parseNumeric(cell.Raw); ok {
			numericCount++
		}
	}

	if nonMissing == 0 {
		t.Columns[col].Kind = KindUnclassified
		return
	}

	if numericCount == nonMissing {
		t.Columns[col].Kind = KindNumeric
		for i := range t.Rows {
			cell := &t.Rows[i][col]
			if cell.Missing {
				continue
			}
			num, _ := parseNumeric(cell.Raw)
			cell.Num = num
		}
		return
	}

	t.Columns[col].Kind = KindCategorical
}

// parseNumeric tolerates thousands separators, the way exchange report cells
// arrive ("1,234.50").
func parseNumeric(text string) (float64, bool) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(text), ",", "")
	if cleaned == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func parseDate(text string) (time.Time, bool) {
	trimmed := strings.TrimSpace(text)
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, trimmed); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}
