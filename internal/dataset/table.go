// Package dataset holds the in-memory table model produced by CSV ingestion.
// A column's kind is decided exactly once, after parsing, and carried
// explicitly on every cell so downstream stages never re-inspect types.
package dataset

import (
	"strconv"
	"strings"
	"time"
)

// ColumnKind classifies a column after type inference.
type ColumnKind int

const (
	KindUnclassified ColumnKind = iota
	KindNumeric
	KindCategorical
	KindDatetime
)

// String returns the lowercase kind name used in API payloads.
func (k ColumnKind) String() string {
	switch k {
	case KindNumeric:
		return "numeric"
	case KindCategorical:
		return "categorical"
	case KindDatetime:
		return "datetime"
	default:
		return "unclassified"
	}
}

// Column describes one table column.
type Column struct {
	Name string     `json:"name"`
	Kind ColumnKind `json:"-"`
}

// Cell is a single typed value. Exactly one of the value fields is meaningful,
// selected by the owning column's kind; Missing overrides all of them.
// Raw preserves the original text for export and duplicate comparison.
type Cell struct {
	Missing bool
	Num     float64
	Str     string
	Time    time.Time
	Raw     string
}

// Table is an ordered sequence of rows over a fixed column set.
type Table struct {
	Columns []Column
	Rows    [][]Cell
}

// NumRows returns the current row count.
func (t *Table) NumRows() int { return len(t.Rows) }

// ColumnIndex returns the position of the named column, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Buckets returns the disjoint numeric, categorical and datetime column-name
// buckets in column order. Unclassified columns belong to no bucket.
func (t *Table) Buckets() (numeric, categorical, datetime []string) {
	for _, c := range t.Columns {
		switch c.Kind {
		case KindNumeric:
			numeric = append(numeric, c.Name)
		case KindCategorical:
			categorical = append(categorical, c.Name)
		case KindDatetime:
			datetime = append(datetime, c.Name)
		}
	}
	return numeric, categorical, datetime
}

// Clone returns a deep copy of the table. Cleaning operates on a clone so the
// original upload survives for the next render.
func (t *Table) Clone() *Table {
	out := &Table{
		Columns: make([]Column, len(t.Columns)),
		Rows:    make([][]Cell, len(t.Rows)),
	}
	copy(out.Columns, t.Columns)
	for i, row := range t.Rows {
		out.Rows[i] = make([]Cell, len(row))
		copy(out.Rows[i], row)
	}
	return out
}

// NumericValues returns the non-missing values of a numeric column in row order.
func (t *Table) NumericValues(name string) []float64 {
	idx := t.ColumnIndex(name)
	if idx < 0 || t.Columns[idx].Kind != KindNumeric {
		return nil
	}
	vals := make([]float64, 0, len(t.Rows))
	for _, row := range t.Rows {
		if !row[idx].Missing {
			vals = append(vals, row[idx].Num)
		}
	}
	return vals
}

// MissingCounts returns the number of missing cells per column, keyed by name.
func (t *Table) MissingCounts() map[string]int {
	counts := make(map[string]int, len(t.Columns))
	for _, c := range t.Columns {
		counts[c.Name] = 0
	}
	for _, row := range t.Rows {
		for i, cell := range row {
			if cell.Missing {
				counts[t.Columns[i].Name]++
			}
		}
	}
	return counts
}

// Head returns up to n rows rendered as strings, preview-style.
func (t *Table) Head(n int) [][]string {
	if n > len(t.Rows) {
		n = len(t.Rows)
	}
	out := make([][]string, 0, n)
	for _, row := range t.Rows[:n] {
		rendered := make([]string, len(row))
		for i, cell := range row {
			rendered[i] = FormatCell(cell, t.Columns[i].Kind)
		}
		out = append(out, rendered)
	}
	return out
}

// FormatCell renders a cell for previews and delimited export.
func FormatCell(c Cell, kind ColumnKind) string {
	if c.Missing {
		return ""
	}
	switch kind {
	case KindNumeric:
		return strconv.FormatFloat(c.Num, 'f', -1, 64)
	case KindDatetime:
		return c.Time.Format("2006-01-02 15:04:05")
	default:
		return c.Str
	}
}

// RowKey builds a canonical representation of a row for exact-duplicate
// detection. Two rows are duplicates iff every cell is equal, missing cells
// included. Cells are length-prefixed so no cell text can collide with the
// encoding, whatever bytes it contains.
func (t *Table) RowKey(row []Cell) string {
	var b strings.Builder
	for i, cell := range row {
		if cell.Missing {
			b.WriteString("?;")
			continue
		}
		text := FormatCell(cell, t.Columns[i].Kind)
		b.WriteString(strconv.Itoa(len(text)))
		b.WriteByte(';')
		b.WriteString(text)
	}
	return b.String()
}
