package analysis

import (
	"salescope/internal/dataset"
	"salescope/internal/stats"
)

// ColumnSummary is one row of the mixed describe table. Numeric fields are
// populated for numeric columns, frequency fields for everything else;
// pointers keep absent statistics distinguishable from zeroes.
type ColumnSummary struct {
	Column string `json:"column"`
	Kind   string `json:"kind"`
	Count  int    `json:"count"`

	Unique *int    `json:"unique,omitempty"`
	Top    *string `json:"top,omitempty"`
	Freq   *int    `json:"freq,omitempty"`

	Mean   *float64 `json:"mean,omitempty"`
	Std    *float64 `json:"std,omitempty"`
	Min    *float64 `json:"min,omitempty"`
	Q25    *float64 `json:"q25,omitempty"`
	Median *float64 `json:"median,omitempty"`
	Q75    *float64 `json:"q75,omitempty"`
	Max    *float64 `json:"max,omitempty"`
}

// Describe computes per-column descriptive statistics over all columns
// jointly, the transposed describe(include="all") table. Pure read.
func Describe(t *dataset.Table) []ColumnSummary {
	out := make([]ColumnSummary, 0, len(t.Columns))
	for i, col := range t.Columns {
		summary := ColumnSummary{Column: col.Name, Kind: col.Kind.String()}

		if col.Kind == dataset.KindNumeric {
			values := t.NumericValues(col.Name)
			summary.Count = len(values)
			if len(values) > 0 {
				min, max := stats.MinMax(values)
				summary.Mean = ptr(stats.Mean(values))
				summary.Std = ptr(stats.Std(values))
				summary.Min = ptr(min)
				summary.Q25 = ptr(stats.Quantile(values, 0.25))
				summary.Median = ptr(stats.Median(values))
				summary.Q75 = ptr(stats.Quantile(values, 0.75))
				summary.Max = ptr(max)
			}
			out = append(out, summary)
			continue
		}

		counts := make(map[string]int)
		order := make([]string, 0)
		for _, row := range t.Rows {
			cell := row[i]
			if cell.Missing {
				continue
			}
			key := dataset.FormatCell(cell, col.Kind)
			if _, ok := counts[key]; !ok {
				order = append(order, key)
			}
			counts[key]++
			summary.Count++
		}
		if len(order) > 0 {
			top := order[0]
			for _, key := range order[1:] {
				if counts[key] > counts[top] {
					top = key
				}
			}
			unique := len(order)
			freq := counts[top]
			summary.Unique = &unique
			summary.Top = &top
			summary.Freq = &freq
		}
		out = append(out, summary)
	}
	return out
}

func ptr(v float64) *float64 { return &v }
