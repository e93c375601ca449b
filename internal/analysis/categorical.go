package analysis

import (
	"fmt"
	"sort"

	"salescope/internal/dataset"
)

// CategoricalView is the top-N frequency bar chart for a categorical column.
type CategoricalView struct {
	Availability
	Column string       `json:"column,omitempty"`
	TopN   int          `json:"top_n,omitempty"`
	Counts []ValueCount `json:"counts,omitempty"`
}

// BuildCategorical renders the top-N most frequent values of the chosen
// categorical column, descending by count, ties broken by first appearance in
// column order. topN <= 0 falls back to DefaultTopN.
func BuildCategorical(t *dataset.Table, column string, topN int) CategoricalView {
	if topN <= 0 {
		topN = DefaultTopN
	}

	if column == "" {
		return CategoricalView{Availability: Unavailable("no categorical columns found")}
	}
	idx := t.ColumnIndex(column)
	if idx < 0 {
		return CategoricalView{Availability: Unavailable(fmt.Sprintf("column %q does not exist", column))}
	}
	if t.Columns[idx].Kind != dataset.KindCategorical {
		return CategoricalView{Availability: Unavailable(fmt.Sprintf("column %q is not categorical", column))}
	}

	counts := make(map[string]int)
	firstSeen := make(map[string]int)
	for i, row := range t.Rows {
		cell := row[idx]
		if cell.Missing {
			continue
		}
		if _, ok := counts[cell.Str]; !ok {
			firstSeen[cell.Str] = i
		}
		counts[cell.Str]++
	}

	if len(counts) == 0 {
		return CategoricalView{Availability: Unavailable(fmt.Sprintf("column %q has no values", column))}
	}

	ordered := make([]ValueCount, 0, len(counts))
	for value, count := range counts {
		ordered = append(ordered, ValueCount{Value: value, Count: count})
	}
	sort.SliceStable(ordered, func(a, b int) bool {
		if ordered[a].Count != ordered[b].Count {
			return ordered[a].Count > ordered[b].Count
		}
		return firstSeen[ordered[a].Value] < firstSeen[ordered[b].Value]
	})

	if len(ordered) > topN {
		ordered = ordered[:topN]
	}

	return CategoricalView{
		Availability: Rendered(),
		Column:       column,
		TopN:         topN,
		Counts:       ordered,
	}
}
