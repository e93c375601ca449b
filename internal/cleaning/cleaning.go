// Package cleaning implements the sequential cleaning stage: deduplication,
// missing-value handling under a user-chosen policy, and invalid-row
// filtering. Each step reports how many rows it affected; reporting is
// advisory and never blocks the next step.
package cleaning

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"salescope/internal/dataset"
	"salescope/internal/stats"
)

// Policy selects the missing-value handling strategy. Exactly one is active
// per render.
type Policy string

const (
	// PolicyDrop removes any row containing a missing value in any column.
	PolicyDrop Policy = "drop"
	// PolicyImpute fills numeric columns with their median and other columns
	// with their mode (ties broken by first appearance in column order).
	PolicyImpute Policy = "impute"
	// PolicyConstant fills numeric columns with 0 and categorical columns with
	// the literal "Unknown". Datetime columns are left untouched; a text
	// constant has no datetime representation.
	PolicyConstant Policy = "constant"
)

// ConstantFillText is the fill value for non-numeric columns under PolicyConstant.
const ConstantFillText = "Unknown"

// ParsePolicy maps user input to a supported policy.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case PolicyDrop:
		return PolicyDrop, nil
	case PolicyImpute, "":
		return PolicyImpute, nil
	case PolicyConstant:
		return PolicyConstant, nil
	default:
		return "", fmt.Errorf("unsupported missing-value policy %q", s)
	}
}

// Report records what each cleaning step did, for display beside the charts.
type Report struct {
	DuplicatesRemoved    int            `json:"duplicates_removed"`
	Policy               Policy         `json:"policy"`
	RowsDroppedMissing   int            `json:"rows_dropped_missing"`
	MissingBefore        map[string]int `json:"missing_before"`
	MissingAfter         map[string]int `json:"missing_after"`
	InvalidRemoved       int            `json:"invalid_removed"`
	InvalidFilterApplied bool           `json:"invalid_filter_applied"`
}

// Cleaner runs the cleaning stage over a table clone.
type Cleaner struct {
	logger *slog.Logger
}

// NewCleaner creates a cleaner. A nil logger falls back to slog.Default.
func NewCleaner(logger *slog.Logger) *Cleaner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cleaner{logger: logger.With(slog.String("component", "cleaner"))}
}

// Clean runs dedupe, the missing-value policy, and the invalid-row filter in
// order over a clone of the input table. The input is never mutated, so the
// next render can start from the same upload.
func (c *Cleaner) Clean(ctx context.Context, t *dataset.Table, b dataset.Bindings, policy Policy) (*dataset.Table, *Report) {
	work := t.Clone()
	report := &Report{Policy: policy}

	report.DuplicatesRemoved = Dedupe(work)
	report.MissingBefore = work.MissingCounts()

	report.RowsDroppedMissing = ApplyMissingPolicy(work, policy)
	report.MissingAfter = work.MissingCounts()

	report.InvalidRemoved, report.InvalidFilterApplied = FilterInvalid(work, b)

	c.logger.InfoContext(ctx, "cleaning stage complete",
		slog.Int("duplicates_removed", report.DuplicatesRemoved),
		slog.String("policy", string(policy)),
		slog.Int("rows_dropped_missing", report.RowsDroppedMissing),
		slog.Int("invalid_removed", report.InvalidRemoved),
		slog.Bool("invalid_filter_applied", report.InvalidFilterApplied),
		slog.Int("rows_remaining", work.NumRows()))

	return work, report
}

// Dedupe removes rows that are exact duplicates of an earlier row (all cells
// equal, missing included) and returns the count removed. The first occurrence
// survives, keeping original row order.
func Dedupe(t *dataset.Table) int {
	seen := make(map[string]bool, len(t.Rows))
	kept := t.Rows[:0]
	removed := 0
	for _, row := range t.Rows {
		key := t.RowKey(row)
		if seen[key] {
			removed++
			continue
		}
		seen[key] = true
		kept = append(kept, row)
	}
	t.Rows = kept
	return removed
}

// ApplyMissingPolicy executes the active policy in place. The return value is
// the number of rows dropped, which is zero for the fill policies.
func ApplyMissingPolicy(t *dataset.Table, policy Policy) int {
	switch policy {
	case PolicyDrop:
		return dropMissingRows(t)
	case PolicyConstant:
		fillConstant(t)
	default:
		fillImputed(t)
	}
	return 0
}

func dropMissingRows(t *dataset.Table) int {
	kept := t.Rows[:0]
	dropped := 0
	for _, row := range t.Rows {
		hasMissing := false
		for _, cell := range row {
			if cell.Missing {
				hasMissing = true
				break
			}
		}
		if hasMissing {
			dropped++
			continue
		}
		kept = append(kept, row)
	}
	t.Rows = kept
	return dropped
}

// fillImputed replaces missing values column by column: numeric columns with
// the median of the currently non-missing values, everything else with the
// mode. Columns that are entirely missing stay missing; there is nothing to
// impute from.
func fillImputed(t *dataset.Table) {
	for j, col := range t.Columns {
		switch col.Kind {
		case dataset.KindNumeric:
			values := t.NumericValues(col.Name)
			if len(values) == 0 {
				continue
			}
			median := stats.Median(values)
			for i := range t.Rows {
				if t.Rows[i][j].Missing {
					t.Rows[i][j] = dataset.Cell{Num: median}
				}
			}
		default:
			mode, ok := columnMode(t, j)
			if !ok {
				continue
			}
			for i := range t.Rows {
				if t.Rows[i][j].Missing {
					t.Rows[i][j] = mode
				}
			}
		}
	}
}

// columnMode returns the first most-frequent non-missing cell of a column,
// ties broken by first appearance in column order.
func columnMode(t *dataset.Table, col int) (dataset.Cell, bool) {
	counts := make(map[string]int)
	firstCell := make(map[string]dataset.Cell)
	order := make([]string, 0)

	for _, row := range t.Rows {
		cell := row[col]
		if cell.Missing {
			continue
		}
		key := dataset.FormatCell(cell, t.Columns[col].Kind)
		if _, ok := counts[key]; !ok {
			order = append(order, key)
			firstCell[key] = cell
		}
		counts[key]++
	}

	if len(order) == 0 {
		return dataset.Cell{}, false
	}

	best := order[0]
	for _, key := range order[1:] {
		if counts[key] > counts[best] {
			best = key
		}
	}
	return firstCell[best], true
}

func fillConstant(t *dataset.Table) {
	for j, col := range t.Columns {
		switch col.Kind {
		case dataset.KindNumeric:
			for i := range t.Rows {
				if t.Rows[i][j].Missing {
					t.Rows[i][j] = dataset.Cell{Num: 0}
				}
			}
		case dataset.KindDatetime:
			// No datetime representation for a text constant; leave missing.
		default:
			for i := range t.Rows {
				if t.Rows[i][j].Missing {
					t.Rows[i][j] = dataset.Cell{Str: ConstantFillText, Raw: ConstantFillText}
				}
			}
		}
	}
}

// FilterInvalid removes rows whose bound price is negative or bound quantity
// is not positive. Rows where either value is still missing are removed too:
// a missing price cannot satisfy price >= 0. When either binding is absent
// the step is skipped entirely and applied=false is returned.
func FilterInvalid(t *dataset.Table, b dataset.Bindings) (removed int, applied bool) {
	if !b.HasPriceQuantity() {
		return 0, false
	}
	priceIdx, qtyIdx := t.ColumnIndex(b.Price), t.ColumnIndex(b.Quantity)
	if priceIdx < 0 || qtyIdx < 0 {
		return 0, false
	}

	kept := t.Rows[:0]
	for _, row := range t.Rows {
		price, qty := row[priceIdx], row[qtyIdx]
		valid := !price.Missing && !qty.Missing && price.Num >= 0 && qty.Num > 0
		if !valid {
			removed++
			continue
		}
		kept = append(kept, row)
	}
	t.Rows = kept
	return removed, true
}
