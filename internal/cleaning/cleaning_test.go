package cleaning

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salescope/internal/dataset"
)

func mustParse(t *testing.T, csv string) *dataset.Table {
	t.Helper()
	table, err := dataset.ParseCSV(strings.NewReader(csv), nil)
	require.NoError(t, err)
	return table
}

func TestDedupe(t *testing.T) {
	table := mustParse(t, strings.Join([]string{
		"price,category",
		"10,A",
		"10,A",
		"10,B",
		"10,A",
	}, "\n"))

	removed := Dedupe(table)
	assert.Equal(t, 2, removed)
	require.Equal(t, 2, table.NumRows())
	assert.Equal(t, "A", table.Rows[0][1].Str)
	assert.Equal(t, "B", table.Rows[1][1].Str)

	// Idempotence: a second pass removes nothing.
	assert.Zero(t, Dedupe(table))
	assert.Equal(t, 2, table.NumRows())
}

func TestDedupe_MissingCellsCompareEqual(t *testing.T) {
	table := mustParse(t, "price,notes\n10,\n10,\n10,x\n")
	assert.Equal(t, 1, Dedupe(table))
	assert.Equal(t, 2, table.NumRows())
}

func TestApplyMissingPolicy_Drop(t *testing.T) {
	table := mustParse(t, "price,category\n10,A\nNA,B\n12,\n13,C\n")
	dropped := ApplyMissingPolicy(table, PolicyDrop)
	assert.Equal(t, 2, dropped)
	assert.Equal(t, 2, table.NumRows())
	for _, count := range table.MissingCounts() {
		assert.Zero(t, count)
	}
}

func TestApplyMissingPolicy_ImputeMedian(t *testing.T) {
	table := mustParse(t, "price\n1\n2\nNA\n4\n")
	ApplyMissingPolicy(table, PolicyImpute)

	// Median of the non-missing values [1 2 4] is 2.
	idx := table.ColumnIndex("price")
	assert.False(t, table.Rows[2][idx].Missing)
	assert.InDelta(t, 2.0, table.Rows[2][idx].Num, 1e-9)
}

func TestApplyMissingPolicy_ImputeModeTieBreak(t *testing.T) {
	// "b" and "a" are tied at two occurrences; "b" appeared first.
	table := mustParse(t, "category\nb\na\na\nb\nNA\n")
	ApplyMissingPolicy(table, PolicyImpute)

	idx := table.ColumnIndex("category")
	assert.Equal(t, "b", table.Rows[4][idx].Str)
}

func TestApplyMissingPolicy_ImputeDatetimeMode(t *testing.T) {
	table := mustParse(t, "order_date\n2024-01-05\n2024-01-05\n2024-01-06\nbad\n")
	ApplyMissingPolicy(table, PolicyImpute)

	idx := table.ColumnIndex("order_date")
	require.False(t, table.Rows[3][idx].Missing)
	assert.Equal(t, "2024-01-05 00:00:00", dataset.FormatCell(table.Rows[3][idx], dataset.KindDatetime))
}

func TestApplyMissingPolicy_Constant(t *testing.T) {
	table := mustParse(t, strings.Join([]string{
		"order_date,price,category",
		"2024-01-05,10,A",
		"bad,NA,NA",
	}, "\n"))

	ApplyMissingPolicy(table, PolicyConstant)

	priceIdx := table.ColumnIndex("price")
	catIdx := table.ColumnIndex("category")
	dateIdx := table.ColumnIndex("order_date")

	// Filled cells take the constants.
	assert.InDelta(t, 0.0, table.Rows[1][priceIdx].Num, 1e-9)
	assert.Equal(t, ConstantFillText, table.Rows[1][catIdx].Str)

	// Originally present values are untouched.
	assert.InDelta(t, 10.0, table.Rows[0][priceIdx].Num, 1e-9)
	assert.Equal(t, "A", table.Rows[0][catIdx].Str)

	// Datetime columns have no textual constant; the cell stays missing.
	assert.True(t, table.Rows[1][dateIdx].Missing)

	counts := table.MissingCounts()
	assert.Zero(t, counts["price"])
	assert.Zero(t, counts["category"])
	assert.Equal(t, 1, counts["order_date"])
}

func TestFilterInvalid(t *testing.T) {
	table := mustParse(t, strings.Join([]string{
		"price,quantity",
		"10,1",
		"-1,2",
		"5,0",
		"5,-3",
		"NA,1",
		"8,2",
	}, "\n"))

	bindings := dataset.Bindings{Price: "price", Quantity: "quantity"}
	removed, applied := FilterInvalid(table, bindings)
	assert.True(t, applied)
	assert.Equal(t, 4, removed)
	assert.Equal(t, 2, table.NumRows())

	// Idempotence: filtering again removes nothing.
	removed, applied = FilterInvalid(table, bindings)
	assert.True(t, applied)
	assert.Zero(t, removed)
	assert.Equal(t, 2, table.NumRows())
}

func TestFilterInvalid_SkippedWithoutBindings(t *testing.T) {
	table := mustParse(t, "price,quantity\n-1,0\n")
	removed, applied := FilterInvalid(table, dataset.Bindings{})
	assert.False(t, applied)
	assert.Zero(t, removed)
	assert.Equal(t, 1, table.NumRows())
}

func TestCleaner_CleanPipeline(t *testing.T) {
	table := mustParse(t, strings.Join([]string{
		"price,quantity,category",
		"10,1,A",
		"10,1,A",
		"NA,2,B",
		"-5,1,C",
	}, "\n"))

	cleaner := NewCleaner(nil)
	bindings := dataset.Bindings{Price: "price", Quantity: "quantity", Category: "category"}

	cleaned, report := cleaner.Clean(context.Background(), table, bindings, PolicyDrop)

	assert.Equal(t, 1, report.DuplicatesRemoved)
	assert.Equal(t, 1, report.RowsDroppedMissing)
	assert.Equal(t, 1, report.InvalidRemoved)
	assert.True(t, report.InvalidFilterApplied)
	assert.Equal(t, 1, report.MissingBefore["price"])
	assert.Zero(t, report.MissingAfter["price"])
	assert.Equal(t, 1, cleaned.NumRows())

	// The input table is untouched; a later render starts from the upload.
	assert.Equal(t, 4, table.NumRows())
}

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		input   string
		want    Policy
		wantErr bool
	}{
		{input: "drop", want: PolicyDrop},
		{input: "Impute", want: PolicyImpute},
		{input: "CONSTANT", want: PolicyConstant},
		{input: "", want: PolicyImpute},
		{input: "zeroes", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParsePolicy(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
