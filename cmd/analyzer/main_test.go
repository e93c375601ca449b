package main

import (
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

func TestPickUnivariate(t *testing.T) {
	table := mustParse(t, "category,price,quantity\nA,10,1\nB,12,2\n")

	// No column given: first numeric column wins.
	view := pickUnivariate(table, "")
	require.True(t, view.Available)
	assert.Equal(t, "price", view.Column)

	view = pickUnivariate(table, "quantity")
	require.True(t, view.Available)
	assert.Equal(t, "quantity", view.Column)
}

func TestPickUnivariate_NoNumericColumns(t *testing.T) {
	table := mustParse(t, "category\nA\nB\n")
	view := pickUnivariate(table, "")
	assert.False(t, view.Available)
}

func TestPickCategorical(t *testing.T) {
	table := mustParse(t, "region,category,price\nN,A,10\nS,B,12\n")

	view := pickCategorical(table, "", 5)
	require.True(t, view.Available)
	assert.Equal(t, "region", view.Column)

	view = pickCategorical(table, "category", 5)
	require.True(t, view.Available)
	assert.Equal(t, "category", view.Column)
}
