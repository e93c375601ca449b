package exporter

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salescope/internal/analysis"
	"salescope/internal/dataset"
)

func sampleTable(t *testing.T) *dataset.Table {
	t.Helper()
	csv := strings.Join([]string{
		"order_date,price,quantity,category",
		"2024-01-01,10.5,1,A",
		"2024-01-02,8,2,",
	}, "\n")
	table, err := dataset.ParseCSV(strings.NewReader(csv), nil)
	require.NoError(t, err)
	return table
}

func TestWriteCSV(t *testing.T) {
	exp := NewExporter(nil)
	var buf bytes.Buffer

	require.NoError(t, exp.WriteCSV(&buf, sampleTable(t), false))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "order_date,price,quantity,category", lines[0])
	assert.Equal(t, "2024-01-01 00:00:00,10.5,1,A", lines[1])
	// Missing cells come out empty.
	assert.Equal(t, "2024-01-02 00:00:00,8,2,", lines[2])
}

func TestWriteCSV_BOMPrefix(t *testing.T) {
	exp := NewExporter(nil)
	var buf bytes.Buffer

	require.NoError(t, exp.WriteCSV(&buf, sampleTable(t), true))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte{0xEF, 0xBB, 0xBF}))
}

func TestBuildXLSX(t *testing.T) {
	exp := NewExporter(nil)
	table := sampleTable(t)

	f, err := exp.BuildXLSX(table, analysis.Describe(table))
	require.NoError(t, err)
	defer f.Close()

	assert.ElementsMatch(t, []string{"Cleaned Data", "Summary"}, f.GetSheetList())

	header, err := f.GetCellValue("Cleaned Data", "B1")
	require.NoError(t, err)
	assert.Equal(t, "price", header)

	price, err := f.GetCellValue("Cleaned Data", "B2")
	require.NoError(t, err)
	assert.Equal(t, "10.5", price)

	firstSummary, err := f.GetCellValue("Summary", "A2")
	require.NoError(t, err)
	assert.Equal(t, "order_date", firstSummary)
}

func TestExportFiles(t *testing.T) {
	exp := NewExporter(nil)
	table := sampleTable(t)
	dir := t.TempDir()

	csvPath := filepath.Join(dir, "out", "cleaned.csv")
	require.NoError(t, exp.ExportCSVFile(csvPath, table))
	data, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "order_date,price,quantity,category")

	xlsxPath := filepath.Join(dir, "out", "report.xlsx")
	require.NoError(t, exp.ExportXLSXFile(xlsxPath, table, nil))
	info, err := os.Stat(xlsxPath)
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	jsonPath := filepath.Join(dir, "out", "report.json")
	require.NoError(t, exp.ExportJSONFile(jsonPath, map[string]int{"rows": table.NumRows()}))
	data, err = os.ReadFile(jsonPath)
	require.NoError(t, err)
	var decoded map[string]int
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, 2, decoded["rows"])
}
