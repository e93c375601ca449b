// Command analyzer runs the dashboard pipeline over a CSV file on disk and
// writes the cleaned table plus a summary report, for batch use without the
// web front end.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"salescope/internal/analysis"
	"salescope/internal/cleaning"
	"salescope/internal/dataset"
	"salescope/internal/exporter"
	"salescope/internal/stats"
)

func main() {
	input := flag.String("in", "", "input CSV file (required)")
	outDir := flag.String("out", "reports", "output directory")
	priceCol := flag.String("price", "", "price column (required)")
	qtyCol := flag.String("quantity", "", "quantity column (required)")
	categoryCol := flag.String("category", "", "category column (optional)")
	dateCol := flag.String("date", "", "date column (optional)")
	univariateCol := flag.String("univariate", "", "distribution chart column (optional; defaults to the first numeric column)")
	policyFlag := flag.String("policy", "impute", "missing-value policy: drop, impute or constant")
	methodFlag := flag.String("correlation", "pearson", "correlation method: pearson, spearman or kendall")
	topN := flag.Int("top-n", analysis.DefaultTopN, "categorical chart top-N")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)
	ctx := context.Background()

	if *input == "" || *priceCol == "" || *qtyCol == "" {
		flag.Usage()
		os.Exit(2)
	}

	policy, err := cleaning.ParsePolicy(*policyFlag)
	if err != nil {
		logger.Error("invalid policy", "error", err)
		os.Exit(2)
	}
	method, err := stats.ParseCorrelationMethod(*methodFlag)
	if err != nil {
		logger.Error("invalid correlation method", "error", err)
		os.Exit(2)
	}

	file, err := os.Open(*input)
	if err != nil {
		logger.Error("failed to open input file", "path", *input, "error", err)
		os.Exit(1)
	}
	defer file.Close()

	table, err := dataset.ParseCSV(file, logger)
	if err != nil {
		logger.Error("ingest failed", "error", err)
		os.Exit(1)
	}

	bindings := dataset.Bindings{
		Price:    *priceCol,
		Quantity: *qtyCol,
		Category: *categoryCol,
		Date:     *dateCol,
	}
	if err := bindings.Validate(table); err != nil {
		logger.Error("invalid bindings", "error", err)
		os.Exit(1)
	}

	kpis := dataset.ComputeKPIs(table, bindings)

	cleaner := cleaning.NewCleaner(logger)
	cleaned, report := cleaner.Clean(ctx, table, bindings, policy)
	summary := analysis.Describe(cleaned)

	reportPayload := map[string]interface{}{
		"source":      *input,
		"kpis":        kpis,
		"cleaning":    report,
		"summary":     summary,
		"univariate":  pickUnivariate(cleaned, *univariateCol),
		"categorical": pickCategorical(cleaned, *categoryCol, *topN),
		"bivariate":   analysis.BuildBivariate(cleaned, bindings),
		"time_series": analysis.BuildTimeSeries(cleaned, bindings),
		"correlation": analysis.BuildCorrelation(cleaned, method),
	}

	base := strings.TrimSuffix(filepath.Base(*input), filepath.Ext(*input))
	exp := exporter.NewExporter(logger)

	outputs := []struct {
		path string
		run  func(string) error
	}{
		{filepath.Join(*outDir, base+"_cleaned.csv"), func(p string) error {
			return exp.ExportCSVFile(p, cleaned)
		}},
		{filepath.Join(*outDir, base+"_report.xlsx"), func(p string) error {
			return exp.ExportXLSXFile(p, cleaned, summary)
		}},
		{filepath.Join(*outDir, base+"_report.json"), func(p string) error {
			return exp.ExportJSONFile(p, reportPayload)
		}},
	}
	for _, out := range outputs {
		if err := out.run(out.path); err != nil {
			logger.Error("export failed", "path", out.path, "error", err)
			os.Exit(1)
		}
		logger.Info("wrote report artifact", "path", out.path)
	}

	logger.Info("analysis complete",
		"rows_in", table.NumRows(),
		"rows_out", cleaned.NumRows(),
		"duplicates_removed", report.DuplicatesRemoved,
		"invalid_removed", report.InvalidRemoved)
}

// pickUnivariate renders the distribution chart for the chosen column, or the
// first numeric column when none was given.
func pickUnivariate(t *dataset.Table, column string) analysis.UnivariateView {
	if column == "" {
		numeric, _, _ := t.Buckets()
		if len(numeric) > 0 {
			column = numeric[0]
		}
	}
	return analysis.BuildUnivariate(t, column)
}

// pickCategorical renders the count chart for the chosen category column, or
// the first categorical column when none was given.
func pickCategorical(t *dataset.Table, column string, topN int) analysis.CategoricalView {
	if column == "" {
		_, categorical, _ := t.Buckets()
		if len(categorical) > 0 {
			column = categorical[0]
		}
	}
	return analysis.BuildCategorical(t, column, topN)
}
