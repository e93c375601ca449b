// Package services hosts the dashboard orchestration layer between the HTTP
// transport and the pipeline packages.
package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"salescope/internal/analysis"
	"salescope/internal/cleaning"
	"salescope/internal/config"
	"salescope/internal/dataset"
	"salescope/internal/stats"
)

// Service-level sentinel errors mapped to API errors by the transport layer.
var (
	ErrNoDataset      = errors.New("no dataset uploaded")
	ErrInvalidBinding = errors.New("invalid binding")
)

// DashboardService owns the single in-memory dataset of the current session
// and re-runs the whole pipeline from it on every render request. The uploaded
// table is immutable; cleaning always works on a clone, so renders are
// independent and repeatable.
type DashboardService struct {
	logger   *slog.Logger
	cleaner  *cleaning.Cleaner
	defaults config.DashboardConfig

	mu         sync.RWMutex
	table      *dataset.Table
	datasetID  string
	filename   string
	uploadedAt time.Time
}

// NewDashboardService creates the service with presentation defaults from config.
func NewDashboardService(logger *slog.Logger, defaults config.DashboardConfig) *DashboardService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DashboardService{
		logger:   logger.With(slog.String("component", "dashboard_service")),
		cleaner:  cleaning.NewCleaner(logger),
		defaults: defaults,
	}
}

// DatasetInfo describes the uploaded table: identity, inferred buckets, a head
// preview and per-column missing counts.
type DatasetInfo struct {
	ID            string         `json:"id"`
	Filename      string         `json:"filename"`
	UploadedAt    time.Time      `json:"uploaded_at"`
	Rows          int            `json:"rows"`
	Columns       []ColumnInfo   `json:"columns"`
	Numeric       []string       `json:"numeric_columns"`
	Categorical   []string       `json:"categorical_columns"`
	Datetime      []string       `json:"datetime_columns"`
	Preview       [][]string     `json:"preview"`
	MissingCounts map[string]int `json:"missing_counts"`
}

// ColumnInfo pairs a column name with its inferred kind.
type ColumnInfo struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
}

// RenderOptions selects bindings, the cleaning policy and per-view choices for
// one full dashboard render.
type RenderOptions struct {
	Bindings          dataset.Bindings
	Policy            cleaning.Policy
	UnivariateColumn  string
	CategoricalColumn string
	TopN              int
	CorrelationMethod stats.CorrelationMethod
}

// DashboardState is the complete output of one render pass: KPI cards, the
// cleaning report, the summary table, a preview of the cleaned data and the
// five chart payloads.
type DashboardState struct {
	DatasetID string                   `json:"dataset_id"`
	KPIs      dataset.KPISnapshot      `json:"kpis"`
	Cleaning  *cleaning.Report         `json:"cleaning"`
	Summary   []analysis.ColumnSummary `json:"summary"`
	Preview   [][]string               `json:"preview"`
	CleanRows int                      `json:"clean_rows"`

	Univariate  analysis.UnivariateView  `json:"univariate"`
	Categorical analysis.CategoricalView `json:"categorical"`
	Bivariate   analysis.BivariateView   `json:"bivariate"`
	TimeSeries  analysis.TimeSeriesView  `json:"time_series"`
	Correlation analysis.CorrelationView `json:"correlation"`
}

// Upload parses a CSV stream and replaces the session dataset. A parse failure
// is fatal for the upload and leaves any previous dataset in place.
func (s *DashboardService) Upload(ctx context.Context, filename string, r io.Reader) (*DatasetInfo, error) {
	table, err := dataset.ParseCSV(r, s.logger)
	if err != nil {
		s.logger.ErrorContext(ctx, "upload rejected",
			slog.String("filename", filename),
			slog.String("error", err.Error()))
		return nil, err
	}

	s.mu.Lock()
	s.table = table
	s.datasetID = uuid.New().String()
	s.filename = filename
	s.uploadedAt = time.Now().UTC()
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "dataset replaced",
		slog.String("dataset_id", s.datasetID),
		slog.String("filename", filename),
		slog.Int("rows", table.NumRows()))

	return s.Info(ctx)
}

// Info returns metadata for the current dataset, or ErrNoDataset.
func (s *DashboardService) Info(ctx context.Context) (*DatasetInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.table == nil {
		return nil, ErrNoDataset
	}
	return s.infoLocked(), nil
}

func (s *DashboardService) infoLocked() *DatasetInfo {
	numeric, categorical, datetime := s.table.Buckets()
	columns := make([]ColumnInfo, len(s.table.Columns))
	for i, c := range s.table.Columns {
		columns[i] = ColumnInfo{Name: c.Name, Kind: c.Kind.String()}
	}
	return &DatasetInfo{
		ID:            s.datasetID,
		Filename:      s.filename,
		UploadedAt:    s.uploadedAt,
		Rows:          s.table.NumRows(),
		Columns:       columns,
		Numeric:       numeric,
		Categorical:   categorical,
		Datetime:      datetime,
		Preview:       s.table.Head(s.defaults.PreviewRows),
		MissingCounts: s.table.MissingCounts(),
	}
}

// Render runs the full pipeline from the stored upload: KPIs over the current
// table, then clean, then summary and all five views over the cleaned table.
// Every call recomputes everything; there is no partial or incremental path.
func (s *DashboardService) Render(ctx context.Context, opts RenderOptions) (*DashboardState, error) {
	s.mu.RLock()
	table, datasetID := s.table, s.datasetID
	s.mu.RUnlock()

	if table == nil {
		return nil, ErrNoDataset
	}
	if err := opts.Bindings.Validate(table); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidBinding, err.Error())
	}

	opts = s.fillDefaults(table, opts)

	started := time.Now()
	kpis := dataset.ComputeKPIs(table, opts.Bindings)

	cleaned, report := s.cleaner.Clean(ctx, table, opts.Bindings, opts.Policy)

	state := &DashboardState{
		DatasetID: datasetID,
		KPIs:      kpis,
		Cleaning:  report,
		Summary:   analysis.Describe(cleaned),
		Preview:   cleaned.Head(s.defaults.PreviewRows),
		CleanRows: cleaned.NumRows(),

		Univariate:  analysis.BuildUnivariate(cleaned, opts.UnivariateColumn),
		Categorical: analysis.BuildCategorical(cleaned, opts.CategoricalColumn, opts.TopN),
		Bivariate:   analysis.BuildBivariate(cleaned, opts.Bindings),
		TimeSeries:  analysis.BuildTimeSeries(cleaned, opts.Bindings),
		Correlation: analysis.BuildCorrelation(cleaned, opts.CorrelationMethod),
	}

	s.logger.InfoContext(ctx, "dashboard rendered",
		slog.String("dataset_id", datasetID),
		slog.String("policy", string(opts.Policy)),
		slog.Int("clean_rows", state.CleanRows),
		slog.Duration("elapsed", time.Since(started)))

	return state, nil
}

// Cleaned re-runs dedupe, the missing-value policy and the invalid filter and
// returns the cleaned table, for export surfaces.
func (s *DashboardService) Cleaned(ctx context.Context, opts RenderOptions) (*dataset.Table, error) {
	s.mu.RLock()
	table := s.table
	s.mu.RUnlock()

	if table == nil {
		return nil, ErrNoDataset
	}
	if err := opts.Bindings.Validate(table); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidBinding, err.Error())
	}

	cleaned, _ := s.cleaner.Clean(ctx, table, opts.Bindings, opts.Policy)
	return cleaned, nil
}

// fillDefaults resolves absent per-view choices: first numeric column for the
// univariate chart, first categorical column for the count chart, configured
// top-N, pearson correlation.
func (s *DashboardService) fillDefaults(t *dataset.Table, opts RenderOptions) RenderOptions {
	numeric, categorical, _ := t.Buckets()
	if opts.UnivariateColumn == "" && len(numeric) > 0 {
		opts.UnivariateColumn = numeric[0]
	}
	if opts.CategoricalColumn == "" && len(categorical) > 0 {
		opts.CategoricalColumn = categorical[0]
	}
	if opts.TopN <= 0 {
		opts.TopN = s.defaults.TopN
	}
	if opts.Policy == "" {
		opts.Policy = cleaning.PolicyImpute
	}
	if opts.CorrelationMethod == "" {
		opts.CorrelationMethod = stats.Pearson
	}
	return opts
}
