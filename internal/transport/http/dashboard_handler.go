// Package http contains the chi handlers that expose the pipeline to the
// dashboard front end.
package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"salescope/internal/cleaning"
	"salescope/internal/config"
	"salescope/internal/dataset"
	apierrors "salescope/internal/errors"
	"salescope/internal/exporter"
	"salescope/internal/metrics"
	"salescope/internal/services"
	"salescope/internal/stats"
)

// DashboardHandler serves the upload, render and export endpoints.
type DashboardHandler struct {
	service  *services.DashboardService
	exporter *exporter.Exporter
	logger   *slog.Logger
	validate *validator.Validate
	metrics  *metrics.Metrics
	limits   config.LimitsConfig
	meta     config.DashboardConfig
}

// NewDashboardHandler wires the handler with its collaborators.
func NewDashboardHandler(
	service *services.DashboardService,
	exp *exporter.Exporter,
	logger *slog.Logger,
	m *metrics.Metrics,
	limits config.LimitsConfig,
	meta config.DashboardConfig,
) *DashboardHandler {
	return &DashboardHandler{
		service:  service,
		exporter: exp,
		logger:   logger.With(slog.String("component", "dashboard_handler")),
		validate: validator.New(),
		metrics:  m,
		limits:   limits,
		meta:     meta,
	}
}

// Routes returns the dashboard routes.
func (h *DashboardHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/meta", h.GetMeta)
	r.Get("/health", h.GetHealth)

	r.Post("/dataset", h.UploadDataset)
	r.Get("/dataset", h.GetDataset)

	r.Post("/dashboard", h.RenderDashboard)
	r.Post("/export/{format}", h.ExportCleaned)

	return r
}

// RenderRequest is the JSON body of a render or export call: the column
// bindings, the cleaning policy and per-view choices.
type RenderRequest struct {
	Bindings          BindingsPayload `json:"bindings" validate:"required"`
	Policy            string          `json:"policy" validate:"omitempty,oneof=drop impute constant"`
	UnivariateColumn  string          `json:"univariate_column"`
	CategoricalColumn string          `json:"categorical_column"`
	TopN              int             `json:"top_n" validate:"omitempty,min=1,max=100"`
	CorrelationMethod string          `json:"correlation_method" validate:"omitempty,oneof=pearson spearman kendall"`
}

// BindingsPayload maps the four semantic roles to column names.
type BindingsPayload struct {
	Price    string `json:"price" validate:"required"`
	Quantity string `json:"quantity" validate:"required"`
	Category string `json:"category"`
	Date     string `json:"date"`
}

// GetMeta handles GET /api/meta — page metadata for the front end.
func (h *DashboardHandler) GetMeta(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]interface{}{
		"title":        h.meta.Title,
		"top_n":        h.meta.TopN,
		"preview_rows": h.meta.PreviewRows,
	})
}

// GetHealth handles GET /api/health.
func (h *DashboardHandler) GetHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]interface{}{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// UploadDataset handles POST /api/dataset. The upload is a multipart form
// with a single "file" part restricted to the .csv extension. A malformed
// file produces exactly one error response and leaves any prior dataset
// untouched.
func (h *DashboardHandler) UploadDataset(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.limits.MaxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.renderError(w, r, apierrors.ErrUploadTooLarge)
			return
		}
		h.renderError(w, r, apierrors.ErrValidation("file", "A CSV file upload is required"))
		return
	}
	defer file.Close()

	if !strings.EqualFold(filepath.Ext(header.Filename), ".csv") {
		h.renderError(w, r, apierrors.ErrValidation("file",
			fmt.Sprintf("Unsupported file type %q; only .csv is accepted", filepath.Ext(header.Filename))))
		return
	}

	info, err := h.service.Upload(r.Context(), header.Filename, file)
	if err != nil {
		h.metrics.ObserveIngestFailure()
		h.renderError(w, r, apierrors.IngestFailed(err))
		return
	}
	h.metrics.ObserveUpload()

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   info,
	})
}

// GetDataset handles GET /api/dataset.
func (h *DashboardHandler) GetDataset(w http.ResponseWriter, r *http.Request) {
	info, err := h.service.Info(r.Context())
	if err != nil {
		h.renderServiceError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   info,
	})
}

// RenderDashboard handles POST /api/dashboard — one full pipeline pass.
func (h *DashboardHandler) RenderDashboard(w http.ResponseWriter, r *http.Request) {
	opts, apiErr := h.decodeRenderRequest(r)
	if apiErr != nil {
		h.renderError(w, r, apiErr)
		return
	}

	started := time.Now()
	state, err := h.service.Render(r.Context(), opts)
	if err != nil {
		h.renderServiceError(w, r, err)
		return
	}
	h.metrics.ObserveRender(time.Since(started))

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   state,
	})
}

// ExportCleaned handles POST /api/export/{format}, streaming the cleaned
// table as csv or xlsx.
func (h *DashboardHandler) ExportCleaned(w http.ResponseWriter, r *http.Request) {
	format := strings.ToLower(chi.URLParam(r, "format"))
	if format != "csv" && format != "xlsx" {
		h.renderError(w, r, apierrors.ErrValidation("format",
			fmt.Sprintf("Unsupported export format %q", format)))
		return
	}

	opts, apiErr := h.decodeRenderRequest(r)
	if apiErr != nil {
		h.renderError(w, r, apiErr)
		return
	}

	cleaned, err := h.service.Cleaned(r.Context(), opts)
	if err != nil {
		h.renderServiceError(w, r, err)
		return
	}

	switch format {
	case "csv":
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="cleaned.csv"`)
		if err := h.exporter.WriteCSV(w, cleaned, true); err != nil {
			h.logger.ErrorContext(r.Context(), "csv export failed", slog.String("error", err.Error()))
		}
	case "xlsx":
		f, err := h.exporter.BuildXLSX(cleaned, nil)
		if err != nil {
			h.renderError(w, r, apierrors.ErrInternalServer)
			return
		}
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", `attachment; filename="cleaned.xlsx"`)
		if err := f.Write(w); err != nil {
			h.logger.ErrorContext(r.Context(), "xlsx export failed", slog.String("error", err.Error()))
		}
	}
}

func (h *DashboardHandler) decodeRenderRequest(r *http.Request) (services.RenderOptions, *apierrors.APIError) {
	var req RenderRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		return services.RenderOptions{}, apierrors.InvalidRequestWithError(err)
	}
	if err := h.validate.Struct(req); err != nil {
		return services.RenderOptions{}, apierrors.InvalidRequestWithError(err)
	}

	policy, err := cleaning.ParsePolicy(req.Policy)
	if err != nil {
		return services.RenderOptions{}, apierrors.ErrValidation("policy", err.Error())
	}
	method, err := stats.ParseCorrelationMethod(req.CorrelationMethod)
	if err != nil {
		return services.RenderOptions{}, apierrors.ErrValidation("correlation_method", err.Error())
	}

	return services.RenderOptions{
		Bindings: dataset.Bindings{
			Price:    req.Bindings.Price,
			Quantity: req.Bindings.Quantity,
			Category: req.Bindings.Category,
			Date:     req.Bindings.Date,
		},
		Policy:            policy,
		UnivariateColumn:  req.UnivariateColumn,
		CategoricalColumn: req.CategoricalColumn,
		TopN:              req.TopN,
		CorrelationMethod: method,
	}, nil
}

func (h *DashboardHandler) renderServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, services.ErrNoDataset):
		h.renderError(w, r, apierrors.ErrNoDataset)
	case errors.Is(err, services.ErrInvalidBinding):
		h.renderError(w, r, apierrors.BindingError(err))
	default:
		h.logger.ErrorContext(r.Context(), "unhandled service error", slog.String("error", err.Error()))
		h.renderError(w, r, apierrors.ErrInternalServer)
	}
}

func (h *DashboardHandler) renderError(w http.ResponseWriter, r *http.Request, apiErr *apierrors.APIError) {
	if err := render.Render(w, r, apiErr); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to render error response",
			slog.String("error", err.Error()))
	}
}
