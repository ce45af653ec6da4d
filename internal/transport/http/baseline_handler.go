package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "freightbase/internal/errors"
	"freightbase/internal/services"
)

// BaselineHandler serves the derived freight cost baseline.
type BaselineHandler struct {
	service      *services.BaselineService
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewBaselineHandler creates a new baseline handler.
func NewBaselineHandler(service *services.BaselineService, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *BaselineHandler {
	return &BaselineHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "baseline_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the baseline routes.
func (h *BaselineHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/summary", h.Summary)
	r.Post("/export", h.Export)

	return r
}

// Summary handles GET /api/baseline/summary?scope_key=...
// The summary is rebuilt from completed extractions on every call.
func (h *BaselineHandler) Summary(w http.ResponseWriter, r *http.Request) {
	scopeKey := r.URL.Query().Get("scope_key")

	summary, err := h.service.Summary(r.Context(), scopeKey)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, summary)
}

// Export handles POST /api/baseline/export?scope_key=... It writes the
// baseline CSVs to the reports directory and returns the summary.
func (h *BaselineHandler) Export(w http.ResponseWriter, r *http.Request) {
	scopeKey := r.URL.Query().Get("scope_key")

	summary, err := h.service.Export(r.Context(), scopeKey)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "baseline exported",
		slog.String("scope_key", scopeKey),
		slog.Float64("total_verified", summary.TotalVerified))

	render.JSON(w, r, summary)
}
