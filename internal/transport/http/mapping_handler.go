package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "freightbase/internal/errors"
	"freightbase/internal/services"
)

// MappingHandler exposes the learned header mappings.
type MappingHandler struct {
	service      *services.MappingService
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewMappingHandler creates a new mapping handler.
func NewMappingHandler(service *services.MappingService, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *MappingHandler {
	return &MappingHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "mapping_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the mapping routes.
func (h *MappingHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/", h.List)
	r.Post("/suggest", h.Suggest)

	return r
}

// List handles GET /api/mappings?scope_key=... Without a scope key it
// returns the global tier.
func (h *MappingHandler) List(w http.ResponseWriter, r *http.Request) {
	scopeKey := r.URL.Query().Get("scope_key")

	records, err := h.service.List(r.Context(), scopeKey)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"mappings": records,
		"count":    len(records),
	})
}

// suggestRequest asks for a resolution of one raw header.
type suggestRequest struct {
	ScopeKey  string `json:"scope_key" validate:"omitempty,scope_key"`
	RawHeader string `json:"raw_header" validate:"required"`
}

// Suggest handles POST /api/mappings/suggest. Resolving a header here
// has the same learning side effect as extraction.
func (h *MappingHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	var req suggestRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}

	suggestion, err := h.service.Suggest(r.Context(), req.ScopeKey, req.RawHeader)
	if errors.Is(err, services.ErrInvalidInput) {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("raw_header", "raw_header is required"))
		return
	}
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, suggestion)
}
