package http

import (
	"encoding/base64"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	apierrors "freightbase/internal/errors"
	"freightbase/internal/services"
	"freightbase/pkg/contracts/domain"
)

// ExtractionHandler handles workbook upload and inspection requests.
type ExtractionHandler struct {
	service      *services.ExtractionService
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
	maxBodySize  int64
}

// NewExtractionHandler creates a new extraction handler.
func NewExtractionHandler(service *services.ExtractionService, logger *slog.Logger,
	errorHandler *apierrors.ErrorHandler, maxBodySize int64) *ExtractionHandler {
	if maxBodySize <= 0 {
		maxBodySize = 50 * 1024 * 1024
	}
	return &ExtractionHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "extraction_handler")),
		errorHandler: errorHandler,
		maxBodySize:  maxBodySize,
	}
}

// Routes returns the extraction routes.
func (h *ExtractionHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Post("/upload", h.Upload)
	r.Get("/files", h.ListFiles)
	r.Get("/files/{id}", h.GetFile)

	return r
}

// uploadJSONRequest is the JSON upload body. Content travels base64
// encoded; multipart uploads skip this struct entirely.
type uploadJSONRequest struct {
	FileName      string `json:"file_name" validate:"required,filename"`
	ScopeKey      string `json:"scope_key" validate:"omitempty,scope_key"`
	ContentBase64 string `json:"content_base64" validate:"required,base64"`
}

// uploadResponse acknowledges an accepted upload.
type uploadResponse struct {
	FileID     string            `json:"file_id"`
	FileName   string            `json:"file_name"`
	VendorType domain.VendorType `json:"vendor_type"`
	Status     domain.FileStatus `json:"status"`
}

// Upload handles POST /api/extraction/upload. It accepts either a
// multipart form with a "file" part or a JSON body with base64 content.
func (h *ExtractionHandler) Upload(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())

	req, err := h.parseUpload(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "upload received",
		slog.String("request_id", reqID),
		slog.String("file", req.FileName),
		slog.String("scope_key", req.ScopeKey),
		slog.Int("size_bytes", len(req.Content)))

	record, err := h.service.Upload(r.Context(), req)
	if err != nil {
		h.errorHandler.HandleError(w, r, mapServiceError(err))
		return
	}

	render.Status(r, http.StatusAccepted)
	render.JSON(w, r, uploadResponse{
		FileID:     record.ID,
		FileName:   record.FileName,
		VendorType: record.VendorType,
		Status:     record.Status,
	})
}

// parseUpload extracts the upload payload from either encoding.
func (h *ExtractionHandler) parseUpload(r *http.Request) (services.UploadRequest, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, h.maxBodySize)

	if err := r.ParseMultipartForm(h.maxBodySize); err == nil {
		file, header, err := r.FormFile("file")
		if err != nil {
			return services.UploadRequest{}, apierrors.ErrValidation("file", "multipart file part is required")
		}
		defer file.Close()

		content, err := io.ReadAll(file)
		if err != nil {
			return services.UploadRequest{}, apierrors.InvalidRequestWithError(err)
		}

		return services.UploadRequest{
			FileName: header.Filename,
			ScopeKey: r.FormValue("scope_key"),
			Content:  content,
		}, nil
	}

	var body uploadJSONRequest
	if err := render.DecodeJSON(r.Body, &body); err != nil {
		return services.UploadRequest{}, apierrors.InvalidRequestWithError(err)
	}
	if body.FileName == "" || body.ContentBase64 == "" {
		return services.UploadRequest{}, apierrors.ErrValidation("file_name", "file_name and content_base64 are required")
	}

	content, err := base64.StdEncoding.DecodeString(body.ContentBase64)
	if err != nil {
		return services.UploadRequest{}, apierrors.ErrValidation("content_base64", "content must be valid base64")
	}

	return services.UploadRequest{
		FileName: body.FileName,
		ScopeKey: body.ScopeKey,
		Content:  content,
	}, nil
}

// fileResponse combines an upload record with its extraction result.
type fileResponse struct {
	File   *domain.UploadedFile         `json:"file"`
	Result *domain.FileExtractionResult `json:"result,omitempty"`
}

// GetFile handles GET /api/extraction/files/{id}.
func (h *ExtractionHandler) GetFile(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("id", "file id is required"))
		return
	}

	record, result, err := h.service.GetFile(r.Context(), id)
	if errors.Is(err, services.ErrFileNotFound) {
		h.errorHandler.HandleError(w, r, apierrors.FileNotFoundError(id))
		return
	}
	if err != nil {
		h.errorHandler.HandleError(w, r, mapServiceError(err))
		return
	}

	render.JSON(w, r, fileResponse{File: record, Result: result})
}

// ListFiles handles GET /api/extraction/files?scope_key=...
func (h *ExtractionHandler) ListFiles(w http.ResponseWriter, r *http.Request) {
	scopeKey := r.URL.Query().Get("scope_key")

	uploads, err := h.service.ListFiles(r.Context(), scopeKey)
	if err != nil {
		h.errorHandler.HandleError(w, r, mapServiceError(err))
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"files": uploads,
		"count": len(uploads),
	})
}

// mapServiceError converts service errors into API errors the central
// handler renders as problem responses.
func mapServiceError(err error) error {
	switch {
	case errors.Is(err, services.ErrFileNotFound):
		return apierrors.FileNotFoundError(err.Error())
	case errors.Is(err, services.ErrInvalidFileType):
		return apierrors.NewWithDetails(http.StatusBadRequest, "UNSUPPORTED_FILE_TYPE", "File type is not supported", err.Error())
	case errors.Is(err, services.ErrEmptyUpload):
		return apierrors.NewWithDetails(http.StatusBadRequest, "VALIDATION_FAILED", "Uploaded file is empty", err.Error())
	case errors.Is(err, services.ErrUploadTooLarge):
		return apierrors.NewWithDetails(http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "Uploaded file exceeds the size limit", err.Error())
	case errors.Is(err, services.ErrQueueFull), errors.Is(err, services.ErrServiceUnavailable):
		return apierrors.ErrServiceUnavailable
	case errors.Is(err, services.ErrInvalidInput):
		return apierrors.InvalidRequestWithError(err)
	default:
		return err
	}
}
