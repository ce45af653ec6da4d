package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"freightbase/internal/batch"
	"freightbase/internal/database"
	"freightbase/internal/extraction"
	"freightbase/internal/files"
	"freightbase/internal/infrastructure"
	"freightbase/internal/validation"
	"freightbase/pkg/contracts/domain"
)

// ExtractionService handles workbook uploads and their queued processing.
type ExtractionService struct {
	repo      *database.UploadRepository
	storage   *files.Manager
	queue     *batch.Queue
	validator *validation.FileValidator
	logger    *slog.Logger
}

// NewExtractionService creates a new extraction service.
func NewExtractionService(repo *database.UploadRepository, storage *files.Manager, queue *batch.Queue,
	validator *validation.FileValidator, logger *slog.Logger) *ExtractionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExtractionService{
		repo:      repo,
		storage:   storage,
		queue:     queue,
		validator: validator,
		logger:    logger.With(slog.String("component", "extraction_service")),
	}
}

// UploadRequest carries one workbook upload.
type UploadRequest struct {
	FileName string
	ScopeKey string
	Content  []byte
}

// Upload validates, stores, registers, and enqueues a workbook. The
// returned record is in pending state; extraction happens async.
func (s *ExtractionService) Upload(ctx context.Context, req UploadRequest) (*domain.UploadedFile, error) {
	if err := s.validator.ValidateUpload(req.FileName, req.Content); err != nil {
		return nil, classifyUploadError(err)
	}

	id := uuid.New().String()
	vendor := extraction.ClassifyVendor(req.FileName)

	storagePath, err := s.storage.SaveUpload(id, req.FileName, req.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to store upload: %w", err)
	}

	record := domain.UploadedFile{
		ID:          id,
		FileName:    req.FileName,
		ScopeKey:    req.ScopeKey,
		VendorType:  vendor,
		StoragePath: storagePath,
		SizeBytes:   int64(len(req.Content)),
		Status:      domain.StatusPending,
	}
	if err := s.repo.Register(ctx, record); err != nil {
		s.storage.DeleteUpload(storagePath)
		return nil, fmt.Errorf("failed to register upload: %w", err)
	}

	job := batch.Job{
		FileID:   id,
		FileName: req.FileName,
		ScopeKey: req.ScopeKey,
		TraceID:  infrastructure.GetTraceID(ctx),
	}
	if err := s.queue.Enqueue(job); err != nil {
		s.logger.WarnContext(ctx, "enqueue failed, upload stays pending",
			slog.String("file_id", id),
			slog.String("error", err.Error()))
		return nil, ErrQueueFull
	}

	s.logger.InfoContext(ctx, "upload accepted",
		slog.String("file_id", id),
		slog.String("file", req.FileName),
		slog.String("vendor", string(vendor)),
		slog.String("scope_key", req.ScopeKey))

	return &record, nil
}

// GetFile returns an upload record and, when processing has finished,
// its decoded extraction result.
func (s *ExtractionService) GetFile(ctx context.Context, id string) (*domain.UploadedFile, *domain.FileExtractionResult, error) {
	record, err := s.repo.Get(ctx, id)
	if errors.Is(err, database.ErrFileNotFound) {
		return nil, nil, ErrFileNotFound
	}
	if err != nil {
		return nil, nil, err
	}

	var result *domain.FileExtractionResult
	if len(record.ResultJSON) > 0 {
		result = &domain.FileExtractionResult{}
		if err := json.Unmarshal(record.ResultJSON, result); err != nil {
			s.logger.WarnContext(ctx, "stored extraction result undecodable",
				slog.String("file_id", id),
				slog.String("error", err.Error()))
			result = nil
		}
	}

	return record, result, nil
}

// ListFiles returns upload records for a scope, newest first. Empty
// scopeKey lists every scope.
func (s *ExtractionService) ListFiles(ctx context.Context, scopeKey string) ([]domain.UploadedFile, error) {
	return s.repo.List(ctx, scopeKey)
}

// classifyUploadError maps validator failures onto service errors while
// keeping the detail text.
func classifyUploadError(err error) error {
	switch {
	case errors.Is(err, validation.ErrPayloadTooLarge):
		return fmt.Errorf("%w: %v", ErrUploadTooLarge, err)
	case errors.Is(err, validation.ErrEmptyFile):
		return fmt.Errorf("%w: %v", ErrEmptyUpload, err)
	default:
		return fmt.Errorf("%w: %v", ErrInvalidFileType, err)
	}
}
