package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"freightbase/pkg/contracts/domain"
)

// ErrFileNotFound is returned when an uploaded-file record does not exist.
var ErrFileNotFound = errors.New("uploaded file not found")

// UploadRepository persists uploaded-file records and their extraction
// results. The result is stored as a JSON payload next to the queryable
// processing status, per the persistence contract.
type UploadRepository struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewUploadRepository creates a repository over an open database handle.
func NewUploadRepository(db *sqlx.DB, logger *slog.Logger) *UploadRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &UploadRepository{
		db:     db,
		logger: logger.With(slog.String("component", "upload_repository")),
	}
}

// Register inserts a new upload in pending state.
func (r *UploadRepository) Register(ctx context.Context, file domain.UploadedFile) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO uploaded_files
			(id, file_name, scope_key, vendor_type, storage_path, size_bytes, processing_status, uploaded_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		file.ID, file.FileName, file.ScopeKey, file.VendorType, file.StoragePath,
		file.SizeBytes, domain.StatusPending, now, now)
	if err != nil {
		return fmt.Errorf("failed to register upload %s: %w", file.FileName, err)
	}
	return nil
}

// SetStatus transitions an upload's processing status.
func (r *UploadRepository) SetStatus(ctx context.Context, id string, status domain.FileStatus) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE uploaded_files SET processing_status = ?, updated_at = ? WHERE id = ?`,
		status, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to set status for %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrFileNotFound
	}
	return nil
}

// StoreResult writes the extraction result payload and marks the upload with
// the result's terminal status.
func (r *UploadRepository) StoreResult(ctx context.Context, id string, result *domain.FileExtractionResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal extraction result for %s: %w", id, err)
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE uploaded_files
		SET processing_status = ?, result_json = ?, updated_at = ?
		WHERE id = ?`,
		result.Status, payload, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to store extraction result for %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrFileNotFound
	}

	r.logger.InfoContext(ctx, "extraction result stored",
		slog.String("file_id", id),
		slog.String("status", string(result.Status)),
		slog.Float64("total_extracted", result.TotalExtracted))
	return nil
}

// Get returns one upload record by id.
func (r *UploadRepository) Get(ctx context.Context, id string) (*domain.UploadedFile, error) {
	var file domain.UploadedFile
	err := r.db.GetContext(ctx, &file, `SELECT * FROM uploaded_files WHERE id = ?`, id)
	if err == sql.ErrNoRows {
		return nil, ErrFileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get upload %s: %w", id, err)
	}
	return &file, nil
}

// List returns uploads for a scope, newest first. Empty scopeKey lists all.
func (r *UploadRepository) List(ctx context.Context, scopeKey string) ([]domain.UploadedFile, error) {
	var files []domain.UploadedFile
	var err error
	if scopeKey == "" {
		err = r.db.SelectContext(ctx, &files, `SELECT * FROM uploaded_files ORDER BY uploaded_at DESC`)
	} else {
		err = r.db.SelectContext(ctx, &files, `SELECT * FROM uploaded_files WHERE scope_key = ? ORDER BY uploaded_at DESC`, scopeKey)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list uploads: %w", err)
	}
	return files, nil
}

// CompletedResults decodes the stored extraction results of every completed
// upload for a scope. Records whose payload cannot be decoded are skipped
// with a warning rather than failing the whole read.
func (r *UploadRepository) CompletedResults(ctx context.Context, scopeKey string) ([]domain.FileExtractionResult, error) {
	files, err := r.List(ctx, scopeKey)
	if err != nil {
		return nil, err
	}

	results := make([]domain.FileExtractionResult, 0, len(files))
	for _, file := range files {
		if file.Status != domain.StatusCompleted || len(file.ResultJSON) == 0 {
			continue
		}
		var result domain.FileExtractionResult
		if err := json.Unmarshal(file.ResultJSON, &result); err != nil {
			r.logger.WarnContext(ctx, "skipping undecodable extraction result",
				slog.String("file_id", file.ID),
				slog.String("error", err.Error()))
			continue
		}
		results = append(results, result)
	}
	return results, nil
}
