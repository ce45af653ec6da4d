package database

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"freightbase/pkg/contracts/domain"
)

func newTestRepo(t *testing.T) *UploadRepository {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewUploadRepository(db, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func newUpload(id, scopeKey string) domain.UploadedFile {
	return domain.UploadedFile{
		ID:          id,
		FileName:    "UPS PARCEL jan.xlsx",
		ScopeKey:    scopeKey,
		VendorType:  domain.VendorParcel,
		StoragePath: "/tmp/" + id + ".xlsx",
		SizeBytes:   1024,
		Status:      domain.StatusPending,
	}
}

func TestUploadRepository_RegisterAndGet(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Register(ctx, newUpload("f1", "acme")))

	got, err := repo.Get(ctx, "f1")
	require.NoError(t, err)
	assert.Equal(t, "UPS PARCEL jan.xlsx", got.FileName)
	assert.Equal(t, domain.StatusPending, got.Status)
	assert.Equal(t, domain.VendorParcel, got.VendorType)
	assert.False(t, got.UploadedAt.IsZero())
}

func TestUploadRepository_GetNotFound(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrFileNotFound)
}

func TestUploadRepository_SetStatus(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Register(ctx, newUpload("f1", "acme")))
	require.NoError(t, repo.SetStatus(ctx, "f1", domain.StatusProcessing))

	got, err := repo.Get(ctx, "f1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusProcessing, got.Status)

	assert.ErrorIs(t, repo.SetStatus(ctx, "missing", domain.StatusProcessing), ErrFileNotFound)
}

func TestUploadRepository_StoreResultRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Register(ctx, newUpload("f1", "acme")))

	result := &domain.FileExtractionResult{
		FileID:         "f1",
		FileName:       "UPS PARCEL jan.xlsx",
		VendorType:     domain.VendorParcel,
		TotalExtracted: 350.00,
		Confidence:     0.95,
		Quality:        domain.QualityVerified,
		Status:         domain.StatusCompleted,
	}
	require.NoError(t, repo.StoreResult(ctx, "f1", result))

	got, err := repo.Get(ctx, "f1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, got.Status)
	assert.NotEmpty(t, got.ResultJSON)

	results, err := repo.CompletedResults(ctx, "acme")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.InDelta(t, 350.00, results[0].TotalExtracted, 0.001)
	assert.Equal(t, domain.QualityVerified, results[0].Quality)
}

func TestUploadRepository_ListScoping(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Register(ctx, newUpload("f1", "acme")))
	require.NoError(t, repo.Register(ctx, newUpload("f2", "acme")))
	require.NoError(t, repo.Register(ctx, newUpload("f3", "globex")))

	acme, err := repo.List(ctx, "acme")
	require.NoError(t, err)
	assert.Len(t, acme, 2)

	all, err := repo.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestUploadRepository_CompletedResultsSkipsPendingAndFailed(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Register(ctx, newUpload("pending", "acme")))

	require.NoError(t, repo.Register(ctx, newUpload("failed", "acme")))
	require.NoError(t, repo.StoreResult(ctx, "failed", &domain.FileExtractionResult{
		FileID: "failed", Status: domain.StatusError, Quality: domain.QualityError,
	}))

	require.NoError(t, repo.Register(ctx, newUpload("done", "acme")))
	require.NoError(t, repo.StoreResult(ctx, "done", &domain.FileExtractionResult{
		FileID: "done", Status: domain.StatusCompleted, TotalExtracted: 99,
		Quality: domain.QualityVerified,
	}))

	results, err := repo.CompletedResults(ctx, "acme")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "done", results[0].FileID)
}
