package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"freightbase/internal/baseline"
	"freightbase/internal/database"
	"freightbase/internal/exporter"
	"freightbase/pkg/contracts/domain"
)

// BaselineService derives the freight cost baseline on demand from the
// stored extraction results. Nothing is cached: the summary always
// reflects the files currently completed.
type BaselineService struct {
	repo     *database.UploadRepository
	exporter *exporter.BaselineExporter
	logger   *slog.Logger
}

// NewBaselineService creates a new baseline service.
func NewBaselineService(repo *database.UploadRepository, reportExporter *exporter.BaselineExporter, logger *slog.Logger) *BaselineService {
	if logger == nil {
		logger = slog.Default()
	}
	return &BaselineService{
		repo:     repo,
		exporter: reportExporter,
		logger:   logger.With(slog.String("component", "baseline_service")),
	}
}

// Summary builds the baseline for a scope from every completed upload.
func (s *BaselineService) Summary(ctx context.Context, scopeKey string) (*domain.BaselineSummary, error) {
	results, err := s.repo.CompletedResults(ctx, scopeKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load extraction results: %w", err)
	}

	summary := baseline.Build(results)

	s.logger.InfoContext(ctx, "baseline summary built",
		slog.String("scope_key", scopeKey),
		slog.Int("sources", len(summary.Sources)),
		slog.Float64("total_verified", summary.TotalVerified),
		slog.String("quality", summary.Quality))

	return summary, nil
}

// Export writes the current baseline and its audit trail to CSV under
// the reports directory and returns the summary that was exported.
func (s *BaselineService) Export(ctx context.Context, scopeKey string) (*domain.BaselineSummary, error) {
	results, err := s.repo.CompletedResults(ctx, scopeKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load extraction results: %w", err)
	}

	summary := baseline.Build(results)

	stamp := time.Now().Format("2006_01_02_150405")
	if err := s.exporter.ExportSummary(summary, fmt.Sprintf("baseline_summary_%s.csv", stamp)); err != nil {
		return nil, err
	}
	if err := s.exporter.ExportSources(summary, fmt.Sprintf("baseline_sources_%s.csv", stamp)); err != nil {
		return nil, err
	}
	if err := s.exporter.ExportFileBreakdown(results, fmt.Sprintf("extraction_breakdown_%s.csv", stamp)); err != nil {
		return nil, err
	}

	return summary, nil
}
