package batch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"freightbase/internal/baseline"
	"freightbase/internal/database"
	"freightbase/internal/exporter"
	"freightbase/internal/extraction"
	"freightbase/internal/files"
	"freightbase/internal/validation"
	"freightbase/pkg/contracts/domain"
)

// Runner ingests a directory of workbooks in one pass: every valid file
// is registered, copied into upload storage, extracted, and rolled into
// a baseline summary. Used by the batch binary.
type Runner struct {
	repo      *database.UploadRepository
	storage   *files.Manager
	engine    *extraction.Engine
	validator *validation.FileValidator
	exporter  *exporter.BaselineExporter
	logger    *slog.Logger
	workers   int
}

// NewRunner creates a batch runner.
func NewRunner(repo *database.UploadRepository, storage *files.Manager, engine *extraction.Engine,
	validator *validation.FileValidator, reportExporter *exporter.BaselineExporter,
	workers int, logger *slog.Logger) *Runner {
	if workers <= 0 {
		workers = 4
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		repo:      repo,
		storage:   storage,
		engine:    engine,
		validator: validator,
		exporter:  reportExporter,
		logger:    logger.With(slog.String("component", "batch_runner")),
		workers:   workers,
	}
}

// RunResult summarizes one batch ingestion pass.
type RunResult struct {
	Processed int
	Failed    int
	Skipped   int
	Summary   *domain.BaselineSummary
}

// Run processes every workbook in inputDir for the given scope and
// returns the resulting baseline. Files that fail validation are
// skipped; files that fail extraction are recorded with error status
// and do not stop the rest of the batch.
func (r *Runner) Run(ctx context.Context, inputDir, scopeKey string) (*RunResult, error) {
	if err := r.validator.ValidateInputDirectory(inputDir, "*.xls*"); err != nil {
		return nil, err
	}

	discovery := files.NewDiscovery(inputDir)
	workbooks, err := discovery.FindWorkbookFiles(".")
	if err != nil {
		return nil, fmt.Errorf("workbook discovery failed: %w", err)
	}

	r.logger.InfoContext(ctx, "batch run started",
		slog.String("input_dir", inputDir),
		slog.String("scope_key", scopeKey),
		slog.Int("files", len(workbooks)))

	run := &RunResult{}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	type outcome struct {
		failed  bool
		skipped bool
	}
	outcomes := make([]outcome, len(workbooks))

	for i, wb := range workbooks {
		i, wb := i, wb
		g.Go(func() error {
			status, err := r.processOne(gctx, wb, scopeKey)
			if err != nil {
				r.logger.WarnContext(gctx, "workbook skipped",
					slog.String("file", wb.Name),
					slog.String("error", err.Error()))
				outcomes[i] = outcome{skipped: true}
				return nil
			}
			outcomes[i] = outcome{failed: status == domain.StatusError}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, o := range outcomes {
		switch {
		case o.skipped:
			run.Skipped++
		case o.failed:
			run.Failed++
		default:
			run.Processed++
		}
	}

	results, err := r.repo.CompletedResults(ctx, scopeKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load extraction results: %w", err)
	}
	run.Summary = baseline.Build(results)

	if r.exporter != nil {
		stamp := time.Now().Format("2006_01_02_150405")
		if err := r.exporter.ExportSummary(run.Summary, fmt.Sprintf("baseline_summary_%s.csv", stamp)); err != nil {
			r.logger.WarnContext(ctx, "baseline summary export failed", slog.String("error", err.Error()))
		}
		if err := r.exporter.ExportSources(run.Summary, fmt.Sprintf("baseline_sources_%s.csv", stamp)); err != nil {
			r.logger.WarnContext(ctx, "baseline sources export failed", slog.String("error", err.Error()))
		}
		if err := r.exporter.ExportFileBreakdown(results, fmt.Sprintf("extraction_breakdown_%s.csv", stamp)); err != nil {
			r.logger.WarnContext(ctx, "breakdown export failed", slog.String("error", err.Error()))
		}
	}

	r.logger.InfoContext(ctx, "batch run finished",
		slog.Int("processed", run.Processed),
		slog.Int("failed", run.Failed),
		slog.Int("skipped", run.Skipped),
		slog.Float64("total_verified", run.Summary.TotalVerified))

	return run, nil
}

// processOne registers, stores, and extracts a single workbook.
func (r *Runner) processOne(ctx context.Context, wb files.FileInfo, scopeKey string) (domain.FileStatus, error) {
	content, err := os.ReadFile(wb.Path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", wb.Path, err)
	}

	if err := r.validator.ValidateUpload(wb.Name, content); err != nil {
		return "", err
	}

	id := uuid.New().String()
	storagePath, err := r.storage.SaveUpload(id, wb.Name, content)
	if err != nil {
		return "", err
	}

	record := domain.UploadedFile{
		ID:          id,
		FileName:    wb.Name,
		ScopeKey:    scopeKey,
		VendorType:  extraction.ClassifyVendor(wb.Name),
		StoragePath: storagePath,
		SizeBytes:   int64(len(content)),
	}
	if err := r.repo.Register(ctx, record); err != nil {
		return "", err
	}

	if err := r.repo.SetStatus(ctx, id, domain.StatusProcessing); err != nil {
		return "", err
	}

	result := r.engine.ProcessFile(ctx, id, wb.Name, scopeKey, content)
	if err := r.repo.StoreResult(ctx, id, result); err != nil {
		return "", err
	}

	return result.Status, nil
}
