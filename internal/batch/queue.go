package batch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"freightbase/internal/database"
	"freightbase/internal/extraction"
	"freightbase/internal/files"
	"freightbase/internal/infrastructure"
	"freightbase/pkg/contracts/domain"
)

// Job represents one queued extraction run for an uploaded workbook.
type Job struct {
	FileID     string    `json:"file_id"`
	FileName   string    `json:"file_name"`
	ScopeKey   string    `json:"scope_key"`
	TraceID    string    `json:"trace_id,omitempty"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// Queue manages async extraction of uploaded workbooks. Workers pull
// jobs, load the stored bytes, run the extraction engine, and persist
// the result. A failed file never blocks the other jobs.
type Queue struct {
	mu       sync.RWMutex
	jobs     chan Job
	workers  int
	wg       sync.WaitGroup
	repo     *database.UploadRepository
	storage  *files.Manager
	engine   *extraction.Engine
	logger   *slog.Logger
	shutdown chan struct{}
	active   map[string]Job
}

// NewQueue creates a new extraction queue.
func NewQueue(workers int, repo *database.UploadRepository, storage *files.Manager, engine *extraction.Engine, logger *slog.Logger) *Queue {
	if workers <= 0 {
		workers = 4
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Queue{
		jobs:     make(chan Job, workers*2),
		workers:  workers,
		repo:     repo,
		storage:  storage,
		engine:   engine,
		logger:   logger.With(slog.String("component", "extraction_queue")),
		shutdown: make(chan struct{}),
		active:   make(map[string]Job),
	}
}

// Start begins processing jobs.
func (q *Queue) Start(ctx context.Context) {
	q.logger.Info("starting extraction queue", slog.Int("workers", q.workers))

	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(ctx, i)
	}

	// Re-enqueue uploads that were interrupted mid-run.
	go q.recoverStalled(ctx)
}

// Stop gracefully shuts down the queue.
func (q *Queue) Stop(timeout time.Duration) error {
	q.logger.Info("stopping extraction queue")

	close(q.shutdown)

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		q.logger.Info("extraction queue stopped gracefully")
		return nil
	case <-time.After(timeout):
		q.logger.Warn("extraction queue stop timeout exceeded")
		return fmt.Errorf("timeout waiting for workers to finish")
	}
}

// Enqueue adds a job to the queue. The upload must already be
// registered in pending state.
func (q *Queue) Enqueue(job Job) error {
	job.EnqueuedAt = time.Now()

	select {
	case q.jobs <- job:
		q.logger.Info("extraction job enqueued",
			slog.String("file_id", job.FileID),
			slog.String("file", job.FileName))
		return nil
	default:
		return fmt.Errorf("extraction queue is full")
	}
}

// Active reports whether a file is currently being processed.
func (q *Queue) Active(fileID string) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	_, ok := q.active[fileID]
	return ok
}

// worker processes jobs from the queue.
func (q *Queue) worker(ctx context.Context, workerID int) {
	defer q.wg.Done()

	logger := q.logger.With(slog.Int("worker_id", workerID))
	logger.Debug("worker started")

	for {
		select {
		case <-ctx.Done():
			logger.Debug("worker stopped by context")
			return
		case <-q.shutdown:
			logger.Debug("worker stopped by shutdown")
			return
		case job := <-q.jobs:
			q.processJob(ctx, job, logger)
		}
	}
}

// processJob runs one extraction end to end.
func (q *Queue) processJob(ctx context.Context, job Job, logger *slog.Logger) {
	if job.TraceID != "" {
		ctx = infrastructure.WithTraceID(ctx, job.TraceID)
	} else {
		ctx = infrastructure.EnsureTraceID(ctx)
	}

	logger = logger.With(
		slog.String("file_id", job.FileID),
		slog.String("file", job.FileName),
	)
	logger.InfoContext(ctx, "extraction started")

	q.mu.Lock()
	q.active[job.FileID] = job
	q.mu.Unlock()
	defer func() {
		q.mu.Lock()
		delete(q.active, job.FileID)
		q.mu.Unlock()
	}()

	if err := q.repo.SetStatus(ctx, job.FileID, domain.StatusProcessing); err != nil {
		logger.ErrorContext(ctx, "failed to mark upload processing", slog.String("error", err.Error()))
		return
	}

	record, err := q.repo.Get(ctx, job.FileID)
	if err != nil {
		logger.ErrorContext(ctx, "failed to load upload record", slog.String("error", err.Error()))
		return
	}

	content, err := q.storage.ReadUpload(record.StoragePath)
	if err != nil {
		q.storeFailure(ctx, record, fmt.Sprintf("stored workbook unreadable: %v", err), logger)
		return
	}

	result := q.engine.ProcessFile(ctx, record.ID, record.FileName, record.ScopeKey, content)

	if err := q.repo.StoreResult(ctx, record.ID, result); err != nil {
		logger.ErrorContext(ctx, "failed to store extraction result", slog.String("error", err.Error()))
		return
	}

	logger.InfoContext(ctx, "extraction finished",
		slog.String("status", string(result.Status)),
		slog.Float64("total_extracted", result.TotalExtracted),
		slog.Float64("confidence", result.Confidence))
}

// storeFailure records an error result for a file whose bytes never
// reached the engine.
func (q *Queue) storeFailure(ctx context.Context, record *domain.UploadedFile, message string, logger *slog.Logger) {
	result := &domain.FileExtractionResult{
		FileID:       record.ID,
		FileName:     record.FileName,
		VendorType:   record.VendorType,
		Status:       domain.StatusError,
		Quality:      domain.QualityError,
		ErrorMessage: message,
		ProcessedAt:  time.Now().UTC(),
	}
	if err := q.repo.StoreResult(ctx, record.ID, result); err != nil {
		logger.ErrorContext(ctx, "failed to store error result", slog.String("error", err.Error()))
	}
	logger.WarnContext(ctx, "extraction failed before engine", slog.String("reason", message))
}

// recoverStalled re-enqueues uploads left pending or processing by a
// previous run.
func (q *Queue) recoverStalled(ctx context.Context) {
	uploads, err := q.repo.List(ctx, "")
	if err != nil {
		q.logger.WarnContext(ctx, "stalled upload recovery failed", slog.String("error", err.Error()))
		return
	}

	for _, upload := range uploads {
		if upload.Status != domain.StatusPending && upload.Status != domain.StatusProcessing {
			continue
		}
		job := Job{
			FileID:   upload.ID,
			FileName: upload.FileName,
			ScopeKey: upload.ScopeKey,
		}
		if err := q.Enqueue(job); err != nil {
			q.logger.WarnContext(ctx, "failed to re-enqueue stalled upload",
				slog.String("file_id", upload.ID),
				slog.String("error", err.Error()))
		}
	}
}
