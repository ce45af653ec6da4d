package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"freightbase/internal/batch"
	"freightbase/internal/config"
	"freightbase/internal/database"
	"freightbase/internal/exporter"
	"freightbase/internal/extraction"
	"freightbase/internal/files"
	"freightbase/internal/infrastructure"
	"freightbase/internal/mapping"
	"freightbase/internal/validation"
)

func main() {
	inDir := flag.String("in", "", "input directory containing carrier workbooks")
	scopeKey := flag.String("scope", "", "customer scope key for learned mappings (empty uses the global tier only)")
	workers := flag.Int("workers", 0, "concurrent extraction workers (defaults to configuration)")
	flag.Parse()

	if *inDir == "" {
		fmt.Fprintln(os.Stderr, "usage: batch -in <directory> [-scope <key>] [-workers <n>]")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Error("failed to initialize logger", "error", err)
		os.Exit(1)
	}
	defer infrastructure.CloseLogFile()

	if err := cfg.EnsureDirectories(); err != nil {
		logger.Error("failed to ensure directories", "error", err)
		os.Exit(1)
	}

	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	repo := database.NewUploadRepository(db, logger)
	store := mapping.NewStore(db, logger)
	mapper := mapping.NewMapper(store, mapping.NewResolver(), logger, nil)
	engine := extraction.NewEngine(mapper, logger, extraction.Limits{
		MaxTabs:       cfg.Extraction.MaxTabs,
		MaxRowsPerTab: cfg.Extraction.MaxRowsPerTab,
	}, nil)
	storage := files.NewManager(cfg.Storage.UploadsDir, logger)
	validator := validation.NewFileValidator(logger, cfg.Extraction.MaxUploadBytes)
	reportExporter := exporter.NewBaselineExporter(cfg.Storage.ReportsDir)

	n := cfg.Extraction.BatchWorkers
	if *workers > 0 {
		n = *workers
	}
	runner := batch.NewRunner(repo, storage, engine, validator, reportExporter, n, logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	result, err := runner.Run(ctx, *inDir, *scopeKey)
	if err != nil {
		logger.Error("batch run failed", "error", err)
		os.Exit(1)
	}

	logger.Info("batch run complete",
		slog.Int("processed", result.Processed),
		slog.Int("failed", result.Failed),
		slog.Int("skipped", result.Skipped),
		slog.Float64("total_verified", result.Summary.TotalVerified),
		slog.String("quality", result.Summary.Quality))

	fmt.Printf("Processed %d file(s), %d failed, %d skipped\n", result.Processed, result.Failed, result.Skipped)
	fmt.Printf("Verified freight baseline: %.2f (%s)\n", result.Summary.TotalVerified, result.Summary.Quality)
	fmt.Printf("Reports written to %s\n", cfg.Storage.ReportsDir)

	if result.Failed > 0 {
		os.Exit(1)
	}
}
