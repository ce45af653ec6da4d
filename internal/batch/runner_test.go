package batch

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"freightbase/internal/baseline"
	"freightbase/internal/database"
	"freightbase/internal/exporter"
	"freightbase/internal/extraction"
	"freightbase/internal/files"
	"freightbase/internal/mapping"
	"freightbase/internal/validation"
	"freightbase/pkg/contracts/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// writeWorkbook builds a small parcel invoice workbook on disk.
func writeWorkbook(t *testing.T, path string, rows [][]interface{}) {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	for i, row := range rows {
		cellRef, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cellRef, &row))
	}

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
}

func newTestRunner(t *testing.T) (*Runner, *database.UploadRepository, string) {
	t.Helper()

	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := testLogger()
	repo := database.NewUploadRepository(db, logger)
	store := mapping.NewStore(db, logger)
	mapper := mapping.NewMapper(store, mapping.NewResolver(), logger, nil)
	engine := extraction.NewEngine(mapper, logger, extraction.DefaultLimits(), nil)
	storage := files.NewManager(t.TempDir(), logger)
	validator := validation.NewFileValidator(logger, 0)
	reportsDir := t.TempDir()
	reportExporter := exporter.NewBaselineExporter(reportsDir)

	return NewRunner(repo, storage, engine, validator, reportExporter, 2, logger), repo, reportsDir
}

func TestRunner_Run(t *testing.T) {
	runner, repo, reportsDir := newTestRunner(t)

	inputDir := t.TempDir()
	writeWorkbook(t, filepath.Join(inputDir, "UPS PARCEL march.xlsx"), [][]interface{}{
		{"tracking number", "net charge", "gross charge"},
		{"1Z999", 12.50, 14.00},
		{"1Z998", 7.25, 9.00},
		{"Total", 19.75, 23.00},
	})
	writeWorkbook(t, filepath.Join(inputDir, "RL LTL quarter.xlsx"), [][]interface{}{
		{"origin zip", "dest zip", "net charge"},
		{"30301", "60601", 450.00},
		{"30301", "75201", 610.00},
	})
	// not a workbook, must be skipped by discovery
	require.NoError(t, os.WriteFile(filepath.Join(inputDir, "notes.txt"), []byte("x"), 0644))

	run, err := runner.Run(context.Background(), inputDir, "acme")
	require.NoError(t, err)

	assert.Equal(t, 2, run.Processed)
	assert.Equal(t, 0, run.Failed)
	assert.Equal(t, 0, run.Skipped)

	require.NotNil(t, run.Summary)
	assert.InDelta(t, 19.75, run.Summary.UPSParcelCosts, 0.001)
	assert.InDelta(t, 1060.00, run.Summary.RLLTLCosts, 0.001)
	assert.InDelta(t, 1079.75, run.Summary.TotalVerified, 0.001)

	uploads, err := repo.List(context.Background(), "acme")
	require.NoError(t, err)
	require.Len(t, uploads, 2)
	for _, u := range uploads {
		assert.Equal(t, domain.StatusCompleted, u.Status)
	}

	// reports written
	matches, err := filepath.Glob(filepath.Join(reportsDir, "baseline_summary_*.csv"))
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestRunner_Run_CorruptFileIsIsolated(t *testing.T) {
	runner, _, _ := newTestRunner(t)

	inputDir := t.TempDir()
	writeWorkbook(t, filepath.Join(inputDir, "UPS PARCEL ok.xlsx"), [][]interface{}{
		{"tracking number", "net charge"},
		{"1Z999", 5.00},
	})
	// zip magic but truncated archive: passes validation, fails parsing
	require.NoError(t, os.WriteFile(filepath.Join(inputDir, "broken.xlsx"),
		[]byte{0x50, 0x4b, 0x03, 0x04, 0x00, 0x00}, 0644))

	run, err := runner.Run(context.Background(), inputDir, "acme")
	require.NoError(t, err)

	assert.Equal(t, 1, run.Processed)
	assert.Equal(t, 1, run.Failed)
	assert.InDelta(t, 5.00, run.Summary.UPSParcelCosts, 0.001)
}

func TestRunner_Run_EmptyDirectory(t *testing.T) {
	runner, _, _ := newTestRunner(t)

	run, err := runner.Run(context.Background(), t.TempDir(), "acme")
	require.NoError(t, err)

	assert.Equal(t, 0, run.Processed)
	require.NotNil(t, run.Summary)
	assert.Equal(t, domain.QualityGenerated, run.Summary.Quality)
	assert.Equal(t, baseline.Build(nil).TotalVerified, run.Summary.TotalVerified)
}
