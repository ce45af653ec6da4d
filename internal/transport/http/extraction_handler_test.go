package http

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"freightbase/internal/batch"
	"freightbase/internal/database"
	"freightbase/internal/errors"
	"freightbase/internal/exporter"
	"freightbase/internal/extraction"
	"freightbase/internal/files"
	"freightbase/internal/mapping"
	"freightbase/internal/services"
	"freightbase/internal/validation"
	"freightbase/pkg/contracts/domain"
)

// testServer wires the full handler stack against a temp database.
func testServer(t *testing.T) (*httptest.Server, *services.ExtractionService) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := database.NewUploadRepository(db, logger)
	store := mapping.NewStore(db, logger)
	mapper := mapping.NewMapper(store, mapping.NewResolver(), logger, nil)
	engine := extraction.NewEngine(mapper, logger, extraction.DefaultLimits(), nil)
	storage := files.NewManager(t.TempDir(), logger)
	validator := validation.NewFileValidator(logger, 0)

	queue := batch.NewQueue(1, repo, storage, engine, logger)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	queue.Start(ctx)
	t.Cleanup(func() { queue.Stop(5 * time.Second) })

	extractionSvc := services.NewExtractionService(repo, storage, queue, validator, logger)
	baselineSvc := services.NewBaselineService(repo, exporter.NewBaselineExporter(t.TempDir()), logger)
	mappingSvc := services.NewMappingService(store, mapper, logger)
	healthSvc := services.NewHealthService("test", "", db, logger)

	errorHandler := errors.NewErrorHandler(logger, false)

	r := chi.NewRouter()
	r.Mount("/api/extraction", NewExtractionHandler(extractionSvc, logger, errorHandler, 0).Routes())
	r.Mount("/api/baseline", NewBaselineHandler(baselineSvc, logger, errorHandler).Routes())
	r.Mount("/api/mappings", NewMappingHandler(mappingSvc, logger, errorHandler).Routes())
	r.Mount("/healthz", NewHealthHandler(healthSvc, logger).Routes())

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return srv, extractionSvc
}

func testWorkbook(t *testing.T, rows [][]interface{}) []byte {
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
	return buf.Bytes()
}

func TestExtractionHandler_UploadMultipart(t *testing.T) {
	srv, _ := testServer(t)

	content := testWorkbook(t, [][]interface{}{
		{"tracking number", "net charge"},
		{"1Z1", 120.50},
		{"1Z2", 79.50},
	})

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "UPS PARCEL feb.xlsx")
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("scope_key", "acme"))
	require.NoError(t, mw.Close())

	resp, err := http.Post(srv.URL+"/api/extraction/upload", mw.FormDataContentType(), &body)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	var ack struct {
		FileID     string `json:"file_id"`
		VendorType string `json:"vendor_type"`
		Status     string `json:"status"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&ack))
	assert.NotEmpty(t, ack.FileID)
	assert.Equal(t, string(domain.VendorParcel), ack.VendorType)
	assert.Equal(t, string(domain.StatusPending), ack.Status)

	// Processing is async; poll until the file completes.
	require.Eventually(t, func() bool {
		res, err := http.Get(srv.URL + "/api/extraction/files/" + ack.FileID)
		if err != nil {
			return false
		}
		defer res.Body.Close()

		var got struct {
			File struct {
				Status string `json:"processing_status"`
			} `json:"file"`
			Result *struct {
				TotalExtracted float64 `json:"total_extracted"`
			} `json:"result"`
		}
		if json.NewDecoder(res.Body).Decode(&got) != nil {
			return false
		}
		if got.File.Status != string(domain.StatusCompleted) {
			return false
		}
		require.NotNil(t, got.Result)
		assert.InDelta(t, 200.00, got.Result.TotalExtracted, 0.001)
		return true
	}, 10*time.Second, 50*time.Millisecond)
}

func TestExtractionHandler_UploadJSON(t *testing.T) {
	srv, _ := testServer(t)

	content := testWorkbook(t, [][]interface{}{
		{"pro number", "net charges"},
		{"P1", 440.00},
	})

	payload, err := json.Marshal(map[string]string{
		"file_name":      "RL curiosity.xlsx",
		"scope_key":      "acme",
		"content_base64": base64.StdEncoding.EncodeToString(content),
	})
	require.NoError(t, err)

	resp, err := http.Post(srv.URL+"/api/extraction/upload", "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
}

func TestExtractionHandler_UploadRejectsBadType(t *testing.T) {
	srv, _ := testServer(t)

	payload, err := json.Marshal(map[string]string{
		"file_name":      "report.pdf",
		"scope_key":      "acme",
		"content_base64": base64.StdEncoding.EncodeToString([]byte("not a workbook")),
	})
	require.NoError(t, err)

	resp, err := http.Post(srv.URL+"/api/extraction/upload", "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var problem struct {
		Status int    `json:"status"`
		Title  string `json:"title"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&problem))
	assert.Equal(t, http.StatusBadRequest, problem.Status)
}

func TestExtractionHandler_GetFileNotFound(t *testing.T) {
	srv, _ := testServer(t)

	resp, err := http.Get(srv.URL + "/api/extraction/files/no-such-id")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "json")
}

func TestExtractionHandler_ListFiles(t *testing.T) {
	srv, svc := testServer(t)

	content := testWorkbook(t, [][]interface{}{
		{"tracking number", "net charge"},
		{"1Z1", 10.00},
	})
	_, err := svc.Upload(context.Background(), services.UploadRequest{
		FileName: "UPS PARCEL mar.xlsx",
		ScopeKey: "acme",
		Content:  content,
	})
	require.NoError(t, err)

	resp, err := http.Get(srv.URL + "/api/extraction/files?scope_key=acme")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, 1, got.Count)
}
