package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"freightbase/internal/services"
	"freightbase/pkg/contracts/domain"
)

func TestBaselineHandler_Summary(t *testing.T) {
	srv, svc := testServer(t)
	ctx := context.Background()

	content := testWorkbook(t, [][]interface{}{
		{"pro number", "net charges"},
		{"P1", 800.00},
		{"P2", 260.00},
	})
	record, err := svc.Upload(ctx, services.UploadRequest{
		FileName: "RL weekly.xlsx",
		ScopeKey: "acme",
		Content:  content,
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		got, _, err := svc.GetFile(ctx, record.ID)
		return err == nil && got.Status == domain.StatusCompleted
	}, 10*time.Second, 50*time.Millisecond)

	resp, err := http.Get(srv.URL + "/api/baseline/summary?scope_key=acme")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var summary struct {
		TotalVerified float64 `json:"total_verified"`
		Quality       string  `json:"quality"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&summary))
	assert.InDelta(t, 1060.00, summary.TotalVerified, 0.001)
	assert.Equal(t, domain.QualityVerified, summary.Quality)
}

func TestBaselineHandler_SummaryEmptyScope(t *testing.T) {
	srv, _ := testServer(t)

	resp, err := http.Get(srv.URL + "/api/baseline/summary?scope_key=nobody")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var summary struct {
		TotalVerified float64 `json:"total_verified"`
		Quality       string  `json:"quality"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&summary))
	assert.Zero(t, summary.TotalVerified)
	assert.Equal(t, domain.QualityGenerated, summary.Quality)
}

func TestMappingHandler_Suggest(t *testing.T) {
	srv, _ := testServer(t)

	payload, err := json.Marshal(map[string]string{
		"scope_key":  "acme",
		"raw_header": "Net Charge",
	})
	require.NoError(t, err)

	resp, err := http.Post(srv.URL+"/api/mappings/suggest", "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var suggestion struct {
		MappedTo string `json:"mapped_to"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&suggestion))
	assert.Equal(t, string(domain.FieldNetCharge), suggestion.MappedTo)
}

func TestMappingHandler_SuggestMissingHeader(t *testing.T) {
	srv, _ := testServer(t)

	resp, err := http.Post(srv.URL+"/api/mappings/suggest", "application/json", bytes.NewReader([]byte(`{"scope_key":"acme"}`)))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHealthHandler_Check(t *testing.T) {
	srv, _ := testServer(t)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var status struct {
		Status string `json:"status"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	assert.Equal(t, "healthy", status.Status)

	ready, err := http.Get(srv.URL + "/healthz/ready")
	require.NoError(t, err)
	defer ready.Body.Close()
	assert.Equal(t, http.StatusOK, ready.StatusCode)
}
