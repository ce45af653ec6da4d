package app

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Building the whole application registers global telemetry providers,
// so the wiring is exercised once and the router probed in-process.
func TestNewApplication_Wiring(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("FREIGHT_CONFIG_FILE", filepath.Join(dir, "no-such-config.yaml"))
	t.Setenv("FREIGHT_DATABASE_PATH", filepath.Join(dir, "freightbase.db"))
	t.Setenv("FREIGHT_STORAGE_DATA_DIR", dir)
	t.Setenv("FREIGHT_STORAGE_UPLOADS_DIR", filepath.Join(dir, "uploads"))
	t.Setenv("FREIGHT_STORAGE_REPORTS_DIR", filepath.Join(dir, "reports"))
	t.Setenv("FREIGHT_LOGGING_FILE_PATH", filepath.Join(dir, "logs", "app.log"))
	t.Setenv("FREIGHT_LOGGING_OUTPUT", "console")

	application, err := NewApplication()
	require.NoError(t, err)
	require.NotNil(t, application.Router)
	require.NotNil(t, application.Server)
	t.Cleanup(func() { application.DB.Close() })

	tests := []struct {
		path   string
		status int
	}{
		{"/healthz", http.StatusOK},
		{"/metrics", http.StatusOK},
		{"/api/extraction/files", http.StatusOK},
		{"/api/baseline/summary", http.StatusOK},
		{"/api/mappings/", http.StatusOK},
		{"/no-such-route", http.StatusNotFound},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, tt.path, nil)
		rec := httptest.NewRecorder()
		application.Router.ServeHTTP(rec, req)
		assert.Equal(t, tt.status, rec.Code, "GET %s", tt.path)
	}
}
