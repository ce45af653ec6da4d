package errors

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler() *ErrorHandler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewErrorHandler(logger, false)
}

func TestErrorToProblem_APIError(t *testing.T) {
	h := newTestHandler()
	r := httptest.NewRequest(http.MethodGet, "/api/extraction/files/abc", nil)

	problem := h.ErrorToProblem(FileNotFoundError("abc"), r)

	assert.Equal(t, http.StatusNotFound, problem.Status)
	assert.Equal(t, TypeFileNotFound, problem.Type)
	assert.Equal(t, "FILE_NOT_FOUND", problem.Extensions["error_code"])
	assert.Equal(t, "/api/extraction/files/abc", problem.Instance)
}

func TestErrorToProblem_ContextErrors(t *testing.T) {
	h := newTestHandler()
	r := httptest.NewRequest(http.MethodPost, "/api/extraction/upload", nil)

	for _, err := range []error{context.DeadlineExceeded, context.Canceled} {
		problem := h.ErrorToProblem(err, r)
		assert.Equal(t, http.StatusGatewayTimeout, problem.Status)
		assert.Equal(t, TypeTimeout, problem.Type)
	}
}

func TestErrorToProblem_MessageMatching(t *testing.T) {
	h := newTestHandler()
	r := httptest.NewRequest(http.MethodGet, "/api/baseline/summary", nil)

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{"not found", errors.New("mapping not found"), http.StatusNotFound, TypeNotFound},
		{"unsupported file", errors.New("unsupported file extension .pdf"), http.StatusBadRequest, TypeUnsupportedFile},
		{"unreadable workbook", errors.New("workbook has no readable tabs"), http.StatusUnprocessableEntity, TypeWorkbookUnreadable},
		{"generic", errors.New("boom"), http.StatusInternalServerError, TypeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			problem := h.ErrorToProblem(tt.err, r)
			assert.Equal(t, tt.wantStatus, problem.Status)
			assert.Equal(t, tt.wantType, problem.Type)
		})
	}
}

func TestHandleError_WritesProblemJSON(t *testing.T) {
	h := newTestHandler()
	r := httptest.NewRequest(http.MethodGet, "/api/mappings", nil)
	w := httptest.NewRecorder()

	h.HandleError(w, r, ErrUnsupportedFileType)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, TypeUnsupportedFile, body["type"])
	assert.Equal(t, "UNSUPPORTED_FILE_TYPE", body["error_code"])
}

func TestMiddleware_RecoversPanics(t *testing.T) {
	h := newTestHandler()
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("exploded")
	})

	r := httptest.NewRequest(http.MethodGet, "/api/extraction/files", nil)
	w := httptest.NewRecorder()

	h.Middleware(next).ServeHTTP(w, r)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestProblemDetails_MarshalIncludesExtensions(t *testing.T) {
	problem := NewProblemDetails(http.StatusConflict, TypeConflict, "Conflict", "duplicate upload", "/api/extraction/upload").
		WithExtension("file_id", "f-1")

	raw, err := json.Marshal(problem)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "duplicate upload", decoded["detail"])
	assert.Equal(t, "f-1", decoded["file_id"])
}
