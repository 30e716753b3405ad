package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusCodeFor(t *testing.T) {
	adapter := NewHTTPErrorAdapter(nil)

	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"nil", nil, http.StatusOK},
		{"validation", ValidationError("path parameter required").Build(), http.StatusBadRequest},
		{"auth", AuthError("invalid credentials").Build(), http.StatusUnauthorized},
		{"forbidden", ForbiddenError("path outside workspace").Build(), http.StatusForbidden},
		{"not found", NotFoundError("path does not exist").Build(), http.StatusNotFound},
		{"conflict", ConflictError("agent is already running").Build(), http.StatusBadRequest},
		{"daemon", DaemonError("failed to start agent").Build(), http.StatusInternalServerError},
		{"unclassified", fmt.Errorf("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, adapter.StatusCodeFor(tt.err))
		})
	}
}

func TestWriteErrorResponseEnvelope(t *testing.T) {
	adapter := NewHTTPErrorAdapter(nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/files/read", nil)

	adapter.WriteErrorResponse(rec, req, ForbiddenError("access denied: path outside workspace").Build())

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body HTTPErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, "access denied: path outside workspace", body.Error)
	assert.Equal(t, "forbidden", body.Code)
}

func TestFormatErrorResponseIncludesContext(t *testing.T) {
	adapter := NewHTTPErrorAdapter(nil)
	err := NotFoundError("path does not exist").WithContext("path", "a/b.txt").Build()

	resp := adapter.FormatErrorResponse(err)
	require.NotNil(t, resp.Details)
	assert.Equal(t, "a/b.txt", resp.Details["path"])
}
