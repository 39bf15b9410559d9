package response

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BEN-DataDev/orgs-sveltekit-etl/pkg/errors"
)

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestOK(t *testing.T) {
	w := httptest.NewRecorder()
	OK(w, map[string]string{"status": "success"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, "success", decode(t, w)["status"])
}

func TestFail(t *testing.T) {
	w := httptest.NewRecorder()
	Fail(w, http.StatusConflict, "busy", map[string]any{"state": "NSW", "status": "ignored"})

	body := decode(t, w)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "busy", body["error"])
	assert.Equal(t, StatusFailed, body["status"])
	assert.Equal(t, "NSW", body["state"])
}

func TestError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"not found", errors.NewNotFoundError("postcodes for state", "NSW"), http.StatusNotFound, ""},
		{"invalid source", errors.NewInvalidSourceError("x", []string{"nsw", "acnc", "abn"}), http.StatusBadRequest, "Invalid source. Valid sources are: nsw, acnc, abn"},
		{"validation", errors.NewValidationError("file", "a.txt", "File must be a CSV"), http.StatusBadRequest, "File must be a CSV"},
		{"rate limited", errors.NewAPIError("abn", http.StatusTooManyRequests, "slow down"), http.StatusTooManyRequests, ""},
		{"unavailable", errors.NewSourceUnavailableError("nsw", "", "", fmt.Errorf("down")), http.StatusBadGateway, ""},
		{"wrapped not found", fmt.Errorf("load: %w", errors.NewNotFoundError("abn", "1")), http.StatusNotFound, ""},
		{"other", fmt.Errorf("boom"), http.StatusInternalServerError, "boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			Error(w, tt.err, nil)
			assert.Equal(t, tt.status, w.Code)

			body := decode(t, w)
			assert.Equal(t, StatusFailed, body["status"])
			if tt.message != "" {
				assert.Equal(t, tt.message, body["error"])
			} else {
				assert.Equal(t, tt.err.Error(), body["error"])
			}
		})
	}
}
