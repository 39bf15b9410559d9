// Package response writes API payloads. Successful responses are the
// payload itself; failures are {"error": message, "status": "failed"} with
// optional extra fields.
package response

import (
	"encoding/json"
	"net/http"

	"github.com/BEN-DataDev/orgs-sveltekit-etl/pkg/errors"
)

// StatusFailed is the status field of every error body.
const StatusFailed = "failed"

// JSON writes v with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Encoding errors are ignored as headers are already sent (best effort)
	_ = json.NewEncoder(w).Encode(v)
}

// OK writes a 200 response.
func OK(w http.ResponseWriter, v any) {
	JSON(w, http.StatusOK, v)
}

// Fail writes an error body. Extra fields are merged into it.
func Fail(w http.ResponseWriter, status int, message string, extra map[string]any) {
	body := make(map[string]any, len(extra)+2)
	for k, v := range extra {
		body[k] = v
	}
	body["error"] = message
	body["status"] = StatusFailed
	JSON(w, status, body)
}

// BadRequest writes a 400 error response.
func BadRequest(w http.ResponseWriter, message string) {
	Fail(w, http.StatusBadRequest, message, nil)
}

// NotFound writes a 404 error response.
func NotFound(w http.ResponseWriter, message string) {
	Fail(w, http.StatusNotFound, message, nil)
}

// InternalError writes a 500 error response.
func InternalError(w http.ResponseWriter, message string) {
	Fail(w, http.StatusInternalServerError, message, nil)
}

// StatusFor maps typed errors to HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.IsNotFound(err):
		return http.StatusNotFound
	case errors.IsInvalidSource(err), errors.IsValidationError(err):
		return http.StatusBadRequest
	case errors.IsRateLimited(err):
		return http.StatusTooManyRequests
	case errors.IsSourceUnavailable(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Error writes err with the status from StatusFor.
func Error(w http.ResponseWriter, err error, extra map[string]any) {
	Fail(w, StatusFor(err), message(err), extra)
}

func message(err error) string {
	var v *errors.ValidationError
	if errors.As(err, &v) && v.Message != "" {
		return v.Message
	}
	return err.Error()
}
