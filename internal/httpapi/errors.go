package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"xrayd/internal/classifier"
	"xrayd/internal/engine"
	"xrayd/pkg/types"
)

// Client-facing messages with fixed wording.
const (
	msgNoFile       = "No file uploaded"
	msgInvalidImage = "Invalid image file"
	msgTooLarge     = "File too large"
)

// HTTPError allows services to provide an HTTP status code for an error.
type HTTPError interface {
	error
	StatusCode() int
}

// statusForError maps service errors to a status code and client message.
func statusForError(err error) (int, string) {
	switch {
	case classifier.IsInvalidImage(err):
		return http.StatusBadRequest, msgInvalidImage
	case engine.IsTooBusy(err):
		return http.StatusTooManyRequests, err.Error()
	case engine.IsNotReady(err):
		return http.StatusServiceUnavailable, err.Error()
	}
	var he HTTPError
	if errors.As(err, &he) {
		return he.StatusCode(), he.Error()
	}
	return http.StatusInternalServerError, err.Error()
}

// writeJSON writes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeJSONError writes a consistent JSON error payload.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, types.ErrorResponse{Error: msg})
}
