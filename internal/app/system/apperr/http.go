// internal/app/system/apperr/http.go
package apperr

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"
)

// response is the wire shape for errors:
// { "error": "<kind>", "message": "...", "fields": {...} }.
type response struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// StatusFor maps an error kind to its HTTP status code.
func StatusFor(k Kind) int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	case KindConflict:
		return http.StatusConflict
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Write sends the structured error response for err. Upstream failures
// are logged with their cause and surfaced to clients without internal
// detail.
func Write(w http.ResponseWriter, log *zap.Logger, err error) {
	var e *Error
	if !errors.As(err, &e) {
		e = Upstream("internal error", err)
	}

	if e.Kind == KindUpstream && log != nil {
		log.Error("request failed", zap.Error(err))
	}

	msg := e.Message
	if e.Kind == KindUpstream {
		// Do not leak infrastructure detail to clients.
		msg = "internal error"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(StatusFor(e.Kind))
	_ = json.NewEncoder(w).Encode(response{
		Error:   string(e.Kind),
		Message: msg,
		Fields:  e.Fields,
	})
}
