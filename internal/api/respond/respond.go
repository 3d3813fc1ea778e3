// Package respond writes JSON responses and renders application errors as
// {"message": ...} bodies.
package respond

import (
	"encoding/json"
	"net/http"

	"scms/internal/apperr"

	"github.com/rs/zerolog/hlog"
)

// MessageBody is the shape of every error and confirmation response.
type MessageBody struct {
	Message string `json:"message"`
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("Failed to encode response")
	}
}

// Message writes {"message": msg}.
func Message(w http.ResponseWriter, r *http.Request, status int, msg string) {
	JSON(w, r, status, MessageBody{Message: msg})
}

// Error renders err through the apperr mapping. The cause and reason are
// logged; only the public message reaches the client.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.Status(err)
	logger := hlog.FromRequest(r)

	event := logger.Warn()
	if status >= http.StatusInternalServerError {
		event = logger.Error()
	}
	event.Err(err).
		Str("kind", apperr.KindOf(err).String()).
		Str("reason", apperr.ReasonOf(err)).
		Int("status", status).
		Msg("Request failed")

	Message(w, r, status, apperr.PublicMessage(err))
}
