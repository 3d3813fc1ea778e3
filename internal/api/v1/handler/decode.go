package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"scms/internal/apperr"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// decodeJSON leaves v zero-valued for an empty body so validation reports the
// missing fields.
func decodeJSON(r *http.Request, v any) error {
	body := http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return apperr.Wrap(apperr.InvalidInput, "Invalid JSON payload", "malformed_json", err)
	}
	return nil
}
