package httpx

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	apperrors "github.com/indevian-dev/stuwin-api/internal/errors"
)

// DecodeJSON decodes a single JSON object from body into dst. Unknown fields
// and trailing data are rejected as validation errors.
func DecodeJSON(body io.Reader, dst any) error {
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return apperrors.Validation("request body is too large")
		case errors.Is(err, io.EOF):
			return apperrors.Validation("request body is required")
		default:
			return apperrors.Validationf("invalid JSON: %v", err)
		}
	}
	if dec.More() {
		return apperrors.Validation("request body must contain a single JSON object")
	}
	return nil
}

// WriteJSON writes a JSON response with the given status code and data.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := buf.WriteTo(w); err != nil {
		// Response writer errors (e.g., client disconnect) can't be recovered from here.
		return
	}
}
