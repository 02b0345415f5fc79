package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"git-insights/internal/errx"
)

// maxRequestBody caps inbound JSON bodies at 1MB.
const maxRequestBody = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
}

func respondWithJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers already went out; an encode failure here can only be logged by
	// the caller's middleware.
	_ = json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, status int, message string) {
	respondWithJSON(w, status, errorResponse{Error: message})
}

// statusForError maps the shared error taxonomy to HTTP status codes.
func statusForError(err error) int {
	switch errx.KindOf(err) {
	case errx.NotFound:
		return http.StatusNotFound
	case errx.Conflict:
		return http.StatusConflict
	case errx.Invalid:
		return http.StatusBadRequest
	case errx.Unavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON decodes a request body into T, rejecting unknown fields and
// oversized or trailing payloads.
func decodeJSON[T any](r *http.Request) (T, error) {
	var v T

	r.Body = http.MaxBytesReader(nil, r.Body, maxRequestBody)
	defer r.Body.Close()

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(&v); err != nil {
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		var maxBytesErr *http.MaxBytesError

		switch {
		case errors.As(err, &syntaxErr):
			return v, fmt.Errorf("malformed JSON at position %d", syntaxErr.Offset)
		case errors.As(err, &typeErr):
			return v, fmt.Errorf("invalid value for field %q", typeErr.Field)
		case errors.As(err, &maxBytesErr):
			return v, fmt.Errorf("request body too large (max %d bytes)", maxRequestBody)
		case errors.Is(err, io.EOF):
			return v, errors.New("request body is empty")
		default:
			return v, fmt.Errorf("invalid JSON: %w", err)
		}
	}
	if decoder.More() {
		return v, errors.New("request body contains trailing data")
	}
	return v, nil
}
