package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/htol/bookstore/logger"
	"github.com/htol/bookstore/repo"
	"github.com/htol/bookstore/validator"
)

const maxBodyBytes = 1 << 20

// writeJSON sends v as a JSON response with the given status code
func writeJSON(w http.ResponseWriter, r *http.Request, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.FromContext(r.Context()).Error("Failed to encode response", "error", err)
	}
}

// respondWithError logs an error and sends an HTTP error response as JSON
func respondWithError(w http.ResponseWriter, r *http.Request, message string, err error, statusCode int) {
	logger.FromContext(r.Context()).Error(message, "error", err, "status", statusCode)
	writeJSON(w, r, statusCode, map[string]any{
		"error": message,
	})
}

// respondWithValidationError sends a validation error response as JSON,
// including per-field messages when err carries them
func respondWithValidationError(w http.ResponseWriter, r *http.Request, message string, err error) {
	logger.FromContext(r.Context()).Warn("Validation error", "message", message, "error", err)
	body := map[string]any{
		"error": message,
	}
	var fe validator.FieldErrors
	if errors.As(err, &fe) {
		body["fields"] = fe
	}
	writeJSON(w, r, http.StatusBadRequest, body)
}

// respondWithServiceError maps a service error to a status code.
func respondWithServiceError(w http.ResponseWriter, r *http.Request, message string, err error) {
	switch {
	case errors.Is(err, validator.ErrInvalid), errors.Is(err, repo.ErrMissingID):
		respondWithValidationError(w, r, "invalid input", err)
	case errors.Is(err, repo.ErrNotFound):
		respondWithError(w, r, "not found", err, http.StatusNotFound)
	default:
		respondWithError(w, r, message, err, http.StatusInternalServerError)
	}
}

// decodeJSON reads a size-limited JSON body into v, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.New("decode body: unexpected data after JSON object")
	}
	return nil
}

// pathID parses the {id} wildcard of the matched route.
func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: book id %q", validator.ErrInvalid, r.PathValue("id"))
	}
	if err := validator.ValidateID(id); err != nil {
		return 0, err
	}
	return id, nil
}
