package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"commerce-service/internal/repository"
	"commerce-service/internal/validation"
)

const (
	msgNotFound        = "Not found"
	msgIntegrity       = "Integrity error"
	msgIntegrityDetail = "Duplicate or invalid data"
	msgEmailInUse      = "Email already in use"
	msgNotInOrder      = "Product not in order"
	msgInvalidJSON     = "invalid json body"
	msgInternal        = "internal error"
)

type apiError struct {
	Error   any    `json:"error"`
	Details string `json:"details,omitempty"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if v == nil {
		return
	}

	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message any) {
	writeJSON(w, status, apiError{Error: message})
}

func WriteNotFound(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusNotFound, msgNotFound)
}

func WriteMethodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
}

// writeRepoError maps repository and validation errors onto HTTP responses.
func writeRepoError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *validation.Error

	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, verr.Fields)
	case errors.Is(err, validation.ErrInvalid):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, repository.ErrNotInOrder):
		writeError(w, http.StatusNotFound, msgNotInOrder)
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, msgNotFound)
	case errors.Is(err, repository.ErrEmailInUse):
		writeError(w, http.StatusBadRequest, msgEmailInUse)
	case errors.Is(err, repository.ErrIntegrity):
		zerolog.Ctx(r.Context()).Info().Err(err).Msg("integrity violation")
		writeJSON(w, http.StatusBadRequest, apiError{Error: msgIntegrity, Details: msgIntegrityDetail})
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeError(w, http.StatusInternalServerError, msgInternal)
	}
}

// decodeJSON reads a single JSON object into dst. An empty body decodes as {}.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return true
		}
		writeError(w, http.StatusBadRequest, msgInvalidJSON)
		return false
	}

	if err := dec.Decode(&struct{}{}); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, msgInvalidJSON)
		return false
	}

	return true
}

// pathID reads a positive integer URL parameter. Anything else answers 404,
// as no route exists for it.
func pathID(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	id, err := validation.ParseID(chi.URLParam(r, name))
	if err != nil || id <= 0 {
		WriteNotFound(w, r)
		return 0, false
	}
	return id, true
}

// optional distinguishes an absent JSON field from an explicit null.
type optional[T any] struct {
	Set   bool
	Null  bool
	Value T
}

func (o *optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Null = true
		return nil
	}
	return json.Unmarshal(data, &o.Value)
}
