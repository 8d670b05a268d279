package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/jbweber/homelab/hostdb/internal/repository"
)

// ErrorResponse is the body of every failed request. Messages carries one
// full message per validation failure.
type ErrorResponse struct {
	Error    string   `json:"error"`
	Messages []string `json:"messages,omitempty"`
}

// parseID reads the {id} URL parameter
func parseID(r *http.Request) (int64, error) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid ID %q", idStr)
	}
	return id, nil
}

func (a *API) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		a.logger.Error("failed to encode response", "error", err)
	}
}

func (a *API) writeError(w http.ResponseWriter, status int, msg string) {
	a.writeJSON(w, status, ErrorResponse{Error: msg})
}

// decodeJSON decodes the request body into v, writing a 400 on failure
func (a *API) decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		a.writeError(w, http.StatusBadRequest, "Invalid JSON")
		return false
	}
	return true
}

// idParam parses {id}, writing a 400 on failure
func (a *API) idParam(w http.ResponseWriter, r *http.Request, entity string) (int64, bool) {
	id, err := parseID(r)
	if err != nil {
		a.writeError(w, http.StatusBadRequest, "Invalid "+entity+" ID")
		return 0, false
	}
	return id, true
}

// writeRepoError maps repository errors to HTTP responses: validation
// failures are 422, in-use guards 409 and missing records 404.
func (a *API) writeRepoError(w http.ResponseWriter, r *http.Request, entity string, err error) {
	var verrs *repository.ValidationErrors
	switch {
	case errors.As(err, &verrs) && verrs.Has(repository.InUse):
		a.metrics.IncrementDeletionBlocked(entity)
		a.writeJSON(w, http.StatusConflict, ErrorResponse{Error: err.Error(), Messages: verrs.FullMessages()})
	case verrs != nil:
		for _, ve := range verrs.Errors {
			a.metrics.IncrementValidationFailure(entity, ve.Kind.String())
		}
		a.writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error(), Messages: verrs.FullMessages()})
	case errors.Is(err, repository.ErrNotFound):
		a.writeError(w, http.StatusNotFound, capitalize(entity)+" not found")
	default:
		a.logger.Error("repository operation failed",
			"entity", entity,
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		a.writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
