// Package http provides HTTP server and handler implementations.
//
// This file holds the JSON response helpers and the mapping from domain and
// storage errors to status codes.

package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"finanzas/internal/core"
	"finanzas/internal/log"
	"finanzas/internal/storage"
)

// Problem is the body of every error response.
type Problem struct {
	Status int    `json:"status"`
	Title  string `json:"title"`
	Detail string `json:"detail,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	writeJSON(w, status, Problem{Status: status, Title: title, Detail: detail})
}

func badRequest(w http.ResponseWriter, detail string) {
	writeProblem(w, http.StatusBadRequest, "Bad request", detail)
}

func notFound(w http.ResponseWriter, what string, id int64) {
	writeProblem(w, http.StatusNotFound, "Not found", fmt.Sprintf("%s %d not found", what, id))
}

// writeError maps err onto a status code and writes it. Unexpected errors are
// logged and answered with a generic 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case core.IsValidation(err):
		writeProblem(w, http.StatusUnprocessableEntity, "Validation failed", err.Error())
	case errors.Is(err, core.ErrDateRange):
		writeProblem(w, http.StatusBadRequest, "Invalid date range", err.Error())
	case errors.Is(err, storage.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "Not found", err.Error())
	case errors.Is(err, storage.ErrConflict):
		writeProblem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, storage.ErrInUse):
		writeProblem(w, http.StatusConflict, "Still referenced", err.Error())
	case errors.Is(err, storage.ErrInvalidReference):
		writeProblem(w, http.StatusUnprocessableEntity, "Invalid reference", err.Error())
	default:
		errorType := log.ErrorTypeInternal
		if errors.Is(err, context.DeadlineExceeded) {
			errorType = log.ErrorTypeTimeout
		}
		fields := log.NewFields().
			WithError(err).
			WithErrorType(errorType)
		fields[log.FieldMethod] = r.Method
		fields[log.FieldPath] = r.URL.Path
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed", fields.ToSlice()...)
		writeProblem(w, http.StatusInternalServerError, "Internal error", "the request could not be completed")
	}
}
