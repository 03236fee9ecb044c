// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package web is a collection of functions and types for building web services.
package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"go.astrophena.name/kazuto/internal/logger"
)

// StatusErr is a sentinel error type used to represent HTTP status code errors.
type StatusErr int

// Error implements the error interface.
// It returns a lowercase representation of the HTTP status text for the wrapped code.
func (se StatusErr) Error() string { return strings.ToLower(http.StatusText(int(se))) }

const (
	// ErrBadRequest represents a bad request error (HTTP 400).
	ErrBadRequest StatusErr = http.StatusBadRequest
	// ErrNotFound represents a not found error (HTTP 404).
	ErrNotFound StatusErr = http.StatusNotFound
	// ErrMethodNotAllowed represents a method not allowed error (HTTP 405).
	ErrMethodNotAllowed StatusErr = http.StatusMethodNotAllowed
	// ErrInternalServerError represents an internal server error (HTTP 500).
	ErrInternalServerError StatusErr = http.StatusInternalServerError
)

type errorResponse struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

// RespondJSON marshals the provided response object as JSON and writes it to
// the [http.ResponseWriter].
func RespondJSON(w http.ResponseWriter, response any) { respondJSON(w, response, false) }

func respondJSON(w http.ResponseWriter, response any, wroteStatus bool) {
	w.Header().Set("Content-Type", "application/json")
	b, err := json.MarshalIndent(response, "", "  ")
	if err != nil {
		if !wroteStatus {
			w.WriteHeader(http.StatusInternalServerError)
		}
		b, _ = json.Marshal(&errorResponse{Status: "error", Error: "JSON marshal error: " + err.Error()})
	}
	w.Write(b)
	w.Write([]byte("\n"))
}

// RespondJSONError writes an error response in JSON format to w and logs the
// error with the logger from request context if it's
// [ErrInternalServerError].
//
// If the error is a [StatusErr] or wraps it, the response status code is
// taken from it. Otherwise, it is [http.StatusInternalServerError].
//
//	// This will set the status code to 404 (Not Found).
//	web.RespondJSONError(w, r, fmt.Errorf("resource %w", web.ErrNotFound))
func RespondJSONError(w http.ResponseWriter, r *http.Request, err error) {
	var se StatusErr
	if !errors.As(err, &se) {
		se = ErrInternalServerError
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(int(se))
	if se == ErrInternalServerError {
		logger.Error(r.Context(), "internal server error", slog.String("path", r.URL.Path), slog.Any("err", err))
	}
	respondJSON(w, &errorResponse{Status: "error", Error: err.Error()}, true)
}
