// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package web

import (
	"context"
	"net/http"
	"net/url"

	"go.astrophena.name/kazuto/internal/syncx"
)

// Health returns the [HealthHandler] mounted on mux at /health, mounting a new
// one on first use.
func Health(mux *http.ServeMux) *HealthHandler {
	if h, pat := mux.Handler(&http.Request{URL: &url.URL{Path: "/health"}}); pat == "/health" {
		if hh, ok := h.(*HealthHandler); ok {
			return hh
		}
	}
	hh := &HealthHandler{checks: syncx.Protect(make(map[string]HealthFunc))}
	mux.Handle("/health", hh)
	return hh
}

// HealthHandler serves a JSON report built from registered checks. The
// response status is 500 if any check fails.
type HealthHandler struct {
	checks *syncx.Protected[map[string]HealthFunc]
}

// HealthFunc reports the state of one subsystem. It runs on every /health
// request with that request's context, so it must be cheap and safe for
// concurrent use.
type HealthFunc func(ctx context.Context) (status string, ok bool)

// RegisterFunc adds a check under name. It panics if name is taken.
func (h *HealthHandler) RegisterFunc(name string, f HealthFunc) {
	h.checks.Access(func(checks map[string]HealthFunc) {
		if _, dup := checks[name]; dup {
			panic("web: health check " + name + " is already registered")
		}
		checks[name] = f
	})
}

// HealthResponse is the body of a /health response.
type HealthResponse struct {
	OK     bool                     `json:"ok"`
	Checks map[string]CheckResponse `json:"checks"`
}

// CheckResponse is the result of a single check.
type CheckResponse struct {
	Status string `json:"status"`
	OK     bool   `json:"ok"`
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		RespondJSONError(w, r, ErrMethodNotAllowed)
		return
	}

	resp := &HealthResponse{OK: true, Checks: make(map[string]CheckResponse)}
	h.checks.RAccess(func(checks map[string]HealthFunc) {
		for name, check := range checks {
			status, ok := check(r.Context())
			resp.OK = resp.OK && ok
			resp.Checks[name] = CheckResponse{Status: status, OK: ok}
		}
	})

	w.Header().Set("Content-Type", "application/json")
	if !resp.OK {
		w.WriteHeader(http.StatusInternalServerError)
	}
	RespondJSON(w, resp)
}
