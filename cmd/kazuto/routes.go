// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package main

import (
	"context"
	"fmt"
	"net/http"

	"go.astrophena.name/kazuto/internal/web"
)

func (e *engine) initRoutes() {
	e.mux = http.NewServeMux()
	e.mux.Handle("/telegram", e.bot)

	health := web.Health(e.mux)
	health.RegisterFunc("completion", func(context.Context) (status string, ok bool) {
		n := e.completion.Keys.Len()
		if n == 0 {
			return "no API keys configured", false
		}
		return fmt.Sprintf("%s, %d keys, next is #%d", e.provider, n, e.completion.Keys.Cursor()), true
	})
	health.RegisterFunc("history", func(context.Context) (status string, ok bool) {
		if e.history.Connected() {
			return e.historyBackend + ": connected", true
		}
		// Connection is lazy; a store that failed to connect degrades
		// gracefully, so this isn't a failure.
		return e.historyBackend + ": not connected yet", true
	})
}
