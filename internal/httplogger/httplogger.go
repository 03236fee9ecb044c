// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package httplogger wraps a [http.RoundTripper] to log outgoing requests at
// the debug level.
package httplogger

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.astrophena.name/kazuto/internal/logger"
)

// New returns a [http.RoundTripper] that logs every request made through base
// (or [http.DefaultTransport], if base is nil) to l. Some clients, like the
// Telegram one, don't pass a context down to requests, so the logger is fixed
// at construction time.
//
// Scrubber, if not nil, is applied to logged URLs and errors: the Telegram
// API puts the token into the path.
func New(l *logger.Logger, base http.RoundTripper, scrubber *strings.Replacer) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return &transport{l: l, base: base, scrubber: scrubber}
}

type transport struct {
	l        *logger.Logger
	base     http.RoundTripper
	scrubber *strings.Replacer
}

func (t *transport) scrub(s string) string {
	if t.scrubber == nil {
		return s
	}
	return t.scrubber.Replace(s)
}

func (t *transport) RoundTrip(r *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := t.base.RoundTrip(r)

	attrs := []slog.Attr{
		slog.String("method", r.Method),
		slog.String("url", t.scrub(r.URL.String())),
		slog.Duration("took", time.Since(start)),
	}
	if resp != nil {
		attrs = append(attrs, slog.Int("status", resp.StatusCode))
	}
	if err != nil {
		attrs = append(attrs, slog.String("err", t.scrub(err.Error())))
	}
	t.l.LogAttrs(r.Context(), slog.LevelDebug, "http request", attrs...)

	return resp, err
}
