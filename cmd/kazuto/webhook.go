// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package main

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"go.astrophena.name/kazuto/internal/request"
	"go.astrophena.name/kazuto/internal/version"
)

const tgAPI = "https://api.telegram.org"

var errNoHost = errors.New("host hasn't set; pass it with -host flag or HOST environment variable")

func (e *engine) setWebhook(ctx context.Context) error {
	if e.host == "" {
		return errNoHost
	}
	u := &url.URL{
		Scheme: "https",
		Host:   e.host,
		Path:   "/telegram",
	}
	return e.callBotAPI(ctx, "setWebhook", map[string]any{
		"url":             u.String(),
		"secret_token":    e.tgSecret,
		"allowed_updates": []string{"message"},
	})
}

// deleteWebhook removes a webhook left by production mode, so long polling
// can work.
func (e *engine) deleteWebhook(ctx context.Context) error {
	return e.callBotAPI(ctx, "deleteWebhook", map[string]any{})
}

func (e *engine) callBotAPI(ctx context.Context, method string, params map[string]any) error {
	_, err := request.Make[request.IgnoreResponse](ctx, request.Params{
		Method: http.MethodPost,
		URL:    tgAPI + "/bot" + e.tgToken + "/" + method,
		Body:   params,
		Headers: map[string]string{
			"User-Agent": version.UserAgent(),
		},
		HTTPClient: e.httpc,
		Scrubber:   e.scrubber,
	})
	return err
}
