// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package completion generates bot replies with a text completion API.
package completion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"go.astrophena.name/kazuto/internal/logger"
	"go.astrophena.name/kazuto/internal/persona"
)

// Sampling parameters of every request.
const (
	Temperature = 0.7
	MaxTokens   = 500
)

// ErrNoCredentials is logged when a reply is requested but no API keys are
// configured.
var ErrNoCredentials = errors.New("completion: no API keys configured")

var errEmptyResponse = errors.New("completion: empty response")

// Backend sends a single-turn prompt to a completion API.
type Backend interface {
	Complete(ctx context.Context, key, prompt string) (string, error)
}

// Client generates replies, never failing: errors are logged and replaced by
// canned persona replies.
type Client struct {
	Backend Backend
	Keys    *Rotator
	Persona *persona.Persona
}

// Complete returns the reply to prompt.
func (c *Client) Complete(ctx context.Context, prompt string) string {
	if c.Keys == nil || c.Keys.Len() == 0 {
		logger.Error(ctx, "completion: not configured", slog.Any("err", ErrNoCredentials))
		return c.Persona.NotConfigured
	}

	key, idx := c.Keys.Next()
	text, err := c.Backend.Complete(ctx, key, prompt)
	if err == nil && strings.TrimSpace(text) == "" {
		// Telegram refuses to send an empty message.
		err = errEmptyResponse
	}
	if err != nil {
		logger.Error(ctx, "completion: request failed", slog.Int("key_index", idx), slog.Any("err", err))
		return c.Persona.Apology
	}
	return text
}

// Config selects and configures a [Backend].
type Config struct {
	// Provider is "openai" (default) or "gemini".
	Provider string
	// BaseURL overrides the API endpoint of "openai" provider.
	BaseURL string
	// Model overrides the provider default model.
	Model string
	// HTTPClient is used for API requests.
	HTTPClient *http.Client
	// Scrubber removes secrets from errors.
	Scrubber *strings.Replacer
}

// NewBackend returns the backend described by c.
func NewBackend(c Config) (Backend, error) {
	switch strings.ToLower(c.Provider) {
	case "", "openai", "groq":
		return &OpenAI{BaseURL: c.BaseURL, Model: c.Model, HTTPClient: c.HTTPClient}, nil
	case "gemini":
		return &Gemini{Model: c.Model, HTTPClient: c.HTTPClient, Scrubber: c.Scrubber}, nil
	}
	return nil, fmt.Errorf("completion: unknown provider %q", c.Provider)
}
