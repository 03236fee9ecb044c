// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package completion

import (
	"cmp"
	"context"
	"net/http"
	"strings"

	"go.astrophena.name/kazuto/internal/api/google/gemini"
)

// DefaultGeminiModel is the model [Gemini] uses unless overridden.
const DefaultGeminiModel = "gemini-2.0-flash"

// Gemini is a [Backend] for Gemini API.
type Gemini struct {
	Model      string
	HTTPClient *http.Client
	Scrubber   *strings.Replacer
}

// Complete implements [Backend].
func (g *Gemini) Complete(ctx context.Context, key, prompt string) (string, error) {
	client := &gemini.Client{
		APIKey:     key,
		HTTPClient: g.HTTPClient,
		Scrubber:   g.Scrubber,
	}
	temp := float32(Temperature)
	resp, err := client.GenerateContent(ctx, cmp.Or(g.Model, DefaultGeminiModel), gemini.GenerateContentParams{
		Contents: []*gemini.Content{
			{Role: "user", Parts: []*gemini.Part{{Text: prompt}}},
		},
		GenerationConfig: &gemini.GenerationConfig{
			Temperature:     &temp,
			MaxOutputTokens: MaxTokens,
		},
	})
	if err != nil {
		return "", err
	}
	text, err := resp.Text()
	if err != nil {
		return "", err
	}
	if text == "" {
		return "", errEmptyResponse
	}
	return text, nil
}
