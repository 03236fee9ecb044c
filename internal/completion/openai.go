// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package completion

import (
	"cmp"
	"context"
	"net/http"

	"github.com/sashabaranov/go-openai"
)

// Defaults of [OpenAI].
const (
	DefaultBaseURL     = "https://api.groq.com/openai/v1"
	DefaultOpenAIModel = "llama-3.1-8b-instant"
)

// OpenAI is a [Backend] for OpenAI-compatible chat completion APIs.
type OpenAI struct {
	BaseURL    string
	Model      string
	HTTPClient *http.Client
}

// Complete implements [Backend].
func (o *OpenAI) Complete(ctx context.Context, key, prompt string) (string, error) {
	cfg := openai.DefaultConfig(key)
	cfg.BaseURL = cmp.Or(o.BaseURL, DefaultBaseURL)
	if o.HTTPClient != nil {
		cfg.HTTPClient = o.HTTPClient
	}
	client := openai.NewClientWithConfig(cfg)

	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: cmp.Or(o.Model, DefaultOpenAIModel),
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: Temperature,
		MaxTokens:   MaxTokens,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}
