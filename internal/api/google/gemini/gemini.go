// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package gemini provides a very minimal client for interacting with Gemini
// API.
package gemini

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.astrophena.name/kazuto/internal/request"
)

const apiURL = "https://generativelanguage.googleapis.com/v1beta"

// Client holds configuration for interacting with the Gemini API.
type Client struct {
	// APIKey is the API key used for authentication.
	APIKey string
	// HTTPClient is an optional HTTP client to use for requests. Defaults to
	// request.DefaultClient.
	HTTPClient *http.Client
	// Scrubber is an optional strings.Replacer that scrubs unwanted data from
	// error messages.
	Scrubber *strings.Replacer
}

// GenerateContentParams defines the structure for the request body sent to the
// GenerateContent API.
type GenerateContentParams struct {
	// Contents is a list of Content objects representing the input text for
	// generation.
	Contents []*Content `json:"contents"`
	// SystemInstruction is an optional Content object specifying system
	// instructions for generation.
	SystemInstruction *Content `json:"systemInstruction,omitempty"`
	// GenerationConfig is an optional configuration of model sampling.
	GenerationConfig *GenerationConfig `json:"generationConfig,omitempty"`
}

// GenerationConfig contains options for model generation and outputs.
type GenerationConfig struct {
	Temperature     *float32 `json:"temperature,omitempty"`
	MaxOutputTokens int      `json:"maxOutputTokens,omitempty"`
}

// Content represents a piece of text content with a list of Part objects.
type Content struct {
	// Parts is a list of Part objects representing the textual elements within
	// the content.
	Parts []*Part `json:"parts"`
	// Role is the producer of the content. Must be either 'user' or 'model'.
	Role string `json:"role,omitempty"`
}

// Part represents a textual element within a Content object.
type Part struct {
	// Text is the content of the textual element.
	Text string `json:"text,omitempty"`
}

// GenerateContentResponse defines the structure of the response received from
// the GenerateContent API.
type GenerateContentResponse struct {
	// Candidates is a list of Candidate objects representing the generated text
	// alternatives.
	Candidates []*Candidate `json:"candidates"`
}

// Candidate represents a generated text candidate with a corresponding Content
// object.
type Candidate struct {
	// Content is the generated text content for this candidate.
	Content *Content `json:"content"`
	// FinishReason is the reason why the model stopped generating tokens.
	FinishReason string `json:"finishReason,omitempty"`
}

// Text returns concatenated text parts of the first candidate.
func (r *GenerateContentResponse) Text() (string, error) {
	if r == nil || len(r.Candidates) == 0 || r.Candidates[0].Content == nil {
		return "", errNoCandidates
	}
	var sb strings.Builder
	for _, p := range r.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String(), nil
}

var (
	errNoCandidates = errors.New("gemini: response has no candidates")
	errNoModel      = errors.New("gemini: model shouldn't be empty")
)

// GenerateContent sends a request to the Gemini API to generate creative text
// content.
func (c *Client) GenerateContent(ctx context.Context, model string, params GenerateContentParams) (*GenerateContentResponse, error) {
	if model == "" {
		return nil, errNoModel
	}
	return request.Make[*GenerateContentResponse](ctx, request.Params{
		Method: http.MethodPost,
		URL:    apiURL + "/models/" + model + ":generateContent",
		Headers: map[string]string{
			"x-goog-api-key": c.APIKey,
		},
		Body:       params,
		HTTPClient: c.HTTPClient,
		Scrubber:   c.Scrubber,
	})
}
