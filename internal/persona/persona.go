// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package persona loads the character the bot plays.
//
// A persona is a txtar archive with the following files:
//
//   - display_name: speaker name of bot turns in history
//   - short_name: name that prompts the model to continue as the bot
//   - description: character description, used verbatim
//   - examples: example dialogue
//   - apology: reply sent when the completion API fails
//   - not_configured: reply sent when no completion API keys are set
package persona

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/tools/txtar"
)

//go:embed persona.txtar
var defaultPersona []byte

// Persona is immutable character data.
type Persona struct {
	DisplayName   string
	ShortName     string
	Description   string
	Examples      string
	Apology       string
	NotConfigured string
}

// Marker returns the line that ends a prompt, so the model answers as
// the persona.
func (p *Persona) Marker() string {
	return p.ShortName + ":"
}

// Default returns the built-in persona.
func Default() *Persona {
	p, err := Parse(defaultPersona)
	if err != nil {
		panic(err)
	}
	return p
}

// Load reads a persona from path, or returns [Default] if path is empty.
func Load(path string) (*Persona, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	p, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// Parse parses a persona txtar archive.
func Parse(b []byte) (*Persona, error) {
	ar := txtar.Parse(b)
	files := make(map[string]string, len(ar.Files))
	for _, f := range ar.Files {
		files[f.Name] = string(f.Data)
	}

	p := &Persona{
		DisplayName:   strings.TrimSpace(files["display_name"]),
		ShortName:     strings.TrimSpace(files["short_name"]),
		Description:   files["description"],
		Examples:      strings.TrimSpace(files["examples"]),
		Apology:       strings.TrimSpace(files["apology"]),
		NotConfigured: strings.TrimSpace(files["not_configured"]),
	}

	var errs []error
	for name, val := range map[string]string{
		"display_name":   p.DisplayName,
		"short_name":     p.ShortName,
		"description":    p.Description,
		"apology":        p.Apology,
		"not_configured": p.NotConfigured,
	} {
		if strings.TrimSpace(val) == "" {
			errs = append(errs, fmt.Errorf("persona: %s is missing", name))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return p, nil
}
