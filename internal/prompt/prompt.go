// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package prompt assembles the text sent to the completion API.
package prompt

import (
	"strings"

	"go.astrophena.name/kazuto/internal/history"
	"go.astrophena.name/kazuto/internal/persona"
)

// Params are the inputs of [Build].
type Params struct {
	Description string
	Examples    string
	History     []history.Record // oldest first
	Timestamp   string
	Speaker     string
	Text        string
	Marker      string
}

// ForPersona returns Params with persona fields filled.
func ForPersona(p *persona.Persona) Params {
	return Params{
		Description: p.Description,
		Examples:    p.Examples,
		Marker:      p.Marker(),
	}
}

// Build renders the prompt:
//
//	<description>
//
//	--- 会話例 ---
//	<examples>
//
//	--- 会話履歴 ---
//	[<timestamp>] <speaker>: <text>
//	...
//	[<timestamp>] <speaker>: <text>
//	<marker>
//
// Nothing is truncated.
func Build(p Params) string {
	var sb strings.Builder
	sb.WriteString(p.Description)
	sb.WriteString("\n\n--- 会話例 ---\n")
	sb.WriteString(strings.TrimSpace(p.Examples))
	sb.WriteString("\n\n--- 会話履歴 ---\n")
	for i, r := range p.History {
		if i > 0 {
			sb.WriteByte('\n')
		}
		writeLine(&sb, r.Timestamp, r.Speaker, r.Text)
	}
	sb.WriteByte('\n')
	writeLine(&sb, p.Timestamp, p.Speaker, p.Text)
	sb.WriteByte('\n')
	sb.WriteString(p.Marker)
	return sb.String()
}

func writeLine(sb *strings.Builder, ts, speaker, text string) {
	sb.WriteByte('[')
	sb.WriteString(ts)
	sb.WriteString("] ")
	sb.WriteString(speaker)
	sb.WriteString(": ")
	sb.WriteString(text)
}
