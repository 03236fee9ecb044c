// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package prompt

import (
	"flag"
	"os"
	"strings"
	"testing"

	"go.astrophena.name/kazuto/internal/history"
	"go.astrophena.name/kazuto/internal/persona"
	"go.astrophena.name/kazuto/internal/testutil"

	"golang.org/x/tools/txtar"
)

var update = flag.Bool("update", false, "update golden files in testdata")

// Test cases are txtar archives with the following files:
//
//   - description, examples, marker: used as is
//   - history: one record per line, fields separated by tabs
//   - turn: the new turn, fields separated by tabs
func TestBuild(t *testing.T) {
	testutil.RunGolden(t, "testdata/*.txtar", func(t *testing.T, match string) []byte {
		b, err := os.ReadFile(match)
		if err != nil {
			t.Fatal(err)
		}
		ar := txtar.Parse(b)
		files := make(map[string]string)
		for _, f := range ar.Files {
			files[f.Name] = string(f.Data)
		}

		p := Params{
			Description: files["description"],
			Examples:    files["examples"],
			Marker:      strings.TrimSpace(files["marker"]),
		}
		for _, line := range strings.Split(strings.TrimSpace(files["history"]), "\n") {
			if line == "" {
				continue
			}
			f := splitFields(t, line)
			p.History = append(p.History, history.Record{Timestamp: f[0], Speaker: f[1], Text: f[2]})
		}
		turn := splitFields(t, strings.TrimSuffix(files["turn"], "\n"))
		p.Timestamp, p.Speaker, p.Text = turn[0], turn[1], turn[2]

		return []byte(Build(p))
	}, *update)
}

func splitFields(t *testing.T, line string) []string {
	t.Helper()
	f := strings.SplitN(line, "\t", 3)
	if len(f) != 3 {
		t.Fatalf("malformed line %q", line)
	}
	return f
}

func TestBuildEmptyHistory(t *testing.T) {
	got := Build(Params{
		Description: "desc",
		Examples:    "\n user: hi \n",
		Timestamp:   "2026-01-01 00:00:00",
		Speaker:     "Alice",
		Text:        "hello",
		Marker:      "Bot:",
	})
	want := "desc\n\n--- 会話例 ---\nuser: hi\n\n--- 会話履歴 ---\n\n[2026-01-01 00:00:00] Alice: hello\nBot:"
	testutil.AssertEqual(t, got, want)
}

func TestForPersona(t *testing.T) {
	p := persona.Default()
	params := ForPersona(p)
	params.Timestamp, params.Speaker, params.Text = "2026-01-01 00:00:00", "Alice", "hello"
	got := Build(params)
	if !strings.HasPrefix(got, p.Description) {
		t.Fatal("prompt doesn't start with persona description")
	}
	if !strings.HasSuffix(got, "\n[2026-01-01 00:00:00] Alice: hello\n横井:") {
		t.Fatalf("unexpected prompt ending: %q", got[len(got)-60:])
	}
}
