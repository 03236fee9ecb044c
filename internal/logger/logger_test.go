// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package logger

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"testing"
)

func TestContext(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf)
	ctx := Put(context.Background(), l)

	if Get(ctx) != l {
		t.Fatal("Get returned a different logger than was put")
	}
	if Get(context.Background()) != defaultLogger {
		t.Fatal("Get without a logger should return the default one")
	}

	Debug(ctx, "hidden")
	Error(ctx, "visible", slog.String("key", "value"))
	if strings.Contains(buf.String(), "hidden") {
		t.Errorf("debug record written at info level: %q", buf.String())
	}
	if !strings.Contains(buf.String(), "level=ERROR msg=visible key=value") {
		t.Errorf("error record missing: %q", buf.String())
	}

	l.Level.Set(slog.LevelDebug)
	Debug(ctx, "now visible")
	if !strings.Contains(buf.String(), "now visible") {
		t.Errorf("debug record missing after raising verbosity: %q", buf.String())
	}
}

func TestLogf(t *testing.T) {
	var got string
	f := Logf(func(format string, args ...any) {
		got = fmt.Sprintf(format, args...)
	})
	n, err := f.Write([]byte("hello"))
	if err != nil {
		t.Fatal(err)
	}
	if n != 5 || got != "hello" {
		t.Errorf("Write = %d, %q", n, got)
	}
}
