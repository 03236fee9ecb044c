// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package clitest runs table tests against a [cli.App].
package clitest

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"go.astrophena.name/kazuto/internal/cli"
)

// Case describes one run of an application.
type Case[App cli.App] struct {
	// Args are passed as command-line arguments.
	Args []string
	// Env is what the application sees through [cli.Env.Getenv]. The real
	// process environment is never consulted.
	Env map[string]string
	// WantErr, if set, must match the returned error with errors.Is. A
	// successful run is expected otherwise.
	WantErr error
	// WantInStderr, if set, must be a substring of the standard error, which
	// is where the application logs.
	WantInStderr string
	// CheckFunc, if set, inspects the application after a successful run.
	CheckFunc func(*testing.T, App)
}

// Run runs every case in parallel, each against a fresh application returned
// by setup.
func Run[App cli.App](t *testing.T, setup func(*testing.T) App, cases map[string]Case[App]) {
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			app := setup(t)
			var stdout, stderr bytes.Buffer
			env := &cli.Env{
				Args:   tc.Args,
				Getenv: func(name string) string { return tc.Env[name] },
				Stdout: &stdout,
				Stderr: &stderr,
			}

			err := cli.Run(cli.WithEnv(t.Context(), env), app)
			switch {
			case tc.WantErr == nil && err != nil:
				t.Fatalf("unexpected error: %v\nstderr:\n%s", err, stderr.String())
			case tc.WantErr != nil && err == nil:
				t.Fatalf("must fail with error: %v", tc.WantErr)
			case tc.WantErr != nil && !errors.Is(err, tc.WantErr):
				t.Fatalf("got error %v, want %v", err, tc.WantErr)
			}

			if tc.WantInStderr != "" && !strings.Contains(stderr.String(), tc.WantInStderr) {
				t.Errorf("stderr must contain %q, got: %q", tc.WantInStderr, stderr.String())
			}
			if tc.CheckFunc != nil && err == nil {
				tc.CheckFunc(t, app)
			}
		})
	}
}
