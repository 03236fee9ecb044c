// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

//go:build linux && !android

package restrict

import (
	"context"
	"log/slog"
	"os"

	"github.com/landlock-lsm/go-landlock/landlock"

	"go.astrophena.name/kazuto/internal/logger"
)

// Do restricts filesystem access of all goroutines of this program to the
// given paths. Paths that don't exist are skipped. Network access is left
// alone.
func Do(ctx context.Context, p Paths) {
	var rules []landlock.Rule
	if ro := existing(p.RODirs); len(ro) > 0 {
		rules = append(rules, landlock.RODirs(ro...))
	}
	if ro := existing(p.ROFiles); len(ro) > 0 {
		rules = append(rules, landlock.ROFiles(ro...))
	}
	if rw := existing(p.RWDirs); len(rw) > 0 {
		rules = append(rules, landlock.RWDirs(rw...))
	}
	if err := landlock.V4.BestEffort().RestrictPaths(rules...); err != nil {
		logger.Warn(ctx, "sandboxing failed", slog.Any("err", err))
		return
	}
	logger.Debug(ctx, "sandbox enabled", slog.Int("rules", len(rules)))
}

func existing(paths []string) []string {
	var ret []string
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			ret = append(ret, p)
		}
	}
	return ret
}
