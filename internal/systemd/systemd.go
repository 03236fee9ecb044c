// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package systemd implements the parts of the sd_notify protocol the bot
// needs when it runs as a systemd service: readiness and watchdog pings.
package systemd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"
	"time"

	"go.astrophena.name/kazuto/internal/logger"
)

// State is a sd_notify state string.
// See https://www.freedesktop.org/software/systemd/man/sd_notify.html.
type State string

const (
	// Ready tells the service manager that the bot has started serving.
	Ready State = "READY=1"
	// Stopping tells the service manager that the bot is shutting down.
	Stopping State = "STOPPING=1"
	// Watchdog updates the watchdog timestamp.
	Watchdog State = "WATCHDOG=1"
)

// Notify sends state to the socket named by NOTIFY_SOCKET. It does nothing
// outside of systemd. Errors are logged, not returned.
func Notify(ctx context.Context, state State) {
	name := os.Getenv("NOTIFY_SOCKET")
	if name == "" {
		return
	}
	if err := send(name, state); err != nil {
		logger.Warn(ctx, "systemd: notify failed", slog.String("state", string(state)), slog.Any("err", err))
	}
}

func send(name string, state State) error {
	addr := &net.UnixAddr{Net: "unixgram", Name: name}
	conn, err := net.DialUnix(addr.Net, nil, addr)
	if err != nil {
		return err
	}
	defer conn.Close()
	_, err = conn.Write([]byte(state))
	return err
}

// WatchdogLoop pings the watchdog at the interval set by WATCHDOG_USEC until
// ctx is canceled. It returns immediately when the watchdog isn't enabled.
func WatchdogLoop(ctx context.Context) {
	if os.Getenv("WATCHDOG_USEC") == "" {
		return
	}
	interval, err := watchdogInterval(os.Getenv("WATCHDOG_USEC"))
	if err != nil {
		logger.Error(ctx, "systemd: watchdog disabled", slog.Any("err", err))
		return
	}
	logger.Debug(ctx, "systemd: watchdog enabled", slog.Duration("interval", interval))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			Notify(ctx, Watchdog)
		case <-ctx.Done():
			return
		}
	}
}

// watchdogInterval returns half of the configured timeout, as sd_watchdog_enabled(3)
// recommends.
func watchdogInterval(usec string) (time.Duration, error) {
	n, err := strconv.Atoi(usec)
	if err != nil {
		return 0, fmt.Errorf("parsing WATCHDOG_USEC: %w", err)
	}
	if n <= 0 {
		return 0, errors.New("WATCHDOG_USEC must be a positive number")
	}
	return time.Duration(n) * time.Microsecond / 2, nil
}
