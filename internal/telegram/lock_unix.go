// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

//go:build unix

package telegram

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"syscall"
)

// errAlreadyPolling is returned by [Bot.Poll] when another process on this
// machine is polling updates for the same bot.
var errAlreadyPolling = errors.New("telegram: another process is already polling updates for this bot")

// acquirePollLock takes a non-blocking exclusive lock on a file named after
// the bot in dir and writes the PID into it.
func acquirePollLock(dir string, botID int64) (release func() error, err error) {
	path := filepath.Join(dir, "kazuto-"+strconv.FormatInt(botID, 10)+".lock")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, err
	}
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		if closeErr := f.Close(); closeErr != nil {
			return nil, errors.Join(err, closeErr)
		}
		if errors.Is(err, syscall.EWOULDBLOCK) || errors.Is(err, syscall.EAGAIN) {
			return nil, fmt.Errorf("%w (lock file %s)", errAlreadyPolling, path)
		}
		return nil, err
	}

	release = func() error {
		if err := syscall.Flock(int(f.Fd()), syscall.LOCK_UN); err != nil {
			return errors.Join(err, f.Close())
		}
		return f.Close()
	}
	if err := f.Truncate(0); err != nil {
		return nil, errors.Join(err, release())
	}
	if _, err := f.WriteString(strconv.Itoa(os.Getpid()) + "\n"); err != nil {
		return nil, errors.Join(err, release())
	}
	return release, nil
}
