// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

//go:build !unix

package telegram

func acquirePollLock(string, int64) (func() error, error) {
	return func() error { return nil }, nil
}
