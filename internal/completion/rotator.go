// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package completion

import "sync"

// Rotator hands out API keys in round-robin order.
type Rotator struct {
	mu     sync.Mutex
	keys   []string
	cursor int
}

// NewRotator returns a Rotator over keys. Empty keys are dropped.
func NewRotator(keys ...string) *Rotator {
	r := &Rotator{}
	for _, k := range keys {
		if k != "" {
			r.keys = append(r.keys, k)
		}
	}
	return r
}

// Next returns the key under the cursor and its index, then advances the
// cursor. It panics if there are no keys.
func (r *Rotator) Next() (key string, index int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	index = r.cursor
	key = r.keys[index]
	r.cursor = (r.cursor + 1) % len(r.keys)
	return key, index
}

// Len returns the number of keys.
func (r *Rotator) Len() int {
	return len(r.keys)
}

// Cursor returns the index of the key the next call to [Rotator.Next]
// returns.
func (r *Rotator) Cursor() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cursor
}
