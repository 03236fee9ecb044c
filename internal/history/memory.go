// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package history

import (
	"context"
	"maps"
	"sync"
)

// MemStore is an in-memory implementation of the [Backend] interface.
type MemStore struct {
	mu   sync.Mutex
	rows []Row
}

// NewMemStore creates a new empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{}
}

// Append adds the record to the end of the table.
func (s *MemStore) Append(_ context.Context, r Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, r.toRow())
	return nil
}

// Rows returns copies of all rows.
func (s *MemStore) Rows(context.Context) ([]Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	// Return copies to prevent the caller from mutating the table.
	rows := make([]Row, len(s.rows))
	for i, r := range s.rows {
		rows[i] = maps.Clone(r)
	}
	return rows, nil
}

// Close is a no-op for MemStore.
func (s *MemStore) Close() error {
	return nil
}
