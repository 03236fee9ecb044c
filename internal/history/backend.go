// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package history

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Column names of the history table, in order.
const (
	ColTimestamp = "timestamp"
	ColChannelID = "channel_id"
	ColSpeaker   = "speaker"
	ColText      = "message_content"
)

// Columns is the header row of the history table.
var Columns = []string{ColTimestamp, ColChannelID, ColSpeaker, ColText}

// Row is a single stored row keyed by column name. A column absent from
// the map is missing in the underlying table.
type Row map[string]string

func (r Record) row() []string {
	return []string{r.Timestamp, r.ChannelID, r.Speaker, r.Text}
}

func (r Record) toRow() Row {
	return Row{
		ColTimestamp: r.Timestamp,
		ColChannelID: r.ChannelID,
		ColSpeaker:   r.Speaker,
		ColText:      r.Text,
	}
}

// Backend is an append-only table of conversation records.
type Backend interface {
	// Append adds the record after all existing ones.
	Append(ctx context.Context, r Record) error
	// Rows returns all stored rows, oldest first.
	Rows(ctx context.Context) ([]Row, error)
}

// ChannelReader is implemented by backends that can narrow a read to the
// latest rows of one channel. Rows are returned oldest first.
type ChannelReader interface {
	RowsFor(ctx context.Context, channelID string, limit int) ([]Row, error)
}

// ErrNoCredentials is returned by backend openers when the configuration
// lacks what is needed to connect.
var ErrNoCredentials = errors.New("history: no credentials")

// ErrUnknownBackend is returned by [Config.Opener] for unsupported backend
// names.
var ErrUnknownBackend = errors.New("history: unknown backend")

// Config selects and configures a backend.
type Config struct {
	// Backend is one of "sheets", "sqlite", "postgres" or "memory".
	Backend string
	// Sheets configures the "sheets" backend.
	Sheets SheetsConfig
	// DatabaseURL is a PostgreSQL connection string or a SQLite file path.
	DatabaseURL string
}

// Opener returns a function that connects to the backend described by c.
// It is meant to be passed to [New], which calls it lazily.
func (c Config) Opener() (func(context.Context) (Backend, error), error) {
	switch strings.ToLower(c.Backend) {
	case "", "sheets":
		return func(ctx context.Context) (Backend, error) {
			return OpenSheets(ctx, c.Sheets)
		}, nil
	case "sqlite":
		return func(ctx context.Context) (Backend, error) {
			if c.DatabaseURL == "" {
				return nil, fmt.Errorf("%w: sqlite database path is empty", ErrNoCredentials)
			}
			return NewSQLiteStore(ctx, c.DatabaseURL)
		}, nil
	case "postgres":
		return func(ctx context.Context) (Backend, error) {
			if c.DatabaseURL == "" {
				return nil, fmt.Errorf("%w: DATABASE_URL is empty", ErrNoCredentials)
			}
			return NewPostgresStore(ctx, c.DatabaseURL)
		}, nil
	case "memory":
		mem := NewMemStore()
		return func(context.Context) (Backend, error) { return mem, nil }, nil
	}
	return nil, fmt.Errorf("%w %q", ErrUnknownBackend, c.Backend)
}

// Dir returns a directory the backend needs write access to, if any.
func (c Config) Dir() string {
	if strings.ToLower(c.Backend) != "sqlite" || c.DatabaseURL == "" {
		return ""
	}
	path := strings.TrimPrefix(c.DatabaseURL, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return os.TempDir()
	}
	return filepath.Dir(abs)
}
