// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package history

import (
	"context"
	"database/sql"
	"slices"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore is a SQLite implementation of the [Backend] interface.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new [SQLiteStore] and connects to the database.
func NewSQLiteStore(ctx context.Context, dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		db.Close()
		return nil, err
	}

	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS messages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp TEXT NOT NULL,
			channel_id TEXT NOT NULL,
			speaker TEXT NOT NULL,
			message_content TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS messages_channel_id ON messages (channel_id, id);
	`); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db}, nil
}

// Append inserts the record.
func (s *SQLiteStore) Append(ctx context.Context, r Record) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO messages (timestamp, channel_id, speaker, message_content)
		VALUES (?, ?, ?, ?);
	`, r.Timestamp, r.ChannelID, r.Speaker, r.Text)
	return err
}

// Rows returns all rows in insertion order.
func (s *SQLiteStore) Rows(ctx context.Context) ([]Row, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT timestamp, channel_id, speaker, message_content
		FROM messages ORDER BY id;
	`)
	if err != nil {
		return nil, err
	}
	return scanSQLRows(rows)
}

// RowsFor returns the latest limit rows of the channel, oldest first.
func (s *SQLiteStore) RowsFor(ctx context.Context, channelID string, limit int) ([]Row, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT timestamp, channel_id, speaker, message_content
		FROM messages WHERE channel_id = ? ORDER BY id DESC LIMIT ?;
	`, channelID, limit)
	if err != nil {
		return nil, err
	}
	res, err := scanSQLRows(rows)
	if err != nil {
		return nil, err
	}
	slices.Reverse(res)
	return res, nil
}

func scanSQLRows(rows *sql.Rows) ([]Row, error) {
	defer rows.Close()
	var res []Row
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.Timestamp, &r.ChannelID, &r.Speaker, &r.Text); err != nil {
			return nil, err
		}
		res = append(res, r.toRow())
	}
	return res, rows.Err()
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
