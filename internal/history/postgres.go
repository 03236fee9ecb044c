// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package history

import (
	"context"
	"slices"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore is a PostgreSQL implementation of the [Backend] interface.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore and connects to the database.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	if _, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS messages (
			id BIGSERIAL PRIMARY KEY,
			timestamp TEXT NOT NULL,
			channel_id TEXT NOT NULL,
			speaker TEXT NOT NULL,
			message_content TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS messages_channel_id ON messages (channel_id, id);
	`); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{pool: pool}, nil
}

// Append inserts the record.
func (s *PostgresStore) Append(ctx context.Context, r Record) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO messages (timestamp, channel_id, speaker, message_content)
		VALUES ($1, $2, $3, $4);
	`, r.Timestamp, r.ChannelID, r.Speaker, r.Text)
	return err
}

// Rows returns all rows in insertion order.
func (s *PostgresStore) Rows(ctx context.Context) ([]Row, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT timestamp, channel_id, speaker, message_content
		FROM messages ORDER BY id;
	`)
	if err != nil {
		return nil, err
	}
	return collectPgRows(rows)
}

// RowsFor returns the latest limit rows of the channel, oldest first.
func (s *PostgresStore) RowsFor(ctx context.Context, channelID string, limit int) ([]Row, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT timestamp, channel_id, speaker, message_content
		FROM messages WHERE channel_id = $1 ORDER BY id DESC LIMIT $2;
	`, channelID, limit)
	if err != nil {
		return nil, err
	}
	res, err := collectPgRows(rows)
	if err != nil {
		return nil, err
	}
	slices.Reverse(res)
	return res, nil
}

func collectPgRows(rows pgx.Rows) ([]Row, error) {
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Row, error) {
		var r Record
		if err := row.Scan(&r.Timestamp, &r.ChannelID, &r.Speaker, &r.Text); err != nil {
			return nil, err
		}
		return r.toRow(), nil
	})
}

// Close closes the database connection.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
