// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package history implements conversation history kept in an append-only
// table.
//
// A [Store] never fails: errors are logged and reads degrade to an empty
// history, so a broken table never stops the bot from replying.
package history

import (
	"context"
	"io"
	"log/slog"
	"slices"
	"time"

	"go.astrophena.name/kazuto/internal/logger"
	"go.astrophena.name/kazuto/internal/syncx"
)

// TimeFormat is the layout of [Record.Timestamp].
const TimeFormat = time.DateTime

// Location is the time zone of timestamps.
var Location = time.FixedZone("JST", 9*60*60)

// Timestamp formats t for storing in a [Record].
func Timestamp(t time.Time) string {
	return t.In(Location).Format(TimeFormat)
}

// Record is one conversation turn.
type Record struct {
	Timestamp string
	ChannelID string
	Speaker   string
	Text      string
}

// Store is a fail-silent view of a [Backend] that is connected to on first
// use.
type Store struct {
	open func(context.Context) (Backend, error)
	be   syncx.Memo[Backend]
}

// New returns a Store that obtains its backend by calling open. Successful
// result is reused for the lifetime of the Store; after a failure open is
// called again on the next operation.
func New(open func(context.Context) (Backend, error)) *Store {
	return &Store{open: open}
}

func (s *Store) backend(ctx context.Context) (Backend, error) {
	return s.be.Get(func() (Backend, error) {
		be, err := s.open(ctx)
		if err != nil {
			return nil, err
		}
		logger.Info(ctx, "history backend connected")
		return be, nil
	})
}

// Append stores r. Errors are logged and otherwise ignored.
func (s *Store) Append(ctx context.Context, r Record) {
	be, err := s.backend(ctx)
	if err != nil {
		logger.Error(ctx, "history: connecting failed", slog.Any("err", err))
		return
	}
	if err := be.Append(ctx, r); err != nil {
		logger.Error(ctx, "history: append failed", slog.String("channel_id", r.ChannelID), slog.Any("err", err))
	}
}

// Recent returns at most limit latest records of the channel, oldest first.
// On error it logs and returns nil.
func (s *Store) Recent(ctx context.Context, channelID string, limit int) []Record {
	if limit <= 0 {
		return nil
	}
	be, err := s.backend(ctx)
	if err != nil {
		logger.Error(ctx, "history: connecting failed", slog.Any("err", err))
		return nil
	}

	var rows []Row
	if cr, ok := be.(ChannelReader); ok {
		rows, err = cr.RowsFor(ctx, channelID, limit)
	} else {
		rows, err = be.Rows(ctx)
	}
	if err != nil {
		logger.Error(ctx, "history: reading failed", slog.String("channel_id", channelID), slog.Any("err", err))
		return nil
	}

	return recent(ctx, rows, channelID, limit)
}

func recent(ctx context.Context, rows []Row, channelID string, limit int) []Record {
	var res []Record
	for i := len(rows) - 1; i >= 0 && len(res) < limit; i-- {
		row := rows[i]
		if row[ColChannelID] != channelID {
			continue
		}
		r, ok := parseRow(row)
		if !ok {
			logger.Warn(ctx, "history: skipping malformed row", slog.String("channel_id", channelID), slog.Int("row", i))
			continue
		}
		r.ChannelID = channelID
		res = append(res, r)
	}
	slices.Reverse(res)
	return res
}

func parseRow(row Row) (r Record, ok bool) {
	if r.Timestamp, ok = row[ColTimestamp]; !ok {
		return r, false
	}
	if r.Speaker, ok = row[ColSpeaker]; !ok {
		return r, false
	}
	if r.Text, ok = row[ColText]; !ok {
		return r, false
	}
	return r, true
}

// Connected reports whether the backend has been connected to.
func (s *Store) Connected() bool {
	_, ok := s.be.Peek()
	return ok
}

// Close closes the backend if it was connected and can be closed.
func (s *Store) Close() error {
	be, ok := s.be.Peek()
	if !ok {
		return nil
	}
	if c, ok := be.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
