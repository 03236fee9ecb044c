// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package relay turns incoming chat messages into persona replies.
package relay

import (
	"cmp"
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.astrophena.name/kazuto/internal/history"
	"go.astrophena.name/kazuto/internal/logger"
	"go.astrophena.name/kazuto/internal/persona"
	"go.astrophena.name/kazuto/internal/prompt"
)

// HistoryLimit is how many past records of a channel are put in a prompt.
const HistoryLimit = 8

// DefaultTypingInterval is how often the typing indicator is refreshed.
const DefaultTypingInterval = 4 * time.Second

// Event is a message received from a chat platform.
type Event struct {
	AuthorID    string
	AuthorName  string
	ChannelID   string
	Private     bool
	MentionsBot bool
	// Text is the message with the bot mention removed.
	Text string
}

// Replier delivers replies to a chat platform.
type Replier interface {
	// Reply sends text to the channel.
	Reply(ctx context.Context, channelID, text string) error
	// Typing shows a typing indicator in the channel.
	Typing(ctx context.Context, channelID string) error
}

// Completer generates a reply to a prompt. It never fails.
type Completer interface {
	Complete(ctx context.Context, prompt string) string
}

// Handler processes events one at a time; it is safe to call Handle from
// multiple goroutines.
type Handler struct {
	SelfID    string // author ID of the bot itself
	History   *history.Store
	Completer Completer
	Persona   *persona.Persona
	Replier   Replier

	// Now returns current time. Defaults to time.Now.
	Now func() time.Time
	// TypingInterval defaults to DefaultTypingInterval.
	TypingInterval time.Duration
}

// ShouldRespond reports whether ev is addressed to the bot.
func (h *Handler) ShouldRespond(ev Event) bool {
	if ev.AuthorID == h.SelfID {
		return false
	}
	return ev.MentionsBot || ev.Private
}

// Handle replies to ev if it is addressed to the bot. The returned error is
// only about delivering the reply.
func (h *Handler) Handle(ctx context.Context, ev Event) error {
	if !h.ShouldRespond(ev) {
		return nil
	}

	now := time.Now
	if h.Now != nil {
		now = h.Now
	}
	ts := history.Timestamp(now())
	text := strings.TrimSpace(ev.Text)

	logger.Info(ctx, "message received",
		slog.String("channel_id", ev.ChannelID),
		slog.String("author", ev.AuthorName),
		slog.Bool("private", ev.Private),
	)

	h.History.Append(ctx, history.Record{
		Timestamp: ts,
		ChannelID: ev.ChannelID,
		Speaker:   ev.AuthorName,
		Text:      text,
	})
	past := h.History.Recent(ctx, ev.ChannelID, HistoryLimit)

	p := prompt.ForPersona(h.Persona)
	p.History = past
	p.Timestamp = ts
	p.Speaker = ev.AuthorName
	p.Text = text
	pr := prompt.Build(p)
	logger.Debug(ctx, "prompt built", slog.Int("history", len(past)), slog.Int("len", len(pr)))

	stop := h.typing(ctx, ev.ChannelID)
	reply := h.Completer.Complete(ctx, pr)
	stop()

	h.History.Append(ctx, history.Record{
		Timestamp: history.Timestamp(now()),
		ChannelID: ev.ChannelID,
		Speaker:   h.Persona.DisplayName,
		Text:      reply,
	})

	return h.Replier.Reply(ctx, ev.ChannelID, reply)
}

// typing shows the typing indicator until the returned function is called.
func (h *Handler) typing(ctx context.Context, channelID string) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(cmp.Or(h.TypingInterval, DefaultTypingInterval))
		defer ticker.Stop()
		for {
			if err := h.Replier.Typing(ctx, channelID); err != nil && ctx.Err() == nil {
				logger.Warn(ctx, "typing indicator failed", slog.String("channel_id", channelID), slog.Any("err", err))
			}
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
	return func() {
		cancel()
		wg.Wait()
	}
}
