// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package telegram connects [relay.Handler] to Telegram Bot API.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"unicode/utf16"

	"go.astrophena.name/kazuto/internal/logger"
	"go.astrophena.name/kazuto/internal/relay"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"
)

// MaxMessageLen is the maximum length of a message text Telegram accepts.
const MaxMessageLen = 4096

// SendRate limits outgoing messages across all chats.
const SendRate = 30

var setLoggerOnce sync.Once

var errEmptyReply = errors.New("telegram: refusing to send an empty message")

// Config configures a [Bot].
type Config struct {
	// Token is the Bot API token.
	Token string
	// Secret authenticates webhook requests.
	Secret string
	// HTTPClient is used for Bot API requests.
	HTTPClient *http.Client
	// Endpoint overrides Bot API endpoint. Defaults to tgbotapi.APIEndpoint.
	Endpoint string
	// Scrubber removes secrets from logged errors.
	Scrubber *strings.Replacer
	// LockDir, if set, holds a lock file that prevents two processes from
	// polling updates for the same bot.
	LockDir string
}

// Bot receives Telegram updates and delivers replies.
type Bot struct {
	api      *tgbotapi.BotAPI
	secret   string
	limiter  *rate.Limiter
	scrubber *strings.Replacer
	lockDir  string

	// Handler processes events. It must be set before receiving updates.
	Handler *relay.Handler
}

// New connects to Bot API and fetches information about the bot.
func New(ctx context.Context, c Config) (*Bot, error) {
	// tgbotapi has a single package-level logger.
	setLoggerOnce.Do(func() {
		tgbotapi.SetLogger(botLogger{ctx: ctx, scrubber: c.Scrubber})
	})
	httpc := c.HTTPClient
	if httpc == nil {
		httpc = http.DefaultClient
	}
	endpoint := c.Endpoint
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	api, err := tgbotapi.NewBotAPIWithClient(c.Token, endpoint, httpc)
	if err != nil {
		return nil, fmt.Errorf("connecting to Bot API: %w", scrub(err, c.Scrubber))
	}
	logger.Info(ctx, "connected to Bot API", slog.String("username", api.Self.UserName), slog.Int64("id", api.Self.ID))
	return &Bot{
		api:      api,
		secret:   c.Secret,
		limiter:  rate.NewLimiter(SendRate, 1),
		scrubber: c.Scrubber,
		lockDir:  c.LockDir,
	}, nil
}

// ID returns the user ID of the bot.
func (b *Bot) ID() string { return strconv.FormatInt(b.api.Self.ID, 10) }

// Username returns the username of the bot without "@".
func (b *Bot) Username() string { return b.api.Self.UserName }

// Event converts a message to a relay event. It returns false if the
// message has no text or author.
func (b *Bot) Event(msg *tgbotapi.Message) (relay.Event, bool) {
	if msg == nil || msg.From == nil || msg.Chat == nil || msg.Text == "" {
		return relay.Event{}, false
	}
	text, mentioned := b.stripMention(msg.Text, msg.Entities)
	return relay.Event{
		AuthorID:    strconv.FormatInt(msg.From.ID, 10),
		AuthorName:  displayName(msg.From),
		ChannelID:   strconv.FormatInt(msg.Chat.ID, 10),
		Private:     msg.Chat.IsPrivate(),
		MentionsBot: mentioned,
		Text:        strings.TrimSpace(text),
	}, true
}

func displayName(u *tgbotapi.User) string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.UserName
	}
	return name
}

// stripMention removes mentions of the bot from text. Entity offsets are
// measured in UTF-16 code units.
func (b *Bot) stripMention(text string, entities []tgbotapi.MessageEntity) (string, bool) {
	units := utf16.Encode([]rune(text))
	var (
		out       []uint16
		pos       int
		mentioned bool
	)
	for _, e := range entities {
		if e.Offset < pos || e.Offset+e.Length > len(units) {
			continue
		}
		ref := units[e.Offset : e.Offset+e.Length]
		if !b.isBotMention(e, string(utf16.Decode(ref))) {
			continue
		}
		mentioned = true
		out = append(out, units[pos:e.Offset]...)
		pos = e.Offset + e.Length
	}
	if !mentioned {
		return text, false
	}
	out = append(out, units[pos:]...)
	return string(utf16.Decode(out)), true
}

func (b *Bot) isBotMention(e tgbotapi.MessageEntity, ref string) bool {
	switch e.Type {
	case "mention":
		return strings.EqualFold(ref, "@"+b.api.Self.UserName)
	case "text_mention":
		return e.User != nil && e.User.ID == b.api.Self.ID
	}
	return false
}

// Reply sends text to the chat, split into several messages if it's too long.
func (b *Bot) Reply(ctx context.Context, channelID, text string) error {
	chatID, err := strconv.ParseInt(channelID, 10, 64)
	if err != nil {
		return fmt.Errorf("telegram: invalid chat ID %q: %w", channelID, err)
	}
	if strings.TrimSpace(text) == "" {
		return errEmptyReply
	}
	for _, chunk := range split(text, MaxMessageLen) {
		if err := b.limiter.Wait(ctx); err != nil {
			return err
		}
		if _, err := b.api.Send(tgbotapi.NewMessage(chatID, chunk)); err != nil {
			return fmt.Errorf("telegram: sending message: %w", scrub(err, b.scrubber))
		}
	}
	return nil
}

// Typing shows "typing…" in the chat for a few seconds.
func (b *Bot) Typing(ctx context.Context, channelID string) error {
	chatID, err := strconv.ParseInt(channelID, 10, 64)
	if err != nil {
		return fmt.Errorf("telegram: invalid chat ID %q: %w", channelID, err)
	}
	if _, err := b.api.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)); err != nil {
		return scrub(err, b.scrubber)
	}
	return nil
}

// split cuts s into pieces of at most n UTF-16 code units, preferring to
// cut after a newline.
func split(s string, n int) []string {
	var chunks []string
	for {
		runes := []rune(s)
		size, cut := 0, len(runes)
		for i, r := range runes {
			size += utf16.RuneLen(r)
			if size > n {
				cut = i
				break
			}
		}
		if cut == len(runes) {
			return append(chunks, s)
		}
		if nl := lastIndexRune(runes[:cut], '\n'); nl >= 0 && nl+1 > cut/2 {
			cut = nl + 1
		}
		chunks = append(chunks, string(runes[:cut]))
		s = string(runes[cut:])
	}
}

func lastIndexRune(runes []rune, r rune) int {
	for i := len(runes) - 1; i >= 0; i-- {
		if runes[i] == r {
			return i
		}
	}
	return -1
}

// Poll receives updates with long polling until ctx is canceled. Each update
// is handled on its own goroutine. On cancellation Poll stops receiving and
// waits for the handlers already running, which keep an uncanceled context so
// they can still log the turn and reply.
func (b *Bot) Poll(ctx context.Context) error {
	if b.lockDir != "" {
		release, err := acquirePollLock(b.lockDir, b.api.Self.ID)
		if err != nil {
			return err
		}
		defer func() {
			if err := release(); err != nil {
				logger.Warn(ctx, "releasing poll lock", slog.Any("err", err))
			}
		}()
	}

	var wg sync.WaitGroup
	defer wg.Wait()
	handleCtx := context.WithoutCancel(ctx)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := b.api.GetUpdatesChan(u)
	logger.Info(ctx, "polling for updates")
	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				b.handleUpdate(handleCtx, update)
			}()
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	ev, ok := b.Event(update.Message)
	if !ok {
		return
	}
	if err := b.Handler.Handle(ctx, ev); err != nil {
		logger.Error(ctx, "failed to deliver reply", slog.String("channel_id", ev.ChannelID), slog.Any("err", err))
	}
}

func scrub(err error, scrubber *strings.Replacer) error {
	if scrubber == nil || err == nil {
		return err
	}
	return errors.New(scrubber.Replace(err.Error()))
}

// botLogger routes tgbotapi logs to slog.
type botLogger struct {
	ctx      context.Context
	scrubber *strings.Replacer
}

func (l botLogger) Println(v ...any) {
	l.log(strings.TrimSuffix(fmt.Sprintln(v...), "\n"))
}

func (l botLogger) Printf(format string, v ...any) {
	l.log(fmt.Sprintf(format, v...))
}

func (l botLogger) log(msg string) {
	if l.scrubber != nil {
		msg = l.scrubber.Replace(msg)
	}
	logger.Warn(l.ctx, "tgbotapi: "+msg)
}
