// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf16"

	"go.astrophena.name/kazuto/internal/history"
	"go.astrophena.name/kazuto/internal/logger"
	"go.astrophena.name/kazuto/internal/persona"
	"go.astrophena.name/kazuto/internal/relay"
	"go.astrophena.name/kazuto/internal/testutil"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Typical Telegram Bot API token, copied from docs.
const tgToken = "123456:ABC-DEF1234ghIkl-zyx57W2v1u123ew11"

const botID = 123456

type call struct {
	Method string
	Args   url.Values
}

type fakeAPI struct {
	mu    sync.Mutex
	calls []call

	// updates are served by getUpdates one at a time.
	updates chan string
}

func (f *fakeAPI) sent(method string) []url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	var res []url.Values
	for _, c := range f.calls {
		if c.Method == method {
			res = append(res, c.Args)
		}
	}
	return res
}

func (f *fakeAPI) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST api.telegram.org/{token}/{method}", func(w http.ResponseWriter, r *http.Request) {
		testutil.AssertEqual(t, strings.TrimPrefix(r.PathValue("token"), "bot"), tgToken)
		if err := r.ParseForm(); err != nil {
			t.Fatal(err)
		}
		method := r.PathValue("method")
		f.mu.Lock()
		f.calls = append(f.calls, call{Method: method, Args: r.PostForm})
		f.mu.Unlock()

		var result any
		switch method {
		case "getMe":
			result = map[string]any{"id": botID, "is_bot": true, "first_name": "Kazuto", "username": "kazuto_bot"}
		case "getUpdates":
			select {
			case u := <-f.updates:
				result = []json.RawMessage{json.RawMessage(u)}
			case <-time.After(20 * time.Millisecond):
				result = []any{}
			}
		case "sendMessage":
			result = map[string]any{
				"message_id": 1,
				"date":       0,
				"chat":       map[string]any{"id": json.Number(r.PostForm.Get("chat_id")), "type": "private"},
				"text":       r.PostForm.Get("text"),
			}
		default:
			result = true
		}
		json.NewEncoder(w).Encode(map[string]any{"ok": true, "result": result})
	})
	return mux
}

func testBot(t *testing.T) (*Bot, *fakeAPI, context.Context) {
	t.Helper()
	l, _ := testutil.NewLogger()
	ctx := logger.Put(t.Context(), l)
	f := new(fakeAPI)
	b, err := New(ctx, Config{
		Token:      tgToken,
		Secret:     "s3cret",
		HTTPClient: testutil.MockHTTPClient(f.handler(t)),
	})
	if err != nil {
		t.Fatal(err)
	}
	return b, f, ctx
}

// entity returns a message entity covering sub in text.
func entity(typ, text, sub string) tgbotapi.MessageEntity {
	i := strings.Index(text, sub)
	return tgbotapi.MessageEntity{
		Type:   typ,
		Offset: len(utf16.Encode([]rune(text[:i]))),
		Length: len(utf16.Encode([]rune(sub))),
	}
}

func TestEvent(t *testing.T) {
	b, _, _ := testBot(t)
	testutil.AssertEqual(t, b.ID(), "123456")
	testutil.AssertEqual(t, b.Username(), "kazuto_bot")

	alice := &tgbotapi.User{ID: 100, FirstName: "Alice"}
	group := &tgbotapi.Chat{ID: -42, Type: "supergroup"}

	cases := map[string]struct {
		msg    *tgbotapi.Message
		want   relay.Event
		wantOK bool
	}{
		"mention": {
			msg: &tgbotapi.Message{
				From:     alice,
				Chat:     group,
				Text:     "@kazuto_bot hello",
				Entities: []tgbotapi.MessageEntity{entity("mention", "@kazuto_bot hello", "@kazuto_bot")},
			},
			want:   relay.Event{AuthorID: "100", AuthorName: "Alice", ChannelID: "-42", MentionsBot: true, Text: "hello"},
			wantOK: true,
		},
		"mention after emoji, different case": {
			msg: &tgbotapi.Message{
				From:     alice,
				Chat:     group,
				Text:     "🚃 @Kazuto_Bot どこ行くん？",
				Entities: []tgbotapi.MessageEntity{entity("mention", "🚃 @Kazuto_Bot どこ行くん？", "@Kazuto_Bot")},
			},
			want:   relay.Event{AuthorID: "100", AuthorName: "Alice", ChannelID: "-42", MentionsBot: true, Text: "🚃  どこ行くん？"},
			wantOK: true,
		},
		"other mention": {
			msg: &tgbotapi.Message{
				From:     alice,
				Chat:     group,
				Text:     "@shinri hello",
				Entities: []tgbotapi.MessageEntity{entity("mention", "@shinri hello", "@shinri")},
			},
			want:   relay.Event{AuthorID: "100", AuthorName: "Alice", ChannelID: "-42", Text: "@shinri hello"},
			wantOK: true,
		},
		"text mention": {
			msg: &tgbotapi.Message{
				From: &tgbotapi.User{ID: 101, UserName: "bob"},
				Chat: group,
				Text: "Kazuto hey",
				Entities: []tgbotapi.MessageEntity{{
					Type:   "text_mention",
					Offset: 0,
					Length: 6,
					User:   &tgbotapi.User{ID: botID},
				}},
			},
			want:   relay.Event{AuthorID: "101", AuthorName: "bob", ChannelID: "-42", MentionsBot: true, Text: "hey"},
			wantOK: true,
		},
		"private": {
			msg: &tgbotapi.Message{
				From: &tgbotapi.User{ID: 100, FirstName: "Alice", LastName: "Smith"},
				Chat: &tgbotapi.Chat{ID: 100, Type: "private"},
				Text: "hi",
			},
			want:   relay.Event{AuthorID: "100", AuthorName: "Alice Smith", ChannelID: "100", Private: true, Text: "hi"},
			wantOK: true,
		},
		"no text": {
			msg: &tgbotapi.Message{From: alice, Chat: group},
		},
		"no author": {
			msg: &tgbotapi.Message{Chat: group, Text: "channel post"},
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			got, ok := b.Event(tc.msg)
			testutil.AssertEqual(t, ok, tc.wantOK)
			testutil.AssertEqual(t, got, tc.want)
		})
	}
}

func TestSplit(t *testing.T) {
	testutil.AssertEqual(t, split("short", 10), []string{"short"})
	testutil.AssertEqual(t, split("abcdefghij", 4), []string{"abcd", "efgh", "ij"})
	testutil.AssertEqual(t, split("abc\ndefgh", 6), []string{"abc\n", "defgh"})
	// Emoji take two UTF-16 code units.
	testutil.AssertEqual(t, split("🚃🚃🚃", 4), []string{"🚃🚃", "🚃"})

	long := strings.Repeat("あ", MaxMessageLen+10)
	chunks := split(long, MaxMessageLen)
	testutil.AssertEqual(t, len(chunks), 2)
	testutil.AssertEqual(t, strings.Join(chunks, ""), long)
}

func TestReply(t *testing.T) {
	b, f, ctx := testBot(t)

	if err := b.Reply(ctx, "42", strings.Repeat("x", MaxMessageLen+1)); err != nil {
		t.Fatal(err)
	}
	sent := f.sent("sendMessage")
	testutil.AssertEqual(t, len(sent), 2)
	testutil.AssertEqual(t, sent[0].Get("chat_id"), "42")
	testutil.AssertEqual(t, len(sent[0].Get("text")), MaxMessageLen)
	testutil.AssertEqual(t, sent[1].Get("text"), "x")

	if err := b.Reply(ctx, "42", " \n"); err == nil {
		t.Fatal("want error for empty reply")
	}
	if err := b.Reply(ctx, "general", "hi"); err == nil {
		t.Fatal("want error for non-numeric chat ID")
	}

	if err := b.Typing(ctx, "42"); err != nil {
		t.Fatal(err)
	}
	typing := f.sent("sendChatAction")
	testutil.AssertEqual(t, len(typing), 1)
	testutil.AssertEqual(t, typing[0].Get("action"), "typing")
}

type echoCompleter struct{}

func (echoCompleter) Complete(context.Context, string) string { return "hi Alice" }

type blockingCompleter struct {
	started, release chan struct{}
}

func (c blockingCompleter) Complete(context.Context, string) string {
	close(c.started)
	<-c.release
	return "hi Alice"
}

func TestPollWaitsForHandlers(t *testing.T) {
	b, f, ctx := testBot(t)
	f.updates = make(chan string, 1)
	f.updates <- `{
		"update_id": 1,
		"message": {
			"message_id": 10,
			"date": 1767225600,
			"from": {"id": 100, "first_name": "Alice"},
			"chat": {"id": 100, "type": "private"},
			"text": "hello"
		}
	}`

	mem := history.NewMemStore()
	comp := blockingCompleter{started: make(chan struct{}), release: make(chan struct{})}
	b.Handler = &relay.Handler{
		SelfID:    b.ID(),
		History:   history.New(func(context.Context) (history.Backend, error) { return mem, nil }),
		Completer: comp,
		Persona:   persona.Default(),
		Replier:   b,
	}

	pollCtx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- b.Poll(pollCtx) }()

	<-comp.started
	cancel()
	select {
	case err := <-done:
		t.Fatalf("Poll returned while a handler was running: %v", err)
	case <-time.After(100 * time.Millisecond):
	}

	close(comp.release)
	if err := <-done; err != nil {
		t.Fatal(err)
	}

	// Everything the handler does happens before Poll returns.
	sent := f.sent("sendMessage")
	testutil.AssertEqual(t, len(sent), 1)
	testutil.AssertEqual(t, sent[0].Get("text"), "hi Alice")
	rows, err := mem.Rows(ctx)
	if err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, len(rows), 2)
}

func TestWebhook(t *testing.T) {
	b, f, ctx := testBot(t)
	mem := history.NewMemStore()
	b.Handler = &relay.Handler{
		SelfID:    b.ID(),
		History:   history.New(func(context.Context) (history.Backend, error) { return mem, nil }),
		Completer: echoCompleter{},
		Persona:   persona.Default(),
		Replier:   b,
	}

	update := `{
		"update_id": 1,
		"message": {
			"message_id": 10,
			"date": 1767225600,
			"from": {"id": 100, "first_name": "Alice"},
			"chat": {"id": 42, "type": "group"},
			"text": "@kazuto_bot hello",
			"entities": [{"type": "mention", "offset": 0, "length": 11}]
		}
	}`

	send := func(secret, body string) *httptest.ResponseRecorder {
		r := httptest.NewRequestWithContext(ctx, http.MethodPost, "/telegram", strings.NewReader(body))
		if secret != "" {
			r.Header.Set("X-Telegram-Bot-Api-Secret-Token", secret)
		}
		w := httptest.NewRecorder()
		b.ServeHTTP(w, r)
		return w
	}

	t.Run("wrong secret", func(t *testing.T) {
		testutil.AssertEqual(t, send("nope", update).Code, http.StatusNotFound)
		testutil.AssertEqual(t, send("", update).Code, http.StatusNotFound)
		testutil.AssertEqual(t, len(f.sent("sendMessage")), 0)
	})

	t.Run("malformed", func(t *testing.T) {
		testutil.AssertEqual(t, send("s3cret", "{").Code, http.StatusBadRequest)
	})

	t.Run("ok", func(t *testing.T) {
		testutil.AssertEqual(t, send("s3cret", update).Code, http.StatusOK)
		sent := f.sent("sendMessage")
		testutil.AssertEqual(t, len(sent), 1)
		testutil.AssertEqual(t, sent[0].Get("chat_id"), "42")
		testutil.AssertEqual(t, sent[0].Get("text"), "hi Alice")

		rows, err := mem.Rows(ctx)
		if err != nil {
			t.Fatal(err)
		}
		testutil.AssertEqual(t, len(rows), 2)
		testutil.AssertEqual(t, rows[0][history.ColText], "hello")
		testutil.AssertEqual(t, rows[1][history.ColSpeaker], "横井かずと")
	})

	t.Run("update without message", func(t *testing.T) {
		before := len(f.sent("sendMessage"))
		testutil.AssertEqual(t, send("s3cret", `{"update_id": 2, "edited_message": {"message_id": 10}}`).Code, http.StatusOK)
		testutil.AssertEqual(t, len(f.sent("sendMessage")), before)
	})
}
