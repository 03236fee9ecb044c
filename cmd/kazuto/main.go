// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package main

import (
	"cmp"
	"context"
	_ "embed"
	"errors"
	"flag"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"go.astrophena.name/kazuto/internal/cli"
	"go.astrophena.name/kazuto/internal/cli/restrict"
	"go.astrophena.name/kazuto/internal/completion"
	"go.astrophena.name/kazuto/internal/history"
	"go.astrophena.name/kazuto/internal/httplogger"
	"go.astrophena.name/kazuto/internal/logger"
	"go.astrophena.name/kazuto/internal/persona"
	"go.astrophena.name/kazuto/internal/relay"
	"go.astrophena.name/kazuto/internal/syncx"
	"go.astrophena.name/kazuto/internal/systemd"
	"go.astrophena.name/kazuto/internal/telegram"
	"go.astrophena.name/kazuto/internal/web"
)

//go:embed doc.go
var doc []byte

func main() {
	cli.SetDocComment(doc)
	cli.Main(new(engine))
}

const defaultAddr = "localhost:3000"

var errNoToken = errors.New("token hasn't set; pass it with -tg-token flag or TG_TOKEN environment variable")

func (e *engine) Flags(fs *flag.FlagSet) {
	fs.StringVar(&e.addr, "addr", "", "Listen on `host:port`.")
	fs.StringVar(&e.host, "host", "", "Public `host` name used for the webhook URL.")
	fs.StringVar(&e.tgToken, "tg-token", "", "Telegram Bot API `token`.")
	fs.StringVar(&e.tgSecret, "tg-secret", "", "Webhook secret `token`.")
	fs.Func("keys", "Comma-separated completion API `keys`.", func(s string) error {
		e.keys = splitKeys(s)
		return nil
	})
	fs.StringVar(&e.provider, "provider", "", "Completion API `provider`: openai or gemini.")
	fs.StringVar(&e.baseURL, "base-url", "", "OpenAI-compatible API `URL`.")
	fs.StringVar(&e.model, "model", "", "Completion `model`.")
	fs.StringVar(&e.historyBackend, "history", "", "History `backend`: sheets, sqlite, postgres or memory.")
	fs.StringVar(&e.databaseURL, "database-url", "", "PostgreSQL connection `string` or SQLite file path.")
	fs.StringVar(&e.spreadsheet, "spreadsheet", "", "Google Sheets spreadsheet `name`.")
	fs.StringVar(&e.worksheet, "worksheet", "", "Google Sheets worksheet `name`.")
	fs.StringVar(&e.serviceAccountKey, "service-account", "", "Base64-encoded Google service account `key`.")
	fs.StringVar(&e.personaFile, "persona", "", "Character definition `file` in txtar format.")
	fs.BoolVar(&e.prod, "prod", false, "Run in production mode: serve webhook instead of polling.")
	fs.BoolVar(&e.sandbox, "sandbox", false, "Restrict filesystem access with Landlock.")
	fs.BoolVar(&e.verbose, "verbose", false, "Enable debug logging.")
}

func (e *engine) Run(ctx context.Context) error {
	env := cli.GetEnv(ctx)

	// Load configuration from environment variables.
	e.addr = cmp.Or(e.addr, env.Getenv("ADDR"), portAddr(env.Getenv("PORT")), defaultAddr)
	e.baseURL = cmp.Or(e.baseURL, env.Getenv("COMPLETION_BASE_URL"))
	e.databaseURL = cmp.Or(e.databaseURL, env.Getenv("DATABASE_URL"))
	e.historyBackend = cmp.Or(e.historyBackend, env.Getenv("HISTORY_BACKEND"), "sheets")
	e.host = cmp.Or(e.host, env.Getenv("HOST"))
	e.model = cmp.Or(e.model, env.Getenv("COMPLETION_MODEL"))
	e.personaFile = cmp.Or(e.personaFile, env.Getenv("PERSONA_FILE"))
	e.provider = cmp.Or(e.provider, env.Getenv("COMPLETION_PROVIDER"), "openai")
	e.serviceAccountKey = cmp.Or(e.serviceAccountKey, env.Getenv("GOOGLE_SERVICE_ACCOUNT_BASE64"))
	e.spreadsheet = cmp.Or(e.spreadsheet, env.Getenv("GOOGLE_SPREADSHEET_NAME"), history.DefaultSpreadsheet)
	e.tgSecret = cmp.Or(e.tgSecret, env.Getenv("TG_SECRET"))
	e.tgToken = cmp.Or(e.tgToken, env.Getenv("TG_TOKEN"))
	e.worksheet = cmp.Or(e.worksheet, env.Getenv("GOOGLE_WORKSHEET_NAME"), history.DefaultWorksheet)
	if len(e.keys) == 0 {
		e.keys = append(e.keys, env.Getenv("GROQ_API_KEY_1"), env.Getenv("GROQ_API_KEY_2"))
		e.keys = append(e.keys, splitKeys(env.Getenv("GROQ_API_KEYS"))...)
	}
	if !e.prod && e.lockDir == "" {
		e.lockDir = os.TempDir()
	}

	if e.verbose {
		logger.Get(ctx).Level.Set(slog.LevelDebug)
	}

	if e.tgToken == "" {
		return errNoToken
	}

	// Initialize internal state.
	if err := e.init.Get(func() error {
		return e.doInit(ctx)
	}); err != nil {
		return err
	}
	defer func() {
		if err := e.history.Close(); err != nil {
			logger.Warn(ctx, "closing history", slog.Any("err", err))
		}
	}()

	// Used in tests.
	if e.noServerStart {
		return nil
	}

	if e.sandbox {
		restrict.Do(ctx, e.sandboxPaths())
	}

	go systemd.WatchdogLoop(ctx)
	defer systemd.Notify(ctx, systemd.Stopping)

	srv := &web.ListenAndServeConfig{
		Addr: e.addr,
		Mux:  e.mux,
		Ready: func() {
			systemd.Notify(ctx, systemd.Ready)
			if e.ready != nil {
				e.ready()
			}
		},
	}

	// In production mode, set the webhook in Telegram Bot API and wait for
	// updates to come.
	if e.prod {
		if err := e.setWebhook(ctx); err != nil {
			return err
		}
		logger.Info(ctx, "running in production mode")
		return web.ListenAndServe(ctx, srv)
	}

	logger.Info(ctx, "running in development mode")
	if err := e.deleteWebhook(ctx); err != nil {
		return err
	}
	errCh := make(chan error, 1)
	go func() { errCh <- e.bot.Poll(ctx) }()
	if err := web.ListenAndServe(ctx, srv); err != nil {
		return err
	}
	return <-errCh
}

type engine struct {
	init syncx.Lazy[error] // main initialization

	// initialized by doInit
	bot        *telegram.Bot
	completion *completion.Client
	history    *history.Store
	mux        *http.ServeMux
	persona    *persona.Persona
	scrubber   *strings.Replacer

	// configuration, read-only after initialization
	addr              string
	baseURL           string
	databaseURL       string
	historyBackend    string
	host              string
	httpc             *http.Client
	keys              []string
	lockDir           string
	model             string
	personaFile       string
	prod              bool
	provider          string
	sandbox           bool
	serviceAccountKey string
	spreadsheet       string
	tgSecret          string
	tgToken           string
	verbose           bool
	worksheet         string

	// for tests
	noServerStart bool
	ready         func() // see web.ListenAndServeConfig.Ready
}

func (e *engine) doInit(ctx context.Context) error {
	var scrubPairs []string
	for _, val := range append([]string{
		e.tgToken,
		e.tgSecret,
		e.serviceAccountKey,
	}, e.keys...) {
		if val != "" {
			scrubPairs = append(scrubPairs, val, "[EXPUNGED]")
		}
	}
	if len(scrubPairs) > 0 {
		e.scrubber = strings.NewReplacer(scrubPairs...)
	}

	if e.httpc == nil {
		e.httpc = &http.Client{
			// Increase timeout to properly handle completion API response times.
			Timeout: 60 * time.Second,
		}
	}
	httpc := *e.httpc
	httpc.Transport = httplogger.New(logger.Get(ctx), httpc.Transport, e.scrubber)
	e.httpc = &httpc

	var err error
	e.persona, err = persona.Load(e.personaFile)
	if err != nil {
		return err
	}

	open, err := e.historyConfig().Opener()
	if err != nil {
		return err
	}
	e.history = history.New(open)

	be, err := completion.NewBackend(completion.Config{
		Provider:   e.provider,
		BaseURL:    e.baseURL,
		Model:      e.model,
		HTTPClient: e.httpc,
		Scrubber:   e.scrubber,
	})
	if err != nil {
		return err
	}
	e.completion = &completion.Client{
		Backend: be,
		Keys:    completion.NewRotator(e.keys...),
		Persona: e.persona,
	}
	if n := e.completion.Keys.Len(); n == 0 {
		logger.Warn(ctx, "no completion API keys configured; every reply will say so")
	} else {
		logger.Info(ctx, "completion configured", slog.String("provider", e.provider), slog.Int("keys", n))
	}

	e.bot, err = telegram.New(ctx, telegram.Config{
		Token:      e.tgToken,
		Secret:     e.tgSecret,
		HTTPClient: e.httpc,
		Scrubber:   e.scrubber,
		LockDir:    e.lockDir,
	})
	if err != nil {
		return err
	}
	e.bot.Handler = &relay.Handler{
		SelfID:    e.bot.ID(),
		History:   e.history,
		Completer: e.completion,
		Persona:   e.persona,
		Replier:   e.bot,
	}

	e.initRoutes()
	return nil
}

func (e *engine) historyConfig() history.Config {
	return history.Config{
		Backend:     e.historyBackend,
		DatabaseURL: e.databaseURL,
		Sheets: history.SheetsConfig{
			ServiceAccountKey: e.serviceAccountKey,
			Spreadsheet:       e.spreadsheet,
			Worksheet:         e.worksheet,
			HTTPClient:        e.httpc,
		},
	}
}

func (e *engine) sandboxPaths() restrict.Paths {
	p := restrict.Network()
	if dir := e.historyConfig().Dir(); dir != "" {
		p.RWDirs = append(p.RWDirs, dir)
	}
	if e.personaFile != "" {
		p.ROFiles = append(p.ROFiles, e.personaFile)
	}
	if e.lockDir != "" {
		p.RWDirs = append(p.RWDirs, e.lockDir)
	}
	return p
}

func splitKeys(s string) []string {
	var keys []string
	for k := range strings.SplitSeq(s, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

func portAddr(port string) string {
	if port == "" {
		return ""
	}
	return net.JoinHostPort("", port)
}
