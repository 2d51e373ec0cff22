package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alejandrodnm/courtside/config"
	"github.com/alejandrodnm/courtside/internal/adapters/feed"
	"github.com/alejandrodnm/courtside/internal/adapters/notify"
	"github.com/alejandrodnm/courtside/internal/adapters/paper"
	"github.com/alejandrodnm/courtside/internal/adapters/storage"
	"github.com/alejandrodnm/courtside/internal/adapters/venue"
	"github.com/alejandrodnm/courtside/internal/application/engine"
	"github.com/alejandrodnm/courtside/internal/application/session"
	"github.com/alejandrodnm/courtside/internal/domain"
	"github.com/alejandrodnm/courtside/internal/ports"
)

const replayUsage = "replay a JSONL event file (overrides feed config); " +
	"the startup cooldown runs on wall-clock time, so a replay shorter than cooldown_seconds places no orders"

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	replay := flag.String("replay", "", replayUsage)
	dryRun := flag.Bool("dry-run", false, "force the paper venue and disable the journal")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	table := flag.Bool("table", false, "print the full session tables at exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	if *replay != "" {
		cfg.Feed.Mode = config.FeedReplay
		cfg.Feed.ReplayPath = *replay
	}
	if *dryRun {
		cfg.Venue.Mode = config.VenuePaper
		cfg.Storage.Disabled = true
	}
	setupLogger(cfg.Log)

	params := cfg.Params()
	if cfg.Feed.Mode == config.FeedReplay && params.CooldownSeconds > 0 {
		slog.Warn("replay mode: no orders until the wall-clock cooldown elapses",
			"cooldown_seconds", params.CooldownSeconds)
	}
	instrument := domain.Instrument(cfg.Instrument)
	sessionID := session.NewID()

	slog.Info("courtside starting",
		"config", *configPath,
		"instrument", instrument,
		"session", sessionID,
		"feed", cfg.Feed.Mode,
		"venue", cfg.Venue.Mode,
		"dry_run", *dryRun,
	)

	var journal ports.Journal
	if !cfg.Storage.Disabled {
		store, err := storage.NewSQLiteJournal(cfg.Storage.DSN)
		if err != nil {
			slog.Error("failed to open journal", "err", err, "dsn", cfg.Storage.DSN)
			os.Exit(1)
		}
		defer store.Close()
		journal = store
	}

	var (
		router   ports.OrderRouter
		sessOpts []session.Option
	)
	switch cfg.Venue.Mode {
	case config.VenueHTTP:
		router = venue.NewClient(venue.Config{
			BaseURL:    cfg.Venue.BaseURL,
			APIKey:     cfg.Venue.APIKey,
			RatePerSec: cfg.Venue.RatePerSec,
			Burst:      cfg.Venue.Burst,
			Timeout:    cfg.VenueTimeout(),
		})
	default:
		pv := paper.New(paper.Config{
			Instrument:     instrument,
			InitialCapital: params.InitialCapital,
			PriceTick:      params.PriceTick,
			MinBookQty:     params.MinBookQty,
		})
		router = pv
		sessOpts = append(sessOpts, session.WithPaperVenue(pv))
	}

	recorder := session.NewRecorder(router, journal, sessionID)
	eng, err := engine.New(params, instrument, recorder)
	if err != nil {
		slog.Error("invalid strategy parameters", "err", err)
		os.Exit(1)
	}

	sessOpts = append(sessOpts,
		session.WithRecorder(recorder),
		session.WithReporter(notify.NewConsole(*table || cfg.Report.Table)),
	)
	if journal != nil {
		sessOpts = append(sessOpts, session.WithJournal(journal))
	}

	sess := session.New(session.Config{
		ID:         sessionID,
		Instrument: instrument,
		BufferSize: cfg.Feed.BufferSize,
	}, newSource(cfg), eng, sessOpts...)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := sess.Run(ctx); err != nil {
		slog.Error("session exited with error", "err", err)
		os.Exit(1)
	}

	slog.Info("courtside stopped cleanly")
}

func newSource(cfg *config.Config) ports.EventSource {
	if cfg.Feed.Mode == config.FeedWebSocket {
		var sub []byte
		if cfg.Feed.Subscribe != "" {
			sub = []byte(cfg.Feed.Subscribe)
		}
		return feed.NewWebSocketSource(feed.WSConfig{
			URL:           cfg.Feed.URL,
			Subscribe:     sub,
			PingInterval:  cfg.PingInterval(),
			MaxReconnects: cfg.Feed.MaxReconnects,
		})
	}
	if cfg.Feed.ReplayPath == "" {
		return feed.NewReplayReader(os.Stdin)
	}
	return feed.NewReplayFile(cfg.Feed.ReplayPath)
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}
