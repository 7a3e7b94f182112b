package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"repost_bot/internal/bot"
	"repost_bot/internal/cache"
	"repost_bot/internal/config"
	"repost_bot/internal/fetcher"
	"repost_bot/internal/filter"
	"repost_bot/internal/scheduler"
	"repost_bot/internal/storage"
	"repost_bot/internal/watcher"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	log := newLogger(cfg.LogLevel)

	for _, path := range []string{cfg.DatabasePath, cfg.DestinationsPath} {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				log.Error("create data directory", "path", dir, "error", err)
				os.Exit(1)
			}
		}
	}

	db, err := storage.NewSQLite(cfg.DatabasePath)
	if err != nil {
		log.Error("open database", "path", cfg.DatabasePath, "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var backend storage.Backend = db
	if cfg.StorageDriver == config.DriverJSON {
		backend = storage.NewJSONFile(cfg.DestinationsPath)
	}
	store, err := storage.OpenDestinations(ctx, backend)
	if err != nil {
		log.Error("load destinations", "driver", cfg.StorageDriver, "error", err)
		os.Exit(1)
	}
	log.Info("destinations loaded", "driver", cfg.StorageDriver, "count", store.Len())

	broadcast := cache.New()
	keyword := filter.NewKeyword(cfg.Keyword)

	var (
		source   scheduler.Source
		observer bot.Observer
		poller   *watcher.FeedPoller
	)
	if cfg.UsesFeedSource() {
		feed := watcher.NewFeedSource(fetcher.New(http.DefaultClient), cfg.SourceFeedURL)
		source = feed
		poller = watcher.NewFeedPoller(feed, broadcast, keyword, cfg.FeedPollInterval, log)
	} else {
		source = watcher.NewJournalSource(db, cfg.SourceChatID)
		observer = watcher.New(broadcast, db, keyword, log)
	}

	b, err := bot.New(cfg.TelegramBotToken, db, observer, cfg, log)
	if err != nil {
		log.Error("create bot", "error", err)
		os.Exit(1)
	}

	opts := scheduler.DefaultOptions()
	opts.AdminChatID = cfg.AdminID
	opts.MinInterval = cfg.MinInterval
	opts.FallbackSleep = cfg.FallbackSleep
	opts.JitterMin = cfg.JitterMin
	opts.JitterMax = cfg.JitterMax
	opts.DialogLimit = cfg.DialogLimit
	sup := scheduler.New(store, broadcast, b, source, keyword, opts, log)

	if err := sup.Start(ctx); err != nil {
		log.Error("start scheduler", "error", err)
		os.Exit(1)
	}

	log.Info("starting bot", "keyword", strings.Join(keyword.Words(), ","))

	var wg sync.WaitGroup
	if poller != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			poller.Run(ctx)
		}()
	}
	if cfg.SweepCron != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := sup.RunSweeps(ctx, cfg.SweepCron); err != nil {
				log.Error("sweeps", "error", err)
			}
		}()
	}

	b.Run(ctx, sup)
	wg.Wait()
	sup.Wait()

	log.Info("bot stopped")
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
