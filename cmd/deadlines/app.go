package main

import (
	"context"
	"fmt"
	"os"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"deadline-intel/internal/bot"
	"deadline-intel/internal/catalog"
	"deadline-intel/internal/config"
	"deadline-intel/internal/logger"
	"deadline-intel/internal/notify"
	"deadline-intel/internal/repository"
	"deadline-intel/internal/service"
)

// app is everything one command invocation needs.
type app struct {
	cfg           config.Config
	log           *zap.Logger
	deadlines     *service.DeadlineService
	custom        *service.CustomService
	notifications *service.NotificationService

	// set only when TELEGRAM_TOKEN and TELEGRAM_CHAT_ID are configured
	telegram *tgbotapi.BotAPI

	closers []func() error
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Warn("close", zap.Error(err))
		}
	}
	_ = a.log.Sync()
}

// scan is the evaluation trigger run after every command.
func (a *app) scan(ctx context.Context) error {
	snap := a.deadlines.Snapshot(ctx)
	shown, err := a.notifications.Scan(ctx, snap.Pending, snap.Today)
	if err != nil {
		return fmt.Errorf("scan reminders: %w", err)
	}
	if len(shown) > 0 {
		a.log.Debug("reminders shown", zap.Int("count", len(shown)))
	}
	return nil
}

// openFromEnv loads configuration and wires the services against the configured backend.
func openFromEnv(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	log, err := logger.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	a := &app{cfg: cfg, log: log}

	kv, err := a.openKV()
	if err != nil {
		a.Close()
		return nil, err
	}

	cat, err := loadCatalog(cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	loc, err := cfg.Location()
	if err != nil {
		a.Close()
		return nil, err
	}

	var notifier notify.Notifier = notify.NewConsole(os.Stderr)
	if cfg.NotificationsViaTelegram() {
		api, err := bot.NewAPI(cfg.Telegram.Token)
		if err != nil {
			log.Warn("telegram unavailable, reminders go to the console", zap.Error(err))
		} else {
			a.telegram = api
			notifier = notify.NewTelegram(api, cfg.Telegram.ChatID)
		}
	}

	a.wire(kv, cat, service.NewClock(loc), notifier)
	log.Debug("app ready",
		zap.String("backend", cfg.Store.Backend),
		zap.String("profile", cfg.Profile),
		zap.String("term", cat.Term()),
		zap.Int("catalog", cat.Len()),
	)
	return a, nil
}

func (a *app) wire(kv repository.KV, cat *catalog.Catalog, clock service.Clock, notifier notify.Notifier) {
	repo := repository.NewStateRepository(kv, a.cfg.Profile, a.log)
	a.custom = service.NewCustomService(repo, a.log)
	a.deadlines = service.NewDeadlineService(cat, a.custom, repo, clock, a.log)
	a.notifications = service.NewNotificationService(repo, notifier, a.log)
}

func (a *app) openKV() (repository.KV, error) {
	switch a.cfg.Store.Backend {
	case config.BackendRedis:
		client, err := repository.NewRedis(a.cfg.Store.RedisAddr, a.cfg.Store.RedisPassword, a.cfg.Store.RedisDB)
		if err != nil {
			return nil, fmt.Errorf("redis: %w", err)
		}
		a.closers = append(a.closers, client.Close)
		return repository.NewRedisKV(client), nil
	case config.BackendMemory:
		return repository.NewMemoryKV(), nil
	default:
		db, err := repository.NewDB(a.cfg.Store.DatabaseURL, a.log)
		if err != nil {
			return nil, fmt.Errorf("db: %w", err)
		}
		if sqlDB, err := db.DB(); err == nil {
			a.closers = append(a.closers, sqlDB.Close)
		}
		return repository.NewEntryRepository(db), nil
	}
}

func loadCatalog(cfg config.Config) (*catalog.Catalog, error) {
	if cfg.CatalogPath != "" {
		return catalog.LoadFile(cfg.CatalogPath)
	}
	cat, err := catalog.Default()
	if err != nil {
		return nil, fmt.Errorf("default catalog: %w", err)
	}
	return cat, nil
}
