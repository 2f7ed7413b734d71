// Package app wires configuration, logging, storage, the Kaggle listing
// client, the Telegram channel and the watch loop into one process.
package app

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"time"

	"kernelwatch/internal/adapters/telegram"
	"kernelwatch/internal/config"
	"kernelwatch/internal/kaggle"
	"kernelwatch/internal/notifier"
	"kernelwatch/internal/rank"
	"kernelwatch/internal/storage"
	"kernelwatch/internal/transport"
	"kernelwatch/internal/watch"
	logx "kernelwatch/pkg/logx"
)

type App struct {
	cfgm *config.Manager

	log  logx.Logger
	logs *logx.Service

	store   storage.Store
	adapter transport.Adapter
	notif   *notifier.Service
	watcher *watch.Watcher

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewApp(cfgPath string) (*App, error) {
	cfgm := config.NewManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Logging service mapping
	logSvc, log := logx.New(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})
	log = log.With(logx.String("comp", "app"))

	cfgm.SetLogger(logSvc.Logger().With(logx.String("comp", "config")))
	cfgm.SetValidator(func(ctx context.Context, c *config.Config) error {
		// Schedule strings are owned by the watch package; check them here
		// so a bad reload is rejected before it reaches the loop.
		if s := strings.TrimSpace(c.Watch.Schedule); s != "" {
			if _, err := watch.ParseSchedule(s); err != nil {
				return err
			}
		}
		return nil
	})

	a := &App{cfgm: cfgm, log: log, logs: logSvc}

	if err := a.build(cfg, logSvc); err != nil {
		_ = logSvc.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) build(cfg *config.Config, logSvc *logx.Service) error {
	// Credentials: file first, environment second (.env is loaded in main).
	token := strings.TrimSpace(cfg.Telegram.Token)
	if token == "" {
		token = strings.TrimSpace(os.Getenv("TELEGRAM_BOT_TOKEN"))
	}
	if token == "" {
		return errors.New("telegram token missing (telegram.token or TELEGRAM_BOT_TOKEN)")
	}
	username := strings.TrimSpace(cfg.Kaggle.Username)
	if username == "" {
		username = strings.TrimSpace(os.Getenv("KAGGLE_USERNAME"))
	}
	key := strings.TrimSpace(cfg.Kaggle.Key)
	if key == "" {
		key = strings.TrimSpace(os.Getenv("KAGGLE_KEY"))
	}

	sendTimeout, err := config.ParseDurationOrDefault("watch.send_timeout", cfg.Watch.SendTimeout, 15*time.Second)
	if err != nil {
		return err
	}
	fetchTimeout, err := config.ParseDurationOrDefault("watch.fetch_timeout", cfg.Watch.FetchTimeout, 30*time.Second)
	if err != nil {
		return err
	}

	ad, err := telegram.New(telegram.Config{
		Token:         token,
		ClientTimeout: sendTimeout,
	}, logSvc.Logger().With(logx.String("comp", "telegram")))
	if err != nil {
		return err
	}
	a.adapter = ad

	// Storage (optional)
	if cfg.Storage != nil && !storageDisabled(cfg.Storage.Driver) {
		busy, err := config.ParseDurationField("storage.busy_timeout", cfg.Storage.BusyTimeout)
		if err != nil {
			return err
		}
		st, err := storage.Open(storage.Config{
			Driver:      cfg.Storage.Driver,
			Path:        cfg.Storage.Path,
			BusyTimeout: busy,
		}, logSvc.Logger().With(logx.String("comp", "storage")))
		if err != nil {
			return err
		}
		a.store = st
		a.log.Info("storage enabled", logx.String("driver", cfg.Storage.Driver))
	}

	lister := kaggle.New(kaggle.Config{
		Username:   username,
		Key:        key,
		Language:   cfg.Kaggle.Language,
		PageSize:   cfg.Kaggle.PageSize,
		Timeout:    fetchTimeout,
		RatePerMin: cfg.Kaggle.RatePerMin,
	}, logSvc.Logger().With(logx.String("comp", "kaggle")))

	notifCfg := notifier.Config{
		Target:      transport.ChatTarget{ChatID: cfg.Telegram.ChatID, ThreadID: cfg.Telegram.ThreadID},
		SendTimeout: sendTimeout,
	}
	if cfg.Notifier != nil {
		notifCfg.RatePerSec = cfg.Notifier.RatePerSec
		notifCfg.RetryMax = cfg.Notifier.RetryMax
		retryBase, err := config.ParseDurationField("notifier.retry_base", cfg.Notifier.RetryBase)
		if err != nil {
			return err
		}
		notifCfg.RetryBase = retryBase
	}
	a.notif = notifier.New(notifCfg, a.adapter, logSvc.Logger().With(logx.String("comp", "notifier")))

	direction, err := rank.ParseDirection(cfg.Kaggle.Direction)
	if err != nil {
		return err
	}
	schedRaw := strings.TrimSpace(cfg.Watch.Schedule)
	if schedRaw == "" {
		schedRaw = "1h"
	}
	sched, err := watch.ParseSchedule(schedRaw)
	if err != nil {
		return err
	}

	a.watcher = watch.New(watch.Config{
		Competition:  cfg.Kaggle.Competition,
		Direction:    direction,
		Schedule:     sched,
		FetchTimeout: fetchTimeout,
	}, lister, a.notif, a.store, logSvc.Logger().With(logx.String("comp", "watch")))

	return nil
}

func storageDisabled(driver string) bool {
	d := strings.ToLower(strings.TrimSpace(driver))
	return d == "" || d == "none"
}

// Start launches the watch loop, the config file watcher, and the reload
// consumer. It returns immediately; Stop tears everything down.
func (a *App) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := a.watcher.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
			a.log.Error("watch loop exited", logx.Err(err))
		}
	}()

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		_ = a.cfgm.Watch(runCtx)
	}()

	updates := a.cfgm.Subscribe(1)
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		defer a.cfgm.Unsubscribe(updates)
		for {
			select {
			case <-runCtx.Done():
				return
			case cfg, ok := <-updates:
				if !ok {
					return
				}
				a.applyReload(cfg)
			}
		}
	}()

	a.log.Info("started")
	return nil
}

// applyReload applies the runtime-adjustable parts of a config reload:
// log level/sinks and the poll schedule. Everything else (credentials,
// competition, storage driver) requires a restart.
func (a *App) applyReload(cfg *config.Config) {
	if cfg == nil {
		return
	}
	a.logs.Apply(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})

	schedRaw := strings.TrimSpace(cfg.Watch.Schedule)
	if schedRaw == "" {
		schedRaw = "1h"
	}
	sched, err := watch.ParseSchedule(schedRaw)
	if err != nil {
		// Validator should have rejected this; keep the old cadence.
		a.log.Warn("reloaded schedule invalid; keeping previous", logx.Err(err))
		return
	}
	a.watcher.Apply(sched)
	a.log.Info("reload applied", logx.String("schedule", schedRaw), logx.String("level", cfg.Logging.Level))
}

func (a *App) Stop(ctx context.Context) error {
	if a.cancel != nil {
		a.cancel()
	}

	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		a.log.Warn("shutdown grace elapsed; continuing")
	}

	if a.adapter != nil {
		_ = a.adapter.Stop(ctx)
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn("storage close failed", logx.Err(err))
		}
	}
	a.log.Info("stopped")
	return a.logs.Close()
}
