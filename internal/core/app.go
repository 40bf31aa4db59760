// Package core wires the reminder engine together: config, logging, storage,
// channels, enrichment, scheduler and the command service.
package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	"remindbot/internal/clients/gemini"
	"remindbot/internal/clients/weather"
	"remindbot/internal/clients/worldtime"
	"remindbot/internal/config"
	"remindbot/internal/enrich"
	"remindbot/internal/notify"
	"remindbot/internal/notify/email"
	"remindbot/internal/notify/telegram"
	"remindbot/internal/scheduler"
	"remindbot/internal/service"
	"remindbot/internal/storage"
	"remindbot/pkg/logx"
)

const defaultDigestInterval = 1440 // minutes; one digest a day

type App struct {
	cfgMgr   *config.Manager
	log      logx.Logger
	logClose func() error

	store    *storage.Store
	telegram *telegram.Channel
	email    *email.Channel
	disp     *notify.Dispatcher
	sched    *scheduler.Scheduler
	svc      *service.TaskService

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
}

// NewApp loads the config and builds the full component graph. Nothing is
// running yet; call Start.
func NewApp(ctx context.Context, configPath string) (*App, error) {
	mgr := config.NewManager(configPath)
	cfg, err := mgr.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log, logClose := logx.New(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File:    logx.FileConfig{Enabled: cfg.Logging.File.Enabled, Path: cfg.Logging.File.Path},
	})
	mgr.SetLogger(log.With(logx.String("comp", "config")))

	var busy time.Duration
	if cfg.Storage.BusyTimeout != "" {
		busy, err = time.ParseDuration(cfg.Storage.BusyTimeout)
		if err != nil {
			log.Warn("invalid storage busy_timeout, using driver default",
				logx.String("value", cfg.Storage.BusyTimeout), logx.Err(err))
			busy = 0
		}
	}
	store, err := storage.Open(storage.Config{Path: cfg.Storage.Path, BusyTimeout: busy},
		log.With(logx.String("comp", "storage")))
	if err != nil {
		_ = logClose()
		return nil, fmt.Errorf("open store: %w", err)
	}

	a := &App{
		cfgMgr:   mgr,
		log:      log,
		logClose: logClose,
		store:    store,
	}

	a.email = email.New(cfg.Channels.Email, log.With(logx.String("comp", "email")))
	a.telegram, err = telegram.New(cfg.Channels.Telegram, log.With(logx.String("comp", "telegram")))
	if err != nil {
		// A bad token must not keep the engine down; the channel stays off
		// until a config reload fixes it.
		log.Warn("telegram channel unavailable", logx.Err(err))
		a.telegram = nil
	}
	a.disp = notify.NewDispatcher(log.With(logx.String("comp", "notify")), a.channelSet()...)

	enricher := enrich.New(
		weather.New(), worldtime.New(), nil, cfg.Weather.Units,
		log.With(logx.String("comp", "enrich")))

	var summarizer service.Summarizer
	if cfg.Gemini.APIKey != "" {
		sum, err := gemini.New(ctx, gemini.Config{APIKey: cfg.Gemini.APIKey, Model: cfg.Gemini.Model},
			log.With(logx.String("comp", "gemini")))
		if err != nil {
			log.Warn("gemini summarizer unavailable", logx.Err(err))
		} else {
			summarizer = sum
		}
	}

	a.sched = scheduler.New(store, a.disp, enricher, log.With(logx.String("comp", "scheduler")))
	a.svc = service.New(store, a.disp, summarizer, log.With(logx.String("comp", "service")))

	if err := a.seedSchedule(ctx, cfg.Digest); err != nil {
		log.Warn("digest schedule seeding failed", logx.Err(err))
	}
	return a, nil
}

// seedSchedule installs the config's digest defaults when the store has no
// schedule row yet. An existing row always wins.
func (a *App) seedSchedule(ctx context.Context, cfg config.DigestConfig) error {
	if !cfg.Enabled {
		return nil
	}
	existing, err := a.store.GetSchedule(ctx)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}
	interval := cfg.IntervalMinutes
	if interval < 1 {
		interval = defaultDigestInterval
	}
	_, err = a.store.SetSchedule(ctx, interval, true)
	return err
}

func (a *App) channelSet() []notify.Channel {
	var chs []notify.Channel
	if a.telegram != nil {
		chs = append(chs, a.telegram)
	}
	chs = append(chs, a.email)
	return chs
}

// Service exposes the command surface to hosts.
func (a *App) Service() *service.TaskService { return a.svc }

// Start launches the config watcher and the scheduler loop.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.started {
		return nil
	}
	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := a.cfgMgr.Watch(ctx); err != nil {
			a.log.Warn("config watcher stopped", logx.Err(err))
		}
	}()

	sub := a.cfgMgr.Subscribe(1)
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		defer a.cfgMgr.Unsubscribe(sub)
		a.reloadLoop(ctx, sub)
	}()

	if err := a.sched.Start(ctx); err != nil {
		cancel()
		return err
	}
	a.started = true
	a.log.Info("remindbot started")
	return nil
}

// reloadLoop applies config changes to the notification channels. Channel
// enablement is consulted on every send, so most updates take effect without
// touching the dispatcher.
func (a *App) reloadLoop(ctx context.Context, sub chan *config.Config) {
	for {
		select {
		case <-ctx.Done():
			return
		case cfg, ok := <-sub:
			if !ok {
				return
			}
			a.applyChannels(cfg)
		}
	}
}

func (a *App) applyChannels(cfg *config.Config) {
	a.email.Apply(cfg.Channels.Email)

	if a.telegram == nil {
		tg, err := telegram.New(cfg.Channels.Telegram, a.log.With(logx.String("comp", "telegram")))
		if err != nil {
			a.log.Warn("telegram channel still unavailable", logx.Err(err))
			return
		}
		a.telegram = tg
		a.disp.SetChannels(a.channelSet()...)
		a.log.Info("telegram channel attached")
		return
	}
	if err := a.telegram.Apply(cfg.Channels.Telegram); err != nil {
		a.log.Warn("telegram config apply failed", logx.Err(err))
	}
}

// Stop shuts everything down in reverse order of Start.
func (a *App) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.started {
		return
	}
	a.sched.Stop()
	a.cancel()
	a.wg.Wait()
	if err := a.store.Close(); err != nil {
		a.log.Warn("store close failed", logx.Err(err))
	}
	a.log.Info("remindbot stopped")
	if a.logClose != nil {
		_ = a.logClose()
	}
	a.started = false
}
