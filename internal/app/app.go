// Package app wires the client-side components into one explicitly
// constructed context object. There is a single App per process; everything
// that needs shared state receives it by reference instead of reaching for
// package globals.
package app

import (
	"context"
	"log/slog"
	"time"

	"focustimer/internal/config"
	"focustimer/internal/gate"
	"focustimer/internal/model"
	"focustimer/internal/storage/local"
	"focustimer/internal/storage/remote"
	"focustimer/internal/store"
	"focustimer/internal/timer"
)

const pollInterval = 60 * time.Second

// App is the client application context: the selected storage backend, the
// two stores, and the timer machine, constructed once per process.
type App struct {
	Logger   *slog.Logger
	Backend  store.Backend
	Sessions *store.SessionStore
	Settings *store.SettingsStore
	Machine  *timer.Machine
	Tier     model.Tier

	unwatch []func()
}

// New selects the backend from the client configuration: the remote
// document store when a token is present, the local file tier otherwise.
// With a token configured it also runs the one-time local-to-remote
// migration; a migration failure is logged and the app proceeds with the
// remote state as-is, leaving local data untouched.
func New(ctx context.Context, cfg config.ClientConfig, tier model.Tier, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	localBackend, err := local.New(cfg.DataDir)
	if err != nil {
		return nil, err
	}

	var backend store.Backend = localBackend
	if cfg.Token != "" {
		remoteBackend := remote.New(cfg.ServerURL, cfg.Token, logger)
		if err := store.Migrate(ctx, localBackend, remoteBackend); err != nil {
			logger.Warn("local data migration failed, continuing with remote state", "error", err)
		}
		backend = remoteBackend
	}

	caps := func() gate.Capabilities { return gate.ForTier(tier) }
	sessions := store.NewSessionStore(backend, logger)
	settings := store.NewSettingsStore(backend, caps, logger)
	sessions.Load(ctx)
	settings.Load(ctx)

	machine := timer.NewMachine(settings.Settings())
	settings.Subscribe(machine.ApplySettings)
	machine.SetListener(func(ev timer.Event) {
		if ev.Kind == timer.EventWorkCompleted && ev.Session != nil {
			sessions.Add(ctx, *ev.Session)
		}
	})

	return &App{
		Logger:   logger,
		Backend:  backend,
		Sessions: sessions,
		Settings: settings,
		Machine:  machine,
		Tier:     tier,
	}, nil
}

// StartSync turns on the background synchronization triggers: remote change
// notifications plus the interval poll safety net.
func (a *App) StartSync(ctx context.Context) {
	a.unwatch = append(a.unwatch,
		a.Sessions.WatchRemote(ctx),
		a.Settings.WatchRemote(ctx),
	)
	a.Sessions.StartPolling(ctx, pollInterval)
	a.Settings.StartPolling(ctx, pollInterval)
}

// Close unsubscribes watchers and drains both stores' pending writes.
func (a *App) Close() {
	for _, fn := range a.unwatch {
		fn()
	}
	a.Sessions.Close()
	a.Settings.Close()
}
