// Package app wires the sync engine together for the headless daemon: local
// store, remote client, change bus, identity provider and orchestrator, with
// graceful shutdown on signals.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hdrahman/PlateMate-Prod-sub009/internal/config"
	"github.com/hdrahman/PlateMate-Prod-sub009/internal/identity"
	"github.com/hdrahman/PlateMate-Prod-sub009/internal/local"
	"github.com/hdrahman/PlateMate-Prod-sub009/internal/logging"
	"github.com/hdrahman/PlateMate-Prod-sub009/internal/netx"
	"github.com/hdrahman/PlateMate-Prod-sub009/internal/notify"
	"github.com/hdrahman/PlateMate-Prod-sub009/internal/remote"
	"github.com/hdrahman/PlateMate-Prod-sub009/internal/sync"
)

// tokenEnv names the environment variable holding the access token the
// daemon syncs as.
const tokenEnv = "PLATEMATE_SYNC_TOKEN"

type App struct {
	config       *config.Config
	logger       logging.Logger
	store        *local.Store
	remoteDB     *sql.DB
	bus          *notify.Bus
	ids          *identity.TokenProvider
	orchestrator *sync.Orchestrator
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := logging.NewDefault()

	store, err := local.Open(ctx, cfg.LocalDBPath)
	if err != nil {
		return nil, fmt.Errorf("local store init: %w", err)
	}

	client, remoteDB, err := remote.Open(cfg.RemoteDSN, remote.WithCallTimeout(cfg.RemoteTimeout))
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("remote client init: %w", err)
	}

	bus := notify.NewBus(cfg.DebounceWindow, logger)
	ids := identity.NewTokenProvider()

	orchestrator := sync.New(store, client, ids, logger,
		sync.WithBus(bus),
		sync.WithOfflineHint(netx.NewProbe(cfg.ProbeAddr, 0)),
		sync.WithRetryPolicy(cfg.RetryBaseDelay, cfg.RetryMaxAttempts),
		sync.WithRestoreWindow(cfg.RestoreWindow),
		sync.WithSignOutHook(ids.SignOut),
	)

	return &App{
		config:       cfg,
		logger:       logger,
		store:        store,
		remoteDB:     remoteDB,
		bus:          bus,
		ids:          ids,
		orchestrator: orchestrator,
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()
	app.initSignalHandler(cancelFunc)
	defer app.shutdown()

	token := os.Getenv(tokenEnv)
	if token == "" {
		return fmt.Errorf("%s is not set", tokenEnv)
	}
	if err := app.ids.SetToken(token); err != nil {
		return fmt.Errorf("parse access token: %w", err)
	}

	if err := app.orchestrator.Init(ctx); err != nil {
		return fmt.Errorf("orchestrator init: %w", err)
	}
	defer app.orchestrator.Dispose()

	// the daemon coming up counts as a foreground transition: report how
	// much backlog the startup pass is about to move
	if who, err := app.ids.Current(); err == nil {
		if n, err := app.store.CountUnsynced(ctx, who.ID); err != nil {
			app.logger.Warn(ctx, "count local backlog", "error", err)
		} else if n > 0 {
			app.logger.Info(ctx, "local backlog pending", "rows", n)
		}
	}

	res, err := app.orchestrator.Sync(ctx)
	if err != nil {
		return fmt.Errorf("sync pass: %w", err)
	}
	app.logger.Info(ctx, "startup pass finished",
		"success", res.Success, "restored", res.Restored, "failures", len(res.Errors))

	if app.config.RunOnce {
		if !res.Success {
			return fmt.Errorf("sync pass finished with %d failures", len(res.Errors))
		}
		return nil
	}

	app.logger.Info(ctx, "watching for local changes")
	<-ctx.Done()
	app.logger.Info(context.Background(), "shutting down")
	return nil
}

func (app *App) shutdown() {
	app.bus.Close()
	if err := app.remoteDB.Close(); err != nil {
		app.logger.Error(context.Background(), "close remote connection", "error", err)
	}
	if err := app.store.Close(); err != nil {
		app.logger.Error(context.Background(), "close local store", "error", err)
	}
}
