package app

import (
	"context"
	"errors"
	"time"

	"github.com/greensidehq/greenside/internal/config"
	"github.com/greensidehq/greenside/internal/connectivity"
	"github.com/greensidehq/greenside/internal/fetch"
	"github.com/greensidehq/greenside/internal/loader"
	"github.com/greensidehq/greenside/internal/logger"
	"github.com/greensidehq/greenside/internal/store"
	"github.com/greensidehq/greenside/internal/strategy"
)

// App is the application container (immutable dependencies + lifecycle
// context). It is not a request context; handlers use their own.
type App struct {
	Config      *config.Config
	Store       store.Store
	Fetcher     fetch.Fetcher
	Loader      *loader.Loader
	Interceptor *strategy.Interceptor
	Notifier    *connectivity.Notifier

	BaseCtx context.Context
	Cancel  context.CancelFunc
}

func New(cfg *config.Config, st store.Store, fetcher fetch.Fetcher, ldr *loader.Loader, interceptor *strategy.Interceptor, notifier *connectivity.Notifier) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if st == nil {
		return nil, errors.New("store is nil")
	}
	if fetcher == nil {
		return nil, errors.New("fetcher is nil")
	}
	if ldr == nil {
		return nil, errors.New("loader is nil")
	}
	if interceptor == nil {
		return nil, errors.New("interceptor is nil")
	}
	if notifier == nil {
		return nil, errors.New("notifier is nil")
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &App{
		Config:      cfg,
		Store:       st,
		Fetcher:     fetcher,
		Loader:      ldr,
		Interceptor: interceptor,
		Notifier:    notifier,
		BaseCtx:     ctx,
		Cancel:      cancel,
	}, nil
}

func (a *App) Shutdown() {
	if a == nil || a.Cancel == nil {
		return
	}
	a.Cancel()
}

// StartWatchers starts the background pieces: the file-store watcher (when
// the store is file-backed) and the periodic refresh loop.
func (a *App) StartWatchers() error {
	if fs, ok := a.Store.(*store.FileStore); ok {
		err := fs.StartWatcher(a.BaseCtx, func() {
			a.Loader.ReloadFromStore(a.BaseCtx)
		})
		if err != nil {
			return err
		}
	}

	startRefreshLoop(a.BaseCtx, a.Loader, a.Config.Data.RefreshInterval)
	return nil
}

// startRefreshLoop periodically refreshes the collection from upstream so
// cached data does not stay stale longer than one interval while connected.
func startRefreshLoop(ctx context.Context, ldr *loader.Loader, interval time.Duration) {
	log := logger.WithComponent("refresh")
	log.Debugf("starting refresh loop with interval: %v", interval)

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				log.Info("refresh loop stopped")
				return
			case <-ticker.C:
				if _, degraded, err := ldr.Refresh(ctx); err != nil {
					log.Warnf("background refresh failed: %v", err)
				} else if degraded {
					log.Warn("background refresh served cached data (offline)")
				}
			}
		}
	}()
}
