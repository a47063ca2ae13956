package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"syscall"

	"github.com/enrichman/httpgrace"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/greensidehq/greenside/internal/api/route"
	appctx "github.com/greensidehq/greenside/internal/app"
	"github.com/greensidehq/greenside/internal/config"
	"github.com/greensidehq/greenside/internal/connectivity"
	"github.com/greensidehq/greenside/internal/fetch"
	"github.com/greensidehq/greenside/internal/loader"
	"github.com/greensidehq/greenside/internal/logger"
	"github.com/greensidehq/greenside/internal/store"
	"github.com/greensidehq/greenside/internal/strategy"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.WithComponent("main").Fatalf("configuration error: %v", err)
	}

	// Set log level from configuration
	logLevel, err := logrus.ParseLevel(cfg.Misc.LogLevel)
	if err != nil {
		logger.WithComponent("main").Warnf("invalid log level '%s', using 'info': %v", cfg.Misc.LogLevel, err)
		logLevel = logrus.InfoLevel
	}
	logger.Logger.SetLevel(logLevel)
	logger.WithComponent("main").Infof("Server will run on port: %d", cfg.Server.Port)
	logger.WithComponent("main").Infof("Upstream data source: %s", cfg.Upstream.DataURL)

	st, err := store.NewStoreFromConfig(cfg.Data)
	if err != nil {
		logger.WithComponent("main").Fatalf("cannot init store: %v", err)
	}
	defer st.Close()

	if err := store.CleanupNamespaces(context.Background(), st); err != nil {
		logger.WithComponent("main").Warnf("namespace cleanup failed: %v", err)
	}

	fetcher := fetch.NewRetryingFetcher(cfg.Upstream.FetchAttempts, cfg.Upstream.FetchBackoff, cfg.Upstream.FetchTimeout)
	notifier := connectivity.NewNotifier()
	ldr := loader.New(st, fetcher, cfg.Upstream.DataURL, notifier)

	router := strategy.Router{
		DataPath:  cfg.Upstream.DataPath,
		ShellPath: cfg.Upstream.ShellPath,
	}
	shellURL := cfg.Upstream.BaseURL + cfg.Upstream.ShellPath
	interceptor := strategy.NewInterceptor(router, fetcher, st, shellURL)

	app, err := appctx.New(cfg, st, fetcher, ldr, interceptor, notifier)
	if err != nil {
		logger.WithComponent("main").Fatalf("cannot init app: %v", err)
	}
	defer app.Shutdown()

	// A failed initial load is fatal to the view, not the process: the
	// dashboard keeps serving its retry affordance and the background
	// refresh loop keeps trying.
	if collection, err := ldr.Load(app.BaseCtx); err != nil {
		logger.WithComponent("main").Errorf("initial load failed, starting with empty collection: %v", err)
	} else {
		logger.WithComponent("main").Infof("initial load complete: %d records", len(collection))
	}

	interceptor.WarmShell(app.BaseCtx)

	if err := app.StartWatchers(); err != nil {
		logger.WithComponent("main").Fatalf("cannot start watchers: %v", err)
	}

	gin.SetMode(cfg.Misc.GinMode)
	gin.DefaultWriter = logger.Logger.Writer()
	gin.DefaultErrorWriter = logger.Logger.Writer()

	r := route.SetupRoutes(app, logger.Logger)
	srv := createGraceHttpServer(app.BaseCtx, "server", cfg.Server, r)

	if err := srv.ListenAndServe(fmt.Sprintf(":%d", cfg.Server.Port)); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithComponent("main").Fatal(err)
	}
}

func createGraceHttpServer(ctx context.Context, name string, serverConfig config.ServerConfig, r *gin.Engine) *httpgrace.Server {
	slogLogger := slog.New(slog.NewTextHandler(logger.Logger.Writer(), nil))

	srv := httpgrace.NewServer(r,
		httpgrace.WithTimeout(serverConfig.ShutDownTimeout),
		httpgrace.WithSignals(syscall.SIGTERM, syscall.SIGINT),
		httpgrace.WithLogger(slogLogger),
		httpgrace.WithBeforeShutdown(func() {
			logger.WithComponent("http").Infof("Shutting down %s....", name)
		}),
		httpgrace.WithServerOptions(
			httpgrace.WithReadTimeout(serverConfig.ReadTimeout),
			httpgrace.WithWriteTimeout(serverConfig.WriteTimeout),
			httpgrace.WithIdleTimeout(serverConfig.IdleTimeout),
			func(srv *http.Server) {
				srv.BaseContext = func(_ net.Listener) context.Context {
					return ctx
				}
			},
			func(srv *http.Server) {
				srv.ErrorLog = log.New(logger.Logger.Writer(), fmt.Sprintf("[%s] ", name), log.LstdFlags)
			},
		),
	)
	return srv
}
