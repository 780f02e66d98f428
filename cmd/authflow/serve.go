// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Authflow Contributors

package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/authflow/authflow/internal/config"
	"github.com/authflow/authflow/internal/httpapi"
	"github.com/authflow/authflow/internal/logging"
	"github.com/authflow/authflow/internal/observability"
	"github.com/authflow/authflow/internal/ratelimit"
	"github.com/authflow/authflow/internal/store"
)

const (
	serviceName     = "authflow"
	shutdownTimeout = 10 * time.Second
	readyTimeout    = time.Second
)

// serveFlagKeys maps serve flags to config keys.
var serveFlagKeys = map[string]string{
	"addr":         "server.addr",
	"metrics-addr": "metrics.addr",
	"log-format":   "log.format",
	"log-level":    "log.level",
	"production":   "server.production",
}

func newServeCmd(deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the auth HTTP server",
		Long: `Start the HTTP server exposing the /api/auth routes, plus the
metrics and health listener when metrics.addr is set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), cmd, deps)
		},
	}

	defaults := config.Default()
	cmd.Flags().String("addr", defaults.Server.Addr, "HTTP listen address")
	cmd.Flags().String("metrics-addr", defaults.Metrics.Addr, "metrics/health HTTP address (empty = disabled)")
	cmd.Flags().String("log-format", defaults.Log.Format, "log format (json or text)")
	cmd.Flags().String("log-level", defaults.Log.Level, "log level (debug, info, warn, error)")
	cmd.Flags().Bool("production", defaults.Server.Production, "enable release mode and Secure cookies")

	return cmd
}

// runServe starts the server and blocks until ctx is cancelled, a signal
// arrives or a listener fails.
func runServe(ctx context.Context, cmd *cobra.Command, deps *Deps) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig(cmd, deps, serveFlagKeys)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	logger := logging.Setup(serviceName, version, cfg.Log.Format, level, cmd.ErrOrStderr())
	slog.SetDefault(logger)

	if cfg.Server.Production {
		gin.SetMode(gin.ReleaseMode)
	}

	logger.InfoContext(ctx, "starting authflow",
		"addr", cfg.Server.Addr,
		"metrics_addr", cfg.Metrics.Addr,
		"notify_driver", cfg.Notify.Driver,
		"rate_limit", cfg.RateLimit.Enabled,
	)

	pool, err := deps.PoolFactory(ctx, cfg.Database.URL)
	if err != nil {
		return oops.With("operation", "connect to database").Wrap(err)
	}
	defer pool.Close()
	logger.InfoContext(ctx, "connected to database")

	var rdb redis.UniversalClient
	if cfg.Redis.URL != "" {
		rdb, err = deps.RedisFactory(ctx, cfg.Redis.URL)
		if err != nil {
			return oops.With("operation", "connect to redis").Wrap(err)
		}
		defer func() {
			if closeErr := rdb.Close(); closeErr != nil {
				logger.Debug("error closing redis client", "error", closeErr)
			}
		}()
		logger.InfoContext(ctx, "connected to redis")
	}

	parts, err := buildComponents(cfg, pool, rdb, deps.Clock, logger)
	if err != nil {
		return err
	}

	var limiter httpapi.RateLimiter
	if cfg.RateLimit.Enabled {
		l, err := ratelimit.New(rdb, cfg.Redis.KeyPrefix, cfg.RateLimit.Limit, cfg.RateLimit.Window)
		if err != nil {
			return err
		}
		limiter = l
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var obsServer ObservabilityServer
	var metrics *observability.Metrics
	if cfg.Metrics.Addr != "" {
		obsServer = deps.ObservabilityServerFactory(cfg.Metrics.Addr, readinessChecker(pool, rdb))
		obsErrChan, err := obsServer.Start()
		if err != nil {
			return oops.With("operation", "start observability server").Wrap(err)
		}
		go monitorServerErrors(ctx, cancel, obsErrChan, "observability", logger)
		metrics = obsServer.Metrics()
		logger.InfoContext(ctx, "observability server started", "addr", obsServer.Addr())
	}

	router, err := httpapi.NewRouter(httpapi.Options{
		Service:        parts.service,
		Sessions:       parts.issuer,
		Revoker:        parts.revoker,
		Limiter:        limiter,
		Metrics:        metrics,
		Logger:         logger,
		Clock:          deps.Clock,
		CookieName:     cfg.Session.CookieName,
		SecureCookie:   cfg.Server.Production,
		TrustedProxies: cfg.Server.TrustedProxies,
	})
	if err != nil {
		stopObservability(obsServer, logger)
		return err
	}

	listener, err := net.Listen("tcp", cfg.Server.Addr)
	if err != nil {
		stopObservability(obsServer, logger)
		return oops.Code("LISTEN_FAILED").With("addr", cfg.Server.Addr).Wrap(err)
	}

	httpServer := &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errChan := make(chan error, 1)
	go func() {
		if serveErr := httpServer.Serve(listener); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			errChan <- serveErr
		}
		close(errChan)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	cmd.Printf("authflow listening on %s\n", listener.Addr())
	logger.InfoContext(ctx, "authflow ready", "addr", listener.Addr().String())

	var serveErr error
	select {
	case sig := <-sigChan:
		logger.Info("received shutdown signal", "signal", sig.String())
	case err, ok := <-errChan:
		if ok && err != nil {
			serveErr = oops.Code("HTTP_SERVE_FAILED").Wrap(err)
		}
	case <-ctx.Done():
		logger.Info("context cancelled, shutting down")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("error stopping HTTP server", "error", err)
	}
	stopObservability(obsServer, logger)

	logger.Info("shutdown complete")
	return serveErr
}

// readinessChecker reports ready when the database and, if configured, redis
// answer a ping.
func readinessChecker(pool store.Pool, rdb redis.UniversalClient) observability.ReadinessChecker {
	return func(ctx context.Context) error {
		if err := store.Ping(ctx, pool, readyTimeout); err != nil {
			return err
		}
		if rdb != nil {
			if err := store.PingRedis(ctx, rdb, readyTimeout); err != nil {
				return err
			}
		}
		return nil
	}
}

func stopObservability(server ObservabilityServer, logger *slog.Logger) {
	if server == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Stop(ctx); err != nil {
		logger.Warn("error stopping observability server", "error", err)
	}
}

// monitorServerErrors cancels ctx when a server reports an error. It exits
// when the channel closes or ctx is done.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, serverName string, logger *slog.Logger) {
	select {
	case err, ok := <-errCh:
		if !ok {
			return
		}
		if err != nil {
			logger.Error("server error, triggering shutdown",
				"server", serverName,
				"error", err,
			)
			cancel()
		}
	case <-ctx.Done():
	}
}
