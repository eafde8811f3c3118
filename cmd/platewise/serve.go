// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Platewise Contributors

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/platewise/platewise/internal/auth"
	authpg "github.com/platewise/platewise/internal/auth/postgres"
	"github.com/platewise/platewise/internal/config"
	"github.com/platewise/platewise/internal/logging"
	"github.com/platewise/platewise/internal/observability"
	"github.com/platewise/platewise/internal/session"
	"github.com/platewise/platewise/internal/store"
	"github.com/platewise/platewise/internal/web"
)

// shutdownTimeout bounds graceful shutdown of both servers.
const shutdownTimeout = 10 * time.Second

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the application server",
		Long: `Start the Platewise HTTP server and the observability endpoint.
Requires a PostgreSQL database and a session secret.`,
		RunE: runServe,
	}
	config.RegisterFlags(cmd.Flags())
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return err
	}
	if err := cfg.ValidateServe(); err != nil {
		return err
	}

	logging.SetDefault("platewise", version, cfg.LogFormat)
	logger := slog.Default()

	ctx := cmd.Context()

	pool, err := store.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	if cfg.AutoMigrate {
		if err := runAutoMigrate(cfg.DatabaseURL, logger); err != nil {
			return err
		}
	}

	accounts := authpg.NewAccountRepository(pool)
	hasher := auth.NewBcryptHasher()
	authSvc, err := auth.NewServiceWithLogger(accounts, hasher, logger)
	if err != nil {
		return err
	}
	issuer, err := session.NewIssuer(cfg.SessionSecret)
	if err != nil {
		return err
	}

	obsServer := observability.NewServer(cfg.MetricsAddr, func() bool {
		pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return pool.Ping(pingCtx) == nil
	})

	handlers, err := web.NewHandlers(authSvc, issuer, obsServer.Metrics(), logger, cfg.SecureCookies)
	if err != nil {
		return err
	}
	guard := web.NewGuard(issuer)

	webServer, err := web.NewServer(cfg.ListenAddr, handlers, guard, obsServer.Metrics(), logger)
	if err != nil {
		return err
	}

	obsErrCh, err := obsServer.Start()
	if err != nil {
		return oops.With("operation", "start observability server").Wrap(err)
	}
	webErrCh, err := webServer.Start()
	if err != nil {
		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = obsServer.Stop(stopCtx) //nolint:errcheck // startup error takes precedence
		return oops.With("operation", "start web server").Wrap(err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutdown signal received", "signal", sig.String())
	case err := <-webErrCh:
		if err != nil {
			logger.Error("web server failed", "error", err)
		}
	case err := <-obsErrCh:
		if err != nil {
			logger.Error("observability server failed", "error", err)
		}
	case <-ctx.Done():
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := webServer.Stop(stopCtx); err != nil {
		logger.Error("web server shutdown failed", "error", err)
	}
	if err := obsServer.Stop(stopCtx); err != nil {
		logger.Error("observability server shutdown failed", "error", err)
	}

	logger.Info("server stopped")
	return nil
}

// runAutoMigrate applies pending migrations at startup.
func runAutoMigrate(databaseURL string, logger *slog.Logger) error {
	migrator, err := store.NewMigrator(databaseURL)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := migrator.Close(); closeErr != nil {
			logger.Warn("migrator close failed", "error", closeErr)
		}
	}()

	pending, err := migrator.PendingMigrations()
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		logger.Info("database schema up to date")
		return nil
	}

	logger.Info("applying pending migrations", "count", len(pending))
	if err := migrator.Up(); err != nil {
		return err
	}
	logger.Info("migrations applied")
	return nil
}
