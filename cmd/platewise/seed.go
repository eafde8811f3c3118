// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Platewise Contributors

package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/platewise/platewise/internal/auth"
	authpg "github.com/platewise/platewise/internal/auth/postgres"
	"github.com/platewise/platewise/internal/config"
	"github.com/platewise/platewise/internal/seed"
	"github.com/platewise/platewise/internal/store"
)

// Default timeout for seed command.
const defaultSeedTimeout = 30 * time.Second

// seedConfig holds configuration for the seed command.
type seedConfig struct {
	file         string
	timeout      time.Duration
	validateOnly bool
}

// NewSeedCmd creates the seed subcommand.
func NewSeedCmd() *cobra.Command {
	cfg := &seedConfig{}

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create bootstrap accounts from a YAML file",
		Long: `Creates the accounts listed in a seed file. This command is
idempotent - accounts whose email already exists are skipped.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd, args, cfg)
		},
	}

	cmd.Flags().StringVar(&cfg.file, "file", "seed.yaml", "path to the seed file")
	cmd.Flags().DurationVar(&cfg.timeout, "timeout", defaultSeedTimeout, "timeout for database operations (e.g., 30s, 1m)")
	cmd.Flags().BoolVar(&cfg.validateOnly, "validate", false, "validate the seed file without writing anything")
	config.RegisterFlags(cmd.Flags())

	return cmd
}

func runSeed(cmd *cobra.Command, _ []string, cfg *seedConfig) error {
	f, err := seed.Load(cfg.file)
	if err != nil {
		return err
	}
	cmd.Printf("Seed file valid: %d account(s)\n", len(f.Accounts))
	if cfg.validateOnly {
		return nil
	}

	appCfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return err
	}
	if appCfg.DatabaseURL == "" {
		return oops.Code("CONFIG_INVALID").
			Errorf("database URL is required (set %s or --database-url)", config.EnvDatabaseURL)
	}

	// Use cmd.Context() so SIGINT/SIGTERM cancels in-flight work.
	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.timeout)
	defer cancel()

	cmd.Println("Connecting to database...")
	pool, err := store.Connect(ctx, appCfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	seeder, err := seed.NewSeeder(authpg.NewAccountRepository(pool), auth.NewBcryptHasher(), slog.Default())
	if err != nil {
		return err
	}

	res, err := seeder.Apply(ctx, f)
	if err != nil {
		return oops.Code("SEED_FAILED").Wrap(err)
	}

	cmd.Printf("Seeding complete: %d created, %d skipped\n", res.Created, res.Skipped)
	return nil
}
