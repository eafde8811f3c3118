// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Platewise Contributors

package main

import (
	"fmt"
	"strings"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/platewise/platewise/internal/config"
	"github.com/platewise/platewise/internal/store"
)

// NewMigrateCmd creates the migrate subcommand with its actions.
func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database schema migrations",
		Long:  `Apply, roll back, and inspect schema migrations against the PostgreSQL database.`,
	}
	config.RegisterFlags(cmd.PersistentFlags())

	cmd.AddCommand(newMigrateUpCmd())
	cmd.AddCommand(newMigrateDownCmd())
	cmd.AddCommand(newMigrateStatusCmd())
	cmd.AddCommand(newMigrateForceCmd())

	return cmd
}

// openMigrator loads configuration and builds a Migrator from it.
func openMigrator(cmd *cobra.Command) (*store.Migrator, error) {
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return nil, err
	}
	if cfg.DatabaseURL == "" {
		return nil, oops.Code("CONFIG_INVALID").
			Errorf("database URL is required (set %s or --database-url)", config.EnvDatabaseURL)
	}
	return store.NewMigrator(cfg.DatabaseURL)
}

func closeMigrator(cmd *cobra.Command, m *store.Migrator) {
	if err := m.Close(); err != nil {
		cmd.PrintErrf("Warning: migrator close failed: %v\n", err)
	}
}

func newMigrateUpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			migrator, err := openMigrator(cmd)
			if err != nil {
				return err
			}
			defer closeMigrator(cmd, migrator)

			pending, err := migrator.PendingMigrations()
			if err != nil {
				return err
			}
			if len(pending) == 0 {
				cmd.Println("No pending migrations")
				return nil
			}

			if err := migrator.Up(); err != nil {
				return err
			}
			cmd.Printf("Applied %d migration(s)\n", len(pending))
			return nil
		},
	}
}

func newMigrateDownCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back all migrations (destructive)",
		Long:  `Roll back every migration, dropping all tables and data. Requires --yes.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return oops.Errorf("refusing to drop schema without --yes")
			}
			migrator, err := openMigrator(cmd)
			if err != nil {
				return err
			}
			defer closeMigrator(cmd, migrator)

			if err := migrator.Down(); err != nil {
				return err
			}
			cmd.Println("Rolled back all migrations")
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the destructive rollback")
	return cmd
}

func newMigrateStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show applied and pending migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			migrator, err := openMigrator(cmd)
			if err != nil {
				return err
			}
			defer closeMigrator(cmd, migrator)

			version, dirty, err := migrator.Version()
			if err != nil {
				return err
			}
			applied, err := migrator.AppliedMigrations()
			if err != nil {
				return err
			}
			pending, err := migrator.PendingMigrations()
			if err != nil {
				return err
			}

			cmd.Printf("Current version: %d%s\n", version, dirtySuffix(dirty))
			cmd.Printf("Applied: %s\n", formatVersions(applied))
			cmd.Printf("Pending: %s\n", formatVersions(pending))
			return nil
		},
	}
}

func newMigrateForceCmd() *cobra.Command {
	var forceVersion int
	cmd := &cobra.Command{
		Use:   "force",
		Short: "Set the schema version without running migrations",
		Long:  `Set the recorded schema version. Only for recovering a dirty state after manual repair.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if forceVersion < 0 {
				return oops.Code("INVALID_VERSION").Errorf("version must be non-negative, got %d", forceVersion)
			}
			migrator, err := openMigrator(cmd)
			if err != nil {
				return err
			}
			defer closeMigrator(cmd, migrator)

			if err := migrator.Force(forceVersion); err != nil {
				return err
			}
			cmd.Printf("Schema version forced to %d\n", forceVersion)
			return nil
		},
	}
	cmd.Flags().IntVar(&forceVersion, "version", -1, "schema version to record")
	_ = cmd.MarkFlagRequired("version") //nolint:errcheck // flag is declared above
	return cmd
}

func dirtySuffix(dirty bool) string {
	if dirty {
		return " (dirty - manual repair required)"
	}
	return ""
}

func formatVersions(versions []uint) string {
	if len(versions) == 0 {
		return "none"
	}
	parts := make([]string, 0, len(versions))
	for _, v := range versions {
		name, err := store.MigrationName(v)
		if err != nil || name == "" {
			parts = append(parts, fmt.Sprintf("%d", v))
			continue
		}
		parts = append(parts, name)
	}
	return strings.Join(parts, ", ")
}
