// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Platewise Contributors

package main

import (
	"github.com/spf13/cobra"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the Platewise CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "platewise",
		Short: "Platewise - personalized meal planning server",
		Long: `Platewise serves the meal-planning web application: credential
authentication, session claims, and the server-rendered pages behind them.`,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewSeedCmd())
	cmd.AddCommand(NewStatusCmd())

	return cmd
}
