// SPDX-FileCopyrightText: Copyright 2026 ConsoleHQ, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package app provides the entry point for the authcore command-line
// application.
package app

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/consolehq/authcore/pkg/logger"
	"github.com/consolehq/authcore/pkg/telemetry"
)

var rootCmd = &cobra.Command{
	Use:               "authcore",
	DisableAutoGenTag: true,
	Short:             "Authcore is the console's session and credential manager",
	Long: `Authcore manages the authenticated session for the console: it logs in
against the identity provider, keeps the access token fresh in the background,
attaches credentials to outgoing requests, and enforces the idle and absolute
session timeout policies.`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.Initialize()
		telemetry.Init()
	},
	Run: func(cmd *cobra.Command, _ []string) {
		// If no subcommand is provided, print help
		if err := cmd.Help(); err != nil {
			logger.Errorf("Error displaying help: %v", err)
		}
	},
}

// NewRootCmd creates a new root command for the authcore CLI.
func NewRootCmd() *cobra.Command {
	// Add persistent flags
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug mode")
	if err := viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug")); err != nil {
		logger.Errorf("Error binding debug flag: %v", err)
	}

	// Add subcommands
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(callCmd)
	rootCmd.AddCommand(newConfigCommand())

	return rootCmd
}
