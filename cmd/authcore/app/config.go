// SPDX-FileCopyrightText: Copyright 2026 ConsoleHQ, Inc.
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"fmt"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/consolehq/authcore/pkg/config"
)

func newConfigCommand() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the authcore configuration",
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE:  configShowCmdFunc,
	}

	setProviderCmd := &cobra.Command{
		Use:   "set-provider-url <url>",
		Short: "Set the identity provider base URL",
		Args:  cobra.ExactArgs(1),
		RunE:  configSetProviderCmdFunc,
	}

	configCmd.AddCommand(showCmd)
	configCmd.AddCommand(setProviderCmd)
	return configCmd
}

func configPath() string {
	return filepath.Join(xdg.ConfigHome, "authcore", "config.yaml")
}

func configShowCmdFunc(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	out, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to render configuration: %w", err)
	}
	fmt.Print(string(out))
	return nil
}

func configSetProviderCmdFunc(_ *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	cfg.ProviderURL = args[0]
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := cfg.Save(configPath()); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	fmt.Printf("Identity provider set to %s\n", cfg.ProviderURL)
	return nil
}
