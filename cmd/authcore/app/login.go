// SPDX-FileCopyrightText: Copyright 2026 ConsoleHQ, Inc.
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var loginCmd = &cobra.Command{
	Use:   "login <email>",
	Short: "Authenticate against the identity provider and start a session",
	Long: `Login authenticates against the configured identity provider and stores
the resulting session locally. The password is read from stdin unless the
--password flag is given.`,
	Args: cobra.ExactArgs(1),
	RunE: loginCmdFunc,
}

var (
	loginPassword   string
	loginRememberMe bool
)

func init() {
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "Password (read from stdin if omitted)")
	loginCmd.Flags().BoolVar(&loginRememberMe, "remember-me", false, "Extend the session lifetime")
}

func loginCmdFunc(cmd *cobra.Command, args []string) error {
	email := args[0]

	password := loginPassword
	if password == "" {
		fmt.Fprint(os.Stderr, "Password: ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		password = strings.TrimSpace(line)
	}

	manager, err := newManager()
	if err != nil {
		return err
	}
	defer manager.Close()

	user, err := manager.Login(cmd.Context(), email, password, loginRememberMe)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	fmt.Printf("Logged in as %s (%s)\n", user.Email, strings.Join(user.Roles, ", "))
	return nil
}
