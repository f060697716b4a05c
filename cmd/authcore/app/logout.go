// SPDX-FileCopyrightText: Copyright 2026 ConsoleHQ, Inc.
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"fmt"

	"github.com/spf13/cobra"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "End the current session",
	Long: `Logout revokes the session with the identity provider when possible and
always clears the locally stored credentials.`,
	Args: cobra.NoArgs,
	RunE: logoutCmdFunc,
}

func logoutCmdFunc(cmd *cobra.Command, _ []string) error {
	manager, err := newManager()
	if err != nil {
		return err
	}
	defer manager.Close()

	if !manager.IsAuthenticated() {
		fmt.Println("No active session")
		return nil
	}

	manager.Logout(cmd.Context())
	fmt.Println("Logged out")
	return nil
}
