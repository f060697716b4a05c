// SPDX-FileCopyrightText: Copyright 2026 ConsoleHQ, Inc.
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the session state",
	Args:  cobra.NoArgs,
	RunE:  statusCmdFunc,
}

func statusCmdFunc(_ *cobra.Command, _ []string) error {
	manager, err := newManager()
	if err != nil {
		return err
	}
	defer manager.Close()

	if !manager.IsAuthenticated() {
		fmt.Println("Session: none")
		return nil
	}

	user, _ := manager.CurrentUser()
	fmt.Printf("Session: %s\n", manager.State())
	fmt.Printf("User:    %s\n", user.Email)
	return nil
}
