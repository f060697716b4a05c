// SPDX-FileCopyrightText: Copyright 2026 ConsoleHQ, Inc.
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/consolehq/authcore/pkg/authz"
)

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the current user and their effective permissions",
	Args:  cobra.NoArgs,
	RunE:  whoamiCmdFunc,
}

func whoamiCmdFunc(_ *cobra.Command, _ []string) error {
	manager, err := newManager()
	if err != nil {
		return err
	}
	defer manager.Close()

	user, ok := manager.CurrentUser()
	if !ok {
		return fmt.Errorf("not logged in")
	}

	fmt.Printf("User:  %s\n", user.Email)
	fmt.Printf("ID:    %s\n", user.ID)
	fmt.Printf("Roles: %s\n", strings.Join(user.Roles, ", "))

	hierarchy := authz.DefaultHierarchy()
	seen := make(map[string]struct{})
	var perms []string
	for _, role := range user.Roles {
		for _, p := range hierarchy.EffectivePermissions(role) {
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			perms = append(perms, p)
		}
	}
	sort.Strings(perms)

	if len(perms) > 0 {
		fmt.Printf("Permissions:\n")
		for _, p := range perms {
			fmt.Printf("  %s\n", p)
		}
	}
	return nil
}
