// SPDX-FileCopyrightText: Copyright 2026 ConsoleHQ, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package main is the entry point for the authcore CLI.
package main

import (
	"os"

	"github.com/consolehq/authcore/cmd/authcore/app"
)

func main() {
	if err := app.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
