// SPDX-FileCopyrightText: Copyright 2026 ConsoleHQ, Inc.
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"fmt"

	"github.com/consolehq/authcore/pkg/config"
	"github.com/consolehq/authcore/pkg/session"
)

// newManager loads the configuration and wires up a session manager. Any
// previously persisted session is resumed.
func newManager() (*session.Manager, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfg.ProviderURL == "" {
		return nil, fmt.Errorf("no identity provider configured; run 'authcore config set-provider-url <url>' first")
	}
	return session.NewManager(cfg)
}
