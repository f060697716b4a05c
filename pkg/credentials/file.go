// SPDX-FileCopyrightText: Copyright 2026 ConsoleHQ, Inc.
// SPDX-License-Identifier: Apache-2.0

package credentials

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

const (
	// DefaultAppName is the default application name used for XDG paths
	DefaultAppName = "authcore"

	// sessionFileName is the file the session record is stored in
	sessionFileName = "session.json"
)

// fileBackend persists the session record as a JSON file under the XDG
// state directory.
type fileBackend struct {
	path string
}

// NewLocalStore creates a store backed by the local filesystem following the
// XDG Base Directory Specification. If appName is empty, DefaultAppName is
// used. If the state directory cannot be created, the store silently starts
// in memory-only mode rather than failing.
func NewLocalStore(appName string, opts ...Option) Store {
	if appName == "" {
		appName = DefaultAppName
	}

	basePath := filepath.Join(xdg.StateHome, appName)
	if err := os.MkdirAll(basePath, 0700); err != nil {
		s := NewMemoryStore(opts...)
		s.(*localStore).degrade("create state directory", err)
		return s
	}

	return newStoreWithBackend(&fileBackend{
		path: filepath.Join(basePath, sessionFileName),
	}, opts...)
}

func (b *fileBackend) load() (record, error) {
	// #nosec G304 - the path is derived from the XDG state home
	data, err := os.ReadFile(b.path)
	if err != nil {
		if os.IsNotExist(err) {
			// No previous session.
			return record{}, nil
		}
		return record{}, fmt.Errorf("failed to read session file: %w", err)
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return record{}, fmt.Errorf("failed to parse session file: %w", err)
	}
	return rec, nil
}

func (b *fileBackend) save(rec record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to serialize session: %w", err)
	}

	// Write to a temporary file and rename so a concurrent reader never
	// observes a partially written record.
	tmp := b.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if err := os.Rename(tmp, b.path); err != nil {
		return fmt.Errorf("failed to replace session file: %w", err)
	}
	return nil
}

func (b *fileBackend) clear() error {
	if err := os.Remove(b.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove session file: %w", err)
	}
	return nil
}
