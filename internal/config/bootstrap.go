// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OC-Memory Contributors

package config

import (
	_ "embed"
	"log/slog"
	"os"
	"path/filepath"

	ocerr "github.com/sam-ueckert/oc-memory/pkg/errors"
)

//go:embed oc-memory.yaml.default
var DefaultConfigYAML []byte

// DefaultConfigPath returns ~/.config/oc-memory/oc-memory.yaml.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", ocerr.Errorf(ocerr.CodeConfigLoadReadFailure, "resolving home directory: %w", err)
	}
	return filepath.Join(home, ".config", "oc-memory", "oc-memory.yaml"), nil
}

// BootstrapConfig writes the default commented config to path if it does
// not already exist. Returns the path written, or empty string if the
// file already existed or an error occurred (non-fatal, logged and
// skipped).
func BootstrapConfig() string {
	cfgPath, err := DefaultConfigPath()
	if err != nil {
		slog.Debug("skipping config bootstrap", "error", err)
		return ""
	}

	if _, err := os.Stat(cfgPath); err == nil {
		return "" // already exists
	}

	dir := filepath.Dir(cfgPath)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		slog.Debug("skipping config bootstrap: cannot create directory", "path", dir, "error", err)
		return ""
	}

	if err := os.WriteFile(cfgPath, DefaultConfigYAML, 0o600); err != nil {
		slog.Debug("skipping config bootstrap: cannot write config", "path", cfgPath, "error", err)
		return ""
	}

	slog.Info("created default config", "path", cfgPath)
	return cfgPath
}
