// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OC-Memory Contributors

// Package config loads oc-memory configuration from file, environment,
// and defaults, in that order of precedence.
package config

import (
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	ocerr "github.com/sam-ueckert/oc-memory/pkg/errors"
)

// Config is the top-level oc-memory configuration.
type Config struct {
	DBPath    string       `mapstructure:"db_path"`
	ExportDir string       `mapstructure:"export_dir"`
	Ollama    OllamaConfig `mapstructure:"ollama"`
	Backup    BackupConfig `mapstructure:"backup"`
	Decay     DecayConfig  `mapstructure:"decay"`
	Search    SearchConfig `mapstructure:"search"`
}

// OllamaConfig points at the local model daemon.
type OllamaConfig struct {
	URL          string `mapstructure:"url"`
	EmbedModel   string `mapstructure:"embed_model"`
	ExtractModel string `mapstructure:"extract_model"`
}

// BackupConfig controls off-host database copies.
type BackupConfig struct {
	// RemoteHost is an scp destination like "user@host:/path". Empty
	// disables remote backup.
	RemoteHost string `mapstructure:"remote_host"`
}

// DecayConfig controls the salience sweep.
type DecayConfig struct {
	Days   int     `mapstructure:"days"`
	Factor float64 `mapstructure:"factor"`
}

// SearchConfig controls retrieval defaults.
type SearchConfig struct {
	Limit int `mapstructure:"limit"`
}

// Load reads configuration from the given path (or defaults) with
// environment variable overrides (prefix OC_MEMORY_).
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("OC_MEMORY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, ocerr.Errorf(ocerr.CodeConfigLoadReadFailure, "reading config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, ocerr.Errorf(ocerr.CodeConfigValidateInvalidValue, "unmarshalling config: %w", err)
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ocerr.Errorf(ocerr.CodeConfigValidateInvalidValue, "validating config: %w", errors.Join(errs...))
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("db_path", defaultPath("memory.db"))
	v.SetDefault("export_dir", defaultPath("exports"))
	v.SetDefault("ollama.url", "http://localhost:11434")
	v.SetDefault("ollama.embed_model", "nomic-embed-text")
	v.SetDefault("ollama.extract_model", "llama3.2:3b")
	v.SetDefault("backup.remote_host", "")
	v.SetDefault("decay.days", 30)
	v.SetDefault("decay.factor", 0.9)
	v.SetDefault("search.limit", 10)
}

// defaultPath roots default file locations under ~/.openclaw.
func defaultPath(name string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".openclaw", name)
	}
	return filepath.Join(home, ".openclaw", name)
}

// Validate checks the configuration for logical errors. It returns all
// validation errors found, not just the first one.
func (c *Config) Validate() []error {
	var errs []error

	if c.DBPath == "" {
		errs = append(errs, ocerr.Errorf(ocerr.CodeConfigValidateInvalidValue, "config: db_path must not be empty"))
	}

	if c.Ollama.URL != "" {
		if u, err := url.Parse(c.Ollama.URL); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, ocerr.Errorf(ocerr.CodeConfigValidateInvalidValue,
				"config: ollama.url must be a valid absolute URL, got %q", c.Ollama.URL))
		}
	}

	if c.Decay.Days <= 0 {
		errs = append(errs, ocerr.Errorf(ocerr.CodeConfigValidateInvalidValue,
			"config: decay.days must be greater than 0, got %d", c.Decay.Days))
	}

	if c.Decay.Factor <= 0 || c.Decay.Factor > 1 {
		errs = append(errs, ocerr.Errorf(ocerr.CodeConfigValidateInvalidValue,
			"config: decay.factor must be in (0, 1], got %g", c.Decay.Factor))
	}

	if c.Search.Limit <= 0 {
		errs = append(errs, ocerr.Errorf(ocerr.CodeConfigValidateInvalidValue,
			"config: search.limit must be greater than 0, got %d", c.Search.Limit))
	}

	return errs
}
