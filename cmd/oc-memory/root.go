// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OC-Memory Contributors

package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/sam-ueckert/oc-memory/internal/config"
	"github.com/sam-ueckert/oc-memory/internal/memory"
	"github.com/sam-ueckert/oc-memory/internal/provider"
	"github.com/sam-ueckert/oc-memory/internal/provider/ollama"
	"github.com/sam-ueckert/oc-memory/internal/store/sqlite"
	ocerr "github.com/sam-ueckert/oc-memory/pkg/errors"
)

// NewRootCmd creates the root oc-memory command with all subcommands
// registered.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "oc-memory",
		Short:         "oc-memory — persistent agent memory",
		Long:          "oc-memory stores agent memory as cells grouped into scenes, searchable by keyword or vector similarity, with salience decay and scene consolidation.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
				slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
			}
			return nil
		},
	}

	root.PersistentFlags().StringP("config", "c", "", "path to config file")
	root.PersistentFlags().BoolP("verbose", "v", false, "enable verbose output")

	root.AddCommand(
		newStoreCmd(),
		newForgetCmd(),
		newExtractCmd(),
		newExtractFileCmd(),
		newSearchCmd(),
		newScenesCmd(),
		newSceneCmd(),
		newConsolidateCmd(),
		newEmbedCmd(),
		newDecayCmd(),
		newStatsCmd(),
		newExportCmd(),
		newBackupCmd(),
		newRestoreCmd(),
		newVersionCmd(),
	)

	return root
}

// loadConfig resolves the config file (flag, then the standard
// location, bootstrapping a default there on first run) and loads it.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		if std, err := config.DefaultConfigPath(); err == nil {
			if _, err := os.Stat(std); err == nil {
				path = std
			} else if written := config.BootstrapConfig(); written != "" {
				path = written
			}
		}
	}
	return config.Load(path)
}

// openService opens the store and wires the Ollama providers. The
// returned close func must be called when the command finishes.
func openService(cmd *cobra.Command) (*memory.Service, *sqlite.MemoryStore, *config.Config, func(), error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	ms, err := sqlite.NewMemoryStore(cfg.DBPath)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	var embedder provider.Embedder = provider.NullEmbedder{}
	var extractor provider.Extractor = provider.NullExtractor{}
	if client, err := ollama.New(cfg.Ollama.URL, cfg.Ollama.EmbedModel, cfg.Ollama.ExtractModel); err != nil {
		slog.Debug("running without model providers", "error", err)
	} else if client.Available(cmd.Context()) {
		embedder = client
		extractor = client
	} else {
		slog.Debug("ollama unreachable, running without model providers", "url", cfg.Ollama.URL)
	}

	svc := memory.NewService(ms, embedder, extractor, slog.Default())
	return svc, ms, cfg, func() { _ = ms.Close() }, nil
}

// requireArg returns a coded error when a required positional is blank.
func requireArg(value, name string) error {
	if value == "" {
		return ocerr.Errorf(ocerr.CodeCLIInputInvalid, "%s must not be empty", name)
	}
	return nil
}
