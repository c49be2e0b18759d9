// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OC-Memory Contributors

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sam-ueckert/oc-memory/internal/export"
	ocerr "github.com/sam-ueckert/oc-memory/pkg/errors"
)

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export memory to JSON or markdown",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, _ := cmd.Flags().GetString("format")
			dir, _ := cmd.Flags().GetString("dir")

			_, ms, cfg, closeStore, err := openService(cmd)
			if err != nil {
				return err
			}
			defer closeStore()

			if dir == "" {
				dir = cfg.ExportDir
			}

			out := cmd.OutOrStdout()
			switch format {
			case "json":
				path, err := export.ExportJSON(cmd.Context(), ms, dir)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Wrote %s\n", path)
			case "markdown", "md":
				files, err := export.ExportMarkdown(cmd.Context(), ms, dir)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Wrote %d files under %s\n", len(files), dir)
			default:
				return ocerr.Errorf(ocerr.CodeCLIInputInvalid, "format must be json or markdown, got %q", format)
			}
			return nil
		},
	}

	cmd.Flags().String("format", "json", "export format (json, markdown)")
	cmd.Flags().String("dir", "", "output directory (defaults to configured export_dir)")

	return cmd
}

func newBackupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Copy the database to the backup host",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			remote, _ := cmd.Flags().GetString("remote")

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if remote == "" {
				remote = cfg.Backup.RemoteHost
			}

			if err := export.BackupSQLite(cmd.Context(), cfg.DBPath, remote); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Backed up %s to %s\n", cfg.DBPath, remote)
			return nil
		},
	}

	cmd.Flags().String("remote", "", "scp destination (defaults to configured backup.remote_host)")

	return cmd
}

func newRestoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <snapshot.json>",
		Short: "Restore cells from a JSON snapshot",
		Long:  "Load a JSON snapshot into the store. Cells keep their timestamps; embeddings are rebuilt with the embed command.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, ms, _, closeStore, err := openService(cmd)
			if err != nil {
				return err
			}
			defer closeStore()

			n, err := export.RestoreFromJSON(cmd.Context(), ms, args[0])
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Restored %d cells (run: oc-memory embed to rebuild embeddings)\n", n)
			return nil
		},
	}
}
