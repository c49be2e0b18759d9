// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OC-Memory Contributors

package main

import (
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newEmbedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "embed",
		Short: "Backfill missing embeddings",
		Long:  "Embed every cell stored while the model daemon was unreachable.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, _, _, closeStore, err := openService(cmd)
			if err != nil {
				return err
			}
			defer closeStore()

			n, err := svc.EmbedMissing(cmd.Context())
			if err != nil {
				return fmt.Errorf("embedded %d cells before failing: %w", n, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Embedded %d cells\n", n)
			return nil
		},
	}
}

func newDecayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decay",
		Short: "Lower salience of stale memories",
		Long:  "Multiply salience by the decay factor for cells past the age threshold with fewer than 3 accesses. Salience never drops below the floor.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			days, _ := cmd.Flags().GetInt("days")
			factor, _ := cmd.Flags().GetFloat64("factor")

			_, ms, cfg, closeStore, err := openService(cmd)
			if err != nil {
				return err
			}
			defer closeStore()

			if days <= 0 {
				days = cfg.Decay.Days
			}
			if factor <= 0 {
				factor = cfg.Decay.Factor
			}

			affected, err := ms.Decay(cmd.Context(), days, factor)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Decayed %d cells (older than %d days, factor %.2f)\n", affected, days, factor)
			return nil
		},
	}

	cmd.Flags().Int("days", 0, "age threshold in days (0 uses the configured default)")
	cmd.Flags().Float64("factor", 0, "decay multiplier (0 uses the configured default)")

	return cmd
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show memory statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, ms, _, closeStore, err := openService(cmd)
			if err != nil {
				return err
			}
			defer closeStore()

			stats, err := ms.Stats(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Cells:  %d (%d embedded)\n", stats.TotalCells, stats.EmbeddedCells)
			fmt.Fprintf(out, "Scenes: %d\n", stats.TotalScenes)

			if len(stats.ByType) > 0 {
				fmt.Fprintln(out, "\nBy type:")
				w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				for _, k := range sortedKeys(stats.ByType) {
					fmt.Fprintf(w, "  %s\t%d\n", k, stats.ByType[k])
				}
				if err := w.Flush(); err != nil {
					return err
				}
			}

			if len(stats.TopScenes) > 0 {
				fmt.Fprintln(out, "\nTop scenes:")
				w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				for _, k := range sortedKeys(stats.TopScenes) {
					fmt.Fprintf(w, "  %s\t%d\n", k, stats.TopScenes[k])
				}
				if err := w.Flush(); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

// sortedKeys orders map keys by descending count, ties alphabetically.
func sortedKeys(m map[string]int64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if m[keys[i]] != m[keys[j]] {
			return m[keys[i]] > m[keys[j]]
		}
		return keys[i] < keys[j]
	})
	return keys
}
