// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OC-Memory Contributors

package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search memory",
		Long:  "Search memory by vector similarity, falling back to keyword search when no embedding model is reachable.",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runSearch,
	}

	cmd.Flags().IntP("limit", "n", 0, "maximum results (0 uses the configured default)")
	cmd.Flags().String("tag", "", "filter by tag instead of free-text search")

	return cmd
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")
	limit, _ := cmd.Flags().GetInt("limit")
	tag, _ := cmd.Flags().GetString("tag")

	svc, ms, cfg, closeStore, err := openService(cmd)
	if err != nil {
		return err
	}
	defer closeStore()

	if limit <= 0 {
		limit = cfg.Search.Limit
	}

	out := cmd.OutOrStdout()

	if tag != "" {
		cells, err := ms.SearchByTag(cmd.Context(), tag, limit)
		if err != nil {
			return err
		}
		if len(cells) == 0 {
			fmt.Fprintf(out, "No cells tagged %q\n", tag)
			return nil
		}

		w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSCENE\tTYPE\tSALIENCE\tCONTENT")
		for _, c := range cells {
			fmt.Fprintf(w, "%d\t%s\t%s\t%.2f\t%s\n", c.ID, c.Scene, c.CellType, c.Salience, c.Content)
		}
		return w.Flush()
	}

	results, mode, err := svc.Search(cmd.Context(), query, limit)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Fprintf(out, "No matches for %q\n", query)
		return nil
	}

	fmt.Fprintf(out, "%d results (%s search)\n\n", len(results), mode)
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCENE\tTYPE\tSCORE\tCONTENT")
	for _, r := range results {
		score := r.Salience
		if r.Score > 0 {
			score = r.Score
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%.4f\t%s\n", r.ID, r.Scene, r.CellType, score, r.Content)
	}
	return w.Flush()
}
