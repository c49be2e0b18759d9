// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OC-Memory Contributors

package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newScenesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scenes",
		Short: "List consolidated scenes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, ms, _, closeStore, err := openService(cmd)
			if err != nil {
				return err
			}
			defer closeStore()

			scenes, err := ms.ListScenes(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(scenes) == 0 {
				fmt.Fprintln(out, "No consolidated scenes (run: oc-memory consolidate)")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "SCENE\tCELLS\tUPDATED\tSUMMARY")
			for _, s := range scenes {
				fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", s.Scene, s.CellCount, s.UpdatedAt.Format("2006-01-02 15:04"), s.Summary)
			}
			return w.Flush()
		},
	}
}

func newSceneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scene <name>",
		Short: "Show one scene and its cells",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, ms, _, closeStore, err := openService(cmd)
			if err != nil {
				return err
			}
			defer closeStore()

			meta, cells, err := ms.GetScene(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if meta == nil && len(cells) == 0 {
				fmt.Fprintf(out, "Scene %q is empty\n", args[0])
				return nil
			}

			if meta != nil && meta.Summary != "" {
				fmt.Fprintf(out, "%s\n\n", meta.Summary)
			}

			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTYPE\tSALIENCE\tACCESS\tCONTENT")
			for _, c := range cells {
				fmt.Fprintf(w, "%d\t%s\t%.2f\t%d\t%s\n", c.ID, c.CellType, c.Salience, c.AccessCount, c.Content)
			}
			return w.Flush()
		},
	}
}

func newConsolidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "consolidate [scene]",
		Short: "Rebuild scene summaries",
		Long:  "Rebuild the summary for one scene, or for every scene when none is named. Uses the extraction model when reachable, otherwise joins the most salient cells locally.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, _, closeStore, err := openService(cmd)
			if err != nil {
				return err
			}
			defer closeStore()

			out := cmd.OutOrStdout()
			if len(args) == 1 {
				if err := svc.Consolidate(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(out, "Consolidated scene %q\n", args[0])
				return nil
			}

			n, err := svc.ConsolidateAll(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Consolidated %d scenes\n", n)
			return nil
		},
	}
	return cmd
}
