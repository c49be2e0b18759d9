// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OC-Memory Contributors

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	ocerr "github.com/sam-ueckert/oc-memory/pkg/errors"
)

func newExtractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract <text>",
		Short: "Extract memory cells from text",
		Long:  "Ask the extraction model to distill text into discrete memory cells. The model names each cell's scene; --scene covers cells it leaves unnamed.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			scene, _ := cmd.Flags().GetString("scene")
			return runExtract(cmd, scene, args[0])
		},
	}
	cmd.Flags().String("scene", "general", "fallback scene for cells the model leaves unnamed")
	return cmd
}

func newExtractFileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract-file <path>",
		Short: "Extract memory cells from a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return ocerr.Errorf(ocerr.CodeCLIInputInvalid, "reading %s: %w", args[0], err)
			}
			scene, _ := cmd.Flags().GetString("scene")
			return runExtract(cmd, scene, string(data))
		},
	}
	cmd.Flags().String("scene", "general", "fallback scene for cells the model leaves unnamed")
	return cmd
}

func runExtract(cmd *cobra.Command, fallbackScene, text string) error {
	svc, _, _, closeStore, err := openService(cmd)
	if err != nil {
		return err
	}
	defer closeStore()

	ids, err := svc.ExtractAndStore(cmd.Context(), fallbackScene, text)
	if err != nil {
		return err
	}

	if len(ids) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No memorable cells found")
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Stored %d cells\n", len(ids))
	return nil
}
