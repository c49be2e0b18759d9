// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OC-Memory Contributors

package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/sam-ueckert/oc-memory/internal/store"
	ocerr "github.com/sam-ueckert/oc-memory/pkg/errors"
)

func newStoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store <scene> <content>",
		Short: "Store a memory cell",
		Long:  "Store a single memory cell in the given scene, embedding it when the model daemon is reachable.",
		Args:  cobra.ExactArgs(2),
		RunE:  runStore,
	}

	cmd.Flags().String("type", "fact", "cell type (fact, decision, preference, task, risk, plan, lesson)")
	cmd.Flags().Float64("salience", store.DefaultSalience, "importance weight in [0,1]")
	cmd.Flags().StringSlice("tags", nil, "tags to attach")
	cmd.Flags().String("source", "manual", "where this memory came from")

	return cmd
}

func runStore(cmd *cobra.Command, args []string) error {
	if err := requireArg(args[0], "scene"); err != nil {
		return err
	}
	if err := requireArg(args[1], "content"); err != nil {
		return err
	}

	cellType, _ := cmd.Flags().GetString("type")
	salience, _ := cmd.Flags().GetFloat64("salience")
	tags, _ := cmd.Flags().GetStringSlice("tags")
	source, _ := cmd.Flags().GetString("source")

	svc, _, _, closeStore, err := openService(cmd)
	if err != nil {
		return err
	}
	defer closeStore()

	ids, err := svc.StoreCells(cmd.Context(), []*store.Cell{{
		Scene:    args[0],
		CellType: store.CellType(cellType),
		Salience: salience,
		Content:  args[1],
		Source:   source,
		Tags:     tags,
	}})
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Stored cell %d in scene %q\n", ids[0], args[0])
	return nil
}

func newForgetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "forget <cell-id>",
		Short: "Delete a memory cell",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return ocerr.Errorf(ocerr.CodeCLIInputInvalid, "cell id must be a number, got %q", args[0])
			}

			_, ms, _, closeStore, err := openService(cmd)
			if err != nil {
				return err
			}
			defer closeStore()

			if err := ms.DeleteCell(cmd.Context(), id); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Forgot cell %d\n", id)
			return nil
		},
	}
}
