package main

import (
	"context"
	"fmt"

	"github.com/cuemby/maw/pkg/view"
	"github.com/spf13/cobra"
)

var epochCmd = &cobra.Command{
	Use:   "epoch",
	Short: "Inspect the shared epoch",
}

func init() {
	epochCmd.AddCommand(epochShowCmd)
}

var epochShowCmd = &cobra.Command{
	Use:   "show [ws...]",
	Short: "Print the current epoch, and optionally a global view across workspaces",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		root := rootFlag(cmd)
		store, err := openStore(root)
		if err != nil {
			return err
		}
		epoch, err := currentEpoch(ctx, store)
		if err != nil {
			return err
		}
		fmt.Printf("epoch/current: %s\n", epoch)

		if len(args) == 0 {
			return nil
		}
		ids, err := parseWorkspaceIds(args)
		if err != nil {
			return err
		}
		gv, err := view.ComputeGlobalView(ctx, store, ids, view.StoreReadPatchSet(store))
		if err != nil {
			return err
		}
		fmt.Println(gv.String())
		return nil
	},
}
