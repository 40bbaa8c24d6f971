package main

import (
	"context"
	"fmt"
	"time"

	"github.com/cuemby/maw/pkg/mawtypes"
	"github.com/cuemby/maw/pkg/workspace"
	"github.com/spf13/cobra"
)

var recoverCmd = &cobra.Command{
	Use:   "recover <name>",
	Short: "Restore a destroyed workspace from its latest destroy record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		root := rootFlag(cmd)
		store, err := openStore(root)
		if err != nil {
			return err
		}
		ws, err := mawtypes.NewWorkspaceId(args[0])
		if err != nil {
			return err
		}
		dir := workdirFor(root, ws.String())
		head, record, err := workspace.Recover(ctx, store, ws, dir, root, time.Now().UTC())
		if err != nil {
			return err
		}
		fmt.Printf("recovered workspace %s at base epoch %s (new head %s, pinned from %s capture)\n",
			ws, record.BaseEpoch, head, record.CaptureMode)
		return nil
	},
}
