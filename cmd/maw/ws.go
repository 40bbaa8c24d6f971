package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/cuemby/maw/pkg/apperr"
	"github.com/cuemby/maw/pkg/artifact"
	"github.com/cuemby/maw/pkg/config"
	"github.com/cuemby/maw/pkg/mawtypes"
	"github.com/cuemby/maw/pkg/merge"
	"github.com/cuemby/maw/pkg/metrics"
	"github.com/cuemby/maw/pkg/objectstore"
	"github.com/cuemby/maw/pkg/oplog"
	"github.com/cuemby/maw/pkg/refs"
	"github.com/cuemby/maw/pkg/view"
	"github.com/cuemby/maw/pkg/workspace"
	"github.com/spf13/cobra"
)

var wsCmd = &cobra.Command{
	Use:   "ws",
	Short: "Manage workspaces",
}

func init() {
	wsCmd.AddCommand(wsCreateCmd)
	wsCmd.AddCommand(wsDestroyCmd)
	wsCmd.AddCommand(wsListCmd)
	wsCmd.AddCommand(wsStatusCmd)
	wsCmd.AddCommand(wsTouchedCmd)
	wsCmd.AddCommand(wsOverlapCmd)
	wsCmd.AddCommand(wsSnapshotCmd)
	wsCmd.AddCommand(wsSyncCmd)
	wsCmd.AddCommand(wsAdvanceCmd)
	wsCmd.AddCommand(wsMergeCmd)

	wsCreateCmd.Flags().String("epoch", "", "Epoch to create the workspace at (defaults to epoch/current)")
	wsDestroyCmd.Flags().Bool("merge-destroy", false, "Record the destroy as merge-triggered rather than explicit")
	wsAdvanceCmd.Flags().String("to", "", "Target epoch to advance to (required)")
	wsMergeCmd.Flags().Bool("plan", false, "Compute and print the merge plan without committing it")
	wsMergeCmd.Flags().Bool("destroy", false, "Destroy every source workspace after a successful merge")
}

// workdirFor returns where a workspace's working tree lives: <root>/<name>.
// A real deployment would let callers pick an arbitrary path; this CLI
// keeps the mapping fixed so every subcommand can recover it from just
// the workspace name (spec.md §6 gives no workdir-naming rule of its own).
func workdirFor(root, name string) string {
	return filepath.Join(root, name)
}

// fileIDMapPath returns the canonical path→FileId mapping file (spec.md
// §6's `.{reserved}/fileids`).
func fileIDMapPath(root string) string {
	return filepath.Join(root, "."+artifact.ReservedDir, "fileids")
}

func rootFlag(cmd *cobra.Command) string {
	root, _ := cmd.Root().PersistentFlags().GetString("root")
	return root
}

// currentEpoch reads epoch/current, failing with a "maw has no epoch
// yet" hint if the repository has never been seeded (see wsCreateCmd's
// --epoch flag for how a repository's very first epoch gets created).
func currentEpoch(ctx context.Context, store objectstore.Store) (mawtypes.EpochId, error) {
	oid, ok, err := store.ReadRefOpt(ctx, refs.EpochRef)
	if err != nil {
		return mawtypes.ObjId{}, err
	}
	if !ok {
		return mawtypes.ObjId{}, apperr.NotFound(
			"create the first epoch with 'maw ws create <name> --epoch <oid>'",
			"epoch/current is not set",
		)
	}
	return oid, nil
}

var wsCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a new workspace",
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

		epochFlag, _ := cmd.Flags().GetString("epoch")
		var epoch mawtypes.EpochId
		if epochFlag != "" {
			epoch, err = mawtypes.ParseObjId(epochFlag)
			if err != nil {
				return err
			}
		} else {
			epoch, err = currentEpoch(ctx, store)
			if err != nil {
				return err
			}
		}

		dir := workdirFor(root, ws.String())
		head, err := workspace.Create(ctx, store, ws, epoch, dir, time.Now().UTC())
		if err != nil {
			return err
		}

		fmt.Printf("created workspace %s at epoch %s (head %s)\n", ws, epoch, head)
		return nil
	},
}

var wsDestroyCmd = &cobra.Command{
	Use:   "destroy <name>",
	Short: "Tear a workspace down, pinning its state for recovery",
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

		baseEpoch, err := store.ReadRef(ctx, refs.WorkspaceEpochRef(ws))
		if err != nil {
			return err
		}
		head, err := store.ReadRef(ctx, oplog.HeadRef(ws))
		if err != nil {
			return err
		}

		reason := artifact.DestroyReasonDestroy
		if mergeDestroy, _ := cmd.Flags().GetBool("merge-destroy"); mergeDestroy {
			reason = artifact.DestroyReasonMergeDestroy
		}

		dir := workdirFor(root, ws.String())
		record, err := workspace.Destroy(ctx, store, ws, dir, root, baseEpoch, head, reason, Version, time.Now().UTC())
		if err != nil {
			return err
		}

		fmt.Printf("destroyed workspace %s (capture: %s)\n", ws, record.CaptureMode)
		return nil
	},
}

var wsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List workspaces currently checked out against an epoch",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		store, err := openStore(rootFlag(cmd))
		if err != nil {
			return err
		}
		const prefix = "epoch/ws/"
		entries, err := store.ListRefs(ctx, prefix)
		if err != nil {
			return err
		}
		metrics.WorkspacesTotal.WithLabelValues("active").Set(float64(len(entries)))
		for _, e := range entries {
			name := strings.TrimPrefix(e.Name, prefix)
			fmt.Printf("%s\t%s\n", name, e.Oid)
		}
		return nil
	},
}

// reportFor computes and persists a workspace's change report against
// its base epoch, shared by `ws status`, `ws touched`.
func reportFor(ctx context.Context, store objectstore.Store, root string, ws mawtypes.WorkspaceId) (artifact.WorkspaceReport, error) {
	baseEpoch, err := store.ReadRef(ctx, refs.WorkspaceEpochRef(ws))
	if err != nil {
		return artifact.WorkspaceReport{}, err
	}
	epoch, err := currentEpoch(ctx, store)
	if err != nil {
		return artifact.WorkspaceReport{}, err
	}
	dir := workdirFor(root, ws.String())
	allocPath := fileIDMapPath(root)
	alloc, err := artifact.ReadFileIDMap(allocPath)
	if err != nil {
		return artifact.WorkspaceReport{}, err
	}
	report, err := workspace.Report(ctx, store, root, ws, dir, baseEpoch, epoch, alloc)
	if err != nil {
		return artifact.WorkspaceReport{}, err
	}
	if err := artifact.WriteFileIDMap(allocPath, alloc); err != nil {
		return artifact.WorkspaceReport{}, err
	}
	return report, nil
}

var wsStatusCmd = &cobra.Command{
	Use:   "status <name>",
	Short: "Show a workspace's patch-set against its base epoch",
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
		report, err := reportFor(ctx, store, root, ws)
		if err != nil {
			return err
		}
		stale := ""
		if report.IsStale {
			stale = " (stale: base epoch is behind epoch/current)"
		}
		fmt.Printf("workspace %s: %d patch entries%s\n", ws, report.PatchSet.Len(), stale)
		return nil
	},
}

var wsTouchedCmd = &cobra.Command{
	Use:   "touched <name>",
	Short: "List paths touched by a workspace's uncommitted changes",
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
		report, err := reportFor(ctx, store, root, ws)
		if err != nil {
			return err
		}
		for _, p := range artifact.TouchedPaths(report.PatchSet) {
			fmt.Println(p)
		}
		return nil
	},
}

var wsOverlapCmd = &cobra.Command{
	Use:   "overlap <name>...",
	Short: "Show paths two or more workspaces have both touched",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		root := rootFlag(cmd)
		store, err := openStore(root)
		if err != nil {
			return err
		}
		ids, err := parseWorkspaceIds(args)
		if err != nil {
			return err
		}
		plan, err := merge.Plan(ctx, store, ids, view.StoreReadPatchSet(store), time.Now().UTC())
		if err != nil {
			return err
		}
		if len(plan.Overlaps) == 0 {
			fmt.Println("no overlapping paths")
			return nil
		}
		for _, p := range plan.Overlaps {
			fmt.Println(p)
		}
		return nil
	},
}

var wsSnapshotCmd = &cobra.Command{
	Use:   "snapshot <name>",
	Short: "Diff a workspace against its base epoch and append it to the op log",
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
		baseEpoch, err := store.ReadRef(ctx, refs.WorkspaceEpochRef(ws))
		if err != nil {
			return err
		}
		head, err := store.ReadRef(ctx, oplog.HeadRef(ws))
		if err != nil {
			return err
		}
		dir := workdirFor(root, ws.String())
		allocPath := fileIDMapPath(root)
		alloc, err := artifact.ReadFileIDMap(allocPath)
		if err != nil {
			return err
		}
		result, err := workspace.Snapshot(ctx, store, ws, dir, baseEpoch, alloc, head, time.Now().UTC())
		if err != nil {
			return err
		}
		if err := artifact.WriteFileIDMap(allocPath, alloc); err != nil {
			return err
		}
		if !result.Changed {
			fmt.Println("no changes to snapshot")
			return nil
		}

		cfg, err := loadConfig(cmd, root)
		if err != nil {
			return err
		}
		newHead := result.NewHead
		v, err := view.MaterializeFromCheckpoint(ctx, store, ws, view.StoreReadPatchSet(store))
		if err != nil {
			return err
		}
		cpOid, err := view.MaybeWriteCheckpoint(ctx, store, v, newHead, newHead, cfg.CheckpointInterval, time.Now().UTC())
		if err != nil {
			return err
		}
		if !cpOid.IsZero() {
			newHead = cpOid
		}

		fmt.Printf("snapshotted %d patch entries, new head %s\n", result.PatchSet.Len(), newHead)
		return nil
	},
}

// rewriteTo runs Rewrite against an explicit target epoch, shared by
// `ws sync` (target = epoch/current) and `ws advance --to` (target =
// caller-supplied).
func rewriteTo(cmd *cobra.Command, name string, target mawtypes.EpochId) error {
	ctx := context.Background()
	root := rootFlag(cmd)
	store, err := openStore(root)
	if err != nil {
		return err
	}
	ws, err := mawtypes.NewWorkspaceId(name)
	if err != nil {
		return err
	}
	baseEpoch, err := store.ReadRef(ctx, refs.WorkspaceEpochRef(ws))
	if err != nil {
		return err
	}
	dir := workdirFor(root, ws.String())
	result, err := workspace.Rewrite(ctx, store, ws, dir, baseEpoch, target, time.Now().UTC())
	if err != nil {
		return err
	}

	tx := refs.NewTx().Set(refs.WorkspaceEpochRef(ws), baseEpoch, target)
	if err := tx.Commit(ctx, store); err != nil {
		return err
	}
	if err := artifact.WriteEpochPointer(dir, target); err != nil {
		return err
	}

	if result.FastPath {
		fmt.Printf("workspace %s fast-forwarded to epoch %s\n", ws, target)
	} else {
		fmt.Printf("workspace %s rewritten to epoch %s (pin: %s)\n", ws, target, result.PinRef)
	}
	return nil
}

var wsSyncCmd = &cobra.Command{
	Use:   "sync <name>",
	Short: "Rewrite a workspace onto the current epoch, replaying local edits",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		store, err := openStore(rootFlag(cmd))
		if err != nil {
			return err
		}
		target, err := currentEpoch(ctx, store)
		if err != nil {
			return err
		}
		return rewriteTo(cmd, args[0], target)
	},
}

var wsAdvanceCmd = &cobra.Command{
	Use:   "advance <name>",
	Short: "Rewrite a workspace onto an explicit epoch, replaying local edits",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		to, _ := cmd.Flags().GetString("to")
		if to == "" {
			return apperr.Validation("pass the epoch oid with --to", "advance requires --to")
		}
		target, err := mawtypes.ParseObjId(to)
		if err != nil {
			return err
		}
		return rewriteTo(cmd, args[0], target)
	},
}

func parseWorkspaceIds(args []string) ([]mawtypes.WorkspaceId, error) {
	ids := make([]mawtypes.WorkspaceId, 0, len(args))
	for _, a := range args {
		id, err := mawtypes.NewWorkspaceId(a)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// applyConfigToPlanDoc matches doc's touched paths against cfg's
// configured drivers and copies over the validation policy, filling in
// the two fields NewMergePlanDoc leaves nil (see that function's doc
// comment).
func applyConfigToPlanDoc(doc *artifact.MergePlanDoc, cfg config.Config) {
	for _, path := range doc.TouchedPaths {
		for _, d := range cfg.Drivers {
			matched, err := filepath.Match(d.PathGlob, path.String())
			if err != nil || !matched {
				continue
			}
			doc.Drivers = append(doc.Drivers, artifact.DriverEntry{Path: path, Kind: d.Kind, Command: d.Command})
			break
		}
	}
	if cfg.Validation != nil {
		doc.Validation = &artifact.ValidationPolicy{
			Commands:       cfg.Validation.Commands,
			TimeoutSeconds: cfg.Validation.TimeoutSeconds,
			Policy:         cfg.Validation.Policy,
		}
	}
}

var wsMergeCmd = &cobra.Command{
	Use:   "merge <name>...",
	Short: "Join two or more workspaces' patch-sets back into the mainline",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		root := rootFlag(cmd)
		store, err := openStore(root)
		if err != nil {
			return err
		}
		ids, err := parseWorkspaceIds(args)
		if err != nil {
			return err
		}
		readPatchSet := view.StoreReadPatchSet(store)
		now := time.Now().UTC()

		plan, _ := cmd.Flags().GetBool("plan")
		if plan {
			p, err := merge.Plan(ctx, store, ids, readPatchSet, now)
			if err != nil {
				return err
			}
			cfg, err := loadConfig(cmd, root)
			if err != nil {
				return err
			}
			doc := artifact.NewMergePlanDoc(p)
			applyConfigToPlanDoc(&doc, cfg)
			if err := artifact.WriteMergePlan(root, doc); err != nil {
				return err
			}
			fmt.Printf("merge plan %s: %d touched path(s), %d overlapping, %d predicted conflict(s)\n",
				p.MergeId, len(p.TouchedPaths), len(p.Overlaps), len(p.PredictedConflicts))
			return nil
		}

		result, err := merge.Merge(ctx, store, ids, readPatchSet, now, "")
		if err != nil {
			if len(result.Conflicts) > 0 {
				fmt.Printf("merge blocked by %d conflict(s):\n", len(result.Conflicts))
				for _, c := range result.Conflicts {
					fmt.Printf("  %s: %s\n", c.Path, c.Kind)
				}
			}
			return err
		}
		fmt.Printf("merged %s into new epoch commit %s\n", args, result.CommitOid)

		destroy, _ := cmd.Flags().GetBool("destroy")
		if destroy {
			for _, ws := range ids {
				dir := workdirFor(root, ws.String())
				baseEpoch, err := store.ReadRef(ctx, refs.WorkspaceEpochRef(ws))
				if err != nil {
					return err
				}
				head, err := store.ReadRef(ctx, oplog.HeadRef(ws))
				if err != nil {
					return err
				}
				if _, err := workspace.Destroy(ctx, store, ws, dir, root, baseEpoch, head, artifact.DestroyReasonMergeDestroy, Version, now); err != nil {
					return err
				}
				fmt.Printf("destroyed source workspace %s\n", ws)
			}
		}
		return nil
	},
}
