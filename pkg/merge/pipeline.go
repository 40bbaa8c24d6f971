package merge

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/cuemby/maw/pkg/apperr"
	"github.com/cuemby/maw/pkg/conflict"
	"github.com/cuemby/maw/pkg/mawtypes"
	"github.com/cuemby/maw/pkg/metrics"
	"github.com/cuemby/maw/pkg/mlog"
	"github.com/cuemby/maw/pkg/objectstore"
	"github.com/cuemby/maw/pkg/view"
)

// Result is the outcome of a full Merge run. CommitOid is the zero ObjId
// when Conflicts is non-empty: Merge refuses to commit or move any ref
// while unresolved conflicts remain (spec.md §8 scenario 3).
type Result struct {
	CommitOid mawtypes.ObjId
	Conflicts []conflict.Conflict
}

// Merge runs the full pipeline (spec.md §4.7): collect, partition by
// path, rename-aware rewriting, resolve, and — only if every shared path
// resolved cleanly — build and commit. If Resolve reports any conflicts,
// Merge returns them in Result.Conflicts alongside an
// *apperr.Error of KindMergeConflict and performs no Build or Commit: no
// ref moves and no merge commit is created (spec.md §8 scenario 3). The
// caller decides what happens next (abort, quarantine, prompt for manual
// resolution, retry with fewer sources).
func Merge(ctx context.Context, store objectstore.Store, workspaceIds []mawtypes.WorkspaceId, readPatchSet view.ReadPatchSet, now time.Time, message string) (Result, error) {
	if len(workspaceIds) == 0 {
		return Result{}, fmt.Errorf("merge: no source workspaces given")
	}

	stage := metrics.NewTimer()
	collected, err := Collect(ctx, store, workspaceIds, readPatchSet, now)
	stage.ObserveDurationVec(metrics.MergeDuration, "collect")
	if err != nil {
		return Result{}, err
	}

	epoch, err := commonEpoch(collected)
	if err != nil {
		return Result{}, err
	}
	logger := mlog.WithEpoch(epoch.String())
	logger.Debug().Int("sources", len(workspaceIds)).Msg("merge: collected sources")

	stage = metrics.NewTimer()
	partition := PartitionByPath(collected)
	aware := ApplyRenameAwareness(partition)
	stage.ObserveDurationVec(metrics.MergeDuration, "partition")
	logger.Debug().Int("touched_paths", aware.Partition.TotalPathCount()).Msg("merge: partitioned and rename-reconciled")

	baseCommit, err := store.ReadCommit(ctx, epoch)
	if err != nil {
		return Result{}, err
	}

	stage = metrics.NewTimer()
	resolved, err := Resolve(ctx, store, baseCommit.Tree, aware)
	stage.ObserveDurationVec(metrics.MergeDuration, "resolve")
	if err != nil {
		return Result{}, err
	}

	if len(resolved.Conflicts) > 0 {
		for _, c := range resolved.Conflicts {
			metrics.MergeConflictsTotal.WithLabelValues(string(c.Kind)).Inc()
		}
		metrics.MergesTotal.WithLabelValues("conflict").Inc()
		logger.Warn().Int("conflicts", len(resolved.Conflicts)).Msg("merge: resolve reported conflicts, refusing to commit")
		return Result{Conflicts: resolved.Conflicts}, apperr.MergeConflict(len(resolved.Conflicts))
	}
	logger.Debug().Msg("merge: resolve clean")

	if message == "" {
		message = defaultMergeMessage(workspaceIds)
	}

	stage = metrics.NewTimer()
	commitOid, err := Build(ctx, store, baseCommit.Tree, resolved.Changes, []mawtypes.ObjId{epoch}, message)
	stage.ObserveDurationVec(metrics.MergeDuration, "build")
	if err != nil {
		return Result{}, err
	}

	stage = metrics.NewTimer()
	err = CommitMerge(ctx, store, collected, epoch, commitOid, now)
	stage.ObserveDurationVec(metrics.MergeDuration, "commit")
	if err != nil {
		var casErr *objectstore.RefConflictError
		if errors.As(err, &casErr) {
			metrics.MergesTotal.WithLabelValues("cas_retry").Inc()
			logger.Warn().Str("commit", commitOid.String()).Msg("merge: epoch ref moved during commit, CAS retry required")
		}
		return Result{}, err
	}

	metrics.MergesTotal.WithLabelValues("committed").Inc()
	logger.Info().Str("commit", commitOid.String()).Msg("merge: committed")
	return Result{CommitOid: commitOid}, nil
}

// Plan runs Collect, Partition, and Rename-aware rewriting plus Resolve,
// stopping short of Build and Commit, for merge preview mode (spec.md
// §4.7 preview mode).
func Plan(ctx context.Context, store objectstore.Store, workspaceIds []mawtypes.WorkspaceId, readPatchSet view.ReadPatchSet, now time.Time) (MergePlan, error) {
	if len(workspaceIds) == 0 {
		return MergePlan{}, fmt.Errorf("merge: no source workspaces given")
	}

	collected, err := Collect(ctx, store, workspaceIds, readPatchSet, now)
	if err != nil {
		return MergePlan{}, err
	}

	epoch, err := commonEpoch(collected)
	if err != nil {
		return MergePlan{}, err
	}

	partition := PartitionByPath(collected)
	aware := ApplyRenameAwareness(partition)

	baseCommit, err := store.ReadCommit(ctx, epoch)
	if err != nil {
		return MergePlan{}, err
	}

	resolved, err := Resolve(ctx, store, baseCommit.Tree, aware)
	if err != nil {
		return MergePlan{}, err
	}

	return ComputePlan(epoch, collected, aware, resolved), nil
}

func commonEpoch(collected []CollectedWorkspace) (mawtypes.EpochId, error) {
	var epoch mawtypes.EpochId
	var set bool
	for _, c := range collected {
		if c.PatchSet.BaseEpoch.IsZero() {
			continue
		}
		if !set {
			epoch, set = c.PatchSet.BaseEpoch, true
			continue
		}
		if epoch != c.PatchSet.BaseEpoch {
			return mawtypes.EpochId{}, fmt.Errorf("merge: source workspaces disagree on base epoch")
		}
	}
	if !set {
		return mawtypes.EpochId{}, fmt.Errorf("merge: no source workspace has an epoch yet")
	}
	return epoch, nil
}

func defaultMergeMessage(workspaceIds []mawtypes.WorkspaceId) string {
	names := make([]string, len(workspaceIds))
	for i, ws := range workspaceIds {
		names[i] = ws.String()
	}
	sort.Strings(names)
	return "epoch: merge " + strings.Join(names, " ")
}
