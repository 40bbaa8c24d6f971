package view

import (
	"context"
	"fmt"
	"sort"

	"github.com/cuemby/maw/pkg/mawtypes"
	"github.com/cuemby/maw/pkg/metrics"
	"github.com/cuemby/maw/pkg/objectstore"
	"github.com/cuemby/maw/pkg/patch"
)

// WorkspaceSnapshot is one workspace's contribution to a GlobalView.
type WorkspaceSnapshot struct {
	Epoch       *mawtypes.EpochId `json:"epoch,omitempty"`
	HasChanges  bool              `json:"has_changes"`
	PatchCount  int               `json:"patch_count"`
	Description *string           `json:"description,omitempty"`
	OpCount     int               `json:"op_count"`
}

func snapshotFromView(v MaterializedView) WorkspaceSnapshot {
	s := WorkspaceSnapshot{
		Epoch:       v.Epoch,
		HasChanges:  v.HasChanges(),
		Description: v.Description,
		OpCount:     v.OpCount,
	}
	if v.PatchSet != nil {
		s.PatchCount = v.PatchSet.Len()
	}
	return s
}

// CacheKeyEntry pairs a workspace id with its patch-set oid (or "empty"),
// one element of GlobalView's cache key (spec.md §4.6).
type CacheKeyEntry struct {
	WorkspaceId string `json:"workspace_id"`
	PatchSetOid string `json:"patch_set_oid"`
}

// GlobalView merges every non-destroyed workspace's MaterializedView into
// a single read-only picture of the repository, by join-semilattice CRDT
// rules (spec.md §4.6). It is never persisted; recompute it whenever
// CacheValid reports staleness.
type GlobalView struct {
	// Epoch is the lexicographic max of every workspace's epoch. Nil
	// only when no workspace has an epoch yet.
	Epoch *mawtypes.EpochId `json:"epoch,omitempty"`

	WorkspaceViews map[string]WorkspaceSnapshot `json:"workspace_views"`

	// MergedPatchSet is the pairwise join of every workspace's
	// patch-set. Nil if no workspace has one.
	MergedPatchSet *patch.PatchSet `json:"merged_patch_set,omitempty"`

	Conflicts []patch.PathConflict `json:"conflicts"`

	TotalOps int `json:"total_ops"`

	CacheKey []CacheKeyEntry `json:"cache_key"`
}

// IsClean reports whether no workspace patch-sets conflict.
func (g GlobalView) IsClean() bool { return len(g.Conflicts) == 0 }

// WorkspaceCount returns the number of active (non-destroyed) workspaces.
func (g GlobalView) WorkspaceCount() int { return len(g.WorkspaceViews) }

// TotalPatches returns the number of patches in MergedPatchSet, or 0.
func (g GlobalView) TotalPatches() int {
	if g.MergedPatchSet == nil {
		return 0
	}
	return g.MergedPatchSet.Len()
}

// CacheValid reports whether otherKey (freshly computed) still matches
// this view's own cache key — if so, this GlobalView need not be
// recomputed.
func (g GlobalView) CacheValid(otherKey []CacheKeyEntry) bool {
	if len(g.CacheKey) != len(otherKey) {
		return false
	}
	for i := range g.CacheKey {
		if g.CacheKey[i] != otherKey[i] {
			return false
		}
	}
	return true
}

func (g GlobalView) String() string {
	epoch := "no-epoch"
	if g.Epoch != nil {
		e := g.Epoch.String()
		if len(e) > 12 {
			e = e[:12]
		}
		epoch = "epoch=" + e
	}
	return fmt.Sprintf("global_view(%s, %d ws, %d patches, %d conflicts, %d ops)",
		epoch, len(g.WorkspaceViews), g.TotalPatches(), len(g.Conflicts), g.TotalOps)
}

// ComputeGlobalViewFromViews folds a list of already-materialized
// workspace views into a GlobalView (spec.md §4.6 steps 2-4). Destroyed
// workspaces are excluded from every component.
func ComputeGlobalViewFromViews(views []MaterializedView, cacheKey []CacheKeyEntry) GlobalView {
	workspaceViews := make(map[string]WorkspaceSnapshot, len(views))
	var maxEpoch *mawtypes.EpochId
	totalOps := 0
	var patchSets []*patch.PatchSet

	for _, v := range views {
		if v.IsDestroyed {
			continue
		}
		totalOps += v.OpCount

		if v.Epoch != nil {
			if maxEpoch == nil || maxEpoch.Less(*v.Epoch) {
				e := *v.Epoch
				maxEpoch = &e
			}
		}

		workspaceViews[v.WorkspaceId.String()] = snapshotFromView(v)

		if v.PatchSet != nil {
			ps := *v.PatchSet
			patchSets = append(patchSets, &ps)
		}
	}

	merged, conflicts := mergePatchSets(patchSets)

	return GlobalView{
		Epoch:          maxEpoch,
		WorkspaceViews: workspaceViews,
		MergedPatchSet: merged,
		Conflicts:      conflicts,
		TotalOps:       totalOps,
		CacheKey:       cacheKey,
	}
}

func mergePatchSets(sets []*patch.PatchSet) (*patch.PatchSet, []patch.PathConflict) {
	if len(sets) == 0 {
		return nil, nil
	}
	accumulated := *sets[0]
	var conflicts []patch.PathConflict

	for _, s := range sets[1:] {
		result, err := patch.Join(accumulated, *s)
		if err != nil {
			// Epoch mismatch: workspaces should share a base epoch in
			// normal operation. Keep the accumulated result so far
			// rather than failing the whole fold.
			continue
		}
		accumulated = result.Merged
		conflicts = append(conflicts, result.Conflicts...)
	}

	sort.Slice(conflicts, func(i, j int) bool { return conflicts[i].Path.Less(conflicts[j].Path) })
	conflicts = dedupConflictsByPath(conflicts)

	return &accumulated, conflicts
}

func dedupConflictsByPath(conflicts []patch.PathConflict) []patch.PathConflict {
	if len(conflicts) == 0 {
		return conflicts
	}
	out := conflicts[:1]
	for _, c := range conflicts[1:] {
		if c.Path != out[len(out)-1].Path {
			out = append(out, c)
		}
	}
	return out
}

// ComputeGlobalView is the high-level entry point: materialize every
// given workspace (preferring checkpoint resume) and fold the results
// (spec.md §4.6).
func ComputeGlobalView(ctx context.Context, store objectstore.Store, workspaceIds []mawtypes.WorkspaceId, readPatchSet ReadPatchSet) (GlobalView, error) {
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.GlobalViewComputeDuration)

	views := make([]MaterializedView, 0, len(workspaceIds))
	cacheKey := make([]CacheKeyEntry, 0, len(workspaceIds))

	for _, ws := range workspaceIds {
		v, err := MaterializeFromCheckpoint(ctx, store, ws, readPatchSet)
		if err != nil {
			v, err = Materialize(ctx, store, ws, readPatchSet)
			if err != nil {
				return GlobalView{}, err
			}
		}

		headOid := "empty"
		if v.PatchSetOid != nil {
			headOid = v.PatchSetOid.String()
		}
		cacheKey = append(cacheKey, CacheKeyEntry{WorkspaceId: ws.String(), PatchSetOid: headOid})
		views = append(views, v)
	}

	sort.Slice(cacheKey, func(i, j int) bool {
		if cacheKey[i].WorkspaceId != cacheKey[j].WorkspaceId {
			return cacheKey[i].WorkspaceId < cacheKey[j].WorkspaceId
		}
		return cacheKey[i].PatchSetOid < cacheKey[j].PatchSetOid
	})

	return ComputeGlobalViewFromViews(views, cacheKey), nil
}
