package merge

import (
	"context"
	"time"

	"github.com/cuemby/maw/pkg/mawtypes"
	"github.com/cuemby/maw/pkg/objectstore"
	"github.com/cuemby/maw/pkg/oplog"
	"github.com/cuemby/maw/pkg/ordering"
	"github.com/cuemby/maw/pkg/patch"
	"github.com/cuemby/maw/pkg/view"
)

// CollectedWorkspace is one source workspace's contribution to a merge:
// its current head oid, patch-set against the shared epoch, and an
// ordering key used to break ties when two workspaces touch the same
// path.
type CollectedWorkspace struct {
	WorkspaceId mawtypes.WorkspaceId
	Head        mawtypes.ObjId
	PatchSet    patch.PatchSet
	Timestamp   ordering.Key
}

// Collect materializes every source workspace's view, preferring
// checkpoint resume over a full replay, and packages its patch-set, head
// oid, and ordering key for the partition step (spec.md §4.7 Collect).
func Collect(ctx context.Context, store objectstore.Store, workspaceIds []mawtypes.WorkspaceId, readPatchSet view.ReadPatchSet, now time.Time) ([]CollectedWorkspace, error) {
	out := make([]CollectedWorkspace, 0, len(workspaceIds))

	for _, ws := range workspaceIds {
		v, err := view.MaterializeFromCheckpoint(ctx, store, ws, readPatchSet)
		if err != nil {
			v, err = view.Materialize(ctx, store, ws, readPatchSet)
			if err != nil {
				return nil, err
			}
		}

		head, err := store.ReadRef(ctx, oplog.HeadRef(ws))
		if err != nil {
			return nil, err
		}

		ps := patch.PatchSet{Patches: map[mawtypes.Path]patch.PatchValue{}}
		if v.PatchSet != nil {
			ps = *v.PatchSet
		}

		var epoch mawtypes.EpochId
		if v.Epoch != nil {
			epoch = *v.Epoch
		}
		ts := ordering.NewKey(epoch, ws, uint64(v.OpCount), now)

		out = append(out, CollectedWorkspace{
			WorkspaceId: ws,
			Head:        head,
			PatchSet:    ps,
			Timestamp:   ts,
		})
	}

	return out, nil
}
