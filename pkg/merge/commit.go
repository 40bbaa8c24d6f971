package merge

import (
	"context"
	"time"

	"github.com/cuemby/maw/pkg/mawtypes"
	"github.com/cuemby/maw/pkg/objectstore"
	"github.com/cuemby/maw/pkg/oplog"
)

// EpochRef is the reserved ref name for the shared epoch pointer
// (spec.md §3 ref namespace). pkg/refs defines the same name as
// refs.EpochRef; merge keeps its own copy rather than importing pkg/refs.
const EpochRef = "epoch/current"

// CommitMerge atomically advances the epoch ref from epochBefore to
// epochAfter and appends a Merge operation to every participating
// workspace's head, as one ref transaction: either every ref moves or
// none does (spec.md §4.7 Commit).
func CommitMerge(ctx context.Context, store objectstore.Store, sources []CollectedWorkspace, epochBefore, epochAfter mawtypes.EpochId, now time.Time) error {
	workspaceIds := make([]mawtypes.WorkspaceId, len(sources))
	for i, s := range sources {
		workspaceIds[i] = s.WorkspaceId
	}

	edits := []objectstore.RefEdit{
		{Name: EpochRef, NewOid: epochAfter, ExpectedOldOid: epochBefore},
	}

	for _, s := range sources {
		var parents []mawtypes.ObjId
		if !s.Head.IsZero() {
			parents = []mawtypes.ObjId{s.Head}
		}
		op := oplog.NewOperation(parents, s.WorkspaceId, now, oplog.Merge(workspaceIds, epochBefore, epochAfter))
		oid, err := oplog.WriteOperationBlob(ctx, store, op)
		if err != nil {
			return err
		}
		edits = append(edits, objectstore.RefEdit{
			Name:           oplog.HeadRef(s.WorkspaceId),
			NewOid:         oid,
			ExpectedOldOid: s.Head,
		})
	}

	return store.AtomicRefUpdate(ctx, edits)
}
