package workspace

import (
	"context"
	"time"

	"github.com/cuemby/maw/pkg/artifact"
	"github.com/cuemby/maw/pkg/mawtypes"
	"github.com/cuemby/maw/pkg/objectstore"
	"github.com/cuemby/maw/pkg/oplog"
	"github.com/cuemby/maw/pkg/refs"
)

// Create materializes epoch's tree into workdir, seeds the workspace's
// creation-epoch ref and base-epoch pointer file, and appends the root
// Create op to a fresh head/<ws> (spec.md §4.10). workdir must not already
// hold a live workspace; Create does not check this — the caller owns
// workspace-directory allocation.
func Create(ctx context.Context, store objectstore.Store, ws mawtypes.WorkspaceId, epoch mawtypes.EpochId, workdir string, now time.Time) (mawtypes.ObjId, error) {
	if err := store.CheckoutTree(ctx, epoch, workdir); err != nil {
		return mawtypes.ObjId{}, err
	}

	tx := refs.NewTx().Set(refs.WorkspaceEpochRef(ws), mawtypes.ZeroOID, epoch)
	if err := tx.Commit(ctx, store); err != nil {
		return mawtypes.ObjId{}, err
	}

	if err := artifact.WriteEpochPointer(workdir, epoch); err != nil {
		return mawtypes.ObjId{}, err
	}

	root := oplog.NewOperation(nil, ws, now, oplog.Create(epoch))
	return oplog.AppendOperation(ctx, store, root, mawtypes.ZeroOID)
}
