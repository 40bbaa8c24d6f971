package workspace

import (
	"context"
	"time"

	"github.com/cuemby/maw/pkg/artifact"
	"github.com/cuemby/maw/pkg/mawtypes"
	"github.com/cuemby/maw/pkg/objectstore"
	"github.com/cuemby/maw/pkg/refs"
)

// pin is the result of capturing a recovery point for a workspace: a
// commit the workspace can always be restored to, plus the ref that
// points at it and which capture mode produced it (spec.md §4.11).
type pin struct {
	Ref    string
	Commit mawtypes.ObjId
	Mode   artifact.CaptureMode
}

// capture writes a recovery/<ws>/<timestamp> ref pointing at baseEpoch (a
// clean workspace's content is already exactly that commit) or at a fresh
// Stash commit (a dirty one), before any tracked file is touched — the
// shared first move of both safe rewrite (§4.10 step 2) and destroy
// (§4.11).
func capture(ctx context.Context, store objectstore.Store, ws mawtypes.WorkspaceId, workdir string, baseEpoch mawtypes.EpochId, now time.Time) (pin, error) {
	commit, err := store.ReadCommit(ctx, baseEpoch)
	if err != nil {
		return pin{}, err
	}
	dirty, err := store.IsDirty(ctx, workdir, commit.Tree)
	if err != nil {
		return pin{}, err
	}

	p := pin{Mode: artifact.CaptureHeadOnly, Commit: baseEpoch}
	if dirty {
		snapOid, err := store.Stash(ctx, workdir, commit.Tree, "maw: recovery pin for "+ws.String())
		if err != nil {
			return pin{}, err
		}
		p.Mode = artifact.CaptureDirtySnapshot
		p.Commit = snapOid
	}

	p.Ref = refs.RecoveryRef(ws, refs.FormatTimestamp(now))
	tx := refs.NewTx().Set(p.Ref, mawtypes.ZeroOID, p.Commit)
	if err := tx.Commit(ctx, store); err != nil {
		return pin{}, err
	}
	return p, nil
}
