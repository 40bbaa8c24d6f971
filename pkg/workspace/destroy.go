package workspace

import (
	"context"
	"os"
	"time"

	"github.com/cuemby/maw/pkg/artifact"
	"github.com/cuemby/maw/pkg/mawtypes"
	"github.com/cuemby/maw/pkg/metrics"
	"github.com/cuemby/maw/pkg/mlog"
	"github.com/cuemby/maw/pkg/objectstore"
	"github.com/cuemby/maw/pkg/oplog"
	"github.com/cuemby/maw/pkg/refs"
)

// Destroy tears a workspace down (spec.md §4.10): it pins the
// workspace's current state (clean: at base_epoch; dirty: at a fresh
// stash commit), writes a JSON destroy record naming the pin, then
// deletes the workspace's refs and working directory. head is the
// workspace's current op-log head, recorded in the destroy record for
// audit purposes. toolVersion is the caller's build version, also
// recorded.
func Destroy(ctx context.Context, store objectstore.Store, ws mawtypes.WorkspaceId, workdir string, root string, baseEpoch mawtypes.EpochId, head mawtypes.ObjId, reason artifact.DestroyReason, toolVersion string, now time.Time) (artifact.DestroyRecord, error) {
	baseCommit, err := store.ReadCommit(ctx, baseEpoch)
	if err != nil {
		return artifact.DestroyRecord{}, err
	}

	var dirtyFiles []mawtypes.Path
	if status, statusErr := store.Status(ctx, workdir, baseCommit.Tree); statusErr == nil {
		for _, c := range status.Changed {
			dirtyFiles = append(dirtyFiles, c.Path)
		}
		dirtyFiles = append(dirtyFiles, status.Untracked...)
	}

	p, err := capture(ctx, store, ws, workdir, baseEpoch, now)
	if err != nil {
		return artifact.DestroyRecord{}, err
	}

	record := artifact.DestroyRecord{
		WorkspaceId:   ws,
		DestroyedAt:   now,
		FinalHead:     head,
		FinalHeadRef:  refs.HeadRef(ws),
		CaptureMode:   p.Mode,
		DirtyFiles:    dirtyFiles,
		BaseEpoch:     baseEpoch,
		DestroyReason: reason,
		ToolVersion:   toolVersion,
	}
	if p.Mode == artifact.CaptureDirtySnapshot {
		snap := p.Commit
		record.SnapshotOid = &snap
		record.SnapshotRef = p.Ref
	}

	if _, err := artifact.WriteDestroyRecord(root, record, refs.FormatTimestamp(now)); err != nil {
		return artifact.DestroyRecord{}, err
	}

	tx := refs.NewTx().
		Delete(refs.HeadRef(ws), head).
		Delete(refs.WorkspaceEpochRef(ws), baseEpoch)
	if err := tx.Commit(ctx, store); err != nil {
		return artifact.DestroyRecord{}, err
	}

	if err := os.RemoveAll(workdir); err != nil {
		return artifact.DestroyRecord{}, &objectstore.IoError{Cause: err}
	}
	if err := artifact.DeleteWorkspaceMetadata(root, ws.String()); err != nil {
		return artifact.DestroyRecord{}, err
	}

	metrics.DestroysTotal.WithLabelValues(string(p.Mode)).Inc()
	logger := mlog.WithWorkspace(ws.String())
	if len(dirtyFiles) > 0 {
		logger.Warn().Str("capture_mode", string(p.Mode)).Int("dirty_files", len(dirtyFiles)).
			Str("reason", string(reason)).Msg("destroyed workspace with uncommitted changes, pinned for recovery")
	} else {
		logger.Info().Str("capture_mode", string(p.Mode)).Str("reason", string(reason)).Msg("destroyed workspace")
	}
	return record, nil
}

// Recover restores a destroyed workspace from its latest destroy record
// and recovery pin (spec.md §4.11): it recreates workdir at the pinned
// commit, re-seeds the workspace's creation-epoch ref from the record's
// base_epoch, and re-appends a Create op to a fresh head.
func Recover(ctx context.Context, store objectstore.Store, ws mawtypes.WorkspaceId, workdir string, root string, now time.Time) (mawtypes.ObjId, artifact.DestroyRecord, error) {
	record, err := artifact.ReadLatestDestroyRecord(root, ws.String())
	if err != nil {
		return mawtypes.ObjId{}, artifact.DestroyRecord{}, err
	}

	// FinalHead is the op-log head at destroy time, recorded for audit —
	// it names an operation blob, not a checkout-able tree/commit. The
	// recovery pin is base_epoch for a clean (head_only) capture, since a
	// clean workspace's content is exactly that commit, or the stashed
	// snapshot commit for a dirty one.
	pinned := record.BaseEpoch
	if record.CaptureMode == artifact.CaptureDirtySnapshot && record.SnapshotOid != nil {
		pinned = *record.SnapshotOid
	}

	if err := os.MkdirAll(workdir, 0o755); err != nil {
		return mawtypes.ObjId{}, artifact.DestroyRecord{}, &objectstore.IoError{Cause: err}
	}
	if err := store.CheckoutTree(ctx, pinned, workdir); err != nil {
		return mawtypes.ObjId{}, artifact.DestroyRecord{}, err
	}

	tx := refs.NewTx().Set(refs.WorkspaceEpochRef(ws), mawtypes.ZeroOID, record.BaseEpoch)
	if err := tx.Commit(ctx, store); err != nil {
		return mawtypes.ObjId{}, artifact.DestroyRecord{}, err
	}
	if err := artifact.WriteEpochPointer(workdir, record.BaseEpoch); err != nil {
		return mawtypes.ObjId{}, artifact.DestroyRecord{}, err
	}

	root2 := oplog.NewOperation(nil, ws, now, oplog.Create(record.BaseEpoch))
	newHead, err := oplog.AppendOperation(ctx, store, root2, mawtypes.ZeroOID)
	if err != nil {
		return mawtypes.ObjId{}, artifact.DestroyRecord{}, err
	}
	metrics.RecoveriesTotal.Inc()
	return newHead, record, nil
}
