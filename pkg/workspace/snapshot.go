package workspace

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cuemby/maw/pkg/artifact"
	"github.com/cuemby/maw/pkg/mawtypes"
	"github.com/cuemby/maw/pkg/objectstore"
	"github.com/cuemby/maw/pkg/oplog"
	"github.com/cuemby/maw/pkg/patch"
)

// SnapshotResult reports what Snapshot did: the patch-set it computed, and
// whether it was non-empty (and thus appended an op advancing head).
type SnapshotResult struct {
	PatchSet patch.PatchSet
	Changed  bool
	NewHead  mawtypes.ObjId
}

// Snapshot runs the workspace-diff algorithm (spec.md §4.9) against
// baseEpoch and, if the result is non-empty, serializes it as a blob and
// appends a Snapshot op to head, CAS-advancing from currentHead.
func Snapshot(ctx context.Context, store objectstore.Store, ws mawtypes.WorkspaceId, workdir string, baseEpoch mawtypes.EpochId, allocator mawtypes.FileIDAllocator, currentHead mawtypes.ObjId, now time.Time) (SnapshotResult, error) {
	ps, err := patch.Diff(ctx, store, workdir, baseEpoch, allocator)
	if err != nil {
		return SnapshotResult{}, err
	}
	if ps.Len() == 0 {
		return SnapshotResult{PatchSet: ps, Changed: false, NewHead: currentHead}, nil
	}

	data, err := json.Marshal(ps)
	if err != nil {
		return SnapshotResult{}, err
	}
	psOid, err := store.WriteBlob(ctx, data)
	if err != nil {
		return SnapshotResult{}, err
	}

	op := oplog.NewOperation([]mawtypes.ObjId{currentHead}, ws, now, oplog.Snapshot(psOid))
	newHead, err := oplog.AppendOperation(ctx, store, op, currentHead)
	if err != nil {
		return SnapshotResult{}, err
	}
	return SnapshotResult{PatchSet: ps, Changed: true, NewHead: newHead}, nil
}

// Report computes the workspace's current patch-set against baseEpoch and
// persists it as the workspace's change report (spec.md §6
// artifacts/ws/<ws>/report.json), independent of whether Snapshot is also
// called — `ws status`/`ws touched` read this without mutating the op log.
// currentEpoch is the mainline's current epoch/current value; it may differ
// from baseEpoch when the workspace has not yet synced, which is what
// marks the report stale.
func Report(ctx context.Context, store objectstore.Store, root string, ws mawtypes.WorkspaceId, workdir string, baseEpoch, currentEpoch mawtypes.EpochId, allocator mawtypes.FileIDAllocator) (artifact.WorkspaceReport, error) {
	ps, err := patch.Diff(ctx, store, workdir, baseEpoch, allocator)
	if err != nil {
		return artifact.WorkspaceReport{}, err
	}
	report := artifact.NewWorkspaceReport(ws, currentEpoch, ps)
	if err := artifact.WriteWorkspaceReport(root, report); err != nil {
		return artifact.WorkspaceReport{}, err
	}
	return report, nil
}
