package oplog

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/cuemby/maw/pkg/apperr"
	"github.com/cuemby/maw/pkg/mawtypes"
	"github.com/cuemby/maw/pkg/metrics"
	"github.com/cuemby/maw/pkg/mlog"
	"github.com/cuemby/maw/pkg/objectstore"
)

// AppendOperation writes op as a blob and CAS-advances the workspace's
// head ref from expectedHead to the new blob's oid (spec.md §4.3). Pass
// mawtypes.ZeroOID as expectedHead for the first operation (the root
// Create).
//
// On a concurrent writer having already moved the head, this returns an
// *apperr.Error of KindCasMismatch naming the ref's actual current value
// so the caller can re-read and retry.
func AppendOperation(ctx context.Context, store objectstore.Store, op Operation, expectedHead mawtypes.ObjId) (mawtypes.ObjId, error) {
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.OpLogAppendDuration)

	oid, err := WriteOperationBlob(ctx, store, op)
	if err != nil {
		return mawtypes.ObjId{}, err
	}

	ref := headRef(op.WorkspaceId)
	edit := objectstore.RefEdit{Name: ref, NewOid: oid, ExpectedOldOid: expectedHead}
	if err := store.AtomicRefUpdate(ctx, []objectstore.RefEdit{edit}); err != nil {
		var conflict *objectstore.RefConflictError
		if errors.As(err, &conflict) {
			metrics.CasRetriesTotal.WithLabelValues(ref).Inc()
			actual, _, readErr := store.ReadRefOpt(ctx, ref)
			actualStr := "unknown"
			if readErr == nil {
				actualStr = actual.String()
			}
			mlog.WithWorkspace(op.WorkspaceId.String()).Warn().
				Str("ref", ref).Str("expected", expectedHead.String()).Str("actual", actualStr).
				Msg("op log head moved out from under us, CAS mismatch")
			return mawtypes.ObjId{}, apperr.CasMismatch(ref, expectedHead.String(), actualStr)
		}
		return mawtypes.ObjId{}, apperr.BackendIo(err, "advance %s", ref)
	}

	metrics.OpLogOpsTotal.WithLabelValues(op.WorkspaceId.String(), string(op.Payload.Kind)).Inc()
	return oid, nil
}

// WriteOperationBlob serializes op canonically and writes it as a blob,
// without touching any ref. Exposed for callers that build a chain of
// blobs before committing a single ref update at the end (pkg/view's
// compaction re-threads an entire post-checkpoint suffix this way).
func WriteOperationBlob(ctx context.Context, store objectstore.Store, op Operation) (mawtypes.ObjId, error) {
	data, err := json.Marshal(op)
	if err != nil {
		return mawtypes.ObjId{}, apperr.Validation("check the operation's fields serialize cleanly", "marshal operation: %v", err)
	}
	oid, err := store.WriteBlob(ctx, data)
	if err != nil {
		return mawtypes.ObjId{}, apperr.BackendIo(err, "write operation blob for workspace %q", op.WorkspaceId)
	}
	return oid, nil
}
