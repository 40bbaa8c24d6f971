package view

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/cuemby/maw/pkg/apperr"
	"github.com/cuemby/maw/pkg/mawtypes"
	"github.com/cuemby/maw/pkg/metrics"
	"github.com/cuemby/maw/pkg/objectstore"
	"github.com/cuemby/maw/pkg/oplog"
)

// DefaultCheckpointInterval is the number of operations between automatic
// checkpoints, overridable via pkg/config.
const DefaultCheckpointInterval = 100

// CheckpointData is the payload of a checkpoint annotation: the full
// materialized view at the point of the checkpoint, plus the oid of the
// operation that triggered it.
type CheckpointData struct {
	View       MaterializedView `json:"view"`
	TriggerOid mawtypes.ObjId   `json:"trigger_oid"`
}

// ShouldCheckpoint reports whether a checkpoint should be written after
// an operation that brought the view's op count to opCount (spec.md
// §4.5): true when opCount is a positive multiple of interval.
func ShouldCheckpoint(opCount, interval int) bool {
	return interval > 0 && opCount > 0 && opCount%interval == 0
}

// ExtractCheckpoint extracts CheckpointData from an Annotate op carrying
// the reserved checkpoint key. Returns false if op is not a checkpoint or
// its data cannot be parsed.
func ExtractCheckpoint(op oplog.Operation) (CheckpointData, bool) {
	if !op.Payload.IsCheckpoint() {
		return CheckpointData{}, false
	}
	raw, err := json.Marshal(op.Payload.Data)
	if err != nil {
		return CheckpointData{}, false
	}
	var data CheckpointData
	if err := json.Unmarshal(raw, &data); err != nil {
		return CheckpointData{}, false
	}
	return data, true
}

// CreateCheckpointOp builds the checkpoint Annotate operation for view,
// parented on parentOid (ordinarily the current head, i.e. triggerOid).
func CreateCheckpointOp(v MaterializedView, triggerOid, parentOid mawtypes.ObjId, now time.Time) oplog.Operation {
	cp := CheckpointData{View: v, TriggerOid: triggerOid}
	raw, err := json.Marshal(cp)
	data := make(map[string]json.RawMessage)
	if err == nil {
		_ = json.Unmarshal(raw, &data)
	}
	return oplog.NewOperation([]mawtypes.ObjId{parentOid}, v.WorkspaceId, now, oplog.Annotate(oplog.CheckpointKey, data))
}

// MaybeWriteCheckpoint writes a checkpoint operation if v's op count has
// just reached a multiple of interval, chaining it onto currentHead.
// Returns the new head oid when a checkpoint was written, or the zero
// value when it was skipped.
func MaybeWriteCheckpoint(ctx context.Context, store objectstore.Store, v MaterializedView, triggerOid, currentHead mawtypes.ObjId, interval int, now time.Time) (mawtypes.ObjId, error) {
	if !ShouldCheckpoint(v.OpCount, interval) {
		return mawtypes.ObjId{}, nil
	}
	op := CreateCheckpointOp(v, triggerOid, currentHead, now)
	oid, err := oplog.AppendOperation(ctx, store, op, currentHead)
	if err != nil {
		return mawtypes.ObjId{}, err
	}
	metrics.CheckpointsTotal.WithLabelValues(v.WorkspaceId.String()).Inc()
	return oid, nil
}

// MaterializeFromCheckpoint materializes ws's view starting from its
// latest checkpoint when one exists, replaying only the operations newer
// than it; this is semantically equivalent to, but cheaper than, full
// replay via Materialize (spec.md §4.5, §8).
func MaterializeFromCheckpoint(ctx context.Context, store objectstore.Store, ws mawtypes.WorkspaceId, readPatchSet ReadPatchSet) (MaterializedView, error) {
	timer := metrics.NewTimer()
	defer timer.ObserveDurationVec(metrics.ReplayDuration, "checkpointed")

	chain, err := oplog.WalkChain(ctx, store, ws, nil)
	if err != nil {
		return MaterializedView{}, err
	}
	if len(chain) == 0 {
		return MaterializedView{}, apperr.NotFound("create the workspace before materializing its view", "no op log head for workspace %q", ws)
	}

	checkpointIdx := -1
	for i, e := range chain {
		if e.Op.Payload.IsCheckpoint() {
			checkpointIdx = i
			break
		}
	}

	if checkpointIdx < 0 {
		return MaterializeFromEntries(ctx, ws, reversed(chain), readPatchSet)
	}

	data, ok := ExtractCheckpoint(chain[checkpointIdx].Op)
	if !ok {
		return MaterializedView{}, apperr.Corrupted(chain[checkpointIdx].Oid.String(), nil)
	}
	v := data.View
	v.OpCount++ // the checkpoint op itself, which its stored view predates

	postCheckpoint := reversed(chain[:checkpointIdx])
	for _, e := range postCheckpoint {
		if e.Op.Payload.IsCheckpoint() {
			v.OpCount++
			continue
		}
		if err := applyOperation(ctx, &v, e.Op, readPatchSet); err != nil {
			return MaterializedView{}, err
		}
	}
	return v, nil
}

// CompactionResult reports what Compact did.
type CompactionResult struct {
	NewHead   mawtypes.ObjId
	OpsBefore int
	OpsAfter  int
}

// Compact rewrites ws's chain to a shorter equivalent anchored at its
// latest checkpoint (spec.md §4.5): a synthetic Create carrying the
// checkpoint's epoch, the checkpoint annotation on top of it, then every
// post-checkpoint operation re-threaded with freshly computed parent
// oids. The head ref is CAS-advanced from the old head to the new one as
// the final step, so a crash mid-compaction leaves the original chain
// intact and reachable. The pre-checkpoint state survives only inside the
// checkpoint annotation: MaterializeFromCheckpoint restores it, while a
// full Materialize of the compacted chain skips that annotation and sees
// just the synthetic Create's epoch plus the re-threaded operations.
func Compact(ctx context.Context, store objectstore.Store, ws mawtypes.WorkspaceId) (CompactionResult, error) {
	chain, err := oplog.WalkChain(ctx, store, ws, nil)
	if err != nil {
		return CompactionResult{}, err
	}
	if len(chain) == 0 {
		return CompactionResult{}, apperr.NotFound("create the workspace before compacting it", "no op log head for workspace %q", ws)
	}
	opsBefore := len(chain)

	checkpointIdx := -1
	for i, e := range chain {
		if e.Op.Payload.IsCheckpoint() {
			checkpointIdx = i
			break
		}
	}
	if checkpointIdx < 0 {
		return CompactionResult{}, apperr.Validation("write a checkpoint before compacting", "no checkpoint found for workspace %q", ws)
	}
	if checkpointIdx >= len(chain)-1 {
		return CompactionResult{NewHead: chain[0].Oid, OpsBefore: opsBefore, OpsAfter: opsBefore}, nil
	}

	cpOp := chain[checkpointIdx].Op
	data, ok := ExtractCheckpoint(cpOp)
	if !ok {
		return CompactionResult{}, apperr.Corrupted(chain[checkpointIdx].Oid.String(), nil)
	}
	if data.View.Epoch == nil {
		return CompactionResult{}, apperr.Corrupted(chain[checkpointIdx].Oid.String(), nil)
	}

	synthetic := oplog.NewOperation(nil, ws, cpOp.Timestamp, oplog.Create(*data.View.Epoch))
	createOid, err := oplog.WriteOperationBlob(ctx, store, synthetic)
	if err != nil {
		return CompactionResult{}, err
	}

	cpRewritten := cpOp
	cpRewritten.ParentIds = []mawtypes.ObjId{createOid}
	cpNewOid, err := oplog.WriteOperationBlob(ctx, store, cpRewritten)
	if err != nil {
		return CompactionResult{}, err
	}

	postOps := reversed(chain[:checkpointIdx])
	prevOid := cpNewOid
	opsAfter := 2
	for _, e := range postOps {
		op := e.Op
		op.ParentIds = []mawtypes.ObjId{prevOid}
		newOid, err := oplog.WriteOperationBlob(ctx, store, op)
		if err != nil {
			return CompactionResult{}, err
		}
		prevOid = newOid
		opsAfter++
	}

	currentHead := chain[0].Oid
	ref := oplog.HeadRef(ws)
	if err := store.AtomicRefUpdate(ctx, []objectstore.RefEdit{{Name: ref, NewOid: prevOid, ExpectedOldOid: currentHead}}); err != nil {
		var conflict *objectstore.RefConflictError
		if errors.As(err, &conflict) {
			actual, _, readErr := store.ReadRefOpt(ctx, ref)
			actualStr := "unknown"
			if readErr == nil {
				actualStr = actual.String()
			}
			return CompactionResult{}, apperr.CasMismatch(ref, currentHead.String(), actualStr)
		}
		return CompactionResult{}, apperr.BackendIo(err, "advance %s", ref)
	}

	metrics.CompactionsTotal.WithLabelValues(ws.String()).Inc()
	return CompactionResult{NewHead: prevOid, OpsBefore: opsBefore, OpsAfter: opsAfter}, nil
}
