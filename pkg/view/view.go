package view

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cuemby/maw/pkg/apperr"
	"github.com/cuemby/maw/pkg/mawtypes"
	"github.com/cuemby/maw/pkg/metrics"
	"github.com/cuemby/maw/pkg/objectstore"
	"github.com/cuemby/maw/pkg/oplog"
	"github.com/cuemby/maw/pkg/patch"
)

// MaterializedView is the read-side interpretation of a workspace's
// operation log: the state obtained by replaying every operation from
// root to head in causal order (spec.md §4.4).
type MaterializedView struct {
	WorkspaceId mawtypes.WorkspaceId `json:"workspace_id"`

	// Epoch is the workspace's current base epoch, set by the latest
	// Create or Merge operation.
	Epoch *mawtypes.EpochId `json:"epoch,omitempty"`

	// PatchSet is the accumulated patch-set from the most recent
	// Snapshot operation. Nil if the workspace has no snapshot yet.
	PatchSet *patch.PatchSet `json:"patch_set,omitempty"`

	// PatchSetOid is the blob oid of PatchSet, exposed for callers that
	// need the raw reference without deserializing the patch-set.
	PatchSetOid *mawtypes.ObjId `json:"patch_set_oid,omitempty"`

	Description *string `json:"description,omitempty"`

	// Annotations holds the data of every non-checkpoint Annotate
	// operation seen so far, keyed by annotation key (latest wins).
	Annotations map[string]map[string]json.RawMessage `json:"annotations"`

	// OpCount is the number of operations replayed to produce this
	// view, including checkpoint annotations.
	OpCount int `json:"op_count"`

	IsDestroyed bool `json:"is_destroyed"`
}

// Empty returns the zero view for a workspace that has not replayed any
// operations yet.
func Empty(ws mawtypes.WorkspaceId) MaterializedView {
	return MaterializedView{
		WorkspaceId: ws,
		Annotations: make(map[string]map[string]json.RawMessage),
	}
}

// Destroyed reports whether the workspace has been destroyed.
func (v MaterializedView) Destroyed() bool { return v.IsDestroyed }

// HasChanges reports whether the view carries a non-empty patch-set.
func (v MaterializedView) HasChanges() bool {
	return v.PatchSet != nil && v.PatchSet.Len() > 0
}

func (v MaterializedView) String() string {
	s := fmt.Sprintf("view(%s", v.WorkspaceId)
	if v.Epoch != nil {
		e := v.Epoch.String()
		if len(e) > 12 {
			e = e[:12]
		}
		s += fmt.Sprintf(", epoch=%s", e)
	}
	if v.PatchSet != nil {
		s += fmt.Sprintf(", %d patches", v.PatchSet.Len())
	}
	s += fmt.Sprintf(", %d ops", v.OpCount)
	if v.IsDestroyed {
		s += ", DESTROYED"
	}
	return s + ")"
}

// ReadPatchSet fetches and deserializes the patch-set blob named by oid.
// Callers typically implement this as a thin wrapper over
// objectstore.Store.ReadBlob, but tests may substitute a mock.
type ReadPatchSet func(ctx context.Context, oid mawtypes.ObjId) (patch.PatchSet, error)

// StoreReadPatchSet is the production ReadPatchSet backed by a content
// store: it reads the blob named by oid and deserializes it as JSON.
func StoreReadPatchSet(store objectstore.Store) ReadPatchSet {
	return func(ctx context.Context, oid mawtypes.ObjId) (patch.PatchSet, error) {
		data, err := store.ReadBlob(ctx, oid)
		if err != nil {
			return patch.PatchSet{}, apperr.BackendIo(err, "read patch-set blob %s", oid)
		}
		var ps patch.PatchSet
		if err := json.Unmarshal(data, &ps); err != nil {
			return patch.PatchSet{}, apperr.Corrupted(oid.String(), err)
		}
		return ps, nil
	}
}

// applyOperation folds a single operation's effect into view, per the
// per-op-effect table of spec.md §4.4.
func applyOperation(ctx context.Context, v *MaterializedView, op oplog.Operation, readPatchSet ReadPatchSet) error {
	v.OpCount++

	switch op.Payload.Kind {
	case oplog.PayloadCreate:
		epoch := op.Payload.Epoch
		v.Epoch = &epoch
		v.PatchSet = nil
		v.PatchSetOid = nil
		v.IsDestroyed = false

	case oplog.PayloadSnapshot:
		oid := op.Payload.PatchSetOid
		ps, err := readPatchSet(ctx, oid)
		if err != nil {
			return err
		}
		v.PatchSet = &ps
		v.PatchSetOid = &oid

	case oplog.PayloadCompensate:
		v.PatchSet = nil
		v.PatchSetOid = nil

	case oplog.PayloadMerge:
		epoch := op.Payload.EpochAfter
		v.Epoch = &epoch
		v.PatchSet = nil
		v.PatchSetOid = nil

	case oplog.PayloadDescribe:
		msg := op.Payload.Message
		v.Description = &msg

	case oplog.PayloadAnnotate:
		if op.Payload.Key == oplog.CheckpointKey {
			break
		}
		if v.Annotations == nil {
			v.Annotations = make(map[string]map[string]json.RawMessage)
		}
		v.Annotations[op.Payload.Key] = op.Payload.Data

	case oplog.PayloadDestroy:
		v.IsDestroyed = true
	}

	return nil
}

// Materialize walks ws's op log from head to root and replays it in
// causal order (spec.md §4.4).
func Materialize(ctx context.Context, store objectstore.Store, ws mawtypes.WorkspaceId, readPatchSet ReadPatchSet) (MaterializedView, error) {
	timer := metrics.NewTimer()
	defer timer.ObserveDurationVec(metrics.ReplayDuration, "full")

	entries, err := oplog.WalkChain(ctx, store, ws, nil)
	if err != nil {
		return MaterializedView{}, err
	}
	return MaterializeFromEntries(ctx, ws, reversed(entries), readPatchSet)
}

// MaterializeFromEntries replays a pre-built, causally-ordered (oldest
// first) list of operations. Exposed for checkpoint resume, where only
// the post-checkpoint suffix of the chain needs replaying, and for
// testing.
func MaterializeFromEntries(ctx context.Context, ws mawtypes.WorkspaceId, entries []oplog.Entry, readPatchSet ReadPatchSet) (MaterializedView, error) {
	v := Empty(ws)
	for _, e := range entries {
		if err := applyOperation(ctx, &v, e.Op, readPatchSet); err != nil {
			return MaterializedView{}, err
		}
	}
	return v, nil
}

// reversed returns entries in reverse order without mutating the input.
func reversed(entries []oplog.Entry) []oplog.Entry {
	out := make([]oplog.Entry, len(entries))
	for i, e := range entries {
		out[len(entries)-1-i] = e
	}
	return out
}
