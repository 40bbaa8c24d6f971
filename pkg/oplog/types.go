package oplog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cuemby/maw/pkg/mawtypes"
)

// CheckpointKey is the one reserved Annotate key (spec.md §3/§4.5):
// view replay skips setting annotations[CheckpointKey] from it, but the
// op still counts toward op_count.
const CheckpointKey = "checkpoint"

// PayloadKind discriminates OpPayload's tagged union, under the "kind"
// field.
type PayloadKind string

const (
	PayloadCreate      PayloadKind = "create"
	PayloadSnapshot    PayloadKind = "snapshot"
	PayloadCompensate  PayloadKind = "compensate"
	PayloadMerge       PayloadKind = "merge"
	PayloadDescribe    PayloadKind = "describe"
	PayloadAnnotate    PayloadKind = "annotate"
	PayloadDestroy     PayloadKind = "destroy"
)

// OpPayload is the per-variant content of an Operation (spec.md §3).
type OpPayload struct {
	Kind PayloadKind

	// Create
	Epoch mawtypes.EpochId

	// Snapshot
	PatchSetOid mawtypes.ObjId

	// Compensate
	TargetOp mawtypes.ObjId
	Reason   string

	// Merge
	Sources     []mawtypes.WorkspaceId
	EpochBefore mawtypes.EpochId
	EpochAfter  mawtypes.EpochId

	// Describe
	Message string

	// Annotate
	Key  string
	Data map[string]json.RawMessage

	// Destroy carries no fields.
}

func Create(epoch mawtypes.EpochId) OpPayload {
	return OpPayload{Kind: PayloadCreate, Epoch: epoch}
}

func Snapshot(patchSetOid mawtypes.ObjId) OpPayload {
	return OpPayload{Kind: PayloadSnapshot, PatchSetOid: patchSetOid}
}

func Compensate(targetOp mawtypes.ObjId, reason string) OpPayload {
	return OpPayload{Kind: PayloadCompensate, TargetOp: targetOp, Reason: reason}
}

func Merge(sources []mawtypes.WorkspaceId, epochBefore, epochAfter mawtypes.EpochId) OpPayload {
	return OpPayload{Kind: PayloadMerge, Sources: sources, EpochBefore: epochBefore, EpochAfter: epochAfter}
}

func Describe(message string) OpPayload {
	return OpPayload{Kind: PayloadDescribe, Message: message}
}

func Annotate(key string, data map[string]json.RawMessage) OpPayload {
	return OpPayload{Kind: PayloadAnnotate, Key: key, Data: data}
}

func Destroy() OpPayload {
	return OpPayload{Kind: PayloadDestroy}
}

// IsCheckpoint reports whether this is the reserved checkpoint Annotate.
func (p OpPayload) IsCheckpoint() bool {
	return p.Kind == PayloadAnnotate && p.Key == CheckpointKey
}

type opPayloadWire struct {
	Kind        PayloadKind                `json:"kind"`
	Epoch       *mawtypes.EpochId          `json:"epoch,omitempty"`
	PatchSetOid *mawtypes.ObjId            `json:"patch_set_oid,omitempty"`
	TargetOp    *mawtypes.ObjId            `json:"target_op,omitempty"`
	Reason      string                     `json:"reason,omitempty"`
	Sources     []mawtypes.WorkspaceId     `json:"sources,omitempty"`
	EpochBefore *mawtypes.EpochId          `json:"epoch_before,omitempty"`
	EpochAfter  *mawtypes.EpochId          `json:"epoch_after,omitempty"`
	Message     string                     `json:"message,omitempty"`
	Key         string                     `json:"key,omitempty"`
	Data        map[string]json.RawMessage `json:"data,omitempty"`
}

func (p OpPayload) MarshalJSON() ([]byte, error) {
	w := opPayloadWire{Kind: p.Kind}
	switch p.Kind {
	case PayloadCreate:
		w.Epoch = &p.Epoch
	case PayloadSnapshot:
		w.PatchSetOid = &p.PatchSetOid
	case PayloadCompensate:
		w.TargetOp, w.Reason = &p.TargetOp, p.Reason
	case PayloadMerge:
		w.Sources, w.EpochBefore, w.EpochAfter = p.Sources, &p.EpochBefore, &p.EpochAfter
	case PayloadDescribe:
		w.Message = p.Message
	case PayloadAnnotate:
		w.Key, w.Data = p.Key, p.Data
	case PayloadDestroy:
		// no fields
	default:
		return nil, fmt.Errorf("oplog: unknown OpPayload kind %q", p.Kind)
	}
	return json.Marshal(w)
}

func (p *OpPayload) UnmarshalJSON(data []byte) error {
	var w opPayloadWire
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&w); err != nil {
		return fmt.Errorf("oplog: decode OpPayload: %w", err)
	}
	out := OpPayload{Kind: w.Kind}
	switch w.Kind {
	case PayloadCreate:
		if w.Epoch == nil {
			return fmt.Errorf("oplog: create payload missing epoch")
		}
		out.Epoch = *w.Epoch
	case PayloadSnapshot:
		if w.PatchSetOid == nil {
			return fmt.Errorf("oplog: snapshot payload missing patch_set_oid")
		}
		out.PatchSetOid = *w.PatchSetOid
	case PayloadCompensate:
		if w.TargetOp == nil {
			return fmt.Errorf("oplog: compensate payload missing target_op")
		}
		out.TargetOp, out.Reason = *w.TargetOp, w.Reason
	case PayloadMerge:
		if w.EpochBefore == nil || w.EpochAfter == nil {
			return fmt.Errorf("oplog: merge payload missing epoch_before/epoch_after")
		}
		out.Sources, out.EpochBefore, out.EpochAfter = w.Sources, *w.EpochBefore, *w.EpochAfter
	case PayloadDescribe:
		out.Message = w.Message
	case PayloadAnnotate:
		out.Key, out.Data = w.Key, w.Data
	case PayloadDestroy:
		// nothing to read
	default:
		return fmt.Errorf("oplog: unknown OpPayload kind %q", w.Kind)
	}
	*p = out
	return nil
}

// Operation is one op log entry (spec.md §3): its parent ids (forming the
// chain DAG), the workspace it belongs to, its wall-clock timestamp, and
// its payload.
type Operation struct {
	ParentIds   []mawtypes.ObjId
	WorkspaceId mawtypes.WorkspaceId
	Timestamp   time.Time
	Payload     OpPayload
}

func NewOperation(parentIds []mawtypes.ObjId, ws mawtypes.WorkspaceId, timestamp time.Time, payload OpPayload) Operation {
	return Operation{ParentIds: parentIds, WorkspaceId: ws, Timestamp: timestamp, Payload: payload}
}

// IsRoot reports whether this operation has no parents — only a Create
// op may be a root (spec.md §3 chain invariant).
func (o Operation) IsRoot() bool {
	return len(o.ParentIds) == 0
}

type operationWire struct {
	ParentIds   []mawtypes.ObjId     `json:"parent_ids"`
	WorkspaceId mawtypes.WorkspaceId `json:"workspace_id"`
	Timestamp   time.Time            `json:"timestamp"`
	Payload     OpPayload            `json:"payload"`
}

// MarshalJSON encodes Operation with stable field order, matching the
// canonical serialization spec.md §3 requires so the same operation
// always hashes to the same blob oid.
func (o Operation) MarshalJSON() ([]byte, error) {
	parents := o.ParentIds
	if parents == nil {
		parents = []mawtypes.ObjId{}
	}
	return json.Marshal(operationWire{
		ParentIds:   parents,
		WorkspaceId: o.WorkspaceId,
		Timestamp:   o.Timestamp,
		Payload:     o.Payload,
	})
}

func (o *Operation) UnmarshalJSON(data []byte) error {
	var w operationWire
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&w); err != nil {
		return fmt.Errorf("oplog: decode Operation: %w", err)
	}
	*o = Operation{ParentIds: w.ParentIds, WorkspaceId: w.WorkspaceId, Timestamp: w.Timestamp, Payload: w.Payload}
	return nil
}
