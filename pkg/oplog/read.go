package oplog

import (
	"context"
	"encoding/json"

	"github.com/cuemby/maw/pkg/apperr"
	"github.com/cuemby/maw/pkg/mawtypes"
	"github.com/cuemby/maw/pkg/objectstore"
)

// Entry pairs a deserialized Operation with the oid of the blob it was
// read from.
type Entry struct {
	Oid mawtypes.ObjId
	Op  Operation
}

// StopPredicate terminates WalkChain early when it returns true for the
// current op; the matching op is still included in the result.
type StopPredicate func(Operation) bool

// WalkChain walks a workspace's op log from its head (spec.md §4.3):
// repeatedly reading blobs, deserializing them, and following parent_ids
// depth-first in first-parent order, deduplicating nodes already
// visited. Returns (oid, op) pairs in newest-first order. Returns an
// empty slice if the workspace has no head yet (no operations appended).
func WalkChain(ctx context.Context, store objectstore.Store, ws mawtypes.WorkspaceId, stop StopPredicate) ([]Entry, error) {
	ref := headRef(ws)
	head, ok, err := store.ReadRefOpt(ctx, ref)
	if err != nil {
		return nil, apperr.BackendIo(err, "read %s", ref)
	}
	if !ok {
		return nil, nil
	}

	var result []Entry
	visited := make(map[mawtypes.ObjId]bool)
	stack := []mawtypes.ObjId{head}

	for len(stack) > 0 {
		oid := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[oid] {
			continue
		}
		visited[oid] = true

		data, readErr := store.ReadBlob(ctx, oid)
		if readErr != nil {
			return nil, apperr.BackendIo(readErr, "read operation blob %s", oid)
		}
		var op Operation
		if unmarshalErr := json.Unmarshal(data, &op); unmarshalErr != nil {
			return nil, apperr.Corrupted(oid.String(), unmarshalErr)
		}

		result = append(result, Entry{Oid: oid, Op: op})
		if stop != nil && stop(op) {
			break
		}

		// Push parents in reverse so the first parent is popped (and so
		// walked depth-first) before any later parent.
		for i := len(op.ParentIds) - 1; i >= 0; i-- {
			parent := op.ParentIds[i]
			if !visited[parent] {
				stack = append(stack, parent)
			}
		}
	}

	return result, nil
}
