package conflict

import (
	"sort"

	"github.com/cuemby/maw/pkg/mawtypes"
	"github.com/cuemby/maw/pkg/ordering"
)

// ConflictSide is one workspace's contribution to a conflicting path: the
// blob it produced and the ordering key of the operation that produced it.
type ConflictSide struct {
	Workspace mawtypes.WorkspaceId `json:"workspace"`
	Content   mawtypes.ObjId       `json:"content"`
	Timestamp ordering.Key         `json:"timestamp"`
}

func NewConflictSide(ws mawtypes.WorkspaceId, content mawtypes.ObjId, ts ordering.Key) ConflictSide {
	return ConflictSide{Workspace: ws, Content: content, Timestamp: ts}
}

// sortSides orders sides by (workspace_id, timestamp) for deterministic
// output, mirroring the Rust source's sorted_by_workspace rule.
func sortSides(sides []ConflictSide) {
	sort.Slice(sides, func(i, j int) bool {
		a, b := sides[i], sides[j]
		if a.Workspace != b.Workspace {
			return a.Workspace.Less(b.Workspace)
		}
		return a.Timestamp.Less(b.Timestamp)
	})
}
