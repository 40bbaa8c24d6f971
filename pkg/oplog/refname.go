package oplog

import "github.com/cuemby/maw/pkg/mawtypes"

// HeadRef returns the reserved ref name for a workspace's op-log head
// (spec.md §3 ref namespace): head/<ws>. Exported so pkg/view can
// CAS-advance the same ref directly during compaction.
func HeadRef(ws mawtypes.WorkspaceId) string {
	return "head/" + ws.String()
}

// headRef is the package-internal name kept for brevity at existing call
// sites.
func headRef(ws mawtypes.WorkspaceId) string {
	return HeadRef(ws)
}
