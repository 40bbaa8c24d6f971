package refs

import (
	"strings"
	"time"

	"github.com/cuemby/maw/pkg/mawtypes"
)

// EpochRef is the ref that tracks the current shared epoch commit
// (spec.md §3, §6). pkg/merge defines its own copy of this same string
// today (pkg/merge.EpochRef) — see DESIGN.md for why the two are not yet
// unified.
const EpochRef = "epoch/current"

// HeadRef returns a workspace's op-log head ref: head/<ws>. Mirrors
// pkg/oplog.HeadRef; kept as a second definition rather than an import
// because pkg/oplog must not depend on pkg/refs (pkg/refs composes
// higher-level multi-ref transactions that reference pkg/oplog's own ref
// helper, and a two-way import would cycle).
func HeadRef(ws mawtypes.WorkspaceId) string {
	return "head/" + ws.String()
}

// WorkspaceStateRef returns the Level-1-compatibility materialized-state
// ref for a workspace: ws/<ws>. Not written by any current component —
// named here so a future Level 1 compatibility shim has a canonical spot
// to land in, per the reserved namespace spec.md §6 lists.
func WorkspaceStateRef(ws mawtypes.WorkspaceId) string {
	return "ws/" + ws.String()
}

// WorkspaceEpochRef returns the ref recording the epoch a workspace was
// created or last synced against: epoch/ws/<ws>. Distinct from the
// workspace's head, which advances on every local operation.
func WorkspaceEpochRef(ws mawtypes.WorkspaceId) string {
	return "epoch/ws/" + ws.String()
}

// RecoveryRef returns the pinned-commit ref a destroy writes before
// tearing a workspace down: recovery/<ws>/<timestamp>. timestamp must
// already be filesystem-safe (see FormatTimestamp).
func RecoveryRef(ws mawtypes.WorkspaceId, timestamp string) string {
	return "recovery/" + ws.String() + "/" + timestamp
}

// FormatTimestamp renders t as the filesystem-safe ISO-8601 form spec.md
// §6 requires for recovery ref names and destroy-record filenames:
// RFC3339 with colons replaced by hyphens.
func FormatTimestamp(t time.Time) string {
	return strings.ReplaceAll(t.UTC().Format(time.RFC3339), ":", "-")
}
