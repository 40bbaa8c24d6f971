package artifact

import (
	"path/filepath"
	"sort"

	"github.com/cuemby/maw/pkg/mawtypes"
	"github.com/cuemby/maw/pkg/patch"
)

// WorkspaceReport is the document written at
// .maw/artifacts/ws/<ws>/report.json (spec.md §6): a workspace's
// current patch-set plus the paths it touches (including rename sources,
// the way the original's touched_paths_from_patchset includes a rename's
// `from` alongside its destination) and whether the epoch it diffed
// against is no longer the current one.
type WorkspaceReport struct {
	WorkspaceId  mawtypes.WorkspaceId `json:"workspace_id"`
	BaseEpoch    mawtypes.ObjId       `json:"base_epoch"`
	IsStale      bool                 `json:"is_stale"`
	TouchedPaths []mawtypes.Path      `json:"touched_paths"`
	PatchSet     patch.PatchSet       `json:"patch_set"`
}

// TouchedPaths collects every path a patch-set mentions, sorted and
// deduplicated, including a Rename entry's source path alongside its
// destination — ported from the original's touched_paths_from_patchset.
func TouchedPaths(ps patch.PatchSet) []mawtypes.Path {
	set := map[mawtypes.Path]struct{}{}
	for path, v := range ps.Patches {
		set[path] = struct{}{}
		if v.Kind == patch.KindRename {
			set[v.From] = struct{}{}
		}
	}
	out := make([]mawtypes.Path, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

// NewWorkspaceReport builds a report from a workspace's current patch-set.
func NewWorkspaceReport(ws mawtypes.WorkspaceId, currentEpoch mawtypes.ObjId, ps patch.PatchSet) WorkspaceReport {
	return WorkspaceReport{
		WorkspaceId:  ws,
		BaseEpoch:    ps.BaseEpoch,
		IsStale:      ps.BaseEpoch != currentEpoch,
		TouchedPaths: TouchedPaths(ps),
		PatchSet:     ps,
	}
}

// reportPath returns .maw/artifacts/ws/<ws>/report.json under root.
func reportPath(root, ws string) string {
	return filepath.Join(root, "."+ReservedDir, "artifacts", "ws", ws, "report.json")
}

// WriteWorkspaceReport persists report atomically.
func WriteWorkspaceReport(root string, report WorkspaceReport) error {
	return WriteJSONAtomic(reportPath(root, report.WorkspaceId.String()), report)
}

// ReadWorkspaceReport loads a previously persisted report.
func ReadWorkspaceReport(root, ws string) (WorkspaceReport, error) {
	var report WorkspaceReport
	err := ReadJSON(reportPath(root, ws), &report)
	return report, err
}
