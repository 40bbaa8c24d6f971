package merge

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"

	"github.com/cuemby/maw/pkg/conflict"
	"github.com/cuemby/maw/pkg/mawtypes"
)

// MergePlan is a preview of what Merge would do, computed without writing
// anything: the paths it would touch, which of those are contended across
// more than one source workspace, and which conflicts partition and
// rename-aware rewriting already predict (spec.md §4.7 preview mode).
// Artifact persistence (writing plan.json/report.json atomically) is
// pkg/artifact's concern, not this package's.
type MergePlan struct {
	MergeId            string
	EpochBefore        mawtypes.EpochId
	Sources            []mawtypes.WorkspaceId
	TouchedPaths        []mawtypes.Path
	Overlaps           []mawtypes.Path
	PredictedConflicts []conflict.Conflict
}

// ComputeMergeID derives a deterministic, order-independent merge
// identifier from the epoch, the participating workspace ids, and each
// workspace's current head, hex-encoded to 64 characters (spec.md §4.7).
func ComputeMergeID(epoch mawtypes.EpochId, sources []CollectedWorkspace) string {
	ids := make([]string, len(sources))
	heads := make(map[string]string, len(sources))
	for i, s := range sources {
		id := s.WorkspaceId.String()
		ids[i] = id
		heads[id] = s.Head.String()
	}
	sort.Strings(ids)

	h := sha256.New()
	h.Write([]byte(epoch.String()))
	h.Write([]byte("\n"))
	for _, id := range ids {
		h.Write([]byte(id))
		h.Write([]byte("\n"))
	}
	h.Write([]byte("---\n"))
	for _, id := range ids {
		h.Write([]byte(id))
		h.Write([]byte(":"))
		h.Write([]byte(heads[id]))
		h.Write([]byte("\n"))
	}

	return hex.EncodeToString(h.Sum(nil))
}

// ComputePlan builds a MergePlan from an already rename-rewritten
// partition and its resolution, without performing Build or Commit.
func ComputePlan(epoch mawtypes.EpochId, sources []CollectedWorkspace, aware RenameAwareResult, result ResolveResult) MergePlan {
	workspaceIds := make([]mawtypes.WorkspaceId, len(sources))
	for i, s := range sources {
		workspaceIds[i] = s.WorkspaceId
	}

	var touched []mawtypes.Path
	for _, u := range aware.Partition.Unique {
		touched = append(touched, u.Path)
	}
	var overlaps []mawtypes.Path
	for _, s := range aware.Partition.Shared {
		touched = append(touched, s.Path)
		overlaps = append(overlaps, s.Path)
	}
	sort.Slice(touched, func(i, j int) bool { return touched[i].Less(touched[j]) })
	sort.Slice(overlaps, func(i, j int) bool { return overlaps[i].Less(overlaps[j]) })

	return MergePlan{
		MergeId:            ComputeMergeID(epoch, sources),
		EpochBefore:         epoch,
		Sources:             workspaceIds,
		TouchedPaths:        touched,
		Overlaps:            overlaps,
		PredictedConflicts:  result.Conflicts,
	}
}
