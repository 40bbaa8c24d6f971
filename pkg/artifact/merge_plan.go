package artifact

import (
	"path/filepath"

	"github.com/cuemby/maw/pkg/conflict"
	"github.com/cuemby/maw/pkg/mawtypes"
	"github.com/cuemby/maw/pkg/merge"
)

// DriverEntry describes a path-specific merge driver invocation (spec.md
// §6 merge plan `drivers?` field). Populated by cmd/maw once a plan's
// paths are matched against pkg/config's driver rules; nil/empty here means
// no drivers apply.
type DriverEntry struct {
	Path    mawtypes.Path `json:"path"`
	Kind    string        `json:"kind"`
	Command string        `json:"command,omitempty"`
}

// ValidationPolicy is the merge plan's `validation?` field: post-merge
// commands and how their failure should be handled.
type ValidationPolicy struct {
	Commands       []string `json:"commands"`
	TimeoutSeconds int      `json:"timeout_seconds"`
	// Policy is one of "warn", "block", "quarantine", "block+quarantine".
	Policy string `json:"policy"`
}

// MergePlanDoc is the on-disk shape of a merge plan (spec.md §6): the
// serialization wrapper around merge.MergePlan, with the optional
// driver/validation fields cmd/maw populates from pkg/config. Kept as a
// separate type from merge.MergePlan rather than adding json tags there,
// since pkg/merge's struct is an in-memory preview and this package alone
// owns on-disk shape and canonicalization (sorted paths, omitted-when-empty
// optionals).
type MergePlanDoc struct {
	MergeId            string               `json:"merge_id"`
	EpochBefore        mawtypes.ObjId       `json:"epoch_before"`
	Sources            []mawtypes.WorkspaceId `json:"sources"`
	TouchedPaths       []mawtypes.Path      `json:"touched_paths"`
	Overlaps           []mawtypes.Path      `json:"overlaps,omitempty"`
	PredictedConflicts []conflict.Conflict  `json:"predicted_conflicts,omitempty"`
	Drivers            []DriverEntry        `json:"drivers,omitempty"`
	Validation         *ValidationPolicy    `json:"validation,omitempty"`
}

// NewMergePlanDoc wraps plan for persistence. TouchedPaths and Overlaps are
// already sorted by merge.ComputePlan; Drivers/Validation start nil and are
// filled in by a caller that has config loaded.
func NewMergePlanDoc(plan merge.MergePlan) MergePlanDoc {
	return MergePlanDoc{
		MergeId:            plan.MergeId,
		EpochBefore:        plan.EpochBefore,
		Sources:            plan.Sources,
		TouchedPaths:       plan.TouchedPaths,
		Overlaps:           plan.Overlaps,
		PredictedConflicts: plan.PredictedConflicts,
	}
}

// MergePlanPath returns the on-disk path for a merge plan artifact relative
// to root: .maw/artifacts/merge/<merge_id>/plan.json.
func MergePlanPath(root, mergeId string) string {
	return filepath.Join(root, "."+ReservedDir, "artifacts", "merge", mergeId, "plan.json")
}

// WriteMergePlan persists doc atomically at its canonical path under root.
func WriteMergePlan(root string, doc MergePlanDoc) error {
	return WriteJSONAtomic(MergePlanPath(root, doc.MergeId), doc)
}

// ReadMergePlan loads a previously persisted merge plan.
func ReadMergePlan(root, mergeId string) (MergePlanDoc, error) {
	var doc MergePlanDoc
	err := ReadJSON(MergePlanPath(root, mergeId), &doc)
	return doc, err
}
