package patch

import (
	"encoding/json"

	"github.com/cuemby/maw/pkg/apperr"
	"github.com/cuemby/maw/pkg/mawtypes"
)

// ConflictReason classifies why two PatchValues on the same path could
// not be merged by Join.
type ConflictReason string

const (
	DivergentAdd    ConflictReason = "divergent_add"
	DivergentModify ConflictReason = "divergent_modify"
	ModifyDelete    ConflictReason = "modify_delete"
	RenameConflict  ConflictReason = "rename_conflict"
	DivergentRename ConflictReason = "divergent_rename"
	Incompatible    ConflictReason = "incompatible"
)

func (r ConflictReason) String() string {
	switch r {
	case DivergentAdd:
		return "both sides add different content"
	case DivergentModify:
		return "both sides modify to different results"
	case ModifyDelete:
		return "one side modifies, the other deletes"
	case RenameConflict:
		return "rename conflicts with another operation"
	case DivergentRename:
		return "both sides rename to different destinations"
	default:
		return "incompatible operations on the same path"
	}
}

// PathConflict records a single path Join could not reconcile. Sides is
// always exactly 2 entries, ordered by canonical JSON so that
// Join(a, b) and Join(b, a) produce identical conflicts.
type PathConflict struct {
	Path   mawtypes.Path
	Sides  [2]PatchValue
	Reason ConflictReason
}

// JoinResult is what Join returns: the merged, conflict-free subset of
// both patch-sets, plus every path it could not reconcile.
type JoinResult struct {
	Merged    PatchSet
	Conflicts []PathConflict
}

func (r JoinResult) IsClean() bool { return len(r.Conflicts) == 0 }

// Join is the CRDT merge of two patch-sets sharing the same base epoch
// (spec.md §4.2). It is commutative, idempotent, and associative on the
// conflict-free subset:
//
//   - a path present on only one side is carried into the result unchanged;
//   - a path present on both sides with equal values collapses to one copy;
//   - a path present on both sides with differing values is excluded from
//     Merged and reported as a PathConflict instead.
func Join(a, b PatchSet) (JoinResult, error) {
	if a.BaseEpoch != b.BaseEpoch {
		return JoinResult{}, apperr.Validation(
			"join patch-sets from the same base epoch only",
			"cannot join patch-sets with different base epochs: %s vs %s", a.BaseEpoch, b.BaseEpoch)
	}

	merged := make(map[mawtypes.Path]PatchValue, len(a.Patches)+len(b.Patches))
	var conflicts []PathConflict

	allPaths := make(map[mawtypes.Path]struct{}, len(a.Patches)+len(b.Patches))
	for p := range a.Patches {
		allPaths[p] = struct{}{}
	}
	for p := range b.Patches {
		allPaths[p] = struct{}{}
	}
	ordered := make([]mawtypes.Path, 0, len(allPaths))
	for p := range allPaths {
		ordered = append(ordered, p)
	}
	sortPaths(ordered)

	for _, p := range ordered {
		left, hasLeft := a.Patches[p]
		right, hasRight := b.Patches[p]
		switch {
		case hasLeft && !hasRight:
			merged[p] = left
		case !hasLeft && hasRight:
			merged[p] = right
		case hasLeft && hasRight:
			if left.Equal(right) {
				merged[p] = left
				continue
			}
			conflicts = append(conflicts, PathConflict{
				Path:   p,
				Sides:  sortedSides(left, right),
				Reason: classifyConflict(left, right),
			})
		}
	}

	return JoinResult{
		Merged:    PatchSet{BaseEpoch: a.BaseEpoch, Patches: merged},
		Conflicts: conflicts,
	}, nil
}

func classifyConflict(left, right PatchValue) ConflictReason {
	switch {
	case left.Kind == KindAdd && right.Kind == KindAdd:
		return DivergentAdd
	case left.Kind == KindModify && right.Kind == KindModify:
		return DivergentModify
	case (left.Kind == KindModify && right.Kind == KindDelete) || (left.Kind == KindDelete && right.Kind == KindModify):
		return ModifyDelete
	case left.Kind == KindRename && right.Kind == KindRename:
		if left.From == right.From {
			return DivergentRename
		}
		return Incompatible
	case left.Kind == KindRename || right.Kind == KindRename:
		return RenameConflict
	default:
		return Incompatible
	}
}

// sortedSides orders both sides by canonical JSON so the conflict is
// identical regardless of which patch-set was passed as a or b.
func sortedSides(left, right PatchValue) [2]PatchValue {
	lj, _ := json.Marshal(left)
	rj, _ := json.Marshal(right)
	if string(lj) <= string(rj) {
		return [2]PatchValue{left, right}
	}
	return [2]PatchValue{right, left}
}
