package merge

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/cuemby/maw/pkg/apperr"
	"github.com/cuemby/maw/pkg/conflict"
	"github.com/cuemby/maw/pkg/mawtypes"
	"github.com/cuemby/maw/pkg/objectstore"
	"github.com/cuemby/maw/pkg/patch"
)

// outcome is a path entry's concrete resolved effect: either a deletion
// or an upsert of a specific blob. Resolving a same-content Rename needs
// a base-tree lookup (the patch-set only records the source path, not a
// blob oid, for that case), done once here so every later comparison and
// the build step deal only in plain blob oids.
type outcome struct {
	isDelete bool
	blob     mawtypes.ObjId
}

func (o outcome) equal(other outcome) bool {
	if o.isDelete != other.isDelete {
		return false
	}
	return o.isDelete || o.blob == other.blob
}

func (o outcome) toChange(path mawtypes.Path) ResolvedChange {
	if o.isDelete {
		return ResolvedChange{Op: ChangeDelete, Path: path}
	}
	return ResolvedChange{Op: ChangeUpsert, Path: path, Blob: o.blob}
}

func resolveOutcome(ctx context.Context, store objectstore.Store, baseTree mawtypes.ObjId, v patch.PatchValue) (outcome, error) {
	switch v.Kind {
	case patch.KindDelete:
		return outcome{isDelete: true}, nil
	case patch.KindAdd:
		return outcome{blob: v.Blob}, nil
	case patch.KindModify:
		return outcome{blob: v.NewBlob}, nil
	case patch.KindRename:
		if !v.RenameSameContent {
			return outcome{blob: v.RenameNewBlob}, nil
		}
		oid, found, err := resolveTreePath(ctx, store, baseTree, v.From)
		if err != nil {
			return outcome{}, err
		}
		if !found {
			return outcome{}, apperr.Corrupted(v.From.String(), nil)
		}
		return outcome{blob: oid}, nil
	default:
		return outcome{}, fmt.Errorf("merge: unknown patch kind %q", v.Kind)
	}
}

// resolveTreePath walks root level by level (objectstore.Store.ReadTree
// reads one level at a time) to find path's blob oid. It returns
// found=false rather than an error when any path segment is absent, since
// that is the ordinary "not part of the base tree" case (a brand new
// file), not a corruption.
func resolveTreePath(ctx context.Context, store objectstore.Store, root mawtypes.ObjId, path mawtypes.Path) (mawtypes.ObjId, bool, error) {
	if root.IsZero() || path == "" {
		return mawtypes.ObjId{}, false, nil
	}
	segments := strings.Split(string(path), "/")
	current := root
	for i, seg := range segments {
		tree, err := store.ReadTree(ctx, current)
		if err != nil {
			return mawtypes.ObjId{}, false, err
		}
		var next *objectstore.TreeEntry
		for j := range tree.Entries {
			if tree.Entries[j].Name == mawtypes.Path(seg) {
				next = &tree.Entries[j]
				break
			}
		}
		if next == nil {
			return mawtypes.ObjId{}, false, nil
		}
		if i == len(segments)-1 {
			return next.Oid, true, nil
		}
		if !next.Mode.IsTree() {
			return mawtypes.ObjId{}, false, nil
		}
		current = next.Oid
	}
	return mawtypes.ObjId{}, false, nil
}

// ResolveResult is the output of Resolve: changes ready for Build, plus
// any structured conflicts still needing a driver or human to resolve.
type ResolveResult struct {
	Changes   []ResolvedChange
	Conflicts []conflict.Conflict
}

// Resolve turns a rename-aware PartitionResult into concrete build-ready
// changes, auto-resolving shared paths whose post-rewrite entries agree
// on outcome and otherwise emitting a structured conflict (spec.md §4.7
// Resolve, §4.8). baseTree is the merge epoch commit's tree oid, used
// only to look up the source blob of a same-content rename or the
// pre-merge content of a path under conflict.
func Resolve(ctx context.Context, store objectstore.Store, baseTree mawtypes.ObjId, aware RenameAwareResult) (ResolveResult, error) {
	var changes []ResolvedChange
	var conflicts []conflict.Conflict
	renameDeletes := make(map[mawtypes.Path]bool)

	noteRenameDelete := func(entry PathEntry) {
		if entry.isRename() {
			renameDeletes[entry.Value.From] = true
		}
	}

	for _, u := range aware.Partition.Unique {
		out, err := resolveOutcome(ctx, store, baseTree, u.Entry.Value)
		if err != nil {
			return ResolveResult{}, err
		}
		changes = append(changes, out.toChange(u.Path))
		noteRenameDelete(u.Entry)
	}

	for _, s := range aware.Partition.Shared {
		outcomes := make([]outcome, len(s.Entries))
		for i, e := range s.Entries {
			out, err := resolveOutcome(ctx, store, baseTree, e.Value)
			if err != nil {
				return ResolveResult{}, err
			}
			outcomes[i] = out
		}

		agree, resolved := agreeOutcome(s.Entries, outcomes)
		if agree {
			changes = append(changes, resolved.toChange(s.Path))
			for _, e := range s.Entries {
				noteRenameDelete(e)
			}
			continue
		}

		c, err := buildPathConflict(ctx, store, baseTree, s.Path, s.Entries, outcomes)
		if err != nil {
			return ResolveResult{}, err
		}
		conflicts = append(conflicts, c)
	}

	for _, rc := range aware.RenameConflicts {
		c, err := projectRenameConflict(ctx, store, baseTree, rc)
		if err != nil {
			return ResolveResult{}, err
		}
		conflicts = append(conflicts, c)
	}

	for path := range renameDeletes {
		changes = append(changes, ResolvedChange{Op: ChangeDelete, Path: path})
	}

	sort.Slice(changes, func(i, j int) bool { return changes[i].Path.Less(changes[j].Path) })
	sort.Slice(conflicts, func(i, j int) bool { return conflicts[i].GetPath().Less(conflicts[j].GetPath()) })

	return ResolveResult{Changes: changes, Conflicts: conflicts}, nil
}

// buildPathConflict classifies a disagreeing shared path into the
// narrowest conflict.Conflict variant it matches: ModifyDelete for
// exactly one modifier and one deleter, AddAdd when every side is a fresh
// add, and Content otherwise (mixed modify/rename content, or three or
// more disagreeing sides including a delete — the tagged-union model has
// no dedicated N-way delete variant, so those fold into Content sides
// with a zero content oid for the deleting workspace).
func buildPathConflict(ctx context.Context, store objectstore.Store, baseTree mawtypes.ObjId, path mawtypes.Path, entries []PathEntry, outcomes []outcome) (conflict.Conflict, error) {
	var deletes, upserts []int
	for i, o := range outcomes {
		if o.isDelete {
			deletes = append(deletes, i)
		} else {
			upserts = append(upserts, i)
		}
	}

	if len(entries) == 2 && len(deletes) == 1 && len(upserts) == 1 {
		modIdx, delIdx := upserts[0], deletes[0]
		modifier := conflict.NewConflictSide(entries[modIdx].WorkspaceId, outcomes[modIdx].blob, entries[modIdx].Timestamp)
		deleter := conflict.NewConflictSide(entries[delIdx].WorkspaceId, mawtypes.ObjId{}, entries[delIdx].Timestamp)
		return conflict.NewModifyDelete(path, entries[modIdx].Value.FileId, modifier, deleter, outcomes[modIdx].blob), nil
	}

	if len(deletes) == 0 && allAdds(entries) {
		sides := make([]conflict.ConflictSide, len(entries))
		for i, e := range entries {
			sides[i] = conflict.NewConflictSide(e.WorkspaceId, outcomes[i].blob, e.Timestamp)
		}
		return conflict.NewAddAdd(path, sides), nil
	}

	sides := make([]conflict.ConflictSide, len(entries))
	for i, e := range entries {
		sides[i] = conflict.NewConflictSide(e.WorkspaceId, outcomes[i].blob, e.Timestamp)
	}
	baseBlob, hasBase, err := resolveTreePath(ctx, store, baseTree, path)
	if err != nil {
		return conflict.Conflict{}, err
	}
	reason := conflict.NonCommutativeEdits(fmt.Sprintf("%d workspaces produced different content", len(entries)))
	atom := conflict.NewConflictAtom(conflict.WholeFile(), nil, reason)
	return conflict.NewContent(path, entries[0].Value.FileId, baseBlob, hasBase, sides, []conflict.ConflictAtom{atom}), nil
}

// isPassThroughRename reports whether v is a same-content rename: it
// carries the file to a new path but asserts no opinion of its own about
// content, so it never competes with a concurrent real edit at a shared
// destination path (spec.md §8 scenario 4).
func isPassThroughRename(v patch.PatchValue) bool {
	return v.Kind == patch.KindRename && v.RenameSameContent
}

// agreeOutcome decides whether a shared path's entries resolve cleanly.
// Same-content renames are excluded from the comparison: a rename with
// unchanged content agrees with whatever its co-located entries decide,
// since it has no content opinion of its own. Two or more disagreeing
// opinionated outcomes (adds, modifies, deletes, or content-changing
// renames) remain a genuine conflict.
func agreeOutcome(entries []PathEntry, outcomes []outcome) (bool, outcome) {
	var opinionated []outcome
	for i, e := range entries {
		if isPassThroughRename(e.Value) {
			continue
		}
		opinionated = append(opinionated, outcomes[i])
	}
	if len(opinionated) == 0 {
		return true, outcomes[0]
	}
	for i := 1; i < len(opinionated); i++ {
		if !opinionated[i].equal(opinionated[0]) {
			return false, outcome{}
		}
	}
	return true, opinionated[0]
}

func allAdds(entries []PathEntry) bool {
	for _, e := range entries {
		if e.Value.Kind != patch.KindAdd {
			return false
		}
	}
	return true
}

// projectRenameConflict maps a RenameConflict from the rename-aware
// rewriting step onto conflict.Conflict. Divergent becomes a
// DivergentRename conflict directly; RenameDelete becomes a ModifyDelete
// conflict (the renamer's resulting content is the "modification"),
// since the structured conflict model has no dedicated rename/delete tag.
func projectRenameConflict(ctx context.Context, store objectstore.Store, baseTree mawtypes.ObjId, rc RenameConflict) (conflict.Conflict, error) {
	switch rc.Kind {
	case RenameDivergent:
		destinations := make([]conflict.RenameDestination, len(rc.Destinations))
		for i, d := range rc.Destinations {
			out, err := resolveOutcome(ctx, store, baseTree, d.Entry.Value)
			if err != nil {
				return conflict.Conflict{}, err
			}
			side := conflict.NewConflictSide(d.WorkspaceId, out.blob, d.Entry.Timestamp)
			destinations[i] = conflict.RenameDestination{Path: d.Path, Side: side}
		}
		return conflict.NewDivergentRename(rc.FileId, rc.OriginalPath, destinations), nil

	case RenameDeleteKind:
		renamerOut, err := resolveOutcome(ctx, store, baseTree, rc.Renamer.Entry.Value)
		if err != nil {
			return conflict.Conflict{}, err
		}
		modifier := conflict.NewConflictSide(rc.Renamer.WorkspaceId, renamerOut.blob, rc.Renamer.Entry.Timestamp)
		deleter := conflict.NewConflictSide(rc.Deleter.WorkspaceId, mawtypes.ObjId{}, rc.Deleter.Entry.Timestamp)
		return conflict.NewModifyDelete(rc.OriginalPath, rc.FileId, modifier, deleter, renamerOut.blob), nil

	default:
		return conflict.Conflict{}, fmt.Errorf("merge: unknown rename conflict kind %q", rc.Kind)
	}
}
