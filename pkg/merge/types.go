package merge

import (
	"github.com/cuemby/maw/pkg/mawtypes"
	"github.com/cuemby/maw/pkg/ordering"
	"github.com/cuemby/maw/pkg/patch"
)

// PathEntry is a single workspace's change to one path, carried through
// partition, rename-aware rewriting, and resolve (spec.md §4.7).
type PathEntry struct {
	WorkspaceId mawtypes.WorkspaceId
	Value       patch.PatchValue
	Timestamp   ordering.Key
}

func (e PathEntry) isDeletion() bool { return e.Value.Kind == patch.KindDelete }
func (e PathEntry) isRename() bool   { return e.Value.Kind == patch.KindRename }

// isAddLike reports whether this entry's path is a destination a rename
// or a fresh add brought into existence. A patch-set's own Rename entry
// lives only at the destination path (unlike a pure Added/Modified/Deleted
// model), so it counts as an add occurrence for rename classification too.
func (e PathEntry) isAddLike() bool {
	return e.Value.Kind == patch.KindAdd || e.Value.Kind == patch.KindRename
}

// UniqueEntry is a path touched by exactly one workspace.
type UniqueEntry struct {
	Path  mawtypes.Path
	Entry PathEntry
}

// SharedEntry is a path touched by two or more workspaces, its entries
// sorted by workspace id.
type SharedEntry struct {
	Path    mawtypes.Path
	Entries []PathEntry
}

// PartitionResult is the output of PartitionByPath and ApplyRenameAwareness:
// every touched path split into unique (one workspace) and shared (two or
// more), both sorted lexicographically by path.
type PartitionResult struct {
	Unique []UniqueEntry
	Shared []SharedEntry
}

func (r PartitionResult) UniqueCount() int    { return len(r.Unique) }
func (r PartitionResult) SharedCount() int    { return len(r.Shared) }
func (r PartitionResult) TotalPathCount() int  { return len(r.Unique) + len(r.Shared) }
func (r PartitionResult) IsConflictFree() bool { return len(r.Shared) == 0 }

// ChangeOp discriminates a ResolvedChange.
type ChangeOp string

const (
	ChangeUpsert ChangeOp = "upsert"
	ChangeDelete ChangeOp = "delete"
)

// ResolvedChange is one fully-resolved path-level change ready for the
// build step (spec.md §4.7 Build). Blob references an existing blob
// already written by the diff step that produced the originating
// PatchValue; build never writes new blob content of its own. Blob is
// meaningful only when Op is ChangeUpsert.
type ResolvedChange struct {
	Op   ChangeOp
	Path mawtypes.Path
	Blob mawtypes.ObjId
}
