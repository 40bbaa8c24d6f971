package objectstore

import "github.com/cuemby/maw/pkg/mawtypes"

// Mode is a git-style file mode for a tree entry.
type Mode uint32

const (
	ModeFile       Mode = 0o100644
	ModeExecutable Mode = 0o100755
	ModeSymlink    Mode = 0o120000
	ModeTree       Mode = 0o040000
)

// IsTree reports whether this mode names a subtree rather than a blob.
func (m Mode) IsTree() bool {
	return m == ModeTree
}

// TreeEntry is one ordered entry of a single tree level (§4.1: read_tree
// reads one level, ordered entries).
type TreeEntry struct {
	Name mawtypes.Path
	Mode Mode
	Oid  mawtypes.ObjId
}

// Tree is one level of a tree object: an ordered list of entries.
type Tree struct {
	Entries []TreeEntry
}

// Commit is a commit object: a root tree, zero or more parents, and a
// message. Author/committer identity and timestamp are set by the backend
// at write time; the capability layer does not expose them as inputs
// because nothing in this engine's domain needs caller-supplied identity.
type Commit struct {
	Tree    mawtypes.ObjId
	Parents []mawtypes.ObjId
	Message string
}

// RefEdit is one edit within an atomic multi-ref transaction (§4.1). A
// zero ExpectedOldOid means "this ref must not currently exist"; a zero
// NewOid means "delete this ref".
type RefEdit struct {
	Name           string
	NewOid         mawtypes.ObjId
	ExpectedOldOid mawtypes.ObjId
}

// TreeEditKind discriminates a TreeEdit's operation.
type TreeEditKind string

const (
	TreeEditInsert TreeEditKind = "insert"
	TreeEditDelete TreeEditKind = "delete"
)

// TreeEdit is one insert or delete to apply at an arbitrary nested path
// within edit_tree (§4.1).
type TreeEdit struct {
	Kind TreeEditKind
	Path mawtypes.Path
	Mode Mode           // used by TreeEditInsert
	Oid  mawtypes.ObjId // used by TreeEditInsert
}

// DiffEntry describes one changed path between two trees, as produced by
// DiffTrees. ChangeKind mirrors the A/M/D/R vocabulary §4.9 uses for
// patch-set diffs.
type DiffEntry struct {
	Path       mawtypes.Path
	Kind       ChangeKind
	OldOid     mawtypes.ObjId
	NewOid     mawtypes.ObjId
	RenamedTo  mawtypes.Path // set when Kind == ChangeRename
	OldIsEmpty bool
}

// ChangeKind is the A/M/D/R vocabulary for a single diff entry.
type ChangeKind string

const (
	ChangeAdd    ChangeKind = "add"
	ChangeModify ChangeKind = "modify"
	ChangeDelete ChangeKind = "delete"
	ChangeRename ChangeKind = "rename"
)

// Status summarizes the working tree against its base tree: a list of
// changed paths plus untracked files (§4.9 steps 1-2).
type Status struct {
	Changed   []DiffEntry
	Untracked []mawtypes.Path
}
