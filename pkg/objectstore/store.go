package objectstore

import (
	"context"

	"github.com/cuemby/maw/pkg/mawtypes"
)

// Store is the object-safe capability every other maw package consumes
// (§4.1). It groups refs, revspec resolution, objects, tree editing, the
// index, checkout, and status/diff behind one interface so the engine
// never depends on a concrete backend directly — the same separation the
// teacher draws between pkg/storage.Store and its BoltDB implementation.
//
// Every method is blocking and returns one of the typed errors declared in
// errors.go (or wraps one via errors.As-compatible wrapping).
type Store interface {
	// --- Refs ---

	// ReadRef returns the current value of a ref, or ErrNotFound if it
	// does not exist.
	ReadRef(ctx context.Context, name string) (mawtypes.ObjId, error)

	// ReadRefOpt returns (oid, true, nil) if the ref exists, or
	// (zero, false, nil) if it does not. It never returns ErrNotFound.
	ReadRefOpt(ctx context.Context, name string) (mawtypes.ObjId, bool, error)

	// WriteRef sets a ref unconditionally, recording reflogMsg if the
	// backend supports reflogs.
	WriteRef(ctx context.Context, name string, oid mawtypes.ObjId, reflogMsg string) error

	// DeleteRef removes a ref. Idempotent: deleting an absent ref is not
	// an error.
	DeleteRef(ctx context.Context, name string) error

	// AtomicRefUpdate applies all edits as a single all-or-nothing
	// transaction (§4.1). Returns *RefConflictError naming the first edit
	// whose ExpectedOldOid did not match.
	AtomicRefUpdate(ctx context.Context, edits []RefEdit) error

	// ListRefs lists every ref whose name starts with prefix, sorted by
	// name.
	ListRefs(ctx context.Context, prefix string) ([]RefEntry, error)

	// --- Revspec ---

	// RevParse resolves a revspec (a ref name, an OID, or a backend-native
	// expression like "<ref>~1") to an object id, failing with
	// ErrNotFound if it does not resolve.
	RevParse(ctx context.Context, spec string) (mawtypes.ObjId, error)

	// RevParseOpt is RevParse but returns (zero, false, nil) instead of
	// ErrNotFound.
	RevParseOpt(ctx context.Context, spec string) (mawtypes.ObjId, bool, error)

	// --- Objects ---

	ReadBlob(ctx context.Context, oid mawtypes.ObjId) ([]byte, error)
	ReadTree(ctx context.Context, oid mawtypes.ObjId) (Tree, error)
	ReadCommit(ctx context.Context, oid mawtypes.ObjId) (Commit, error)

	WriteBlob(ctx context.Context, data []byte) (mawtypes.ObjId, error)
	WriteTree(ctx context.Context, tree Tree) (mawtypes.ObjId, error)

	// CreateCommit writes a commit object. If updateRef is non-empty, it
	// also CAS-advances that ref from its current value to the new commit
	// (failing with *RefConflictError on a concurrent mutation).
	CreateCommit(ctx context.Context, tree mawtypes.ObjId, parents []mawtypes.ObjId, message string, updateRef string) (mawtypes.ObjId, error)

	// --- Tree editing ---

	// EditTree applies a batch of inserts/deletes at arbitrary nested
	// paths against base, returning the resulting tree's root object id.
	// base may be the zero ObjId to build a tree from nothing.
	EditTree(ctx context.Context, base mawtypes.ObjId, edits []TreeEdit) (mawtypes.ObjId, error)

	// --- Index ---

	ReadIndex(ctx context.Context) (Tree, error)
	WriteIndex(ctx context.Context, tree Tree) error

	// --- Checkout ---

	// CheckoutTree materializes tree into workdir, removing any tracked
	// file not present in tree.
	CheckoutTree(ctx context.Context, oid mawtypes.ObjId, workdir string) error

	// --- Status / Diff ---

	IsDirty(ctx context.Context, workdir string, base mawtypes.ObjId) (bool, error)
	Status(ctx context.Context, workdir string, base mawtypes.ObjId) (Status, error)
	DiffTrees(ctx context.Context, oldOid, newOid mawtypes.ObjId) ([]DiffEntry, error)

	// --- Ancestry ---

	// IsAncestor reports whether ancestor is reachable from descendant by
	// following first-parent and merge-parent links.
	IsAncestor(ctx context.Context, ancestor, descendant mawtypes.ObjId) (bool, error)

	// --- Worktrees / Stash / Push / Config ---

	// AddWorktree creates a new working directory checked out at oid.
	AddWorktree(ctx context.Context, path string, oid mawtypes.ObjId) error
	RemoveWorktree(ctx context.Context, path string) error

	// Stash captures the dirty state of workdir into a commit without
	// touching any ref (used by workspace destroy's dirty-snapshot
	// capture path, §4.10-§4.11). Returns the snapshot commit's oid.
	Stash(ctx context.Context, workdir string, base mawtypes.ObjId, message string) (mawtypes.ObjId, error)

	// Push pushes refSpec to remote. *PushFailedError on failure.
	Push(ctx context.Context, remote string, refSpec string) error

	// Config reads a backend-native config value (e.g. "user.name"),
	// returning ("", false, nil) if unset.
	Config(ctx context.Context, key string) (string, bool, error)
}

// RefEntry is one (name, oid) pair returned by ListRefs.
type RefEntry struct {
	Name string
	Oid  mawtypes.ObjId
}
