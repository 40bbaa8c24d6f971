package gitbackend

import (
	"context"
	"testing"

	"github.com/cuemby/maw/pkg/mawtypes"
	"github.com/cuemby/maw/pkg/objectstore"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) *Repo {
	t.Helper()
	r, err := Init(t.TempDir(), false)
	require.NoError(t, err)
	return r
}

func TestWriteReadBlobRoundTrip(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo(t)

	oid, err := r.WriteBlob(ctx, []byte("hello"))
	require.NoError(t, err)

	data, err := r.ReadBlob(ctx, oid)
	require.NoError(t, err)
	require.Equal(t, "hello", string(data))
}

func TestEditTreeInsertsNestedPaths(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo(t)

	blobA, err := r.WriteBlob(ctx, []byte("a"))
	require.NoError(t, err)
	blobB, err := r.WriteBlob(ctx, []byte("b"))
	require.NoError(t, err)

	treeOid, err := r.EditTree(ctx, mawtypes.ZeroOID, []objectstore.TreeEdit{
		{Kind: objectstore.TreeEditInsert, Path: "top.txt", Mode: objectstore.ModeFile, Oid: blobA},
		{Kind: objectstore.TreeEditInsert, Path: "dir/nested.txt", Mode: objectstore.ModeFile, Oid: blobB},
	})
	require.NoError(t, err)
	require.False(t, treeOid.IsZero())

	tree, err := r.ReadTree(ctx, treeOid)
	require.NoError(t, err)
	require.Len(t, tree.Entries, 2)

	var dirEntry *objectstore.TreeEntry
	for i := range tree.Entries {
		if tree.Entries[i].Name == "dir" {
			dirEntry = &tree.Entries[i]
		}
	}
	require.NotNil(t, dirEntry)
	require.True(t, dirEntry.Mode.IsTree())

	subtree, err := r.ReadTree(ctx, dirEntry.Oid)
	require.NoError(t, err)
	require.Len(t, subtree.Entries, 1)
	require.Equal(t, mawtypes.Path("nested.txt"), subtree.Entries[0].Name)
}

func TestEditTreeDeleteDropsEmptySubtree(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo(t)

	blob, err := r.WriteBlob(ctx, []byte("x"))
	require.NoError(t, err)

	treeOid, err := r.EditTree(ctx, mawtypes.ZeroOID, []objectstore.TreeEdit{
		{Kind: objectstore.TreeEditInsert, Path: "dir/only.txt", Mode: objectstore.ModeFile, Oid: blob},
	})
	require.NoError(t, err)

	treeOid, err = r.EditTree(ctx, treeOid, []objectstore.TreeEdit{
		{Kind: objectstore.TreeEditDelete, Path: "dir/only.txt"},
	})
	require.NoError(t, err)
	require.True(t, treeOid.IsZero())
}

func TestCreateCommitAndRevParse(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo(t)

	blob, err := r.WriteBlob(ctx, []byte("content"))
	require.NoError(t, err)
	tree, err := r.EditTree(ctx, mawtypes.ZeroOID, []objectstore.TreeEdit{
		{Kind: objectstore.TreeEditInsert, Path: "f.txt", Mode: objectstore.ModeFile, Oid: blob},
	})
	require.NoError(t, err)

	commitOid, err := r.CreateCommit(ctx, tree, nil, "initial", "epoch/current")
	require.NoError(t, err)

	resolved, err := r.RevParse(ctx, "epoch/current")
	require.NoError(t, err)
	require.Equal(t, commitOid, resolved)

	commit, err := r.ReadCommit(ctx, commitOid)
	require.NoError(t, err)
	require.Equal(t, tree, commit.Tree)
	require.Empty(t, commit.Parents)
}

func TestAtomicRefUpdateRollsBackOnConflict(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo(t)

	oidA := mawtypes.HashBytes("blob", []byte("a"))
	oidB := mawtypes.HashBytes("blob", []byte("b"))
	oidC := mawtypes.HashBytes("blob", []byte("c"))

	require.NoError(t, r.WriteRef(ctx, "head/alice", oidA, ""))

	err := r.AtomicRefUpdate(ctx, []objectstore.RefEdit{
		{Name: "head/alice", NewOid: oidB, ExpectedOldOid: oidA},
		{Name: "head/bob", NewOid: oidC, ExpectedOldOid: oidB}, // wrong expected old: bob doesn't exist
	})
	require.Error(t, err)
	require.IsType(t, &objectstore.RefConflictError{}, err)

	// alice's ref must have been rolled back to its pre-transaction value.
	cur, err := r.ReadRef(ctx, "head/alice")
	require.NoError(t, err)
	require.Equal(t, oidA, cur)

	_, ok, err := r.ReadRefOpt(ctx, "head/bob")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestDiffTreesDetectsAddModifyDeleteRename(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo(t)

	blobKeep, _ := r.WriteBlob(ctx, []byte("keep"))
	blobOld, _ := r.WriteBlob(ctx, []byte("old"))
	blobNew, _ := r.WriteBlob(ctx, []byte("new"))
	blobMoved, _ := r.WriteBlob(ctx, []byte("moved"))

	oldTree, err := r.EditTree(ctx, mawtypes.ZeroOID, []objectstore.TreeEdit{
		{Kind: objectstore.TreeEditInsert, Path: "keep.txt", Mode: objectstore.ModeFile, Oid: blobKeep},
		{Kind: objectstore.TreeEditInsert, Path: "modified.txt", Mode: objectstore.ModeFile, Oid: blobOld},
		{Kind: objectstore.TreeEditInsert, Path: "from.txt", Mode: objectstore.ModeFile, Oid: blobMoved},
	})
	require.NoError(t, err)

	newTree, err := r.EditTree(ctx, oldTree, []objectstore.TreeEdit{
		{Kind: objectstore.TreeEditInsert, Path: "modified.txt", Mode: objectstore.ModeFile, Oid: blobNew},
		{Kind: objectstore.TreeEditDelete, Path: "from.txt"},
		{Kind: objectstore.TreeEditInsert, Path: "to.txt", Mode: objectstore.ModeFile, Oid: blobMoved},
	})
	require.NoError(t, err)

	diffs, err := r.DiffTrees(ctx, oldTree, newTree)
	require.NoError(t, err)

	byPath := map[string]objectstore.DiffEntry{}
	for _, d := range diffs {
		byPath[d.Path.String()] = d
	}

	require.Equal(t, objectstore.ChangeModify, byPath["modified.txt"].Kind)
	require.Equal(t, objectstore.ChangeRename, byPath["from.txt"].Kind)
	require.Equal(t, mawtypes.Path("to.txt"), byPath["from.txt"].RenamedTo)
	_, stillPresent := byPath["keep.txt"]
	require.False(t, stillPresent)
}
