package patch

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/cuemby/maw/pkg/mawtypes"
	"github.com/cuemby/maw/pkg/objectstore"
	"github.com/cuemby/maw/pkg/objectstore/gitbackend"
	"github.com/stretchr/testify/require"
)

func TestDiffProducesAddModifyDeleteRename(t *testing.T) {
	ctx := context.Background()
	r, err := gitbackend.Init(t.TempDir(), false)
	require.NoError(t, err)

	blobKeep, err := r.WriteBlob(ctx, []byte("keep"))
	require.NoError(t, err)
	blobOld, err := r.WriteBlob(ctx, []byte("old"))
	require.NoError(t, err)
	blobMoved, err := r.WriteBlob(ctx, []byte("moved"))
	require.NoError(t, err)

	baseTree, err := r.EditTree(ctx, mawtypes.ZeroOID, []objectstore.TreeEdit{
		{Kind: objectstore.TreeEditInsert, Path: "keep.txt", Mode: objectstore.ModeFile, Oid: blobKeep},
		{Kind: objectstore.TreeEditInsert, Path: "modified.txt", Mode: objectstore.ModeFile, Oid: blobOld},
		{Kind: objectstore.TreeEditInsert, Path: "from.txt", Mode: objectstore.ModeFile, Oid: blobMoved},
	})
	require.NoError(t, err)

	epochOid, err := r.CreateCommit(ctx, baseTree, nil, "base", "")
	require.NoError(t, err)

	workdir := t.TempDir()
	write := func(name, content string) {
		require.NoError(t, os.WriteFile(filepath.Join(workdir, name), []byte(content), 0o644))
	}
	write("keep.txt", "keep")
	write("modified.txt", "new")
	write("to.txt", "moved") // renamed from from.txt, identical content
	write("untracked.txt", "fresh")

	allocator := mawtypes.NewMapAllocator()
	ps, err := Diff(ctx, r, workdir, epochOid, allocator)
	require.NoError(t, err)
	require.Equal(t, epochOid, ps.BaseEpoch)

	modified, ok := ps.Patches["modified.txt"]
	require.True(t, ok)
	require.Equal(t, KindModify, modified.Kind)
	require.Equal(t, blobOld, modified.BaseBlob)

	renamed, ok := ps.Patches["to.txt"]
	require.True(t, ok)
	require.Equal(t, KindRename, renamed.Kind)
	require.Equal(t, mawtypes.Path("from.txt"), renamed.From)
	require.True(t, renamed.RenameSameContent)

	added, ok := ps.Patches["untracked.txt"]
	require.True(t, ok)
	require.Equal(t, KindAdd, added.Kind)

	_, stillPresent := ps.Patches["keep.txt"]
	require.False(t, stillPresent, "unchanged file must not appear in the patch-set")
	_, fromStillPresent := ps.Patches["from.txt"]
	require.False(t, fromStillPresent, "rename source consumed into the destination entry")
}

func TestDiffDeleteWithoutRenamePair(t *testing.T) {
	ctx := context.Background()
	r, err := gitbackend.Init(t.TempDir(), false)
	require.NoError(t, err)

	blob, err := r.WriteBlob(ctx, []byte("gone"))
	require.NoError(t, err)
	baseTree, err := r.EditTree(ctx, mawtypes.ZeroOID, []objectstore.TreeEdit{
		{Kind: objectstore.TreeEditInsert, Path: "gone.txt", Mode: objectstore.ModeFile, Oid: blob},
	})
	require.NoError(t, err)
	epochOid, err := r.CreateCommit(ctx, baseTree, nil, "base", "")
	require.NoError(t, err)

	workdir := t.TempDir()

	ps, err := Diff(ctx, r, workdir, epochOid, mawtypes.NewMapAllocator())
	require.NoError(t, err)

	del, ok := ps.Patches["gone.txt"]
	require.True(t, ok)
	require.Equal(t, KindDelete, del.Kind)
	require.Equal(t, blob, del.PreviousBlob)
}
