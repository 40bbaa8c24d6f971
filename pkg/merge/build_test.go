package merge

import (
	"context"
	"testing"

	"github.com/cuemby/maw/pkg/mawtypes"
	"github.com/cuemby/maw/pkg/objectstore"
	"github.com/stretchr/testify/require"
)

func TestBuildAppliesUpsertsAndDeletes(t *testing.T) {
	ctx := context.Background()
	r := newResolveRepo(t)

	keepBlob, err := r.WriteBlob(ctx, []byte("keep"))
	require.NoError(t, err)
	removeBlob, err := r.WriteBlob(ctx, []byte("remove me"))
	require.NoError(t, err)
	baseTree, err := r.EditTree(ctx, mawtypes.ObjId{}, []objectstore.TreeEdit{
		{Kind: objectstore.TreeEditInsert, Path: "keep.txt", Mode: objectstore.ModeFile, Oid: keepBlob},
		{Kind: objectstore.TreeEditInsert, Path: "remove.txt", Mode: objectstore.ModeFile, Oid: removeBlob},
	})
	require.NoError(t, err)

	newBlob, err := r.WriteBlob(ctx, []byte("new"))
	require.NoError(t, err)

	changes := []ResolvedChange{
		{Op: ChangeDelete, Path: "remove.txt"},
		{Op: ChangeUpsert, Path: "added.txt", Blob: newBlob},
	}

	commitOid, err := Build(ctx, r, baseTree, changes, nil, "epoch: merge test")
	require.NoError(t, err)
	require.False(t, commitOid.IsZero())

	commit, err := r.ReadCommit(ctx, commitOid)
	require.NoError(t, err)
	require.Equal(t, "epoch: merge test", commit.Message)

	tree, err := r.ReadTree(ctx, commit.Tree)
	require.NoError(t, err)

	names := map[string]mawtypes.ObjId{}
	for _, e := range tree.Entries {
		names[string(e.Name)] = e.Oid
	}
	require.Contains(t, names, "keep.txt")
	require.Contains(t, names, "added.txt")
	require.NotContains(t, names, "remove.txt")
	require.Equal(t, newBlob, names["added.txt"])
}
