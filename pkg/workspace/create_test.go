package workspace

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cuemby/maw/pkg/artifact"
	"github.com/cuemby/maw/pkg/mawtypes"
	"github.com/cuemby/maw/pkg/objectstore"
	"github.com/cuemby/maw/pkg/objectstore/gitbackend"
	"github.com/cuemby/maw/pkg/oplog"
	"github.com/cuemby/maw/pkg/refs"
	"github.com/stretchr/testify/require"
)

// newRepo returns a Repo whose own worktree root doubles as the test's
// workdir — the only configuration gitbackend's current CheckoutTree
// honors (see DESIGN.md's pkg/workspace entry).
func newRepo(t *testing.T) (*gitbackend.Repo, string) {
	t.Helper()
	dir := t.TempDir()
	r, err := gitbackend.Init(dir, false)
	require.NoError(t, err)
	return r, dir
}

func writeEpoch(t *testing.T, ctx context.Context, r *gitbackend.Repo, files map[string]string) mawtypes.ObjId {
	t.Helper()
	var edits []objectstore.TreeEdit
	for name, content := range files {
		blob, err := r.WriteBlob(ctx, []byte(content))
		require.NoError(t, err)
		edits = append(edits, objectstore.TreeEdit{Kind: objectstore.TreeEditInsert, Path: mawtypes.Path(name), Mode: objectstore.ModeFile, Oid: blob})
	}
	tree, err := r.EditTree(ctx, mawtypes.ZeroOID, edits)
	require.NoError(t, err)
	epoch, err := r.CreateCommit(ctx, tree, nil, "epoch: init", "")
	require.NoError(t, err)
	return epoch
}

func TestCreateMaterializesEpochAndAppendsRootOp(t *testing.T) {
	ctx := context.Background()
	r, dir := newRepo(t)
	epoch := writeEpoch(t, ctx, r, map[string]string{"a.txt": "hello"})

	ws := mawtypes.MustWorkspaceId("alice")
	rootOid, err := Create(ctx, r, ws, epoch, dir, time.Unix(0, 0).UTC())
	require.NoError(t, err)
	require.False(t, rootOid.IsZero())

	data, err := os.ReadFile(filepath.Join(dir, "a.txt"))
	require.NoError(t, err)
	require.Equal(t, "hello", string(data))

	gotEpoch, err := r.ReadRef(ctx, refs.WorkspaceEpochRef(ws))
	require.NoError(t, err)
	require.Equal(t, epoch, gotEpoch)

	pointer, err := artifact.ReadEpochPointer(dir)
	require.NoError(t, err)
	require.Equal(t, epoch, pointer)

	entries, err := oplog.WalkChain(ctx, r, ws, func(oplog.Operation) bool { return true })
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, oplog.PayloadCreate, entries[0].Op.Payload.Kind)
}

func TestCreateRejectsExistingWorkspaceEpochRef(t *testing.T) {
	ctx := context.Background()
	r, dir := newRepo(t)
	epoch := writeEpoch(t, ctx, r, map[string]string{"a.txt": "hello"})

	ws := mawtypes.MustWorkspaceId("alice")
	_, err := Create(ctx, r, ws, epoch, dir, time.Unix(0, 0).UTC())
	require.NoError(t, err)

	_, err = Create(ctx, r, ws, epoch, dir, time.Unix(1, 0).UTC())
	require.Error(t, err)
}
