package workspace

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cuemby/maw/pkg/mawtypes"
	"github.com/cuemby/maw/pkg/oplog"
	"github.com/stretchr/testify/require"
)

func TestSnapshotAppendsOpWhenDirty(t *testing.T) {
	ctx := context.Background()
	r, dir := newRepo(t)
	epoch := writeEpoch(t, ctx, r, map[string]string{"a.txt": "hello"})

	ws := mawtypes.MustWorkspaceId("alice")
	rootOid, err := Create(ctx, r, ws, epoch, dir, time.Unix(0, 0).UTC())
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("changed"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("new"), 0o644))

	alloc := mawtypes.NewMapAllocator()
	result, err := Snapshot(ctx, r, ws, dir, epoch, alloc, rootOid, time.Unix(1, 0).UTC())
	require.NoError(t, err)
	require.True(t, result.Changed)
	require.Equal(t, 2, result.PatchSet.Len())
	require.NotEqual(t, rootOid, result.NewHead)

	entries, err := oplog.WalkChain(ctx, r, ws, func(oplog.Operation) bool { return true })
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, oplog.PayloadSnapshot, entries[0].Op.Payload.Kind)
}

func TestSnapshotNoOpWhenClean(t *testing.T) {
	ctx := context.Background()
	r, dir := newRepo(t)
	epoch := writeEpoch(t, ctx, r, map[string]string{"a.txt": "hello"})

	ws := mawtypes.MustWorkspaceId("alice")
	rootOid, err := Create(ctx, r, ws, epoch, dir, time.Unix(0, 0).UTC())
	require.NoError(t, err)

	alloc := mawtypes.NewMapAllocator()
	result, err := Snapshot(ctx, r, ws, dir, epoch, alloc, rootOid, time.Unix(1, 0).UTC())
	require.NoError(t, err)
	require.False(t, result.Changed)
	require.Equal(t, rootOid, result.NewHead)

	entries, err := oplog.WalkChain(ctx, r, ws, func(oplog.Operation) bool { return true })
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestReportPersistsTouchedPaths(t *testing.T) {
	ctx := context.Background()
	r, dir := newRepo(t)
	epoch := writeEpoch(t, ctx, r, map[string]string{"a.txt": "hello"})

	ws := mawtypes.MustWorkspaceId("alice")
	_, err := Create(ctx, r, ws, epoch, dir, time.Unix(0, 0).UTC())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("new"), 0o644))

	root := t.TempDir()
	alloc := mawtypes.NewMapAllocator()
	report, err := Report(ctx, r, root, ws, dir, epoch, epoch, alloc)
	require.NoError(t, err)
	require.False(t, report.IsStale)
	require.Equal(t, []mawtypes.Path{"b.txt"}, report.TouchedPaths)
}
