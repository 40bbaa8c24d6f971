package workspace

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cuemby/maw/pkg/artifact"
	"github.com/cuemby/maw/pkg/mawtypes"
	"github.com/stretchr/testify/require"
)

func TestDestroyCleanThenRecover(t *testing.T) {
	ctx := context.Background()
	r, dir := newRepo(t)
	epoch := writeEpoch(t, ctx, r, map[string]string{"a.txt": "hello"})

	ws := mawtypes.MustWorkspaceId("alice")
	rootOid, err := Create(ctx, r, ws, epoch, dir, time.Unix(0, 0).UTC())
	require.NoError(t, err)

	artifactRoot := t.TempDir()
	record, err := Destroy(ctx, r, ws, dir, artifactRoot, epoch, rootOid, artifact.DestroyReasonDestroy, "test", time.Unix(10, 0).UTC())
	require.NoError(t, err)
	require.Equal(t, artifact.CaptureHeadOnly, record.CaptureMode)
	require.Empty(t, record.DirtyFiles)

	_, err = os.Stat(dir)
	require.True(t, os.IsNotExist(err))
	_, err = r.ReadRef(ctx, "head/"+ws.String())
	require.Error(t, err)

	newHead, recovered, err := Recover(ctx, r, ws, dir, artifactRoot, time.Unix(20, 0).UTC())
	require.NoError(t, err)
	require.False(t, newHead.IsZero())
	require.Equal(t, epoch, recovered.BaseEpoch)

	data, err := os.ReadFile(filepath.Join(dir, "a.txt"))
	require.NoError(t, err)
	require.Equal(t, "hello", string(data))
}

func TestDestroyDirtyPreservesContentOnRecover(t *testing.T) {
	ctx := context.Background()
	r, dir := newRepo(t)
	epoch := writeEpoch(t, ctx, r, map[string]string{"draft.md": "original"})

	ws := mawtypes.MustWorkspaceId("w")
	rootOid, err := Create(ctx, r, ws, epoch, dir, time.Unix(0, 0).UTC())
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "draft.md"), []byte("uncommitted edit"), 0o644))

	artifactRoot := t.TempDir()
	record, err := Destroy(ctx, r, ws, dir, artifactRoot, epoch, rootOid, artifact.DestroyReasonDestroy, "test", time.Unix(10, 0).UTC())
	require.NoError(t, err)
	require.Equal(t, artifact.CaptureDirtySnapshot, record.CaptureMode)
	require.Equal(t, []mawtypes.Path{"draft.md"}, record.DirtyFiles)
	require.NotNil(t, record.SnapshotOid)

	_, newRecord, err := Recover(ctx, r, ws, dir, artifactRoot, time.Unix(20, 0).UTC())
	require.NoError(t, err)
	require.Equal(t, record.SnapshotOid, newRecord.SnapshotOid)

	data, err := os.ReadFile(filepath.Join(dir, "draft.md"))
	require.NoError(t, err)
	require.Equal(t, "uncommitted edit", string(data))
}
