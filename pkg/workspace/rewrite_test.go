package workspace

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cuemby/maw/pkg/mawtypes"
	"github.com/stretchr/testify/require"
)

func TestRewriteFastPathWhenClean(t *testing.T) {
	ctx := context.Background()
	r, dir := newRepo(t)
	base := writeEpoch(t, ctx, r, map[string]string{"a.txt": "hello"})
	target := writeEpoch(t, ctx, r, map[string]string{"a.txt": "hello", "b.txt": "new"})

	require.NoError(t, r.CheckoutTree(ctx, base, dir))

	ws := mawtypes.MustWorkspaceId("alice")
	result, err := Rewrite(ctx, r, ws, dir, base, target, time.Unix(0, 0).UTC())
	require.NoError(t, err)
	require.True(t, result.FastPath)
	require.Empty(t, result.PinRef)

	data, err := os.ReadFile(filepath.Join(dir, "b.txt"))
	require.NoError(t, err)
	require.Equal(t, "new", string(data))
}

func TestRewriteReplaysOurEditUntouchedByTarget(t *testing.T) {
	ctx := context.Background()
	r, dir := newRepo(t)
	base := writeEpoch(t, ctx, r, map[string]string{"a.txt": "hello", "b.txt": "stable"})
	target := writeEpoch(t, ctx, r, map[string]string{"a.txt": "hello from target", "b.txt": "stable"})

	require.NoError(t, r.CheckoutTree(ctx, base, dir))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("our edit"), 0o644))

	ws := mawtypes.MustWorkspaceId("alice")
	result, err := Rewrite(ctx, r, ws, dir, base, target, time.Unix(0, 0).UTC())
	require.NoError(t, err)
	require.False(t, result.FastPath)
	require.Empty(t, result.Conflicts)
	require.False(t, result.RolledBack)

	a, err := os.ReadFile(filepath.Join(dir, "a.txt"))
	require.NoError(t, err)
	require.Equal(t, "hello from target", string(a))

	b, err := os.ReadFile(filepath.Join(dir, "b.txt"))
	require.NoError(t, err)
	require.Equal(t, "our edit", string(b))
}

func TestRewriteRollsBackOnContentConflict(t *testing.T) {
	ctx := context.Background()
	r, dir := newRepo(t)
	base := writeEpoch(t, ctx, r, map[string]string{"a.txt": "base"})
	target := writeEpoch(t, ctx, r, map[string]string{"a.txt": "target changed it"})

	require.NoError(t, r.CheckoutTree(ctx, base, dir))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("our changed it"), 0o644))

	ws := mawtypes.MustWorkspaceId("alice")
	result, err := Rewrite(ctx, r, ws, dir, base, target, time.Unix(0, 0).UTC())
	require.Error(t, err)
	require.True(t, result.RolledBack)
	require.Len(t, result.Conflicts, 1)
	require.Equal(t, RewriteContent, result.Conflicts[0].Kind)
	require.Equal(t, mawtypes.Path("a.txt"), result.Conflicts[0].Path)
	require.NotEmpty(t, result.PinRef)

	data, err := os.ReadFile(filepath.Join(dir, "a.txt"))
	require.NoError(t, err)
	require.Equal(t, "our changed it", string(data), "rollback restores the dirty recovery pin, not the pre-rewrite base")
}
