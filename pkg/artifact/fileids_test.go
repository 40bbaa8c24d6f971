package artifact

import (
	"path/filepath"
	"testing"

	"github.com/cuemby/maw/pkg/mawtypes"
	"github.com/stretchr/testify/require"
)

func TestFileIDMapRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fileids")

	alloc := mawtypes.NewMapAllocator()
	alloc.Set("a.txt", mawtypes.FileId{1})
	alloc.Set("b.txt", mawtypes.FileId{2})

	require.NoError(t, WriteFileIDMap(path, alloc))

	loaded, err := ReadFileIDMap(path)
	require.NoError(t, err)
	snapshot := loaded.Snapshot()
	require.Equal(t, mawtypes.FileId{1}, snapshot["a.txt"])
	require.Equal(t, mawtypes.FileId{2}, snapshot["b.txt"])
}

func TestReadFileIDMapMissingYieldsEmptyAllocator(t *testing.T) {
	dir := t.TempDir()
	loaded, err := ReadFileIDMap(filepath.Join(dir, "absent"))
	require.NoError(t, err)
	require.Empty(t, loaded.Snapshot())
}
