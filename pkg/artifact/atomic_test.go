package artifact

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteAtomicCreatesFileAndDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "out.json")

	require.NoError(t, WriteAtomic(path, []byte("hello"), 0o644))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "hello", string(data))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	for _, e := range entries {
		require.False(t, filepath.Ext(e.Name()) == ".tmp", "leftover tmp file: %s", e.Name())
	}
}

func TestWriteAtomicOverwritesExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.json")

	require.NoError(t, WriteAtomic(path, []byte("first"), 0o644))
	require.NoError(t, WriteAtomic(path, []byte("second"), 0o644))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "second", string(data))
}

type sample struct {
	Name string `json:"name"`
}

func TestWriteJSONAtomicRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sample.json")

	require.NoError(t, WriteJSONAtomic(path, sample{Name: "alice"}))

	var got sample
	require.NoError(t, ReadJSON(path, &got))
	require.Equal(t, "alice", got.Name)
}

func TestReadJSONMissingFileSurfacesNotExist(t *testing.T) {
	dir := t.TempDir()
	var got sample
	err := ReadJSON(filepath.Join(dir, "absent.json"), &got)
	require.True(t, os.IsNotExist(err))
}
