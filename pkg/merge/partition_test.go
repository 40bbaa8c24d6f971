package merge

import (
	"testing"

	"github.com/cuemby/maw/pkg/mawtypes"
	"github.com/cuemby/maw/pkg/patch"
	"github.com/stretchr/testify/require"
)

func collectedFrom(ws mawtypes.WorkspaceId, patches map[mawtypes.Path]patch.PatchValue) CollectedWorkspace {
	return CollectedWorkspace{
		WorkspaceId: ws,
		PatchSet:    patch.PatchSet{BaseEpoch: testOid('e'), Patches: patches},
		Timestamp:   testKey(ws, 1),
	}
}

func TestPartitionByPathSplitsUniqueAndShared(t *testing.T) {
	alice := collectedFrom(testWs("alice"), map[mawtypes.Path]patch.PatchValue{
		"a.txt": patch.Add(testOid('1'), testFileId(1)),
		"c.txt": patch.Add(testOid('3'), testFileId(3)),
	})
	bob := collectedFrom(testWs("bob"), map[mawtypes.Path]patch.PatchValue{
		"b.txt": patch.Add(testOid('2'), testFileId(2)),
		"c.txt": patch.Add(testOid('4'), testFileId(3)),
	})

	result := PartitionByPath([]CollectedWorkspace{alice, bob})

	require.Equal(t, 2, result.UniqueCount())
	require.Equal(t, 1, result.SharedCount())
	require.False(t, result.IsConflictFree())

	require.Equal(t, mawtypes.Path("a.txt"), result.Unique[0].Path)
	require.Equal(t, mawtypes.Path("b.txt"), result.Unique[1].Path)

	require.Equal(t, mawtypes.Path("c.txt"), result.Shared[0].Path)
	require.Len(t, result.Shared[0].Entries, 2)
	require.Equal(t, testWs("alice"), result.Shared[0].Entries[0].WorkspaceId)
	require.Equal(t, testWs("bob"), result.Shared[0].Entries[1].WorkspaceId)
}

func TestPartitionByPathNoOverlapIsConflictFree(t *testing.T) {
	alice := collectedFrom(testWs("alice"), map[mawtypes.Path]patch.PatchValue{
		"a.txt": patch.Add(testOid('1'), testFileId(1)),
	})
	bob := collectedFrom(testWs("bob"), map[mawtypes.Path]patch.PatchValue{
		"b.txt": patch.Add(testOid('2'), testFileId(2)),
	})

	result := PartitionByPath([]CollectedWorkspace{alice, bob})
	require.True(t, result.IsConflictFree())
	require.Equal(t, 2, result.TotalPathCount())
}
