package merge

import (
	"context"
	"testing"

	"github.com/cuemby/maw/pkg/mawtypes"
	"github.com/cuemby/maw/pkg/patch"
	"github.com/stretchr/testify/require"
)

func TestComputeMergeIDIsOrderIndependent(t *testing.T) {
	epoch := testOid('e')
	alice := CollectedWorkspace{WorkspaceId: testWs("alice"), Head: testOid('1')}
	bob := CollectedWorkspace{WorkspaceId: testWs("bob"), Head: testOid('2')}

	id1 := ComputeMergeID(epoch, []CollectedWorkspace{alice, bob})
	id2 := ComputeMergeID(epoch, []CollectedWorkspace{bob, alice})

	require.Equal(t, id1, id2)
	require.Len(t, id1, 64)
}

func TestComputeMergeIDDiffersOnDifferentHead(t *testing.T) {
	epoch := testOid('e')
	alice := CollectedWorkspace{WorkspaceId: testWs("alice"), Head: testOid('1')}
	aliceMoved := CollectedWorkspace{WorkspaceId: testWs("alice"), Head: testOid('9')}
	bob := CollectedWorkspace{WorkspaceId: testWs("bob"), Head: testOid('2')}

	id1 := ComputeMergeID(epoch, []CollectedWorkspace{alice, bob})
	id2 := ComputeMergeID(epoch, []CollectedWorkspace{aliceMoved, bob})

	require.NotEqual(t, id1, id2)
}

func TestComputePlanReportsTouchedAndOverlaps(t *testing.T) {
	alice := collectedFrom(testWs("alice"), map[mawtypes.Path]patch.PatchValue{
		"a.txt": patch.Add(testOid('1'), testFileId(1)),
		"c.txt": patch.Add(testOid('3'), testFileId(3)),
	})
	bob := collectedFrom(testWs("bob"), map[mawtypes.Path]patch.PatchValue{
		"b.txt": patch.Add(testOid('2'), testFileId(2)),
		"c.txt": patch.Add(testOid('4'), testFileId(4)),
	})

	partition := PartitionByPath([]CollectedWorkspace{alice, bob})
	aware := ApplyRenameAwareness(partition)
	resolved, err := Resolve(context.Background(), nil, mawtypes.ObjId{}, aware)
	require.NoError(t, err)

	plan := ComputePlan(testOid('e'), []CollectedWorkspace{alice, bob}, aware, resolved)

	require.Len(t, plan.MergeId, 64)
	require.Equal(t, testOid('e'), plan.EpochBefore)
	require.Equal(t, []mawtypes.Path{"a.txt", "b.txt", "c.txt"}, plan.TouchedPaths)
	require.Equal(t, []mawtypes.Path{"c.txt"}, plan.Overlaps)
	require.Len(t, plan.PredictedConflicts, 1)
}
