package artifact

import (
	"testing"

	"github.com/cuemby/maw/pkg/mawtypes"
	"github.com/cuemby/maw/pkg/merge"
	"github.com/stretchr/testify/require"
)

func testOid(c byte) mawtypes.ObjId {
	b := make([]byte, 40)
	for i := range b {
		b[i] = c
	}
	return mawtypes.MustObjId(string(b))
}

func TestMergePlanWriteReadRoundTrip(t *testing.T) {
	root := t.TempDir()

	plan := merge.MergePlan{
		MergeId:      "deadbeef",
		EpochBefore:  testOid('a'),
		Sources:      []mawtypes.WorkspaceId{mawtypes.MustWorkspaceId("alice"), mawtypes.MustWorkspaceId("bob")},
		TouchedPaths: []mawtypes.Path{"a.txt", "b.txt"},
	}
	doc := NewMergePlanDoc(plan)

	require.NoError(t, WriteMergePlan(root, doc))

	got, err := ReadMergePlan(root, "deadbeef")
	require.NoError(t, err)
	require.Equal(t, doc.MergeId, got.MergeId)
	require.Equal(t, doc.EpochBefore, got.EpochBefore)
	require.Equal(t, doc.Sources, got.Sources)
	require.Equal(t, doc.TouchedPaths, got.TouchedPaths)
	require.Empty(t, got.Overlaps)
	require.Nil(t, got.Drivers)
	require.Nil(t, got.Validation)
}
