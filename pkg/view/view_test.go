package view

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/cuemby/maw/pkg/mawtypes"
	"github.com/cuemby/maw/pkg/objectstore/gitbackend"
	"github.com/cuemby/maw/pkg/oplog"
	"github.com/cuemby/maw/pkg/patch"
	"github.com/stretchr/testify/require"
)

func testOid(c byte) mawtypes.ObjId {
	b := make([]byte, 40)
	for i := range b {
		b[i] = c
	}
	return mawtypes.MustObjId(string(b))
}

func testWs(s string) mawtypes.WorkspaceId {
	return mawtypes.MustWorkspaceId(s)
}

func testFileId(v byte) mawtypes.FileId {
	var id mawtypes.FileId
	for i := range id {
		id[i] = v
	}
	return id
}

func testPatchSet(epochChar byte) patch.PatchSet {
	ps := patch.Empty(testOid(epochChar))
	ps.Patches[mawtypes.Path("src/main.rs")] = patch.Add(testOid('f'), testFileId(1))
	return ps
}

func TestEmptyView(t *testing.T) {
	v := Empty(testWs("test"))
	require.Equal(t, testWs("test"), v.WorkspaceId)
	require.Nil(t, v.Epoch)
	require.Nil(t, v.PatchSet)
	require.Nil(t, v.Description)
	require.Empty(t, v.Annotations)
	require.Equal(t, 0, v.OpCount)
	require.False(t, v.IsDestroyed)
	require.False(t, v.HasChanges())
}

func TestViewDisplay(t *testing.T) {
	v := Empty(testWs("agent-1"))
	epoch := testOid('a')
	v.Epoch = &epoch
	v.OpCount = 5
	s := v.String()
	require.Contains(t, s, "agent-1")
	require.Contains(t, s, "5 ops")
}

func TestViewDisplayDestroyed(t *testing.T) {
	v := Empty(testWs("ws-1"))
	v.IsDestroyed = true
	v.OpCount = 3
	require.Contains(t, v.String(), "DESTROYED")
}

func mockReader(ps patch.PatchSet) ReadPatchSet {
	return func(ctx context.Context, oid mawtypes.ObjId) (patch.PatchSet, error) {
		return ps, nil
	}
}

func entry(oid mawtypes.ObjId, op oplog.Operation) oplog.Entry {
	return oplog.Entry{Oid: oid, Op: op}
}

func TestMaterializeFromEntriesCreate(t *testing.T) {
	ctx := context.Background()
	epoch := testOid('a')
	entries := []oplog.Entry{
		entry(testOid('1'), oplog.NewOperation(nil, testWs("ws-1"), time.Unix(0, 0), oplog.Create(epoch))),
	}
	v, err := MaterializeFromEntries(ctx, testWs("ws-1"), entries, mockReader(testPatchSet('a')))
	require.NoError(t, err)
	require.Equal(t, &epoch, v.Epoch)
	require.Nil(t, v.PatchSet)
	require.Equal(t, 1, v.OpCount)
	require.False(t, v.IsDestroyed)
}

func TestMaterializeFromEntriesSnapshot(t *testing.T) {
	ctx := context.Background()
	epoch := testOid('a')
	ps := testPatchSet('a')
	snapOid := testOid('d')
	entries := []oplog.Entry{
		entry(testOid('1'), oplog.NewOperation(nil, testWs("ws-1"), time.Unix(0, 0), oplog.Create(epoch))),
		entry(testOid('2'), oplog.NewOperation([]mawtypes.ObjId{testOid('1')}, testWs("ws-1"), time.Unix(1, 0), oplog.Snapshot(snapOid))),
	}
	v, err := MaterializeFromEntries(ctx, testWs("ws-1"), entries, mockReader(ps))
	require.NoError(t, err)
	require.Equal(t, &epoch, v.Epoch)
	require.NotNil(t, v.PatchSet)
	require.Equal(t, ps, *v.PatchSet)
	require.Equal(t, snapOid, *v.PatchSetOid)
	require.Equal(t, 2, v.OpCount)
}

func TestMaterializeCompensateClearsPatchSet(t *testing.T) {
	ctx := context.Background()
	epoch := testOid('a')
	ps := testPatchSet('a')
	entries := []oplog.Entry{
		entry(testOid('1'), oplog.NewOperation(nil, testWs("ws-1"), time.Unix(0, 0), oplog.Create(epoch))),
		entry(testOid('2'), oplog.NewOperation([]mawtypes.ObjId{testOid('1')}, testWs("ws-1"), time.Unix(1, 0), oplog.Snapshot(testOid('d')))),
		entry(testOid('3'), oplog.NewOperation([]mawtypes.ObjId{testOid('2')}, testWs("ws-1"), time.Unix(2, 0), oplog.Compensate(testOid('2'), "undo"))),
	}
	v, err := MaterializeFromEntries(ctx, testWs("ws-1"), entries, mockReader(ps))
	require.NoError(t, err)
	require.Nil(t, v.PatchSet)
	require.Nil(t, v.PatchSetOid)
	require.Equal(t, 3, v.OpCount)
}

func TestMaterializeMergeUpdatesEpoch(t *testing.T) {
	ctx := context.Background()
	epochBefore := testOid('a')
	epochAfter := testOid('b')
	entries := []oplog.Entry{
		entry(testOid('1'), oplog.NewOperation(nil, testWs("ws-1"), time.Unix(0, 0), oplog.Create(epochBefore))),
		entry(testOid('2'), oplog.NewOperation([]mawtypes.ObjId{testOid('1')}, testWs("ws-1"), time.Unix(1, 0), oplog.Snapshot(testOid('d')))),
		entry(testOid('3'), oplog.NewOperation([]mawtypes.ObjId{testOid('2')}, testWs("ws-1"), time.Unix(2, 0),
			oplog.Merge([]mawtypes.WorkspaceId{testWs("ws-1"), testWs("ws-2")}, epochBefore, epochAfter))),
	}
	v, err := MaterializeFromEntries(ctx, testWs("ws-1"), entries, mockReader(testPatchSet('a')))
	require.NoError(t, err)
	require.Equal(t, &epochAfter, v.Epoch)
	require.Nil(t, v.PatchSet)
}

func TestMaterializeDescribeAndAnnotate(t *testing.T) {
	ctx := context.Background()
	entries := []oplog.Entry{
		entry(testOid('1'), oplog.NewOperation(nil, testWs("ws-1"), time.Unix(0, 0), oplog.Describe("work in progress"))),
		entry(testOid('2'), oplog.NewOperation([]mawtypes.ObjId{testOid('1')}, testWs("ws-1"), time.Unix(1, 0),
			oplog.Annotate("priority", map[string]json.RawMessage{"level": json.RawMessage(`"high"`)}))),
	}
	v, err := MaterializeFromEntries(ctx, testWs("ws-1"), entries, mockReader(patch.PatchSet{}))
	require.NoError(t, err)
	require.Equal(t, "work in progress", *v.Description)
	require.Equal(t, json.RawMessage(`"high"`), v.Annotations["priority"]["level"])
}

func TestMaterializeSkipsCheckpointKeyButCountsOp(t *testing.T) {
	ctx := context.Background()
	entries := []oplog.Entry{
		entry(testOid('1'), oplog.NewOperation(nil, testWs("ws-1"), time.Unix(0, 0),
			oplog.Annotate(oplog.CheckpointKey, map[string]json.RawMessage{"x": json.RawMessage("1")}))),
	}
	v, err := MaterializeFromEntries(ctx, testWs("ws-1"), entries, mockReader(patch.PatchSet{}))
	require.NoError(t, err)
	require.Equal(t, 1, v.OpCount)
	require.NotContains(t, v.Annotations, oplog.CheckpointKey)
}

func TestMaterializeDestroy(t *testing.T) {
	ctx := context.Background()
	entries := []oplog.Entry{
		entry(testOid('1'), oplog.NewOperation(nil, testWs("ws-1"), time.Unix(0, 0), oplog.Create(testOid('a')))),
		entry(testOid('2'), oplog.NewOperation([]mawtypes.ObjId{testOid('1')}, testWs("ws-1"), time.Unix(1, 0), oplog.Destroy())),
	}
	v, err := MaterializeFromEntries(ctx, testWs("ws-1"), entries, mockReader(patch.PatchSet{}))
	require.NoError(t, err)
	require.True(t, v.IsDestroyed)
}

func TestMaterializeWalksRealStore(t *testing.T) {
	ctx := context.Background()
	r, err := gitbackend.Init(t.TempDir(), false)
	require.NoError(t, err)

	ws := testWs("alice")
	epoch := testOid('a')
	root := oplog.NewOperation(nil, ws, time.Unix(0, 0), oplog.Create(epoch))
	rootOid, err := oplog.AppendOperation(ctx, r, root, mawtypes.ZeroOID)
	require.NoError(t, err)

	ps := testPatchSet('a')
	psData, err := json.Marshal(ps)
	require.NoError(t, err)
	psOid, err := r.WriteBlob(ctx, psData)
	require.NoError(t, err)

	snap := oplog.NewOperation([]mawtypes.ObjId{rootOid}, ws, time.Unix(1, 0), oplog.Snapshot(psOid))
	_, err = oplog.AppendOperation(ctx, r, snap, rootOid)
	require.NoError(t, err)

	v, err := Materialize(ctx, r, ws, StoreReadPatchSet(r))
	require.NoError(t, err)
	require.Equal(t, &epoch, v.Epoch)
	require.Equal(t, ps, *v.PatchSet)
	require.Equal(t, 2, v.OpCount)
}
