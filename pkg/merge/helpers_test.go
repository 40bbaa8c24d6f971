package merge

import (
	"time"

	"github.com/cuemby/maw/pkg/mawtypes"
	"github.com/cuemby/maw/pkg/ordering"
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

func testKey(ws mawtypes.WorkspaceId, seq uint64) ordering.Key {
	return ordering.NewKey(testOid('e'), ws, seq, time.Unix(int64(seq), 0).UTC())
}
