package refs

import (
	"context"

	"github.com/cuemby/maw/pkg/mawtypes"
	"github.com/cuemby/maw/pkg/objectstore"
)

// Tx accumulates ref edits for a single atomic transaction, mirroring
// the teacher's db.Update(func(tx) error { ... }) shape: callers add
// edits against a Tx value, then Commit applies every edit as one
// all-or-nothing objectstore.AtomicRefUpdate call.
type Tx struct {
	edits []objectstore.RefEdit
}

// NewTx returns an empty transaction.
func NewTx() *Tx {
	return &Tx{}
}

// Set queues name to move from expectedOld to newOid. A zero expectedOld
// means the ref must not currently exist; a zero newOid means delete.
func (tx *Tx) Set(name string, expectedOld, newOid mawtypes.ObjId) *Tx {
	tx.edits = append(tx.edits, objectstore.RefEdit{Name: name, NewOid: newOid, ExpectedOldOid: expectedOld})
	return tx
}

// Delete queues name for deletion, CAS-guarded on its current value.
func (tx *Tx) Delete(name string, expectedOld mawtypes.ObjId) *Tx {
	return tx.Set(name, expectedOld, mawtypes.ZeroOID)
}

// Len reports how many edits are queued.
func (tx *Tx) Len() int {
	return len(tx.edits)
}

// Commit applies every queued edit as one atomic transaction (spec.md
// §4.1, §8 "For any ref transaction: all edits succeed or no ref is
// mutated"). A no-op Commit on an empty Tx still calls through so a CAS
// on zero edits reliably behaves as a no-op rather than silently
// skipping validation the backend might otherwise perform.
func (tx *Tx) Commit(ctx context.Context, store objectstore.Store) error {
	return store.AtomicRefUpdate(ctx, tx.edits)
}
