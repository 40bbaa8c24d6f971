package gitbackend

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/cuemby/maw/pkg/mawtypes"
	"github.com/cuemby/maw/pkg/objectstore"
	"github.com/go-git/go-git/v5/plumbing"
)

func toHash(oid mawtypes.ObjId) plumbing.Hash {
	return plumbing.NewHash(oid.String())
}

func fromHash(h plumbing.Hash) (mawtypes.ObjId, error) {
	if h.IsZero() {
		return mawtypes.ZeroOID, nil
	}
	return mawtypes.ParseObjId(h.String())
}

func (r *Repo) ReadRef(ctx context.Context, name string) (mawtypes.ObjId, error) {
	oid, ok, err := r.ReadRefOpt(ctx, name)
	if err != nil {
		return mawtypes.ObjId{}, err
	}
	if !ok {
		return mawtypes.ObjId{}, objectstore.ErrNotFound
	}
	return oid, nil
}

func (r *Repo) ReadRefOpt(_ context.Context, name string) (mawtypes.ObjId, bool, error) {
	ref, err := r.storer.Reference(refName(name))
	if err != nil {
		if err == plumbing.ErrReferenceNotFound {
			return mawtypes.ObjId{}, false, nil
		}
		return mawtypes.ObjId{}, false, &objectstore.IoError{Cause: err}
	}
	oid, err := fromHash(ref.Hash())
	if err != nil {
		return mawtypes.ObjId{}, false, &objectstore.InvalidOidError{Value: ref.Hash().String(), Reason: err.Error()}
	}
	return oid, true, nil
}

func (r *Repo) WriteRef(_ context.Context, name string, oid mawtypes.ObjId, _ string) error {
	ref := plumbing.NewHashReference(refName(name), toHash(oid))
	if err := r.storer.SetReference(ref); err != nil {
		return &objectstore.IoError{Cause: fmt.Errorf("write ref %q: %w", name, err)}
	}
	return nil
}

func (r *Repo) DeleteRef(_ context.Context, name string) error {
	if err := r.storer.RemoveReference(refName(name)); err != nil && err != plumbing.ErrReferenceNotFound {
		return &objectstore.IoError{Cause: fmt.Errorf("delete ref %q: %w", name, err)}
	}
	return nil
}

// casOneRef applies a single ref edit via CheckAndSetReference, following
// the git ref-transaction convention where the zero hash represents "ref
// does not exist". A zero NewOid removes the ref once its current value
// matches ExpectedOldOid. Returns the ref's previous value so callers can
// roll it back on a later edit's failure.
func (r *Repo) casOneRef(edit objectstore.RefEdit) (previous plumbing.Hash, existed bool, err error) {
	name := refName(edit.Name)

	cur, readErr := r.storer.Reference(name)
	switch {
	case readErr == nil:
		previous, existed = cur.Hash(), true
	case readErr == plumbing.ErrReferenceNotFound:
		previous, existed = plumbing.ZeroHash, false
	default:
		return plumbing.ZeroHash, false, &objectstore.IoError{Cause: readErr}
	}

	oldRef := plumbing.NewHashReference(name, plumbing.NewHash(edit.ExpectedOldOid.String()))
	newRef := plumbing.NewHashReference(name, toHash(edit.NewOid))

	if edit.NewOid.IsZero() {
		if previous != oldRef.Hash() {
			return previous, existed, &objectstore.RefConflictError{
				RefName: edit.Name,
				Message: fmt.Sprintf("expected %s, found %s", edit.ExpectedOldOid, previous),
			}
		}
		if existed {
			if err := r.storer.RemoveReference(name); err != nil {
				return previous, existed, &objectstore.IoError{Cause: err}
			}
		}
		return previous, existed, nil
	}

	if err := r.storer.CheckAndSetReference(newRef, oldRef); err != nil {
		return previous, existed, &objectstore.RefConflictError{
			RefName: edit.Name,
			Message: fmt.Sprintf("expected %s, store rejected CAS: %v", edit.ExpectedOldOid, err),
		}
	}
	return previous, existed, nil
}

// AtomicRefUpdate applies edits in order via N single-ref CAS calls,
// rolling back every edit that already succeeded if a later one fails.
// This is a best-effort approximation of a true multi-ref transaction —
// go-git exposes none. The core's own retry
// discipline treats any CAS failure, partial or not, identically: re-read
// current refs and retry (§5).
func (r *Repo) AtomicRefUpdate(_ context.Context, edits []objectstore.RefEdit) error {
	type applied struct {
		name     string
		previous plumbing.Hash
		existed  bool
	}
	var done []applied

	rollback := func() {
		for i := len(done) - 1; i >= 0; i-- {
			a := done[i]
			name := refName(a.name)
			if a.existed {
				_ = r.storer.SetReference(plumbing.NewHashReference(name, a.previous))
			} else {
				_ = r.storer.RemoveReference(name)
			}
		}
	}

	for _, edit := range edits {
		previous, existed, err := r.casOneRef(edit)
		if err != nil {
			rollback()
			return err
		}
		done = append(done, applied{name: edit.Name, previous: previous, existed: existed})
	}
	return nil
}

func (r *Repo) ListRefs(_ context.Context, prefix string) ([]objectstore.RefEntry, error) {
	iter, err := r.storer.IterReferences()
	if err != nil {
		return nil, &objectstore.IoError{Cause: err}
	}
	defer iter.Close()

	fullPrefix := refName(prefix).String()
	var out []objectstore.RefEntry
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		name := ref.Name().String()
		if !strings.HasPrefix(name, fullPrefix) {
			return nil
		}
		oid, convErr := fromHash(ref.Hash())
		if convErr != nil {
			return nil
		}
		out = append(out, objectstore.RefEntry{
			Name: strings.TrimPrefix(name, "refs/maw/"),
			Oid:  oid,
		})
		return nil
	})
	if err != nil {
		return nil, &objectstore.IoError{Cause: err}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *Repo) RevParse(ctx context.Context, spec string) (mawtypes.ObjId, error) {
	oid, ok, err := r.RevParseOpt(ctx, spec)
	if err != nil {
		return mawtypes.ObjId{}, err
	}
	if !ok {
		return mawtypes.ObjId{}, objectstore.ErrNotFound
	}
	return oid, nil
}

func (r *Repo) RevParseOpt(ctx context.Context, spec string) (mawtypes.ObjId, bool, error) {
	if oid, err := mawtypes.ParseObjId(spec); err == nil {
		if _, lookupErr := r.storer.EncodedObject(plumbing.AnyObject, toHash(oid)); lookupErr != nil {
			return mawtypes.ObjId{}, false, nil
		}
		return oid, true, nil
	}
	// Fall back to treating spec as a ref name.
	return r.ReadRefOpt(ctx, spec)
}
