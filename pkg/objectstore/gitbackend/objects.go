package gitbackend

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/cuemby/maw/pkg/mawtypes"
	"github.com/cuemby/maw/pkg/objectstore"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"
)

func (r *Repo) ReadBlob(_ context.Context, oid mawtypes.ObjId) ([]byte, error) {
	enc, err := r.storer.EncodedObject(plumbing.BlobObject, toHash(oid))
	if err != nil {
		return nil, notFoundOrIo(err)
	}
	blob, err := object.DecodeBlob(enc)
	if err != nil {
		return nil, &objectstore.BackendError{Message: fmt.Sprintf("decode blob %s: %v", oid, err)}
	}
	rd, err := blob.Reader()
	if err != nil {
		return nil, &objectstore.IoError{Cause: err}
	}
	defer rd.Close()
	return io.ReadAll(rd)
}

func (r *Repo) WriteBlob(_ context.Context, data []byte) (mawtypes.ObjId, error) {
	obj := r.storer.NewEncodedObject()
	obj.SetType(plumbing.BlobObject)
	w, err := obj.Writer()
	if err != nil {
		return mawtypes.ObjId{}, &objectstore.IoError{Cause: err}
	}
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return mawtypes.ObjId{}, &objectstore.IoError{Cause: err}
	}
	if err := w.Close(); err != nil {
		return mawtypes.ObjId{}, &objectstore.IoError{Cause: err}
	}
	hash, err := r.storer.SetEncodedObject(obj)
	if err != nil {
		return mawtypes.ObjId{}, &objectstore.IoError{Cause: err}
	}
	return fromHash(hash)
}

func toFileMode(m objectstore.Mode) filemode.FileMode {
	switch m {
	case objectstore.ModeExecutable:
		return filemode.Executable
	case objectstore.ModeSymlink:
		return filemode.Symlink
	case objectstore.ModeTree:
		return filemode.Dir
	default:
		return filemode.Regular
	}
}

func fromFileMode(m filemode.FileMode) objectstore.Mode {
	switch m {
	case filemode.Executable:
		return objectstore.ModeExecutable
	case filemode.Symlink:
		return objectstore.ModeSymlink
	case filemode.Dir:
		return objectstore.ModeTree
	default:
		return objectstore.ModeFile
	}
}

func (r *Repo) ReadTree(_ context.Context, oid mawtypes.ObjId) (objectstore.Tree, error) {
	enc, err := r.storer.EncodedObject(plumbing.TreeObject, toHash(oid))
	if err != nil {
		return objectstore.Tree{}, notFoundOrIo(err)
	}
	tree, err := object.DecodeTree(r.storer, enc)
	if err != nil {
		return objectstore.Tree{}, &objectstore.BackendError{Message: fmt.Sprintf("decode tree %s: %v", oid, err)}
	}
	out := objectstore.Tree{Entries: make([]objectstore.TreeEntry, 0, len(tree.Entries))}
	for _, e := range tree.Entries {
		id, convErr := fromHash(e.Hash)
		if convErr != nil {
			continue
		}
		out.Entries = append(out.Entries, objectstore.TreeEntry{
			Name: mawtypes.Path(e.Name),
			Mode: fromFileMode(e.Mode),
			Oid:  id,
		})
	}
	return out, nil
}

func (r *Repo) WriteTree(_ context.Context, tree objectstore.Tree) (mawtypes.ObjId, error) {
	return r.writeTree(tree)
}

func (r *Repo) writeTree(tree objectstore.Tree) (mawtypes.ObjId, error) {
	ot := object.Tree{Entries: make([]object.TreeEntry, 0, len(tree.Entries))}
	for _, e := range tree.Entries {
		ot.Entries = append(ot.Entries, object.TreeEntry{
			Name: e.Name.String(),
			Mode: toFileMode(e.Mode),
			Hash: toHash(e.Oid),
		})
	}
	obj := r.storer.NewEncodedObject()
	obj.SetType(plumbing.TreeObject)
	if err := ot.Encode(obj); err != nil {
		return mawtypes.ObjId{}, &objectstore.BackendError{Message: fmt.Sprintf("encode tree: %v", err)}
	}
	hash, err := r.storer.SetEncodedObject(obj)
	if err != nil {
		return mawtypes.ObjId{}, &objectstore.IoError{Cause: err}
	}
	return fromHash(hash)
}

func (r *Repo) ReadCommit(_ context.Context, oid mawtypes.ObjId) (objectstore.Commit, error) {
	enc, err := r.storer.EncodedObject(plumbing.CommitObject, toHash(oid))
	if err != nil {
		return objectstore.Commit{}, notFoundOrIo(err)
	}
	c, err := object.DecodeCommit(r.storer, enc)
	if err != nil {
		return objectstore.Commit{}, &objectstore.BackendError{Message: fmt.Sprintf("decode commit %s: %v", oid, err)}
	}
	treeOid, err := fromHash(c.TreeHash)
	if err != nil {
		return objectstore.Commit{}, &objectstore.InvalidOidError{Value: c.TreeHash.String(), Reason: err.Error()}
	}
	parents := make([]mawtypes.ObjId, 0, len(c.ParentHashes))
	for _, p := range c.ParentHashes {
		pid, convErr := fromHash(p)
		if convErr != nil {
			continue
		}
		parents = append(parents, pid)
	}
	return objectstore.Commit{Tree: treeOid, Parents: parents, Message: c.Message}, nil
}

// mawIdentity is the fixed author/committer identity the engine stamps on
// every commit it creates. The engine coordinates workspaces, not human
// authorship, so there is no per-call identity input (§4.7's determinism
// note: commit OIDs differ only because of timestamps).
var mawIdentity = object.Signature{Name: "maw", Email: "maw@localhost"}

func (r *Repo) CreateCommit(_ context.Context, tree mawtypes.ObjId, parents []mawtypes.ObjId, message string, updateRef string) (mawtypes.ObjId, error) {
	now := time.Now()
	c := object.Commit{
		Author:       object.Signature{Name: mawIdentity.Name, Email: mawIdentity.Email, When: now},
		Committer:    object.Signature{Name: mawIdentity.Name, Email: mawIdentity.Email, When: now},
		Message:      message,
		TreeHash:     toHash(tree),
		ParentHashes: make([]plumbing.Hash, 0, len(parents)),
	}
	for _, p := range parents {
		c.ParentHashes = append(c.ParentHashes, toHash(p))
	}

	obj := r.storer.NewEncodedObject()
	obj.SetType(plumbing.CommitObject)
	if err := c.Encode(obj); err != nil {
		return mawtypes.ObjId{}, &objectstore.BackendError{Message: fmt.Sprintf("encode commit: %v", err)}
	}
	hash, err := r.storer.SetEncodedObject(obj)
	if err != nil {
		return mawtypes.ObjId{}, &objectstore.IoError{Cause: err}
	}
	oid, err := fromHash(hash)
	if err != nil {
		return mawtypes.ObjId{}, err
	}

	if updateRef != "" {
		var expectedOld mawtypes.ObjId
		if cur, ok, readErr := r.ReadRefOpt(context.Background(), updateRef); readErr != nil {
			return mawtypes.ObjId{}, readErr
		} else if ok {
			expectedOld = cur
		} else {
			expectedOld = mawtypes.ZeroOID
		}
		if err := r.AtomicRefUpdate(context.Background(), []objectstore.RefEdit{
			{Name: updateRef, NewOid: oid, ExpectedOldOid: expectedOld},
		}); err != nil {
			return mawtypes.ObjId{}, err
		}
	}
	return oid, nil
}

// commitObj returns the underlying go-git object, for operations (ancestry
// checks) that need its methods rather than the flattened objectstore.Commit.
func (r *Repo) commitObj(oid mawtypes.ObjId) (*object.Commit, error) {
	enc, err := r.storer.EncodedObject(plumbing.CommitObject, toHash(oid))
	if err != nil {
		return nil, notFoundOrIo(err)
	}
	c, err := object.DecodeCommit(r.storer, enc)
	if err != nil {
		return nil, &objectstore.BackendError{Message: fmt.Sprintf("decode commit %s: %v", oid, err)}
	}
	return c, nil
}

func notFoundOrIo(err error) error {
	if err == plumbing.ErrObjectNotFound {
		return objectstore.ErrNotFound
	}
	return &objectstore.IoError{Cause: err}
}
