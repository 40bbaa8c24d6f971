package gitbackend

import (
	"context"
	"fmt"

	"github.com/cuemby/maw/pkg/mawtypes"
	"github.com/cuemby/maw/pkg/objectstore"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/format/index"
)

// CheckoutTree materializes oid's tree into workdir via a hard reset
// followed by a clean, which together both update tracked files and
// remove files the target tree no longer has — go-git has no single call
// that does both (git.Worktree.Checkout alone leaves untracked extras in
// place).
func (r *Repo) CheckoutTree(_ context.Context, oid mawtypes.ObjId, workdir string) error {
	wt, err := r.worktreeAt(workdir)
	if err != nil {
		return err
	}

	commitHash, err := r.ensureCommitFor(oid)
	if err != nil {
		return err
	}

	if err := wt.Reset(&git.ResetOptions{Commit: commitHash, Mode: git.HardReset}); err != nil {
		return &objectstore.IoError{Cause: fmt.Errorf("reset to %s: %w", oid, err)}
	}
	if err := wt.Clean(&git.CleanOptions{Dir: true}); err != nil {
		return &objectstore.IoError{Cause: fmt.Errorf("clean workdir: %w", err)}
	}
	return nil
}

// ensureCommitFor resolves oid to a commit hash usable by Worktree.Reset.
// oid may already name a commit, or (when the caller only has a tree, as
// §4.1's checkout_tree implies for workspace creation) a synthetic
// parentless commit is created pointing at it so Reset has something to
// target.
func (r *Repo) ensureCommitFor(oid mawtypes.ObjId) (plumbing.Hash, error) {
	if _, err := r.storer.EncodedObject(plumbing.CommitObject, toHash(oid)); err == nil {
		return toHash(oid), nil
	}
	commitOid, err := r.CreateCommit(context.Background(), oid, nil, "maw: checkout", "")
	if err != nil {
		return plumbing.ZeroHash, err
	}
	return toHash(commitOid), nil
}

func (r *Repo) worktreeAt(workdir string) (*git.Worktree, error) {
	wt, err := r.repo.Worktree()
	if err != nil {
		return nil, &objectstore.BackendError{Message: fmt.Sprintf("no worktree for %q: %v", workdir, err)}
	}
	return wt, nil
}

func (r *Repo) ReadIndex(_ context.Context) (objectstore.Tree, error) {
	idx, err := r.storer.Index()
	if err != nil {
		return objectstore.Tree{}, &objectstore.IoError{Cause: err}
	}
	entries := make([]objectstore.TreeEntry, 0, len(idx.Entries))
	for _, e := range idx.Entries {
		entries = append(entries, objectstore.TreeEntry{
			Name: mawtypes.Path(e.Name),
			Mode: fromFileMode(e.Mode),
			Oid:  toOidOrZero(e.Hash),
		})
	}
	return objectstore.Tree{Entries: entries}, nil
}

func (r *Repo) WriteIndex(_ context.Context, tree objectstore.Tree) error {
	idx, err := r.storer.Index()
	if err != nil {
		return &objectstore.IoError{Cause: err}
	}
	idx.Entries = idx.Entries[:0]
	for _, e := range tree.Entries {
		idx.Entries = append(idx.Entries, &index.Entry{
			Name: e.Name.String(),
			Mode: toFileMode(e.Mode),
			Hash: toHash(e.Oid),
		})
	}
	if err := r.storer.SetIndex(idx); err != nil {
		return &objectstore.IoError{Cause: err}
	}
	return nil
}

func toOidOrZero(h plumbing.Hash) mawtypes.ObjId {
	oid, err := fromHash(h)
	if err != nil {
		return mawtypes.ZeroOID
	}
	return oid
}
