package gitbackend

import (
	"context"
	"fmt"
	"os"

	"github.com/cuemby/maw/pkg/mawtypes"
	"github.com/cuemby/maw/pkg/objectstore"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
)

// AddWorktree creates a fresh directory at path and checks out oid into
// it. go-git has no native multi-worktree support (unlike git itself), so
// each "worktree" a workspace owns (§4.10) is its own plain checkout
// rooted at path rather than a linked worktree sharing this Repo's object
// database — acceptable because workspaces in this engine share objects
// through the object store, not through git's on-disk worktree linking.
func (r *Repo) AddWorktree(ctx context.Context, path string, oid mawtypes.ObjId) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return &objectstore.IoError{Cause: fmt.Errorf("mkdir worktree %q: %w", path, err)}
	}
	return r.CheckoutTree(ctx, oid, path)
}

// RemoveWorktree deletes the working directory. The objects it referenced
// remain in the shared store.
func (r *Repo) RemoveWorktree(_ context.Context, path string) error {
	if err := os.RemoveAll(path); err != nil {
		return &objectstore.IoError{Cause: fmt.Errorf("remove worktree %q: %w", path, err)}
	}
	return nil
}

// Stash captures workdir's dirty state into a floating commit without
// moving any ref — go-git has no native "git stash", so this composes the
// capability's own primitives: diff workdir against base, write blobs for
// changed files, edit the tree, and create a parentless commit anchored at
// the edited tree. Used by workspace destroy's dirty-snapshot capture path
// (§4.10-§4.11).
func (r *Repo) Stash(ctx context.Context, workdir string, base mawtypes.ObjId, message string) (mawtypes.ObjId, error) {
	status, err := r.Status(ctx, workdir, base)
	if err != nil {
		return mawtypes.ObjId{}, err
	}
	if len(status.Changed) == 0 && len(status.Untracked) == 0 {
		return mawtypes.ZeroOID, nil
	}

	var edits []objectstore.TreeEdit
	writeFile := func(p mawtypes.Path) error {
		data, readErr := os.ReadFile(workdir + "/" + p.String())
		if readErr != nil {
			return &objectstore.IoError{Cause: readErr}
		}
		blobOid, writeErr := r.WriteBlob(ctx, data)
		if writeErr != nil {
			return writeErr
		}
		edits = append(edits, objectstore.TreeEdit{Kind: objectstore.TreeEditInsert, Path: p, Mode: objectstore.ModeFile, Oid: blobOid})
		return nil
	}

	for _, c := range status.Changed {
		if c.Kind == objectstore.ChangeDelete {
			edits = append(edits, objectstore.TreeEdit{Kind: objectstore.TreeEditDelete, Path: c.Path})
			continue
		}
		if err := writeFile(c.Path); err != nil {
			return mawtypes.ObjId{}, err
		}
	}
	for _, p := range status.Untracked {
		if err := writeFile(p); err != nil {
			return mawtypes.ObjId{}, err
		}
	}

	newTree, err := r.EditTree(ctx, base, edits)
	if err != nil {
		return mawtypes.ObjId{}, err
	}

	return r.CreateCommit(ctx, newTree, nil, message, "")
}

func (r *Repo) Push(_ context.Context, remote string, refSpec string) error {
	err := r.repo.Push(&git.PushOptions{
		RemoteName: remote,
		RefSpecs:   []config.RefSpec{config.RefSpec(refSpec)},
	})
	if err != nil && err != git.NoErrAlreadyUpToDate {
		return &objectstore.PushFailedError{Remote: remote, Message: err.Error()}
	}
	return nil
}

// Config reads a flat "section.key" value from the repository's config.
func (r *Repo) Config(_ context.Context, key string) (string, bool, error) {
	cfg, err := r.repo.Config()
	if err != nil {
		return "", false, &objectstore.IoError{Cause: err}
	}
	section, option, ok := splitConfigKey(key)
	if !ok {
		return "", false, nil
	}
	if !cfg.Raw.HasSection(section) {
		return "", false, nil
	}
	s := cfg.Raw.Section(section)
	if !s.HasOption(option) {
		return "", false, nil
	}
	return s.Option(option), true, nil
}

func splitConfigKey(key string) (section, option string, ok bool) {
	for i := len(key) - 1; i >= 0; i-- {
		if key[i] == '.' {
			return key[:i], key[i+1:], true
		}
	}
	return "", "", false
}
