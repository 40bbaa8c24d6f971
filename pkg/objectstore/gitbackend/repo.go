package gitbackend

import (
	"fmt"

	"github.com/cuemby/maw/pkg/objectstore"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/storage"
)

// Repo wraps a *git.Repository and implements objectstore.Store against
// its Storer and Worktree.
type Repo struct {
	repo   *git.Repository
	storer storage.Storer
}

var _ objectstore.Store = (*Repo)(nil)

// Open opens an existing repository rooted at path.
func Open(path string) (*Repo, error) {
	r, err := git.PlainOpen(path)
	if err != nil {
		return nil, &objectstore.IoError{Cause: fmt.Errorf("open repo at %q: %w", path, err)}
	}
	return wrap(r), nil
}

// Init creates a new repository rooted at path. bare controls whether a
// working directory is created alongside the object store.
func Init(path string, bare bool) (*Repo, error) {
	r, err := git.PlainInit(path, bare)
	if err != nil {
		return nil, &objectstore.IoError{Cause: fmt.Errorf("init repo at %q: %w", path, err)}
	}
	return wrap(r), nil
}

func wrap(r *git.Repository) *Repo {
	return &Repo{repo: r, storer: r.Storer}
}

// refName validates and converts a maw ref name into go-git's reference
// name type. maw's ref namespace (epoch/current, head/<ws>, ...) is
// already slash-separated and lowercase, so it passes through unchanged —
// it is not stored under refs/heads or refs/tags, since these are not
// branch/tag pointers in git's sense.
func refName(name string) plumbing.ReferenceName {
	return plumbing.ReferenceName("refs/maw/" + name)
}
