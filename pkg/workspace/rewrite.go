package workspace

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/cuemby/maw/pkg/apperr"
	"github.com/cuemby/maw/pkg/mawtypes"
	"github.com/cuemby/maw/pkg/mlog"
	"github.com/cuemby/maw/pkg/objectstore"
)

// RewriteConflictKind names the working-copy conflict codes spec.md
// §4.10 step 6 lists: §4.8's merge conflict vocabulary projected onto a
// two-sided (our edits vs. the target epoch) working-copy rewrite instead
// of an N-way merge.
type RewriteConflictKind string

const (
	RewriteContent           RewriteConflictKind = "content"
	RewriteBothAdded         RewriteConflictKind = "both_added"
	RewriteBothDeleted       RewriteConflictKind = "both_deleted"
	RewriteAddModConflict    RewriteConflictKind = "add_mod_conflict"
	RewriteDeleteModConflict RewriteConflictKind = "delete_mod_conflict"
)

// RewriteConflict is one path the rewrite could not reconcile.
type RewriteConflict struct {
	Kind RewriteConflictKind
	Path mawtypes.Path
}

// RewriteResult reports what Rewrite did. FastPath is true when the
// working tree was already clean and no pin was captured. Conflicts is
// non-empty only when RolledBack is true.
type RewriteResult struct {
	FastPath   bool
	PinRef     string
	Conflicts  []RewriteConflict
	RolledBack bool
}

type ourEdit struct {
	kind  objectstore.ChangeKind
	bytes []byte
}

// Rewrite moves a workspace's working copy from baseEpoch to targetEpoch
// without losing uncommitted work (`preserve_checkout_replay`, spec.md
// §4.10).
func Rewrite(ctx context.Context, store objectstore.Store, ws mawtypes.WorkspaceId, workdir string, baseEpoch, targetEpoch mawtypes.EpochId, now time.Time) (RewriteResult, error) {
	baseCommit, err := store.ReadCommit(ctx, baseEpoch)
	if err != nil {
		return RewriteResult{}, err
	}

	dirty, err := store.IsDirty(ctx, workdir, baseCommit.Tree)
	if err != nil {
		return RewriteResult{}, err
	}
	if !dirty {
		if err := store.CheckoutTree(ctx, targetEpoch, workdir); err != nil {
			return RewriteResult{}, err
		}
		return RewriteResult{FastPath: true}, nil
	}

	p, err := capture(ctx, store, ws, workdir, baseEpoch, now)
	if err != nil {
		return RewriteResult{}, err
	}

	status, err := store.Status(ctx, workdir, baseCommit.Tree)
	if err != nil {
		return RewriteResult{}, err
	}

	ours := map[mawtypes.Path]ourEdit{}
	for _, u := range status.Untracked {
		data, readErr := os.ReadFile(filepath.Join(workdir, string(u)))
		if readErr != nil {
			return RewriteResult{}, &objectstore.IoError{Cause: readErr}
		}
		ours[u] = ourEdit{kind: objectstore.ChangeAdd, bytes: data}
	}
	for _, c := range status.Changed {
		if c.Kind == objectstore.ChangeDelete {
			ours[c.Path] = ourEdit{kind: objectstore.ChangeDelete}
			continue
		}
		data, readErr := os.ReadFile(filepath.Join(workdir, string(c.Path)))
		if readErr != nil {
			return RewriteResult{}, &objectstore.IoError{Cause: readErr}
		}
		ours[c.Path] = ourEdit{kind: objectstore.ChangeModify, bytes: data}
	}

	targetCommit, err := store.ReadCommit(ctx, targetEpoch)
	if err != nil {
		return RewriteResult{}, err
	}
	theirDiff, err := store.DiffTrees(ctx, baseCommit.Tree, targetCommit.Tree)
	if err != nil {
		return RewriteResult{}, err
	}
	theirs := map[mawtypes.Path]objectstore.ChangeKind{}
	for _, e := range theirDiff {
		switch e.Kind {
		case objectstore.ChangeRename:
			theirs[e.Path] = objectstore.ChangeDelete
			theirs[e.RenamedTo] = objectstore.ChangeAdd
		default:
			theirs[e.Path] = e.Kind
		}
	}

	if err := store.CheckoutTree(ctx, targetEpoch, workdir); err != nil {
		return RewriteResult{}, err
	}

	paths := make([]mawtypes.Path, 0, len(ours))
	for path := range ours {
		paths = append(paths, path)
	}
	sort.Slice(paths, func(i, j int) bool { return paths[i].Less(paths[j]) })

	var conflicts []RewriteConflict
	for _, path := range paths {
		our := ours[path]
		their, contested := theirs[path]
		if !contested {
			if err := applyOurEdit(workdir, path, our); err != nil {
				return RewriteResult{}, err
			}
			continue
		}

		switch {
		case our.kind == objectstore.ChangeAdd && their == objectstore.ChangeAdd:
			onDisk, readErr := os.ReadFile(filepath.Join(workdir, string(path)))
			if readErr != nil {
				return RewriteResult{}, &objectstore.IoError{Cause: readErr}
			}
			if bytes.Equal(onDisk, our.bytes) {
				continue
			}
			conflicts = append(conflicts, RewriteConflict{Kind: RewriteBothAdded, Path: path})
		case our.kind == objectstore.ChangeModify && their == objectstore.ChangeModify:
			onDisk, readErr := os.ReadFile(filepath.Join(workdir, string(path)))
			if readErr != nil {
				return RewriteResult{}, &objectstore.IoError{Cause: readErr}
			}
			if bytes.Equal(onDisk, our.bytes) {
				continue
			}
			conflicts = append(conflicts, RewriteConflict{Kind: RewriteContent, Path: path})
		case our.kind == objectstore.ChangeDelete && their == objectstore.ChangeDelete:
			conflicts = append(conflicts, RewriteConflict{Kind: RewriteBothDeleted, Path: path})
		case our.kind == objectstore.ChangeModify && their == objectstore.ChangeDelete:
			conflicts = append(conflicts, RewriteConflict{Kind: RewriteDeleteModConflict, Path: path})
		case our.kind == objectstore.ChangeDelete && their == objectstore.ChangeModify:
			conflicts = append(conflicts, RewriteConflict{Kind: RewriteDeleteModConflict, Path: path})
		case our.kind == objectstore.ChangeAdd && their != objectstore.ChangeAdd:
			conflicts = append(conflicts, RewriteConflict{Kind: RewriteAddModConflict, Path: path})
		default:
			conflicts = append(conflicts, RewriteConflict{Kind: RewriteContent, Path: path})
		}
	}

	if len(conflicts) == 0 {
		return RewriteResult{PinRef: p.Ref}, nil
	}

	if err := store.CheckoutTree(ctx, p.Commit, workdir); err != nil {
		return RewriteResult{}, err
	}
	sort.Slice(conflicts, func(i, j int) bool { return conflicts[i].Path.Less(conflicts[j].Path) })
	mlog.WithWorkspace(ws.String()).Warn().
		Str("epoch", targetEpoch.String()).Int("conflicts", len(conflicts)).
		Msg("rewrite could not reconcile working copy, rolled back to pinned capture")
	return RewriteResult{PinRef: p.Ref, Conflicts: conflicts, RolledBack: true}, apperr.MergeConflict(len(conflicts))
}

func applyOurEdit(workdir string, path mawtypes.Path, e ourEdit) error {
	full := filepath.Join(workdir, string(path))
	switch e.kind {
	case objectstore.ChangeDelete:
		if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
			return &objectstore.IoError{Cause: err}
		}
		return nil
	default:
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			return &objectstore.IoError{Cause: err}
		}
		if err := os.WriteFile(full, e.bytes, 0o644); err != nil {
			return &objectstore.IoError{Cause: err}
		}
		return nil
	}
}
