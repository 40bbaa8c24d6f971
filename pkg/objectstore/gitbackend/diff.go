package gitbackend

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/cuemby/maw/pkg/mawtypes"
	"github.com/cuemby/maw/pkg/objectstore"
)

type flatEntry struct {
	path mawtypes.Path
	mode objectstore.Mode
	oid  mawtypes.ObjId
}

func (r *Repo) flatten(ctx context.Context, oid mawtypes.ObjId, prefix string, out map[string]flatEntry) error {
	if oid.IsZero() {
		return nil
	}
	tree, err := r.ReadTree(ctx, oid)
	if err != nil {
		return err
	}
	for _, e := range tree.Entries {
		full := e.Name.String()
		if prefix != "" {
			full = prefix + "/" + full
		}
		if e.Mode.IsTree() {
			if err := r.flatten(ctx, e.Oid, full, out); err != nil {
				return err
			}
			continue
		}
		out[full] = flatEntry{path: mawtypes.Path(full), mode: e.Mode, oid: e.Oid}
	}
	return nil
}

// DiffTrees compares two trees path-by-path. Renames are detected only by
// exact content match (a deleted path and an added path sharing the same
// blob oid) — the same simple heuristic git itself falls back to absent a
// similarity index. Content-changed renames surface as a paired Add and
// Delete instead; §4.9's FileId-based attribution (not git's content
// similarity) is what correctly reunites those at the patch layer.
func (r *Repo) DiffTrees(ctx context.Context, oldOid, newOid mawtypes.ObjId) ([]objectstore.DiffEntry, error) {
	oldFlat := map[string]flatEntry{}
	newFlat := map[string]flatEntry{}
	if err := r.flatten(ctx, oldOid, "", oldFlat); err != nil {
		return nil, err
	}
	if err := r.flatten(ctx, newOid, "", newFlat); err != nil {
		return nil, err
	}

	var added, deleted []flatEntry
	var modified []objectstore.DiffEntry

	for p, ne := range newFlat {
		if oe, ok := oldFlat[p]; ok {
			if oe.oid != ne.oid || oe.mode != ne.mode {
				modified = append(modified, objectstore.DiffEntry{
					Path: ne.path, Kind: objectstore.ChangeModify, OldOid: oe.oid, NewOid: ne.oid,
				})
			}
			continue
		}
		added = append(added, ne)
	}
	for p, oe := range oldFlat {
		if _, ok := newFlat[p]; !ok {
			deleted = append(deleted, oe)
		}
	}

	byOid := map[mawtypes.ObjId]int{}
	for i, a := range added {
		byOid[a.oid] = i
	}
	consumedAdd := map[int]bool{}
	var out []objectstore.DiffEntry
	for _, d := range deleted {
		if idx, ok := byOid[d.oid]; ok && !consumedAdd[idx] {
			consumedAdd[idx] = true
			out = append(out, objectstore.DiffEntry{
				Path: d.path, Kind: objectstore.ChangeRename, OldOid: d.oid, NewOid: added[idx].oid, RenamedTo: added[idx].path,
			})
			continue
		}
		out = append(out, objectstore.DiffEntry{Path: d.path, Kind: objectstore.ChangeDelete, OldOid: d.oid})
	}
	for i, a := range added {
		if consumedAdd[i] {
			continue
		}
		out = append(out, objectstore.DiffEntry{Path: a.path, Kind: objectstore.ChangeAdd, NewOid: a.oid})
	}
	out = append(out, modified...)

	sort.Slice(out, func(i, j int) bool { return out[i].Path.Less(out[j].Path) })
	return out, nil
}

func (r *Repo) IsDirty(ctx context.Context, workdir string, base mawtypes.ObjId) (bool, error) {
	st, err := r.Status(ctx, workdir, base)
	if err != nil {
		return false, err
	}
	return len(st.Changed) > 0 || len(st.Untracked) > 0, nil
}

// Status walks workdir on disk and compares it against base's tree,
// producing the same DiffEntry shape DiffTrees does for tracked changes,
// plus a separate list of untracked files — the two enumerations §4.9
// steps 1-2 need as input to the patch-set diff.
func (r *Repo) Status(ctx context.Context, workdir string, base mawtypes.ObjId) (objectstore.Status, error) {
	baseFlat := map[string]flatEntry{}
	if err := r.flatten(ctx, base, "", baseFlat); err != nil {
		return objectstore.Status{}, err
	}

	onDisk := map[string]bool{}
	err := filepath.Walk(workdir, func(p string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if info.IsDir() {
			if info.Name() == ".git" || info.Name() == ".maw" {
				return filepath.SkipDir
			}
			return nil
		}
		rel, relErr := filepath.Rel(workdir, p)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)
		if rel == ".maw-epoch" {
			// the workspace's base-epoch pointer, not workspace content
			return nil
		}
		onDisk[rel] = true
		return nil
	})
	if err != nil {
		return objectstore.Status{}, &objectstore.IoError{Cause: fmt.Errorf("walk workdir %q: %w", workdir, err)}
	}

	var status objectstore.Status
	for rel := range onDisk {
		data, readErr := os.ReadFile(filepath.Join(workdir, filepath.FromSlash(rel)))
		if readErr != nil {
			return objectstore.Status{}, &objectstore.IoError{Cause: readErr}
		}
		newOid := mawtypes.HashBytes("blob", data)
		base, tracked := baseFlat[rel]
		switch {
		case !tracked:
			status.Untracked = append(status.Untracked, mawtypes.Path(rel))
		case base.oid != newOid:
			status.Changed = append(status.Changed, objectstore.DiffEntry{
				Path: mawtypes.Path(rel), Kind: objectstore.ChangeModify, OldOid: base.oid, NewOid: newOid,
			})
		}
	}
	for rel, e := range baseFlat {
		if !onDisk[rel] {
			status.Changed = append(status.Changed, objectstore.DiffEntry{
				Path: mawtypes.Path(rel), Kind: objectstore.ChangeDelete, OldOid: e.oid,
			})
		}
	}

	sort.Slice(status.Changed, func(i, j int) bool { return status.Changed[i].Path.Less(status.Changed[j].Path) })
	sort.Slice(status.Untracked, func(i, j int) bool { return status.Untracked[i].Less(status.Untracked[j]) })
	return status, nil
}

func (r *Repo) IsAncestor(_ context.Context, ancestor, descendant mawtypes.ObjId) (bool, error) {
	descCommit, err := r.commitObj(descendant)
	if err != nil {
		return false, err
	}
	ancCommit, err := r.commitObj(ancestor)
	if err != nil {
		return false, err
	}
	return ancCommit.IsAncestor(descCommit)
}
