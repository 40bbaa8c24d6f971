package gitbackend

import (
	"context"
	"sort"
	"strings"

	"github.com/cuemby/maw/pkg/mawtypes"
	"github.com/cuemby/maw/pkg/objectstore"
)

// EditTree applies edits against base by walking object.Tree entries one
// level at a time and splicing in inserts/deletes, re-encoding each
// touched level bottom-up — mirroring the original Rust implementation's
// build-order, adapted to go-git's immutable object.Tree value type
// instead of an owned tree builder (every level we touch is a brand-new
// tree object; go-git gives us no in-place mutation to exploit anyway).
func (r *Repo) EditTree(ctx context.Context, base mawtypes.ObjId, edits []objectstore.TreeEdit) (mawtypes.ObjId, error) {
	return r.editTreeLevel(ctx, base, edits)
}

func (r *Repo) editTreeLevel(ctx context.Context, base mawtypes.ObjId, edits []objectstore.TreeEdit) (mawtypes.ObjId, error) {
	var entries []objectstore.TreeEntry
	if !base.IsZero() {
		tree, err := r.ReadTree(ctx, base)
		if err != nil {
			return mawtypes.ObjId{}, err
		}
		entries = tree.Entries
	}
	byName := make(map[string]objectstore.TreeEntry, len(entries))
	for _, e := range entries {
		byName[e.Name.String()] = e
	}

	// Group edits by their first path segment: direct edits (single
	// segment) apply at this level; deeper edits recurse into a subtree.
	direct := map[string]objectstore.TreeEdit{}
	nested := map[string][]objectstore.TreeEdit{}
	for _, edit := range edits {
		head, rest, isNested := splitPath(edit.Path.String())
		if !isNested {
			direct[head] = edit
			continue
		}
		child := edit
		child.Path = mawtypes.Path(rest)
		nested[head] = append(nested[head], child)
	}

	for name, edit := range direct {
		switch edit.Kind {
		case objectstore.TreeEditInsert:
			byName[name] = objectstore.TreeEntry{Name: edit.Path, Mode: edit.Mode, Oid: edit.Oid}
		case objectstore.TreeEditDelete:
			delete(byName, name)
		}
	}

	for name, childEdits := range nested {
		childBase := mawtypes.ZeroOID
		if existing, ok := byName[name]; ok && existing.Mode.IsTree() {
			childBase = existing.Oid
		}
		childOid, err := r.editTreeLevel(ctx, childBase, childEdits)
		if err != nil {
			return mawtypes.ObjId{}, err
		}
		if childOid.IsZero() {
			// Subtree ended up empty: drop it entirely, matching git's
			// rule that trees never contain empty subtrees.
			delete(byName, name)
			continue
		}
		byName[name] = objectstore.TreeEntry{
			Name: mawtypes.Path(name),
			Mode: objectstore.ModeTree,
			Oid:  childOid,
		}
	}

	if len(byName) == 0 {
		return mawtypes.ZeroOID, nil
	}

	out := make([]objectstore.TreeEntry, 0, len(byName))
	for _, e := range byName {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name.Less(out[j].Name) })

	return r.writeTree(objectstore.Tree{Entries: out})
}

// splitPath splits a repository-relative path into its first segment and
// the remainder. isNested is false when path has no further "/".
func splitPath(path string) (head, rest string, isNested bool) {
	idx := strings.IndexByte(path, '/')
	if idx < 0 {
		return path, "", false
	}
	return path[:idx], path[idx+1:], true
}
