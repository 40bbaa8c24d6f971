package merge

import (
	"context"
	"sort"

	"github.com/cuemby/maw/pkg/mawtypes"
	"github.com/cuemby/maw/pkg/objectstore"
)

// Build applies resolved changes against baseTree and creates a new
// commit recording the merge (spec.md §4.7 Build). It delegates the tree
// reconstruction to objectstore.Store.EditTree, which already applies a
// batch of inserts/deletes at arbitrary nested paths and returns the
// resulting root tree oid — the same "tree-edit primitives" capability a
// from-scratch implementation would otherwise hand-roll by walking the
// tree bottom-up itself.
func Build(ctx context.Context, store objectstore.Store, baseTree mawtypes.ObjId, resolved []ResolvedChange, parents []mawtypes.ObjId, message string) (mawtypes.ObjId, error) {
	edits := make([]objectstore.TreeEdit, 0, len(resolved))
	sorted := append([]ResolvedChange(nil), resolved...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path.Less(sorted[j].Path) })

	for _, c := range sorted {
		switch c.Op {
		case ChangeDelete:
			edits = append(edits, objectstore.TreeEdit{Kind: objectstore.TreeEditDelete, Path: c.Path})
		case ChangeUpsert:
			edits = append(edits, objectstore.TreeEdit{
				Kind: objectstore.TreeEditInsert,
				Path: c.Path,
				Mode: objectstore.ModeFile,
				Oid:  c.Blob,
			})
		}
	}

	newTree, err := store.EditTree(ctx, baseTree, edits)
	if err != nil {
		return mawtypes.ObjId{}, err
	}

	return store.CreateCommit(ctx, newTree, parents, message, "")
}
