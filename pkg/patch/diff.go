package patch

import (
	"context"
	"os"
	"path/filepath"

	"github.com/cuemby/maw/pkg/apperr"
	"github.com/cuemby/maw/pkg/mawtypes"
	"github.com/cuemby/maw/pkg/objectstore"
)

// Diff derives a PatchSet for workdir against baseEpoch (spec.md §4.9):
//
//  1. Enumerate tracked changes and untracked files via the object store's
//     working-tree status.
//  2. Pair deleted and untracked entries that share identical content as
//     renames — the same exact-content-match heuristic the object store's
//     own DiffTrees uses, so a content-changed rename still surfaces here
//     as a paired Add and Delete rather than a Rename.
//  3. Map every surviving entry to a PatchValue, resolving blob oids
//     (writing new blobs for on-disk content) and a FileId via allocator.
func Diff(ctx context.Context, store objectstore.Store, workdir string, baseEpoch mawtypes.EpochId, allocator mawtypes.FileIDAllocator) (PatchSet, error) {
	commit, err := store.ReadCommit(ctx, baseEpoch)
	if err != nil {
		return PatchSet{}, apperr.BackendIo(err, "read base epoch commit %s", baseEpoch)
	}

	status, err := store.Status(ctx, workdir, commit.Tree)
	if err != nil {
		return PatchSet{}, apperr.BackendIo(err, "compute working-tree status for %s", workdir)
	}

	var deleted []objectstore.DiffEntry
	var modified []objectstore.DiffEntry
	for _, d := range status.Changed {
		switch d.Kind {
		case objectstore.ChangeDelete:
			deleted = append(deleted, d)
		case objectstore.ChangeModify:
			modified = append(modified, d)
		}
	}

	type added struct {
		path mawtypes.Path
		oid  mawtypes.ObjId
	}
	addedEntries := make([]added, 0, len(status.Untracked))
	for _, p := range status.Untracked {
		data, readErr := os.ReadFile(filepath.Join(workdir, filepath.FromSlash(p.String())))
		if readErr != nil {
			return PatchSet{}, apperr.BackendIo(readErr, "read untracked file %q", p)
		}
		oid, writeErr := store.WriteBlob(ctx, data)
		if writeErr != nil {
			return PatchSet{}, apperr.BackendIo(writeErr, "write blob for %q", p)
		}
		addedEntries = append(addedEntries, added{path: p, oid: oid})
	}

	byOid := make(map[mawtypes.ObjId]int, len(addedEntries))
	for i, a := range addedEntries {
		byOid[a.oid] = i
	}
	consumed := make(map[int]bool, len(addedEntries))

	patches := make(map[mawtypes.Path]PatchValue, len(deleted)+len(addedEntries)+len(modified))

	for _, d := range deleted {
		if idx, ok := byOid[d.OldOid]; ok && !consumed[idx] {
			consumed[idx] = true
			dest := addedEntries[idx]
			fileID, allocErr := allocator.Allocate(d.Path.String(), d.OldOid)
			if allocErr != nil {
				return PatchSet{}, apperr.Validation("check the FileId allocator configuration", "allocate file id for renamed path %q: %v", d.Path, allocErr)
			}
			patches[dest.path] = Rename(d.Path, fileID, nil)
			continue
		}
		fileID, allocErr := allocator.Allocate(d.Path.String(), d.OldOid)
		if allocErr != nil {
			return PatchSet{}, apperr.Validation("check the FileId allocator configuration", "allocate file id for deleted path %q: %v", d.Path, allocErr)
		}
		patches[d.Path] = Delete(d.OldOid, fileID)
	}

	for i, a := range addedEntries {
		if consumed[i] {
			continue
		}
		fileID, allocErr := allocator.Allocate(a.path.String(), mawtypes.ZeroOID)
		if allocErr != nil {
			return PatchSet{}, apperr.Validation("check the FileId allocator configuration", "allocate file id for added path %q: %v", a.path, allocErr)
		}
		patches[a.path] = Add(a.oid, fileID)
	}

	for _, m := range modified {
		// Status only computes the would-be oid to detect a change; it
		// never persists the blob (it has no store-mutation mandate).
		// Diff does, per step 3.
		data, readErr := os.ReadFile(filepath.Join(workdir, filepath.FromSlash(m.Path.String())))
		if readErr != nil {
			return PatchSet{}, apperr.BackendIo(readErr, "read modified file %q", m.Path)
		}
		newOid, writeErr := store.WriteBlob(ctx, data)
		if writeErr != nil {
			return PatchSet{}, apperr.BackendIo(writeErr, "write blob for %q", m.Path)
		}
		fileID, allocErr := allocator.Allocate(m.Path.String(), m.OldOid)
		if allocErr != nil {
			return PatchSet{}, apperr.Validation("check the FileId allocator configuration", "allocate file id for modified path %q: %v", m.Path, allocErr)
		}
		patches[m.Path] = Modify(m.OldOid, newOid, fileID)
	}

	return PatchSet{BaseEpoch: baseEpoch, Patches: patches}, nil
}
