package merge

import (
	"bytes"
	"sort"

	"github.com/cuemby/maw/pkg/mawtypes"
)

// RenameConflictKind discriminates RenameConflict.
type RenameConflictKind string

const (
	// RenameDivergent: two or more workspaces renamed the same file to
	// different destinations.
	RenameDivergent RenameConflictKind = "divergent_rename"
	// RenameDeleteKind: one workspace renamed a file another workspace
	// deleted outright.
	RenameDeleteKind RenameConflictKind = "rename_delete"
)

// RenameOccurrence is one workspace's change at one path for a given
// FileId, carried into a RenameConflict so resolve.go can build a full
// conflict.ConflictSide (content plus timestamp) without re-walking the
// partition.
type RenameOccurrence struct {
	WorkspaceId mawtypes.WorkspaceId
	Path        mawtypes.Path
	Entry       PathEntry
}

// RenameConflict is a conflict detected during rename-aware rewriting
// (spec.md §4.7 Rename-aware rewriting). resolve.go projects it onto
// conflict.Conflict's fixed four-variant union: Divergent becomes a
// DivergentRename conflict, RenameDelete becomes a ModifyDelete conflict
// (the renamer is the modifier side) since there is no dedicated
// rename/delete tag.
type RenameConflict struct {
	Kind         RenameConflictKind
	FileId       mawtypes.FileId
	OriginalPath mawtypes.Path

	// Divergent: every destination, sorted by workspace id.
	Destinations []RenameOccurrence

	// RenameDelete
	Renamer RenameOccurrence
	Deleter RenameOccurrence
}

// RenameAwareResult is the output of ApplyRenameAwareness.
type RenameAwareResult struct {
	Partition       PartitionResult
	RenameConflicts []RenameConflict
}

func (r RenameAwareResult) HasRenameConflicts() bool { return len(r.RenameConflicts) > 0 }

type pathWsKey struct {
	path mawtypes.Path
	ws   mawtypes.WorkspaceId
}

type pathGroup struct {
	path mawtypes.Path
	occs []RenameOccurrence
}

// ApplyRenameAwareness scans a partition result for FileIds that appear
// under more than one distinct path across workspaces' changes and
// rewrites the partition so a rename and whatever else touched the same
// file are routed to the same (destination) path, or reported as a
// RenameConflict (spec.md §4.7 Rename-aware rewriting).
func ApplyRenameAwareness(partition PartitionResult) RenameAwareResult {
	fileIDIndex := make(map[mawtypes.FileId][]RenameOccurrence)

	for _, u := range partition.Unique {
		fid := u.Entry.Value.FileId
		fileIDIndex[fid] = append(fileIDIndex[fid], RenameOccurrence{WorkspaceId: u.Entry.WorkspaceId, Path: u.Path, Entry: u.Entry})
	}
	for _, s := range partition.Shared {
		for _, e := range s.Entries {
			fileIDIndex[e.Value.FileId] = append(fileIDIndex[e.Value.FileId], RenameOccurrence{WorkspaceId: e.WorkspaceId, Path: s.Path, Entry: e})
		}
	}

	fileIds := make([]mawtypes.FileId, 0, len(fileIDIndex))
	for fid := range fileIDIndex {
		fileIds = append(fileIds, fid)
	}
	sort.Slice(fileIds, func(i, j int) bool { return bytes.Compare(fileIds[i][:], fileIds[j][:]) < 0 })

	consumed := make(map[pathWsKey]bool)
	rerouted := make(map[mawtypes.Path][]PathEntry)
	var renameConflicts []RenameConflict

	for _, fid := range fileIds {
		occurrences := fileIDIndex[fid]

		pathsSeen := make(map[mawtypes.Path][]RenameOccurrence)
		var sortedPaths []mawtypes.Path
		for _, occ := range occurrences {
			if _, ok := pathsSeen[occ.Path]; !ok {
				sortedPaths = append(sortedPaths, occ.Path)
			}
			pathsSeen[occ.Path] = append(pathsSeen[occ.Path], occ)
		}
		if len(pathsSeen) <= 1 {
			continue
		}
		sort.Slice(sortedPaths, func(i, j int) bool { return sortedPaths[i].Less(sortedPaths[j]) })

		var addPaths, modifyPaths []pathGroup
		var deleteOccurrences []RenameOccurrence

		for _, path := range sortedPaths {
			occs := pathsSeen[path]
			hasAdd := false
			var nonDeletes []RenameOccurrence
			for _, occ := range occs {
				if occ.Entry.isAddLike() {
					hasAdd = true
				}
				if occ.Entry.isDeletion() {
					deleteOccurrences = append(deleteOccurrences, occ)
				} else {
					nonDeletes = append(nonDeletes, occ)
				}
			}
			if len(nonDeletes) == 0 {
				continue
			}
			if hasAdd {
				addPaths = append(addPaths, pathGroup{path, nonDeletes})
			} else {
				modifyPaths = append(modifyPaths, pathGroup{path, nonDeletes})
			}
		}

		consumeAll := func() {
			for _, occ := range occurrences {
				consumed[pathWsKey{occ.Path, occ.WorkspaceId}] = true
			}
		}

		// Case 1: two or more distinct destinations -> divergent rename.
		if len(addPaths) >= 2 {
			original := addPaths[0].path
			if len(modifyPaths) > 0 {
				original = modifyPaths[0].path
			}
			var destinations []RenameOccurrence
			for _, g := range addPaths {
				destinations = append(destinations, g.occs...)
			}
			sort.Slice(destinations, func(i, j int) bool { return destinations[i].WorkspaceId.Less(destinations[j].WorkspaceId) })

			renameConflicts = append(renameConflicts, RenameConflict{
				Kind:         RenameDivergent,
				FileId:       fid,
				OriginalPath: original,
				Destinations: destinations,
			})
			consumeAll()
			continue
		}

		if len(addPaths) != 1 {
			continue
		}

		destPath := addPaths[0].path
		destOccs := addPaths[0].occs

		destWorkspaces := make(map[mawtypes.WorkspaceId]bool, len(destOccs))
		for _, o := range destOccs {
			destWorkspaces[o.WorkspaceId] = true
		}
		workspacesWithNonDelete := make(map[mawtypes.WorkspaceId]bool)
		for _, occ := range occurrences {
			if !occ.Entry.isDeletion() {
				workspacesWithNonDelete[occ.WorkspaceId] = true
			}
		}

		// A "pure deleter" is a workspace whose only occurrence of this
		// FileId, across every path, is a delete at a path other than the
		// rename's destination.
		var purDeleters []RenameOccurrence
		for _, occ := range deleteOccurrences {
			if destWorkspaces[occ.WorkspaceId] || occ.Path == destPath {
				continue
			}
			if workspacesWithNonDelete[occ.WorkspaceId] {
				continue
			}
			purDeleters = append(purDeleters, occ)
		}

		// Case 2: exactly one add-path, with a genuine pure deleter.
		if len(purDeleters) > 0 {
			renameConflicts = append(renameConflicts, RenameConflict{
				Kind:         RenameDeleteKind,
				FileId:       fid,
				OriginalPath: purDeleters[0].Path,
				Renamer:      destOccs[0],
				Deleter:      purDeleters[0],
			})
			consumeAll()
			continue
		}

		// Case 3: rename (plus possibly concurrent edits at the old or
		// new path). Reroute every non-destination occurrence to the
		// destination path; deletions at old paths are dropped as
		// expected rename side effects, non-deletions merge with the
		// destination's own occurrences so resolve can detect agreement
		// or conflict there.
		for _, path := range sortedPaths {
			if path == destPath {
				continue
			}
			for _, occ := range pathsSeen[path] {
				consumed[pathWsKey{occ.Path, occ.WorkspaceId}] = true
				if !occ.Entry.isDeletion() {
					rerouted[destPath] = append(rerouted[destPath], occ.Entry)
				}
			}
		}
		for _, occ := range destOccs {
			consumed[pathWsKey{occ.Path, occ.WorkspaceId}] = true
			rerouted[destPath] = append(rerouted[destPath], occ.Entry)
		}
	}

	newUnique, newShared := rebuildPartition(partition, consumed, rerouted)

	sort.Slice(renameConflicts, func(i, j int) bool {
		return bytes.Compare(renameConflicts[i].FileId[:], renameConflicts[j].FileId[:]) < 0
	})

	return RenameAwareResult{
		Partition:       PartitionResult{Unique: newUnique, Shared: newShared},
		RenameConflicts: renameConflicts,
	}
}

func rebuildPartition(partition PartitionResult, consumed map[pathWsKey]bool, rerouted map[mawtypes.Path][]PathEntry) ([]UniqueEntry, []SharedEntry) {
	var newUnique []UniqueEntry
	sharedAcc := make(map[mawtypes.Path][]PathEntry)

	for _, u := range partition.Unique {
		if consumed[pathWsKey{u.Path, u.Entry.WorkspaceId}] {
			continue
		}
		newUnique = append(newUnique, u)
	}

	for _, s := range partition.Shared {
		var remaining []PathEntry
		for _, e := range s.Entries {
			if consumed[pathWsKey{s.Path, e.WorkspaceId}] {
				continue
			}
			remaining = append(remaining, e)
		}
		if len(remaining) == 0 {
			continue
		}
		sharedAcc[s.Path] = append(sharedAcc[s.Path], remaining...)
	}

	var reroutedPaths []mawtypes.Path
	for path := range rerouted {
		reroutedPaths = append(reroutedPaths, path)
	}
	sort.Slice(reroutedPaths, func(i, j int) bool { return reroutedPaths[i].Less(reroutedPaths[j]) })
	for _, path := range reroutedPaths {
		sharedAcc[path] = append(sharedAcc[path], rerouted[path]...)
	}

	var sharedPaths []mawtypes.Path
	for path := range sharedAcc {
		sharedPaths = append(sharedPaths, path)
	}
	sort.Slice(sharedPaths, func(i, j int) bool { return sharedPaths[i].Less(sharedPaths[j]) })

	var newShared []SharedEntry
	for _, path := range sharedPaths {
		entries := sharedAcc[path]
		sort.Slice(entries, func(i, j int) bool { return entries[i].WorkspaceId.Less(entries[j].WorkspaceId) })
		if len(entries) == 1 {
			newUnique = append(newUnique, UniqueEntry{Path: path, Entry: entries[0]})
			continue
		}
		newShared = append(newShared, SharedEntry{Path: path, Entries: entries})
	}

	sort.Slice(newUnique, func(i, j int) bool { return newUnique[i].Path.Less(newUnique[j].Path) })

	return newUnique, newShared
}
