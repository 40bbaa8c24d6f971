package merge

import (
	"sort"

	"github.com/cuemby/maw/pkg/mawtypes"
)

// PartitionByPath builds an inverted index from path to every collected
// workspace's change at that path, then splits it into unique (exactly
// one workspace) and shared (two or more, sorted by workspace id) entries,
// both sorted lexicographically by path (spec.md §4.7 Partition by path).
func PartitionByPath(collected []CollectedWorkspace) PartitionResult {
	index := make(map[mawtypes.Path][]PathEntry)
	var paths []mawtypes.Path

	for _, c := range collected {
		for path, val := range c.PatchSet.Patches {
			if _, ok := index[path]; !ok {
				paths = append(paths, path)
			}
			index[path] = append(index[path], PathEntry{
				WorkspaceId: c.WorkspaceId,
				Value:       val,
				Timestamp:   c.Timestamp,
			})
		}
	}

	sort.Slice(paths, func(i, j int) bool { return paths[i].Less(paths[j]) })

	var unique []UniqueEntry
	var shared []SharedEntry
	for _, p := range paths {
		entries := index[p]
		if len(entries) == 1 {
			unique = append(unique, UniqueEntry{Path: p, Entry: entries[0]})
			continue
		}
		sort.Slice(entries, func(i, j int) bool { return entries[i].WorkspaceId.Less(entries[j].WorkspaceId) })
		shared = append(shared, SharedEntry{Path: p, Entries: entries})
	}

	return PartitionResult{Unique: unique, Shared: shared}
}
