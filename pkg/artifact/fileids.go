package artifact

import (
	"os"
	"sort"

	"github.com/cuemby/maw/pkg/mawtypes"
)

// fileIDEntry is one row of the `.{reserved}/fileids` JSON array: `{path,
// file_id}` (spec.md §6).
type fileIDEntry struct {
	Path   string        `json:"path"`
	FileId mawtypes.FileId `json:"file_id"`
}

// WriteFileIDMap persists alloc's current path→FileId mapping to path,
// sorted by path for canonical, diff-friendly output (spec.md §6
// serialization canonicalization).
func WriteFileIDMap(path string, alloc *mawtypes.MapAllocator) error {
	snapshot := alloc.Snapshot()
	entries := make([]fileIDEntry, 0, len(snapshot))
	for p, id := range snapshot {
		entries = append(entries, fileIDEntry{Path: p, FileId: id})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	return WriteJSONAtomic(path, entries)
}

// ReadFileIDMap loads a previously persisted fileid map into a fresh
// MapAllocator. A missing file yields an empty allocator, mirroring the
// metadata.rs convention that an absent artifact means "nothing recorded
// yet" rather than an error.
func ReadFileIDMap(path string) (*mawtypes.MapAllocator, error) {
	var entries []fileIDEntry
	if err := ReadJSON(path, &entries); err != nil {
		if os.IsNotExist(err) {
			return mawtypes.NewMapAllocator(), nil
		}
		return nil, err
	}
	m := make(map[string]mawtypes.FileId, len(entries))
	for _, e := range entries {
		m[e.Path] = e.FileId
	}
	return mawtypes.LoadMapAllocator(m), nil
}
