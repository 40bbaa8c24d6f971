// Package artifact reads and writes the JSON/YAML documents the engine
// persists outside the object store (spec.md §6): merge plans, per-workspace
// reports, destroy records, workspace metadata, and the persistent
// path-to-FileId map. Every JSON write goes through WriteAtomic, the
// temp-file-plus-fsync-plus-rename discipline §6 mandates; nothing in this
// package touches the object store itself.
package artifact
