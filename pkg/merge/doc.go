// Package merge implements the N-way merge pipeline: collect each source
// workspace's patch-set, partition changes by path, rewrite renames
// across workspace boundaries, resolve what can be auto-resolved and
// report the rest as structured conflicts, build the resulting tree and
// commit, then atomically advance the epoch and every participating
// workspace's head (spec.md §4.7).
package merge
