// Package workspace implements a workspace's lifecycle (spec.md §4.10-§4.11):
// create it at an epoch, snapshot its working-tree deltas into the op log,
// safely rewrite its working copy across an epoch transition without losing
// uncommitted work, destroy it with a recovery pin and an artifact record,
// and recover a destroyed workspace from that pin. Every operation here is a
// thin orchestration over pkg/objectstore (checkout, status, stash),
// pkg/patch (the workspace-diff algorithm), pkg/oplog (the op chain), and
// pkg/refs/pkg/artifact (the ref and on-disk artifact layers) — the same
// composition style pkg/merge uses to orchestrate collect/partition/resolve
// over lower-level capabilities rather than reimplementing them.
package workspace
