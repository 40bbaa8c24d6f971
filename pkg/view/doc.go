// Package view materializes a per-workspace read-side view from its op
// log (spec.md §4.4), checkpoints and compacts that log (§4.5), and folds
// every non-destroyed workspace's view into a repository-wide GlobalView
// via patch-set join (§4.6).
//
// Replay is pure: MaterializedView holds no reference to the store it was
// built from, so it can be checkpointed, cached, and compared by value.
package view
