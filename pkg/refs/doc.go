// Package refs names the reserved ref namespace (spec.md §3, §6) and
// composes objectstore.Store.AtomicRefUpdate for the handful of
// multi-ref transactions the engine needs outside pkg/merge's own
// epoch-plus-heads commit (which keeps its own local EpochRef constant
// until this package is wired in as its canonical source — see
// DESIGN.md).
package refs
