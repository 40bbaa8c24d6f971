// Package oplog implements the op log: the append-only, per-workspace
// chain of Operations that is the single source of truth the rest of the
// engine replays (spec.md §4.3). It owns the Operation/OpPayload wire
// model, canonical serialization, the CAS-guarded append, and the
// DFS/dedup chain walk.
//
// Grounded on original_source's oplog/view.rs, oplog/global_view.rs and
// oplog/checkpoint.rs for the exact OpPayload variants and walk semantics
// (the op/payload type definitions themselves live in a file the
// retrieval pack didn't include, so their shapes are reconstructed from
// spec.md §3/§4.3 and from how every pack file that imports them uses
// them). The Kind-discriminated struct, switch-based Marshal/Unmarshal
// pattern follows pkg/patch.PatchValue, itself grounded on the teacher's
// pkg/manager/fsm.go Command{Op,Data} envelope.
package oplog
