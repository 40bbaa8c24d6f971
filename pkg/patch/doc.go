// Package patch implements the patch-set algebra: the tagged-union
// PatchValue model, the CRDT join that merges two patch-sets sharing a
// base epoch, and the diff that derives a patch-set from a workspace
// directory against that epoch.
//
// Grounded on original_source's src/model/patch.rs, src/model/join.rs and
// src/model/diff.rs for exact semantics; the Go shape follows the same
// Kind-discriminated-struct pattern pkg/oplog uses for its own payloads.
package patch
