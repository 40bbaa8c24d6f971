// Package conflict implements the structured conflict model the merge
// engine reports instead of marker-soup text conflicts (spec.md §4.8):
// Conflict (Content/AddAdd/ModifyDelete/DivergentRename), its localization
// types (Region, ConflictAtom, AtomEdit), and ConflictSide.
//
// Grounded on original_source's src/model/conflict.rs: the tagged-union
// shape, the "type"/"kind"/"reason" discriminator fields, and the
// sorted-by-workspace determinism rule all carry over unchanged in
// meaning.
package conflict
