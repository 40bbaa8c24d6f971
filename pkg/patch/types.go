package patch

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/cuemby/maw/pkg/mawtypes"
)

func sortPaths(paths []mawtypes.Path) {
	sort.Slice(paths, func(i, j int) bool { return paths[i].Less(paths[j]) })
}

// Kind discriminates the PatchValue tagged union. JSON encodes it under
// the "op" field, snake_case, matching spec.md §3's canonicalization rule.
type Kind string

const (
	KindAdd    Kind = "add"
	KindDelete Kind = "delete"
	KindModify Kind = "modify"
	KindRename Kind = "rename"
)

// PatchValue is what a patch-set records for a single path: one of Add,
// Delete, Modify, or Rename. Exactly one of the variant-specific fields is
// meaningful, selected by Kind — a struct-with-kind-field tagged union
// rather than an interface, so PatchSet's map stays directly comparable
// and canonically serializable.
type PatchValue struct {
	Kind Kind

	// Add, Delete
	Blob         mawtypes.ObjId // Add
	PreviousBlob mawtypes.ObjId // Delete

	// Modify
	BaseBlob mawtypes.ObjId
	NewBlob  mawtypes.ObjId

	// Rename. NewBlob reused for the "content changed" case; RenameSameContent
	// distinguishes "new_blob: None" (identical content) from "new_blob: Some(blob)"
	// since mawtypes.ObjId has no nil state other than the zero OID, which is
	// itself a valid (if degenerate) blob id.
	From               mawtypes.Path
	RenameSameContent  bool
	RenameNewBlob      mawtypes.ObjId

	FileId mawtypes.FileId
}

func Add(blob mawtypes.ObjId, fileID mawtypes.FileId) PatchValue {
	return PatchValue{Kind: KindAdd, Blob: blob, FileId: fileID}
}

func Delete(previousBlob mawtypes.ObjId, fileID mawtypes.FileId) PatchValue {
	return PatchValue{Kind: KindDelete, PreviousBlob: previousBlob, FileId: fileID}
}

func Modify(baseBlob, newBlob mawtypes.ObjId, fileID mawtypes.FileId) PatchValue {
	return PatchValue{Kind: KindModify, BaseBlob: baseBlob, NewBlob: newBlob, FileId: fileID}
}

// Rename constructs a Rename variant. newBlob is nil when the content at
// the destination is identical to from's base blob.
func Rename(from mawtypes.Path, fileID mawtypes.FileId, newBlob *mawtypes.ObjId) PatchValue {
	pv := PatchValue{Kind: KindRename, From: from, FileId: fileID}
	if newBlob == nil {
		pv.RenameSameContent = true
	} else {
		pv.RenameNewBlob = *newBlob
	}
	return pv
}

// Equal is structural equality per spec.md §4.2's join precondition —
// PatchValue carries unexported-equivalent zero values across variants,
// so the derived struct == would compare irrelevant fields too; this is
// still fine in practice since the constructors never populate those
// fields, but Equal documents the intent and is what join uses.
func (p PatchValue) Equal(other PatchValue) bool {
	return p == other
}

// patchValueWire is the canonical JSON shape: a "op" discriminator plus
// only the fields the variant uses, field order matching the order
// listed in spec.md §3.
type patchValueWire struct {
	Op           Kind            `json:"op"`
	Blob         *mawtypes.ObjId `json:"blob,omitempty"`
	FileId       mawtypes.FileId `json:"file_id"`
	PreviousBlob *mawtypes.ObjId `json:"previous_blob,omitempty"`
	BaseBlob     *mawtypes.ObjId `json:"base_blob,omitempty"`
	NewBlob      *mawtypes.ObjId `json:"new_blob,omitempty"`
	From         *mawtypes.Path  `json:"from,omitempty"`
}

func (p PatchValue) MarshalJSON() ([]byte, error) {
	w := patchValueWire{Op: p.Kind, FileId: p.FileId}
	switch p.Kind {
	case KindAdd:
		w.Blob = &p.Blob
	case KindDelete:
		w.PreviousBlob = &p.PreviousBlob
	case KindModify:
		w.BaseBlob = &p.BaseBlob
		w.NewBlob = &p.NewBlob
	case KindRename:
		w.From = &p.From
		if !p.RenameSameContent {
			w.NewBlob = &p.RenameNewBlob
		}
	default:
		return nil, fmt.Errorf("patch: unknown PatchValue kind %q", p.Kind)
	}
	return json.Marshal(w)
}

func (p *PatchValue) UnmarshalJSON(data []byte) error {
	var w patchValueWire
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&w); err != nil {
		return fmt.Errorf("patch: decode PatchValue: %w", err)
	}
	out := PatchValue{Kind: w.Op, FileId: w.FileId}
	switch w.Op {
	case KindAdd:
		if w.Blob == nil {
			return fmt.Errorf("patch: add variant missing blob")
		}
		out.Blob = *w.Blob
	case KindDelete:
		if w.PreviousBlob == nil {
			return fmt.Errorf("patch: delete variant missing previous_blob")
		}
		out.PreviousBlob = *w.PreviousBlob
	case KindModify:
		if w.BaseBlob == nil || w.NewBlob == nil {
			return fmt.Errorf("patch: modify variant missing base_blob/new_blob")
		}
		out.BaseBlob, out.NewBlob = *w.BaseBlob, *w.NewBlob
	case KindRename:
		if w.From == nil {
			return fmt.Errorf("patch: rename variant missing from")
		}
		out.From = *w.From
		if w.NewBlob == nil {
			out.RenameSameContent = true
		} else {
			out.RenameNewBlob = *w.NewBlob
		}
	default:
		return fmt.Errorf("patch: unknown PatchValue op %q", w.Op)
	}
	*p = out
	return nil
}

// PatchSet is the per-workspace delta against a shared base epoch.
type PatchSet struct {
	BaseEpoch mawtypes.EpochId
	Patches   map[mawtypes.Path]PatchValue
}

func Empty(baseEpoch mawtypes.EpochId) PatchSet {
	return PatchSet{BaseEpoch: baseEpoch, Patches: map[mawtypes.Path]PatchValue{}}
}

func (ps PatchSet) Len() int { return len(ps.Patches) }

// SortedPaths returns the patch-set's keys in lexicographic order, the
// iteration order spec.md §3 requires for determinism.
func (ps PatchSet) SortedPaths() []mawtypes.Path {
	paths := make([]mawtypes.Path, 0, len(ps.Patches))
	for p := range ps.Patches {
		paths = append(paths, p)
	}
	sortPaths(paths)
	return paths
}

// patchSetWire mirrors PatchSet but lets encoding/json's native
// string-keyed-map sorting give us the lexicographic-by-path order
// spec.md §3 requires, without a bespoke sort in the marshaler.
type patchSetWire struct {
	BaseEpoch mawtypes.EpochId        `json:"base_epoch"`
	Patches   map[mawtypes.Path]PatchValue `json:"patches"`
}

func (ps PatchSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(patchSetWire{BaseEpoch: ps.BaseEpoch, Patches: ps.Patches})
}

func (ps *PatchSet) UnmarshalJSON(data []byte) error {
	var w patchSetWire
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("patch: decode PatchSet: %w", err)
	}
	if w.Patches == nil {
		w.Patches = map[mawtypes.Path]PatchValue{}
	}
	*ps = PatchSet{BaseEpoch: w.BaseEpoch, Patches: w.Patches}
	return nil
}
