package conflict

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ReasonKind discriminates ConflictReason's tagged union, under the
// "reason" field. Distinct from patch.ConflictReason, which classifies
// path-level join conflicts rather than region-level content conflicts.
type ReasonKind string

const (
	ReasonOverlappingLineEdits ReasonKind = "overlapping_line_edits"
	ReasonSameAstNodeModified  ReasonKind = "same_ast_node_modified"
	ReasonNonCommutativeEdits ReasonKind = "non_commutative_edits"
	ReasonCustom               ReasonKind = "custom"
)

// ConflictReason explains why a ConflictAtom's edits could not be merged
// automatically.
type ConflictReason struct {
	Kind        ReasonKind
	Description string
}

func OverlappingLineEdits(description string) ConflictReason {
	return ConflictReason{Kind: ReasonOverlappingLineEdits, Description: description}
}

func SameAstNodeModified(description string) ConflictReason {
	return ConflictReason{Kind: ReasonSameAstNodeModified, Description: description}
}

func NonCommutativeEdits(description string) ConflictReason {
	return ConflictReason{Kind: ReasonNonCommutativeEdits, Description: description}
}

func CustomReason(description string) ConflictReason {
	return ConflictReason{Kind: ReasonCustom, Description: description}
}

func (r ConflictReason) VariantName() string {
	return string(r.Kind)
}

func (r ConflictReason) String() string {
	return r.Description
}

type reasonWire struct {
	Reason      ReasonKind `json:"reason"`
	Description string     `json:"description"`
}

func (r ConflictReason) MarshalJSON() ([]byte, error) {
	switch r.Kind {
	case ReasonOverlappingLineEdits, ReasonSameAstNodeModified, ReasonNonCommutativeEdits, ReasonCustom:
		return json.Marshal(reasonWire{Reason: r.Kind, Description: r.Description})
	default:
		return nil, fmt.Errorf("conflict: unknown ConflictReason kind %q", r.Kind)
	}
}

func (r *ConflictReason) UnmarshalJSON(data []byte) error {
	var w reasonWire
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&w); err != nil {
		return fmt.Errorf("conflict: decode ConflictReason: %w", err)
	}
	switch w.Reason {
	case ReasonOverlappingLineEdits, ReasonSameAstNodeModified, ReasonNonCommutativeEdits, ReasonCustom:
		*r = ConflictReason{Kind: w.Reason, Description: w.Description}
		return nil
	default:
		return fmt.Errorf("conflict: unknown ConflictReason kind %q", w.Reason)
	}
}
