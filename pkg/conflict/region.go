package conflict

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// RegionKind discriminates Region's tagged union, under the "kind" field.
type RegionKind string

const (
	RegionLines    RegionKind = "lines"
	RegionAstNode  RegionKind = "ast_node"
	RegionWhole    RegionKind = "whole_file"
)

// Region localizes a conflict within a file: a line range, an AST-node
// span, or the whole file when no finer granularity is available.
type Region struct {
	Kind RegionKind

	// Lines
	Start uint32
	End   uint32

	// AstNode
	NodeKind  string
	Name      string // empty means "no name" (the Rust Option<String>'s None)
	HasName   bool
	StartByte uint32
	EndByte   uint32
}

func Lines(start, end uint32) Region {
	return Region{Kind: RegionLines, Start: start, End: end}
}

func AstNode(nodeKind string, name string, hasName bool, startByte, endByte uint32) Region {
	return Region{Kind: RegionAstNode, NodeKind: nodeKind, Name: name, HasName: hasName, StartByte: startByte, EndByte: endByte}
}

func WholeFile() Region {
	return Region{Kind: RegionWhole}
}

// Summary returns a human-readable one-line description, the same text
// Display formats.
func (r Region) Summary() string {
	switch r.Kind {
	case RegionLines:
		return fmt.Sprintf("lines %d..%d", r.Start, r.End)
	case RegionAstNode:
		if r.HasName {
			return fmt.Sprintf("%s `%s`", r.NodeKind, r.Name)
		}
		return r.NodeKind
	default:
		return "whole file"
	}
}

func (r Region) String() string { return r.Summary() }

type regionWire struct {
	Kind      RegionKind `json:"kind"`
	Start     *uint32    `json:"start,omitempty"`
	End       *uint32    `json:"end,omitempty"`
	NodeKind  string     `json:"node_kind,omitempty"`
	Name      *string    `json:"name,omitempty"`
	StartByte *uint32    `json:"start_byte,omitempty"`
	EndByte   *uint32    `json:"end_byte,omitempty"`
}

func (r Region) MarshalJSON() ([]byte, error) {
	w := regionWire{Kind: r.Kind}
	switch r.Kind {
	case RegionLines:
		w.Start, w.End = &r.Start, &r.End
	case RegionAstNode:
		w.NodeKind = r.NodeKind
		if r.HasName {
			w.Name = &r.Name
		}
		w.StartByte, w.EndByte = &r.StartByte, &r.EndByte
	case RegionWhole:
		// no fields
	default:
		return nil, fmt.Errorf("conflict: unknown Region kind %q", r.Kind)
	}
	return json.Marshal(w)
}

func (r *Region) UnmarshalJSON(data []byte) error {
	var w regionWire
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&w); err != nil {
		return fmt.Errorf("conflict: decode Region: %w", err)
	}
	out := Region{Kind: w.Kind}
	switch w.Kind {
	case RegionLines:
		if w.Start == nil || w.End == nil {
			return fmt.Errorf("conflict: lines region missing start/end")
		}
		out.Start, out.End = *w.Start, *w.End
	case RegionAstNode:
		if w.StartByte == nil || w.EndByte == nil {
			return fmt.Errorf("conflict: ast_node region missing start_byte/end_byte")
		}
		out.NodeKind = w.NodeKind
		if w.Name != nil {
			out.Name, out.HasName = *w.Name, true
		}
		out.StartByte, out.EndByte = *w.StartByte, *w.EndByte
	case RegionWhole:
		// nothing to read
	default:
		return fmt.Errorf("conflict: unknown Region kind %q", w.Kind)
	}
	*r = out
	return nil
}
