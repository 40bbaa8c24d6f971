package conflict

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/cuemby/maw/pkg/mawtypes"
)

// VariantKind discriminates Conflict's tagged union, under the "type" field.
type VariantKind string

const (
	KindContent        VariantKind = "content"
	KindAddAdd         VariantKind = "add_add"
	KindModifyDelete    VariantKind = "modify_delete"
	KindDivergentRename VariantKind = "divergent_rename"
)

// RenameDestination is one workspace's rename target, paired with its
// conflict side — the Go shape of the Rust source's (PathBuf, ConflictSide)
// tuple.
type RenameDestination struct {
	Path mawtypes.Path
	Side ConflictSide
}

// Conflict is a single unresolved merge conflict, reported by the merge
// engine instead of marker-soup text conflicts (spec.md §4.8).
type Conflict struct {
	Kind VariantKind

	// Content, AddAdd, ModifyDelete
	Path mawtypes.Path

	// Content, ModifyDelete
	FileId mawtypes.FileId

	// Content
	Base    mawtypes.ObjId
	HasBase bool
	Sides   []ConflictSide
	Atoms   []ConflictAtom

	// ModifyDelete
	Modifier        ConflictSide
	Deleter         ConflictSide
	ModifiedContent mawtypes.ObjId

	// DivergentRename
	Original     mawtypes.Path
	Destinations []RenameDestination
}

// NewContent constructs a Content conflict. base may be the zero ObjId
// when no common ancestor exists; pass hasBase=false in that case.
func NewContent(path mawtypes.Path, fileID mawtypes.FileId, base mawtypes.ObjId, hasBase bool, sides []ConflictSide, atoms []ConflictAtom) Conflict {
	sorted := append([]ConflictSide(nil), sides...)
	sortSides(sorted)
	return Conflict{Kind: KindContent, Path: path, FileId: fileID, Base: base, HasBase: hasBase, Sides: sorted, Atoms: atoms}
}

// NewAddAdd constructs an AddAdd conflict.
func NewAddAdd(path mawtypes.Path, sides []ConflictSide) Conflict {
	sorted := append([]ConflictSide(nil), sides...)
	sortSides(sorted)
	return Conflict{Kind: KindAddAdd, Path: path, Sides: sorted}
}

// NewModifyDelete constructs a ModifyDelete conflict.
func NewModifyDelete(path mawtypes.Path, fileID mawtypes.FileId, modifier, deleter ConflictSide, modifiedContent mawtypes.ObjId) Conflict {
	return Conflict{Kind: KindModifyDelete, Path: path, FileId: fileID, Modifier: modifier, Deleter: deleter, ModifiedContent: modifiedContent}
}

// NewDivergentRename constructs a DivergentRename conflict. Destinations
// are sorted by workspace id (then destination path) for determinism.
func NewDivergentRename(fileID mawtypes.FileId, original mawtypes.Path, destinations []RenameDestination) Conflict {
	sorted := append([]RenameDestination(nil), destinations...)
	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Side.Workspace != b.Side.Workspace {
			return a.Side.Workspace.Less(b.Side.Workspace)
		}
		return a.Path.Less(b.Path)
	})
	return Conflict{Kind: KindDivergentRename, FileId: fileID, Original: original, Destinations: sorted}
}

// GetPath returns the primary path associated with this conflict. For
// DivergentRename, it returns the original path.
func (c Conflict) GetPath() mawtypes.Path {
	if c.Kind == KindDivergentRename {
		return c.Original
	}
	return c.Path
}

func (c Conflict) VariantName() string {
	return string(c.Kind)
}

func (c Conflict) SideCount() int {
	switch c.Kind {
	case KindContent, KindAddAdd:
		return len(c.Sides)
	case KindModifyDelete:
		return 2
	case KindDivergentRename:
		return len(c.Destinations)
	default:
		return 0
	}
}

func (c Conflict) Workspaces() []mawtypes.WorkspaceId {
	switch c.Kind {
	case KindContent, KindAddAdd:
		out := make([]mawtypes.WorkspaceId, len(c.Sides))
		for i, s := range c.Sides {
			out[i] = s.Workspace
		}
		return out
	case KindModifyDelete:
		return []mawtypes.WorkspaceId{c.Modifier.Workspace, c.Deleter.Workspace}
	case KindDivergentRename:
		out := make([]mawtypes.WorkspaceId, len(c.Destinations))
		for i, d := range c.Destinations {
			out[i] = d.Side.Workspace
		}
		return out
	default:
		return nil
	}
}

func (c Conflict) String() string {
	switch c.Kind {
	case KindContent:
		ws := workspaceNames(c.Sides)
		return fmt.Sprintf("content conflict in %s between [%s] (%d atom(s))", c.Path, strings.Join(ws, ", "), len(c.Atoms))
	case KindAddAdd:
		ws := workspaceNames(c.Sides)
		return fmt.Sprintf("add/add conflict at %s between [%s]", c.Path, strings.Join(ws, ", "))
	case KindModifyDelete:
		return fmt.Sprintf("modify/delete conflict on %s: %s modified, %s deleted", c.Path, c.Modifier.Workspace, c.Deleter.Workspace)
	case KindDivergentRename:
		dests := make([]string, len(c.Destinations))
		for i, d := range c.Destinations {
			dests[i] = fmt.Sprintf("%s → %s", d.Side.Workspace, d.Path)
		}
		return fmt.Sprintf("divergent rename of %s: [%s]", c.Original, strings.Join(dests, ", "))
	default:
		return fmt.Sprintf("unknown conflict kind %q", c.Kind)
	}
}

func workspaceNames(sides []ConflictSide) []string {
	out := make([]string, len(sides))
	for i, s := range sides {
		out[i] = s.Workspace.String()
	}
	return out
}

type conflictWire struct {
	Type            VariantKind          `json:"type"`
	Path            *mawtypes.Path       `json:"path,omitempty"`
	FileId          *mawtypes.FileId     `json:"file_id,omitempty"`
	Base            *mawtypes.ObjId      `json:"base,omitempty"`
	Sides           []ConflictSide       `json:"sides,omitempty"`
	Atoms           []ConflictAtom       `json:"atoms,omitempty"`
	Modifier        *ConflictSide        `json:"modifier,omitempty"`
	Deleter         *ConflictSide        `json:"deleter,omitempty"`
	ModifiedContent *mawtypes.ObjId      `json:"modified_content,omitempty"`
	Original        *mawtypes.Path       `json:"original,omitempty"`
	Destinations    []RenameDestination  `json:"destinations,omitempty"`
}

// MarshalJSON encodes RenameDestination as a 2-element JSON array, the
// same shape serde gives Rust's (PathBuf, ConflictSide) tuple.
func (d RenameDestination) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{d.Path, d.Side})
}

func (d *RenameDestination) UnmarshalJSON(data []byte) error {
	var raw [2]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("conflict: decode rename destination tuple: %w", err)
	}
	var path mawtypes.Path
	if err := json.Unmarshal(raw[0], &path); err != nil {
		return fmt.Errorf("conflict: decode rename destination path: %w", err)
	}
	var side ConflictSide
	if err := json.Unmarshal(raw[1], &side); err != nil {
		return fmt.Errorf("conflict: decode rename destination side: %w", err)
	}
	*d = RenameDestination{Path: path, Side: side}
	return nil
}

func (c Conflict) MarshalJSON() ([]byte, error) {
	w := conflictWire{Type: c.Kind}
	switch c.Kind {
	case KindContent:
		w.Path, w.FileId = &c.Path, &c.FileId
		if c.HasBase {
			w.Base = &c.Base
		}
		w.Sides, w.Atoms = c.Sides, c.Atoms
		if w.Atoms == nil {
			w.Atoms = []ConflictAtom{}
		}
	case KindAddAdd:
		w.Path = &c.Path
		w.Sides = c.Sides
	case KindModifyDelete:
		w.Path, w.FileId = &c.Path, &c.FileId
		w.Modifier, w.Deleter = &c.Modifier, &c.Deleter
		w.ModifiedContent = &c.ModifiedContent
	case KindDivergentRename:
		w.FileId, w.Original = &c.FileId, &c.Original
		w.Destinations = c.Destinations
	default:
		return nil, fmt.Errorf("conflict: unknown Conflict kind %q", c.Kind)
	}
	return json.Marshal(w)
}

func (c *Conflict) UnmarshalJSON(data []byte) error {
	var w conflictWire
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&w); err != nil {
		return fmt.Errorf("conflict: decode Conflict: %w", err)
	}
	out := Conflict{Kind: w.Type}
	switch w.Type {
	case KindContent:
		if w.Path == nil || w.FileId == nil {
			return fmt.Errorf("conflict: content conflict missing path/file_id")
		}
		out.Path, out.FileId = *w.Path, *w.FileId
		if w.Base != nil {
			out.Base, out.HasBase = *w.Base, true
		}
		out.Sides, out.Atoms = w.Sides, w.Atoms
	case KindAddAdd:
		if w.Path == nil {
			return fmt.Errorf("conflict: add_add conflict missing path")
		}
		out.Path, out.Sides = *w.Path, w.Sides
	case KindModifyDelete:
		if w.Path == nil || w.FileId == nil || w.Modifier == nil || w.Deleter == nil || w.ModifiedContent == nil {
			return fmt.Errorf("conflict: modify_delete conflict missing a required field")
		}
		out.Path, out.FileId = *w.Path, *w.FileId
		out.Modifier, out.Deleter, out.ModifiedContent = *w.Modifier, *w.Deleter, *w.ModifiedContent
	case KindDivergentRename:
		if w.FileId == nil || w.Original == nil {
			return fmt.Errorf("conflict: divergent_rename conflict missing file_id/original")
		}
		out.FileId, out.Original = *w.FileId, *w.Original
		out.Destinations = w.Destinations
	default:
		return fmt.Errorf("conflict: unknown Conflict kind %q", w.Type)
	}
	*c = out
	return nil
}
