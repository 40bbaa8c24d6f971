package conflict

import (
	"fmt"
	"strings"
)

const atomEditContentPreviewLen = 40

// AtomEdit is one workspace's proposed content for a ConflictAtom's region.
type AtomEdit struct {
	Workspace string `json:"workspace"`
	Region    Region `json:"region"`
	Content   string `json:"content"`
}

func NewAtomEdit(workspace string, region Region, content string) AtomEdit {
	return AtomEdit{Workspace: workspace, Region: region, Content: content}
}

// String truncates long content to a preview, mirroring the Rust Display
// impl's 40-char truncation-with-ellipsis behavior.
func (e AtomEdit) String() string {
	content := e.Content
	if len(content) > atomEditContentPreviewLen {
		content = content[:atomEditContentPreviewLen] + "..."
	}
	return fmt.Sprintf("%s @ %s: %q", e.Workspace, e.Region, content)
}

// ConflictAtom is the smallest unit of an unresolved content conflict: a
// base region and the competing edits workspaces proposed for it.
type ConflictAtom struct {
	BaseRegion Region         `json:"base_region"`
	Edits      []AtomEdit     `json:"edits"`
	Reason     ConflictReason `json:"reason"`
}

func NewConflictAtom(baseRegion Region, edits []AtomEdit, reason ConflictReason) ConflictAtom {
	return ConflictAtom{BaseRegion: baseRegion, Edits: edits, Reason: reason}
}

// LineOverlap is a convenience constructor for the common case: two or
// more workspaces editing overlapping line ranges of the same base region.
func LineOverlap(baseRegion Region, edits []AtomEdit, description string) ConflictAtom {
	return NewConflictAtom(baseRegion, edits, OverlappingLineEdits(description))
}

// Summary renders "{base region} — {reason} [{workspace, workspace, ...}]",
// matching the Rust source's Display impl for ConflictAtom.
func (a ConflictAtom) Summary() string {
	ws := make([]string, len(a.Edits))
	for i, e := range a.Edits {
		ws[i] = e.Workspace
	}
	return fmt.Sprintf("%s — %s [%s]", a.BaseRegion, a.Reason, strings.Join(ws, ", "))
}

func (a ConflictAtom) String() string {
	return a.Summary()
}
