package conflict

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/cuemby/maw/pkg/mawtypes"
	"github.com/cuemby/maw/pkg/ordering"
	"github.com/stretchr/testify/require"
)

func oid(c byte) mawtypes.ObjId {
	b := make([]byte, 40)
	for i := range b {
		b[i] = c
	}
	return mawtypes.MustObjId(string(b))
}

func fid(v byte) mawtypes.FileId {
	var id mawtypes.FileId
	id[15] = v
	return id
}

func testKey(ws string, seq uint64) ordering.Key {
	b := make([]byte, 40)
	for i := range b {
		b[i] = 'e'
	}
	epoch := mawtypes.MustObjId(string(b))
	return ordering.NewKey(epoch, mawtypes.MustWorkspaceId(ws), seq, time.Unix(1700000000, 0))
}

func testSide(ws string, c byte, seq uint64) ConflictSide {
	return NewConflictSide(mawtypes.MustWorkspaceId(ws), oid(c), testKey(ws, seq))
}

func testAtom(desc string) ConflictAtom {
	return LineOverlap(
		Lines(1, 10),
		[]AtomEdit{
			NewAtomEdit("ws-1", Lines(1, 5), "side-1"),
			NewAtomEdit("ws-2", Lines(5, 10), "side-2"),
		},
		desc,
	)
}

func TestConflictSideConstruction(t *testing.T) {
	side := testSide("alice", 'a', 1)
	require.Equal(t, "alice", side.Workspace.String())
	require.Equal(t, oid('a'), side.Content)
	require.Equal(t, uint64(1), side.Timestamp.Seq)
}

func TestConflictSideSerdeRoundtrip(t *testing.T) {
	side := testSide("bob", 'b', 42)
	data, err := json.Marshal(side)
	require.NoError(t, err)

	var decoded ConflictSide
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Equal(t, side.Workspace, decoded.Workspace)
	require.Equal(t, side.Content, decoded.Content)
	require.Equal(t, side.Timestamp.Seq, decoded.Timestamp.Seq)
}

func TestRegionLinesConstruction(t *testing.T) {
	r := Lines(10, 15)
	require.Equal(t, "lines 10..15", r.Summary())
	require.Equal(t, "lines 10..15", r.String())
}

func TestRegionAstNodeWithName(t *testing.T) {
	r := AstNode("function_item", "process_order", true, 1024, 2048)
	require.Equal(t, "function_item `process_order`", r.Summary())
}

func TestRegionAstNodeWithoutName(t *testing.T) {
	r := AstNode("struct_item", "", false, 0, 100)
	require.Equal(t, "struct_item", r.Summary())
}

func TestRegionWholeFile(t *testing.T) {
	require.Equal(t, "whole file", WholeFile().Summary())
}

func TestRegionJSONRoundTrip(t *testing.T) {
	cases := []Region{
		Lines(42, 67),
		AstNode("function_item", "foo", true, 100, 200),
		AstNode("struct_item", "", false, 0, 10),
		WholeFile(),
	}
	for _, r := range cases {
		data, err := json.Marshal(r)
		require.NoError(t, err)

		var decoded Region
		require.NoError(t, json.Unmarshal(data, &decoded))
		require.Equal(t, r, decoded)
	}
}

func TestRegionLinesJSONUsesKindDiscriminator(t *testing.T) {
	data, err := json.Marshal(Lines(42, 67))
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Equal(t, "lines", raw["kind"])
	require.InDelta(t, 42, raw["start"], 0)
	require.InDelta(t, 67, raw["end"], 0)
}

func TestConflictReasonVariants(t *testing.T) {
	r := OverlappingLineEdits("lines 10-15 overlap in both sides")
	require.Equal(t, "overlapping_line_edits", r.VariantName())
	require.Equal(t, "lines 10-15 overlap in both sides", r.Description)

	require.Equal(t, "same_ast_node_modified", SameAstNodeModified("function `foo` modified by both").VariantName())
	require.Equal(t, "non_commutative_edits", NonCommutativeEdits("edits produce different results in different order").VariantName())

	custom := CustomReason("custom driver reported conflict")
	require.Equal(t, "custom", custom.VariantName())
	require.Equal(t, "custom driver reported conflict", custom.Description)
}

func TestConflictReasonSerdeRoundtrip(t *testing.T) {
	reasons := []ConflictReason{
		OverlappingLineEdits("overlap"),
		SameAstNodeModified("ast"),
		NonCommutativeEdits("non-comm"),
		CustomReason("custom"),
	}
	for _, r := range reasons {
		data, err := json.Marshal(r)
		require.NoError(t, err)

		var decoded ConflictReason
		require.NoError(t, json.Unmarshal(data, &decoded))
		require.Equal(t, r.VariantName(), decoded.VariantName())
		require.Equal(t, r.Description, decoded.Description)
	}
}

func TestConflictReasonDisplay(t *testing.T) {
	r := OverlappingLineEdits("test display")
	require.Equal(t, "test display", r.String())
}

func TestAtomEditConstruction(t *testing.T) {
	edit := NewAtomEdit("alice", Lines(10, 15), "fn foo() {}")
	require.Equal(t, "alice", edit.Workspace)
	require.Equal(t, Lines(10, 15), edit.Region)
	require.Equal(t, "fn foo() {}", edit.Content)
}

func TestAtomEditSerdeRoundtrip(t *testing.T) {
	edit := NewAtomEdit("bob", Lines(20, 30), "new code here")
	data, err := json.Marshal(edit)
	require.NoError(t, err)

	var decoded AtomEdit
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Equal(t, edit, decoded)
}

func TestAtomEditDisplayShortContent(t *testing.T) {
	edit := NewAtomEdit("ws-1", Lines(1, 5), "short")
	display := edit.String()
	require.Contains(t, display, "ws-1")
	require.Contains(t, display, "lines 1..5")
}

func TestAtomEditDisplayLongContentTruncated(t *testing.T) {
	long := ""
	for i := 0; i < 100; i++ {
		long += "a"
	}
	edit := NewAtomEdit("ws-1", Lines(1, 5), long)
	require.Contains(t, edit.String(), "...")
}

func TestConflictAtomConstruction(t *testing.T) {
	atom := NewConflictAtom(
		Lines(10, 15),
		[]AtomEdit{
			NewAtomEdit("alice", Lines(10, 13), "alice's code"),
			NewAtomEdit("bob", Lines(12, 15), "bob's code"),
		},
		OverlappingLineEdits("lines 10-15 overlap"),
	)
	require.Equal(t, Lines(10, 15), atom.BaseRegion)
	require.Len(t, atom.Edits, 2)
	require.Equal(t, "overlapping_line_edits", atom.Reason.VariantName())
}

func TestConflictAtomLineOverlapConvenience(t *testing.T) {
	atom := LineOverlap(
		Lines(42, 67),
		[]AtomEdit{
			NewAtomEdit("ws-1", Lines(42, 55), "code-1"),
			NewAtomEdit("ws-2", Lines(50, 67), "code-2"),
		},
		"Both sides edited lines 42-67",
	)
	require.Equal(t, Lines(42, 67), atom.BaseRegion)
	require.Equal(t, "overlapping_line_edits", atom.Reason.VariantName())
}

func TestConflictAtomSerdeRoundtrip(t *testing.T) {
	atom := NewConflictAtom(
		Lines(1, 10),
		[]AtomEdit{
			NewAtomEdit("ws-a", Lines(1, 5), "alpha"),
			NewAtomEdit("ws-b", Lines(3, 10), "beta"),
		},
		OverlappingLineEdits("overlap at lines 3-5"),
	)
	data, err := json.Marshal(atom)
	require.NoError(t, err)
	require.Contains(t, string(data), `"base_region"`)
	require.Contains(t, string(data), `"edits"`)
	require.Contains(t, string(data), `"reason"`)

	var decoded ConflictAtom
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Equal(t, atom, decoded)
}

func TestConflictAtomWithAstRegion(t *testing.T) {
	atom := NewConflictAtom(
		AstNode("function_item", "process_order", true, 1024, 2048),
		[]AtomEdit{
			NewAtomEdit("alice", AstNode("function_item", "process_order", true, 1024, 1800), "alice version"),
			NewAtomEdit("bob", AstNode("function_item", "process_order", true, 1024, 1900), "bob version"),
		},
		SameAstNodeModified("function `process_order` modified by both"),
	)
	require.Equal(t, "function_item `process_order` — function `process_order` modified by both [alice, bob]", atom.Summary())
}

func TestConflictAtomSummary(t *testing.T) {
	atom := LineOverlap(
		Lines(10, 20),
		[]AtomEdit{
			NewAtomEdit("ws-1", Lines(10, 15), ""),
			NewAtomEdit("ws-2", Lines(12, 20), ""),
		},
		"overlap",
	)
	summary := atom.Summary()
	require.Contains(t, summary, "lines 10..20")
	require.Contains(t, summary, "overlap")
	require.Contains(t, summary, "ws-1")
	require.Contains(t, summary, "ws-2")
}

func TestContentConflictWithBase(t *testing.T) {
	c := NewContent("src/lib.rs", fid(1), oid('0'), true,
		[]ConflictSide{testSide("alice", 'a', 1), testSide("bob", 'b', 2)},
		[]ConflictAtom{testAtom("lines 10-15")})

	require.Equal(t, mawtypes.Path("src/lib.rs"), c.GetPath())
	require.Equal(t, "content", c.VariantName())
	require.Equal(t, 2, c.SideCount())
	require.Equal(t, []mawtypes.WorkspaceId{mawtypes.MustWorkspaceId("alice"), mawtypes.MustWorkspaceId("bob")}, c.Workspaces())
}

func TestContentConflictWithoutBase(t *testing.T) {
	c := NewContent("src/new.rs", fid(2), mawtypes.ObjId{}, false,
		[]ConflictSide{testSide("ws-1", 'a', 1), testSide("ws-2", 'b', 1)}, nil)

	require.False(t, c.HasBase)
	require.Empty(t, c.Atoms)
}

func TestContentConflictThreeWay(t *testing.T) {
	c := NewContent("README.md", fid(3), oid('0'), true,
		[]ConflictSide{testSide("alice", 'a', 1), testSide("bob", 'b', 2), testSide("carol", 'c', 3)},
		[]ConflictAtom{testAtom("header section"), testAtom("footer section")})

	require.Equal(t, 3, c.SideCount())
}

func TestContentConflictSerdeRoundtrip(t *testing.T) {
	c := NewContent("src/main.rs", fid(10), oid('0'), true,
		[]ConflictSide{testSide("alice", 'a', 1), testSide("bob", 'b', 2)},
		[]ConflictAtom{testAtom("imports block")})

	data, err := json.Marshal(c)
	require.NoError(t, err)
	require.Contains(t, string(data), `"type":"content"`)
	require.Contains(t, string(data), `"path":"src/main.rs"`)

	var decoded Conflict
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Equal(t, "content", decoded.VariantName())
	require.Equal(t, mawtypes.Path("src/main.rs"), decoded.GetPath())
}

func TestAddAddConflict(t *testing.T) {
	c := NewAddAdd("src/util.rs", []ConflictSide{testSide("alice", 'a', 1), testSide("bob", 'b', 1)})

	require.Equal(t, mawtypes.Path("src/util.rs"), c.GetPath())
	require.Equal(t, "add_add", c.VariantName())
	require.Equal(t, 2, c.SideCount())
}

func TestAddAddConflictSerdeRoundtrip(t *testing.T) {
	c := NewAddAdd("new-file.txt", []ConflictSide{testSide("ws-a", 'a', 5), testSide("ws-b", 'b', 3)})

	data, err := json.Marshal(c)
	require.NoError(t, err)
	require.Contains(t, string(data), `"type":"add_add"`)

	var decoded Conflict
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Equal(t, "add_add", decoded.VariantName())
}

func TestModifyDeleteConflict(t *testing.T) {
	c := NewModifyDelete("src/old.rs", fid(42), testSide("alice", 'a', 5), testSide("bob", 'b', 6), oid('a'))

	require.Equal(t, mawtypes.Path("src/old.rs"), c.GetPath())
	require.Equal(t, "modify_delete", c.VariantName())
	require.Equal(t, 2, c.SideCount())
	require.Equal(t, []mawtypes.WorkspaceId{mawtypes.MustWorkspaceId("alice"), mawtypes.MustWorkspaceId("bob")}, c.Workspaces())
}

func TestModifyDeleteConflictSerdeRoundtrip(t *testing.T) {
	c := NewModifyDelete("docs/api.md", fid(100), testSide("alice", 'a', 5), testSide("bob", 'b', 6), oid('a'))

	data, err := json.Marshal(c)
	require.NoError(t, err)
	require.Contains(t, string(data), `"type":"modify_delete"`)

	var decoded Conflict
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Equal(t, c.Path, decoded.Path)
	require.Equal(t, c.FileId, decoded.FileId)
}

func TestDivergentRenameConflict(t *testing.T) {
	c := NewDivergentRename(fid(7), "src/util.rs", []RenameDestination{
		{Path: "src/common.rs", Side: testSide("bob", 'b', 2)},
		{Path: "src/helpers.rs", Side: testSide("alice", 'a', 1)},
	})

	require.Equal(t, mawtypes.Path("src/util.rs"), c.GetPath())
	require.Equal(t, "divergent_rename", c.VariantName())
	require.Equal(t, 2, c.SideCount())
	// sorted by workspace: alice's helpers.rs before bob's common.rs
	require.Equal(t, mawtypes.Path("src/helpers.rs"), c.Destinations[0].Path)
	require.Equal(t, mawtypes.Path("src/common.rs"), c.Destinations[1].Path)
}

func TestDivergentRenameConflictSerdeRoundtrip(t *testing.T) {
	c := NewDivergentRename(fid(7), "src/util.rs", []RenameDestination{
		{Path: "src/common.rs", Side: testSide("bob", 'b', 2)},
		{Path: "src/helpers.rs", Side: testSide("alice", 'a', 1)},
	})

	data, err := json.Marshal(c)
	require.NoError(t, err)
	require.Contains(t, string(data), `"type":"divergent_rename"`)

	var decoded Conflict
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Equal(t, "divergent_rename", decoded.VariantName())
	require.Equal(t, c.Destinations, decoded.Destinations)
}

func TestConflictStringVariants(t *testing.T) {
	content := NewContent("src/lib.rs", fid(1), oid('0'), true,
		[]ConflictSide{testSide("alice", 'a', 1), testSide("bob", 'b', 2)}, []ConflictAtom{testAtom("x")})
	require.Contains(t, content.String(), "content conflict in src/lib.rs")

	addAdd := NewAddAdd("src/util.rs", []ConflictSide{testSide("alice", 'a', 1), testSide("bob", 'b', 1)})
	require.Contains(t, addAdd.String(), "add/add conflict at src/util.rs")

	modDel := NewModifyDelete("src/old.rs", fid(42), testSide("alice", 'a', 5), testSide("bob", 'b', 6), oid('a'))
	require.Contains(t, modDel.String(), "modify/delete conflict on src/old.rs")
	require.Contains(t, modDel.String(), "alice modified")
	require.Contains(t, modDel.String(), "bob deleted")

	rename := NewDivergentRename(fid(7), "src/util.rs", []RenameDestination{
		{Path: "src/common.rs", Side: testSide("bob", 'b', 2)},
	})
	require.Contains(t, rename.String(), "divergent rename of src/util.rs")
}
