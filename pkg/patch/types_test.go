package patch

import (
	"encoding/json"
	"testing"

	"github.com/cuemby/maw/pkg/mawtypes"
	"github.com/stretchr/testify/require"
)

func TestPatchValueJSONRoundTrip(t *testing.T) {
	cases := map[string]PatchValue{
		"add":                  Add(oid('1'), fid(1)),
		"delete":               Delete(oid('1'), fid(1)),
		"modify":               Modify(oid('1'), oid('2'), fid(1)),
		"rename_same_content":  Rename("old.rs", fid(1), nil),
		"rename_new_content":   Rename("old.rs", fid(1), ptr(oid('2'))),
	}
	for name, pv := range cases {
		t.Run(name, func(t *testing.T) {
			data, err := json.Marshal(pv)
			require.NoError(t, err)

			var decoded PatchValue
			require.NoError(t, json.Unmarshal(data, &decoded))
			require.Equal(t, pv, decoded)
		})
	}
}

func TestPatchValueJSONUsesOpDiscriminator(t *testing.T) {
	data, err := json.Marshal(Add(oid('1'), fid(1)))
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Equal(t, "add", raw["op"])
}

func TestPatchSetJSONRoundTrip(t *testing.T) {
	ps := Empty(epoch('a'))
	ps.Patches["a.rs"] = Add(oid('1'), fid(1))
	ps.Patches["b.rs"] = Delete(oid('2'), fid(2))

	data, err := json.Marshal(ps)
	require.NoError(t, err)

	var decoded PatchSet
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Equal(t, ps, decoded)
}

func TestPatchSetSortedPaths(t *testing.T) {
	ps := Empty(epoch('a'))
	ps.Patches["z.rs"] = Add(oid('1'), fid(1))
	ps.Patches["a.rs"] = Add(oid('2'), fid(2))
	ps.Patches["m.rs"] = Add(oid('3'), fid(3))

	require.Equal(t, []mawtypes.Path{"a.rs", "m.rs", "z.rs"}, ps.SortedPaths())
}
