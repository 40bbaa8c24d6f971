package mawtypes

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestObjIdRoundTrip(t *testing.T) {
	raw := "d670460b4b4aece5915caf5c68d12f560a9fe3e4"
	id, err := ParseObjId(raw)
	require.NoError(t, err)
	require.Equal(t, raw, id.String())

	data, err := id.MarshalJSON()
	require.NoError(t, err)

	var roundTripped ObjId
	require.NoError(t, roundTripped.UnmarshalJSON(data))
	require.Equal(t, id, roundTripped)
}

func TestParseObjIdRejectsInvalid(t *testing.T) {
	cases := []string{
		"",
		"abc",
		strings.Repeat("g", 40),
		strings.Repeat("A", 40), // uppercase not allowed
	}
	for _, c := range cases {
		_, err := ParseObjId(c)
		require.Error(t, err, "expected error for %q", c)
	}
}

func TestZeroOID(t *testing.T) {
	require.True(t, ZeroOID.IsZero())
	var empty ObjId
	require.True(t, empty.IsZero())

	nonZero := MustObjId("d670460b4b4aece5915caf5c68d12f560a9fe3e4")
	require.False(t, nonZero.IsZero())
}

func TestObjIdLess(t *testing.T) {
	a := MustObjId("000000000000000000000000000000000000000a")
	b := MustObjId("000000000000000000000000000000000000000b")
	require.True(t, a.Less(b))
	require.False(t, b.Less(a))
}
