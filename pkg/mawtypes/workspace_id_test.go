package mawtypes

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWorkspaceIdValid(t *testing.T) {
	for _, s := range []string{"a", "agent-1", "alice-dev-box", "a-b-c"} {
		id, err := NewWorkspaceId(s)
		require.NoError(t, err, s)
		require.Equal(t, s, id.String())
	}
}

func TestWorkspaceIdInvalid(t *testing.T) {
	cases := []string{
		"",
		"-leading",
		"trailing-",
		"double--hyphen",
		"Has-Upper",
		"has_underscore",
		strings.Repeat("a", 65),
	}
	for _, s := range cases {
		_, err := NewWorkspaceId(s)
		require.Error(t, err, s)
	}
}

func TestWorkspaceIdJSONRoundTrip(t *testing.T) {
	id := MustWorkspaceId("alice-dev")
	data, err := id.MarshalJSON()
	require.NoError(t, err)

	var out WorkspaceId
	require.NoError(t, out.UnmarshalJSON(data))
	require.Equal(t, id, out)
}
