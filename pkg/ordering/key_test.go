package ordering

import (
	"testing"
	"time"

	"github.com/cuemby/maw/pkg/mawtypes"
	"github.com/stretchr/testify/require"
)

var testEpochA = mawtypes.MustObjId("000000000000000000000000000000000000000a")
var testEpochB = mawtypes.MustObjId("000000000000000000000000000000000000000b")

func TestKeyEqualityIgnoresWallClock(t *testing.T) {
	ws := mawtypes.MustWorkspaceId("alice")
	a := NewKey(testEpochA, ws, 1, time.Unix(0, 0))
	b := NewKey(testEpochA, ws, 1, time.Unix(100, 0))
	require.True(t, a.Equal(b))
}

func TestKeyOrderingAcrossEpochs(t *testing.T) {
	ws := mawtypes.MustWorkspaceId("alice")
	a := NewKey(testEpochA, ws, 5, time.Now())
	b := NewKey(testEpochB, ws, 0, time.Now())
	require.True(t, a.Less(b))
	require.False(t, b.Less(a))
}

func TestKeyOrderingWithinEpochByWorkspaceThenSeq(t *testing.T) {
	alice := mawtypes.MustWorkspaceId("alice")
	bob := mawtypes.MustWorkspaceId("bob")

	aliceKey := NewKey(testEpochA, alice, 10, time.Now())
	bobKey := NewKey(testEpochA, bob, 0, time.Now())
	require.True(t, aliceKey.Less(bobKey))

	aliceKey2 := NewKey(testEpochA, alice, 11, time.Now())
	require.True(t, aliceKey.Less(aliceKey2))
	require.False(t, aliceKey2.Less(aliceKey))
}

func TestClockClampsBackwardJumps(t *testing.T) {
	times := []time.Time{
		time.Unix(100, 0),
		time.Unix(50, 0), // backward jump
		time.Unix(50, 0), // repeated, still must advance
	}
	i := 0
	clock := NewClockWithSource(func() time.Time {
		tm := times[i]
		if i < len(times)-1 {
			i++
		}
		return tm
	})

	first := clock.Next()
	second := clock.Next()
	third := clock.Next()

	require.True(t, second.After(first))
	require.True(t, third.After(second))
}
