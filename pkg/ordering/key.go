package ordering

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/cuemby/maw/pkg/mawtypes"
)

// Key is a deterministic ordering key over all operations in the system.
//
// wall_clock participates in display only: it is excluded from equality and
// from ordering comparisons (spec.md §5), which are driven entirely by
// epoch, workspace, and seq.
type Key struct {
	Epoch       mawtypes.EpochId
	Workspace   mawtypes.WorkspaceId
	Seq         uint64
	WallClock   time.Time
	epochValid  bool
}

// NewKey constructs a Key. epoch may be the zero value when no epoch is
// known yet (e.g. a workspace that has not yet recorded a Create op).
func NewKey(epoch mawtypes.EpochId, ws mawtypes.WorkspaceId, seq uint64, wallClock time.Time) Key {
	return Key{
		Epoch:      epoch,
		Workspace:  ws,
		Seq:        seq,
		WallClock:  wallClock,
		epochValid: !epoch.IsZero(),
	}
}

// Equal compares keys ignoring WallClock, per spec.md §5.
func (k Key) Equal(other Key) bool {
	return k.epochValid == other.epochValid &&
		k.Epoch == other.Epoch &&
		k.Workspace == other.Workspace &&
		k.Seq == other.Seq
}

// Less implements the total order: within one workspace, by seq; across
// workspaces within one epoch, lexicographic by (workspace_id, seq); across
// epochs, lexicographic by epoch id (spec.md §5).
func (k Key) Less(other Key) bool {
	if k.epochValid != other.epochValid {
		// A key with no epoch yet sorts before any key that has one: it
		// represents a workspace still at Create time.
		return !k.epochValid
	}
	if k.epochValid && k.Epoch != other.Epoch {
		return k.Epoch.Less(other.Epoch)
	}
	if k.Workspace != other.Workspace {
		return k.Workspace.Less(other.Workspace)
	}
	return k.Seq < other.Seq
}

type keyWire struct {
	Epoch      *mawtypes.EpochId `json:"epoch,omitempty"`
	Workspace  mawtypes.WorkspaceId `json:"workspace"`
	Seq        uint64            `json:"seq"`
	WallClock  time.Time         `json:"wall_clock"`
}

// MarshalJSON encodes Key, omitting epoch entirely when no epoch is known
// yet rather than emitting the zero EpochId.
func (k Key) MarshalJSON() ([]byte, error) {
	w := keyWire{Workspace: k.Workspace, Seq: k.Seq, WallClock: k.WallClock}
	if k.epochValid {
		w.Epoch = &k.Epoch
	}
	return json.Marshal(w)
}

func (k *Key) UnmarshalJSON(data []byte) error {
	var w keyWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	out := Key{Workspace: w.Workspace, Seq: w.Seq, WallClock: w.WallClock}
	if w.Epoch != nil {
		out.Epoch, out.epochValid = *w.Epoch, true
	}
	*k = out
	return nil
}

// Clock issues monotonically non-decreasing wall-clock timestamps for a
// single workspace's op log, clamping against backward clock jumps:
// next() == max(now(), last+1ns). This mirrors the small, mutex-guarded
// time-bounded helper shape of the teacher's join-token issuer
// (pkg/manager/token.go), generalized from token expiry to timestamp
// sequencing.
type Clock struct {
	mu   sync.Mutex
	last time.Time
	now  func() time.Time
}

// NewClock constructs a Clock using time.Now for its source. Tests should
// use NewClockWithSource to get a deterministic, injectable time source.
func NewClock() *Clock {
	return NewClockWithSource(time.Now)
}

// NewClockWithSource constructs a Clock using a custom time source.
func NewClockWithSource(now func() time.Time) *Clock {
	return &Clock{now: now}
}

// Next returns the next monotonic timestamp, clamped so it is always
// strictly after the previous value this Clock issued.
func (c *Clock) Next() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	candidate := c.now()
	if !c.last.IsZero() && !candidate.After(c.last) {
		candidate = c.last.Add(time.Nanosecond)
	}
	c.last = candidate
	return candidate
}
