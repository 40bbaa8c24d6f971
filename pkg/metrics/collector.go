package metrics

import "time"

// EngineSnapshot is a point-in-time summary of engine state, as reported
// by whatever owns the workspace registry.
type EngineSnapshot struct {
	ActiveWorkspaces    int
	DestroyedWorkspaces int
}

// SnapshotSource is implemented by the component that can answer "how many
// workspaces exist right now". Kept as a narrow interface here rather than
// importing pkg/workspace directly, so metrics has no dependency on the
// packages it instruments.
type SnapshotSource interface {
	Snapshot() EngineSnapshot
}

// Collector periodically samples a SnapshotSource and updates the
// corresponding gauges.
type Collector struct {
	source SnapshotSource
	stopCh chan struct{}
}

// NewCollector creates a new metrics collector for the given source.
func NewCollector(source SnapshotSource) *Collector {
	return &Collector{
		source: source,
		stopCh: make(chan struct{}),
	}
}

// Start begins periodic collection in a background goroutine.
func (c *Collector) Start() {
	ticker := time.NewTicker(15 * time.Second)
	go func() {
		c.collect()

		for {
			select {
			case <-ticker.C:
				c.collect()
			case <-c.stopCh:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop halts periodic collection.
func (c *Collector) Stop() {
	close(c.stopCh)
}

func (c *Collector) collect() {
	snap := c.source.Snapshot()
	WorkspacesTotal.WithLabelValues("active").Set(float64(snap.ActiveWorkspaces))
	WorkspacesTotal.WithLabelValues("destroyed").Set(float64(snap.DestroyedWorkspaces))
}
