package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Workspace metrics
	WorkspacesTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "maw_workspaces_total",
			Help: "Total number of workspaces by state (active, destroyed)",
		},
		[]string{"state"},
	)

	OpLogOpsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "maw_oplog_ops_total",
			Help: "Total number of operations appended to a workspace op log, by op kind",
		},
		[]string{"workspace", "op"},
	)

	OpLogAppendDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "maw_oplog_append_duration_seconds",
			Help:    "Time to append and CAS-advance an operation",
			Buckets: prometheus.DefBuckets,
		},
	)

	CheckpointsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "maw_checkpoints_total",
			Help: "Total number of checkpoint annotations written, by workspace",
		},
		[]string{"workspace"},
	)

	CompactionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "maw_compactions_total",
			Help: "Total number of op-log compactions performed, by workspace",
		},
		[]string{"workspace"},
	)

	ReplayDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "maw_view_replay_duration_seconds",
			Help:    "Time to materialize a workspace view, by replay mode (full, checkpointed)",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"mode"},
	)

	GlobalViewComputeDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "maw_global_view_compute_duration_seconds",
			Help:    "Time to compute the global view across all workspaces",
			Buckets: prometheus.DefBuckets,
		},
	)

	MergeDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "maw_merge_duration_seconds",
			Help:    "Time to run a merge pipeline stage, by stage",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"stage"},
	)

	MergeConflictsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "maw_merge_conflicts_total",
			Help: "Total number of structured conflicts produced by a merge, by reason",
		},
		[]string{"reason"},
	)

	MergesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "maw_merges_total",
			Help: "Total number of merge attempts, by outcome (committed, conflict, cas_retry)",
		},
		[]string{"outcome"},
	)

	CasRetriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "maw_cas_retries_total",
			Help: "Total number of ref CAS mismatches observed, by ref",
		},
		[]string{"ref"},
	)

	DestroysTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "maw_workspace_destroys_total",
			Help: "Total number of workspace destroys, by capture mode",
		},
		[]string{"capture_mode"},
	)

	RecoveriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "maw_workspace_recoveries_total",
			Help: "Total number of successful workspace recoveries",
		},
	)
)

func init() {
	prometheus.MustRegister(
		WorkspacesTotal,
		OpLogOpsTotal,
		OpLogAppendDuration,
		CheckpointsTotal,
		CompactionsTotal,
		ReplayDuration,
		GlobalViewComputeDuration,
		MergeDuration,
		MergeConflictsTotal,
		MergesTotal,
		CasRetriesTotal,
		DestroysTotal,
		RecoveriesTotal,
	)
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer started now.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the elapsed duration to a histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	histogram.Observe(time.Since(t.start).Seconds())
}

// ObserveDurationVec records the elapsed duration to a histogram vec with labels.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	histogram.WithLabelValues(labels...).Observe(time.Since(t.start).Seconds())
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
