/*
Package metrics provides Prometheus metrics collection and exposition for maw.

The metrics package defines and registers all maw metrics using the
Prometheus client library, providing observability into op-log growth,
checkpoint/compaction activity, view replay cost, and merge outcomes.
Metrics are exposed via an HTTP endpoint for scraping by Prometheus
servers.

# Architecture

	┌──────────────────── METRICS SYSTEM ──────────────────────┐
	│                                                            │
	│  ┌────────────────────────────────────────────┐          │
	│  │          Prometheus Registry                │          │
	│  │  - Global DefaultRegistry                   │          │
	│  │  - MustRegister at package init             │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │              Metric Types                   │          │
	│  │                                              │          │
	│  │  Gauge: Instant values (workspace count)    │          │
	│  │  Counter: Monotonic increases (ops, merges) │          │
	│  │  Histogram: Distributions (replay, merge)   │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │           Metric Categories                 │          │
	│  │                                              │          │
	│  │  Workspace: active/destroyed counts         │          │
	│  │  OpLog: appends, checkpoints, compactions   │          │
	│  │  View: replay and global-view compute time  │          │
	│  │  Merge: stage duration, conflicts, outcomes │          │
	│  │  Refs: CAS retry counts                     │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │          HTTP Metrics Endpoint              │          │
	│  │  - Path: /metrics                           │          │
	│  │  - Format: Prometheus text exposition       │          │
	│  │  - Handler: promhttp.Handler()              │          │
	│  └────────────────────────────────────────────┘           │
	└────────────────────────────────────────────────────────┘

# Metrics Catalog

Workspace Metrics:

maw_workspaces_total{state}:
  - Type: Gauge
  - Description: Total workspaces by state (active, destroyed)
  - Labels: state

Op-Log Metrics:

maw_oplog_ops_total{workspace, op}:
  - Type: Counter
  - Description: Total operations appended, by workspace and op kind
    (create, snapshot, compensate, merge, describe, annotate, destroy)

maw_oplog_append_duration_seconds:
  - Type: Histogram
  - Description: Time to append and CAS-advance an operation

maw_checkpoints_total{workspace}:
  - Type: Counter
  - Description: Total checkpoint annotations written, by workspace

maw_compactions_total{workspace}:
  - Type: Counter
  - Description: Total op-log compactions performed, by workspace

View Metrics:

maw_view_replay_duration_seconds{mode}:
  - Type: Histogram
  - Description: Time to materialize a workspace view, by replay mode
    (full, checkpointed)

maw_global_view_compute_duration_seconds:
  - Type: Histogram
  - Description: Time to compute the global view across all workspaces

Merge Metrics:

maw_merge_duration_seconds{stage}:
  - Type: Histogram
  - Description: Time spent in a merge pipeline stage (collect, partition,
    resolve, build, commit)

maw_merge_conflicts_total{reason}:
  - Type: Counter
  - Description: Total structured conflicts produced by merges, by reason
    (the conflict kind: content, add_add, modify_delete, divergent_rename)

maw_merges_total{outcome}:
  - Type: Counter
  - Description: Total merge attempts, by outcome (committed, conflict,
    cas_retry)

Ref Metrics:

maw_cas_retries_total{ref}:
  - Type: Counter
  - Description: Total ref CAS mismatches observed, by ref

Workspace Lifecycle Metrics:

maw_workspace_destroys_total{capture_mode}:
  - Type: Counter
  - Description: Total workspace destroys, by capture mode

maw_workspace_recoveries_total:
  - Type: Counter
  - Description: Total successful workspace recoveries

# Usage

Updating Gauge Metrics:

	import "github.com/cuemby/maw/pkg/metrics"

	metrics.WorkspacesTotal.WithLabelValues("active").Set(5)

Updating Counter Metrics:

	metrics.OpLogOpsTotal.WithLabelValues(workspaceID, "merge").Inc()
	metrics.MergeConflictsTotal.WithLabelValues("modify_delete").Add(3)

Recording Histogram Observations:

	timer := metrics.NewTimer()
	// ... perform operation ...
	timer.ObserveDuration(metrics.OpLogAppendDuration)

	timer := metrics.NewTimer()
	// ... run a merge stage ...
	timer.ObserveDurationVec(metrics.MergeDuration, "resolve")

Exposing the Endpoint:

	http.Handle("/metrics", metrics.Handler())
	http.ListenAndServe(":9090", nil)

# Integration Points

This package integrates with:

  - pkg/oplog: Records append duration, op-kind counters, CAS retry counts
  - pkg/view: Records replay and global-view compute duration,
    checkpoint and compaction counts
  - pkg/merge: Records per-stage duration, conflict counts, outcomes
  - pkg/workspace: Destroy/recovery counters
  - cmd/maw: Sets the active workspace gauge from `ws list`
  - Prometheus: Scrapes /metrics endpoint

# Design Patterns

Package Init Registration:
  - All metrics registered in init(); MustRegister panics on duplicate
    registration, so metrics are available before main() runs.

Label Discipline:
  - Labels are cardinality-bounded (workspace ids, op kinds, conflict
    reasons, merge stages) — never raw object ids or timestamps.

Timer Pattern:
  - Create a Timer at operation start, call ObserveDuration or
    ObserveDurationVec when it completes.

# See Also

  - Prometheus client library: https://github.com/prometheus/client_golang
  - Histogram best practices: https://prometheus.io/docs/practices/histograms/
*/
package metrics
