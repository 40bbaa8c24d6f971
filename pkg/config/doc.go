// Package config loads the engine's tunables (spec.md §6, §9 Open
// Questions): checkpoint interval, compaction policy, and the merge plan's
// optional drivers/validation fields. Config files are YAML, the same way
// cmd/warren's apply.go reads resource manifests.
package config
