// Package ordering implements the deterministic total order over
// operations described in spec.md §5: (epoch, workspace, seq, wall_clock)
// keys with a monotonic wall-clock clamp so a backward clock jump can never
// produce a backward-looking key.
package ordering
