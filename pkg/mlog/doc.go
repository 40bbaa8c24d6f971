// Package mlog sets up the process-wide zerolog logger used across maw.
// It is a re-themed copy of the teacher's pkg/log: same Config shape, same
// console-vs-JSON switch, same "component" field convention — with
// workspace/merge/epoch-scoped child loggers standing in for the
// teacher's node/service/task ones.
package mlog
