// Package mawtypes defines the core validated value types shared by every
// other package in maw: object ids, epoch ids, workspace ids, and file ids.
//
// None of these types touch the object store or the filesystem; they are
// pure value types with constructor-time validation, so a bad id fails at
// the boundary where it was parsed rather than deep inside a replay or
// merge.
package mawtypes
