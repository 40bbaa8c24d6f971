// Package objectstore defines the capability interface consumed by every
// other maw package: refs, revspec resolution, objects, tree editing, the
// index, checkout, status/diff. It mirrors the teacher's pkg/storage
// interface-first design (a Store interface, a concrete backend behind it)
// but is content-addressed rather than row-oriented.
//
// The concrete implementation lives in pkg/objectstore/gitbackend.
package objectstore
