// Package gitbackend implements objectstore.Store on top of
// github.com/go-git/go-git/v5. It is the one concrete adapter between the
// abstract capability (§4.1) and an actual content-addressed store.
//
// Ref CAS is built on storer.ReferenceStorer.CheckAndSetReference, which
// go-git already provides as a single-ref compare-and-swap following git's
// own ref-transaction convention (the zero hash stands for "ref does not
// exist"). AtomicRefUpdate composes N single-ref CAS calls into a
// best-effort multi-ref transaction: apply each edit in order, and if any
// edit fails, undo the ones that already succeeded. This is a deliberate
// gap from a true multi-ref transaction (go-git has none).
package gitbackend
