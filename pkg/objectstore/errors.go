package objectstore

import "fmt"

// ErrNotFound is returned when a ref, revspec, or object lookup finds
// nothing. Callers that want an Option-like lookup use the "_opt" variant
// of the corresponding method instead of receiving this error.
var ErrNotFound = fmt.Errorf("objectstore: not found")

// InvalidOidError reports a malformed object id presented to the store.
type InvalidOidError struct {
	Value  string
	Reason string
}

func (e *InvalidOidError) Error() string {
	return fmt.Sprintf("invalid object id %q: %s", e.Value, e.Reason)
}

// RefConflictError reports a ref CAS failure: the ref's current value did
// not match the edit's expected old value.
type RefConflictError struct {
	RefName string
	Message string
}

func (e *RefConflictError) Error() string {
	return fmt.Sprintf("ref conflict on %q: %s", e.RefName, e.Message)
}

// IoError wraps a failure from the underlying storage medium (disk,
// packfile corruption, permission error).
type IoError struct {
	Cause error
}

func (e *IoError) Error() string {
	return fmt.Sprintf("objectstore io error: %v", e.Cause)
}

func (e *IoError) Unwrap() error {
	return e.Cause
}

// BackendError reports a failure internal to the concrete backend that
// doesn't fit one of the other categories (e.g. an unexpected go-git
// plumbing error).
type BackendError struct {
	Message string
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("objectstore backend error: %s", e.Message)
}

// PushFailedError reports a failed push to a remote.
type PushFailedError struct {
	Remote  string
	Message string
}

func (e *PushFailedError) Error() string {
	return fmt.Sprintf("push to %q failed: %s", e.Remote, e.Message)
}
