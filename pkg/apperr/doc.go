// Package apperr defines the fixed error taxonomy from spec.md §7:
// Validation, NotFound, CasMismatch, MergeConflict, ValidationFailed,
// BackendIo, and Corrupted. Each kind is a typed, wrapped error so callers
// can dispatch on kind with errors.As instead of string-matching, while
// still composing with errors.Is/errors.Unwrap and fmt.Errorf("...: %w").
package apperr
