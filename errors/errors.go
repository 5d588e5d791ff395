// Package errors provides error handling for skemaforge.
//
// It re-exports github.com/cockroachdb/errors so callers get stack traces,
// wrapping and user-facing hints from a single import, and declares the
// sentinel errors shared across packages.
//
//	if err := os.WriteFile(path, src, 0o644); err != nil {
//	    return errors.Wrapf(err, "save schema %q", name)
//	}
//	return errors.WithHint(err, "schema names may not contain path separators")
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Creation and wrapping
var (
	New         = crdb.New
	Newf        = crdb.Newf
	Wrap        = crdb.Wrap
	Wrapf       = crdb.Wrapf
	WithStack   = crdb.WithStack
	WithMessage = crdb.WithMessage
	Mark        = crdb.Mark
)

// User-facing messages and details
var (
	WithHint    = crdb.WithHint
	WithHintf   = crdb.WithHintf
	WithDetail  = crdb.WithDetail
	WithDetailf = crdb.WithDetailf
)

// Inspection
var (
	Is            = crdb.Is
	As            = crdb.As
	Unwrap        = crdb.Unwrap
	UnwrapAll     = crdb.UnwrapAll
	GetAllHints   = crdb.GetAllHints
	GetAllDetails = crdb.GetAllDetails
	FlattenHints  = crdb.FlattenHints
)

// Sentinel errors. Wrap them to add context; test with Is.
var (
	// ErrNotFound indicates a named schema does not exist.
	ErrNotFound = New("not found")

	// ErrInvalidName indicates a schema or type name that cannot be used.
	ErrInvalidName = New("invalid name")

	// ErrImport indicates source text could not be turned into a schema.
	ErrImport = New("import failed")

	// ErrTimeout indicates an operation exceeded its deadline.
	ErrTimeout = New("operation timed out")

	// ErrExhausted indicates a bounded retry loop gave up.
	ErrExhausted = New("attempts exhausted")
)

// IsNotFound reports whether err is or wraps ErrNotFound.
func IsNotFound(err error) bool { return err != nil && Is(err, ErrNotFound) }

// IsTimeout reports whether err is or wraps ErrTimeout.
func IsTimeout(err error) bool { return err != nil && Is(err, ErrTimeout) }

// NewNotFoundf creates a not-found error with a formatted message.
func NewNotFoundf(format string, args ...any) error {
	return Wrap(ErrNotFound, Newf(format, args...).Error())
}
