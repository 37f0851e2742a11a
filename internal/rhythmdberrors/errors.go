// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rhythmdb

// Package rhythmdberrors defines the shared error-kind taxonomy used across
// the entry database: the atom pool, entry store, entry-type registry,
// query language, and persistence layer all report failures through these
// kinds rather than ad-hoc error strings, so callers can dispatch on Kind
// with errors.As regardless of which package raised the error.
package rhythmdberrors

import "fmt"

// Kind identifies the category of a database error, independent of the
// message text. Callers should compare Kind via errors.As(err, &dbErr) and
// switch on dbErr.Kind rather than matching error strings.
type Kind int

const (
	// KindConflict is returned for a duplicate location on entry creation or
	// a duplicate name on entry-type registration.
	KindConflict Kind = iota + 1

	// KindNotFound is returned when a lookup by location, ID, or name finds
	// nothing.
	KindNotFound

	// KindInvalid is returned for unknown query properties, value-type
	// mismatches on set, or sorting on a non-comparable property.
	KindInvalid

	// KindParseError is returned only by persistence, for malformed XML.
	KindParseError

	// KindIO is returned only by persistence, for filesystem failures.
	KindIO

	// KindChainCycle is returned when chaining a query model onto another
	// would create a cycle.
	KindChainCycle

	// KindCancelled is returned when a long-running action was cancelled by
	// dropping its result sink.
	KindCancelled
)

// String renders the Kind's name, used in error messages and in tests that
// assert on error classification.
func (k Kind) String() string {
	switch k {
	case KindConflict:
		return "Conflict"
	case KindNotFound:
		return "NotFound"
	case KindInvalid:
		return "Invalid"
	case KindParseError:
		return "ParseError"
	case KindIO:
		return "IO"
	case KindChainCycle:
		return "ChainCycle"
	case KindCancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

// Error is the database's error type: a Kind plus a human-readable message
// and, for ParseError, source position. Wrap with fmt.Errorf("...: %w", err)
// to add context while preserving Kind for errors.As.
type Error struct {
	Kind    Kind
	Message string

	// Line and Col are set only for KindParseError.
	Line int
	Col  int
}

func (e *Error) Error() string {
	if e.Kind == KindParseError && (e.Line != 0 || e.Col != 0) {
		return fmt.Sprintf("%s: %s (line %d, col %d)", e.Kind, e.Message, e.Line, e.Col)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Is reports whether target is an *Error with the same Kind, so
// errors.Is(err, rhythmdberrors.New(KindNotFound, "")) works for
// kind-only comparisons.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// New constructs an *Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf constructs an *Error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// NewParseError constructs a KindParseError with source position.
func NewParseError(line, col int, message string) *Error {
	return &Error{Kind: KindParseError, Message: message, Line: line, Col: col}
}

// Conflict is a convenience constructor for KindConflict.
func Conflict(format string, args ...any) *Error {
	return Newf(KindConflict, format, args...)
}

// NotFound is a convenience constructor for KindNotFound.
func NotFound(format string, args ...any) *Error {
	return Newf(KindNotFound, format, args...)
}

// Invalid is a convenience constructor for KindInvalid.
func Invalid(format string, args ...any) *Error {
	return Newf(KindInvalid, format, args...)
}

// IO is a convenience constructor for KindIO.
func IO(format string, args ...any) *Error {
	return Newf(KindIO, format, args...)
}

// ChainCycle is a convenience constructor for KindChainCycle.
func ChainCycle(format string, args ...any) *Error {
	return Newf(KindChainCycle, format, args...)
}

// Cancelled is a convenience constructor for KindCancelled.
func Cancelled(format string, args ...any) *Error {
	return Newf(KindCancelled, format, args...)
}
