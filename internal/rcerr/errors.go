// Package rcerr defines the structured error taxonomy the back-end uses to
// report lowering failures to the driver. Every lowering entry point
// returns either an appended instruction sequence or one of these errors;
// none are recovered internally.
package rcerr

import (
	"fmt"

	"github.com/pkg/errors"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Kind identifies the taxonomy of a backend error, independent of its
// formatted message.
type Kind uint

// Error is a structured backend error: a Kind, a human-readable message,
// an optional source location, and (via github.com/pkg/errors) a stack
// trace captured at construction.
type Error struct {
	kind    Kind
	message string
	loc     string // Source location, if known. Empty if unavailable.
	cause   error
}

// ---------------------
// ----- Constants -----
// ---------------------

const (
	// UnsupportedConstruct identifies an IR construct the back-end cannot
	// lower, e.g. an I64 memory operation or a dynamic-count GEP.
	UnsupportedConstruct Kind = iota
	// InvalidIR identifies malformed input: unterminated blocks, use-before-def,
	// or missing bank metadata on a pointer-typed temp.
	InvalidIR
	// ResourceExhausted identifies spill slot counts exceeding the reserved frame range.
	ResourceExhausted
	// InternalInvariantViolated identifies a programmer error in the back-end
	// itself: an uninitialized static bank register, or an unknown dynamic
	// bank name.
	InternalInvariantViolated
)

// kindNames provides string literals for Kind constants.
var kindNames = [...]string{
	"UnsupportedConstruct",
	"InvalidIR",
	"ResourceExhausted",
	"InternalInvariantViolated",
}

// ---------------------
// ----- Functions -----
// ---------------------

// String returns a print friendly representation of the Kind.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "UnknownKind"
}

// New constructs an *Error of the given Kind with a formatted message and no
// known source location.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{
		kind:    kind,
		message: fmt.Sprintf(format, args...),
		cause:   errors.New(fmt.Sprintf(format, args...)),
	}
}

// WithLoc attaches a source location string (e.g. "func.rs:12") to the error.
func (e *Error) WithLoc(loc string) *Error {
	e.loc = loc
	return e
}

// Kind returns the error's taxonomy kind.
func (e *Error) Kind() Kind {
	return e.kind
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.loc != "" {
		return fmt.Sprintf("%s: %s (at %s)", e.kind, e.message, e.loc)
	}
	return fmt.Sprintf("%s: %s", e.kind, e.message)
}

// Unwrap exposes the underlying stack-tracked cause for errors.As/errors.Is.
func (e *Error) Unwrap() error {
	return e.cause
}

// Unsupported is a convenience constructor for Kind UnsupportedConstruct.
func Unsupported(format string, args ...interface{}) *Error {
	return New(UnsupportedConstruct, format, args...)
}

// Invalid is a convenience constructor for Kind InvalidIR.
func Invalid(format string, args ...interface{}) *Error {
	return New(InvalidIR, format, args...)
}

// Exhausted is a convenience constructor for Kind ResourceExhausted.
func Exhausted(format string, args ...interface{}) *Error {
	return New(ResourceExhausted, format, args...)
}

// Invariant is a convenience constructor for Kind InternalInvariantViolated.
func Invariant(format string, args ...interface{}) *Error {
	return New(InternalInvariantViolated, format, args...)
}
