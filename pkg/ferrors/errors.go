// Package ferrors defines the error kinds raised by the optimizer. Named
// ferrors rather than errors so callers can import it alongside the
// standard library's errors package without aliasing.
package ferrors

import (
	"errors"
	"fmt"
)

// Kind identifies the category of an optimizer error (spec §7).
type Kind string

// Error kinds raised by the optimizer.
const (
	// KindInvalidArgument is raised when optimize() is called with an
	// empty inputs or outputs list.
	KindInvalidArgument Kind = "INVALID_ARGUMENT"

	// KindGraphInvariant is raised when the graph model is asked to do
	// something that violates its invariants: attaching a second
	// producing op to a collection, removing an absent consuming op, or
	// an op missing an origin or destination.
	KindGraphInvariant Kind = "GRAPH_INVARIANT"

	// KindUnsupportedOperator is raised when a rewrite pass encounters an
	// op variant it does not recognize.
	KindUnsupportedOperator Kind = "UNSUPPORTED_OPERATOR"

	// KindInvariantViolated is raised when the scheduler cannot make
	// progress across a full pass over the remaining MSCRs, which
	// implies a cycle in the MSCR dependency graph.
	KindInvariantViolated Kind = "INVARIANT_VIOLATED"
)

// Error is the error type raised by every optimizer entry point. It carries
// the identity of the offending collection or op, when one exists, so a
// caller can point back at the graph.
type Error struct {
	Kind         Kind
	Message      string
	CollectionID string
	OpID         string
	Cause        error
}

// Error implements the error interface.
func (e *Error) Error() string {
	id := e.CollectionID
	if id == "" {
		id = e.OpID
	}
	switch {
	case e.Cause != nil && id != "":
		return fmt.Sprintf("[%s] %s (%s): %v", e.Kind, e.Message, id, e.Cause)
	case e.Cause != nil:
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Cause)
	case id != "":
		return fmt.Sprintf("[%s] %s (%s)", e.Kind, e.Message, id)
	default:
		return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
	}
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error with the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// New creates an *Error with no wrapped cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates an *Error that wraps an underlying cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// WithCollection attaches a collection identity to err, returning a copy.
func WithCollection(err *Error, collectionID string) *Error {
	cp := *err
	cp.CollectionID = collectionID
	return &cp
}

// WithOp attaches an op identity to err, returning a copy.
func WithOp(err *Error, opID string) *Error {
	cp := *err
	cp.OpID = opID
	return &cp
}

// Common sentinel instances, matched by Kind via Is.
var (
	ErrInvalidArgument     = New(KindInvalidArgument, "invalid argument")
	ErrGraphInvariant      = New(KindGraphInvariant, "graph invariant violated")
	ErrUnsupportedOperator = New(KindUnsupportedOperator, "unsupported operator")
	ErrInvariantViolated   = New(KindInvariantViolated, "scheduler made no progress")
)

// IsKind reports whether err is an *Error (possibly wrapped) of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// GetKind extracts the Kind from err, or "" if err is not an *Error.
func GetKind(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
