package fault

import (
	"fmt"

	"github.com/pkg/errors"
)

type (
	// Class is the retry classification of a raw error.
	Class int

	// Classifier maps backend specific errors onto a Class.
	Classifier interface {
		Classify(error) Class
	}

	// ClassifierFunc adapts a plain function to the Classifier interface.
	ClassifierFunc func(error) Class

	// Kind identifies a terminal failure category.
	Kind string

	// Error is a terminal failure returned to callers. The original cause is
	// always preserved and reachable through Unwrap / errors.Cause.
	Error struct {
		// Kind is the failure category
		Kind Kind

		// Op names the operation that failed (e.g. "acquire", "commit", "drain")
		Op string

		// Attempts is the number of tries consumed by the relevant retry budget
		Attempts int

		// Err is the underlying cause
		Err error
	}
)

const (
	// ClassPermanent errors are never retried.
	ClassPermanent Class = iota

	// ClassTransient errors are database reported concurrency conflicts
	// (deadlocks, serialization failures, lock wait timeouts) that are
	// expected to succeed when the transaction is replayed.
	ClassTransient

	// ClassConnection errors indicate the session's connection is unusable.
	ClassConnection
)

const (
	// KindConnection means a session could not be acquired (or was lost)
	// more often than the connection retry budget allows.
	KindConnection Kind = "connection"

	// KindTransient means a transient fault outlived the transaction retry budget.
	KindTransient Kind = "transient"

	// KindTask is any other failure raised by the task body or by commit.
	KindTask Kind = "task"

	// KindDeferredAction means a queued commit or rollback action failed.
	KindDeferredAction Kind = "deferred-action"

	// KindSchema means the schema source could not be read or understood.
	KindSchema Kind = "schema"
)

func (f ClassifierFunc) Classify(err error) Class {
	return f(err)
}

func (c Class) String() string {
	switch c {
	case ClassTransient:
		return "transient"
	case ClassConnection:
		return "connection"
	default:
		return "permanent"
	}
}

// New creates a terminal failure of the given kind.
func New(kind Kind, op string, attempts int, err error) *Error {
	return &Error{Kind: kind, Op: op, Attempts: attempts, Err: err}
}

func (e *Error) Error() string {
	if e.Attempts > 0 {
		return fmt.Sprintf("%s fault during %s after %d attempt(s): %v", e.Kind, e.Op, e.Attempts, e.Err)
	}

	return fmt.Sprintf("%s fault during %s: %v", e.Kind, e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Cause implements the causer interface used by errors.Cause.
func (e *Error) Cause() error {
	return e.Err
}

// IsKind reports whether err is (or wraps) a terminal failure of the given kind.
func IsKind(err error, kind Kind) bool {
	var fe *Error
	if !errors.As(err, &fe) {
		return false
	}

	return fe.Kind == kind
}

// KindOf returns the kind of the outermost terminal failure in err's chain.
func KindOf(err error) (Kind, bool) {
	var fe *Error
	if !errors.As(err, &fe) {
		return "", false
	}

	return fe.Kind, true
}
