package fetch

import (
	"errors"
	"fmt"
)

// ErrorClass partitions fetch failures by how the pipeline reacts to them.
type ErrorClass string

const (
	// ClassNotFound: the profile does not exist on the tracker. Terminal,
	// never retried.
	ClassNotFound ErrorClass = "not_found"
	// ClassBlocked: anti-bot challenge page. Retried with backoff, then
	// degrades pool concurrency for the rest of the cycle.
	ClassBlocked ErrorClass = "blocked"
	// ClassTransient: network/navigation/timeout errors. Retried.
	ClassTransient ErrorClass = "transient"
	// ClassMalformed: page fetched but expected fields missing. Retried
	// once, then surfaces as a partial record.
	ClassMalformed ErrorClass = "malformed"
)

var ErrRetryExhausted = errors.New("retry attempts exhausted")

// Error carries the class alongside the underlying cause so the
// orchestrator can fold any failure into a completeness state.
type Error struct {
	Class ErrorClass
	URL   string
	Err   error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s (%s): %v", e.URL, e.Class, e.Err)
	}
	return fmt.Sprintf("fetch %s (%s)", e.URL, e.Class)
}

func (e *Error) Unwrap() error { return e.Err }

// ClassOf extracts the error class, defaulting unexpected errors to
// transient so they stay contained per task.
func ClassOf(err error) ErrorClass {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Class
	}
	return ClassTransient
}

// retryable reports whether a class is worth another attempt.
func retryable(class ErrorClass) bool {
	switch class {
	case ClassBlocked, ClassTransient, ClassMalformed:
		return true
	default:
		return false
	}
}
