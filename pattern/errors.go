package pattern

import (
	"errors"
	"fmt"
)

type FailureKind string

const KIND_CONTEXT_INVALID FailureKind = "CONTEXT_INVALID"
const KIND_CONFIDENCE_TOO_LOW FailureKind = "CONFIDENCE_TOO_LOW"
const KIND_ELEMENT_NOT_FOUND FailureKind = "ELEMENT_NOT_FOUND"
const KIND_ACTION_FAILED FailureKind = "ACTION_FAILED"

var (
	ErrContextInvalid    = errors.New("context validation failed")
	ErrConfidenceTooLow  = errors.New("confidence too low")
	ErrElementNotFound   = errors.New("element not found")
	ErrActionFailed      = errors.New("action failed")
	ErrPatternNotFound   = errors.New("pattern not found")
	ErrNoMatchingPattern = errors.New("no matching pattern")
)

var kindErrors = map[FailureKind]error{
	KIND_CONTEXT_INVALID:    ErrContextInvalid,
	KIND_CONFIDENCE_TOO_LOW: ErrConfidenceTooLow,
	KIND_ELEMENT_NOT_FOUND:  ErrElementNotFound,
	KIND_ACTION_FAILED:      ErrActionFailed,
}

// ExecutionError is the typed failure of a single pattern execution.
type ExecutionError struct {
	PatternId string
	Kind      FailureKind
	Reason    string
	Cause     error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("pattern %s: %s", e.PatternId, e.Reason)
}

func (e *ExecutionError) Unwrap() error {
	return e.Cause
}

func (e *ExecutionError) Is(target error) bool {
	return kindErrors[e.Kind] == target
}

// Executed reports whether the failure happened after the actuator was called.
func (e *ExecutionError) Executed() bool {
	return e.Kind == KIND_ELEMENT_NOT_FOUND || e.Kind == KIND_ACTION_FAILED
}

func AsExecutionError(err error) (*ExecutionError, bool) {
	var e *ExecutionError
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
