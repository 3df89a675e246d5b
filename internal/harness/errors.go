package harness

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrIncompleteExecution matches *IncompleteExecutionError via errors.Is.
	ErrIncompleteExecution = errors.New("incomplete execution")

	// ErrCustomVerification matches *CustomVerificationError via errors.Is.
	ErrCustomVerification = errors.New("custom verification failed")

	// ErrAlreadyVerified is returned when a Harness is verified twice.
	ErrAlreadyVerified = errors.New("harness already verified")
)

// IncompleteExecutionError reports invocations that had not finished when
// the completion deadline elapsed.
//
// This usually means a deadlock, starvation, or a timeout too short for
// the amount of contention.
type IncompleteExecutionError struct {
	// Remaining is the number of unfinished invocations.
	Remaining int64

	// Total is the number of scheduled invocations.
	Total int64

	// Timeout is the deadline that elapsed.
	Timeout time.Duration

	// Cause is set when the wait ended because the caller's context was cancelled.
	Cause error
}

// Error implements the error interface.
func (e *IncompleteExecutionError) Error() string {
	msg := fmt.Sprintf(
		"%d of %d invocations did not complete execution within %s; increase the timeout or investigate crashes or potential deadlocks",
		e.Remaining, e.Total, e.Timeout,
	)
	if e.Cause != nil {
		msg += fmt.Sprintf(" (wait interrupted: %v)", e.Cause)
	}
	return msg
}

// Is reports whether target is ErrIncompleteExecution.
func (e *IncompleteExecutionError) Is(target error) bool {
	return target == ErrIncompleteExecution
}

// Unwrap returns the cancellation cause, if any.
func (e *IncompleteExecutionError) Unwrap() error {
	return e.Cause
}

// CustomVerificationError is returned when the caller's post-condition fails
// after every primary check passed.
type CustomVerificationError struct {
	// Err is the error returned by a VerifyFunc check. Nil for VerifyWith predicates.
	Err error
}

// Error implements the error interface.
func (e *CustomVerificationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("custom verification failed: %v", e.Err)
	}
	return "custom verification failed"
}

// Is reports whether target is ErrCustomVerification.
func (e *CustomVerificationError) Is(target error) bool {
	return target == ErrCustomVerification
}

// Unwrap returns the check's error.
func (e *CustomVerificationError) Unwrap() error {
	return e.Err
}

// PanicError is the captured failure of an action that panicked.
type PanicError struct {
	// Value is the value passed to panic.
	Value any

	// Stack is the goroutine stack at the time of the panic.
	Stack []byte
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("action panicked: %v", e.Value)
}

// Unwrap returns the panic value when it is itself an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// ConfigError reports an invalid harness configuration.
type ConfigError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// IsIncomplete returns true if err is an incomplete execution failure.
// Uses errors.Is to handle wrapped errors.
func IsIncomplete(err error) bool {
	return errors.Is(err, ErrIncompleteExecution)
}

// IsCustomFailure returns true if err is a custom verification failure.
func IsCustomFailure(err error) bool {
	return errors.Is(err, ErrCustomVerification)
}
