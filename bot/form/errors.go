package form

import (
	"errors"
	"fmt"
)

// ErrNoActiveSession is returned when an event arrives for a user without a
// live (or not yet expired) form session.
var ErrNoActiveSession = errors.New("form: no active session")

// ValidationError reports a step input that failed its rule. The Reason is
// user-facing and doubles as the re-prompt text.
type ValidationError struct {
	Step   StepID
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("form: step %s rejected input: %s", e.Step, e.Reason)
}

// InvalidTransitionError reports an event kind that does not match the
// expected input for the current step.
type InvalidTransitionError struct {
	Step  StepID
	Event EventKind
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("form: event %s not valid in step %s", e.Event, e.Step)
}

// BackendError wraps a failed call against the profile or settings store.
// The session is preserved so the user can retry.
type BackendError struct {
	Op  string
	Err error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("form: backend %s: %v", e.Op, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}
