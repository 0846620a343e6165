package form

import (
	"context"
	"time"
)

// StepID identifies one ordered stage of a form.
type StepID string

// Terminal state markers reported by Result.State.
const (
	StateConfirming = "confirming"
	StateDone       = "done"
	StateCancelled  = "cancelled"
)

// Draft is the partially collected record accumulated across steps.
type Draft map[string]any

// String returns the draft value for key as a string.
func (d Draft) String(key string) string {
	s, _ := d[key].(string)
	return s
}

// Int returns the draft value for key as an int.
func (d Draft) Int(key string) int {
	n, _ := d[key].(int)
	return n
}

// Strings returns the draft value for key as a string slice.
func (d Draft) Strings(key string) []string {
	v, _ := d[key].([]string)
	return v
}

// Has reports whether the draft contains a value for key.
func (d Draft) Has(key string) bool {
	_, ok := d[key]
	return ok
}

// Step declares one data-collection stage: its prompt, validator, and
// optional skip/photo behavior.
type Step struct {
	ID    StepID
	Field string

	// Prompt renders the step's question. It receives the draft so it can
	// echo the previously accepted value.
	Prompt func(d Draft) string

	// Validate maps raw text to a typed value or a *ValidationError.
	// Nil for steps that do not accept text (photo upload).
	Validate func(raw string) (any, error)

	// Skippable steps accept EventSkip and store SkipValue instead.
	Skippable bool
	SkipValue func() any

	// Photos marks the accumulating photo-upload step: EventPhoto appends,
	// EventDone closes it (substituting DoneDefault when nothing arrived).
	// Receipt acknowledges each accepted photo with the running count.
	Photos      bool
	DoneDefault func() any
	Receipt     func(count int) string

	// Reject is the corrective message for an event kind the step does not
	// accept (photo in a text step, text in the photo step).
	Reject string
}

// CommitFunc performs the final create against the backing store and returns
// the user-facing success message.
type CommitFunc func(ctx context.Context, userID int64, d Draft) (string, error)

// Form is an ordered step list plus lifecycle hooks. The profile-creation
// flow and the admin single-field flows are all Form values driven by the
// same engine.
type Form struct {
	Name    string
	Steps   []Step
	Timeout time.Duration

	// ConfirmPrompt, when set, inserts a confirmation stage after the last
	// step; Commit then runs only on EventConfirm. When nil the form commits
	// immediately after its last step validates.
	ConfirmPrompt func(d Draft) string

	// CancelText overrides the generic cancellation acknowledgement.
	CancelText string

	Commit CommitFunc
}

func (f *Form) step(idx int) *Step {
	if idx < 0 || idx >= len(f.Steps) {
		return nil
	}
	return &f.Steps[idx]
}

// actions returns the buttons offered while the given step is active.
func (f *Form) actions(idx int) []Action {
	if idx >= len(f.Steps) {
		return []Action{confirmAction, cancelAction}
	}
	st := f.Steps[idx]
	var out []Action
	if st.Photos {
		out = append(out, doneAction)
	}
	if st.Skippable {
		out = append(out, skipAction)
	}
	return append(out, cancelAction)
}
