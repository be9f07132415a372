package eventdomain

import (
	"errors"
	"fmt"
	"math/rand/v2"
)

var (
	// ErrTimeout aborts a wizard or signup session that got no answer in time.
	ErrTimeout = errors.New("no response within the interaction window")

	// ErrRoleFull is reported by the signup pre-check when a role is full at prompt time.
	ErrRoleFull = errors.New("role is full")

	// ErrUnknownInteraction is returned for inputs that match no live session or step.
	ErrUnknownInteraction = errors.New("interaction not recognized")

	// ErrNotAnEvent is returned when an edit or delete targets a message that is not an event.
	ErrNotAnEvent = errors.New("message is not an event")

	// ErrNotLeader is returned when someone other than the leader edits or deletes an event.
	ErrNotLeader = errors.New("only the event leader can change this event")

	// ErrInvalidTransition is returned for lifecycle changes the current state does not allow.
	ErrInvalidTransition = errors.New("invalid event state transition")
)

// ValidationError is a user-correctable input problem. The current step is prompted again.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// NewValidationError builds a ValidationError for field.
func NewValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is or wraps a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

var rejectionMessages = []string{
	"That message is not an event. Nice try.",
	"I looked everywhere on that message and found no event.",
	"No roster lives there. Point me at an event message.",
	"That is just a message. Events have rosters.",
	"Not an event. Maybe the one above it?",
}

// RejectionMessage picks a reply for ErrNotAnEvent. pick(n) must return a value in [0, n);
// nil uses math/rand.
func RejectionMessage(pick func(n int) int) string {
	if pick == nil {
		pick = rand.IntN
	}
	return rejectionMessages[pick(len(rejectionMessages))]
}
