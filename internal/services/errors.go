package services

import "errors"

var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrEntryNotFound        = errors.New("transcript entry not found")
	ErrEditNotAllowed       = errors.New("entry cannot be edited")
	ErrStepMismatch         = errors.New("answer does not match the current step")
	ErrFlowComplete         = errors.New("conversation flow is complete")
	ErrCooldownActive       = errors.New("resend not available yet")
	ErrOperationInFlight    = errors.New("a lookup for this step is already running")
	ErrNotVerified          = errors.New("phone number not verified yet")
	ErrNoProgramSelected    = errors.New("no program selected yet")
)

// ValidationError carries user-facing failure text for a rejected input.
// Validation failures never advance the step and never reach an adapter.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func invalid(message string) error {
	return &ValidationError{Message: message}
}
