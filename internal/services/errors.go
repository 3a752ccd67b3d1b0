package services

import "errors"

var (
	// ErrValidation wraps every input validation failure.
	ErrValidation = errors.New("invalid input")
	// ErrEmailTaken is returned when registering an email that already has an account.
	ErrEmailTaken = errors.New("email already registered")
	// ErrForbidden is returned when the session's kind or ownership does not allow the action.
	ErrForbidden = errors.New("forbidden")
	// ErrProfileIncomplete is returned when an action needs a profile the account lacks.
	ErrProfileIncomplete = errors.New("profile incomplete")
	ErrAlreadyApplied    = errors.New("already applied to this job")
	ErrUploadsDisabled   = errors.New("file uploads are disabled")
)
