package model

import "errors"

// Validation errors are programmer errors, fatal to the call and never
// retried. Collaborator errors are transient and retried with bounded
// attempts at the invocation boundary. Check with errors.Is.
var (
	ErrUnknownSourceType   = errors.New("unknown source type")
	ErrInvalidContentRef   = errors.New("invalid content ref")
	ErrInvalidWeightConfig = errors.New("invalid weight config")
	ErrInvalidBudget       = errors.New("invalid context budget")

	ErrCollaboratorUnavailable = errors.New("collaborator unavailable")
	ErrCollaboratorTimeout     = errors.New("collaborator timeout")

	// ErrNoEvidenceAvailable is surfaced when every invoked tool failed.
	// The accompanying trace explains each failure.
	ErrNoEvidenceAvailable = errors.New("no evidence available")
)
