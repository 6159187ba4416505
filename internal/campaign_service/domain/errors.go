package domain

import "errors"

var (
	// ErrNotFound indicates that a requested campaign or attempt was not found.
	ErrNotFound = errors.New("resource not found")
	// ErrInvalidState indicates the requested transition is illegal for the
	// campaign's current status. No state mutation occurs.
	ErrInvalidState = errors.New("invalid state transition")
	// ErrValidation indicates malformed or out-of-range input; the operation
	// was not attempted.
	ErrValidation = errors.New("validation failed")
	// ErrNoDueCampaigns indicates no scheduled campaigns are currently due.
	ErrNoDueCampaigns = errors.New("no due campaigns found")
)
