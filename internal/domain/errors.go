package domain

import (
	"errors"
	"fmt"
)

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Domain errors are pure, with no infrastructure dependency. The API layer maps
// them to HTTP status codes.

var (
	// Day / submission errors
	ErrDaySealed         = errors.New("day already submitted: record is sealed")
	ErrDayNotFound       = errors.New("day record not found")
	ErrThresholdNotMet   = errors.New("fewer than 5 of 7 obligations complete")
	ErrPenaltyUnresolved = errors.New("unresolved penalty blocks submission")
	ErrPenaltyNotFound   = errors.New("penalty not found")

	// Account errors
	ErrUserNotFound      = errors.New("user not found")
	ErrUsernameTaken     = errors.New("username is already taken")
	ErrAccessCodeTaken   = errors.New("access code is already in use")
	ErrAccessCodeUnknown = errors.New("access code not recognized")
	ErrBadCredentials    = errors.New("incorrect username or password")

	// Premium token errors. Each rejection kind is user-facing and distinct
	ErrTokenNotFound   = errors.New("activation token not found")
	ErrTokenRedeemed   = errors.New("activation token has already been used")
	ErrTokenExpired    = errors.New("activation token has expired")
	ErrTokenWrongOwner = errors.New("activation token is assigned to a different account")
)

// ValidationError reports a field-level problem with a payload.
// Rejected before any state mutation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsConflict reports whether err is a conflict-class error: attempting to
// mutate sealed state or re-consume a single-use token. Never retried.
func IsConflict(err error) bool {
	return errors.Is(err, ErrDaySealed) ||
		errors.Is(err, ErrTokenRedeemed) ||
		errors.Is(err, ErrTokenWrongOwner) ||
		errors.Is(err, ErrUsernameTaken) ||
		errors.Is(err, ErrAccessCodeTaken)
}

// IsNotFound reports whether err references a missing user, day, or token.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrDayNotFound) ||
		errors.Is(err, ErrPenaltyNotFound) ||
		errors.Is(err, ErrTokenNotFound)
}
