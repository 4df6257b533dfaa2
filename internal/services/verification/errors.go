// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package verification

import "errors"

var (
	// ErrInvalidRequest is returned when the token or email is missing.
	ErrInvalidRequest = errors.New("token and email are required")

	// ErrNotFound is returned when no secure link carries the token.
	ErrNotFound = errors.New("secure link not found")

	// ErrAlreadyUsed is returned when the link is no longer pending.
	ErrAlreadyUsed = errors.New("secure link has already been used")

	// ErrExpired is returned when the link expired before the request.
	ErrExpired = errors.New("secure link has expired")

	// ErrEmailMismatch is returned when the email differs from the customer email.
	ErrEmailMismatch = errors.New("email does not match secure link")

	// ErrDuplicateToken is returned when more than one link carries the token.
	// It is a data integrity fault, not a user error.
	ErrDuplicateToken = errors.New("multiple secure links share a token")
)

// Outcome labels.
const (
	OutcomeSuccess        = "success"
	OutcomeInvalidRequest = "invalid_request"
	OutcomeNotFound       = "not_found"
	OutcomeAlreadyUsed    = "already_used"
	OutcomeExpired        = "expired"
	OutcomeEmailMismatch  = "email_mismatch"
	OutcomeInternalError  = "internal_error"
)

// Outcome classifies an error returned by Verify.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, ErrInvalidRequest):
		return OutcomeInvalidRequest
	case errors.Is(err, ErrNotFound):
		return OutcomeNotFound
	case errors.Is(err, ErrAlreadyUsed):
		return OutcomeAlreadyUsed
	case errors.Is(err, ErrExpired):
		return OutcomeExpired
	case errors.Is(err, ErrEmailMismatch):
		return OutcomeEmailMismatch
	default:
		return OutcomeInternalError
	}
}
