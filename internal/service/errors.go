package service

import "errors"

// Common service errors
var (
	// ErrNotFound is returned when a resource is not found
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrConflict is returned when a write loses against a concurrent
	// mutation or violates a uniqueness rule
	ErrConflict = errors.New("resource conflict")

	// ErrPermissionDenied is returned when the acting user may not
	// perform the operation
	ErrPermissionDenied = errors.New("permission denied")

	// ErrIllegalTransition is returned when a status change is not in the
	// entity's transition table
	ErrIllegalTransition = errors.New("illegal status transition")

	// ErrUserNotFound is returned when no principal exists for a phone
	ErrUserNotFound = errors.New("user not found")

	// ErrInvalidPhone is returned when a phone number cannot be
	// normalized to a valid canonical form
	ErrInvalidPhone = errors.New("invalid phone number")

	// ErrDeliveryFailed is returned when the outbound code channel
	// rejects the message; the caller may retry
	ErrDeliveryFailed = errors.New("code delivery failed")

	// ErrNoActiveChallenge is returned when no live challenge exists for
	// the phone
	ErrNoActiveChallenge = errors.New("no active challenge")

	// ErrCodeMismatch is returned when the submitted code does not match
	// the live challenge
	ErrCodeMismatch = errors.New("verification code mismatch")

	// ErrNoPasswordSet is returned on password login for an account that
	// only ever authenticated by code
	ErrNoPasswordSet = errors.New("no password set")

	// ErrInvalidCredential is returned on password mismatch
	ErrInvalidCredential = errors.New("invalid credentials")

	// ErrWeakPassword is returned when a new password is shorter than the
	// minimum length
	ErrWeakPassword = errors.New("password too weak")

	// ErrAlreadyCompleted is returned when registration completion is
	// attempted a second time
	ErrAlreadyCompleted = errors.New("registration already completed")

	// ErrRoleLocked is returned when a role change is attempted after
	// registration has completed
	ErrRoleLocked = errors.New("role is locked after registration")

	// ErrNothingToGenerate is returned when document generation is asked
	// to render an empty result set
	ErrNothingToGenerate = errors.New("nothing to generate")
)
