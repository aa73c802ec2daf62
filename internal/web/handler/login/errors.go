// Package login provides HTTP handlers and helpers for user authentication.
//
// This file defines exported error values and messages used throughout the
// login flow.
package login

import "errors"

var (
	// ErrInvalidFormData is returned when the submitted login payload cannot be
	// parsed or fails validation.
	ErrInvalidFormData = errors.New("invalid form data")

	// ErrInvalidCredentials is the single message shown for every credential
	// failure, regardless of which authentication step rejected the attempt.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrInternalServerError is returned for unexpected failures during the
	// login process.
	ErrInternalServerError = errors.New("internal server error")
)

// MsgAccountSuspended is shown when the credentials were valid but the
// employee is suspended.
const MsgAccountSuspended = "your account is suspended, contact human resources"
