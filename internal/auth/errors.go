package auth

import "errors"

var (
	// ErrInvalidCredentials is the single generic error returned for any
	// credential mismatch during login. It deliberately does not reveal
	// which field was wrong or which authentication path failed.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrAccountSuspended is returned when the authenticated employee is
	// suspended; no session may be established.
	ErrAccountSuspended = errors.New("account is suspended and cannot access the system")

	// ErrInvalidOldPassword is returned when the provided old password does
	// not match the identity's current password.
	ErrInvalidOldPassword = errors.New("invalid old password")

	// ErrIdentityNotFound is returned when an identity cannot be found.
	ErrIdentityNotFound = errors.New("identity not found")
)
