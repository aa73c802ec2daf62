package directory

import (
	"errors"
	"fmt"

	"github.com/go-ldap/ldap/v3"
)

var (
	// ErrNotFound is returned when an operation required a directory entry
	// that does not exist. An empty search result by itself is not an error;
	// this sentinel is used by callers that needed exactly one entry.
	ErrNotFound = errors.New("no matching directory entry")

	// ErrConfiguration is returned when a required directory setting is missing.
	ErrConfiguration = errors.New("missing required directory configuration")

	// ErrValidation is returned when required caller input is missing or empty.
	ErrValidation = errors.New("missing required input")
)

// ConnectionError reports that a directory session could not be established
// or authenticated: unreachable host, TLS failure or rejected service bind.
type ConnectionError struct {
	Err error
}

// Error implements the error interface.
func (e *ConnectionError) Error() string {
	return fmt.Sprintf("directory connection failed: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// ProtocolError reports that the directory rejected an operation with a
// non-zero result code. Code and Description carry the provider's own
// diagnostics so operators can act on them without string matching.
type ProtocolError struct {
	// Op is the directory operation that failed (bind, search, add, modify, delete).
	Op string
	// Code is the LDAP result code returned by the server.
	Code uint16
	// Description is the textual meaning of Code.
	Description string

	Err error
}

// Error implements the error interface.
func (e *ProtocolError) Error() string {
	return fmt.Sprintf("directory %s rejected: %s (code %d)", e.Op, e.Description, e.Code)
}

// Unwrap returns the underlying error.
func (e *ProtocolError) Unwrap() error {
	return e.Err
}

// classify converts a go-ldap error into the package taxonomy: server result
// codes become *ProtocolError, everything else (network, TLS) becomes
// *ConnectionError.
func classify(op string, err error) error {
	var ldapErr *ldap.Error

	if errors.As(err, &ldapErr) {
		return &ProtocolError{
			Op:          op,
			Code:        ldapErr.ResultCode,
			Description: ldap.LDAPResultCodeMap[ldapErr.ResultCode],
			Err:         err,
		}
	}

	return &ConnectionError{Err: fmt.Errorf("%s: %w", op, err)}
}
