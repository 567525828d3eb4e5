package aclkit

import (
	"errors"
	"fmt"
)

// Sentinel errors for ACLKit operations.
var (
	// ErrAccessDenied is returned when the caller lacks the required role.
	ErrAccessDenied = errors.New("aclkit: access denied")

	// ErrAlreadyBootstrapped is returned when Bootstrap is called a second time.
	ErrAlreadyBootstrapped = errors.New("aclkit: already bootstrapped")

	// ErrNoCaller is returned when a caller identity is required but not found
	// in the context.
	ErrNoCaller = errors.New("aclkit: no caller in context")

	// ErrStorage is returned when a persistence operation fails.
	ErrStorage = errors.New("aclkit: storage error")
)

// Error wraps a sentinel error with additional context.
type Error struct {
	Err       error     // Underlying sentinel error
	Message   string    // Additional context
	Role      RoleID    // Role involved
	AdminRole RoleID    // Admin role that gated the operation (if applicable)
	Target    Principal // Principal the operation targeted (if applicable)
	Caller    Principal // Caller that triggered the error (if applicable)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is checks if the error matches a target error.
func (e *Error) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewError creates a new Error with context.
func NewError(err error, message string) *Error {
	return &Error{
		Err:     err,
		Message: message,
	}
}

// WithRole adds the role involved to the error.
func (e *Error) WithRole(role RoleID) *Error {
	e.Role = role
	return e
}

// WithAdminRole adds the gating admin role to the error.
func (e *Error) WithAdminRole(admin RoleID) *Error {
	e.AdminRole = admin
	return e
}

// WithTarget adds the targeted principal to the error.
func (e *Error) WithTarget(target Principal) *Error {
	e.Target = target
	return e
}

// WithCaller adds the caller to the error.
func (e *Error) WithCaller(caller Principal) *Error {
	e.Caller = caller
	return e
}

// IsAccessDenied checks if an error is an authorization failure.
func IsAccessDenied(err error) bool {
	return errors.Is(err, ErrAccessDenied)
}

// IsAlreadyBootstrapped checks if an error is a repeated bootstrap.
func IsAlreadyBootstrapped(err error) bool {
	return errors.Is(err, ErrAlreadyBootstrapped)
}

// IsNoCaller checks if an error is a missing caller identity.
func IsNoCaller(err error) bool {
	return errors.Is(err, ErrNoCaller)
}

// IsStorage checks if an error is a persistence failure.
func IsStorage(err error) bool {
	return errors.Is(err, ErrStorage)
}
