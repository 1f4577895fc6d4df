// Package shared contains common domain types, errors, and events used across
// all domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors for errors.Is() checking.
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")

	// Validation errors
	ErrValidation    = errors.New("validation error")
	ErrEmptyValue    = errors.New("value cannot be empty")
	ErrInvalidFormat = errors.New("invalid format")
	ErrInvalidInput  = errors.New("invalid input")

	// Business-rule errors
	ErrLimitExceeded = errors.New("limit exceeded")
	ErrForbidden     = errors.New("forbidden")
	ErrInvalidState  = errors.New("invalid state")
	ErrExhausted     = errors.New("retries exhausted")

	// Authorization errors
	ErrUnauthorized       = errors.New("unauthorized")
	ErrRequiresRecentAuth = errors.New("requires recent authentication")

	// External service errors
	ErrExternalService = errors.New("external service error")
	ErrTimeout         = errors.New("operation timeout")
)

// DomainError carries context about where and why a domain operation failed.
type DomainError struct {
	Domain  string // e.g. "progress", "mentor", "usage"
	Op      string // operation that failed, e.g. "AddCategory"
	Kind    error  // base error for errors.Is() checking
	Message string // human-readable message
	Err     error  // underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching against both Kind and Err.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{Domain: domain, Op: op, Kind: kind, Message: message}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{Domain: domain, Op: op, Kind: kind, Message: message, Err: err}
}

// Progress domain errors
var (
	ErrItemNotFound      = NewDomainError("progress", "Find", ErrNotFound, "item not found")
	ErrEmptyBatch        = NewDomainError("progress", "Validate", ErrEmptyValue, "no entries after trimming input")
	ErrInvalidStatus     = NewDomainError("progress", "Validate", ErrValidation, "unknown progress status")
	ErrDuplicateCategory = NewDomainError("progress", "AddCategory", ErrAlreadyExists, "category already exists")
	ErrProtectedCategory = NewDomainError("progress", "DeleteCategory", ErrForbidden, "the General category cannot be deleted")
	ErrUnknownLinkType   = NewDomainError("progress", "AddPortfolioEntry", ErrValidation, "link is neither YouTube nor SoundCloud")
	ErrTooManyTopEntries = NewDomainError("progress", "ToggleTop", ErrLimitExceeded, "at most 3 portfolio entries may be featured")
)

// Mentor domain errors
var (
	ErrCodeInvalidFormat = NewDomainError("mentor", "Resolve", ErrInvalidFormat, "mentor code must be 5 alphanumeric characters")
	ErrCodeNotFound      = NewDomainError("mentor", "Resolve", ErrNotFound, "mentor code not found")
	ErrCodeDisabled      = NewDomainError("mentor", "Resolve", ErrInvalidState, "mentor code is disabled by its owner")
	ErrCodeGeneration    = NewDomainError("mentor", "GetOrCreate", ErrExhausted, "could not generate a unique mentor code")
)

// Session errors
var (
	ErrReadOnlySession = NewDomainError("session", "Mutate", ErrForbidden, "session is read-only")
	ErrNoAuthUser      = NewDomainError("session", "Require", ErrUnauthorized, "no authenticated user")
)

// Identity errors
var (
	ErrEmailInUse         = NewDomainError("identity", "SignUp", ErrAlreadyExists, "email already in use")
	ErrInvalidCredentials = NewDomainError("identity", "SignIn", ErrUnauthorized, "invalid email or password")
	ErrUserNotFound       = NewDomainError("identity", "Find", ErrNotFound, "user not found")
	ErrActionCodeInvalid  = NewDomainError("identity", "ApplyActionCode", ErrInvalidState, "action code is invalid or expired")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrEmptyValue) ||
		errors.Is(err, ErrInvalidFormat) ||
		errors.Is(err, ErrInvalidInput)
}

// IsExternalService checks if the error is from an external service.
func IsExternalService(err error) bool {
	return errors.Is(err, ErrExternalService) || errors.Is(err, ErrTimeout)
}
