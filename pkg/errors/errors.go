package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrNotFound is returned when a resource is not found
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrUnauthorized is returned when authentication fails
type ErrUnauthorized struct {
	Message string
}

func (e *ErrUnauthorized) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "unauthorized"
}

// ErrValidation is returned when validation fails
type ErrValidation struct {
	Message string
	Fields  map[string]string
}

func (e *ErrValidation) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "validation failed"
}

// ErrStoreUnavailable is returned when the backing store could not answer
// (unreachable, query error, unexpected payload)
type ErrStoreUnavailable struct {
	Op  string
	Err error
}

func (e *ErrStoreUnavailable) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("store unavailable: %s", e.Op)
	}
	return fmt.Sprintf("store unavailable: %s: %v", e.Op, e.Err)
}

func (e *ErrStoreUnavailable) Unwrap() error {
	return e.Err
}

// ErrUpstream is returned when the Zakeke API rejected a call or answered
// with something that is not JSON
type ErrUpstream struct {
	Status int
	Body   string
	Err    error
}

func (e *ErrUpstream) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("zakeke request failed: %v", e.Err)
	}
	return fmt.Sprintf("zakeke returned %d: %s", e.Status, e.Body)
}

func (e *ErrUpstream) Unwrap() error {
	return e.Err
}

// ErrConfig is returned by config loading for missing or invalid keys
type ErrConfig struct {
	Key     string
	Message string
}

func (e *ErrConfig) Error() string {
	return fmt.Sprintf("%s %s", e.Key, e.Message)
}

// IsNotFound reports whether err (or anything it wraps) is an ErrNotFound
func IsNotFound(err error) bool {
	var target *ErrNotFound
	return stderrors.As(err, &target)
}

// IsValidation reports whether err (or anything it wraps) is an ErrValidation
func IsValidation(err error) bool {
	var target *ErrValidation
	return stderrors.As(err, &target)
}

// IsStoreUnavailable reports whether err (or anything it wraps) is an ErrStoreUnavailable
func IsStoreUnavailable(err error) bool {
	var target *ErrStoreUnavailable
	return stderrors.As(err, &target)
}
