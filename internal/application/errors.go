package application

import (
	"errors"

	"github.com/AntonioRamos11/RestaurantIA/internal/allocator"
	"github.com/AntonioRamos11/RestaurantIA/internal/persistence"
)

var (
	// ErrUnauthorized is returned when the caller lacks permission for an operation.
	ErrUnauthorized = errors.New("application: unauthorized")
	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrAlreadyExists is returned when a unique attribute is already taken.
	ErrAlreadyExists = errors.New("application: already exists")
)

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	return "validation failed"
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}

// merge copies entries from another validation error into the receiver.
func (v *ValidationError) merge(other *ValidationError) {
	if other == nil || len(other.FieldErrors) == 0 {
		return
	}
	for field, msg := range other.FieldErrors {
		v.add(field, msg)
	}
}

// fromInvalidRequest converts allocator input failures into field errors.
func fromInvalidRequest(err error) (*ValidationError, bool) {
	var invalid *allocator.InvalidRequestError
	if !errors.As(err, &invalid) {
		return nil, false
	}
	vErr := &ValidationError{}
	for field, msg := range invalid.Fields {
		vErr.add(field, msg)
	}
	return vErr, true
}

// mapRepoError translates persistence sentinels into application errors. A
// constraint violation is reported against field.
func mapRepoError(err error, field, message string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrDuplicate) {
		return ErrAlreadyExists
	}
	if errors.Is(err, persistence.ErrConstraintViolation) {
		vErr := &ValidationError{}
		vErr.add(field, message)
		return vErr
	}
	return err
}
