package ocsf

import (
	"errors"
	"fmt"

	"github.com/syssam/ocsf/validate"
)

// ErrNotFound is matched by every NotFoundError.
var ErrNotFound = errors.New("ocsf: entity not found")

// NotFoundError reports a name that is not registered in a category.
type NotFoundError struct {
	category string
	name     string
}

func (e *NotFoundError) Error() string {
	if e.category == "" {
		return fmt.Sprintf("ocsf: %q not found", e.name)
	}
	return fmt.Sprintf("ocsf: %s %q not found", e.category, e.name)
}

// Is matches ErrNotFound.
func (e *NotFoundError) Is(err error) bool { return err == ErrNotFound }

// Category is the category of the registry that was searched.
func (e *NotFoundError) Category() string { return e.category }

// Name is the native name that was looked up.
func (e *NotFoundError) Name() string { return e.name }

// NewNotFoundError returns a NotFoundError for name in category.
func NewNotFoundError(category, name string) *NotFoundError {
	return &NotFoundError{category: category, name: name}
}

// IsNotFound reports whether err is or wraps a failed lookup.
func IsNotFound(err error) bool {
	return err != nil && errors.Is(err, ErrNotFound)
}

// ValidationError is returned by Registry.Validate when a document does not
// match the entity it was checked against.
type ValidationError struct {
	Name string // native entity name
	Err  error  // validate.Issues, or the JSON decode error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("ocsf: %s failed validation: %s", e.Name, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Issues returns the individual failures, or nil when the document was not
// valid JSON.
func (e *ValidationError) Issues() validate.Issues {
	var is validate.Issues
	if errors.As(e.Err, &is) {
		return is
	}
	return nil
}

// NewValidationError wraps the failure of entity name.
func NewValidationError(name string, err error) *ValidationError {
	return &ValidationError{Name: name, Err: err}
}

// IsValidationError reports whether err is or wraps a ValidationError.
func IsValidationError(err error) bool {
	var e *ValidationError
	return err != nil && errors.As(err, &e)
}
