package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/newsdesk-api/internal/repository"
	"github.com/newsdesk-api/internal/validation"
)

var (
	// ErrNotFound is returned when the addressed resource does not exist
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials is returned for every failed login
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthenticated is returned when a request carries no usable token
	ErrUnauthenticated = errors.New("authentication credentials were not provided or are invalid")
	// ErrForbidden is returned when the caller's role does not allow the action
	ErrForbidden = errors.New("you do not have permission to perform this action")
)

// defaultDetail is used when a validation error only carries field messages
const defaultDetail = "Invalid input."

// ValidationError is a client error with an optional message per field
type ValidationError struct {
	Detail string
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Detail
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return e.Detail + " " + strings.Join(parts, "; ")
}

// invalid builds a validation error without field details
func invalid(detail string) *ValidationError {
	return &ValidationError{Detail: detail}
}

// fieldError builds a validation error for a single field
func fieldError(field, message string) *ValidationError {
	return &ValidationError{Detail: message, Fields: map[string]string{field: message}}
}

// fromValidation converts validator output; it returns nil for no errors.
// The first message per field wins.
func fromValidation(errs []validation.ValidationError) error {
	if len(errs) == 0 {
		return nil
	}
	ve := &ValidationError{Detail: defaultDetail, Fields: make(map[string]string, len(errs))}
	for _, e := range errs {
		if _, ok := ve.Fields[e.Field]; !ok {
			ve.Fields[e.Field] = e.Message
		}
	}
	if len(errs) == 1 {
		ve.Detail = errs[0].Message
	}
	return ve
}

// merge adds the fields of other into e
func (e *ValidationError) merge(other *ValidationError) {
	if other == nil {
		return
	}
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	for k, v := range other.Fields {
		if _, ok := e.Fields[k]; !ok {
			e.Fields[k] = v
		}
	}
	if len(e.Fields) > 1 {
		e.Detail = defaultDetail
	}
}

// requireFields reports missing required fields of a full (PUT) update
func requireFields(present map[string]bool, fields ...string) error {
	var errs []validation.ValidationError
	for _, f := range fields {
		if !present[f] {
			errs = append(errs, validation.ValidationError{Field: f, Message: "This field is required."})
		}
	}
	return fromValidation(errs)
}

// conflictError maps unique violations onto field errors by constraint name
func conflictError(err error, fields map[string]string) error {
	if !errors.Is(err, repository.ErrConflict) {
		return err
	}
	for constraint, field := range fields {
		if strings.Contains(err.Error(), constraint) {
			return fieldError(field, fmt.Sprintf("A record with this %s already exists.", field))
		}
	}
	return invalid("A record with these values already exists.")
}

// missingRef is the field message for a foreign key that does not resolve
func missingRef(id int64) string {
	return fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", id)
}
