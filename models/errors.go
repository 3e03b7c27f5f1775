package models

import (
	"errors"
	"fmt"
)

// ErrorKind is the stable error identifier returned to API clients.
type ErrorKind string

const (
	KindValidation ErrorKind = "validation"
	KindNotFound   ErrorKind = "not_found"
	KindForbidden  ErrorKind = "forbidden"
	KindConflict   ErrorKind = "conflict"
	KindDependency ErrorKind = "dependency"
)

type ErrorValidation struct {
	Field   string
	Message string
}

func NewValidationError(field, message string) error {
	return &ErrorValidation{Field: field, Message: message}
}

func (e *ErrorValidation) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

type ErrorNotFound struct {
	Resource string
	ID       any
}

func NewNotFoundError(resource string, id any) error {
	return &ErrorNotFound{Resource: resource, ID: id}
}

func (e *ErrorNotFound) Error() string {
	return fmt.Sprintf("%s %v not found", e.Resource, e.ID)
}

type ErrorForbidden struct {
	Message string
}

func NewForbiddenError(message string) error {
	return &ErrorForbidden{Message: message}
}

func (e *ErrorForbidden) Error() string {
	return e.Message
}

type ErrorConflict struct {
	Message string
}

func NewConflictError(format string, args ...any) error {
	return &ErrorConflict{Message: fmt.Sprintf(format, args...)}
}

func (e *ErrorConflict) Error() string {
	return e.Message
}

// ErrorDependency wraps a failure of the store, blob store or another collaborator.
type ErrorDependency struct {
	Op  string
	Err error
}

func NewDependencyError(op string, err error) error {
	return &ErrorDependency{Op: op, Err: err}
}

func (e *ErrorDependency) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ErrorDependency) Unwrap() error {
	return e.Err
}

// KindOf classifies err. Untyped errors are treated as dependency failures.
func KindOf(err error) ErrorKind {
	var (
		validation *ErrorValidation
		notFound   *ErrorNotFound
		forbidden  *ErrorForbidden
		conflict   *ErrorConflict
	)
	switch {
	case errors.As(err, &validation):
		return KindValidation
	case errors.As(err, &notFound):
		return KindNotFound
	case errors.As(err, &forbidden):
		return KindForbidden
	case errors.As(err, &conflict):
		return KindConflict
	default:
		return KindDependency
	}
}
