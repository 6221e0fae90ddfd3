package model

import (
	"errors"
	"fmt"

	"github.com/nagyist/d2/pkg/api"
)

var (
	ErrValueRequired      = errors.New("Value should be provided")
	ErrPluralRequired     = errors.New("Plural should be provided")
	ErrSchemaRequired     = errors.New("Schema should be provided")
	ErrIdentifierRequired = errors.New("Identifier should be provided")
	ErrModelRequired      = errors.New("Model should be provided")
	ErrMissingHref        = errors.New("model has no href")
	ErrReadOnlyProperty   = errors.New("property is read only")
	ErrUnknownProperty    = errors.New("unknown property")
	ErrModelExists        = errors.New("already exists")
	ErrNoPage             = errors.New("no such page")
)

// TypeMappingError is returned when a schema declares a property type the type
// registry has no mapping for.
type TypeMappingError struct {
	Property string
	Type     string
}

func (e *TypeMappingError) Error() string {
	return fmt.Sprintf("Type from schema %q not found available type list.", e.Type)
}

// RequestError is a failed call to the server. Its message is the one the server
// sent, the cause stays reachable through errors.As/Is.
type RequestError struct {
	Message string
	Err     error
}

func (e *RequestError) Error() string {
	return e.Message
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

func toRequestError(err error) error {
	if err == nil {
		return nil
	}

	var respErr *api.ResponseError
	if errors.As(err, &respErr) {
		return &RequestError{Message: respErr.Message, Err: err}
	}

	return &RequestError{Message: err.Error(), Err: err}
}

// ValidationError describes one field that does not satisfy its validation record.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}
