package serrors

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// BaseError is the structured error carried across service boundaries.
// Code is a stable machine-readable identifier; Details hold optional
// template data surfaced to API clients.
type BaseError struct {
	Code    string
	Message string
	Details map[string]string
}

func NewError(code, message string) *BaseError {
	return &BaseError{
		Code:    code,
		Message: message,
	}
}

func (e *BaseError) Error() string {
	return e.Message
}

func (e *BaseError) WithDetails(details map[string]string) *BaseError {
	e.Details = details
	return e
}

// ValidationErrors maps a field name to its validation failure.
type ValidationErrors map[string]*BaseError

func NewFieldRequiredError(field string) *BaseError {
	return NewError("FIELD_REQUIRED", fmt.Sprintf("%s is required", field)).
		WithDetails(map[string]string{"field": field})
}

func NewInvalidFieldError(field, reason string) *BaseError {
	return NewError("FIELD_INVALID", fmt.Sprintf("%s is invalid: %s", field, reason)).
		WithDetails(map[string]string{"field": field})
}

// ProcessValidatorErrors converts go-playground validator failures into the
// structured form used by API responses.
func ProcessValidatorErrors(errs validator.ValidationErrors) ValidationErrors {
	out := make(ValidationErrors, len(errs))
	for _, err := range errs {
		field := err.Field()
		switch err.Tag() {
		case "required":
			out[field] = NewFieldRequiredError(field)
		default:
			out[field] = NewInvalidFieldError(field, err.Tag())
		}
	}
	return out
}

// MapValidationErrors flattens ValidationErrors into field -> message pairs.
func MapValidationErrors(errs ValidationErrors) map[string]string {
	out := make(map[string]string, len(errs))
	for field, err := range errs {
		out[field] = err.Message
	}
	return out
}
