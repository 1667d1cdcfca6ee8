package core

import (
	"errors"
	"fmt"
)

// ErrValidation matches every *ValidationError through errors.Is.
var ErrValidation = errors.New("validation failed")

var (
	ErrEmptyDescription = errors.New("description is required")
	ErrInvalidAmount    = errors.New("amount must be greater than 0")
	ErrNegativeAmount   = errors.New("amount cannot be negative")
	ErrMissingType      = errors.New("transaction type is required")
	ErrInvalidType      = errors.New("transaction type must be income or expense")
	ErrEmptyCategory    = errors.New("category is required")
	ErrMissingDate      = errors.New("date is required")
	ErrInvalidDay       = errors.New("invalid day")
	ErrInvalidMonth     = errors.New("invalid month")
	ErrEmptyName        = errors.New("name is required")
	ErrInvalidRange     = errors.New("end date must be after start date")
	ErrInvalidThreshold = errors.New("alert threshold must be between 0 and 100")
	ErrInvalidPeriod    = errors.New("period must be weekly, monthly or yearly")
	ErrInvalidPriority  = errors.New("priority must be low, medium or high")
	ErrTargetDateInPast = errors.New("target date must be in the future")
	ErrEmptyCurrency    = errors.New("currency is required")
	ErrInvalidTheme     = errors.New("theme must be light or dark")
	ErrInvalidPageSize  = errors.New("items per page must be at least 1")
)

// ValidationError reports which field of a record was rejected.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func invalid(field string, err error) error {
	return &ValidationError{Field: field, Err: err}
}
