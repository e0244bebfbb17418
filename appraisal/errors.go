/*
errors.go - Centralized error types for the scoring engine

PURPOSE:
  Every error the engine returns is declared here.
  The allocation package reuses ConfigurationError so a failed save reports
  the same shape whether it came from a master or a team budget.

ERROR CATEGORIES:
  1. Configuration errors - invariants violated at save time (fatal)
  2. Input validation errors - malformed payloads at an entry point (fatal)
  3. Lookup errors - referenced records that do not exist

  Per-item computation anomalies (non-numeric answers, missing reviewer
  scores) are NOT errors: they score as 0 and the computation continues.

USAGE:
  if err := master.Validate(); err != nil {
      var cfgErr *appraisal.ConfigurationError
      if errors.As(err, &cfgErr) {
          fmt.Println(cfgErr.Field, cfgErr.Total)
      }
  }

SEE ALSO:
  - master.go: Category weight validation
  - scale.go: Scale range validation
  - answer.go: Answer payload validation
*/
package appraisal

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidConfiguration is the root of every ConfigurationError.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrInvalidInput is the root of every InputValidationError.
	ErrInvalidInput = errors.New("invalid input")

	// ErrBudgetExceeded is returned when allocated weightage exceeds its budget.
	ErrBudgetExceeded = errors.New("weightage budget exceeded")

	// ErrTemplateNotFound is returned when a referenced template doesn't exist.
	ErrTemplateNotFound = errors.New("template not found")

	// ErrMasterNotFound is returned when a referenced master configuration doesn't exist.
	ErrMasterNotFound = errors.New("master configuration not found")

	// ErrEmployeeNotFound is returned when a referenced employee doesn't exist.
	ErrEmployeeNotFound = errors.New("employee not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ConfigurationError reports a violated configuration invariant.
// Total carries the offending sum when the invariant is about totals.
type ConfigurationError struct {
	Field   string
	Message string
	Total   *decimal.Decimal
	Limit   *decimal.Decimal
	cause   error
}

func (e *ConfigurationError) Error() string {
	msg := e.Message
	if e.Field != "" {
		msg = e.Field + ": " + msg
	}
	if e.Total != nil && e.Limit != nil {
		return fmt.Sprintf("%s (got %s, limit %s)", msg, e.Total.String(), e.Limit.String())
	}
	if e.Total != nil {
		return fmt.Sprintf("%s (got %s)", msg, e.Total.String())
	}
	return msg
}

// Unwrap lets errors.Is match both the root sentinel and a more specific cause.
func (e *ConfigurationError) Unwrap() []error {
	if e.cause != nil {
		return []error{ErrInvalidConfiguration, e.cause}
	}
	return []error{ErrInvalidConfiguration}
}

// NewConfigurationError builds a ConfigurationError without totals.
func NewConfigurationError(field, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// NewTotalError builds a ConfigurationError carrying the offending total.
func NewTotalError(field, message string, total decimal.Decimal) *ConfigurationError {
	return &ConfigurationError{Field: field, Message: message, Total: &total}
}

// NewBudgetError reports an allocation whose total exceeds its limit.
// It matches both ErrInvalidConfiguration and ErrBudgetExceeded.
func NewBudgetError(field string, total, limit decimal.Decimal) *ConfigurationError {
	return &ConfigurationError{
		Field:   field,
		Message: "allocated weightage exceeds available budget",
		Total:   &total,
		Limit:   &limit,
		cause:   ErrBudgetExceeded,
	}
}

// InputValidationError reports a malformed payload at an entry point.
type InputValidationError struct {
	Message string
	Err     error
}

func (e *InputValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *InputValidationError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrInvalidInput, e.Err}
	}
	return []error{ErrInvalidInput}
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsConfigurationError returns true if err is a configuration invariant violation.
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrInvalidConfiguration)
}

// IsInputError returns true if err is due to a malformed payload.
func IsInputError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrTemplateNotFound) ||
		errors.Is(err, ErrMasterNotFound) ||
		errors.Is(err, ErrEmployeeNotFound)
}
