package bankerr

import (
	"errors"
	"fmt"
	"strings"
)

// Category classifies errors by their nature and appropriate handling strategy.
type Category int

const (
	// CategoryUser represents errors caused by invalid operator input.
	// Examples: non-positive amounts, unrecognized modes or kinds.
	// These errors are fixable by modifying the request.
	CategoryUser Category = iota

	// CategoryFunds represents business rejections of otherwise valid
	// requests, currently only insufficient funds under overdraft
	// protection. The account is left untouched.
	CategoryFunds

	// CategoryConcurrency represents conflicts with an in-flight
	// simulation run: mode switches or resets while tellers are still
	// executing. Retry once the run settles.
	CategoryConcurrency

	// CategorySystem represents unexpected internal failures.
	CategorySystem
)

// Error codes reported to callers. Lost updates are deliberately NOT an
// error code: the whole point of an unsafe run is that the inconsistency
// is silent and only visible in the run report.
const (
	CodeInsufficientFunds = "INSUFFICIENT_FUNDS"
	CodeInvalidAmount     = "INVALID_AMOUNT"
	CodeInvalidMode       = "INVALID_MODE"
	CodeInvalidKind       = "INVALID_KIND"
	CodeRunInFlight       = "RUN_IN_FLIGHT"
)

// BankError represents a structured error with rich context information.
type BankError struct {
	// Code is a unique identifier for this error type (e.g., "INSUFFICIENT_FUNDS").
	Code string

	// Category classifies the error for appropriate handling strategy.
	Category Category

	// Message is a human-readable description of what went wrong.
	Message string

	// Detail provides additional context about the specific error instance.
	// Example: "requested 100, observed balance 50".
	Detail string

	// Hint suggests how the caller might fix or work around this error.
	Hint string

	// Operation identifies the operation that was being performed.
	// Examples: "Execute", "Run", "Reset".
	Operation string

	// Component identifies the subsystem where the error originated.
	// Examples: "Executor", "Simulator", "Guard".
	Component string

	// Cause is the underlying error, if any, enabling error chaining.
	Cause error
}

// New creates a new BankError with the specified category, code, and message.
func New(category Category, code, message string) *BankError {
	return &BankError{
		Code:     code,
		Category: category,
		Message:  message,
	}
}

// Wrap wraps an existing error with bank-specific context information.
// If the error is already a BankError, it enriches the existing error with
// operation and component context (only if not already set).
func Wrap(err error, code, operation, component string) *BankError {
	if err == nil {
		return nil
	}

	var bankErr *BankError
	if errors.As(err, &bankErr) {
		if bankErr.Operation == "" {
			bankErr.Operation = operation
		}
		if bankErr.Component == "" {
			bankErr.Component = component
		}
		return bankErr
	}

	return &BankError{
		Code:      code,
		Category:  CategorySystem,
		Message:   err.Error(),
		Operation: operation,
		Component: component,
		Cause:     err,
	}
}

// Error implements the standard Go error interface.
//
// The format follows the pattern:
// [ERROR_CODE] Message: Detail (operation: Operation, component: Component) caused by: underlying error
func (e *BankError) Error() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("[%s] %s", e.Code, e.Message))

	if e.Detail != "" {
		b.WriteString(fmt.Sprintf(": %s", e.Detail))
	}

	if e.Operation != "" {
		b.WriteString(fmt.Sprintf(" (operation: %s", e.Operation))
		if e.Component != "" {
			b.WriteString(fmt.Sprintf(", component: %s", e.Component))
		}
		b.WriteString(")")
	}

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf(" caused by: %v", e.Cause))
	}

	return b.String()
}

// Unwrap returns the underlying cause error, enabling error chain traversal
// with Go's standard error handling functions like errors.Is and errors.As.
func (e *BankError) Unwrap() error {
	return e.Cause
}

// CodeOf extracts the error code from err, or empty string when err is not
// a BankError. Useful for transport layers mapping errors to status codes.
func CodeOf(err error) string {
	var bankErr *BankError
	if errors.As(err, &bankErr) {
		return bankErr.Code
	}
	return ""
}

// IsCode reports whether err carries the given error code.
func IsCode(err error, code string) bool {
	return CodeOf(err) == code
}
