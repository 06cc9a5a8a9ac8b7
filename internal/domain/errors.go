package domain

import "fmt"

// Error types for consistent error handling across the gateway.

// ErrInvalidFormat indicates a CNAB document that does not match the
// expected layout (bad batch-number columns, empty branch code, etc.).
type ErrInvalidFormat struct {
	Reason string
}

func (e *ErrInvalidFormat) Error() string {
	return fmt.Sprintf("invalid CNAB format: %s", e.Reason)
}

// ErrFieldOverflow indicates a value wider than its fixed column.
// Raised at encode time when the overflow policy is set to reject.
type ErrFieldOverflow struct {
	Field string
	Width int
	Value string
}

func (e *ErrFieldOverflow) Error() string {
	return fmt.Sprintf("field %q overflows %d columns: %q", e.Field, e.Width, e.Value)
}

// ErrValidation indicates a validation error (bad input).
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error on '%s': %s", e.Field, e.Message)
}

// ErrUnauthorized indicates a failed signature or credential check.
type ErrUnauthorized struct {
	Message string
}

func (e *ErrUnauthorized) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "unauthorized"
}

// ErrConfiguration indicates a missing or invalid server-side setting.
// Requests hitting this must fail closed, never open.
type ErrConfiguration struct {
	Setting string
}

func (e *ErrConfiguration) Error() string {
	return fmt.Sprintf("missing %s", e.Setting)
}

// ErrNotFound indicates a resource was not found.
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrExternalService indicates a failure in an external service call.
type ErrExternalService struct {
	Service string
	Err     error
}

func (e *ErrExternalService) Error() string {
	return fmt.Sprintf("external service error [%s]: %v", e.Service, e.Err)
}

func (e *ErrExternalService) Unwrap() error {
	return e.Err
}

// ErrTimeout indicates an operation exceeded its deadline.
type ErrTimeout struct {
	Operation string
}

func (e *ErrTimeout) Error() string {
	return fmt.Sprintf("operation timed out: %s", e.Operation)
}

// ErrCircuitOpen indicates the circuit breaker is open.
type ErrCircuitOpen struct {
	Service string
}

func (e *ErrCircuitOpen) Error() string {
	return fmt.Sprintf("circuit breaker open for service: %s", e.Service)
}
