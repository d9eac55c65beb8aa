package domain

import "fmt"

// Error types for consistent error handling across the agent.

// ErrNotFound indicates a ledger record was not found.
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrValidation indicates a validation error (bad input).
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error on '%s': %s", e.Field, e.Message)
}

// ErrIntentParse indicates the model reply was not valid intent JSON.
type ErrIntentParse struct {
	Raw    string
	Reason string
}

func (e *ErrIntentParse) Error() string {
	return fmt.Sprintf("intent parse failed: %s", e.Reason)
}

// ErrAgentUnavailable indicates a transport failure or timeout talking to
// the language-model service. Terminal for the single request; never retried.
type ErrAgentUnavailable struct {
	Err error
}

func (e *ErrAgentUnavailable) Error() string {
	return fmt.Sprintf("agent unavailable: %v", e.Err)
}

func (e *ErrAgentUnavailable) Unwrap() error {
	return e.Err
}

// ErrCircuitOpen indicates the circuit breaker is open.
type ErrCircuitOpen struct {
	Service string
}

func (e *ErrCircuitOpen) Error() string {
	return fmt.Sprintf("circuit breaker open for service: %s", e.Service)
}

// ErrTimeout indicates an operation exceeded its deadline.
type ErrTimeout struct {
	Operation string
}

func (e *ErrTimeout) Error() string {
	return fmt.Sprintf("operation timed out: %s", e.Operation)
}
