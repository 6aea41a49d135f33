package planner

import (
	"errors"
	"fmt"
	"strings"
)

// ErrSnapshotNotFound is returned by restore/backtrack when the requested
// snapshot id is absent. It fails only the specific backtrack request.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// MissingPreferenceError suspends planning and sends the conversation back
// to preference collection. It is recoverable, not fatal.
type MissingPreferenceError struct {
	Missing []string
}

func (e *MissingPreferenceError) Error() string {
	return fmt.Sprintf("missing required preferences: %s", strings.Join(e.Missing, ", "))
}

// AgentError is a category-scoped search failure. It is recorded in the
// session's agent status map and never fails the whole run.
type AgentError struct {
	Category Category
	Err      error
}

func (e *AgentError) Error() string {
	return fmt.Sprintf("%s agent: %v", e.Category, e.Err)
}

func (e *AgentError) Unwrap() error { return e.Err }

// CartValidationError blocks the transition to booking and is surfaced to
// the caller in the run result.
type CartValidationError struct {
	Issues []string
}

func (e *CartValidationError) Error() string {
	return fmt.Sprintf("cart validation failed: %s", strings.Join(e.Issues, ", "))
}

// SafetyCheckpointError blocks level-4 auto-booking until the user
// approves manually. It is never raised at levels 1-3.
type SafetyCheckpointError struct {
	Issues []string
}

func (e *SafetyCheckpointError) Error() string {
	return fmt.Sprintf("safety checkpoint failed: %s", strings.Join(e.Issues, ", "))
}

// BookingLayerError drives escalation inside the booking engine. It is not
// surfaced to the caller until every layer has been exhausted.
type BookingLayerError struct {
	Method BookingMethod
	Err    error
}

func (e *BookingLayerError) Error() string {
	return fmt.Sprintf("booking via %s: %v", e.Method, e.Err)
}

func (e *BookingLayerError) Unwrap() error { return e.Err }
