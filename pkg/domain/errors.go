package domain

import (
	"errors"
	"fmt"
)

// ErrMalformedProof is returned when proof deserialization fails for any
// reason: missing field, wrong type, or invalid JSON. Callers get a single
// uniform failure, never a partial proof.
var ErrMalformedProof = errors.New("malformed execution proof")

// ErrHandleClosed is returned when an embeddable handle is used after Close.
var ErrHandleClosed = errors.New("agent handle is closed")

// InitializationError indicates agent construction failed before any agent
// was produced: unknown agent type, malformed config, or a missing required
// sandbox parameter.
type InitializationError struct {
	Reason string
	Err    error
}

func (e *InitializationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("agent initialization: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("agent initialization: %s", e.Reason)
}

func (e *InitializationError) Unwrap() error { return e.Err }

// SandboxError indicates the sandbox collaborator failed to construct or
// execute. The agent itself remains usable afterwards.
type SandboxError struct {
	Reason string
	Err    error
}

func (e *SandboxError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("sandbox: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("sandbox: %s", e.Reason)
}

func (e *SandboxError) Unwrap() error { return e.Err }

// ExecutionError wraps a failure during Agent.Execute. The agent's last
// retained proof is left unchanged.
type ExecutionError struct {
	AgentID string
	Err     error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("agent %s execution: %v", e.AgentID, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// StateError indicates a faulted access to the shared state store. It is
// surfaced to the immediate caller rather than aborting the process.
type StateError struct {
	Op  string
	Err error
}

func (e *StateError) Error() string {
	return fmt.Sprintf("state %s: %v", e.Op, e.Err)
}

func (e *StateError) Unwrap() error { return e.Err }
