// Package agent orchestrates one execution unit: it owns the state store,
// delegates computation to a sandbox collaborator, and wraps each successful
// result in an execution proof.
package agent

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/korralabs/korra/internal/logging"
	"github.com/korralabs/korra/pkg/adapters/process"
	"github.com/korralabs/korra/pkg/domain"
	"github.com/korralabs/korra/pkg/ports"
	"github.com/korralabs/korra/pkg/proof"
	"github.com/korralabs/korra/pkg/state"
)

// Agent is a single execution unit. It is the sole long-term owner of its
// state store; the sandbox holds a non-owning reference for the duration of
// one execution.
//
// Execute is not reentrant-safe: concurrent calls on the same Agent must be
// serialized by the caller. The single last-proof slot is overwritten
// non-atomically with respect to the proof computation.
type Agent struct {
	id        string
	agentType domain.AgentType
	config    map[string]string
	state     *state.Store
	sandbox   ports.Sandbox

	lastExecution *proof.ExecutionProof
	logger        *slog.Logger
}

// Option configures agent construction.
type Option func(*Agent)

// WithSandbox injects a sandbox collaborator, bypassing the default
// process-backed one built from the config.
func WithSandbox(sb ports.Sandbox) Option {
	return func(a *Agent) {
		a.sandbox = sb
	}
}

// WithLogger configures a logger for execution events.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Agent) {
		a.logger = logger
	}
}

// New constructs an agent. The type name is matched case-insensitively
// against the closed AgentType set. The config is a flat string map: the
// "id" key names the agent explicitly (a fresh UUID otherwise), sandbox keys
// such as "module_path" configure the default process sandbox, and all other
// keys pass through untouched.
//
// An unknown type or malformed config is an InitializationError; a failure
// to construct the sandbox is a SandboxError. No partial Agent is produced.
func New(agentType string, config map[string]string, opts ...Option) (*Agent, error) {
	typ, ok := domain.ParseAgentType(agentType)
	if !ok {
		return nil, &domain.InitializationError{Reason: "unsupported agent type " + agentType}
	}

	cfg := make(map[string]string, len(config))
	for k, v := range config {
		cfg[k] = v
	}

	id := cfg["id"]
	if id == "" {
		id = uuid.NewString()
	}

	a := &Agent{
		id:        id,
		agentType: typ,
		config:    cfg,
		state:     state.New(),
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.sandbox == nil {
		if _, ok := cfg["module_path"]; !ok {
			return nil, &domain.InitializationError{Reason: "missing module_path in config"}
		}
		sb, err := process.New(cfg)
		if err != nil {
			return nil, &domain.SandboxError{Reason: "constructing process sandbox", Err: err}
		}
		a.sandbox = sb
	}

	a.logger.Debug("agent created", "agent", a.id, "type", a.agentType)
	return a, nil
}

// Execute runs one computation through the sandbox. On success the result is
// wrapped in a fresh proof that replaces the retained one; on failure an
// ExecutionError propagates and the retained proof is left unchanged.
func (a *Agent) Execute(ctx context.Context, input []byte) ([]byte, error) {
	ec := ports.ExecutionContext{
		AgentID:   a.id,
		AgentType: a.agentType,
		Input:     input,
		State:     a.state,
	}

	output, err := a.sandbox.Execute(ctx, ec)
	if err != nil {
		a.logger.Debug("execution failed", "agent", a.id, "err", err)
		return nil, &domain.ExecutionError{AgentID: a.id, Err: err}
	}

	p := proof.New(a.id, input, output)
	a.lastExecution = p
	a.logger.Debug("execution complete",
		"agent", a.id,
		"input_bytes", len(input),
		"output_bytes", len(output),
		"proof", p.ProofHash,
	)
	return output, nil
}

// ID returns the agent identifier.
func (a *Agent) ID() string {
	return a.id
}

// Type returns the agent's type.
func (a *Agent) Type() domain.AgentType {
	return a.agentType
}

// Config returns a copy of the agent configuration.
func (a *Agent) Config() map[string]string {
	out := make(map[string]string, len(a.config))
	for k, v := range a.config {
		out[k] = v
	}
	return out
}

// State returns the agent's state store.
func (a *Agent) State() *state.Store {
	return a.state
}

// LastProof returns the proof of the most recent successful execution, or
// nil when none has completed yet.
func (a *Agent) LastProof() *proof.ExecutionProof {
	return a.lastExecution
}
