// Package handle wraps an agent behind an opaque owning handle with three
// operations: open, execute, close. It is the surface consumed by embedders
// that cannot hold the Agent type directly; lifetime is explicit and no
// raw-address bookkeeping is involved.
package handle

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/korralabs/korra/pkg/agent"
	"github.com/korralabs/korra/pkg/domain"
	"github.com/korralabs/korra/pkg/proof"
)

// Handle owns one agent. A closed handle rejects every further operation
// with domain.ErrHandleClosed; it never crashes.
type Handle struct {
	mu     sync.Mutex
	agent  *agent.Agent
	closed bool
}

// Open parses configJSON as a flat string-to-string object and constructs an
// owned agent of the given type. The configuration contract matches
// agent.New; construction failures pass through unchanged.
func Open(agentType string, configJSON []byte, opts ...agent.Option) (*Handle, error) {
	config := map[string]string{}
	if len(configJSON) > 0 {
		if err := json.Unmarshal(configJSON, &config); err != nil {
			return nil, &domain.InitializationError{Reason: "invalid config JSON", Err: err}
		}
	}

	a, err := agent.New(agentType, config, opts...)
	if err != nil {
		return nil, err
	}
	return &Handle{agent: a}, nil
}

// Execute borrows the handle for one execution. Calls are serialized, which
// also covers the agent's non-reentrancy requirement.
func (h *Handle) Execute(ctx context.Context, input []byte) ([]byte, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, domain.ErrHandleClosed
	}
	return h.agent.Execute(ctx, input)
}

// LastProof returns the owned agent's retained proof.
func (h *Handle) LastProof() (*proof.ExecutionProof, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, domain.ErrHandleClosed
	}
	return h.agent.LastProof(), nil
}

// ID returns the owned agent's identifier, or empty once closed.
func (h *Handle) ID() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ""
	}
	return h.agent.ID()
}

// Close releases the agent. Closing twice is a typed error, not a fault.
func (h *Handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return domain.ErrHandleClosed
	}
	h.closed = true
	h.agent = nil
	return nil
}
