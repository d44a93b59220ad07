package ports

import (
	"context"
	"time"

	"github.com/korralabs/korra/pkg/domain"
	"github.com/korralabs/korra/pkg/state"
)

// ExecutionContext carries everything a sandbox needs for one execution. The
// State reference is non-owning and only valid for the duration of the call.
type ExecutionContext struct {
	AgentID   string
	AgentType domain.AgentType
	Input     []byte
	State     *state.Store
}

// Sandbox is the isolated-execution collaborator. Implementations must
// either return within the bound advertised by Timeout or fail with a
// timeout-flavored error; the core does not cancel an in-flight call.
//
// For cross-node consensus to be meaningful, the output must be a
// deterministic function of the agent type, the input, and the state content
// actually read. A sandbox may lock the execution context's state store
// transiently but must never call back into Agent.Execute while holding it.
type Sandbox interface {
	Execute(ctx context.Context, ec ExecutionContext) ([]byte, error)
	Timeout() time.Duration
}
