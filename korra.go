package korra

import (
	"log/slog"
	"net/http"

	httpadapter "github.com/korralabs/korra/internal/adapters/http"
	"github.com/korralabs/korra/internal/logging"
	"github.com/korralabs/korra/internal/observability"
	"github.com/korralabs/korra/pkg/agent"
	"github.com/korralabs/korra/pkg/consensus"
	"github.com/korralabs/korra/pkg/ports"
)

// Version is the current release of the korra module.
const Version = "0.3.1"

// NewAgent constructs an execution agent. See agent.New for the
// configuration contract.
func NewAgent(agentType string, config map[string]string, opts ...agent.Option) (*agent.Agent, error) {
	return agent.New(agentType, config, opts...)
}

// NewValidator constructs a bare consensus validator with the given required
// ratio (clamped to [0, 1]).
func NewValidator(required float64, opts ...consensus.Option) *consensus.Validator {
	return consensus.NewValidator(required, opts...)
}

// Node is one assembled validator node: the consensus core plus its optional
// audit archive and metrics, exposed over HTTP.
type Node struct {
	Validator *consensus.Validator

	archive ports.ProofArchive
	metrics *observability.Metrics
	logger  *slog.Logger
}

type nodeConfig struct {
	roster  map[string]float64
	archive ports.ProofArchive
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NodeOption configures an assembled node.
type NodeOption func(*nodeConfig)

// WithRoster seeds the initial node weights.
func WithRoster(weights map[string]float64) NodeOption {
	return func(c *nodeConfig) {
		c.roster = weights
	}
}

// WithProofArchive attaches an audit trail for accepted submissions.
func WithProofArchive(archive ports.ProofArchive) NodeOption {
	return func(c *nodeConfig) {
		c.archive = archive
	}
}

// WithMetrics enables Prometheus instrumentation and the /metrics endpoint.
func WithMetrics() NodeOption {
	return func(c *nodeConfig) {
		c.metrics = observability.New()
	}
}

// WithLogger configures the node's logger.
func WithLogger(logger *slog.Logger) NodeOption {
	return func(c *nodeConfig) {
		c.logger = logger
	}
}

// NewNode assembles a validator node.
func NewNode(required float64, opts ...NodeOption) *Node {
	cfg := nodeConfig{logger: logging.NewNop()}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	v := consensus.NewValidator(required, consensus.WithLogger(cfg.logger))
	for id, w := range cfg.roster {
		v.AddNode(id, w)
	}

	return &Node{
		Validator: v,
		archive:   cfg.archive,
		metrics:   cfg.metrics,
		logger:    cfg.logger,
	}
}

// Handler returns the node's HTTP surface.
func (n *Node) Handler() http.Handler {
	serverOpts := []httpadapter.Option{httpadapter.WithLogger(n.logger)}
	if n.archive != nil {
		serverOpts = append(serverOpts, httpadapter.WithArchive(n.archive))
	}
	if n.metrics != nil {
		serverOpts = append(serverOpts, httpadapter.WithMetrics(n.metrics))
	}
	return httpadapter.NewHandler(n.Validator, serverOpts...)
}
