package consensus

import (
	"log/slog"
	"sync"
	"time"

	"github.com/korralabs/korra/internal/logging"
	"github.com/korralabs/korra/pkg/proof"
)

// Verdict is the outcome of a consensus check. Verdicts are first-class
// results, not errors.
type Verdict string

const (
	// Valid means the winning proof group's weight share met the threshold.
	Valid Verdict = "valid"
	// Invalid means proofs exist but none of their submitters carry positive
	// current weight.
	Invalid Verdict = "invalid"
	// Uncertain means there is no usable signal: no proofs, no rostered
	// weight, or a winning share strictly between zero and the threshold.
	Uncertain Verdict = "uncertain"
)

// Node is a weighted roster entry.
type Node struct {
	ID       string
	Weight   float64
	LastSeen uint64
}

// Report carries the arithmetic behind a verdict, letting callers tell
// "no data" (Count == 0) from "disputed data" (Count > 0, low Ratio).
type Report struct {
	Verdict     Verdict
	Ratio       float64
	WinningHash string
	Count       int
}

// Validator holds the node roster and the per-agent proof sets. A single
// coarse lock guards every operation; none of the internal computations are
// lock-free.
type Validator struct {
	mu        sync.Mutex
	nodes     map[string]*Node
	proofs    map[string]map[string]*proof.ExecutionProof
	threshold float64

	logger *slog.Logger
	now    func() uint64
}

// Option configures a Validator.
type Option func(*Validator)

// WithLogger configures a logger for roster and submission events.
func WithLogger(logger *slog.Logger) Option {
	return func(v *Validator) {
		v.logger = logger
	}
}

// withClock injects a timestamp source for tests.
func withClock(now func() uint64) Option {
	return func(v *Validator) {
		v.now = now
	}
}

// NewValidator creates a validator requiring the given consensus ratio.
// The ratio is clamped to [0, 1].
func NewValidator(required float64, opts ...Option) *Validator {
	v := &Validator{
		nodes:     make(map[string]*Node),
		proofs:    make(map[string]map[string]*proof.ExecutionProof),
		threshold: clamp(required),
		logger:    logging.NewNop(),
		now:       func() uint64 { return uint64(time.Now().Unix()) },
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// AddNode inserts or replaces a roster entry. Negative weights are clamped
// to zero.
func (v *Validator) AddNode(nodeID string, weight float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if weight < 0 {
		weight = 0
	}
	v.nodes[nodeID] = &Node{ID: nodeID, Weight: weight, LastSeen: v.now()}
	v.logger.Debug("node added", "node", nodeID, "weight", weight)
}

// RemoveNode drops a node from the roster and reports whether it existed.
// Proofs the node already submitted stay in the proof sets; their weight
// contribution in later Validate calls is simply zero.
func (v *Validator) RemoveNode(nodeID string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	_, ok := v.nodes[nodeID]
	delete(v.nodes, nodeID)
	if ok {
		v.logger.Debug("node removed", "node", nodeID)
	}
	return ok
}

// Nodes returns a copy of the current roster.
func (v *Validator) Nodes() []Node {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]Node, 0, len(v.nodes))
	for _, n := range v.nodes {
		out = append(out, *n)
	}
	return out
}

// AddProof stores or overwrites the proof submitted by nodeID for the
// proof's agent, refreshing the node's liveness timestamp. Submissions from
// nodes not currently rostered are rejected and return false. Each node
// holds at most one live proof per agent; there is no history.
func (v *Validator) AddProof(nodeID string, p *proof.ExecutionProof) bool {
	if p == nil {
		return false
	}
	v.mu.Lock()
	defer v.mu.Unlock()

	node, ok := v.nodes[nodeID]
	if !ok {
		v.logger.Debug("proof rejected from unknown node", "node", nodeID, "agent", p.AgentID)
		return false
	}
	node.LastSeen = v.now()

	agentProofs, ok := v.proofs[p.AgentID]
	if !ok {
		agentProofs = make(map[string]*proof.ExecutionProof)
		v.proofs[p.AgentID] = agentProofs
	}
	agentProofs[nodeID] = p
	v.logger.Debug("proof accepted", "node", nodeID, "agent", p.AgentID, "hash", p.ProofHash)
	return true
}

// Threshold returns the required consensus ratio.
func (v *Validator) Threshold() float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.threshold
}

// SetThreshold updates the required consensus ratio, clamped to [0, 1].
func (v *Validator) SetThreshold(required float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.threshold = clamp(required)
}

// Validate aggregates all proofs received for agentID into a trust verdict.
func (v *Validator) Validate(agentID string) Verdict {
	return v.Report(agentID).Verdict
}

// Report runs the same aggregation as Validate and additionally returns the
// winning ratio, winning hash, and number of proofs considered.
func (v *Validator) Report(agentID string) Report {
	v.mu.Lock()
	defer v.mu.Unlock()

	agentProofs := v.proofs[agentID]
	if len(agentProofs) == 0 {
		return Report{Verdict: Uncertain}
	}

	var totalWeight float64
	for _, n := range v.nodes {
		totalWeight += n.Weight
	}
	if totalWeight == 0 {
		return Report{Verdict: Uncertain, Count: len(agentProofs)}
	}

	// Group submissions by exact proof hash, summing each submitter's
	// current roster weight. Submitters removed since then contribute zero.
	groupWeight := make(map[string]float64)
	for nodeID, p := range agentProofs {
		w := 0.0
		if n, ok := v.nodes[nodeID]; ok {
			w = n.Weight
		}
		groupWeight[p.ProofHash] += w
	}

	// Winning group; equal weights break toward the lexicographically
	// smallest hash so the outcome never depends on map iteration order.
	var maxWeight float64
	var maxHash string
	for hash, w := range groupWeight {
		if w > maxWeight || (w == maxWeight && (maxHash == "" || hash < maxHash)) {
			maxWeight = w
			maxHash = hash
		}
	}

	rep := Report{
		Ratio:       maxWeight / totalWeight,
		WinningHash: maxHash,
		Count:       len(agentProofs),
	}
	switch {
	case rep.Ratio >= v.threshold:
		rep.Verdict = Valid
	case rep.Ratio > 0:
		rep.Verdict = Uncertain
	default:
		rep.Verdict = Invalid
	}
	return rep
}

func clamp(f float64) float64 {
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	default:
		return f
	}
}
