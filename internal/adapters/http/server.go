// Package http exposes a validator node over a JSON HTTP API: roster
// management, proof ingestion, and consensus queries. It is an ingestion and
// query surface only; no inter-validator transport lives here.
package http

import (
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/korralabs/korra/internal/logging"
	"github.com/korralabs/korra/internal/observability"
	"github.com/korralabs/korra/pkg/agent"
	"github.com/korralabs/korra/pkg/consensus"
	"github.com/korralabs/korra/pkg/ports"
	"github.com/korralabs/korra/pkg/proof"
)

// hostedAgent serializes executions of one agent; Agent.Execute is not
// reentrant-safe.
type hostedAgent struct {
	mu sync.Mutex
	ag *agent.Agent
}

// Server wires a consensus validator to HTTP.
type Server struct {
	validator *consensus.Validator
	archive   ports.ProofArchive
	metrics   *observability.Metrics
	agents    map[string]*hostedAgent
	logger    *slog.Logger
}

// Option configures the server.
type Option func(*Server)

// WithArchive enables the proof audit trail endpoints.
func WithArchive(archive ports.ProofArchive) Option {
	return func(s *Server) {
		s.archive = archive
	}
}

// WithMetrics enables the /metrics endpoint and instrument updates.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithAgents hosts locally-runnable agents under /run/{name}/execute. The
// server serializes executions per agent.
func WithAgents(agents map[string]*agent.Agent) Option {
	return func(s *Server) {
		s.agents = make(map[string]*hostedAgent, len(agents))
		for name, ag := range agents {
			s.agents[name] = &hostedAgent{ag: ag}
		}
	}
}

// WithLogger configures request logging.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewHandler creates the HTTP handler for a validator node.
func NewHandler(validator *consensus.Validator, opts ...Option) http.Handler {
	s := &Server{
		validator: validator,
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Get("/healthz", s.healthz)
	r.Put("/nodes/{nodeID}", s.putNode)
	r.Delete("/nodes/{nodeID}", s.deleteNode)
	r.Get("/nodes", s.listNodes)
	r.Post("/proofs/{nodeID}", s.postProof)
	r.Get("/agents/{agentID}/consensus", s.getConsensus)
	if s.archive != nil {
		r.Get("/agents/{agentID}/proofs", s.getArchivedProofs)
	}
	if len(s.agents) > 0 {
		r.Post("/run/{name}/execute", s.executeAgent)
	}
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}
	return r
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type nodeRequest struct {
	Weight float64 `json:"weight"`
}

type nodeResponse struct {
	ID       string  `json:"id"`
	Weight   float64 `json:"weight"`
	LastSeen uint64  `json:"last_seen"`
}

func (s *Server) putNode(w http.ResponseWriter, r *http.Request) {
	nodeID := chi.URLParam(r, "nodeID")

	var body nodeRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	s.validator.AddNode(nodeID, body.Weight)
	s.logger.Info("node rostered", "node", nodeID, "weight", body.Weight)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) deleteNode(w http.ResponseWriter, r *http.Request) {
	nodeID := chi.URLParam(r, "nodeID")

	if !s.validator.RemoveNode(nodeID) {
		http.Error(w, "Unknown node", http.StatusNotFound)
		return
	}
	s.logger.Info("node removed", "node", nodeID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listNodes(w http.ResponseWriter, r *http.Request) {
	nodes := s.validator.Nodes()
	out := make([]nodeResponse, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, nodeResponse{ID: n.ID, Weight: n.Weight, LastSeen: n.LastSeen})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) postProof(w http.ResponseWriter, r *http.Request) {
	nodeID := chi.URLParam(r, "nodeID")

	var body json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	p, err := proof.FromJSON(body)
	if err != nil {
		s.countSubmission("rejected")
		http.Error(w, "Malformed proof", http.StatusBadRequest)
		return
	}

	if !s.validator.AddProof(nodeID, p) {
		s.countSubmission("rejected")
		http.Error(w, "Unknown node", http.StatusNotFound)
		return
	}
	s.countSubmission("accepted")

	if s.archive != nil {
		// Audit trail is best-effort; the submission already counted.
		if err := s.archive.Append(r.Context(), nodeID, p); err != nil {
			s.logger.Warn("failed to archive proof", "node", nodeID, "agent", p.AgentID, "err", err)
		}
	}

	w.WriteHeader(http.StatusAccepted)
}

type consensusResponse struct {
	AgentID     string  `json:"agent_id"`
	Verdict     string  `json:"verdict"`
	Ratio       float64 `json:"ratio"`
	WinningHash string  `json:"winning_hash,omitempty"`
	Proofs      int     `json:"proofs"`
}

func (s *Server) getConsensus(w http.ResponseWriter, r *http.Request) {
	agentID := chi.URLParam(r, "agentID")

	rep := s.validator.Report(agentID)
	if s.metrics != nil {
		s.metrics.Validations.WithLabelValues(string(rep.Verdict)).Inc()
	}

	writeJSON(w, http.StatusOK, consensusResponse{
		AgentID:     agentID,
		Verdict:     string(rep.Verdict),
		Ratio:       rep.Ratio,
		WinningHash: rep.WinningHash,
		Proofs:      rep.Count,
	})
}

func (s *Server) getArchivedProofs(w http.ResponseWriter, r *http.Request) {
	agentID := chi.URLParam(r, "agentID")

	limit := 20
	if q := r.URL.Query().Get("limit"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n < 1 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	entries, err := s.archive.Recent(r.Context(), agentID, limit)
	if err != nil {
		s.logger.Error("failed to read proof archive", "agent", agentID, "err", err)
		http.Error(w, "Archive unavailable", http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []ports.ArchivedProof{}
	}
	writeJSON(w, http.StatusOK, entries)
}

type executeResponse struct {
	AgentID string                `json:"agent_id"`
	Output  string                `json:"output"` // standard base64
	Proof   *proof.ExecutionProof `json:"proof"`
}

// executeAgent runs a hosted agent on the raw request body and returns the
// output alongside its execution proof.
func (s *Server) executeAgent(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	hosted, ok := s.agents[name]
	if !ok {
		http.Error(w, "Unknown agent", http.StatusNotFound)
		return
	}

	input, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	hosted.mu.Lock()
	start := time.Now()
	output, err := hosted.ag.Execute(r.Context(), input)
	elapsed := time.Since(start)
	p := hosted.ag.LastProof()
	hosted.mu.Unlock()

	if s.metrics != nil {
		s.metrics.ExecutionDuration.WithLabelValues(hosted.ag.Type().String()).Observe(elapsed.Seconds())
	}
	if err != nil {
		s.logger.Error("hosted execution failed", "agent", name, "err", err)
		http.Error(w, "Execution failed", http.StatusBadGateway)
		return
	}

	writeJSON(w, http.StatusOK, executeResponse{
		AgentID: hosted.ag.ID(),
		Output:  base64.StdEncoding.EncodeToString(output),
		Proof:   p,
	})
}

func (s *Server) countSubmission(result string) {
	if s.metrics != nil {
		s.metrics.ProofSubmissions.WithLabelValues(result).Inc()
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Headers are gone; nothing left to do but note it.
		slog.Debug("response encode failed", "err", err)
	}
}
