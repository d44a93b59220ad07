package http_test

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	httpadapter "github.com/korralabs/korra/internal/adapters/http"
	redisarchive "github.com/korralabs/korra/internal/adapters/redis"
	"github.com/korralabs/korra/internal/observability"
	"github.com/korralabs/korra/pkg/adapters/local"
	"github.com/korralabs/korra/pkg/agent"
	"github.com/korralabs/korra/pkg/consensus"
	"github.com/korralabs/korra/pkg/proof"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func doJSON(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestServer_Healthz(t *testing.T) {
	h := httpadapter.NewHandler(consensus.NewValidator(0.66))

	rec := doJSON(t, h, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_RosterLifecycle(t *testing.T) {
	v := consensus.NewValidator(0.66)
	h := httpadapter.NewHandler(v)

	rec := doJSON(t, h, http.MethodPut, "/nodes/A", map[string]float64{"weight": 2})
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/nodes", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var nodes []struct {
		ID     string  `json:"id"`
		Weight float64 `json:"weight"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &nodes))
	require.Len(t, nodes, 1)
	assert.Equal(t, "A", nodes[0].ID)
	assert.Equal(t, 2.0, nodes[0].Weight)

	rec = doJSON(t, h, http.MethodDelete, "/nodes/A", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, h, http.MethodDelete, "/nodes/A", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_ProofSubmissionAndConsensus(t *testing.T) {
	v := consensus.NewValidator(0.66)
	v.AddNode("A", 1)
	v.AddNode("B", 1)
	v.AddNode("C", 1)
	h := httpadapter.NewHandler(v)

	agreed := proof.At("agent-1", 100, []byte("in"), []byte("out"))
	dissent := proof.At("agent-1", 100, []byte("in"), []byte("other"))

	for _, node := range []string{"A", "B"} {
		rec := doJSON(t, h, http.MethodPost, "/proofs/"+node, agreed)
		assert.Equal(t, http.StatusAccepted, rec.Code)
	}
	rec := doJSON(t, h, http.MethodPost, "/proofs/C", dissent)
	assert.Equal(t, http.StatusAccepted, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/agents/agent-1/consensus", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Verdict     string  `json:"verdict"`
		Ratio       float64 `json:"ratio"`
		WinningHash string  `json:"winning_hash"`
		Proofs      int     `json:"proofs"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "valid", resp.Verdict)
	assert.InDelta(t, 2.0/3.0, resp.Ratio, 1e-9)
	assert.Equal(t, agreed.ProofHash, resp.WinningHash)
	assert.Equal(t, 3, resp.Proofs)
}

func TestServer_ProofFromUnknownNode(t *testing.T) {
	h := httpadapter.NewHandler(consensus.NewValidator(0.66))

	rec := doJSON(t, h, http.MethodPost, "/proofs/ghost", proof.At("agent-1", 1, nil, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_MalformedProofRejected(t *testing.T) {
	v := consensus.NewValidator(0.66)
	v.AddNode("A", 1)
	h := httpadapter.NewHandler(v)

	rec := doJSON(t, h, http.MethodPost, "/proofs/A", map[string]any{"agent_id": "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Nothing was stored.
	rec = doJSON(t, h, http.MethodGet, "/agents/x/consensus", nil)
	var resp struct {
		Verdict string `json:"verdict"`
		Proofs  int    `json:"proofs"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "uncertain", resp.Verdict)
	assert.Equal(t, 0, resp.Proofs)
}

func TestServer_ArchiveEndpoint(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	archive := redisarchive.NewFromClient(backend.NewClient(&backend.Options{Addr: mr.Addr()}))

	v := consensus.NewValidator(0.5)
	v.AddNode("A", 1)
	h := httpadapter.NewHandler(v, httpadapter.WithArchive(archive))

	p := proof.At("agent-1", 100, []byte("in"), []byte("out"))
	rec := doJSON(t, h, http.MethodPost, "/proofs/A", p)
	require.Equal(t, http.StatusAccepted, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/agents/agent-1/proofs?limit=5", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var entries []struct {
		NodeID string                `json:"node_id"`
		Proof  *proof.ExecutionProof `json:"proof"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "A", entries[0].NodeID)
	assert.Equal(t, p, entries[0].Proof)
}

func TestServer_HostedAgentExecution(t *testing.T) {
	ag, err := agent.New("transformer", map[string]string{"id": "worker-1"},
		agent.WithSandbox(local.New(local.Echo("ran: "))))
	require.NoError(t, err)

	v := consensus.NewValidator(0.5)
	h := httpadapter.NewHandler(v,
		httpadapter.WithAgents(map[string]*agent.Agent{"worker": ag}),
		httpadapter.WithMetrics(observability.New()),
	)

	req := httptest.NewRequest(http.MethodPost, "/run/worker/execute", bytes.NewReader([]byte("input")))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		AgentID string                `json:"agent_id"`
		Output  string                `json:"output"`
		Proof   *proof.ExecutionProof `json:"proof"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "worker-1", resp.AgentID)

	output, err := base64.StdEncoding.DecodeString(resp.Output)
	require.NoError(t, err)
	assert.Equal(t, []byte("ran: input"), output)
	require.NotNil(t, resp.Proof)
	assert.True(t, resp.Proof.Verify("worker-1", []byte("input"), output))

	rec = doJSON(t, h, http.MethodPost, "/run/stranger/execute", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_MetricsEndpoint(t *testing.T) {
	v := consensus.NewValidator(0.5)
	v.AddNode("A", 1)
	h := httpadapter.NewHandler(v, httpadapter.WithMetrics(observability.New()))

	rec := doJSON(t, h, http.MethodPost, "/proofs/A", proof.At("agent-1", 1, nil, nil))
	require.Equal(t, http.StatusAccepted, rec.Code)
	doJSON(t, h, http.MethodGet, "/agents/agent-1/consensus", nil)

	rec = doJSON(t, h, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `korra_proof_submissions_total{result="accepted"} 1`)
	assert.Contains(t, rec.Body.String(), `korra_validations_total{verdict="valid"} 1`)
}
