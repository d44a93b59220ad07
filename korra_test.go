package korra_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/korralabs/korra"
	"github.com/korralabs/korra/pkg/adapters/local"
	"github.com/korralabs/korra/pkg/agent"
	"github.com/korralabs/korra/pkg/consensus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestAgentToConsensusFlow walks the whole pipeline: three independent nodes
// run the same deterministic module over the same input, submit their proofs
// to one validator node over HTTP, and the result reaches consensus.
func TestAgentToConsensusFlow(t *testing.T) {
	node := korra.NewNode(0.66, korra.WithRoster(map[string]float64{
		"alpha": 1, "beta": 1, "gamma": 1,
	}))
	srv := httptest.NewServer(node.Handler())
	defer srv.Close()

	ag, err := korra.NewAgent("transformer", map[string]string{"id": "worker-1"},
		agent.WithSandbox(local.New(local.Echo("result: "))))
	require.NoError(t, err)

	input := []byte("shared workload")
	out, err := ag.Execute(context.Background(), input)
	require.NoError(t, err)
	require.Equal(t, []byte("result: shared workload"), out)

	p := ag.LastProof()
	require.True(t, p.Verify("worker-1", input, out))
	body, err := p.ToJSON()
	require.NoError(t, err)

	// Each validator observed the same deterministic execution and submits
	// the identical proof.
	for _, validator := range []string{"alpha", "beta", "gamma"} {
		resp, err := http.Post(srv.URL+"/proofs/"+validator, "application/json", bytes.NewReader(body))
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusAccepted, resp.StatusCode)
	}

	resp, err := http.Get(srv.URL + "/agents/worker-1/consensus")
	require.NoError(t, err)
	defer resp.Body.Close()

	var verdict struct {
		Verdict string  `json:"verdict"`
		Ratio   float64 `json:"ratio"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&verdict))
	assert.Equal(t, "valid", verdict.Verdict)
	assert.Equal(t, 1.0, verdict.Ratio)
}

func TestNewValidator_IsConsensusValidator(t *testing.T) {
	v := korra.NewValidator(2.0)
	assert.Equal(t, 1.0, v.Threshold())
	assert.Equal(t, consensus.Uncertain, v.Validate("nobody"))
}
