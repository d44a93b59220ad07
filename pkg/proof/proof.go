// Package proof implements the deterministic execution proof: a chained
// sha256 fingerprint binding an agent identity, a timestamp, and the digests
// of one execution's input and output into a single comparable hash.
//
// Proofs carry no signature. Any holder of the raw input and output can
// re-derive every hash and compare, which is the sole authenticity check.
package proof

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"strconv"
	"time"

	"github.com/korralabs/korra/pkg/domain"
)

// ExecutionProof is the tamper-evident fingerprint of one
// (agent, input, output) triple.
type ExecutionProof struct {
	AgentID    string `json:"agent_id"`
	Timestamp  uint64 `json:"timestamp"`
	InputHash  string `json:"input_hash"`
	OutputHash string `json:"output_hash"`
	ProofHash  string `json:"proof_hash"`
}

// New captures the current wall-clock time and computes all three hashes for
// the given triple.
func New(agentID string, input, output []byte) *ExecutionProof {
	return At(agentID, uint64(time.Now().Unix()), input, output)
}

// At builds a proof for an explicit timestamp. Used internally and by tests;
// New is the normal entrypoint.
func At(agentID string, timestamp uint64, input, output []byte) *ExecutionProof {
	inputHash := digest(input)
	outputHash := digest(output)
	return &ExecutionProof{
		AgentID:    agentID,
		Timestamp:  timestamp,
		InputHash:  inputHash,
		OutputHash: outputHash,
		ProofHash:  chain(agentID, timestamp, inputHash, outputHash),
	}
}

// Verify recomputes the input, output, and proof hashes from the supplied raw
// values and the proof's stored timestamp, failing fast on the first
// mismatch. A tampered stored timestamp is only caught transitively through
// the proof hash; callers needing a pinned timestamp must check it out of
// band.
func (p *ExecutionProof) Verify(agentID string, input, output []byte) bool {
	if p.AgentID != agentID {
		return false
	}
	if p.InputHash != digest(input) {
		return false
	}
	if p.OutputHash != digest(output) {
		return false
	}
	return p.ProofHash == chain(agentID, p.Timestamp, p.InputHash, p.OutputHash)
}

// ToJSON serializes the canonical five-field wire object.
func (p *ExecutionProof) ToJSON() ([]byte, error) {
	return json.Marshal(p)
}

// FromJSON parses the canonical wire object. Every field must be present and
// correctly typed; any deviation yields domain.ErrMalformedProof rather than
// a partial proof.
func FromJSON(data []byte) (*ExecutionProof, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, domain.ErrMalformedProof
	}

	p := &ExecutionProof{}
	for _, f := range []struct {
		key string
		dst *string
	}{
		{"agent_id", &p.AgentID},
		{"input_hash", &p.InputHash},
		{"output_hash", &p.OutputHash},
		{"proof_hash", &p.ProofHash},
	} {
		v, ok := raw[f.key]
		if !ok {
			return nil, domain.ErrMalformedProof
		}
		if err := json.Unmarshal(v, f.dst); err != nil {
			return nil, domain.ErrMalformedProof
		}
	}

	tsRaw, ok := raw["timestamp"]
	if !ok {
		return nil, domain.ErrMalformedProof
	}
	// Decimal-only parse: rejects floats, strings, and negatives.
	ts, err := strconv.ParseUint(string(tsRaw), 10, 64)
	if err != nil {
		return nil, domain.ErrMalformedProof
	}
	p.Timestamp = ts

	return p, nil
}

// digest is the standard-base64 sha256 of a byte buffer.
func digest(data []byte) string {
	sum := sha256.Sum256(data)
	return base64.StdEncoding.EncodeToString(sum[:])
}

// chain binds agent id, decimal timestamp, and the two digests, in that
// order, into the proof hash.
func chain(agentID string, timestamp uint64, inputHash, outputHash string) string {
	h := sha256.New()
	h.Write([]byte(agentID))
	h.Write([]byte(strconv.FormatUint(timestamp, 10)))
	h.Write([]byte(inputHash))
	h.Write([]byte(outputHash))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}
