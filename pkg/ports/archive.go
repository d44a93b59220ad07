package ports

import (
	"context"

	"github.com/korralabs/korra/pkg/proof"
)

// ArchivedProof is one accepted submission as recorded in an archive.
type ArchivedProof struct {
	NodeID string                `json:"node_id"`
	Proof  *proof.ExecutionProof `json:"proof"`
}

// ProofArchive is an append-only audit trail of accepted proof submissions.
// It is distinct from the validator's live proof set, which keeps only the
// most recent proof per (agent, node).
type ProofArchive interface {
	// Append records one accepted submission.
	Append(ctx context.Context, nodeID string, p *proof.ExecutionProof) error

	// Recent returns up to n archived submissions for agentID, newest first.
	Recent(ctx context.Context, agentID string, n int) ([]ArchivedProof, error)
}
