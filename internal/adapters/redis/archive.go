// Package redis implements ports.ProofArchive on Redis, keeping a capped
// per-agent list of accepted proof submissions for audit.
package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/korralabs/korra/pkg/ports"
	"github.com/korralabs/korra/pkg/proof"
	backend "github.com/redis/go-redis/v9"
)

// Archive implements ports.ProofArchive using Redis lists.
type Archive struct {
	client *backend.Client
	prefix string
	cap    int64
}

type Option func(*Archive)

// WithPrefix sets the key prefix for archive entries.
func WithPrefix(prefix string) Option {
	return func(a *Archive) {
		a.prefix = prefix
	}
}

// WithCap bounds the retained entries per agent.
func WithCap(n int64) Option {
	return func(a *Archive) {
		if n > 0 {
			a.cap = n
		}
	}
}

// New creates an archive with its own client.
func New(address, password string, db int, opts ...Option) *Archive {
	client := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(client, opts...)
}

// NewFromClient creates an archive from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Archive {
	a := &Archive{
		client: client,
		prefix: "korra:proofs:",
		cap:    100,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Archive) key(agentID string) string {
	return a.prefix + agentID
}

// Append records one accepted submission at the head of the agent's list
// and trims the list to the cap.
func (a *Archive) Append(ctx context.Context, nodeID string, p *proof.ExecutionProof) error {
	entry := ports.ArchivedProof{NodeID: nodeID, Proof: p}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal archived proof: %w", err)
	}

	pipe := a.client.Pipeline()
	pipe.LPush(ctx, a.key(p.AgentID), data)
	pipe.LTrim(ctx, a.key(p.AgentID), 0, a.cap-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to archive proof: %w", err)
	}
	return nil
}

// Recent returns up to n archived submissions for agentID, newest first.
func (a *Archive) Recent(ctx context.Context, agentID string, n int) ([]ports.ArchivedProof, error) {
	if n <= 0 {
		return nil, nil
	}

	raw, err := a.client.LRange(ctx, a.key(agentID), 0, int64(n)-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read proof archive: %w", err)
	}

	out := make([]ports.ArchivedProof, 0, len(raw))
	for _, item := range raw {
		var entry ports.ArchivedProof
		if err := json.Unmarshal([]byte(item), &entry); err != nil {
			return nil, fmt.Errorf("corrupt archive entry: %w", err)
		}
		out = append(out, entry)
	}
	return out, nil
}

// Close closes the redis client.
func (a *Archive) Close() error {
	return a.client.Close()
}
