package redis_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	redisarchive "github.com/korralabs/korra/internal/adapters/redis"
	"github.com/korralabs/korra/pkg/proof"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestArchive(t *testing.T, opts ...redisarchive.Option) *redisarchive.Archive {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	return redisarchive.NewFromClient(client, opts...)
}

func TestArchive_AppendAndRecent(t *testing.T) {
	a := newTestArchive(t)
	ctx := context.Background()

	p1 := proof.At("agent-1", 100, []byte("in1"), []byte("out1"))
	p2 := proof.At("agent-1", 200, []byte("in2"), []byte("out2"))

	require.NoError(t, a.Append(ctx, "node-a", p1))
	require.NoError(t, a.Append(ctx, "node-b", p2))

	got, err := a.Recent(ctx, "agent-1", 10)
	require.NoError(t, err)
	require.Len(t, got, 2)

	// Newest first.
	assert.Equal(t, "node-b", got[0].NodeID)
	assert.Equal(t, p2, got[0].Proof)
	assert.Equal(t, "node-a", got[1].NodeID)
	assert.Equal(t, p1, got[1].Proof)
}

func TestArchive_PerAgentIsolation(t *testing.T) {
	a := newTestArchive(t)
	ctx := context.Background()

	require.NoError(t, a.Append(ctx, "node-a", proof.At("agent-1", 100, nil, nil)))

	got, err := a.Recent(ctx, "agent-2", 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestArchive_CapTrimsOldest(t *testing.T) {
	a := newTestArchive(t, redisarchive.WithCap(3))
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		p := proof.At("agent-1", uint64(100+i), []byte{byte(i)}, nil)
		require.NoError(t, a.Append(ctx, "node-a", p))
	}

	got, err := a.Recent(ctx, "agent-1", 10)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, uint64(104), got[0].Proof.Timestamp)
	assert.Equal(t, uint64(102), got[2].Proof.Timestamp)
}

func TestArchive_RecentHonorsLimit(t *testing.T) {
	a := newTestArchive(t)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		require.NoError(t, a.Append(ctx, "node-a", proof.At("agent-1", uint64(i), nil, nil)))
	}

	got, err := a.Recent(ctx, "agent-1", 2)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	none, err := a.Recent(ctx, "agent-1", 0)
	require.NoError(t, err)
	assert.Nil(t, none)
}
