package escrow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryGateway_HoldIsIdempotent(t *testing.T) {
	g := NewMemoryGateway()
	ctx := context.Background()

	first, err := g.HoldFunds(ctx, "trade-1", "alice", 5000, "key-1")
	require.NoError(t, err)
	assert.Equal(t, HoldStatusHeld, first.Status)

	// Retrying with the same key returns the same hold, no double charge
	second, err := g.HoldFunds(ctx, "trade-1", "alice", 5000, "key-1")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	// A second live hold under a new key is rejected
	_, err = g.HoldFunds(ctx, "trade-1", "alice", 5000, "key-2")
	assert.Error(t, err)
}

func TestMemoryGateway_ReleaseAndRefund(t *testing.T) {
	g := NewMemoryGateway()
	ctx := context.Background()

	_, err := g.HoldFunds(ctx, "trade-1", "alice", 5000, "hold-key")
	require.NoError(t, err)

	hold, err := g.ReleaseFunds(ctx, "trade-1", "bob", "release-key")
	require.NoError(t, err)
	assert.Equal(t, HoldStatusReleased, hold.Status)

	// Replay of the release is a no-op
	again, err := g.ReleaseFunds(ctx, "trade-1", "bob", "release-key")
	require.NoError(t, err)
	assert.Equal(t, HoldStatusReleased, again.Status)

	// Refunding a released hold with a fresh key fails
	_, err = g.RefundFunds(ctx, "trade-1", "refund-key")
	assert.Error(t, err)
}

func TestMemoryGateway_RefundUnknownTrade(t *testing.T) {
	g := NewMemoryGateway()
	_, err := g.RefundFunds(context.Background(), "nope", "key")
	assert.Error(t, err)
}

func TestMemoryGateway_SplitValidatesBps(t *testing.T) {
	g := NewMemoryGateway()
	ctx := context.Background()

	_, err := g.HoldFunds(ctx, "trade-1", "alice", 5000, "hold-key")
	require.NoError(t, err)

	_, err = g.SplitFunds(ctx, "trade-1", "bob", 10001, "split-key")
	assert.Error(t, err)

	hold, err := g.SplitFunds(ctx, "trade-1", "bob", 5000, "split-key-2")
	require.NoError(t, err)
	assert.Equal(t, HoldStatusRefunded, hold.Status)
}

func TestMemoryGateway_RejectsNonPositiveAmount(t *testing.T) {
	g := NewMemoryGateway()
	_, err := g.HoldFunds(context.Background(), "trade-1", "alice", 0, "key")
	assert.Error(t, err)
}
