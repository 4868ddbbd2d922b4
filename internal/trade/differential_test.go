package trade

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/swapcrate/swapcrate/internal/domain"
)

func TestSideValue(t *testing.T) {
	items := []*domain.Item{
		{ID: "a", EMVCents: 100_00},
		{ID: "b", EMVCents: 50_25},
	}
	assert.Equal(t, int64(175_25), SideValue(items, 25_00))
	assert.Equal(t, int64(25_00), SideValue(nil, 25_00))
	assert.Zero(t, SideValue(nil, 0))
}

func TestComputeDifferential(t *testing.T) {
	trade := &domain.Trade{
		ProposerID:         "alice",
		ReceiverID:         "bob",
		ProposerValueCents: 300_00,
		ReceiverValueCents: 200_00,
	}
	diff := ComputeDifferential(trade)
	assert.Equal(t, int64(100_00), diff.AmountCents)
	assert.Equal(t, "alice", diff.PayerID)

	trade.ProposerValueCents, trade.ReceiverValueCents = 200_00, 300_00
	diff = ComputeDifferential(trade)
	assert.Equal(t, int64(100_00), diff.AmountCents)
	assert.Equal(t, "bob", diff.PayerID)

	trade.ReceiverValueCents = 200_00
	diff = ComputeDifferential(trade)
	assert.Zero(t, diff.AmountCents)
	assert.Empty(t, diff.PayerID)
}

func TestComputePlatformFee(t *testing.T) {
	// 250 bps of the smaller side
	assert.Equal(t, int64(5_00), ComputePlatformFee(300_00, 200_00, 250))
	assert.Equal(t, int64(5_00), ComputePlatformFee(200_00, 300_00, 250))
	assert.Zero(t, ComputePlatformFee(200_00, 300_00, 0))
	assert.Zero(t, ComputePlatformFee(0, 300_00, 250))

	// Integer floor, never rounds up
	assert.Equal(t, int64(2), ComputePlatformFee(99, 99, 250))
}
