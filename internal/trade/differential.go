package trade

import "github.com/swapcrate/swapcrate/internal/domain"

// SideValue sums item EMVs plus pledged cash for one side of a trade
func SideValue(items []*domain.Item, cashCents int64) int64 {
	total := cashCents
	for _, item := range items {
		total += item.EMVCents
	}
	return total
}

// Differential is the escrow outcome of comparing the two sides at acceptance
type Differential struct {
	// AmountCents is the absolute cash gap to be escrowed; zero for a
	// balanced trade
	AmountCents int64
	// PayerID is who funds the escrow, empty when AmountCents is zero
	PayerID string
}

// ComputeDifferential computes value given by proposer minus value given by
// receiver. A positive gap means the proposer funds escrow for the
// difference, negative means the receiver does.
func ComputeDifferential(trade *domain.Trade) Differential {
	gap := trade.ProposerValueCents - trade.ReceiverValueCents
	switch {
	case gap > 0:
		return Differential{AmountCents: gap, PayerID: trade.ProposerID}
	case gap < 0:
		return Differential{AmountCents: -gap, PayerID: trade.ReceiverID}
	}
	return Differential{}
}

// ComputePlatformFee charges feeBps basis points of the smaller side's value.
// Using the smaller side keeps the fee independent of who inflated what.
func ComputePlatformFee(proposerValueCents, receiverValueCents int64, feeBps int) int64 {
	base := proposerValueCents
	if receiverValueCents < base {
		base = receiverValueCents
	}
	return base * int64(feeBps) / 10000
}
