package memory

import "github.com/swapcrate/swapcrate/internal/domain"

// Deep copies keep callers from mutating stored state through shared slices
// and pointers.

func copyUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	out := *u
	out.Wishlist = append([]string(nil), u.Wishlist...)
	return &out
}

func copyItem(i *domain.Item) *domain.Item {
	if i == nil {
		return nil
	}
	out := *i
	return &out
}

func copyTrade(t *domain.Trade) *domain.Trade {
	if t == nil {
		return nil
	}
	out := *t
	out.ProposerItemIDs = append([]string(nil), t.ProposerItemIDs...)
	out.ReceiverItemIDs = append([]string(nil), t.ReceiverItemIDs...)
	if t.ParentTradeID != nil {
		parent := *t.ParentTradeID
		out.ParentTradeID = &parent
	}
	if t.DisputeTicketID != nil {
		ticket := *t.DisputeTicketID
		out.DisputeTicketID = &ticket
	}
	if t.DeliveryDeadline != nil {
		deadline := *t.DeliveryDeadline
		out.DeliveryDeadline = &deadline
	}
	if t.RatingDeadline != nil {
		deadline := *t.RatingDeadline
		out.RatingDeadline = &deadline
	}
	return &out
}

func copyTicket(d *domain.DisputeTicket) *domain.DisputeTicket {
	if d == nil {
		return nil
	}
	out := *d
	if d.InitiatorEvidence != nil {
		ev := *d.InitiatorEvidence
		ev.Attachments = append([]string(nil), d.InitiatorEvidence.Attachments...)
		out.InitiatorEvidence = &ev
	}
	if d.RespondentEvidence != nil {
		ev := *d.RespondentEvidence
		ev.Attachments = append([]string(nil), d.RespondentEvidence.Attachments...)
		out.RespondentEvidence = &ev
	}
	out.MediationLog = append([]domain.MediationMessage(nil), d.MediationLog...)
	if d.Resolution != nil {
		res := *d.Resolution
		out.Resolution = &res
	}
	return &out
}

func copyRating(r *domain.TradeRating) *domain.TradeRating {
	if r == nil {
		return nil
	}
	out := *r
	return &out
}

func copyRepEvent(e *domain.ReputationEvent) *domain.ReputationEvent {
	if e == nil {
		return nil
	}
	out := *e
	return &out
}
