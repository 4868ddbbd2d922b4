package valuation

import (
	"context"
	"fmt"

	"github.com/swapcrate/swapcrate/internal/domain"
	"github.com/swapcrate/swapcrate/internal/repository"
)

// Appraisal is an estimated market value for an item, in minor currency
// units, tagged with where the number came from
type Appraisal struct {
	ItemID     string                 `json:"item_id"`
	ValueCents int64                  `json:"value_cents"`
	Source     domain.ValuationSource `json:"source"`
	Confidence float64                `json:"confidence"`
}

// Provider supplies an EMV per item. The core consumes only the numeric value
// and the source tag; how the number is produced is the provider's business.
type Provider interface {
	GetEMV(ctx context.Context, itemID string) (*Appraisal, error)
}

// RepositoryProvider serves appraisals from the item records themselves,
// where the last known EMV and its source tag are stored
type RepositoryProvider struct {
	repo repository.User
}

// NewRepositoryProvider creates a provider backed by the item store
func NewRepositoryProvider(repo repository.User) *RepositoryProvider {
	return &RepositoryProvider{repo: repo}
}

// GetEMV returns the stored appraisal for an item
func (p *RepositoryProvider) GetEMV(ctx context.Context, itemID string) (*Appraisal, error) {
	item, err := p.repo.GetItemByID(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to get item for appraisal: %w", err)
	}
	if item == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrItemNotFound, itemID)
	}

	return &Appraisal{
		ItemID:     item.ID,
		ValueCents: item.EMVCents,
		Source:     item.ValuationSource,
		Confidence: item.ValuationConfidence,
	}, nil
}
