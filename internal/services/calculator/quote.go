package calculator

import (
	"context"
	"time"

	apperrors "emandate/internal/errors"
	"emandate/internal/models"

	"github.com/shopspring/decimal"
)

type SlabFinder interface {
	FindApplicableSlab(ctx context.Context, merchantID uint, amount decimal.Decimal) (*models.MerchantSlab, error)
}

// QuoteService prices a payment amount for a merchant without persisting
// anything.
type QuoteService struct {
	slabs SlabFinder
	now   func() time.Time
}

func NewQuoteService(slabs SlabFinder, now func() time.Time) *QuoteService {
	if now == nil {
		now = time.Now
	}
	return &QuoteService{slabs: slabs, now: now}
}

func (s *QuoteService) Quote(ctx context.Context, merchantID uint, amount decimal.Decimal) (MandateTerms, error) {
	if !amount.IsPositive() {
		return MandateTerms{}, apperrors.Validation("payment_amount must be greater than zero")
	}
	slab, err := s.slabs.FindApplicableSlab(ctx, merchantID, amount)
	if err != nil {
		return MandateTerms{}, err
	}
	return Calculate(*slab, amount, s.now())
}
