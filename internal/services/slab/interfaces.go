package slab

import (
	"context"
	"time"

	"emandate/internal/models"

	"github.com/shopspring/decimal"
)

// Service is the slab store and overlap validator.
type Service interface {
	CreateSlab(ctx context.Context, merchantID uint, input CreateSlabInput) (*models.MerchantSlab, error)
	UpdateSlab(ctx context.Context, slabID uint, input UpdateSlabInput) (*models.MerchantSlab, error)
	DeleteSlab(ctx context.Context, slabID uint) error
	GetSlab(ctx context.Context, slabID uint) (*models.MerchantSlab, error)
	FindApplicableSlab(ctx context.Context, merchantID uint, amount decimal.Decimal) (*models.MerchantSlab, error)
	ListSlabs(ctx context.Context, merchantID uint) ([]models.MerchantSlab, error)
}

type Repository interface {
	Create(ctx context.Context, slab *models.MerchantSlab) error
	Update(ctx context.Context, slab *models.MerchantSlab) error
	Delete(ctx context.Context, id uint) error
	GetByID(ctx context.Context, id uint) (*models.MerchantSlab, error)
	ListByMerchant(ctx context.Context, merchantID uint) ([]models.MerchantSlab, error)
	ListActive(ctx context.Context, merchantID uint, now time.Time) ([]models.MerchantSlab, error)
}

type MerchantLookup interface {
	GetByID(ctx context.Context, id uint) (*models.Merchant, error)
}

// Cache holds a merchant's full slab list. Callers apply the active
// predicate to whatever it returns.
type Cache interface {
	GetMerchantSlabs(ctx context.Context, merchantID uint) ([]models.MerchantSlab, bool, error)
	SetMerchantSlabs(ctx context.Context, merchantID uint, slabs []models.MerchantSlab) error
	InvalidateMerchant(ctx context.Context, merchantID uint) error
}

// NoopCache always misses.
type NoopCache struct{}

func (NoopCache) GetMerchantSlabs(context.Context, uint) ([]models.MerchantSlab, bool, error) {
	return nil, false, nil
}
func (NoopCache) SetMerchantSlabs(context.Context, uint, []models.MerchantSlab) error { return nil }
func (NoopCache) InvalidateMerchant(context.Context, uint) error                      { return nil }
