package slab

import (
	"context"
	"fmt"
	"sort"
	"time"

	apperrors "emandate/internal/errors"
	"emandate/internal/models"
	"emandate/internal/validation"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type service struct {
	repo      Repository
	merchants MerchantLookup
	cache     Cache
	log       zerolog.Logger
	now       func() time.Time
}

// Option customizes the service.
type Option func(*service)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}

// NewService creates a slab service. A nil cache disables caching.
func NewService(repo Repository, merchants MerchantLookup, cache Cache, log zerolog.Logger, opts ...Option) Service {
	if repo == nil {
		panic("repo is required")
	}
	if merchants == nil {
		panic("merchant lookup is required")
	}
	if cache == nil {
		cache = NoopCache{}
	}
	s := &service{
		repo:      repo,
		merchants: merchants,
		cache:     cache,
		log:       log.With().Str("component", "slab").Logger(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) CreateSlab(ctx context.Context, merchantID uint, input CreateSlabInput) (*models.MerchantSlab, error) {
	v := validation.New()
	v.Struct(input)
	if err := v.Err(); err != nil {
		return nil, err
	}

	if _, err := s.merchants.GetByID(ctx, merchantID); err != nil {
		return nil, err
	}

	slab := input.toModel(merchantID, s.now())
	v.Slab(slab)
	if err := v.Err(); err != nil {
		return nil, err
	}

	if err := s.checkOverlap(ctx, slab); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, slab); err != nil {
		return nil, fmt.Errorf("failed to create slab: %w", err)
	}
	s.invalidate(ctx, merchantID)

	s.log.Info().
		Uint("merchant_id", merchantID).
		Uint("slab_id", slab.ID).
		Str("from", slab.SlabFrom.String()).
		Str("to", slab.SlabTo.String()).
		Msg("slab created")
	return slab, nil
}

func (s *service) UpdateSlab(ctx context.Context, slabID uint, input UpdateSlabInput) (*models.MerchantSlab, error) {
	v := validation.New()
	v.Struct(input)
	if err := v.Err(); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetByID(ctx, slabID)
	if err != nil {
		return nil, err
	}

	merged := input.mergeInto(*existing)
	v.Slab(merged)
	if err := v.Err(); err != nil {
		return nil, err
	}

	if err := s.checkOverlap(ctx, merged); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, merged); err != nil {
		return nil, fmt.Errorf("failed to update slab: %w", err)
	}
	s.invalidate(ctx, merged.MerchantID)

	s.log.Info().Uint("merchant_id", merged.MerchantID).Uint("slab_id", slabID).Msg("slab updated")
	return merged, nil
}

func (s *service) DeleteSlab(ctx context.Context, slabID uint) error {
	slab, err := s.repo.GetByID(ctx, slabID)
	if err != nil {
		return err
	}
	if slab.IsActive(s.now()) {
		return apperrors.Conflict("slab %d is active and cannot be deleted", slabID)
	}
	if err := s.repo.Delete(ctx, slabID); err != nil {
		return err
	}
	s.invalidate(ctx, slab.MerchantID)

	s.log.Info().Uint("merchant_id", slab.MerchantID).Uint("slab_id", slabID).Msg("slab deleted")
	return nil
}

func (s *service) FindApplicableSlab(ctx context.Context, merchantID uint, amount decimal.Decimal) (*models.MerchantSlab, error) {
	slabs, err := s.merchantSlabs(ctx, merchantID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	active := make([]models.MerchantSlab, 0, len(slabs))
	for _, slab := range slabs {
		if slab.IsActive(now) {
			active = append(active, slab)
		}
	}
	if len(active) == 0 {
		return nil, apperrors.NotFound("no active slabs for merchant %d", merchantID)
	}

	sort.SliceStable(active, func(i, j int) bool {
		return active[i].SlabFrom.LessThan(active[j].SlabFrom)
	})
	for i := range active {
		if active[i].Contains(amount) {
			return &active[i], nil
		}
	}
	return nil, apperrors.NotFound("no active slab of merchant %d covers amount %s", merchantID, amount.String())
}

func (s *service) GetSlab(ctx context.Context, slabID uint) (*models.MerchantSlab, error) {
	return s.repo.GetByID(ctx, slabID)
}

func (s *service) ListSlabs(ctx context.Context, merchantID uint) ([]models.MerchantSlab, error) {
	if _, err := s.merchants.GetByID(ctx, merchantID); err != nil {
		return nil, err
	}
	return s.repo.ListByMerchant(ctx, merchantID)
}

// checkOverlap rejects slab when its range meets any currently active slab
// of the same merchant other than itself.
func (s *service) checkOverlap(ctx context.Context, slab *models.MerchantSlab) error {
	active, err := s.repo.ListActive(ctx, slab.MerchantID, s.now())
	if err != nil {
		return fmt.Errorf("failed to load active slabs: %w", err)
	}
	for _, other := range active {
		if slab.ID != 0 && other.ID == slab.ID {
			continue
		}
		if other.Overlaps(slab.SlabFrom, slab.SlabTo) {
			return apperrors.Overlap("range [%s, %s] overlaps active slab %d [%s, %s]",
				slab.SlabFrom.String(), slab.SlabTo.String(),
				other.ID, other.SlabFrom.String(), other.SlabTo.String())
		}
	}
	return nil
}

func (s *service) merchantSlabs(ctx context.Context, merchantID uint) ([]models.MerchantSlab, error) {
	slabs, ok, err := s.cache.GetMerchantSlabs(ctx, merchantID)
	if err != nil {
		s.log.Warn().Err(err).Uint("merchant_id", merchantID).Msg("slab cache read failed")
	}
	if ok {
		return slabs, nil
	}

	slabs, err = s.repo.ListByMerchant(ctx, merchantID)
	if err != nil {
		return nil, fmt.Errorf("failed to load slabs: %w", err)
	}
	if err := s.cache.SetMerchantSlabs(ctx, merchantID, slabs); err != nil {
		s.log.Warn().Err(err).Uint("merchant_id", merchantID).Msg("slab cache write failed")
	}
	return slabs, nil
}

func (s *service) invalidate(ctx context.Context, merchantID uint) {
	if err := s.cache.InvalidateMerchant(ctx, merchantID); err != nil {
		s.log.Warn().Err(err).Uint("merchant_id", merchantID).Msg("slab cache invalidation failed")
	}
}
