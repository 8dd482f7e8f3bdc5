package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"emandate/internal/models"

	"github.com/redis/go-redis/v9"
)

// SlabCache caches a merchant's slab list. Entries are written with a short
// TTL and dropped on every slab write. Readers apply the active predicate
// themselves, so a cached slab that expires or becomes effective is judged
// at read time.
type SlabCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSlabCache(client *redis.Client, ttl time.Duration) *SlabCache {
	return &SlabCache{client: client, ttl: ttl}
}

func slabKey(merchantID uint) string {
	return fmt.Sprintf("slabs:merchant:%d", merchantID)
}

// GetMerchantSlabs reports a miss with ok == false.
func (s *SlabCache) GetMerchantSlabs(ctx context.Context, merchantID uint) ([]models.MerchantSlab, bool, error) {
	data, err := s.client.Get(ctx, slabKey(merchantID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to get cached slabs: %w", err)
	}

	var slabs []models.MerchantSlab
	if err := json.Unmarshal(data, &slabs); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal cached slabs: %w", err)
	}
	return slabs, true, nil
}

func (s *SlabCache) SetMerchantSlabs(ctx context.Context, merchantID uint, slabs []models.MerchantSlab) error {
	data, err := json.Marshal(slabs)
	if err != nil {
		return fmt.Errorf("failed to marshal slabs: %w", err)
	}
	return s.client.Set(ctx, slabKey(merchantID), data, s.ttl).Err()
}

func (s *SlabCache) InvalidateMerchant(ctx context.Context, merchantID uint) error {
	return s.client.Del(ctx, slabKey(merchantID)).Err()
}
