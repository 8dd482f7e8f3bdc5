package repositories

import (
	"context"
	"time"

	"emandate/internal/models"

	"gorm.io/gorm"
)

type SlabRepository interface {
	Create(ctx context.Context, slab *models.MerchantSlab) error
	Update(ctx context.Context, slab *models.MerchantSlab) error
	Delete(ctx context.Context, id uint) error
	GetByID(ctx context.Context, id uint) (*models.MerchantSlab, error)
	ListByMerchant(ctx context.Context, merchantID uint) ([]models.MerchantSlab, error)
	// ListActive returns the merchant's slabs that are active at now,
	// ordered by slab_from ascending.
	ListActive(ctx context.Context, merchantID uint, now time.Time) ([]models.MerchantSlab, error)
}

type slabRepository struct {
	db *gorm.DB
}

func NewSlabRepository(db *gorm.DB) SlabRepository {
	return &slabRepository{db: db}
}

func (r *slabRepository) Create(ctx context.Context, slab *models.MerchantSlab) error {
	return r.db.WithContext(ctx).Create(slab).Error
}

func (r *slabRepository) Update(ctx context.Context, slab *models.MerchantSlab) error {
	return r.db.WithContext(ctx).Save(slab).Error
}

func (r *slabRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.MerchantSlab{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return notFound(gorm.ErrRecordNotFound, "slab %d not found", id)
	}
	return nil
}

func (r *slabRepository) GetByID(ctx context.Context, id uint) (*models.MerchantSlab, error) {
	var slab models.MerchantSlab
	if err := r.db.WithContext(ctx).First(&slab, id).Error; err != nil {
		return nil, notFound(err, "slab %d not found", id)
	}
	return &slab, nil
}

func (r *slabRepository) ListByMerchant(ctx context.Context, merchantID uint) ([]models.MerchantSlab, error) {
	var slabs []models.MerchantSlab
	err := r.db.WithContext(ctx).
		Where("merchant_id = ?", merchantID).
		Order("slab_from ASC").
		Find(&slabs).Error
	return slabs, err
}

func (r *slabRepository) ListActive(ctx context.Context, merchantID uint, now time.Time) ([]models.MerchantSlab, error) {
	var slabs []models.MerchantSlab
	err := r.db.WithContext(ctx).
		Where("merchant_id = ? AND status = ?", merchantID, models.SlabStatusActive).
		Where("effective_date <= ?", now).
		Where("expiry_date IS NULL OR expiry_date > ?", now).
		Order("slab_from ASC").
		Find(&slabs).Error
	return slabs, err
}
