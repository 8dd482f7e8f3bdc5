package repositories

import (
	"context"

	"emandate/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MerchantRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Merchant, error)
	GetByCode(ctx context.Context, code string) (*models.Merchant, error)
	// UpsertByCode inserts the merchant or overwrites its mutable fields
	// when the business code already exists.
	UpsertByCode(ctx context.Context, merchant *models.Merchant) (*models.Merchant, error)
}

type merchantRepository struct {
	db *gorm.DB
}

func NewMerchantRepository(db *gorm.DB) MerchantRepository {
	return &merchantRepository{db: db}
}

func (r *merchantRepository) GetByID(ctx context.Context, id uint) (*models.Merchant, error) {
	var merchant models.Merchant
	if err := r.db.WithContext(ctx).First(&merchant, id).Error; err != nil {
		return nil, notFound(err, "merchant %d not found", id)
	}
	return &merchant, nil
}

func (r *merchantRepository) GetByCode(ctx context.Context, code string) (*models.Merchant, error) {
	var merchant models.Merchant
	if err := r.db.WithContext(ctx).Where("merchant_code = ?", code).First(&merchant).Error; err != nil {
		return nil, notFound(err, "merchant %q not found", code)
	}
	return &merchant, nil
}

func (r *merchantRepository) UpsertByCode(ctx context.Context, merchant *models.Merchant) (*models.Merchant, error) {
	if merchant.Status == "" {
		merchant.Status = models.MerchantStatusActive
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "merchant_code"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "status", "updated_at"}),
	}).Create(merchant).Error
	if err != nil {
		return nil, err
	}
	return r.GetByCode(ctx, merchant.MerchantCode)
}
