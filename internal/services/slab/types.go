package slab

import (
	"time"

	"emandate/internal/models"

	"github.com/shopspring/decimal"
)

// CreateSlabInput is the dashboard payload for a new slab. Decimal fields
// accept JSON numbers or strings.
type CreateSlabInput struct {
	SlabFrom        decimal.Decimal `json:"slab_from"`
	SlabTo          decimal.Decimal `json:"slab_to"`
	BaseAmount      decimal.Decimal `json:"base_amount"`
	EMIAmount       decimal.Decimal `json:"emi_amount"`
	EMITenure       int             `json:"emi_tenure"`
	Frequency       string          `json:"frequency" validate:"omitempty,oneof=DAIL WEEK MNTH QURT MIAN YEAR BIMN"`
	ProcessingFee   decimal.Decimal `json:"processing_fee"`
	EffectiveDate   *time.Time      `json:"effective_date"`
	ExpiryDate      *time.Time      `json:"expiry_date"`
	MandateCategory string          `json:"mandate_category" validate:"required,max=64"`
	// Status defaults to active.
	Status *int `json:"status" validate:"omitempty,oneof=0 1"`
}

// UpdateSlabInput is a patch; nil fields keep the stored value.
type UpdateSlabInput struct {
	SlabFrom        *decimal.Decimal `json:"slab_from"`
	SlabTo          *decimal.Decimal `json:"slab_to"`
	BaseAmount      *decimal.Decimal `json:"base_amount"`
	EMIAmount       *decimal.Decimal `json:"emi_amount"`
	EMITenure       *int             `json:"emi_tenure"`
	Frequency       *string          `json:"frequency" validate:"omitempty,oneof=DAIL WEEK MNTH QURT MIAN YEAR BIMN"`
	ProcessingFee   *decimal.Decimal `json:"processing_fee"`
	EffectiveDate   *time.Time       `json:"effective_date"`
	ExpiryDate      *time.Time       `json:"expiry_date"`
	ClearExpiry     bool             `json:"clear_expiry"`
	MandateCategory *string          `json:"mandate_category" validate:"omitempty,max=64"`
	Status          *int             `json:"status" validate:"omitempty,oneof=0 1"`
}

func (in CreateSlabInput) toModel(merchantID uint, now time.Time) *models.MerchantSlab {
	slab := &models.MerchantSlab{
		MerchantID:      merchantID,
		SlabFrom:        in.SlabFrom,
		SlabTo:          in.SlabTo,
		BaseAmount:      in.BaseAmount,
		EMIAmount:       in.EMIAmount,
		EMITenure:       in.EMITenure,
		Frequency:       in.Frequency,
		ProcessingFee:   in.ProcessingFee,
		EffectiveDate:   now,
		ExpiryDate:      in.ExpiryDate,
		MandateCategory: in.MandateCategory,
		Status:          models.SlabStatusActive,
	}
	if in.EffectiveDate != nil {
		slab.EffectiveDate = *in.EffectiveDate
	}
	if in.Status != nil {
		slab.Status = *in.Status
	}
	return slab
}

// mergeInto returns a copy of existing with the patch applied.
func (in UpdateSlabInput) mergeInto(existing models.MerchantSlab) *models.MerchantSlab {
	merged := existing
	if in.SlabFrom != nil {
		merged.SlabFrom = *in.SlabFrom
	}
	if in.SlabTo != nil {
		merged.SlabTo = *in.SlabTo
	}
	if in.BaseAmount != nil {
		merged.BaseAmount = *in.BaseAmount
	}
	if in.EMIAmount != nil {
		merged.EMIAmount = *in.EMIAmount
	}
	if in.EMITenure != nil {
		merged.EMITenure = *in.EMITenure
	}
	if in.Frequency != nil {
		merged.Frequency = *in.Frequency
	}
	if in.ProcessingFee != nil {
		merged.ProcessingFee = *in.ProcessingFee
	}
	if in.EffectiveDate != nil {
		merged.EffectiveDate = *in.EffectiveDate
	}
	if in.ExpiryDate != nil {
		merged.ExpiryDate = in.ExpiryDate
	}
	if in.ClearExpiry {
		merged.ExpiryDate = nil
	}
	if in.MandateCategory != nil {
		merged.MandateCategory = *in.MandateCategory
	}
	if in.Status != nil {
		merged.Status = *in.Status
	}
	return &merged
}
