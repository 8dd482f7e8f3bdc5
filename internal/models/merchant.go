package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Merchant statuses
const (
	MerchantStatusActive   = "active"
	MerchantStatusInactive = "inactive"
)

// Merchant is identified by ID (merchant_id) and by its unique business code.
type Merchant struct {
	ID           uint   `gorm:"primarykey" json:"merchant_id"`
	MerchantCode string `gorm:"uniqueIndex;not null" json:"merchant_code"`
	Name         string `gorm:"not null" json:"name"`
	Status       string `gorm:"default:'active'" json:"status"`
	// ReturnURL overrides the configured return URL for this merchant's redirects.
	ReturnURL string    `json:"return_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Slab statuses
const (
	SlabStatusInactive = 0
	SlabStatusActive   = 1
)

// MerchantSlab is an amount range with the pricing applied to mandates in it.
type MerchantSlab struct {
	ID              uint            `gorm:"primarykey" json:"id"`
	MerchantID      uint            `gorm:"index;not null" json:"merchant_id"`
	SlabFrom        decimal.Decimal `gorm:"type:numeric;not null" json:"slab_from"`
	SlabTo          decimal.Decimal `gorm:"type:numeric;not null" json:"slab_to"`
	BaseAmount      decimal.Decimal `gorm:"type:numeric;not null;default:0" json:"base_amount"`
	EMIAmount       decimal.Decimal `gorm:"type:numeric;not null;default:0" json:"emi_amount"`
	EMITenure       int             `gorm:"not null;default:0" json:"emi_tenure"`
	Frequency       string          `gorm:"size:8" json:"frequency"`
	ProcessingFee   decimal.Decimal `gorm:"type:numeric;not null;default:0" json:"processing_fee"`
	EffectiveDate   time.Time       `gorm:"not null" json:"effective_date"`
	ExpiryDate      *time.Time      `json:"expiry_date"`
	MandateCategory string          `json:"mandate_category"`
	Status          int             `gorm:"not null" json:"status"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// IsActive reports status == 1 AND effective_date <= now AND
// (expiry_date IS NULL OR expiry_date > now).
func (s *MerchantSlab) IsActive(now time.Time) bool {
	if s.Status != SlabStatusActive {
		return false
	}
	if s.EffectiveDate.After(now) {
		return false
	}
	return s.ExpiryDate == nil || s.ExpiryDate.After(now)
}

// Overlaps applies the closed-interval test from1 <= to2 AND to1 >= from2.
func (s *MerchantSlab) Overlaps(from, to decimal.Decimal) bool {
	return s.SlabFrom.LessThanOrEqual(to) && s.SlabTo.GreaterThanOrEqual(from)
}

// Contains reports whether amount lies in [SlabFrom, SlabTo], bounds inclusive.
func (s *MerchantSlab) Contains(amount decimal.Decimal) bool {
	return amount.GreaterThanOrEqual(s.SlabFrom) && amount.LessThanOrEqual(s.SlabTo)
}
