package validation

import (
	"emandate/internal/models"
)

// Slab checks the range and pricing rules every stored slab must satisfy.
func (v *Validator) Slab(s *models.MerchantSlab) {
	v.Check(s.SlabFrom.LessThan(s.SlabTo), "slab_from", "must be less than slab_to")
	v.NonNegative("processing_fee", s.ProcessingFee)
	v.Check(!(s.EMIAmount.IsNegative() && s.EMITenure <= 0), "emi_amount",
		"must not be negative when emi_tenure is not positive")
	v.Check(s.Status == models.SlabStatusActive || s.Status == models.SlabStatusInactive,
		"status", "must be 0 or 1")
	if s.ExpiryDate != nil {
		v.After("expiry_date", *s.ExpiryDate, s.EffectiveDate, "effective_date")
	}
}
