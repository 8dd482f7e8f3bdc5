package calculator

import (
	"strconv"
	"time"

	"emandate/internal/codec"
	apperrors "emandate/internal/errors"
	"emandate/internal/models"

	"github.com/shopspring/decimal"
)

// DateLayout is the calendar date format used on every wire payload.
const DateLayout = "2006-01-02"

var hundred = decimal.NewFromInt(100)

// CalculationDetails echoes the slab fields a calculation used.
type CalculationDetails struct {
	SlabID               uint            `json:"slab_id"`
	SlabFrom             decimal.Decimal `json:"slab_from"`
	SlabTo               decimal.Decimal `json:"slab_to"`
	BaseAmount           decimal.Decimal `json:"base_amount"`
	EMITenure            int             `json:"emi_tenure"`
	ProcessingFeePercent decimal.Decimal `json:"processing_fee_percent"`
	Frequency            string          `json:"frequency"`
	MandateCategory      string          `json:"mandate_category"`
}

// MandateTerms is the full-precision result of pricing an amount against a
// slab. Rounding belongs to presentation.
type MandateTerms struct {
	MerchantID       uint               `json:"merchant_id"`
	TotalAmount      decimal.Decimal    `json:"total_amount"`
	NumberOfPayments int                `json:"number_of_payments"`
	EMIAmount        decimal.Decimal    `json:"emi_amount"`
	TotalEMIAmount   decimal.Decimal    `json:"total_emi_amount"`
	ProcessingFee    decimal.Decimal    `json:"processing_fee"`
	TotalPayable     decimal.Decimal    `json:"total_payable"`
	DurationInMonths int                `json:"duration_in_months"`
	Frequency        Frequency          `json:"frequency"`
	StartDate        time.Time          `json:"start_date"`
	EndDate          time.Time          `json:"end_date"`
	Details          CalculationDetails `json:"calculation_details"`
}

// Calculate prices amount against slab with start date now. It has no side
// effects; amount must already be known to be positive.
func Calculate(slab models.MerchantSlab, amount decimal.Decimal, now time.Time) (MandateTerms, error) {
	if slab.EMITenure <= 0 {
		return MandateTerms{}, apperrors.Validation("slab %d has no instalments (emi_tenure=%d)", slab.ID, slab.EMITenure)
	}

	payments := decimal.NewFromInt(int64(slab.EMITenure))
	emi := amount.Sub(slab.BaseAmount).Div(payments)
	totalEMI := emi.Mul(payments)
	fee := slab.ProcessingFee.Div(hundred).Mul(amount)
	freq := ResolveFrequency(slab.Frequency)
	months := DurationInMonths(freq, slab.EMITenure)

	return MandateTerms{
		MerchantID:       slab.MerchantID,
		TotalAmount:      amount,
		NumberOfPayments: slab.EMITenure,
		EMIAmount:        emi,
		TotalEMIAmount:   totalEMI,
		ProcessingFee:    fee,
		TotalPayable:     slab.BaseAmount.Add(totalEMI).Add(fee),
		DurationInMonths: months,
		Frequency:        freq,
		StartDate:        now,
		EndDate:          now.AddDate(0, months, 0),
		Details: CalculationDetails{
			SlabID:               slab.ID,
			SlabFrom:             slab.SlabFrom,
			SlabTo:               slab.SlabTo,
			BaseAmount:           slab.BaseAmount,
			EMITenure:            slab.EMITenure,
			ProcessingFeePercent: slab.ProcessingFee,
			Frequency:            slab.Frequency,
			MandateCategory:      slab.MandateCategory,
		},
	}, nil
}

// MandateWindow returns the debit window for a mandate priced on slab. A slab
// without frequency or tenure falls back to its own expiry date, which may be
// nil.
func MandateWindow(slab models.MerchantSlab, now time.Time) (time.Time, *time.Time) {
	if slab.Frequency == "" || slab.EMITenure <= 0 {
		return now, slab.ExpiryDate
	}
	months := DurationInMonths(ResolveFrequency(slab.Frequency), slab.EMITenure)
	end := now.AddDate(0, months, 0)
	return now, &end
}

// ToPayload flattens the terms for a query-string codec. Details are keyed
// under the calculation_details. prefix.
func (t MandateTerms) ToPayload() *codec.Payload {
	p := codec.NewPayload()
	p.Set("merchant_id", strconv.FormatUint(uint64(t.MerchantID), 10))
	p.Set("total_amount", t.TotalAmount.String())
	p.Set("number_of_payments", strconv.Itoa(t.NumberOfPayments))
	p.Set("emi_amount", t.EMIAmount.String())
	p.Set("total_emi_amount", t.TotalEMIAmount.String())
	p.Set("processing_fee", t.ProcessingFee.String())
	p.Set("total_payable", t.TotalPayable.String())
	p.Set("duration_in_months", strconv.Itoa(t.DurationInMonths))
	p.Set("frequency", t.Frequency.Label)
	p.Set("frequency_id", strconv.Itoa(t.Frequency.ID))
	p.Set("frequency_code", t.Frequency.Code)
	p.Set("start_date", t.StartDate.Format(DateLayout))
	p.Set("end_date", t.EndDate.Format(DateLayout))

	d := t.Details
	p.Set("calculation_details.slab_id", strconv.FormatUint(uint64(d.SlabID), 10))
	p.Set("calculation_details.slab_from", d.SlabFrom.String())
	p.Set("calculation_details.slab_to", d.SlabTo.String())
	p.Set("calculation_details.base_amount", d.BaseAmount.String())
	p.Set("calculation_details.emi_tenure", strconv.Itoa(d.EMITenure))
	p.Set("calculation_details.processing_fee_percent", d.ProcessingFeePercent.String())
	p.Set("calculation_details.frequency", d.Frequency)
	if d.MandateCategory == "" {
		p.SetNull("calculation_details.mandate_category")
	} else {
		p.Set("calculation_details.mandate_category", d.MandateCategory)
	}
	return p
}
