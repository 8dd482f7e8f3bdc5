package mandate

import (
	"strings"
	"time"

	"emandate/internal/codec"
	"emandate/internal/services/calculator"
	"emandate/internal/validation"

	"github.com/shopspring/decimal"
)

// Keys of the inbound create payload.
const (
	keyClientCode    = "clientCode"
	keyClientName    = "clientName"
	keyClientTxnID   = "clientTxnId"
	keyPayerName     = "payerName"
	keyPayerLName    = "payerLName"
	keyPayerEmail    = "payerEmail"
	keyPayerMobile   = "payerMobile"
	keyPayerPAN      = "payerPan"
	keyAmount        = "amount"
	keySabpaisaTxnID = "sabpaisaTxnId"
	keyPurpose       = "purpose"
)

// CreateRequest is the decrypted create-channel payload.
type CreateRequest struct {
	ClientCode    string
	ClientName    string
	ClientTxnID   string
	PayerName     string
	PayerEmail    string
	PayerMobile   string
	PayerPAN      string
	Amount        decimal.Decimal
	SabpaisaTxnID string
	Purpose       string
}

func field(p *codec.Payload, key string) string {
	return strings.TrimSpace(p.Get(key))
}

// parseCreateRequest reads and validates the inbound payload. Identifiers
// are returned even when validation fails so the failure redirect can carry
// them.
func parseCreateRequest(p *codec.Payload) (CreateRequest, error) {
	req := CreateRequest{
		ClientCode:    field(p, keyClientCode),
		ClientName:    field(p, keyClientName),
		ClientTxnID:   field(p, keyClientTxnID),
		PayerName:     strings.TrimSpace(field(p, keyPayerName) + " " + field(p, keyPayerLName)),
		PayerEmail:    strings.ToLower(field(p, keyPayerEmail)),
		PayerMobile:   field(p, keyPayerMobile),
		PayerPAN:      strings.ToUpper(field(p, keyPayerPAN)),
		SabpaisaTxnID: field(p, keySabpaisaTxnID),
		Purpose:       field(p, keyPurpose),
	}

	v := validation.New()
	v.Required(keyClientCode, req.ClientCode)
	v.Email(keyPayerEmail, req.PayerEmail)
	v.Phone(keyPayerMobile, req.PayerMobile)
	v.PAN(keyPayerPAN, req.PayerPAN)

	amount, err := decimal.NewFromString(field(p, keyAmount))
	if err != nil {
		v.AddError(keyAmount, "must be a decimal number")
	} else {
		v.Positive(keyAmount, amount)
		req.Amount = amount
	}
	return req, v.Err()
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(calculator.DateLayout)
}
