package gateway

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// CreateMandateRequest carries the customer and the slab-derived terms.
type CreateMandateRequest struct {
	ConsumerID          string          `json:"consumer_id"`
	TransactionID       string          `json:"transaction_id"`
	ClientTransactionID string          `json:"client_txn_id"`
	ClientCode          string          `json:"client_code"`
	CustomerName        string          `json:"customer_name"`
	CustomerEmail       string          `json:"customer_email"`
	CustomerMobile      string          `json:"customer_mobile,omitempty"`
	CustomerPAN         string          `json:"customer_pan,omitempty"`
	Amount              decimal.Decimal `json:"amount"`
	InstalmentAmount    decimal.Decimal `json:"emi_amount"`
	MaxAmount           decimal.Decimal `json:"max_amount"`
	Frequency           string          `json:"frequency,omitempty"`
	StartDate           string          `json:"start_date"`
	EndDate             string          `json:"end_date,omitempty"`
	Purpose             string          `json:"purpose"`
	MandateCategory     string          `json:"mandate_category,omitempty"`
	RedirectURL         string          `json:"redirect_url"`
}

type CreateMandateResponse struct {
	BankDetailsURL string `json:"bank_details_url"`
	// MandateID is the gateway's own id for this attempt, when it sends one.
	MandateID string `json:"mandate_id,omitempty"`
	Message   string `json:"message,omitempty"`
}

// EnquiryResult is the `result` object of a mandate enquiry. Raw keeps the
// object as received.
type EnquiryResult struct {
	ConsumerID          string          `json:"consumer_id"`
	MandateID           string          `json:"mandate_id"`
	ClientTransactionID string          `json:"client_txn_id"`
	RegistrationStatus  string          `json:"registration_status"`
	BankStatusMessage   string          `json:"bank_status_message"`
	UMRN                string          `json:"umrn"`
	BankName            string          `json:"bank_name"`
	AccountNumber       string          `json:"account_number"`
	AccountType         string          `json:"account_type"`
	IFSC                string          `json:"ifsc_code"`
	AccountHolderName   string          `json:"account_holder_name"`
	Amount              Amount          `json:"amount"`
	MaxAmount           Amount          `json:"max_amount"`
	Frequency           string          `json:"frequency"`
	StartDate           string          `json:"start_date"`
	EndDate             string          `json:"end_date"`
	Purpose             string          `json:"purpose"`
	CustomerName        string          `json:"customer_name"`
	CustomerEmail       string          `json:"customer_email"`
	CustomerMobile      string          `json:"customer_mobile"`
	CreatedAt           string          `json:"created_at"`

	Raw json.RawMessage `json:"-"`
}

type enquiryEnvelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// Amount decodes a JSON number, a numeric string, "" or null. Blank values
// decode to zero.
type Amount struct {
	decimal.Decimal
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		a.Decimal = decimal.Zero
		return nil
	}
	raw := strings.Trim(string(data), `"`)
	if strings.TrimSpace(raw) == "" {
		a.Decimal = decimal.Zero
		return nil
	}
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return err
	}
	a.Decimal = d
	return nil
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return a.Decimal.MarshalJSON()
}
