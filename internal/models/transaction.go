package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction statuses
const (
	TransactionStatusInitiated  = "INITIATED"
	TransactionStatusRedirected = "REDIRECTED"
	TransactionStatusPending    = "PENDING"
	TransactionStatusActive     = "ACTIVE"
	TransactionStatusFailed     = "FAILED"
)

// Transaction is one mandate-creation attempt.
//
// SabpaisaTxnID is the gateway correlation id sent as consumer_id. It is not
// unique across retries; GatewayMandateID is, once the gateway assigns one.
type Transaction struct {
	ID                  uint            `gorm:"primarykey" json:"-"`
	TransactionID       string          `gorm:"uniqueIndex;not null" json:"transaction_id"`
	ClientTransactionID string          `gorm:"index" json:"client_transaction_id"`
	SabpaisaTxnID       string          `gorm:"index" json:"sabpaisa_txn_id"`
	GatewayMandateID    *string         `gorm:"uniqueIndex" json:"gateway_mandate_id,omitempty"`
	UserID              string          `gorm:"index;not null" json:"user_id"`
	MerchantID          uint            `gorm:"index;not null" json:"merchant_id"`
	Amount              decimal.Decimal `gorm:"type:numeric;not null" json:"amount"`
	MonthlyEMI          decimal.Decimal `gorm:"type:numeric" json:"monthly_emi"`
	MaxAmount           decimal.Decimal `gorm:"type:numeric" json:"max_amount"`
	StartDate           *time.Time      `json:"start_date"`
	EndDate             *time.Time      `json:"end_date"`
	Purpose             string          `json:"purpose"`
	Frequency           string          `gorm:"size:8" json:"frequency"`
	Status              string          `gorm:"not null;default:'INITIATED'" json:"status"`
	CreatedAt           time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}
