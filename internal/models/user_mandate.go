package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// UserMandate is the gateway-confirmed registration of a Transaction.
type UserMandate struct {
	ID                 uint            `gorm:"primarykey" json:"-"`
	TransactionID      string          `gorm:"uniqueIndex;not null" json:"transaction_id"`
	UserID             string          `gorm:"index" json:"user_id"`
	Amount             decimal.Decimal `gorm:"type:numeric" json:"amount"`
	DueDate            *time.Time      `json:"due_date"`
	PaidDate           *time.Time      `json:"paid_date"`
	AccountNumber      string          `json:"account_number"`
	AccountType        string          `json:"account_type"`
	IFSC               string          `gorm:"column:ifsc" json:"ifsc"`
	HolderName         string          `json:"holder_name"`
	Frequency          string          `json:"frequency"`
	RegistrationStatus string          `json:"registration_status"`
	BankStatusMessage  string          `json:"bank_status_message"`
	EnquiryPayload     datatypes.JSON  `json:"-"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}
