package models

import (
	"time"

	"gorm.io/datatypes"
)

// Reconciliation task statuses
const (
	TaskStatusPending = "PENDING"
	TaskStatusDone    = "DONE"
	TaskStatusFailed  = "FAILED"
)

// ReconciliationTask is an outbox row carrying a gateway enquiry result that
// still has to be applied to Transaction and UserMandate.
type ReconciliationTask struct {
	ID            uint           `gorm:"primarykey"`
	TransactionID string         `gorm:"index;not null"`
	GatewayID     string         `gorm:"not null"`
	Payload       datatypes.JSON `gorm:"not null"`
	Status        string         `gorm:"index;not null;default:'PENDING'"`
	Attempts      int            `gorm:"not null;default:0"`
	LastError     string
	NextAttemptAt time.Time `gorm:"index"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
