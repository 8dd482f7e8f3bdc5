package mandate

import (
	"context"
	"time"

	"emandate/internal/codec"
	"emandate/internal/gateway"
	"emandate/internal/models"

	"github.com/shopspring/decimal"
)

type Codecs interface {
	Encode(v codec.Version, payload *codec.Payload) (string, error)
	Decode(v codec.Version, wire string) (*codec.Payload, error)
}

type Gateway interface {
	CreateMandate(ctx context.Context, req gateway.CreateMandateRequest) (*gateway.CreateMandateResponse, error)
	MandateEnquiry(ctx context.Context, id string) (*gateway.EnquiryResult, error)
}

type MerchantStore interface {
	GetByID(ctx context.Context, id uint) (*models.Merchant, error)
	UpsertByCode(ctx context.Context, merchant *models.Merchant) (*models.Merchant, error)
}

type SlabFinder interface {
	FindApplicableSlab(ctx context.Context, merchantID uint, amount decimal.Decimal) (*models.MerchantSlab, error)
}

type UserStore interface {
	GetByUserID(ctx context.Context, userID string) (*models.User, error)
	UpsertByEmail(ctx context.Context, user *models.User) (*models.User, error)
}

type TransactionStore interface {
	GetByTransactionID(ctx context.Context, transactionID string) (*models.Transaction, error)
	GetByGatewayMandateID(ctx context.Context, gatewayMandateID string) (*models.Transaction, error)
	LatestBySabpaisaTxnID(ctx context.Context, sabpaisaTxnID string) (*models.Transaction, error)
	Upsert(ctx context.Context, tx *models.Transaction) error
	UpdateGatewayResult(ctx context.Context, transactionID, status string, gatewayMandateID *string) error
	ApplyReconciliation(ctx context.Context, transactionID, status string, mandate *models.UserMandate) error
}

type TaskStore interface {
	Create(ctx context.Context, task *models.ReconciliationTask) error
	GetByID(ctx context.Context, id uint) (*models.ReconciliationTask, error)
	ListDue(ctx context.Context, now time.Time, maxAttempts, limit int) ([]models.ReconciliationTask, error)
	Claim(ctx context.Context, task *models.ReconciliationTask, leaseUntil time.Time) (bool, error)
	MarkDone(ctx context.Context, id uint) error
	MarkRetry(ctx context.Context, id uint, lastErr string, next time.Time) error
	MarkFailed(ctx context.Context, id uint, lastErr string) error
	FailExhausted(ctx context.Context, now time.Time, maxAttempts int) (int64, error)
}

// Enqueuer hands an enquiry result to the reconciliation outbox.
type Enqueuer interface {
	Enqueue(ctx context.Context, transactionID, gatewayID string, result *gateway.EnquiryResult) (*models.ReconciliationTask, error)
}
