package mandate

import (
	"context"
	"time"

	"emandate/internal/gateway"
	"emandate/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) CreateMandate(ctx context.Context, req gateway.CreateMandateRequest) (*gateway.CreateMandateResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.CreateMandateResponse), args.Error(1)
}

func (m *MockGateway) MandateEnquiry(ctx context.Context, id string) (*gateway.EnquiryResult, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.EnquiryResult), args.Error(1)
}

type MockMerchants struct {
	mock.Mock
}

func (m *MockMerchants) GetByID(ctx context.Context, id uint) (*models.Merchant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Merchant), args.Error(1)
}

func (m *MockMerchants) UpsertByCode(ctx context.Context, merchant *models.Merchant) (*models.Merchant, error) {
	args := m.Called(ctx, merchant)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Merchant), args.Error(1)
}

type MockSlabs struct {
	mock.Mock
}

func (m *MockSlabs) FindApplicableSlab(ctx context.Context, merchantID uint, amount decimal.Decimal) (*models.MerchantSlab, error) {
	args := m.Called(ctx, merchantID, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MerchantSlab), args.Error(1)
}

type MockUsers struct {
	mock.Mock
}

func (m *MockUsers) GetByUserID(ctx context.Context, userID string) (*models.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUsers) UpsertByEmail(ctx context.Context, user *models.User) (*models.User, error) {
	args := m.Called(ctx, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

type MockTransactions struct {
	mock.Mock
}

func (m *MockTransactions) GetByTransactionID(ctx context.Context, transactionID string) (*models.Transaction, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Transaction), args.Error(1)
}

func (m *MockTransactions) GetByGatewayMandateID(ctx context.Context, gatewayMandateID string) (*models.Transaction, error) {
	args := m.Called(ctx, gatewayMandateID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Transaction), args.Error(1)
}

func (m *MockTransactions) LatestBySabpaisaTxnID(ctx context.Context, sabpaisaTxnID string) (*models.Transaction, error) {
	args := m.Called(ctx, sabpaisaTxnID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Transaction), args.Error(1)
}

func (m *MockTransactions) Upsert(ctx context.Context, tx *models.Transaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockTransactions) UpdateGatewayResult(ctx context.Context, transactionID, status string, gatewayMandateID *string) error {
	args := m.Called(ctx, transactionID, status, gatewayMandateID)
	return args.Error(0)
}

func (m *MockTransactions) ApplyReconciliation(ctx context.Context, transactionID, status string, mandate *models.UserMandate) error {
	args := m.Called(ctx, transactionID, status, mandate)
	return args.Error(0)
}

type MockTasks struct {
	mock.Mock
}

func (m *MockTasks) Create(ctx context.Context, task *models.ReconciliationTask) error {
	args := m.Called(ctx, task)
	return args.Error(0)
}

func (m *MockTasks) GetByID(ctx context.Context, id uint) (*models.ReconciliationTask, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ReconciliationTask), args.Error(1)
}

func (m *MockTasks) ListDue(ctx context.Context, now time.Time, maxAttempts, limit int) ([]models.ReconciliationTask, error) {
	args := m.Called(ctx, now, maxAttempts, limit)
	return args.Get(0).([]models.ReconciliationTask), args.Error(1)
}

func (m *MockTasks) Claim(ctx context.Context, task *models.ReconciliationTask, leaseUntil time.Time) (bool, error) {
	args := m.Called(ctx, task, leaseUntil)
	if args.Bool(0) {
		task.Attempts++
	}
	return args.Bool(0), args.Error(1)
}

func (m *MockTasks) MarkDone(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockTasks) MarkRetry(ctx context.Context, id uint, lastErr string, next time.Time) error {
	args := m.Called(ctx, id, lastErr, next)
	return args.Error(0)
}

func (m *MockTasks) MarkFailed(ctx context.Context, id uint, lastErr string) error {
	args := m.Called(ctx, id, lastErr)
	return args.Error(0)
}

func (m *MockTasks) FailExhausted(ctx context.Context, now time.Time, maxAttempts int) (int64, error) {
	args := m.Called(ctx, now, maxAttempts)
	return args.Get(0).(int64), args.Error(1)
}

type MockOutbox struct {
	mock.Mock
}

func (m *MockOutbox) Enqueue(ctx context.Context, transactionID, gatewayID string, result *gateway.EnquiryResult) (*models.ReconciliationTask, error) {
	args := m.Called(ctx, transactionID, gatewayID, result)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ReconciliationTask), args.Error(1)
}
