package mandate

import (
	"context"
	"testing"
	"time"

	"emandate/internal/gateway"
	"emandate/internal/models"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

var reconcileNow = time.Date(2024, 3, 11, 8, 0, 0, 0, time.UTC)

func newTestReconciler(tasks *MockTasks, txns *MockTransactions) *Reconciler {
	r := NewReconciler(tasks, txns, ReconcilerConfig{
		MaxAttempts: 3,
		Lease:       time.Minute,
		Backoff:     10 * time.Second,
		BatchSize:   10,
	}, nil, zerolog.Nop())
	r.now = func() time.Time { return reconcileNow }
	return r
}

func pendingTask(id uint, attempts int) models.ReconciliationTask {
	return models.ReconciliationTask{
		ID:            id,
		TransactionID: "txn-1",
		GatewayID:     "SP-1",
		Payload:       datatypes.JSON(`{"consumer_id":"SP-1","registration_status":"REGISTERED","amount":"375","ifsc_code":"HDFC0000001","start_date":"2024-04-05"}`),
		Status:        models.TaskStatusPending,
		Attempts:      attempts,
	}
}

func TestReconciler_Enqueue(t *testing.T) {
	tasks := new(MockTasks)
	r := newTestReconciler(tasks, new(MockTransactions))
	result := &gateway.EnquiryResult{ConsumerID: "SP-1", Raw: []byte(`{"consumer_id":"SP-1"}`)}

	tasks.On("Create", mock.Anything, mock.MatchedBy(func(task *models.ReconciliationTask) bool {
		return task.TransactionID == "txn-1" &&
			task.GatewayID == "SP-1" &&
			string(task.Payload) == `{"consumer_id":"SP-1"}` &&
			task.Status == models.TaskStatusPending &&
			task.NextAttemptAt.Equal(reconcileNow)
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*models.ReconciliationTask).ID = 42
	}).Return(nil)

	task, err := r.Enqueue(context.Background(), "txn-1", "SP-1", result)

	require.NoError(t, err)
	assert.Equal(t, uint(42), task.ID)
	select {
	case id := <-r.notify:
		assert.Equal(t, uint(42), id)
	default:
		t.Fatal("worker was not notified")
	}
}

func TestReconciler_EnqueueNeverBlocks(t *testing.T) {
	tasks := new(MockTasks)
	r := newTestReconciler(tasks, new(MockTransactions))
	tasks.On("Create", mock.Anything, mock.Anything).Return(nil)

	for i := 0; i < cap(r.notify)+5; i++ {
		_, err := r.Enqueue(context.Background(), "txn-1", "SP-1", &gateway.EnquiryResult{ConsumerID: "SP-1"})
		require.NoError(t, err)
	}
	assert.Equal(t, cap(r.notify), len(r.notify))
}

func TestReconciler_Apply(t *testing.T) {
	txns := new(MockTransactions)
	r := newTestReconciler(new(MockTasks), txns)
	task := pendingTask(1, 1)

	txns.On("GetByTransactionID", mock.Anything, "txn-1").Return(webhookTransaction(), nil)
	txns.On("ApplyReconciliation", mock.Anything, "txn-1", models.TransactionStatusActive,
		mock.MatchedBy(func(m *models.UserMandate) bool {
			return m.UserID == "u-1" &&
				m.IFSC == "HDFC0000001" &&
				m.Amount.Equal(decimal.NewFromInt(375)) &&
				m.RegistrationStatus == "REGISTERED" &&
				m.DueDate != nil && m.DueDate.Format("2006-01-02") == "2024-04-05" &&
				m.Frequency == "MNTH" &&
				string(m.EnquiryPayload) == string(task.Payload)
		})).Return(nil).Twice()

	require.NoError(t, r.Apply(context.Background(), &task))
	// Redelivery applies the same write.
	require.NoError(t, r.Apply(context.Background(), &task))
	txns.AssertExpectations(t)
}

func TestReconciler_Relay(t *testing.T) {
	t.Run("applies due tasks", func(t *testing.T) {
		tasks := new(MockTasks)
		txns := new(MockTransactions)
		r := newTestReconciler(tasks, txns)

		tasks.On("FailExhausted", mock.Anything, reconcileNow, 3).Return(int64(0), nil)
		tasks.On("ListDue", mock.Anything, reconcileNow, 3, 10).Return([]models.ReconciliationTask{pendingTask(1, 0)}, nil)
		tasks.On("Claim", mock.Anything, mock.Anything, reconcileNow.Add(time.Minute)).Return(true, nil)
		txns.On("GetByTransactionID", mock.Anything, "txn-1").Return(webhookTransaction(), nil)
		txns.On("ApplyReconciliation", mock.Anything, "txn-1", models.TransactionStatusActive, mock.Anything).Return(nil)
		tasks.On("MarkDone", mock.Anything, uint(1)).Return(nil)

		r.Relay(context.Background())

		tasks.AssertExpectations(t)
		txns.AssertExpectations(t)
	})

	t.Run("skips tasks claimed elsewhere", func(t *testing.T) {
		tasks := new(MockTasks)
		txns := new(MockTransactions)
		r := newTestReconciler(tasks, txns)

		tasks.On("FailExhausted", mock.Anything, reconcileNow, 3).Return(int64(0), nil)
		tasks.On("ListDue", mock.Anything, reconcileNow, 3, 10).Return([]models.ReconciliationTask{pendingTask(1, 0)}, nil)
		tasks.On("Claim", mock.Anything, mock.Anything, mock.Anything).Return(false, nil)

		r.Relay(context.Background())

		txns.AssertNotCalled(t, "GetByTransactionID", mock.Anything, mock.Anything)
		tasks.AssertNotCalled(t, "MarkDone", mock.Anything, mock.Anything)
	})

	t.Run("failed apply is retried with linear backoff", func(t *testing.T) {
		tasks := new(MockTasks)
		txns := new(MockTransactions)
		r := newTestReconciler(tasks, txns)

		tasks.On("FailExhausted", mock.Anything, reconcileNow, 3).Return(int64(0), nil)
		tasks.On("ListDue", mock.Anything, reconcileNow, 3, 10).Return([]models.ReconciliationTask{pendingTask(1, 1)}, nil)
		tasks.On("Claim", mock.Anything, mock.Anything, mock.Anything).Return(true, nil)
		txns.On("GetByTransactionID", mock.Anything, "txn-1").Return(nil, assert.AnError)
		tasks.On("MarkRetry", mock.Anything, uint(1), mock.Anything, reconcileNow.Add(20*time.Second)).Return(nil)

		r.Relay(context.Background())

		tasks.AssertExpectations(t)
	})

	t.Run("exhausted task is marked failed", func(t *testing.T) {
		tasks := new(MockTasks)
		txns := new(MockTransactions)
		r := newTestReconciler(tasks, txns)

		tasks.On("FailExhausted", mock.Anything, reconcileNow, 3).Return(int64(0), nil)
		tasks.On("ListDue", mock.Anything, reconcileNow, 3, 10).Return([]models.ReconciliationTask{pendingTask(1, 2)}, nil)
		tasks.On("Claim", mock.Anything, mock.Anything, mock.Anything).Return(true, nil)
		txns.On("GetByTransactionID", mock.Anything, "txn-1").Return(nil, assert.AnError)
		tasks.On("MarkFailed", mock.Anything, uint(1), assert.AnError.Error()).Return(nil)

		r.Relay(context.Background())

		tasks.AssertExpectations(t)
		tasks.AssertNotCalled(t, "MarkRetry", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("task abandoned on its last lease is failed", func(t *testing.T) {
		tasks := new(MockTasks)
		txns := new(MockTransactions)
		r := newTestReconciler(tasks, txns)

		tasks.On("FailExhausted", mock.Anything, reconcileNow, 3).Return(int64(1), nil).Once()
		tasks.On("ListDue", mock.Anything, reconcileNow, 3, 10).Return([]models.ReconciliationTask{}, nil).Once()

		r.Relay(context.Background())

		tasks.AssertExpectations(t)
		tasks.AssertNotCalled(t, "Claim", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("expiry failure does not stop the relay", func(t *testing.T) {
		tasks := new(MockTasks)
		txns := new(MockTransactions)
		r := newTestReconciler(tasks, txns)

		tasks.On("FailExhausted", mock.Anything, reconcileNow, 3).Return(int64(0), assert.AnError).Once()
		tasks.On("ListDue", mock.Anything, reconcileNow, 3, 10).Return([]models.ReconciliationTask{}, nil).Once()

		r.Relay(context.Background())

		tasks.AssertExpectations(t)
	})
}

func TestReconciler_Run(t *testing.T) {
	tasks := new(MockTasks)
	txns := new(MockTransactions)
	r := newTestReconciler(tasks, txns)
	done := make(chan struct{})

	task := pendingTask(5, 0)
	tasks.On("GetByID", mock.Anything, uint(5)).Return(&task, nil)
	tasks.On("Claim", mock.Anything, mock.Anything, mock.Anything).Return(true, nil)
	txns.On("GetByTransactionID", mock.Anything, "txn-1").Return(webhookTransaction(), nil)
	txns.On("ApplyReconciliation", mock.Anything, "txn-1", models.TransactionStatusActive, mock.Anything).Return(nil)
	tasks.On("MarkDone", mock.Anything, uint(5)).Run(func(mock.Arguments) { close(done) }).Return(nil)

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(stopped)
	}()

	r.notify <- 5
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("task was not processed")
	}

	cancel()
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestReconciler_Schedule(t *testing.T) {
	r := newTestReconciler(new(MockTasks), new(MockTransactions))

	c, err := r.Schedule(context.Background(), "@every 1m")
	require.NoError(t, err)
	assert.Len(t, c.Entries(), 1)

	_, err = r.Schedule(context.Background(), "not a schedule")
	assert.Error(t, err)
}
