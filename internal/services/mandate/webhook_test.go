package mandate

import (
	"context"
	"sync"
	"testing"
	"time"

	apperrors "emandate/internal/errors"
	"emandate/internal/gateway"
	"emandate/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func webhookTransaction() *models.Transaction {
	start := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(1, 0, 0)
	return &models.Transaction{
		TransactionID:       "txn-1",
		ClientTransactionID: "CT-1",
		SabpaisaTxnID:       "SP-1",
		UserID:              "u-1",
		MerchantID:          1,
		Amount:              decimal.NewFromInt(5000),
		MonthlyEMI:          decimal.NewFromInt(375),
		MaxAmount:           decimal.NewFromInt(5125),
		StartDate:           &start,
		EndDate:             &end,
		Purpose:             "Loan EMI",
		Frequency:           "MNTH",
		Status:              models.TransactionStatusRedirected,
	}
}

func enquiryResult() *gateway.EnquiryResult {
	return &gateway.EnquiryResult{
		ConsumerID:         "SP-1",
		MandateID:          "GM-1",
		RegistrationStatus: "SUCCESS",
		BankStatusMessage:  "Mandate registered",
		UMRN:               "UMRN0001",
		BankName:           "HDFC Bank",
		AccountNumber:      "001122334455",
		AccountType:        "SAVINGS",
		IFSC:               "HDFC0000001",
		AccountHolderName:  "Asha Rao",
		StartDate:          "2031-01-01",
		EndDate:            "2039-01-01",
		Purpose:            "enquiry purpose",
	}
}

func TestService_Webhook_EnqueuesThenResponds(t *testing.T) {
	f := newFixture(t)
	txn := webhookTransaction()
	result := enquiryResult()

	var (
		mu    sync.Mutex
		order []string
	)
	record := func(step string) func(mock.Arguments) {
		return func(mock.Arguments) {
			mu.Lock()
			defer mu.Unlock()
			order = append(order, step)
		}
	}

	f.gateway.On("MandateEnquiry", mock.Anything, "SP-1").Return(result, nil).Once()
	f.transactions.On("GetByGatewayMandateID", mock.Anything, "GM-1").Return(txn, nil)
	f.users.On("GetByUserID", mock.Anything, "u-1").
		Return(&models.User{UserID: "u-1", Name: "Asha Rao", Email: "asha@example.com"}, nil)
	f.outbox.On("Enqueue", mock.Anything, "txn-1", "SP-1", result).
		Run(record("enqueue")).
		Return(&models.ReconciliationTask{ID: 7}, nil)
	f.transactions.On("GetByTransactionID", mock.Anything, "txn-1").
		Run(record("reload")).
		Return(txn, nil)
	f.merchants.On("GetByID", mock.Anything, uint(1)).
		Return(&models.Merchant{ID: 1, MerchantCode: "MRC1", Name: "Merchant One"}, nil)

	redirect := f.service.Webhook(context.Background(), "SP-1")

	base, p := f.decodeRedirect(t, redirect)
	assert.Equal(t, testReturnURL, base)
	assert.Equal(t, []string{"enqueue", "reload"}, order)

	assert.Equal(t, models.TransactionStatusActive, p.Get("mandateStatus"))
	assert.Equal(t, "SUCCESS", p.Get("registrationStatus"))
	assert.Equal(t, "txn-1", p.Get("transactionId"))
	assert.Equal(t, "MRC1", p.Get("clientCode"))
	assert.Equal(t, "UMRN0001", p.Get("umrn"))
	assert.Equal(t, "HDFC0000001", p.Get("ifscCode"))
	assert.Equal(t, "Monthly", p.Get("frequency"))
	// Echoed from the transaction, not the enquiry.
	assert.Equal(t, "2024-03-10", p.Get("startDate"))
	assert.Equal(t, "2025-03-10", p.Get("endDate"))
	assert.Equal(t, "Loan EMI", p.Get("purpose"))
	assertNull(t, p, "userId")
	assertNull(t, p, "merchantId")
	assertNull(t, p, "id")
	f.assertExpectations(t)
}

func TestService_Webhook_FallsBackToMostRecentTransaction(t *testing.T) {
	f := newFixture(t)
	txn := webhookTransaction()
	result := enquiryResult()

	f.gateway.On("MandateEnquiry", mock.Anything, "SP-1").Return(result, nil)
	f.transactions.On("GetByGatewayMandateID", mock.Anything, "GM-1").
		Return(nil, apperrors.NotFound("transaction for gateway mandate GM-1 not found"))
	f.transactions.On("LatestBySabpaisaTxnID", mock.Anything, "SP-1").Return(txn, nil)
	f.users.On("GetByUserID", mock.Anything, "u-1").Return(&models.User{UserID: "u-1"}, nil)
	f.outbox.On("Enqueue", mock.Anything, "txn-1", "SP-1", result).Return(&models.ReconciliationTask{ID: 1}, nil)
	f.transactions.On("GetByTransactionID", mock.Anything, "txn-1").Return(txn, nil)
	f.merchants.On("GetByID", mock.Anything, uint(1)).Return(&models.Merchant{ID: 1, MerchantCode: "MRC1"}, nil)

	_, p := f.decodeRedirect(t, f.service.Webhook(context.Background(), "SP-1"))

	assert.Equal(t, models.TransactionStatusActive, p.Get("mandateStatus"))
	f.assertExpectations(t)
}

func TestService_Webhook_UnscheduledMandateHasNullFrequency(t *testing.T) {
	f := newFixture(t)
	txn := webhookTransaction()
	txn.Frequency = ""
	result := enquiryResult()

	f.gateway.On("MandateEnquiry", mock.Anything, "SP-1").Return(result, nil)
	f.transactions.On("GetByGatewayMandateID", mock.Anything, "GM-1").Return(txn, nil)
	f.users.On("GetByUserID", mock.Anything, "u-1").Return(&models.User{UserID: "u-1"}, nil)
	f.outbox.On("Enqueue", mock.Anything, "txn-1", "SP-1", result).Return(&models.ReconciliationTask{ID: 1}, nil)
	f.transactions.On("GetByTransactionID", mock.Anything, "txn-1").Return(txn, nil)
	f.merchants.On("GetByID", mock.Anything, uint(1)).Return(&models.Merchant{ID: 1, MerchantCode: "MRC1"}, nil)

	_, p := f.decodeRedirect(t, f.service.Webhook(context.Background(), "SP-1"))

	assertNull(t, p, "frequency")
	f.assertExpectations(t)
}

func TestService_Webhook_EnqueueFailureStillResponds(t *testing.T) {
	f := newFixture(t)
	txn := webhookTransaction()
	result := enquiryResult()
	result.RegistrationStatus = "PENDING"

	f.gateway.On("MandateEnquiry", mock.Anything, "SP-1").Return(result, nil)
	f.transactions.On("GetByGatewayMandateID", mock.Anything, "GM-1").Return(txn, nil)
	f.users.On("GetByUserID", mock.Anything, "u-1").Return(&models.User{UserID: "u-1"}, nil)
	f.outbox.On("Enqueue", mock.Anything, "txn-1", "SP-1", result).Return(nil, assert.AnError)
	f.transactions.On("GetByTransactionID", mock.Anything, "txn-1").Return(txn, nil)
	f.merchants.On("GetByID", mock.Anything, uint(1)).Return(&models.Merchant{ID: 1}, nil)

	_, p := f.decodeRedirect(t, f.service.Webhook(context.Background(), "SP-1"))

	assert.Equal(t, models.TransactionStatusPending, p.Get("mandateStatus"))
}

func TestService_Webhook_FailureRedirects(t *testing.T) {
	t.Run("unknown transaction recovers ids with a second enquiry", func(t *testing.T) {
		f := newFixture(t)
		result := enquiryResult()
		result.MandateID = ""
		result.ClientTransactionID = "CT-1"

		f.gateway.On("MandateEnquiry", mock.Anything, "SP-1").Return(result, nil).Twice()
		f.transactions.On("LatestBySabpaisaTxnID", mock.Anything, "SP-1").
			Return(nil, apperrors.NotFound("transaction for correlation id SP-1 not found"))

		base, p := f.decodeRedirect(t, f.service.Webhook(context.Background(), "SP-1"))

		assert.Equal(t, testReturnURL, base)
		assert.Equal(t, "FAILED", p.Get("mandateStatus"))
		assert.Equal(t, "NOT_FOUND", p.Get("statusCode"))
		assert.Equal(t, "SP-1", p.Get("sabpaisaTxnId"))
		assert.Equal(t, "CT-1", p.Get("clientTxnId"))
		assertNull(t, p, "transactionId")
		f.gateway.AssertNumberOfCalls(t, "MandateEnquiry", 2)
		f.outbox.AssertNotCalled(t, "Enqueue", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("gateway down", func(t *testing.T) {
		f := newFixture(t)
		f.gateway.On("MandateEnquiry", mock.Anything, "SP-9").
			Return(nil, apperrors.Gateway(nil, "mandate enquiry failed"))

		_, p := f.decodeRedirect(t, f.service.Webhook(context.Background(), "SP-9"))

		assert.Equal(t, "FAILED", p.Get("mandateStatus"))
		assert.Equal(t, "GATEWAY_ERROR", p.Get("statusCode"))
		assertNull(t, p, "sabpaisaTxnId")
		f.gateway.AssertNumberOfCalls(t, "MandateEnquiry", 2)
	})

	t.Run("missing user", func(t *testing.T) {
		f := newFixture(t)
		txn := webhookTransaction()
		f.gateway.On("MandateEnquiry", mock.Anything, "SP-1").Return(enquiryResult(), nil)
		f.transactions.On("GetByGatewayMandateID", mock.Anything, "GM-1").Return(txn, nil)
		f.users.On("GetByUserID", mock.Anything, "u-1").Return(nil, apperrors.NotFound("user u-1 not found"))

		_, p := f.decodeRedirect(t, f.service.Webhook(context.Background(), "SP-1"))

		assert.Equal(t, "FAILED", p.Get("mandateStatus"))
		assert.Equal(t, "txn-1", p.Get("transactionId"))
		assert.Equal(t, "5000", p.Get("amount"))
		f.gateway.AssertNumberOfCalls(t, "MandateEnquiry", 1)
	})
}
