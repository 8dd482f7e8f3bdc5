package mandate

import (
	"context"
	"errors"
	"fmt"

	"emandate/internal/codec"
	apperrors "emandate/internal/errors"
	"emandate/internal/gateway"
	"emandate/internal/models"
	"emandate/internal/services/calculator"

	"golang.org/x/sync/errgroup"
)

// Webhook handles the gateway callback for gatewayID. The enquiry result is
// written to the outbox before the response is built; applying it to the
// transaction happens asynchronously.
func (s *Service) Webhook(ctx context.Context, gatewayID string) string {
	fc := &FailureContext{}
	url, err := s.webhook(ctx, gatewayID, fc)
	if err != nil {
		s.log.Error().Err(err).
			Str("gateway_id", gatewayID).
			Str("transaction_id", fc.TransactionID).
			Msg("mandate webhook failed")
		s.metrics.RecordWebhook("failed")
		s.recoverContext(ctx, gatewayID, fc)
		return s.FailureRedirect(fc, err)
	}
	s.metrics.RecordWebhook("redirected")
	return url
}

func (s *Service) webhook(ctx context.Context, gatewayID string, fc *FailureContext) (string, error) {
	result, err := s.deps.Gateway.MandateEnquiry(ctx, gatewayID)
	if err != nil {
		return "", err
	}
	fillFromEnquiry(fc, result)
	transition(s.log, StateEnquiryFetched, map[string]interface{}{
		"gateway_id":          gatewayID,
		"consumer_id":         result.ConsumerID,
		"registration_status": result.RegistrationStatus,
	})

	txn, err := s.resolveTransaction(ctx, gatewayID, result)
	if err != nil {
		return "", err
	}
	fc.TransactionID = txn.TransactionID
	fc.ClientTxnID = txn.ClientTransactionID
	fc.SabpaisaTxnID = txn.SabpaisaTxnID
	fc.Amount = txn.Amount.String()

	user, err := s.deps.Users.GetByUserID(ctx, txn.UserID)
	if err != nil {
		return "", err
	}

	if _, err := s.deps.Outbox.Enqueue(ctx, txn.TransactionID, gatewayID, result); err != nil {
		// The callback already happened at the bank; answer it and let a
		// later enquiry reconcile.
		s.log.Error().Err(err).Str("transaction_id", txn.TransactionID).Msg("failed to enqueue reconciliation")
		s.metrics.RecordTaskResult("enqueue_failed")
	}

	var (
		current  *models.Transaction
		merchant *models.Merchant
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		current, err = s.deps.Transactions.GetByTransactionID(gctx, txn.TransactionID)
		return err
	})
	g.Go(func() error {
		var err error
		merchant, err = s.deps.Merchants.GetByID(gctx, txn.MerchantID)
		return err
	})
	if err := g.Wait(); err != nil {
		return "", fmt.Errorf("failed to load response context: %w", err)
	}
	fc.Merchant = merchant

	return s.redirect(merchant, responsePayload(current, merchant, user, result)), nil
}

// resolveTransaction looks up the unique gateway mandate id first and falls
// back to the most recent transaction carrying the consumer id.
func (s *Service) resolveTransaction(ctx context.Context, gatewayID string, result *gateway.EnquiryResult) (*models.Transaction, error) {
	if result.MandateID != "" {
		txn, err := s.deps.Transactions.GetByGatewayMandateID(ctx, result.MandateID)
		if err == nil {
			return txn, nil
		}
		if !errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
	}

	consumerID := result.ConsumerID
	if consumerID == "" {
		consumerID = gatewayID
	}
	s.log.Debug().Str("consumer_id", consumerID).Msg("correlating by most recent transaction")
	return s.deps.Transactions.LatestBySabpaisaTxnID(ctx, consumerID)
}

// recoverContext fills missing identifiers from a second enquiry. Errors are
// ignored.
func (s *Service) recoverContext(ctx context.Context, gatewayID string, fc *FailureContext) {
	if fc.SabpaisaTxnID != "" && fc.TransactionID != "" {
		return
	}
	result, err := s.deps.Gateway.MandateEnquiry(ctx, gatewayID)
	if err != nil {
		s.log.Debug().Err(err).Str("gateway_id", gatewayID).Msg("recovery enquiry failed")
		return
	}
	fillFromEnquiry(fc, result)
}

func fillFromEnquiry(fc *FailureContext, result *gateway.EnquiryResult) {
	if fc.SabpaisaTxnID == "" {
		fc.SabpaisaTxnID = result.ConsumerID
	}
	if fc.ClientTxnID == "" {
		fc.ClientTxnID = result.ClientTransactionID
	}
	if fc.MandateID == "" {
		fc.MandateID = result.MandateID
	}
	if fc.Amount == "" && !result.Amount.IsZero() {
		fc.Amount = result.Amount.String()
	}
}

// responsePayload maps the enquiry onto the return payload. Start, end and
// purpose come from the transaction, and internal ids are sent as null.
func responsePayload(txn *models.Transaction, merchant *models.Merchant, user *models.User, result *gateway.EnquiryResult) *codec.Payload {
	p := codec.NewPayload()
	p.Set("mandateStatus", MapRegistrationStatus(result.RegistrationStatus))
	setOrNull(p, "registrationStatus", result.RegistrationStatus)
	setOrNull(p, "bankStatusMessage", result.BankStatusMessage)
	setOrNull(p, "umrn", result.UMRN)
	setOrNull(p, "mandateId", result.MandateID)
	setOrNull(p, "transactionId", txn.TransactionID)
	setOrNull(p, "clientTxnId", txn.ClientTransactionID)
	setOrNull(p, "sabpaisaTxnId", txn.SabpaisaTxnID)
	setOrNull(p, "clientCode", merchant.MerchantCode)
	setOrNull(p, "clientName", merchant.Name)
	setOrNull(p, "payerName", user.Name)
	setOrNull(p, "payerEmail", user.Email)
	setOrNull(p, "payerMobile", user.Mobile)
	p.Set("amount", txn.Amount.String())
	p.Set("emiAmount", txn.MonthlyEMI.String())
	p.Set("maxAmount", txn.MaxAmount.String())
	if txn.Frequency == "" {
		p.SetNull("frequency")
	} else {
		p.Set("frequency", calculator.ResolveFrequency(txn.Frequency).Label)
	}
	setOrNull(p, "startDate", formatDate(txn.StartDate))
	setOrNull(p, "endDate", formatDate(txn.EndDate))
	setOrNull(p, "purpose", txn.Purpose)
	setOrNull(p, "bankName", result.BankName)
	setOrNull(p, "accountNumber", result.AccountNumber)
	setOrNull(p, "accountType", result.AccountType)
	setOrNull(p, "ifscCode", result.IFSC)
	setOrNull(p, "accountHolderName", result.AccountHolderName)
	p.SetNull("userId")
	p.SetNull("merchantId")
	p.SetNull("id")
	return p
}
