package mandate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"emandate/internal/codec"
	apperrors "emandate/internal/errors"
	"emandate/internal/gateway"
	"emandate/internal/models"
	"emandate/internal/services/calculator"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	// ResponseParam carries the encrypted result on every return redirect.
	ResponseParam = "enachResponse"
	webhookPath   = "/mandate/web-hook/"
)

type Config struct {
	ReturnURL      string
	WebhookBaseURL string
}

// Dependencies are the collaborators of Service. Metrics may be nil.
type Dependencies struct {
	Codecs       Codecs
	Gateway      Gateway
	Merchants    MerchantStore
	Slabs        SlabFinder
	Users        UserStore
	Transactions TransactionStore
	Outbox       Enqueuer
	Metrics      MetricsCollector
}

// Service runs the create and webhook paths of a mandate. Neither path
// returns an error: every failure becomes an encrypted failure redirect.
type Service struct {
	deps    Dependencies
	config  Config
	log     zerolog.Logger
	now     func() time.Time
	metrics MetricsCollector
}

func NewService(deps Dependencies, cfg Config, log zerolog.Logger) *Service {
	if deps.Codecs == nil || deps.Gateway == nil || deps.Merchants == nil || deps.Slabs == nil ||
		deps.Users == nil || deps.Transactions == nil || deps.Outbox == nil {
		panic("mandate: missing dependency")
	}
	metrics := deps.Metrics
	if metrics == nil {
		metrics = NoopMetricsCollector{}
	}
	return &Service{
		deps:    deps,
		config:  cfg,
		log:     log.With().Str("component", "mandate").Logger(),
		now:     time.Now,
		metrics: metrics,
	}
}

// FailureContext holds whatever identifiers a request produced before it
// failed.
type FailureContext struct {
	ClientCode    string
	ClientTxnID   string
	SabpaisaTxnID string
	TransactionID string
	MandateID     string
	Amount        string
	PayerEmail    string
	Merchant      *models.Merchant
}

// Create decrypts the inbound request, records the transaction and registers
// the mandate at the gateway. It returns the bank selection URL, or the
// failure redirect.
func (s *Service) Create(ctx context.Context, encReq string) string {
	fc := &FailureContext{}
	url, err := s.create(ctx, encReq, fc)
	if err != nil {
		s.log.Error().Err(err).
			Str("client_code", fc.ClientCode).
			Str("client_txn_id", fc.ClientTxnID).
			Str("transaction_id", fc.TransactionID).
			Msg("mandate create failed")
		s.metrics.RecordCreate("failed")
		return s.FailureRedirect(fc, err)
	}
	s.metrics.RecordCreate("redirected")
	return url
}

func (s *Service) create(ctx context.Context, encReq string, fc *FailureContext) (string, error) {
	payload, err := s.deps.Codecs.Decode(codec.VersionLegacy, encReq)
	if err != nil {
		s.recordCodecFailure(codec.VersionLegacy, err)
		return "", err
	}
	req, err := parseCreateRequest(payload)
	fc.ClientCode = req.ClientCode
	fc.ClientTxnID = req.ClientTxnID
	fc.SabpaisaTxnID = req.SabpaisaTxnID
	fc.PayerEmail = req.PayerEmail
	fc.Amount = field(payload, keyAmount)
	if err != nil {
		return "", err
	}
	transition(s.log, StateInitiated, map[string]interface{}{
		"client_code":   req.ClientCode,
		"client_txn_id": req.ClientTxnID,
	})

	name := req.ClientName
	if name == "" {
		name = req.ClientCode
	}
	merchant, err := s.deps.Merchants.UpsertByCode(ctx, &models.Merchant{
		MerchantCode: req.ClientCode,
		Name:         name,
		Status:       models.MerchantStatusActive,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upsert merchant: %w", err)
	}
	fc.Merchant = merchant

	slab, err := s.deps.Slabs.FindApplicableSlab(ctx, merchant.ID, req.Amount)
	if err != nil {
		return "", err
	}

	user, err := s.deps.Users.UpsertByEmail(ctx, &models.User{
		UserID: uuid.NewString(),
		Name:   req.PayerName,
		Mobile: req.PayerMobile,
		Email:  req.PayerEmail,
		PAN:    req.PayerPAN,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upsert user: %w", err)
	}
	transition(s.log, StateMerchantUserResolved, map[string]interface{}{
		"merchant_id": merchant.ID,
		"user_id":     user.UserID,
	})
	transition(s.log, StateSlabResolved, map[string]interface{}{"slab_id": slab.ID})

	now := s.now()
	start, end := calculator.MandateWindow(*slab, now)
	emi, maxAmount := req.Amount, req.Amount
	if slab.EMITenure > 0 {
		terms, err := calculator.Calculate(*slab, req.Amount, now)
		if err != nil {
			return "", err
		}
		emi, maxAmount = terms.EMIAmount, terms.TotalPayable
	}

	// A slab without a frequency was not priced on a schedule.
	frequency := ""
	if slab.Frequency != "" {
		frequency = calculator.ResolveFrequency(slab.Frequency).Code
	}

	consumerID := req.SabpaisaTxnID
	txn := &models.Transaction{
		TransactionID:       uuid.NewString(),
		ClientTransactionID: req.ClientTxnID,
		UserID:              user.UserID,
		MerchantID:          merchant.ID,
		Amount:              req.Amount,
		MonthlyEMI:          emi,
		MaxAmount:           maxAmount,
		StartDate:           &start,
		EndDate:             end,
		Purpose:             req.Purpose,
		Frequency:           frequency,
		Status:              models.TransactionStatusInitiated,
	}
	if consumerID == "" {
		consumerID = txn.TransactionID
	}
	txn.SabpaisaTxnID = consumerID
	if txn.Purpose == "" {
		txn.Purpose = slab.MandateCategory
	}
	if err := s.deps.Transactions.Upsert(ctx, txn); err != nil {
		return "", fmt.Errorf("failed to record transaction: %w", err)
	}
	fc.TransactionID = txn.TransactionID
	fc.SabpaisaTxnID = consumerID
	transition(s.log, StateTransactionRecorded, map[string]interface{}{"transaction_id": txn.TransactionID})

	gwReq := gateway.CreateMandateRequest{
		ConsumerID:          consumerID,
		TransactionID:       txn.TransactionID,
		ClientTransactionID: txn.ClientTransactionID,
		ClientCode:          merchant.MerchantCode,
		CustomerName:        user.Name,
		CustomerEmail:       user.Email,
		CustomerMobile:      user.Mobile,
		CustomerPAN:         user.PAN,
		Amount:              txn.Amount,
		InstalmentAmount:    txn.MonthlyEMI,
		MaxAmount:           txn.MaxAmount,
		Frequency:           txn.Frequency,
		StartDate:           start.Format(calculator.DateLayout),
		Purpose:             txn.Purpose,
		MandateCategory:     slab.MandateCategory,
		RedirectURL:         strings.TrimRight(s.config.WebhookBaseURL, "/") + webhookPath + consumerID,
	}
	if end != nil {
		gwReq.EndDate = end.Format(calculator.DateLayout)
	}

	resp, err := s.deps.Gateway.CreateMandate(ctx, gwReq)
	if err != nil {
		if uerr := s.deps.Transactions.UpdateGatewayResult(ctx, txn.TransactionID, models.TransactionStatusFailed, nil); uerr != nil {
			s.log.Warn().Err(uerr).Str("transaction_id", txn.TransactionID).Msg("failed to mark transaction failed")
		}
		return "", err
	}

	var mandateID *string
	if resp.MandateID != "" {
		mandateID = &resp.MandateID
		fc.MandateID = resp.MandateID
	}
	if err := s.deps.Transactions.UpdateGatewayResult(ctx, txn.TransactionID, models.TransactionStatusRedirected, mandateID); err != nil {
		// The mandate exists at the gateway; the webhook can still correlate
		// through the consumer id.
		s.log.Warn().Err(err).Str("transaction_id", txn.TransactionID).Msg("failed to record gateway result")
	}
	transition(s.log, StateGatewayRedirectIssued, map[string]interface{}{
		"transaction_id": txn.TransactionID,
		"mandate_id":     resp.MandateID,
	})
	return resp.BankDetailsURL, nil
}

// FailureRedirect builds the return redirect for a failed request. The
// payload is Scheme A encrypted and always carries mandateStatus=FAILED.
func (s *Service) FailureRedirect(fc *FailureContext, cause error) string {
	p := codec.NewPayload()
	p.Set("mandateStatus", models.TransactionStatusFailed)
	p.Set("statusCode", apperrors.Code(cause))
	p.Set("message", failureMessage(cause))
	setOrNull(p, "clientCode", fc.ClientCode)
	setOrNull(p, "clientTxnId", fc.ClientTxnID)
	setOrNull(p, "sabpaisaTxnId", fc.SabpaisaTxnID)
	setOrNull(p, "transactionId", fc.TransactionID)
	setOrNull(p, "mandateId", fc.MandateID)
	setOrNull(p, "amount", fc.Amount)
	setOrNull(p, "payerEmail", fc.PayerEmail)

	return s.redirect(fc.Merchant, p)
}

func (s *Service) redirect(merchant *models.Merchant, p *codec.Payload) string {
	target := s.config.ReturnURL
	if merchant != nil && merchant.ReturnURL != "" {
		target = merchant.ReturnURL
	}
	sep := "?"
	if strings.Contains(target, "?") {
		sep = "&"
	}

	// Scheme A output is already percent-encoded.
	wire, err := s.deps.Codecs.Encode(codec.VersionLegacy, p)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to encrypt redirect payload")
		return target + sep + ResponseParam + "="
	}
	return target + sep + ResponseParam + "=" + wire
}

func (s *Service) recordCodecFailure(v codec.Version, err error) {
	kind := string(apperrors.KindOf(err))
	if kind == "" {
		kind = "unknown"
	}
	s.metrics.RecordCodecFailure(string(v), kind)
}

// failureMessage exposes domain messages only.
func failureMessage(err error) string {
	var de *apperrors.DomainError
	if errors.As(err, &de) {
		return de.Message
	}
	return "mandate processing failed"
}

func setOrNull(p *codec.Payload, key, value string) {
	if value == "" {
		p.SetNull(key)
		return
	}
	p.Set(key, value)
}
