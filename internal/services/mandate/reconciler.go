package mandate

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"emandate/internal/gateway"
	"emandate/internal/models"
	"emandate/internal/services/calculator"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
)

type ReconcilerConfig struct {
	MaxAttempts int
	// Lease is how long a claimed task stays invisible to the relay.
	Lease time.Duration
	// Backoff is multiplied by the attempt count to schedule a retry.
	Backoff   time.Duration
	BatchSize int
}

// Reconciler applies webhook enquiry results from the outbox. Delivery is at
// least once; Apply is idempotent per transaction.
type Reconciler struct {
	tasks        TaskStore
	transactions TransactionStore
	config       ReconcilerConfig
	metrics      MetricsCollector
	log          zerolog.Logger
	now          func() time.Time
	notify       chan uint
}

func NewReconciler(tasks TaskStore, transactions TransactionStore, cfg ReconcilerConfig, metrics MetricsCollector, log zerolog.Logger) *Reconciler {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.Lease <= 0 {
		cfg.Lease = time.Minute
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = 30 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if metrics == nil {
		metrics = NoopMetricsCollector{}
	}
	return &Reconciler{
		tasks:        tasks,
		transactions: transactions,
		config:       cfg,
		metrics:      metrics,
		log:          log.With().Str("component", "reconciler").Logger(),
		now:          time.Now,
		notify:       make(chan uint, 64),
	}
}

// Enqueue persists the enquiry result and wakes the worker without
// blocking. A full queue is fine; the relay picks the task up.
func (r *Reconciler) Enqueue(ctx context.Context, transactionID, gatewayID string, result *gateway.EnquiryResult) (*models.ReconciliationTask, error) {
	payload := []byte(result.Raw)
	if len(payload) == 0 {
		var err error
		if payload, err = json.Marshal(result); err != nil {
			return nil, fmt.Errorf("failed to marshal enquiry result: %w", err)
		}
	}

	task := &models.ReconciliationTask{
		TransactionID: transactionID,
		GatewayID:     gatewayID,
		Payload:       datatypes.JSON(payload),
		Status:        models.TaskStatusPending,
		NextAttemptAt: r.now(),
	}
	if err := r.tasks.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to persist reconciliation task: %w", err)
	}

	select {
	case r.notify <- task.ID:
	default:
	}
	r.metrics.RecordTaskResult("enqueued")
	return task, nil
}

// Run consumes notifications until ctx is done.
func (r *Reconciler) Run(ctx context.Context) {
	r.log.Info().Msg("reconciliation worker started")
	for {
		select {
		case <-ctx.Done():
			r.log.Info().Msg("reconciliation worker stopped")
			return
		case id := <-r.notify:
			task, err := r.tasks.GetByID(ctx, id)
			if err != nil {
				r.log.Error().Err(err).Uint("task_id", id).Msg("failed to load reconciliation task")
				continue
			}
			if task.Status != models.TaskStatusPending {
				continue
			}
			r.process(ctx, *task)
		}
	}
}

// Relay re-drives pending tasks that are due. It is run by the scheduler.
// Tasks whose final claim was never resolved, because the worker died
// holding the lease, are failed once that lease expires.
func (r *Reconciler) Relay(ctx context.Context) {
	failed, err := r.tasks.FailExhausted(ctx, r.now(), r.config.MaxAttempts)
	if err != nil {
		r.log.Error().Err(err).Msg("failed to expire exhausted reconciliation tasks")
	}
	for i := int64(0); i < failed; i++ {
		r.metrics.RecordTaskResult("failed")
	}
	if failed > 0 {
		r.log.Warn().Int64("count", failed).Msg("exhausted reconciliation tasks marked failed")
	}

	tasks, err := r.tasks.ListDue(ctx, r.now(), r.config.MaxAttempts, r.config.BatchSize)
	if err != nil {
		r.log.Error().Err(err).Msg("failed to list due reconciliation tasks")
		return
	}
	if len(tasks) > 0 {
		r.log.Info().Int("count", len(tasks)).Msg("relaying reconciliation tasks")
	}
	for _, task := range tasks {
		if ctx.Err() != nil {
			return
		}
		r.process(ctx, task)
	}
}

// Schedule registers Relay on a new cron scheduler. The caller starts and
// stops it.
func (r *Reconciler) Schedule(ctx context.Context, spec string) (*cron.Cron, error) {
	c := cron.New()
	if _, err := c.AddFunc(spec, func() { r.Relay(ctx) }); err != nil {
		return nil, fmt.Errorf("invalid relay schedule %q: %w", spec, err)
	}
	return c, nil
}

func (r *Reconciler) process(ctx context.Context, task models.ReconciliationTask) {
	now := r.now()
	claimed, err := r.tasks.Claim(ctx, &task, now.Add(r.config.Lease))
	if err != nil {
		r.log.Error().Err(err).Uint("task_id", task.ID).Msg("failed to claim reconciliation task")
		return
	}
	if !claimed {
		return
	}

	applyErr := r.Apply(ctx, &task)
	if applyErr == nil {
		if err := r.tasks.MarkDone(ctx, task.ID); err != nil {
			r.log.Error().Err(err).Uint("task_id", task.ID).Msg("failed to mark task done")
		}
		r.metrics.RecordTaskResult("done")
		return
	}

	logger := r.log.With().Err(applyErr).Uint("task_id", task.ID).Int("attempts", task.Attempts).Logger()
	if task.Attempts >= r.config.MaxAttempts {
		logger.Error().Msg("reconciliation task exhausted")
		if err := r.tasks.MarkFailed(ctx, task.ID, applyErr.Error()); err != nil {
			logger.Error().AnErr("mark_err", err).Msg("failed to mark task failed")
		}
		r.metrics.RecordTaskResult("failed")
		return
	}

	next := now.Add(r.config.Backoff * time.Duration(task.Attempts))
	logger.Warn().Time("next_attempt_at", next).Msg("reconciliation task will be retried")
	if err := r.tasks.MarkRetry(ctx, task.ID, applyErr.Error(), next); err != nil {
		logger.Error().AnErr("mark_err", err).Msg("failed to reschedule task")
	}
	r.metrics.RecordTaskResult("retry")
}

// Apply writes the task's enquiry result to its transaction and user
// mandate.
func (r *Reconciler) Apply(ctx context.Context, task *models.ReconciliationTask) error {
	var result gateway.EnquiryResult
	if err := json.Unmarshal(task.Payload, &result); err != nil {
		return fmt.Errorf("malformed task payload: %w", err)
	}

	txn, err := r.transactions.GetByTransactionID(ctx, task.TransactionID)
	if err != nil {
		return err
	}

	status := MapRegistrationStatus(result.RegistrationStatus)
	mandate := userMandate(txn, &result, task.Payload)
	if err := r.transactions.ApplyReconciliation(ctx, txn.TransactionID, status, mandate); err != nil {
		return fmt.Errorf("failed to apply reconciliation: %w", err)
	}

	r.metrics.RecordReconciliation(status)
	transition(r.log, StateReconciled, map[string]interface{}{
		"transaction_id": txn.TransactionID,
		"status":         status,
	})
	return nil
}

func userMandate(txn *models.Transaction, result *gateway.EnquiryResult, raw datatypes.JSON) *models.UserMandate {
	amount := txn.MonthlyEMI
	if !result.Amount.IsZero() {
		amount = result.Amount.Decimal
	}
	frequency := txn.Frequency
	if result.Frequency != "" {
		frequency = strings.ToUpper(result.Frequency)
	}

	return &models.UserMandate{
		TransactionID:      txn.TransactionID,
		UserID:             txn.UserID,
		Amount:             amount,
		DueDate:            parseDate(result.StartDate, txn.StartDate),
		AccountNumber:      result.AccountNumber,
		AccountType:        result.AccountType,
		IFSC:               result.IFSC,
		HolderName:         result.AccountHolderName,
		Frequency:          frequency,
		RegistrationStatus: result.RegistrationStatus,
		BankStatusMessage:  result.BankStatusMessage,
		EnquiryPayload:     raw,
	}
}

// parseDate reads a gateway date, falling back when it is blank or
// unparsable.
func parseDate(value string, fallback *time.Time) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback
	}
	for _, layout := range []string{calculator.DateLayout, time.RFC3339, "02-01-2006"} {
		if t, err := time.Parse(layout, value); err == nil {
			return &t
		}
	}
	return fallback
}
