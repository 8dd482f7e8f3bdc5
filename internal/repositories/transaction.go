package repositories

import (
	"context"

	"emandate/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TransactionRepository interface {
	GetByTransactionID(ctx context.Context, transactionID string) (*models.Transaction, error)
	// GetByGatewayMandateID resolves through the unique correlation index.
	GetByGatewayMandateID(ctx context.Context, gatewayMandateID string) (*models.Transaction, error)
	// LatestBySabpaisaTxnID returns the most recently created transaction for
	// a correlation id that may repeat across retries.
	LatestBySabpaisaTxnID(ctx context.Context, sabpaisaTxnID string) (*models.Transaction, error)
	// Upsert inserts or updates by transaction_id in one statement.
	Upsert(ctx context.Context, tx *models.Transaction) error
	UpdateGatewayResult(ctx context.Context, transactionID, status string, gatewayMandateID *string) error
	// ApplyReconciliation writes the reconciled status and the user mandate
	// atomically. Both writes are keyed by transaction_id and idempotent.
	ApplyReconciliation(ctx context.Context, transactionID, status string, mandate *models.UserMandate) error
	GetMandate(ctx context.Context, transactionID string) (*models.UserMandate, error)
}

type transactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

func (r *transactionRepository) GetByTransactionID(ctx context.Context, transactionID string) (*models.Transaction, error) {
	var tx models.Transaction
	if err := r.db.WithContext(ctx).Where("transaction_id = ?", transactionID).First(&tx).Error; err != nil {
		return nil, notFound(err, "transaction %q not found", transactionID)
	}
	return &tx, nil
}

func (r *transactionRepository) GetByGatewayMandateID(ctx context.Context, gatewayMandateID string) (*models.Transaction, error) {
	var tx models.Transaction
	if err := r.db.WithContext(ctx).Where("gateway_mandate_id = ?", gatewayMandateID).First(&tx).Error; err != nil {
		return nil, notFound(err, "transaction for gateway mandate %q not found", gatewayMandateID)
	}
	return &tx, nil
}

func (r *transactionRepository) LatestBySabpaisaTxnID(ctx context.Context, sabpaisaTxnID string) (*models.Transaction, error) {
	var tx models.Transaction
	err := r.db.WithContext(ctx).
		Where("sabpaisa_txn_id = ?", sabpaisaTxnID).
		Order("created_at DESC").
		Order("id DESC").
		First(&tx).Error
	if err != nil {
		return nil, notFound(err, "transaction for correlation id %q not found", sabpaisaTxnID)
	}
	return &tx, nil
}

func (r *transactionRepository) Upsert(ctx context.Context, tx *models.Transaction) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "transaction_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"client_transaction_id", "sabpaisa_txn_id", "user_id", "merchant_id",
			"amount", "monthly_emi", "max_amount", "start_date", "end_date",
			"purpose", "frequency", "status", "updated_at",
		}),
	}).Create(tx).Error
}

func (r *transactionRepository) UpdateGatewayResult(ctx context.Context, transactionID, status string, gatewayMandateID *string) error {
	updates := map[string]interface{}{"status": status}
	if gatewayMandateID != nil {
		updates["gateway_mandate_id"] = *gatewayMandateID
	}
	result := r.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("transaction_id = ?", transactionID).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return notFound(gorm.ErrRecordNotFound, "transaction %q not found", transactionID)
	}
	return nil
}

func (r *transactionRepository) ApplyReconciliation(ctx context.Context, transactionID, status string, mandate *models.UserMandate) error {
	return r.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		result := db.Model(&models.Transaction{}).
			Where("transaction_id = ?", transactionID).
			Update("status", status)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return notFound(gorm.ErrRecordNotFound, "transaction %q not found", transactionID)
		}

		mandate.TransactionID = transactionID
		return db.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "transaction_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"user_id", "amount", "due_date", "paid_date", "account_number",
				"account_type", "ifsc", "holder_name", "frequency",
				"registration_status", "bank_status_message", "enquiry_payload", "updated_at",
			}),
		}).Create(mandate).Error
	})
}

func (r *transactionRepository) GetMandate(ctx context.Context, transactionID string) (*models.UserMandate, error) {
	var mandate models.UserMandate
	if err := r.db.WithContext(ctx).Where("transaction_id = ?", transactionID).First(&mandate).Error; err != nil {
		return nil, notFound(err, "mandate for transaction %q not found", transactionID)
	}
	return &mandate, nil
}
