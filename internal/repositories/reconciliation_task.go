package repositories

import (
	"context"
	"time"

	"emandate/internal/models"

	"gorm.io/gorm"
)

// ReconciliationTaskRepository is the outbox of pending webhook writes.
type ReconciliationTaskRepository interface {
	Create(ctx context.Context, task *models.ReconciliationTask) error
	GetByID(ctx context.Context, id uint) (*models.ReconciliationTask, error)
	// ListDue returns pending tasks whose next attempt is due.
	ListDue(ctx context.Context, now time.Time, maxAttempts, limit int) ([]models.ReconciliationTask, error)
	// Claim bumps the attempt counter and leases the task until leaseUntil.
	// It reports false when another worker claimed it first.
	Claim(ctx context.Context, task *models.ReconciliationTask, leaseUntil time.Time) (bool, error)
	MarkDone(ctx context.Context, id uint) error
	MarkRetry(ctx context.Context, id uint, lastErr string, next time.Time) error
	MarkFailed(ctx context.Context, id uint, lastErr string) error
	// FailExhausted marks pending tasks FAILED once their attempts are used
	// up and the last lease has expired. It returns the number of tasks
	// failed.
	FailExhausted(ctx context.Context, now time.Time, maxAttempts int) (int64, error)
}

type reconciliationTaskRepository struct {
	db *gorm.DB
}

func NewReconciliationTaskRepository(db *gorm.DB) ReconciliationTaskRepository {
	return &reconciliationTaskRepository{db: db}
}

func (r *reconciliationTaskRepository) Create(ctx context.Context, task *models.ReconciliationTask) error {
	if task.Status == "" {
		task.Status = models.TaskStatusPending
	}
	if task.NextAttemptAt.IsZero() {
		task.NextAttemptAt = time.Now()
	}
	return r.db.WithContext(ctx).Create(task).Error
}

func (r *reconciliationTaskRepository) GetByID(ctx context.Context, id uint) (*models.ReconciliationTask, error) {
	var task models.ReconciliationTask
	if err := r.db.WithContext(ctx).First(&task, id).Error; err != nil {
		return nil, notFound(err, "reconciliation task %d not found", id)
	}
	return &task, nil
}

func (r *reconciliationTaskRepository) ListDue(ctx context.Context, now time.Time, maxAttempts, limit int) ([]models.ReconciliationTask, error) {
	var tasks []models.ReconciliationTask
	err := r.db.WithContext(ctx).
		Where("status = ? AND next_attempt_at <= ? AND attempts < ?", models.TaskStatusPending, now, maxAttempts).
		Order("id ASC").
		Limit(limit).
		Find(&tasks).Error
	return tasks, err
}

func (r *reconciliationTaskRepository) Claim(ctx context.Context, task *models.ReconciliationTask, leaseUntil time.Time) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.ReconciliationTask{}).
		Where("id = ? AND status = ? AND attempts = ?", task.ID, models.TaskStatusPending, task.Attempts).
		Updates(map[string]interface{}{
			"attempts":        task.Attempts + 1,
			"next_attempt_at": leaseUntil,
		})
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected == 0 {
		return false, nil
	}
	task.Attempts++
	task.NextAttemptAt = leaseUntil
	return true, nil
}

func (r *reconciliationTaskRepository) MarkDone(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Model(&models.ReconciliationTask{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"status": models.TaskStatusDone, "last_error": ""}).Error
}

func (r *reconciliationTaskRepository) MarkRetry(ctx context.Context, id uint, lastErr string, next time.Time) error {
	return r.db.WithContext(ctx).Model(&models.ReconciliationTask{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"last_error": lastErr, "next_attempt_at": next}).Error
}

func (r *reconciliationTaskRepository) MarkFailed(ctx context.Context, id uint, lastErr string) error {
	return r.db.WithContext(ctx).Model(&models.ReconciliationTask{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"status": models.TaskStatusFailed, "last_error": lastErr}).Error
}

func (r *reconciliationTaskRepository) FailExhausted(ctx context.Context, now time.Time, maxAttempts int) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.ReconciliationTask{}).
		Where("status = ? AND attempts >= ? AND next_attempt_at <= ?", models.TaskStatusPending, maxAttempts, now).
		Updates(map[string]interface{}{
			"status":     models.TaskStatusFailed,
			"last_error": "attempts exhausted before completion",
		})
	return result.RowsAffected, result.Error
}
