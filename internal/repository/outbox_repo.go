package repository

import (
	"context"
	"time"

	"github.com/thrivesend/thrivesend-backend/internal/domain"
	"gorm.io/gorm"
)

// OutboxRepository outbox 작업 큐
type OutboxRepository interface {
	Enqueue(ctx context.Context, task *domain.OutboxTask) error
	// Claim pending -> processing 선점, 다른 워커가 먼저 가져갔으면 false
	Claim(ctx context.Context, task *domain.OutboxTask) (bool, error)
	FindDue(ctx context.Context, now time.Time, limit int) ([]*domain.OutboxTask, error)
	MarkDone(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, errMsg string, retryAt *time.Time) error
	// ReleaseStale processing 상태로 남은 작업을 pending 으로 되돌림 (프로세스 중단 복구)
	ReleaseStale(ctx context.Context, before time.Time) (int64, error)
	CountByStatus(ctx context.Context) (map[domain.OutboxStatus]int64, error)
}

type outboxRepository struct {
	db *gorm.DB
}

// NewOutboxRepository creates a new OutboxRepository
func NewOutboxRepository(db *gorm.DB) OutboxRepository {
	return &outboxRepository{db: db}
}

func enqueue(tx *gorm.DB, task *domain.OutboxTask, now time.Time) error {
	if task.ID == "" {
		task.ID = newID()
	}
	if task.Status == "" {
		task.Status = domain.OutboxPending
	}
	if task.NextAttemptAt.IsZero() {
		task.NextAttemptAt = now
	}
	return tx.Create(task).Error
}

// Enqueue inserts a pending task outside of any caller transaction
func (r *outboxRepository) Enqueue(ctx context.Context, task *domain.OutboxTask) error {
	return enqueue(r.db.WithContext(ctx), task, time.Now())
}

func (r *outboxRepository) Claim(ctx context.Context, task *domain.OutboxTask) (bool, error) {
	result := r.db.WithContext(ctx).Model(&domain.OutboxTask{}).
		Where("id = ? AND status = ?", task.ID, domain.OutboxPending).
		Updates(map[string]interface{}{
			"status":     domain.OutboxProcessing,
			"attempts":   gorm.Expr("attempts + 1"),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected == 0 {
		return false, nil
	}
	task.Status = domain.OutboxProcessing
	task.Attempts++
	return true, nil
}

// FindDue returns pending tasks whose next attempt is due, oldest first
func (r *outboxRepository) FindDue(ctx context.Context, now time.Time, limit int) ([]*domain.OutboxTask, error) {
	var tasks []*domain.OutboxTask
	err := r.db.WithContext(ctx).
		Where("status = ? AND next_attempt_at <= ?", domain.OutboxPending, now).
		Order("next_attempt_at ASC").
		Limit(limit).
		Find(&tasks).Error
	return tasks, err
}

func (r *outboxRepository) MarkDone(ctx context.Context, id string) error {
	now := time.Now()
	return r.db.WithContext(ctx).Model(&domain.OutboxTask{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":       domain.OutboxDone,
			"last_error":   "",
			"processed_at": now,
			"updated_at":   now,
		}).Error
}

// MarkFailed schedules a retry at retryAt, or parks the task as failed when retryAt is nil
func (r *outboxRepository) MarkFailed(ctx context.Context, id string, errMsg string, retryAt *time.Time) error {
	updates := map[string]interface{}{
		"last_error": errMsg,
		"updated_at": time.Now(),
	}
	if retryAt != nil {
		updates["status"] = domain.OutboxPending
		updates["next_attempt_at"] = *retryAt
	} else {
		updates["status"] = domain.OutboxFailed
	}
	return r.db.WithContext(ctx).Model(&domain.OutboxTask{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *outboxRepository) ReleaseStale(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&domain.OutboxTask{}).
		Where("status = ? AND updated_at < ?", domain.OutboxProcessing, before).
		Updates(map[string]interface{}{
			"status":     domain.OutboxPending,
			"updated_at": time.Now(),
		})
	return result.RowsAffected, result.Error
}

func (r *outboxRepository) CountByStatus(ctx context.Context) (map[domain.OutboxStatus]int64, error) {
	var rows []struct {
		Status domain.OutboxStatus
		Count  int64
	}
	err := r.db.WithContext(ctx).Model(&domain.OutboxTask{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[domain.OutboxStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}
