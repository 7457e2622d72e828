package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/thrivesend/thrivesend-backend/internal/common"
	"github.com/thrivesend/thrivesend-backend/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ApprovalRepository 승인 레코드 + 이력 데이터 접근
type ApprovalRepository interface {
	// 조회 (Content/Creator/Assignee preload)
	FindByID(ctx context.Context, id string) (*domain.ContentApproval, error)
	FindByContentID(ctx context.Context, contentID string) (*domain.ContentApproval, error)
	List(ctx context.Context, organizationID string, status domain.ApprovalStatus, offset, limit int) ([]*domain.ContentApproval, int64, error)
	History(ctx context.Context, approvalID string) ([]*domain.ApprovalHistory, error)

	// 쓰기
	Open(ctx context.Context, approval *domain.ContentApproval, entry *domain.ApprovalHistory) error
	ApplyTransition(ctx context.Context, t *domain.ApprovalTransition) error
	Assign(ctx context.Context, id string, version int, assigneeID string) error
}

type approvalRepository struct {
	db *gorm.DB
}

// NewApprovalRepository creates a new ApprovalRepository
func NewApprovalRepository(db *gorm.DB) ApprovalRepository {
	return &approvalRepository{db: db}
}

func (r *approvalRepository) withRelations(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Content").
		Preload("Creator").
		Preload("Assignee")
}

// FindByID returns nil, nil when missing
func (r *approvalRepository) FindByID(ctx context.Context, id string) (*domain.ContentApproval, error) {
	var approval domain.ContentApproval
	err := r.withRelations(ctx).Where("id = ?", id).First(&approval).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &approval, nil
}

// FindByContentID returns nil, nil when the content has no approval yet
func (r *approvalRepository) FindByContentID(ctx context.Context, contentID string) (*domain.ContentApproval, error) {
	var approval domain.ContentApproval
	err := r.withRelations(ctx).Where("content_id = ?", contentID).First(&approval).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &approval, nil
}

// List returns an organization's approvals newest first, filtered by status when non-empty
func (r *approvalRepository) List(ctx context.Context, organizationID string, status domain.ApprovalStatus, offset, limit int) ([]*domain.ContentApproval, int64, error) {
	scope := func(db *gorm.DB) *gorm.DB {
		orgContents := r.db.Model(&domain.Content{}).Select("id").Where("organization_id = ?", organizationID)
		db = db.Where("content_id IN (?)", orgContents)
		if status != "" {
			db = db.Where("status = ?", status)
		}
		return db
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&domain.ContentApproval{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var approvals []*domain.ContentApproval
	if err := r.withRelations(ctx).Scopes(scope).
		Order("created_at DESC").Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&approvals).Error; err != nil {
		return nil, 0, err
	}
	return approvals, total, nil
}

// History returns the audit trail oldest first
func (r *approvalRepository) History(ctx context.Context, approvalID string) ([]*domain.ApprovalHistory, error) {
	var entries []*domain.ApprovalHistory
	err := r.db.WithContext(ctx).
		Where("approval_id = ?", approvalID).
		Order("created_at ASC").Order("id ASC").
		Find(&entries).Error
	return entries, err
}

// Open creates the approval, its first history entry and moves the content to PENDING_REVIEW
func (r *approvalRepository) Open(ctx context.Context, approval *domain.ContentApproval, entry *domain.ApprovalHistory) error {
	if approval.ID == "" {
		approval.ID = newID()
	}
	if approval.Version == 0 {
		approval.Version = 1
	}
	if !approval.State().Valid() {
		return fmt.Errorf("invalid approval state %s/%s", approval.Status, approval.CurrentStep)
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(approval).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return common.ErrApprovalExists
			}
			return err
		}

		entry.ApprovalID = approval.ID
		if entry.ID == "" {
			entry.ID = newID()
		}
		if err := tx.Create(entry).Error; err != nil {
			return err
		}

		return tx.Model(&domain.Content{}).
			Where("id = ?", approval.ContentID).
			Updates(map[string]interface{}{
				"status":     domain.ContentStatusPendingReview,
				"updated_at": time.Now(),
			}).Error
	})
}

// ApplyTransition writes the new state, the history row, the content status and
// the optional outbox task in one transaction. The update is conditional on
// FromVersion; a concurrent writer yields common.ErrVersionConflict and nothing is written.
func (r *approvalRepository) ApplyTransition(ctx context.Context, t *domain.ApprovalTransition) error {
	if !t.To.Valid() {
		return fmt.Errorf("invalid approval state %s/%s", t.To.Status, t.To.Step)
	}
	now := time.Now()

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&domain.ContentApproval{}).
			Where("id = ? AND version = ?", t.ApprovalID, t.FromVersion).
			Updates(map[string]interface{}{
				"status":       t.To.Status,
				"current_step": t.To.Step,
				"version":      gorm.Expr("version + 1"),
				"updated_at":   now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return common.ErrVersionConflict
		}

		if err := tx.Create(t.HistoryEntry(newID(), now)).Error; err != nil {
			return err
		}

		if t.ContentStatus != "" {
			if err := tx.Model(&domain.Content{}).
				Where("id = ?", t.ContentID).
				Updates(map[string]interface{}{
					"status":     t.ContentStatus,
					"updated_at": now,
				}).Error; err != nil {
				return err
			}
		}

		if t.Outbox != nil {
			if err := enqueue(tx, t.Outbox, now); err != nil {
				return err
			}
		}
		return nil
	})
}

// Assign sets the reviewer, conditional on version
func (r *approvalRepository) Assign(ctx context.Context, id string, version int, assigneeID string) error {
	result := r.db.WithContext(ctx).Model(&domain.ContentApproval{}).
		Where("id = ? AND version = ?", id, version).
		Updates(map[string]interface{}{
			"assigned_to": assigneeID,
			"version":     gorm.Expr("version + 1"),
			"updated_at":  time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return common.ErrVersionConflict
	}
	return nil
}
