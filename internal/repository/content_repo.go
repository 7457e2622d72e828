package repository

import (
	"context"
	"errors"
	"time"

	"github.com/thrivesend/thrivesend-backend/internal/common"
	"github.com/thrivesend/thrivesend-backend/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ContentRepository 콘텐츠 데이터 접근
type ContentRepository interface {
	Create(ctx context.Context, content *domain.Content) error
	FindByID(ctx context.Context, id string) (*domain.Content, error)
	FindBySlug(ctx context.Context, organizationID, slug string) (*domain.Content, error)
	List(ctx context.Context, organizationID string, status domain.ContentStatus, offset, limit int) ([]*domain.Content, int64, error)
	// UpdateStatus 상태가 from 일 때만 to 로 변경, 변경 여부 반환
	UpdateStatus(ctx context.Context, id string, from, to domain.ContentStatus, publishedAt *time.Time) (bool, error)
}

type contentRepository struct {
	db *gorm.DB
}

// NewContentRepository creates a new ContentRepository
func NewContentRepository(db *gorm.DB) ContentRepository {
	return &contentRepository{db: db}
}

// Create inserts a content row; a slug collision within the organization yields common.ErrDuplicateSlug
func (r *contentRepository) Create(ctx context.Context, content *domain.Content) error {
	if content.ID == "" {
		content.ID = newID()
	}
	err := r.db.WithContext(ctx).Omit(clause.Associations).Create(content).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return common.ErrDuplicateSlug
	}
	return err
}

// FindByID returns nil, nil when missing
func (r *contentRepository) FindByID(ctx context.Context, id string) (*domain.Content, error) {
	var content domain.Content
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&content).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &content, nil
}

// FindBySlug returns nil, nil when missing
func (r *contentRepository) FindBySlug(ctx context.Context, organizationID, slug string) (*domain.Content, error) {
	var content domain.Content
	err := r.db.WithContext(ctx).
		Where("organization_id = ? AND slug = ?", organizationID, slug).
		First(&content).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &content, nil
}

// List returns an organization's content, newest first
func (r *contentRepository) List(ctx context.Context, organizationID string, status domain.ContentStatus, offset, limit int) ([]*domain.Content, int64, error) {
	query := r.db.WithContext(ctx).Model(&domain.Content{}).Where("organization_id = ?", organizationID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var contents []*domain.Content
	if err := query.Order("created_at DESC").Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&contents).Error; err != nil {
		return nil, 0, err
	}
	return contents, total, nil
}

// UpdateStatus performs a compare-and-set on the status column
func (r *contentRepository) UpdateStatus(ctx context.Context, id string, from, to domain.ContentStatus, publishedAt *time.Time) (bool, error) {
	updates := map[string]interface{}{
		"status":     to,
		"updated_at": time.Now(),
	}
	if publishedAt != nil {
		updates["published_at"] = *publishedAt
	}

	result := r.db.WithContext(ctx).Model(&domain.Content{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
