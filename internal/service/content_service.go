package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/thrivesend/thrivesend-backend/internal/common"
	"github.com/thrivesend/thrivesend-backend/internal/domain"
	"github.com/thrivesend/thrivesend-backend/internal/repository"
	pkglogger "github.com/thrivesend/thrivesend-backend/pkg/logger"
)

// ContentService 콘텐츠 라이프사이클 (작성 -> 검토 요청 -> 발행)
type ContentService struct {
	contents  repository.ContentRepository
	approvals repository.ApprovalRepository
	users     repository.UserRepository
	now       func() time.Time
}

// NewContentService creates a new ContentService
func NewContentService(contents repository.ContentRepository, approvals repository.ApprovalRepository, users repository.UserRepository) *ContentService {
	return &ContentService{contents: contents, approvals: approvals, users: users, now: time.Now}
}

// Create stores a DRAFT in the caller's organization
func (s *ContentService) Create(ctx context.Context, externalUserID string, req *domain.CreateContentRequest) (*domain.Content, error) {
	author, err := resolveUser(ctx, s.users, externalUserID)
	if err != nil {
		return nil, err
	}

	content := &domain.Content{
		Title:          strings.TrimSpace(req.Title),
		Type:           req.Type,
		Slug:           req.Slug,
		Body:           req.Body,
		Status:         domain.ContentStatusDraft,
		AuthorID:       author.ID,
		OrganizationID: author.OrganizationID,
	}

	existing, err := s.contents.FindBySlug(ctx, content.OrganizationID, content.Slug)
	if err != nil {
		return nil, common.Wrap(common.KindInternal, "failed to check slug", err)
	}
	if existing != nil {
		return nil, common.ErrDuplicateSlug
	}

	if err := s.contents.Create(ctx, content); err != nil {
		if errors.Is(err, common.ErrDuplicateSlug) {
			return nil, err
		}
		return nil, common.Wrap(common.KindInternal, "failed to create content", err)
	}
	return content, nil
}

// Get returns content visible to the caller's organization
func (s *ContentService) Get(ctx context.Context, externalUserID, id string) (*domain.Content, error) {
	user, err := resolveUser(ctx, s.users, externalUserID)
	if err != nil {
		return nil, err
	}
	return s.load(ctx, user, id)
}

// List returns the caller's organization content, newest first
func (s *ContentService) List(ctx context.Context, externalUserID, status string, page, limit int) ([]*domain.Content, *common.Meta, error) {
	user, err := resolveUser(ctx, s.users, externalUserID)
	if err != nil {
		return nil, nil, err
	}

	filter := domain.ContentStatus(status)
	if status != "" && !filter.Valid() {
		return nil, nil, common.ErrInvalidStatusFilter
	}
	page, limit = normalizePage(page, limit, 20, 100)

	items, total, err := s.contents.List(ctx, user.OrganizationID, filter, (page-1)*limit, limit)
	if err != nil {
		return nil, nil, common.Wrap(common.KindInternal, "failed to list content", err)
	}
	if items == nil {
		items = []*domain.Content{}
	}
	return items, &common.Meta{Page: page, Limit: limit, Total: total}, nil
}

// Submit opens the approval of a DRAFT: (PENDING_REVIEW, REVIEW)
func (s *ContentService) Submit(ctx context.Context, externalUserID, contentID string) (*domain.ApprovalResponse, error) {
	user, err := resolveUser(ctx, s.users, externalUserID)
	if err != nil {
		return nil, err
	}
	content, err := s.load(ctx, user, contentID)
	if err != nil {
		return nil, err
	}

	existing, err := s.approvals.FindByContentID(ctx, content.ID)
	if err != nil {
		return nil, common.Wrap(common.KindInternal, "failed to load approval", err)
	}
	if existing != nil {
		return nil, common.ErrApprovalExists
	}
	if content.Status != domain.ContentStatusDraft {
		return nil, common.ErrInvalidTransition
	}

	approval := &domain.ContentApproval{
		ContentID:   content.ID,
		Status:      domain.InitialApprovalState.Status,
		CurrentStep: domain.InitialApprovalState.Step,
		CreatedBy:   user.ID,
	}
	entry := &domain.ApprovalHistory{
		Status:    approval.Status,
		Step:      approval.CurrentStep,
		Comment:   "Submitted for review",
		CreatedBy: user.ID,
	}
	if err := s.approvals.Open(ctx, approval, entry); err != nil {
		if errors.Is(err, common.ErrApprovalExists) {
			return nil, err
		}
		return nil, common.Wrap(common.KindInternal, "failed to submit content", err)
	}

	pkglogger.GetLogger().Info().
		Str("content_id", content.ID).
		Str("approval_id", approval.ID).
		Str("user_id", user.ID).
		Msg("content submitted for review")

	created, err := s.approvals.FindByID(ctx, approval.ID)
	if err != nil || created == nil {
		return nil, common.Wrap(common.KindInternal, "failed to load approval", err)
	}
	return created.ToResponse(), nil
}

// Publish APPROVED -> PUBLISHED
func (s *ContentService) Publish(ctx context.Context, externalUserID, contentID string) (*domain.Content, error) {
	user, err := resolveUser(ctx, s.users, externalUserID)
	if err != nil {
		return nil, err
	}
	content, err := s.load(ctx, user, contentID)
	if err != nil {
		return nil, err
	}
	if content.Status != domain.ContentStatusApproved {
		return nil, common.ErrInvalidTransition
	}

	now := s.now()
	ok, err := s.contents.UpdateStatus(ctx, content.ID, domain.ContentStatusApproved, domain.ContentStatusPublished, &now)
	if err != nil {
		return nil, common.Wrap(common.KindInternal, "failed to publish content", err)
	}
	if !ok {
		return nil, common.ErrVersionConflict
	}

	content.Status = domain.ContentStatusPublished
	content.PublishedAt = &now
	return content, nil
}

func (s *ContentService) load(ctx context.Context, user *domain.User, id string) (*domain.Content, error) {
	content, err := s.contents.FindByID(ctx, id)
	if err != nil {
		return nil, common.Wrap(common.KindInternal, "failed to load content", err)
	}
	// 다른 조직의 콘텐츠는 존재 자체를 노출하지 않음
	if content == nil || content.OrganizationID != user.OrganizationID {
		return nil, common.ErrContentNotFound
	}
	return content, nil
}
