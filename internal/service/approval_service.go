package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/thrivesend/thrivesend-backend/internal/common"
	"github.com/thrivesend/thrivesend-backend/internal/domain"
	"github.com/thrivesend/thrivesend-backend/internal/repository"
	pkglogger "github.com/thrivesend/thrivesend-backend/pkg/logger"
)

// ApprovalService 콘텐츠 승인 워크플로우
type ApprovalService interface {
	List(ctx context.Context, externalUserID, status string, page, limit int) ([]*domain.ApprovalResponse, *common.Meta, error)
	Approve(ctx context.Context, approvalID, externalUserID, comment string) (*domain.ApprovalResponse, error)
	Reject(ctx context.Context, approvalID, externalUserID, comment string) (*domain.ApprovalResponse, error)
	Resubmit(ctx context.Context, approvalID, externalUserID, comment string) (*domain.ApprovalResponse, error)
	Assign(ctx context.Context, approvalID, externalUserID, assigneeID string) (*domain.ApprovalResponse, error)
	History(ctx context.Context, externalUserID, approvalID string) ([]*domain.ApprovalHistory, error)
	CreateTestApproval(ctx context.Context, externalUserID string) (*domain.ApprovalResponse, error)
}

// ApprovalOptions 워크플로우 정책
type ApprovalOptions struct {
	AllowResubmit    bool
	ListDefaultLimit int
	ListMaxLimit     int
}

type approvalService struct {
	approvals  repository.ApprovalRepository
	contents   repository.ContentRepository
	users      repository.UserRepository
	notifier   Notifier
	dispatcher Dispatcher
	opts       ApprovalOptions
}

// NewApprovalService creates a new ApprovalService; notifier and dispatcher may be nil
func NewApprovalService(
	approvals repository.ApprovalRepository,
	contents repository.ContentRepository,
	users repository.UserRepository,
	notifier Notifier,
	dispatcher Dispatcher,
	opts ApprovalOptions,
) ApprovalService {
	if opts.ListDefaultLimit <= 0 {
		opts.ListDefaultLimit = 50
	}
	if opts.ListMaxLimit < opts.ListDefaultLimit {
		opts.ListMaxLimit = 100
	}
	return &approvalService{
		approvals:  approvals,
		contents:   contents,
		users:      users,
		notifier:   notifier,
		dispatcher: dispatcher,
		opts:       opts,
	}
}

// List returns the caller's organization approvals newest first, optionally filtered by status
func (s *approvalService) List(ctx context.Context, externalUserID, status string, page, limit int) ([]*domain.ApprovalResponse, *common.Meta, error) {
	filter, ok := domain.ParseApprovalStatus(status)
	if !ok {
		return nil, nil, common.ErrInvalidStatusFilter
	}
	actor, err := resolveUser(ctx, s.users, externalUserID)
	if err != nil {
		return nil, nil, err
	}
	page, limit = normalizePage(page, limit, s.opts.ListDefaultLimit, s.opts.ListMaxLimit)

	approvals, total, err := s.approvals.List(ctx, actor.OrganizationID, filter, (page-1)*limit, limit)
	if err != nil {
		return nil, nil, common.Wrap(common.KindInternal, "failed to list approvals", err)
	}

	responses := make([]*domain.ApprovalResponse, len(approvals))
	for i, a := range approvals {
		responses[i] = a.ToResponse()
	}
	return responses, &common.Meta{Page: page, Limit: limit, Total: total}, nil
}

// Approve (PENDING_REVIEW, REVIEW) -> (APPROVED, APPROVAL) and schedules the email trigger
func (s *approvalService) Approve(ctx context.Context, approvalID, externalUserID, comment string) (*domain.ApprovalResponse, error) {
	return s.transition(ctx, domain.ActionApprove, approvalID, externalUserID, comment)
}

// Reject (PENDING_REVIEW, REVIEW) -> (REJECTED, REVIEW)
func (s *approvalService) Reject(ctx context.Context, approvalID, externalUserID, comment string) (*domain.ApprovalResponse, error) {
	return s.transition(ctx, domain.ActionReject, approvalID, externalUserID, comment)
}

// Resubmit (REJECTED, REVIEW) -> (PENDING_REVIEW, REVIEW)
func (s *approvalService) Resubmit(ctx context.Context, approvalID, externalUserID, comment string) (*domain.ApprovalResponse, error) {
	if !s.opts.AllowResubmit {
		return nil, common.ErrResubmitDisabled
	}
	return s.transition(ctx, domain.ActionResubmit, approvalID, externalUserID, comment)
}

func (s *approvalService) transition(ctx context.Context, action domain.ApprovalAction, approvalID, externalUserID, comment string) (*domain.ApprovalResponse, error) {
	actor, err := resolveUser(ctx, s.users, externalUserID)
	if err != nil {
		return nil, err
	}

	approval, err := s.loadForActor(ctx, actor, approvalID)
	if err != nil {
		return nil, err
	}

	plan, ok := approval.Plan(action, actor.ID, strings.TrimSpace(comment))
	if !ok {
		approvalTransitionsTotal.WithLabelValues(string(action), "invalid").Inc()
		return nil, common.Wrap(common.KindConflict, common.ErrInvalidTransition.Message,
			fmt.Errorf("cannot %s approval in state %s/%s", action, approval.Status, approval.CurrentStep))
	}

	if action == domain.ActionApprove {
		event := domain.ApprovedContentEvent{
			ContentID:  approval.ContentID,
			ApprovalID: approval.ID,
			UserID:     actor.ID,
			Timestamp:  time.Now().UTC(),
		}
		payload, err := event.Encode()
		if err != nil {
			return nil, common.Wrap(common.KindInternal, "failed to encode approval event", err)
		}
		plan.Outbox = &domain.OutboxTask{Topic: domain.TopicContentApproved, Payload: payload}
	}

	if err := s.approvals.ApplyTransition(ctx, plan); err != nil {
		if errors.Is(err, common.ErrVersionConflict) {
			approvalTransitionsTotal.WithLabelValues(string(action), "conflict").Inc()
			return nil, err
		}
		approvalTransitionsTotal.WithLabelValues(string(action), "error").Inc()
		return nil, common.Wrap(common.KindInternal, fmt.Sprintf("failed to %s approval", action), err)
	}
	approvalTransitionsTotal.WithLabelValues(string(action), "ok").Inc()

	userLog := pkglogger.WithUserID(actor.ID)
	log := userLog.With().
		Str("approval_id", approval.ID).
		Str("content_id", approval.ContentID).
		Str("action", string(action)).
		Logger()
	log.Info().Msg("approval transitioned")

	// 승인 결과는 이미 커밋됨: 트리거 실패는 outbox 에 남겨 재시도
	if plan.Outbox != nil && s.dispatcher != nil {
		if err := s.dispatcher.DispatchTask(ctx, plan.Outbox); err != nil {
			log.Warn().Err(err).Str("task_id", plan.Outbox.ID).Msg("email trigger failed, left in outbox for retry")
		}
	}

	s.notifyTransition(ctx, approval, actor, action)

	updated, err := s.loadApproval(ctx, approval.ID)
	if err != nil {
		return nil, err
	}
	return updated.ToResponse(), nil
}

// Assign sets the reviewer of a pending approval
func (s *approvalService) Assign(ctx context.Context, approvalID, externalUserID, assigneeID string) (*domain.ApprovalResponse, error) {
	actor, err := resolveUser(ctx, s.users, externalUserID)
	if err != nil {
		return nil, err
	}
	approval, err := s.loadForActor(ctx, actor, approvalID)
	if err != nil {
		return nil, err
	}
	if approval.Status != domain.ApprovalStatusPendingReview {
		return nil, common.ErrInvalidTransition
	}

	assignee, err := s.users.FindByID(ctx, assigneeID)
	if err != nil {
		return nil, common.Wrap(common.KindInternal, "failed to load assignee", err)
	}
	if assignee == nil || assignee.OrganizationID != actor.OrganizationID {
		return nil, common.ErrUserNotFound
	}

	if err := s.approvals.Assign(ctx, approval.ID, approval.Version, assignee.ID); err != nil {
		if errors.Is(err, common.ErrVersionConflict) {
			return nil, err
		}
		return nil, common.Wrap(common.KindInternal, "failed to assign reviewer", err)
	}

	s.notify(ctx, &domain.Notification{
		UserID:  assignee.ID,
		Type:    domain.NotificationReviewAssigned,
		Title:   "Review requested",
		Message: fmt.Sprintf("%s %s asked you to review %q", actor.FirstName, actor.LastName, contentTitle(approval)),
		Link:    "/approvals/" + approval.ID,
	})

	updated, err := s.loadApproval(ctx, approval.ID)
	if err != nil {
		return nil, err
	}
	return updated.ToResponse(), nil
}

// History returns the audit trail of an approval
func (s *approvalService) History(ctx context.Context, externalUserID, approvalID string) ([]*domain.ApprovalHistory, error) {
	actor, err := resolveUser(ctx, s.users, externalUserID)
	if err != nil {
		return nil, err
	}
	if _, err := s.loadForActor(ctx, actor, approvalID); err != nil {
		return nil, err
	}
	entries, err := s.approvals.History(ctx, approvalID)
	if err != nil {
		return nil, common.Wrap(common.KindInternal, "failed to load approval history", err)
	}
	if entries == nil {
		entries = []*domain.ApprovalHistory{}
	}
	return entries, nil
}

// CreateTestApproval seeds a content row and a pending approval for manual testing
func (s *approvalService) CreateTestApproval(ctx context.Context, externalUserID string) (*domain.ApprovalResponse, error) {
	actor, err := resolveUser(ctx, s.users, externalUserID)
	if err != nil {
		return nil, err
	}

	suffix := uuid.New().String()[:8]
	content := &domain.Content{
		Title:          "Test Content " + suffix,
		Type:           domain.ContentTypePost,
		Slug:           "test-content-" + suffix,
		Status:         domain.ContentStatusDraft,
		AuthorID:       actor.ID,
		OrganizationID: actor.OrganizationID,
	}
	if err := s.contents.Create(ctx, content); err != nil {
		return nil, common.Wrap(common.KindInternal, "failed to create test content", err)
	}

	approval := &domain.ContentApproval{
		ContentID:   content.ID,
		Status:      domain.InitialApprovalState.Status,
		CurrentStep: domain.InitialApprovalState.Step,
		CreatedBy:   actor.ID,
	}
	entry := &domain.ApprovalHistory{
		Status:    approval.Status,
		Step:      approval.CurrentStep,
		Comment:   "Test approval created",
		CreatedBy: actor.ID,
	}
	if err := s.approvals.Open(ctx, approval, entry); err != nil {
		return nil, common.Wrap(common.KindInternal, "failed to create test approval", err)
	}

	created, err := s.loadApproval(ctx, approval.ID)
	if err != nil {
		return nil, err
	}
	return created.ToResponse(), nil
}

func (s *approvalService) loadApproval(ctx context.Context, id string) (*domain.ContentApproval, error) {
	approval, err := s.approvals.FindByID(ctx, id)
	if err != nil {
		return nil, common.Wrap(common.KindInternal, "failed to load approval", err)
	}
	if approval == nil {
		return nil, common.ErrApprovalNotFound
	}
	return approval, nil
}

// loadForActor hides approvals of other organizations behind NotFound
func (s *approvalService) loadForActor(ctx context.Context, actor *domain.User, id string) (*domain.ContentApproval, error) {
	approval, err := s.loadApproval(ctx, id)
	if err != nil {
		return nil, err
	}
	if approval.Content == nil || approval.Content.OrganizationID != actor.OrganizationID {
		return nil, common.ErrApprovalNotFound
	}
	return approval, nil
}

func (s *approvalService) notifyTransition(ctx context.Context, approval *domain.ContentApproval, actor *domain.User, action domain.ApprovalAction) {
	title := contentTitle(approval)
	switch action {
	case domain.ActionApprove:
		s.notify(ctx, &domain.Notification{
			UserID:  approval.CreatedBy,
			Type:    domain.NotificationContentApproved,
			Title:   "Content approved",
			Message: fmt.Sprintf("%q was approved by %s %s", title, actor.FirstName, actor.LastName),
			Link:    "/approvals/" + approval.ID,
		})
	case domain.ActionReject:
		s.notify(ctx, &domain.Notification{
			UserID:  approval.CreatedBy,
			Type:    domain.NotificationContentRejected,
			Title:   "Content rejected",
			Message: fmt.Sprintf("%q was rejected by %s %s", title, actor.FirstName, actor.LastName),
			Link:    "/approvals/" + approval.ID,
		})
	case domain.ActionResubmit:
		if approval.AssignedTo != nil {
			s.notify(ctx, &domain.Notification{
				UserID:  *approval.AssignedTo,
				Type:    domain.NotificationApprovalRequested,
				Title:   "Content resubmitted",
				Message: fmt.Sprintf("%q is ready for another review", title),
				Link:    "/approvals/" + approval.ID,
			})
		}
	}
}

// notify is best effort
func (s *approvalService) notify(ctx context.Context, n *domain.Notification) {
	if s.notifier == nil || n.UserID == "" {
		return
	}
	if err := s.notifier.Notify(ctx, n); err != nil {
		pkglogger.GetLogger().Warn().
			Err(err).
			Str("user_id", n.UserID).
			Str("type", n.Type).
			Msg("notification dispatch failed")
	}
}

func contentTitle(a *domain.ContentApproval) string {
	if a.Content != nil {
		return a.Content.Title
	}
	return a.ContentID
}
