package service

import (
	"context"
	"math"

	"github.com/thrivesend/thrivesend-backend/internal/common"
	"github.com/thrivesend/thrivesend-backend/internal/domain"
	"github.com/thrivesend/thrivesend-backend/internal/repository"
	"github.com/thrivesend/thrivesend-backend/internal/ws"
)

// Pusher 실시간 푸시 (WebSocket hub)
type Pusher interface {
	SendToUser(userID string, event *ws.Event)
}

// Notifier 상태 전이 알림 발송 (approval service 에서 사용)
type Notifier interface {
	Notify(ctx context.Context, n *domain.Notification) error
}

// NotificationService handles notification business logic
type NotificationService struct {
	repo   repository.NotificationRepository
	users  repository.UserRepository
	pusher Pusher
}

// NewNotificationService creates a new NotificationService; pusher may be nil
func NewNotificationService(repo repository.NotificationRepository, users repository.UserRepository, pusher Pusher) *NotificationService {
	return &NotificationService{repo: repo, users: users, pusher: pusher}
}

// Notify persists the notification and pushes it to the user's live connections
func (s *NotificationService) Notify(ctx context.Context, n *domain.Notification) error {
	if err := s.repo.Create(ctx, n); err != nil {
		return err
	}
	if s.pusher != nil {
		s.pusher.SendToUser(n.UserID, &ws.Event{Type: ws.EventNotification, Payload: n})
	}
	return nil
}

// GetUnreadCount returns the unread notification count for the caller
func (s *NotificationService) GetUnreadCount(ctx context.Context, externalUserID string) (*domain.NotificationSummaryResponse, error) {
	user, err := resolveUser(ctx, s.users, externalUserID)
	if err != nil {
		return nil, err
	}
	count, err := s.repo.GetUnreadCount(ctx, user.ID)
	if err != nil {
		return nil, common.Wrap(common.KindInternal, "failed to count notifications", err)
	}
	return &domain.NotificationSummaryResponse{TotalUnread: count}, nil
}

// GetList returns paginated notifications for the caller
func (s *NotificationService) GetList(ctx context.Context, externalUserID string, page, limit int) (*domain.NotificationListResponse, error) {
	user, err := resolveUser(ctx, s.users, externalUserID)
	if err != nil {
		return nil, err
	}
	page, limit = normalizePage(page, limit, 20, 100)

	offset := (page - 1) * limit
	notifications, total, err := s.repo.GetList(ctx, user.ID, offset, limit)
	if err != nil {
		return nil, common.Wrap(common.KindInternal, "failed to list notifications", err)
	}

	unreadCount, err := s.repo.GetUnreadCount(ctx, user.ID)
	if err != nil {
		return nil, common.Wrap(common.KindInternal, "failed to count notifications", err)
	}

	if notifications == nil {
		notifications = []*domain.Notification{}
	}
	return &domain.NotificationListResponse{
		Items:       notifications,
		Total:       total,
		UnreadCount: unreadCount,
		Page:        page,
		Limit:       limit,
		TotalPages:  int(math.Ceil(float64(total) / float64(limit))),
	}, nil
}

// MarkAsRead marks a notification as read after ownership check.
// Another user's notification is reported as not found.
func (s *NotificationService) MarkAsRead(ctx context.Context, externalUserID, notificationID string) error {
	user, err := resolveUser(ctx, s.users, externalUserID)
	if err != nil {
		return err
	}
	n, err := s.repo.FindByID(ctx, notificationID)
	if err != nil {
		return common.Wrap(common.KindInternal, "failed to load notification", err)
	}
	if n == nil || n.UserID != user.ID {
		return common.ErrNotificationNotFound
	}
	if err := s.repo.MarkAsRead(ctx, notificationID); err != nil {
		return common.Wrap(common.KindInternal, "failed to update notification", err)
	}
	s.pushUnread(ctx, user.ID)
	return nil
}

// MarkAllAsRead marks all notifications as read for the caller
func (s *NotificationService) MarkAllAsRead(ctx context.Context, externalUserID string) (int64, error) {
	user, err := resolveUser(ctx, s.users, externalUserID)
	if err != nil {
		return 0, err
	}
	n, err := s.repo.MarkAllAsRead(ctx, user.ID)
	if err != nil {
		return 0, common.Wrap(common.KindInternal, "failed to update notifications", err)
	}
	s.pushUnread(ctx, user.ID)
	return n, nil
}

func (s *NotificationService) pushUnread(ctx context.Context, userID string) {
	if s.pusher == nil {
		return
	}
	count, err := s.repo.GetUnreadCount(ctx, userID)
	if err != nil {
		return
	}
	s.pusher.SendToUser(userID, &ws.Event{
		Type:    ws.EventUnreadCount,
		Payload: domain.NotificationSummaryResponse{TotalUnread: count},
	})
}
