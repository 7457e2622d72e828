package domain

import "time"

// Notification types
const (
	NotificationApprovalRequested = "approval_requested"
	NotificationContentApproved   = "content_approved"
	NotificationContentRejected   = "content_rejected"
	NotificationReviewAssigned    = "review_assigned"
)

// Notification represents a user notification
type Notification struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID    string    `gorm:"type:varchar(36);not null;index:idx_notifications_user_read" json:"userId"`
	Type      string    `gorm:"type:varchar(40);not null" json:"type"`
	Title     string    `gorm:"type:varchar(200)" json:"title"`
	Message   string    `gorm:"type:text" json:"message"`
	Link      string    `gorm:"type:varchar(500)" json:"link,omitempty"`
	IsRead    bool      `gorm:"not null;default:false;index:idx_notifications_user_read" json:"isRead"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
}

// TableName returns the table name
func (Notification) TableName() string {
	return "notifications"
}

// NotificationSummaryResponse represents unread count response
type NotificationSummaryResponse struct {
	TotalUnread int64 `json:"totalUnread"`
}

// NotificationListResponse represents notification list response
type NotificationListResponse struct {
	Items       []*Notification `json:"items"`
	Total       int64           `json:"total"`
	UnreadCount int64           `json:"unreadCount"`
	Page        int             `json:"page"`
	Limit       int             `json:"limit"`
	TotalPages  int             `json:"totalPages"`
}
