package domain

import "time"

// ContentType 콘텐츠 종류
type ContentType string

const (
	ContentTypePost       ContentType = "POST"
	ContentTypeEmail      ContentType = "EMAIL"
	ContentTypeSocial     ContentType = "SOCIAL"
	ContentTypeBlog       ContentType = "BLOG"
	ContentTypeVideo      ContentType = "VIDEO"
	ContentTypeArticle    ContentType = "ARTICLE"
	ContentTypeNewsletter ContentType = "NEWSLETTER"
)

// ContentStatus 콘텐츠 라이프사이클 상태
type ContentStatus string

const (
	ContentStatusDraft         ContentStatus = "DRAFT"
	ContentStatusPendingReview ContentStatus = "PENDING_REVIEW"
	ContentStatusApproved      ContentStatus = "APPROVED"
	ContentStatusRejected      ContentStatus = "REJECTED"
	ContentStatusPublished     ContentStatus = "PUBLISHED"
)

// Valid reports whether s is a known content status
func (s ContentStatus) Valid() bool {
	switch s {
	case ContentStatusDraft, ContentStatusPendingReview, ContentStatusApproved,
		ContentStatusRejected, ContentStatusPublished:
		return true
	}
	return false
}

// Content 승인 워크플로우 대상 콘텐츠
type Content struct {
	ID             string        `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Title          string        `gorm:"type:varchar(200);not null" json:"title"`
	Type           ContentType   `gorm:"type:varchar(20);not null" json:"type"`
	Slug           string        `gorm:"type:varchar(200);not null;uniqueIndex:idx_contents_org_slug" json:"slug"`
	Body           string        `gorm:"type:text" json:"body,omitempty"`
	Status         ContentStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	AuthorID       string        `gorm:"type:varchar(36);not null;index" json:"authorId"`
	OrganizationID string        `gorm:"type:varchar(36);not null;uniqueIndex:idx_contents_org_slug" json:"organizationId"`
	PublishedAt    *time.Time    `json:"publishedAt,omitempty"`
	CreatedAt      time.Time     `json:"createdAt"`
	UpdatedAt      time.Time     `json:"updatedAt"`
}

// TableName returns the table name
func (Content) TableName() string {
	return "contents"
}

// CreateContentRequest 콘텐츠 생성 요청
type CreateContentRequest struct {
	Title string      `json:"title" validate:"required,min=1,max=200"`
	Type  ContentType `json:"type" validate:"required,oneof=POST EMAIL SOCIAL BLOG VIDEO ARTICLE NEWSLETTER"`
	Slug  string      `json:"slug" validate:"required,max=200,slug"`
	Body  string      `json:"body"`
}

// ContentSummary 승인 응답에 포함되는 콘텐츠 요약
type ContentSummary struct {
	ID    string      `json:"id"`
	Title string      `json:"title"`
	Type  ContentType `json:"type"`
}
