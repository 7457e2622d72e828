package domain

import "time"

// OutboxStatus outbox 작업 상태
type OutboxStatus string

const (
	OutboxPending    OutboxStatus = "pending"
	OutboxProcessing OutboxStatus = "processing"
	OutboxDone       OutboxStatus = "done"
	OutboxFailed     OutboxStatus = "failed"
)

// TopicContentApproved 승인 후 캠페인 이메일 스케줄링 트리거
const TopicContentApproved = "content.approved"

// OutboxTask 트랜잭션과 함께 적재되는 후속 작업
type OutboxTask struct {
	ID            string       `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Topic         string       `gorm:"type:varchar(64);not null" json:"topic"`
	Payload       string       `gorm:"type:text;not null" json:"payload"`
	Status        OutboxStatus `gorm:"type:varchar(16);not null;index:idx_outbox_due" json:"status"`
	Attempts      int          `gorm:"not null;default:0" json:"attempts"`
	LastError     string       `gorm:"type:text" json:"lastError,omitempty"`
	NextAttemptAt time.Time    `gorm:"index:idx_outbox_due" json:"nextAttemptAt"`
	ProcessedAt   *time.Time   `json:"processedAt,omitempty"`
	CreatedAt     time.Time    `json:"createdAt"`
	UpdatedAt     time.Time    `json:"updatedAt"`
}

// TableName returns the table name
func (OutboxTask) TableName() string {
	return "outbox_tasks"
}
