package domain

import (
	"encoding/json"
	"time"
)

// ApprovalStatus 승인 레코드 상태
type ApprovalStatus string

const (
	ApprovalStatusPendingReview ApprovalStatus = "PENDING_REVIEW"
	ApprovalStatusApproved      ApprovalStatus = "APPROVED"
	ApprovalStatusRejected      ApprovalStatus = "REJECTED"
)

// ApprovalStep 승인 단계
type ApprovalStep string

const (
	ApprovalStepReview   ApprovalStep = "REVIEW"
	ApprovalStepApproval ApprovalStep = "APPROVAL"
)

// ApprovalState (status, step) 쌍
type ApprovalState struct {
	Status ApprovalStatus
	Step   ApprovalStep
}

// ApprovalAction 승인 레코드에 가할 수 있는 전이
type ApprovalAction string

const (
	ActionApprove  ApprovalAction = "approve"
	ActionReject   ApprovalAction = "reject"
	ActionResubmit ApprovalAction = "resubmit"
)

// InitialApprovalState state of a freshly submitted approval
var InitialApprovalState = ApprovalState{Status: ApprovalStatusPendingReview, Step: ApprovalStepReview}

type transitionRule struct {
	from          ApprovalState
	to            ApprovalState
	contentStatus ContentStatus
	comment       string
}

var transitions = map[ApprovalAction]transitionRule{
	ActionApprove: {
		from:          InitialApprovalState,
		to:            ApprovalState{Status: ApprovalStatusApproved, Step: ApprovalStepApproval},
		contentStatus: ContentStatusApproved,
		comment:       "Content approved",
	},
	ActionReject: {
		from:          InitialApprovalState,
		to:            ApprovalState{Status: ApprovalStatusRejected, Step: ApprovalStepReview},
		contentStatus: ContentStatusRejected,
		comment:       "Content rejected",
	},
	ActionResubmit: {
		from:          ApprovalState{Status: ApprovalStatusRejected, Step: ApprovalStepReview},
		to:            InitialApprovalState,
		contentStatus: ContentStatusPendingReview,
		comment:       "Content resubmitted",
	},
}

// Valid reports whether the pair is allowed
func (s ApprovalState) Valid() bool {
	switch s.Status {
	case ApprovalStatusPendingReview, ApprovalStatusRejected:
		return s.Step == ApprovalStepReview
	case ApprovalStatusApproved:
		return s.Step == ApprovalStepApproval
	}
	return false
}

// ParseApprovalStatus parses a list filter value, "" and "ALL" mean no filter
func ParseApprovalStatus(v string) (ApprovalStatus, bool) {
	switch ApprovalStatus(v) {
	case "", "ALL":
		return "", true
	case ApprovalStatusPendingReview, ApprovalStatusApproved, ApprovalStatusRejected:
		return ApprovalStatus(v), true
	}
	return "", false
}

// ContentApproval 콘텐츠 1건당 1개의 승인 레코드
type ContentApproval struct {
	ID          string         `gorm:"primaryKey;type:varchar(36)" json:"id"`
	ContentID   string         `gorm:"type:varchar(36);not null;uniqueIndex" json:"contentId"`
	Status      ApprovalStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	CurrentStep ApprovalStep   `gorm:"type:varchar(20);not null" json:"currentStep"`
	CreatedBy   string         `gorm:"type:varchar(36);not null" json:"createdBy"`
	AssignedTo  *string        `gorm:"type:varchar(36)" json:"assignedTo,omitempty"`
	Version     int            `gorm:"not null;default:1" json:"version"`
	CreatedAt   time.Time      `gorm:"index" json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`

	Content  *Content `gorm:"foreignKey:ContentID" json:"-"`
	Creator  *User    `gorm:"foreignKey:CreatedBy" json:"-"`
	Assignee *User    `gorm:"foreignKey:AssignedTo" json:"-"`
}

// TableName returns the table name
func (ContentApproval) TableName() string {
	return "content_approvals"
}

// State current (status, step) pair
func (a *ContentApproval) State() ApprovalState {
	return ApprovalState{Status: a.Status, Step: a.CurrentStep}
}

// Plan builds the transition for action, ok=false when the current state does not allow it
func (a *ContentApproval) Plan(action ApprovalAction, actorID, comment string) (*ApprovalTransition, bool) {
	rule, ok := transitions[action]
	if !ok || a.State() != rule.from {
		return nil, false
	}
	if comment == "" {
		comment = rule.comment
	}
	return &ApprovalTransition{
		ApprovalID:    a.ID,
		ContentID:     a.ContentID,
		FromVersion:   a.Version,
		To:            rule.to,
		ContentStatus: rule.contentStatus,
		Comment:       comment,
		ActorID:       actorID,
	}, true
}

// ApprovalTransition 하나의 트랜잭션으로 기록되는 상태 전이
type ApprovalTransition struct {
	ApprovalID    string
	ContentID     string
	FromVersion   int
	To            ApprovalState
	ContentStatus ContentStatus
	Comment       string
	ActorID       string
	// Outbox 같은 트랜잭션에서 적재할 후속 작업 (없으면 nil)
	Outbox *OutboxTask
}

// HistoryEntry history row recorded by the transition
func (t *ApprovalTransition) HistoryEntry(id string, at time.Time) *ApprovalHistory {
	return &ApprovalHistory{
		ID:         id,
		ApprovalID: t.ApprovalID,
		Status:     t.To.Status,
		Step:       t.To.Step,
		Comment:    t.Comment,
		CreatedBy:  t.ActorID,
		CreatedAt:  at,
	}
}

// ApprovalHistory 승인 이력 (append-only)
type ApprovalHistory struct {
	ID         string         `gorm:"primaryKey;type:varchar(36)" json:"id"`
	ApprovalID string         `gorm:"type:varchar(36);not null;index" json:"approvalId"`
	Status     ApprovalStatus `gorm:"type:varchar(20);not null" json:"status"`
	Step       ApprovalStep   `gorm:"type:varchar(20);not null" json:"step"`
	Comment    string         `gorm:"type:text" json:"comment"`
	CreatedBy  string         `gorm:"type:varchar(36);not null" json:"createdBy"`
	CreatedAt  time.Time      `json:"createdAt"`
}

// TableName returns the table name
func (ApprovalHistory) TableName() string {
	return "approval_histories"
}

// TransitionRequest optional body of approve/reject/resubmit
type TransitionRequest struct {
	Comment string `json:"comment" validate:"max=2000"`
}

// AssignRequest 검토자 지정 요청
type AssignRequest struct {
	AssigneeID string `json:"assigneeId" validate:"required,max=36"`
}

// ApprovalResponse 승인 API 응답
type ApprovalResponse struct {
	ID          string          `json:"id"`
	Status      ApprovalStatus  `json:"status"`
	CurrentStep ApprovalStep    `json:"currentStep"`
	Version     int             `json:"version"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
	Content     *ContentSummary `json:"content"`
	Creator     *PersonName     `json:"creator"`
	Assignee    *PersonName     `json:"assignee"`
}

// ToResponse converts an approval with preloaded relations
func (a *ContentApproval) ToResponse() *ApprovalResponse {
	resp := &ApprovalResponse{
		ID:          a.ID,
		Status:      a.Status,
		CurrentStep: a.CurrentStep,
		Version:     a.Version,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
		Creator:     a.Creator.Name(),
		Assignee:    a.Assignee.Name(),
	}
	if a.Content != nil {
		resp.Content = &ContentSummary{ID: a.Content.ID, Title: a.Content.Title, Type: a.Content.Type}
	}
	return resp
}

// ApprovedContentEvent content.approved outbox payload
type ApprovedContentEvent struct {
	ContentID  string    `json:"contentId"`
	ApprovalID string    `json:"approvalId"`
	UserID     string    `json:"userId"`
	Timestamp  time.Time `json:"timestamp"`
}

// Encode serialises the event for the outbox payload column
func (e ApprovedContentEvent) Encode() (string, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
