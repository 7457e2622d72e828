package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/thrivesend/thrivesend-backend/internal/domain"
	"github.com/thrivesend/thrivesend-backend/internal/migration"
	"github.com/thrivesend/thrivesend-backend/internal/repository"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, migration.Run(db))
	return db
}

// MockEmailTrigger is a mock implementation of EmailTrigger
type MockEmailTrigger struct {
	mock.Mock
}

func (m *MockEmailTrigger) TriggerApproved(ctx context.Context, event *domain.ApprovedContentEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// MockNotifier is a mock implementation of Notifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, n *domain.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

type workflowEnv struct {
	db         *gorm.DB
	users      repository.UserRepository
	contents   repository.ContentRepository
	approvals  repository.ApprovalRepository
	outbox     repository.OutboxRepository
	dispatcher *OutboxDispatcher
	trigger    *MockEmailTrigger
	notifier   *MockNotifier
	svc        ApprovalService

	author   *domain.User
	reviewer *domain.User
}

func newWorkflowEnv(t *testing.T, opts ApprovalOptions) *workflowEnv {
	t.Helper()
	db := setupTestDB(t)
	env := &workflowEnv{
		db:        db,
		users:     repository.NewUserRepository(db),
		contents:  repository.NewContentRepository(db),
		approvals: repository.NewApprovalRepository(db),
		outbox:    repository.NewOutboxRepository(db),
		trigger:   &MockEmailTrigger{},
		notifier:  &MockNotifier{},
	}
	env.dispatcher = NewOutboxDispatcher(env.outbox, OutboxOptions{MaxAttempts: 3, RetryBase: time.Minute})
	env.dispatcher.Handle(domain.TopicContentApproved, EmailTriggerHandler(env.trigger))
	env.svc = NewApprovalService(env.approvals, env.contents, env.users, env.notifier, env.dispatcher, opts)

	ctx := context.Background()
	env.author = &domain.User{ExternalID: "author-ext", FirstName: "Ada", LastName: "Lovelace", OrganizationID: "org-1"}
	env.reviewer = &domain.User{ExternalID: "u1", FirstName: "Grace", LastName: "Hopper", OrganizationID: "org-1"}
	require.NoError(t, env.users.Create(ctx, env.author))
	require.NoError(t, env.users.Create(ctx, env.reviewer))
	return env
}

// seedApproval creates content and a pending approval with the given id
func (e *workflowEnv) seedApproval(t *testing.T, approvalID, title string, createdAt time.Time) *domain.ContentApproval {
	t.Helper()
	ctx := context.Background()
	content := &domain.Content{
		Title: title, Type: domain.ContentTypePost, Slug: "slug-" + approvalID,
		Status: domain.ContentStatusDraft, AuthorID: e.author.ID, OrganizationID: "org-1",
	}
	require.NoError(t, e.contents.Create(ctx, content))

	approval := &domain.ContentApproval{
		ID: approvalID, ContentID: content.ID,
		Status: domain.ApprovalStatusPendingReview, CurrentStep: domain.ApprovalStepReview,
		CreatedBy: e.author.ID, CreatedAt: createdAt,
	}
	entry := &domain.ApprovalHistory{
		Status: domain.ApprovalStatusPendingReview, Step: domain.ApprovalStepReview,
		Comment: "Submitted for review", CreatedBy: e.author.ID, CreatedAt: createdAt,
	}
	require.NoError(t, e.approvals.Open(ctx, approval, entry))
	return approval
}

func (e *workflowEnv) historyCount(t *testing.T, approvalID string) int {
	t.Helper()
	entries, err := e.approvals.History(context.Background(), approvalID)
	require.NoError(t, err)
	return len(entries)
}
