package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/thrivesend/thrivesend-backend/internal/domain"
	"github.com/thrivesend/thrivesend-backend/internal/migration"
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

	// :memory: DB 는 커넥션마다 별개이므로 하나로 고정
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, migration.Run(db))
	return db
}

type fixture struct {
	author   *domain.User
	reviewer *domain.User
	content  *domain.Content
	approval *domain.ContentApproval
}

func seedPending(t *testing.T, db *gorm.DB, approvalID, title string, createdAt time.Time) *fixture {
	t.Helper()
	ctx := context.Background()
	users := NewUserRepository(db)

	f := &fixture{}
	f.author = &domain.User{ExternalID: "ext-" + approvalID + "-author", FirstName: "Ada", LastName: "Lovelace", OrganizationID: "org-1"}
	f.reviewer = &domain.User{ExternalID: "ext-" + approvalID + "-reviewer", FirstName: "Grace", LastName: "Hopper", OrganizationID: "org-1"}
	require.NoError(t, users.Create(ctx, f.author))
	require.NoError(t, users.Create(ctx, f.reviewer))

	f.content = &domain.Content{
		Title: title, Type: domain.ContentTypePost, Slug: "slug-" + approvalID,
		Status: domain.ContentStatusDraft, AuthorID: f.author.ID, OrganizationID: "org-1",
	}
	require.NoError(t, NewContentRepository(db).Create(ctx, f.content))

	f.approval = &domain.ContentApproval{
		ID: approvalID, ContentID: f.content.ID,
		Status: domain.ApprovalStatusPendingReview, CurrentStep: domain.ApprovalStepReview,
		CreatedBy: f.author.ID, CreatedAt: createdAt,
	}
	entry := &domain.ApprovalHistory{
		Status: domain.ApprovalStatusPendingReview, Step: domain.ApprovalStepReview,
		Comment: "Submitted for review", CreatedBy: f.author.ID, CreatedAt: createdAt,
	}
	require.NoError(t, NewApprovalRepository(db).Open(ctx, f.approval, entry))
	return f
}
