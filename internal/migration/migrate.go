package migration

import (
	"fmt"
	"time"

	"github.com/thrivesend/thrivesend-backend/internal/domain"
	"gorm.io/gorm"
)

// Models 마이그레이션 대상 (의존 순서)
func Models() []interface{} {
	return []interface{}{
		&domain.User{},
		&domain.Content{},
		&domain.ContentApproval{},
		&domain.ApprovalHistory{},
		&domain.Notification{},
		&domain.OutboxTask{},
	}
}

// Run executes AutoMigrate for every workflow table
func Run(db *gorm.DB) error {
	// AutoMigrate - 테이블 없으면 생성, 컬럼/인덱스 추가
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// SeedUsers 개발용 기본 사용자 (외부 인증 ID 기준)
var SeedUsers = []domain.User{
	{ID: "00000000-0000-0000-0000-000000000001", ExternalID: "user_dev_editor", FirstName: "Erin", LastName: "Editor", Email: "editor@thrivesend.local", OrganizationID: "org-dev"},
	{ID: "00000000-0000-0000-0000-000000000002", ExternalID: "user_dev_reviewer", FirstName: "Riley", LastName: "Reviewer", Email: "reviewer@thrivesend.local", OrganizationID: "org-dev"},
}

// Seed inserts development users and one pending approval when the users table is empty
func Seed(db *gorm.DB) error {
	var count int64
	if err := db.Model(&domain.User{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	return db.Transaction(func(tx *gorm.DB) error {
		users := make([]domain.User, len(SeedUsers))
		copy(users, SeedUsers)
		if err := tx.Create(&users).Error; err != nil {
			return err
		}

		author := users[0]
		now := time.Now()
		content := &domain.Content{
			ID:             "00000000-0000-0000-0000-0000000000c1",
			Title:          "Spring launch announcement",
			Type:           domain.ContentTypeEmail,
			Slug:           "spring-launch-announcement",
			Status:         domain.ContentStatusPendingReview,
			AuthorID:       author.ID,
			OrganizationID: author.OrganizationID,
		}
		if err := tx.Create(content).Error; err != nil {
			return err
		}

		approval := &domain.ContentApproval{
			ID:          "00000000-0000-0000-0000-0000000000a1",
			ContentID:   content.ID,
			Status:      domain.ApprovalStatusPendingReview,
			CurrentStep: domain.ApprovalStepReview,
			CreatedBy:   author.ID,
			Version:     1,
		}
		if err := tx.Create(approval).Error; err != nil {
			return err
		}

		return tx.Create(&domain.ApprovalHistory{
			ID:         "00000000-0000-0000-0000-0000000000e1",
			ApprovalID: approval.ID,
			Status:     domain.ApprovalStatusPendingReview,
			Step:       domain.ApprovalStepReview,
			Comment:    "Submitted for review",
			CreatedBy:  author.ID,
			CreatedAt:  now,
		}).Error
	})
}
