package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/thrivesend/thrivesend-backend/internal/common"
	"github.com/thrivesend/thrivesend-backend/internal/domain"
	"github.com/thrivesend/thrivesend-backend/pkg/storage"
)

const archiveURLExpiry = 15 * time.Minute

// ObjectStore S3 호환 스토리지 (storage.S3Client)
type ObjectStore interface {
	UploadJSON(ctx context.Context, key string, data []byte) (*storage.UploadResult, error)
	GetPresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error)
}

// HistoryArchive archived history snapshot
type HistoryArchive struct {
	ApprovalID string                    `json:"approvalId"`
	ArchivedAt time.Time                 `json:"archivedAt"`
	Entries    []*domain.ApprovalHistory `json:"entries"`
}

// ArchiveResult 업로드 결과
type ArchiveResult struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
	Entries   int       `json:"entries"`
}

// ArchiveService 승인 이력을 오브젝트 스토리지에 보관
type ArchiveService struct {
	approvals ApprovalService
	store     ObjectStore
	now       func() time.Time
}

// NewArchiveService creates a new ArchiveService; store may be nil when storage is disabled
func NewArchiveService(approvals ApprovalService, store ObjectStore) *ArchiveService {
	return &ArchiveService{approvals: approvals, store: store, now: time.Now}
}

// ArchiveHistory uploads the approval history as JSON and returns a presigned download URL
func (s *ArchiveService) ArchiveHistory(ctx context.Context, externalUserID, approvalID string) (*ArchiveResult, error) {
	if s.store == nil {
		return nil, common.ErrStorageDisabled
	}

	entries, err := s.approvals.History(ctx, externalUserID, approvalID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	data, err := json.Marshal(HistoryArchive{ApprovalID: approvalID, ArchivedAt: now, Entries: entries})
	if err != nil {
		return nil, common.Wrap(common.KindInternal, "failed to encode history", err)
	}

	uploaded, err := s.store.UploadJSON(ctx, storage.HistoryArchiveKey(approvalID, now), data)
	if err != nil {
		return nil, common.Wrap(common.KindUnavailable, "failed to upload history archive", err)
	}

	url, err := s.store.GetPresignedURL(ctx, uploaded.Key, archiveURLExpiry)
	if err != nil {
		return nil, common.Wrap(common.KindUnavailable, "failed to sign archive url", err)
	}

	return &ArchiveResult{
		Key:       uploaded.Key,
		URL:       url,
		ExpiresAt: now.Add(archiveURLExpiry),
		Entries:   len(entries),
	}, nil
}
