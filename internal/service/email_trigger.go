package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/thrivesend/thrivesend-backend/internal/domain"
	pkglogger "github.com/thrivesend/thrivesend-backend/pkg/logger"
)

// EmailTrigger 승인된 콘텐츠의 캠페인 이메일 스케줄링 요청
type EmailTrigger interface {
	TriggerApproved(ctx context.Context, event *domain.ApprovedContentEvent) error
}

// HTTPEmailTrigger posts approval events to the campaign email component
type HTTPEmailTrigger struct {
	url        string
	httpClient *http.Client
}

// NewHTTPEmailTrigger 생성자, url 이 비어 있으면 호출 없이 로그만 남긴다
func NewHTTPEmailTrigger(url string, timeout time.Duration) *HTTPEmailTrigger {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPEmailTrigger{
		url: url,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// TriggerApproved sends {contentId, approvalId, userId, timestamp}; non-2xx is an error
func (t *HTTPEmailTrigger) TriggerApproved(ctx context.Context, event *domain.ApprovedContentEvent) error {
	if t.url == "" {
		pkglogger.GetLogger().Info().
			Str("content_id", event.ContentID).
			Str("approval_id", event.ApprovalID).
			Msg("email trigger url not configured, skipping")
		return nil
	}

	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := t.httpClient.Do(req)
	emailTriggerDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("email trigger request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("email trigger returned %d: %s", resp.StatusCode, bytes.TrimSpace(snippet))
	}
	return nil
}
