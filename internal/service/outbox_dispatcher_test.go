package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/thrivesend/thrivesend-backend/internal/domain"
	"github.com/thrivesend/thrivesend-backend/internal/repository"
)

func enqueueApproved(t *testing.T, repo repository.OutboxRepository, approvalID string) *domain.OutboxTask {
	t.Helper()
	payload, err := domain.ApprovedContentEvent{ContentID: "c-" + approvalID, ApprovalID: approvalID, UserID: "u1", Timestamp: time.Now().UTC()}.Encode()
	require.NoError(t, err)
	task := &domain.OutboxTask{Topic: domain.TopicContentApproved, Payload: payload}
	require.NoError(t, repo.Enqueue(context.Background(), task))
	return task
}

func TestOutboxDispatcher_Backoff(t *testing.T) {
	d := NewOutboxDispatcher(nil, OutboxOptions{RetryBase: time.Second})

	assert.Equal(t, time.Second, d.backoff(1))
	assert.Equal(t, 2*time.Second, d.backoff(2))
	assert.Equal(t, 8*time.Second, d.backoff(4))
	assert.Equal(t, maxRetryDelay, d.backoff(40))
}

func TestOutboxDispatcher_DispatchPending(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewOutboxRepository(db)
	trigger := &MockEmailTrigger{}
	d := NewOutboxDispatcher(repo, OutboxOptions{BatchSize: 10, MaxAttempts: 2, RetryBase: time.Millisecond})
	d.Handle(domain.TopicContentApproved, EmailTriggerHandler(trigger))
	ctx := context.Background()

	enqueueApproved(t, repo, "a1")
	enqueueApproved(t, repo, "a2")

	trigger.On("TriggerApproved", mock.Anything, mock.MatchedBy(func(ev *domain.ApprovedContentEvent) bool {
		return ev.ApprovalID == "a1"
	})).Return(nil)
	trigger.On("TriggerApproved", mock.Anything, mock.MatchedBy(func(ev *domain.ApprovedContentEvent) bool {
		return ev.ApprovalID == "a2"
	})).Return(errors.New("unavailable"))

	n, err := d.DispatchPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	counts, err := repo.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts[domain.OutboxDone])
	assert.Equal(t, int64(1), counts[domain.OutboxPending])

	// 두 번째 실패에서 MaxAttempts 도달 -> failed
	time.Sleep(5 * time.Millisecond)
	n, err = d.DispatchPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	counts, err = repo.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts[domain.OutboxFailed])
	assert.Zero(t, counts[domain.OutboxPending])
	trigger.AssertNumberOfCalls(t, "TriggerApproved", 3)
}

func TestOutboxDispatcher_UnknownTopicParked(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewOutboxRepository(db)
	d := NewOutboxDispatcher(repo, OutboxOptions{})
	ctx := context.Background()

	task := &domain.OutboxTask{Topic: "content.archived", Payload: "{}"}
	require.NoError(t, repo.Enqueue(ctx, task))

	err := d.DispatchTask(ctx, task)
	assert.Error(t, err)

	counts, err := repo.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts[domain.OutboxFailed])
}

func TestOutboxDispatcher_AlreadyClaimedSkipped(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewOutboxRepository(db)
	trigger := &MockEmailTrigger{}
	d := NewOutboxDispatcher(repo, OutboxOptions{})
	d.Handle(domain.TopicContentApproved, EmailTriggerHandler(trigger))
	ctx := context.Background()

	task := enqueueApproved(t, repo, "a1")
	claimed, err := repo.Claim(ctx, &domain.OutboxTask{ID: task.ID})
	require.NoError(t, err)
	require.True(t, claimed)

	assert.NoError(t, d.DispatchTask(ctx, task))
	trigger.AssertNotCalled(t, "TriggerApproved", mock.Anything, mock.Anything)
}

func TestHTTPEmailTrigger(t *testing.T) {
	var received domain.ApprovedContentEvent
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &received)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	trigger := NewHTTPEmailTrigger(server.URL, time.Second)
	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	err := trigger.TriggerApproved(context.Background(), &domain.ApprovedContentEvent{
		ContentID: "c1", ApprovalID: "a1", UserID: "u1", Timestamp: ts,
	})
	require.NoError(t, err)
	assert.Equal(t, "c1", received.ContentID)
	assert.Equal(t, "a1", received.ApprovalID)
	assert.Equal(t, "u1", received.UserID)
	assert.True(t, ts.Equal(received.Timestamp))
}

func TestHTTPEmailTrigger_Non2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "queue full", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	err := NewHTTPEmailTrigger(server.URL, time.Second).
		TriggerApproved(context.Background(), &domain.ApprovedContentEvent{ApprovalID: "a1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
	assert.Contains(t, err.Error(), "queue full")
}

func TestHTTPEmailTrigger_NoURLSkips(t *testing.T) {
	err := NewHTTPEmailTrigger("", 0).TriggerApproved(context.Background(), &domain.ApprovedContentEvent{ApprovalID: "a1"})
	assert.NoError(t, err)
}
