package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/thrivesend/thrivesend-backend/internal/domain"
	"github.com/thrivesend/thrivesend-backend/internal/repository"
	pkglogger "github.com/thrivesend/thrivesend-backend/pkg/logger"
)

const (
	maxRetryDelay  = time.Hour
	staleClaimTime = 10 * time.Minute
)

// TaskHandler outbox 토픽별 처리 함수
type TaskHandler func(ctx context.Context, task *domain.OutboxTask) error

// Dispatcher 단건 즉시 디스패치 (승인 직후 호출)
type Dispatcher interface {
	DispatchTask(ctx context.Context, task *domain.OutboxTask) error
}

// OutboxOptions 재시도 정책
type OutboxOptions struct {
	BatchSize   int
	MaxAttempts int
	RetryBase   time.Duration
}

// OutboxDispatcher claims outbox tasks and runs the registered topic handler
type OutboxDispatcher struct {
	repo     repository.OutboxRepository
	opts     OutboxOptions
	handlers map[string]TaskHandler
	mu       sync.RWMutex
	now      func() time.Time
}

// NewOutboxDispatcher 생성자
func NewOutboxDispatcher(repo repository.OutboxRepository, opts OutboxOptions) *OutboxDispatcher {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 20
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 8
	}
	if opts.RetryBase <= 0 {
		opts.RetryBase = 30 * time.Second
	}
	return &OutboxDispatcher{
		repo:     repo,
		opts:     opts,
		handlers: make(map[string]TaskHandler),
		now:      time.Now,
	}
}

// Handle registers the handler of a topic
func (d *OutboxDispatcher) Handle(topic string, h TaskHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[topic] = h
}

func (d *OutboxDispatcher) handler(topic string) (TaskHandler, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	h, ok := d.handlers[topic]
	return h, ok
}

// DispatchTask claims and runs one task. A task claimed by another worker is skipped.
// The handler error is returned after the task has been rescheduled or parked.
func (d *OutboxDispatcher) DispatchTask(ctx context.Context, task *domain.OutboxTask) error {
	claimed, err := d.repo.Claim(ctx, task)
	if err != nil {
		return fmt.Errorf("claim outbox task %s: %w", task.ID, err)
	}
	if !claimed {
		return nil
	}

	h, ok := d.handler(task.Topic)
	if !ok {
		outboxDispatchTotal.WithLabelValues(task.Topic, "unhandled").Inc()
		err := fmt.Errorf("no handler for topic %q", task.Topic)
		if markErr := d.repo.MarkFailed(ctx, task.ID, err.Error(), nil); markErr != nil {
			return markErr
		}
		return err
	}

	if runErr := h(ctx, task); runErr != nil {
		var retryAt *time.Time
		outcome := "failed"
		if task.Attempts < d.opts.MaxAttempts {
			next := d.now().Add(d.backoff(task.Attempts))
			retryAt = &next
			outcome = "retry"
		}
		outboxDispatchTotal.WithLabelValues(task.Topic, outcome).Inc()

		if markErr := d.repo.MarkFailed(ctx, task.ID, runErr.Error(), retryAt); markErr != nil {
			pkglogger.GetLogger().Error().Err(markErr).Str("task_id", task.ID).Msg("failed to record outbox failure")
		}
		return runErr
	}

	outboxDispatchTotal.WithLabelValues(task.Topic, "done").Inc()
	return d.repo.MarkDone(ctx, task.ID)
}

// DispatchPending processes one batch of due tasks and returns how many succeeded
func (d *OutboxDispatcher) DispatchPending(ctx context.Context) (int, error) {
	now := d.now()
	if released, err := d.repo.ReleaseStale(ctx, now.Add(-staleClaimTime)); err != nil {
		return 0, err
	} else if released > 0 {
		pkglogger.GetLogger().Warn().Int64("released", released).Msg("released stale outbox claims")
	}

	tasks, err := d.repo.FindDue(ctx, now, d.opts.BatchSize)
	if err != nil {
		return 0, err
	}

	succeeded := 0
	for _, task := range tasks {
		if ctx.Err() != nil {
			return succeeded, ctx.Err()
		}
		if err := d.DispatchTask(ctx, task); err != nil {
			pkglogger.GetLogger().Warn().
				Err(err).
				Str("task_id", task.ID).
				Str("topic", task.Topic).
				Int("attempts", task.Attempts).
				Msg("outbox task failed")
			continue
		}
		succeeded++
	}
	return succeeded, nil
}

// backoff exponential delay for the given attempt count, capped at maxRetryDelay
func (d *OutboxDispatcher) backoff(attempts int) time.Duration {
	delay := d.opts.RetryBase
	for i := 1; i < attempts; i++ {
		delay *= 2
		if delay >= maxRetryDelay {
			return maxRetryDelay
		}
	}
	return delay
}

// EmailTriggerHandler decodes content.approved payloads for the trigger
func EmailTriggerHandler(trigger EmailTrigger) TaskHandler {
	return func(ctx context.Context, task *domain.OutboxTask) error {
		var event domain.ApprovedContentEvent
		if err := json.Unmarshal([]byte(task.Payload), &event); err != nil {
			return fmt.Errorf("decode %s payload: %w", task.Topic, err)
		}
		return trigger.TriggerApproved(ctx, &event)
	}
}
