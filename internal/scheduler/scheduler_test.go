package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduler_Register(t *testing.T) {
	s := New()

	require.NoError(t, s.Register("outbox", time.Second, func(ctx context.Context) error { return nil }))
	assert.Error(t, s.Register("outbox", time.Second, func(ctx context.Context) error { return nil }))
	assert.Error(t, s.Register("zero", 0, func(ctx context.Context) error { return nil }))

	tasks := s.GetTasks()
	require.Len(t, tasks, 1)
	assert.Equal(t, "outbox", tasks[0].Name)
	assert.Equal(t, "1s", tasks[0].Interval)
	assert.Zero(t, tasks[0].RunCount)
}

func TestScheduler_RunRecordsResult(t *testing.T) {
	s := New()
	require.NoError(t, s.Register("failing", time.Minute, func(ctx context.Context) error {
		return errors.New("boom")
	}))

	s.run(s.tasks["failing"])

	tasks := s.GetTasks()
	require.Len(t, tasks, 1)
	assert.Equal(t, int64(1), tasks[0].RunCount)
	require.NotNil(t, tasks[0].LastError)
	assert.Equal(t, "boom", *tasks[0].LastError)
	assert.False(t, tasks[0].LastRun.IsZero())
}

func TestScheduler_StartRunsTasks(t *testing.T) {
	s := New()
	var runs int32
	require.NoError(t, s.Register("tick", time.Second, func(ctx context.Context) error {
		atomic.AddInt32(&runs, 1)
		return nil
	}))

	s.Start()
	defer s.Stop()

	assert.Eventually(t, func() bool { return atomic.LoadInt32(&runs) >= 1 }, 3*time.Second, 50*time.Millisecond)
}

func TestScheduler_StopCancelsContext(t *testing.T) {
	s := New()
	done := make(chan error, 1)
	require.NoError(t, s.Register("wait", time.Minute, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}))

	go func() {
		s.run(s.tasks["wait"])
		done <- s.tasks["wait"].LastError
	}()
	s.Stop()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("handler did not observe cancellation")
	}
}
