package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	pkglogger "github.com/thrivesend/thrivesend-backend/pkg/logger"
)

// Task 등록된 주기적 작업
type Task struct {
	Name      string
	Interval  time.Duration
	Handler   func(ctx context.Context) error
	LastRun   time.Time
	RunCount  int64
	LastError error

	entryID cron.EntryID
}

// TaskInfo 작업 정보 (health 응답용)
type TaskInfo struct {
	Name      string    `json:"name"`
	Interval  string    `json:"interval"`
	LastRun   time.Time `json:"lastRun"`
	NextRun   time.Time `json:"nextRun"`
	RunCount  int64     `json:"runCount"`
	LastError *string   `json:"lastError,omitempty"`
}

// Scheduler runs background jobs (outbox polling) on fixed intervals.
// A run that is still in progress when the next tick fires is skipped.
type Scheduler struct {
	cron   *cron.Cron
	tasks  map[string]*Task
	order  []string
	mu     sync.RWMutex
	ctx    context.Context
	cancel context.CancelFunc
}

// New 스케줄러 생성
func New() *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:   cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		tasks:  make(map[string]*Task),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Register adds a task; intervals below one second are rounded up by cron
func (s *Scheduler) Register(name string, interval time.Duration, handler func(ctx context.Context) error) error {
	if interval <= 0 {
		return fmt.Errorf("scheduler: task %s needs a positive interval", name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.tasks[name]; exists {
		return fmt.Errorf("scheduler: task %s already registered", name)
	}

	task := &Task{Name: name, Interval: interval, Handler: handler}
	task.entryID = s.cron.Schedule(cron.Every(interval), cron.FuncJob(func() { s.run(task) }))
	s.tasks[name] = task
	s.order = append(s.order, name)

	pkglogger.GetLogger().Info().Str("task", name).Dur("interval", interval).Msg("scheduled task registered")
	return nil
}

// Start 스케줄러 시작 (백그라운드 goroutine)
func (s *Scheduler) Start() {
	s.cron.Start()
	pkglogger.GetLogger().Info().Int("tasks", len(s.order)).Msg("scheduler started")
}

// Stop cancels running handlers and waits for them to return
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
	pkglogger.GetLogger().Info().Msg("scheduler stopped")
}

func (s *Scheduler) run(task *Task) {
	start := time.Now()
	err := task.Handler(s.ctx)

	s.mu.Lock()
	task.LastRun = start
	task.LastError = err
	task.RunCount++
	s.mu.Unlock()

	if err != nil {
		pkglogger.GetLogger().Error().Err(err).Str("task", task.Name).Msg("scheduled task failed")
	}
}

// GetTasks 등록된 작업 목록 조회 (모니터링용)
func (s *Scheduler) GetTasks() []TaskInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]TaskInfo, 0, len(s.order))
	for _, name := range s.order {
		t := s.tasks[name]
		info := TaskInfo{
			Name:     t.Name,
			Interval: t.Interval.String(),
			LastRun:  t.LastRun,
			NextRun:  s.cron.Entry(t.entryID).Next,
			RunCount: t.RunCount,
		}
		if t.LastError != nil {
			msg := t.LastError.Error()
			info.LastError = &msg
		}
		result = append(result, info)
	}
	return result
}
