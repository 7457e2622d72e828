package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/thrivesend/thrivesend-backend/internal/domain"
	"github.com/thrivesend/thrivesend-backend/internal/scheduler"
	"gorm.io/gorm"
)

const healthCheckTimeout = 2 * time.Second

// OutboxCounter outbox 적체 현황 (repository.OutboxRepository)
type OutboxCounter interface {
	CountByStatus(ctx context.Context) (map[domain.OutboxStatus]int64, error)
}

// TaskLister 스케줄러 작업 목록 (scheduler.Scheduler)
type TaskLister interface {
	GetTasks() []scheduler.TaskInfo
}

// HealthHandler reports dependency status for load balancers and operators
type HealthHandler struct {
	db     *gorm.DB
	redis  *redis.Client
	outbox OutboxCounter
	tasks  TaskLister
}

// NewHealthHandler creates a new HealthHandler; redis, outbox and tasks may be nil
func NewHealthHandler(db *gorm.DB, redisClient *redis.Client, outbox OutboxCounter, tasks TaskLister) *HealthHandler {
	return &HealthHandler{db: db, redis: redisClient, outbox: outbox, tasks: tasks}
}

// Check handles GET /health; 503 when the database is unreachable
func (h *HealthHandler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	status := http.StatusOK
	checks := gin.H{}

	if err := h.pingDB(ctx); err != nil {
		status = http.StatusServiceUnavailable
		checks["database"] = err.Error()
	} else {
		checks["database"] = "ok"
	}

	switch {
	case h.redis == nil:
		checks["redis"] = "disabled"
	case h.redis.Ping(ctx).Err() != nil:
		// Redis 는 선택 의존성: 상태만 보고
		checks["redis"] = "unreachable"
	default:
		checks["redis"] = "ok"
	}

	body := gin.H{
		"status":  "ok",
		"service": "thrivesend-backend",
		"time":    time.Now().Unix(),
		"checks":  checks,
	}
	if status != http.StatusOK {
		body["status"] = "degraded"
	}
	if h.outbox != nil {
		if counts, err := h.outbox.CountByStatus(ctx); err == nil {
			body["outbox"] = counts
		}
	}
	if h.tasks != nil {
		body["tasks"] = h.tasks.GetTasks()
	}

	c.JSON(status, body)
}

func (h *HealthHandler) pingDB(ctx context.Context) error {
	sqlDB, err := h.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
