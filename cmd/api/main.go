package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/thrivesend/thrivesend-backend/internal/config"
	"github.com/thrivesend/thrivesend-backend/internal/domain"
	"github.com/thrivesend/thrivesend-backend/internal/handler"
	"github.com/thrivesend/thrivesend-backend/internal/middleware"
	"github.com/thrivesend/thrivesend-backend/internal/migration"
	"github.com/thrivesend/thrivesend-backend/internal/repository"
	"github.com/thrivesend/thrivesend-backend/internal/routes"
	"github.com/thrivesend/thrivesend-backend/internal/scheduler"
	"github.com/thrivesend/thrivesend-backend/internal/service"
	"github.com/thrivesend/thrivesend-backend/internal/ws"
	pkgcache "github.com/thrivesend/thrivesend-backend/pkg/cache"
	"github.com/thrivesend/thrivesend-backend/pkg/jwt"
	pkglogger "github.com/thrivesend/thrivesend-backend/pkg/logger"
	pkgredis "github.com/thrivesend/thrivesend-backend/pkg/redis"
	pkgstorage "github.com/thrivesend/thrivesend-backend/pkg/storage"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func main() {
	dotenvFiles, dotenvErr := config.LoadDotEnv(os.Getenv("APP_ENV"))

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "local"
	}
	pkglogger.InitStructured(env)
	log := pkglogger.GetLogger()
	if dotenvErr != nil {
		log.Fatal().Err(dotenvErr).Strs("env_files", dotenvFiles).Msg("failed to load .env file")
	}
	log.Info().Str("app_env", env).Strs("env_files", dotenvFiles).Msg("starting")

	// 설정 로드
	configPath := config.ConfigPath(env)
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", configPath).Msg("failed to load config")
	}
	gin.SetMode(cfg.Server.Mode)

	// MySQL 연결
	db, err := initDB(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := migration.Run(db); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}
	if cfg.IsDevelopment() {
		if err := migration.Seed(db); err != nil {
			log.Warn().Err(err).Msg("dev seed failed")
		}
	}

	// Redis 연결 (선택)
	redisClient, err := pkgredis.NewClient(context.Background(), pkgredis.Options{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})
	if err != nil {
		log.Warn().Err(err).Msg("continuing without Redis")
		redisClient = nil
	}
	cacheService := pkgcache.NewService(redisClient)

	// S3-compatible storage (승인 이력 아카이브)
	var s3Client *pkgstorage.S3Client
	if cfg.Storage.Enabled {
		s3Client, err = pkgstorage.NewS3Client(pkgstorage.S3Config{
			Endpoint:        cfg.Storage.Endpoint,
			Region:          cfg.Storage.Region,
			AccessKeyID:     cfg.Storage.AccessKeyID,
			SecretAccessKey: cfg.Storage.SecretAccessKey,
			Bucket:          cfg.Storage.Bucket,
			CDNURL:          cfg.Storage.CDNURL,
			BasePath:        cfg.Storage.BasePath,
			ForcePathStyle:  cfg.Storage.ForcePathStyle,
		})
		if err != nil {
			log.Warn().Err(err).Msg("continuing without history archive storage")
			s3Client = nil
		}
	}

	// WebSocket Hub
	wsHub := ws.NewHub(redisClient)
	go wsHub.Run()

	// Repositories
	userRepo := repository.NewCachedUserRepository(repository.NewUserRepository(db), cacheService)
	contentRepo := repository.NewContentRepository(db)
	approvalRepo := repository.NewApprovalRepository(db)
	outboxRepo := repository.NewOutboxRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	// Outbox -> 캠페인 이메일 트리거
	dispatcher := service.NewOutboxDispatcher(outboxRepo, service.OutboxOptions{
		BatchSize:   cfg.Outbox.BatchSize,
		MaxAttempts: cfg.Outbox.MaxAttempts,
		RetryBase:   cfg.Outbox.RetryBase,
	})
	dispatcher.Handle(domain.TopicContentApproved,
		service.EmailTriggerHandler(service.NewHTTPEmailTrigger(cfg.EmailTrigger.URL, cfg.EmailTrigger.Timeout)))

	// Services
	notificationService := service.NewNotificationService(notificationRepo, userRepo, wsHub)
	approvalService := service.NewApprovalService(approvalRepo, contentRepo, userRepo, notificationService, dispatcher, service.ApprovalOptions{
		AllowResubmit:    cfg.Approval.AllowResubmit,
		ListDefaultLimit: cfg.Approval.ListDefaultLimit,
		ListMaxLimit:     cfg.Approval.ListMaxLimit,
	})
	contentService := service.NewContentService(contentRepo, approvalRepo, userRepo)

	var archiver handler.HistoryArchiver
	if s3Client != nil {
		archiver = service.NewArchiveService(approvalService, s3Client)
	}

	// Background jobs
	sched := scheduler.New()
	mustRegister(sched, "outbox-dispatch", cfg.Outbox.PollInterval, func(ctx context.Context) error {
		n, err := dispatcher.DispatchPending(ctx)
		if n > 0 {
			log.Info().Int("dispatched", n).Msg("outbox tasks dispatched")
		}
		return err
	})
	mustRegister(sched, "db-stats", 15*time.Second, func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		middleware.SetDBConnectionsOpen(float64(sqlDB.Stats().OpenConnections))
		return nil
	})
	sched.Start()

	// Gin 라우터
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.SecurityHeaders())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     corsOrigins(cfg.CORS.AllowOrigins),
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		ExposeHeaders:    []string{"X-Request-ID", "X-Total-Count", "X-Page", "X-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	router.Use(middleware.RequestLogger())
	router.Use(middleware.Metrics())

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	routes.Setup(router, routes.Handlers{
		Approval:     handler.NewApprovalHandler(approvalService, archiver),
		Content:      handler.NewContentHandler(contentService),
		Notification: handler.NewNotificationHandler(notificationService),
		WS:           handler.NewWSHandler(wsHub, userRepo, splitAndTrim(cfg.CORS.AllowOrigins)),
		Health:       handler.NewHealthHandler(db, redisClient, outboxRepo, sched),
	}, jwt.NewManager(cfg.JWT.Secret, cfg.JWT.Issuer), redisClient, cfg)

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"message": "not found", "error": "NOT_FOUND"})
	})

	// 서버 시작
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}
	sched.Stop()
	wsHub.Stop()
	closeRedis(redisClient)
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info().Msg("stopped")
}

// initDB MySQL 연결 초기화
func initDB(cfg *config.Config) (*gorm.DB, error) {
	mysqlCfg, err := mysqldriver.ParseDSN(cfg.Database.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("DSN 파싱 실패: %w", err)
	}

	logLevel := gormlogger.Warn
	if cfg.Database.LogQueries {
		logLevel = gormlogger.Info
	}

	db, err := gorm.Open(mysql.Open(mysqlCfg.FormatDSN()), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(logLevel),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	return db, nil
}

func mustRegister(s *scheduler.Scheduler, name string, interval time.Duration, fn func(ctx context.Context) error) {
	if err := s.Register(name, interval, fn); err != nil {
		pkglogger.GetLogger().Fatal().Err(err).Msg("scheduler registration failed")
	}
}

func corsOrigins(raw string) []string {
	origins := splitAndTrim(raw)
	if len(origins) == 0 {
		return []string{"http://localhost:3000"}
	}
	return origins
}

// splitAndTrim splits a comma separated list and drops empty entries
func splitAndTrim(s string) []string {
	var parts []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}

func closeRedis(client *redis.Client) {
	if client != nil {
		_ = client.Close()
	}
}
