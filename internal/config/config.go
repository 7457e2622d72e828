package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix 환경변수 오버라이드 접두사 (예: THRIVESEND_DATABASE_HOST)
const EnvPrefix = "THRIVESEND"

// Config 애플리케이션 설정
type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Database     DatabaseConfig     `yaml:"database"`
	Redis        RedisConfig        `yaml:"redis"`
	JWT          JWTConfig          `yaml:"jwt"`
	CORS         CORSConfig         `yaml:"cors"`
	Storage      StorageConfig      `yaml:"storage"`
	Approval     ApprovalConfig     `yaml:"approval"`
	Outbox       OutboxConfig       `yaml:"outbox"`
	EmailTrigger EmailTriggerConfig `yaml:"email_trigger" envconfig:"email_trigger"`
	RateLimit    RateLimitConfig    `yaml:"rate_limit" envconfig:"rate_limit"`
}

// ServerConfig HTTP 서버 설정
type ServerConfig struct {
	Port            int           `yaml:"port"`
	Mode            string        `yaml:"mode"` // debug, release, test
	Env             string        `yaml:"env"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"shutdown_timeout"`
}

// DatabaseConfig MySQL 설정
type DatabaseConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	DBName          string        `yaml:"dbname"`
	MaxIdleConns    int           `yaml:"max_idle_conns" envconfig:"max_idle_conns"`
	MaxOpenConns    int           `yaml:"max_open_conns" envconfig:"max_open_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" envconfig:"conn_max_lifetime"`
	LogQueries      bool          `yaml:"log_queries" envconfig:"log_queries"`
}

// RedisConfig Redis 설정
type RedisConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size" envconfig:"pool_size"`
}

// JWTConfig 세션 토큰 검증 설정
type JWTConfig struct {
	Secret string `yaml:"secret"`
	Issuer string `yaml:"issuer"`
}

// CORSConfig CORS 설정
type CORSConfig struct {
	AllowOrigins string `yaml:"allow_origins" envconfig:"allow_origins"` // comma separated
}

// StorageConfig S3 호환 스토리지 설정 (승인 이력 아카이브)
type StorageConfig struct {
	Enabled         bool   `yaml:"enabled"`
	Endpoint        string `yaml:"endpoint"`
	Region          string `yaml:"region"`
	AccessKeyID     string `yaml:"access_key_id" envconfig:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key" envconfig:"secret_access_key"`
	Bucket          string `yaml:"bucket"`
	CDNURL          string `yaml:"cdn_url" envconfig:"cdn_url"`
	BasePath        string `yaml:"base_path" envconfig:"base_path"`
	ForcePathStyle  bool   `yaml:"force_path_style" envconfig:"force_path_style"`
}

// ApprovalConfig 승인 워크플로우 설정
type ApprovalConfig struct {
	AllowResubmit      bool `yaml:"allow_resubmit" envconfig:"allow_resubmit"`
	EnableTestEndpoint bool `yaml:"enable_test_endpoint" envconfig:"enable_test_endpoint"`
	ListDefaultLimit   int  `yaml:"list_default_limit" envconfig:"list_default_limit"`
	ListMaxLimit       int  `yaml:"list_max_limit" envconfig:"list_max_limit"`
}

// OutboxConfig outbox 디스패처 설정
type OutboxConfig struct {
	PollInterval time.Duration `yaml:"poll_interval" envconfig:"poll_interval"`
	BatchSize    int           `yaml:"batch_size" envconfig:"batch_size"`
	MaxAttempts  int           `yaml:"max_attempts" envconfig:"max_attempts"`
	RetryBase    time.Duration `yaml:"retry_base" envconfig:"retry_base"`
}

// EmailTriggerConfig 캠페인 이메일 스케줄러 호출 설정
type EmailTriggerConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

// RateLimitConfig API 요청 제한 설정
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute" envconfig:"requests_per_minute"`
}

// Default 기본 설정값
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			Mode:            "debug",
			Env:             "development",
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            3306,
			User:            "thrivesend",
			DBName:          "thrivesend",
			MaxIdleConns:    10,
			MaxOpenConns:    50,
			ConnMaxLifetime: time.Hour,
		},
		Redis: RedisConfig{
			Host:     "localhost",
			Port:     6379,
			PoolSize: 10,
		},
		JWT: JWTConfig{Issuer: "thrivesend"},
		Storage: StorageConfig{
			Region:   "us-east-1",
			BasePath: "thrivesend/",
		},
		Approval: ApprovalConfig{
			AllowResubmit:      true,
			EnableTestEndpoint: false,
			ListDefaultLimit:   50,
			ListMaxLimit:       100,
		},
		Outbox: OutboxConfig{
			PollInterval: 30 * time.Second,
			BatchSize:    20,
			MaxAttempts:  8,
			RetryBase:    30 * time.Second,
		},
		EmailTrigger: EmailTriggerConfig{Timeout: 5 * time.Second},
		RateLimit:    RateLimitConfig{RequestsPerMinute: 120},
	}
}

// Load 설정 로드: 기본값 -> YAML 파일(있으면) -> 환경변수
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("config 파싱 실패 (%s): %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
			// 파일이 없으면 기본값 + 환경변수만 사용
		default:
			return nil, fmt.Errorf("config 읽기 실패 (%s): %w", path, err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("환경변수 처리 실패: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate 필수값 검증
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return errors.New("jwt.secret is required")
	}
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be positive, got %d", c.Server.Port)
	}
	if c.Approval.ListDefaultLimit <= 0 || c.Approval.ListMaxLimit < c.Approval.ListDefaultLimit {
		return fmt.Errorf("approval list limits invalid (default=%d, max=%d)",
			c.Approval.ListDefaultLimit, c.Approval.ListMaxLimit)
	}
	if c.Outbox.PollInterval <= 0 || c.Outbox.BatchSize <= 0 || c.Outbox.MaxAttempts <= 0 {
		return errors.New("outbox poll_interval, batch_size and max_attempts must be positive")
	}
	if c.Storage.Enabled && c.Storage.Bucket == "" {
		return errors.New("storage.bucket is required when storage is enabled")
	}
	if c.Storage.Enabled && (c.Storage.AccessKeyID == "" || c.Storage.SecretAccessKey == "") {
		return errors.New("storage.access_key_id and storage.secret_access_key are required when storage is enabled")
	}
	return nil
}

// IsDevelopment 개발 환경 여부
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development" || c.Server.Env == "dev" || c.Server.Env == "local"
}

// GetDSN MySQL DSN 생성
func (d *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		d.User, d.Password, d.Host, d.Port, d.DBName)
}

// ConfigPath APP_ENV 에 따른 설정 파일 경로
func ConfigPath(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf("configs/config.%s.yaml", env)
}
