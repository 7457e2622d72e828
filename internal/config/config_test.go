package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.test.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
  env: production
jwt:
  secret: from-file
approval:
  allow_resubmit: false
  list_default_limit: 25
  list_max_limit: 80
outbox:
  poll_interval: 1m
`)
	t.Setenv("THRIVESEND_JWT_SECRET", "from-env")
	t.Setenv("THRIVESEND_DATABASE_HOST", "db.internal")
	t.Setenv("THRIVESEND_EMAIL_TRIGGER_URL", "http://campaigns/trigger")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.False(t, cfg.IsDevelopment())
	assert.Equal(t, "from-env", cfg.JWT.Secret)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "http://campaigns/trigger", cfg.EmailTrigger.URL)
	assert.False(t, cfg.Approval.AllowResubmit)
	assert.Equal(t, 25, cfg.Approval.ListDefaultLimit)
	assert.Equal(t, time.Minute, cfg.Outbox.PollInterval)
	// 파일에 없는 값은 기본값 유지
	assert.Equal(t, 8, cfg.Outbox.MaxAttempts)
	assert.Equal(t, 5*time.Second, cfg.EmailTrigger.Timeout)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("THRIVESEND_JWT_SECRET", "s")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.True(t, cfg.Approval.AllowResubmit)
	assert.Equal(t, 50, cfg.Approval.ListDefaultLimit)
	assert.Equal(t, 100, cfg.Approval.ListMaxLimit)
}

func TestLoad_RequiresSecret(t *testing.T) {
	_, err := Load(writeConfig(t, "server:\n  port: 8080\n"))
	assert.Error(t, err)
}

func TestLoad_InvalidYAML(t *testing.T) {
	t.Setenv("THRIVESEND_JWT_SECRET", "s")
	_, err := Load(writeConfig(t, "server: [unclosed"))
	assert.Error(t, err)
}

func TestValidate_ListLimits(t *testing.T) {
	cfg := Default()
	cfg.JWT.Secret = "s"
	cfg.Approval.ListMaxLimit = 10
	assert.Error(t, cfg.Validate())
}

func TestValidate_StorageBucket(t *testing.T) {
	cfg := Default()
	cfg.JWT.Secret = "s"
	cfg.Storage.Enabled = true
	assert.Error(t, cfg.Validate())
}

func TestValidate_StorageCredentials(t *testing.T) {
	cfg := Default()
	cfg.JWT.Secret = "s"
	cfg.Storage.Enabled = true
	cfg.Storage.Bucket = "archive"
	assert.Error(t, cfg.Validate())

	cfg.Storage.AccessKeyID = "minio"
	cfg.Storage.SecretAccessKey = "minio123"
	assert.NoError(t, cfg.Validate())
}

func TestGetDSN(t *testing.T) {
	d := DatabaseConfig{User: "u", Password: "p", Host: "h", Port: 3306, DBName: "db"}
	assert.Equal(t, "u:p@tcp(h:3306)/db?charset=utf8mb4&parseTime=True&loc=UTC", d.GetDSN())
}

func TestConfigPath(t *testing.T) {
	assert.Equal(t, "configs/config.local.yaml", ConfigPath(""))
	assert.Equal(t, "configs/config.prod.yaml", ConfigPath("prod"))
}
