package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeDotEnv(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600))
}

// unsetAfter removes variables the loader sets directly through os.Setenv
func unsetAfter(t *testing.T, keys ...string) {
	t.Cleanup(func() {
		for _, k := range keys {
			_ = os.Unsetenv(k)
		}
	})
}

func TestLoadDotEnvFrom_Precedence(t *testing.T) {
	dir := t.TempDir()
	writeDotEnv(t, dir, ".env.local", "DOTENV_TEST_A=local\n")
	writeDotEnv(t, dir, ".env.staging", "DOTENV_TEST_A=staging\nDOTENV_TEST_B=staging\n")
	writeDotEnv(t, dir, ".env", "DOTENV_TEST_A=base\nDOTENV_TEST_B=base\nDOTENV_TEST_C=base\nDOTENV_TEST_D=base\n")
	unsetAfter(t, "DOTENV_TEST_A", "DOTENV_TEST_B", "DOTENV_TEST_C")
	t.Setenv("DOTENV_TEST_D", "process")

	loaded, err := LoadDotEnvFrom(dir, "staging")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, ".env.local"),
		filepath.Join(dir, ".env.staging"),
		filepath.Join(dir, ".env"),
	}, loaded)

	assert.Equal(t, "local", os.Getenv("DOTENV_TEST_A"))
	assert.Equal(t, "staging", os.Getenv("DOTENV_TEST_B"))
	assert.Equal(t, "base", os.Getenv("DOTENV_TEST_C"))
	// 프로세스 환경변수가 항상 우선
	assert.Equal(t, "process", os.Getenv("DOTENV_TEST_D"))
}

func TestLoadDotEnvFrom_MalformedFile(t *testing.T) {
	dir := t.TempDir()
	writeDotEnv(t, dir, ".env", "DOTENV_TEST_GOOD=1\nDOTENV-TEST-BAD=2\n")
	unsetAfter(t, "DOTENV_TEST_GOOD")

	loaded, err := LoadDotEnvFrom(dir, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), filepath.Join(dir, ".env"))
	assert.Empty(t, loaded)

	_, set := os.LookupEnv("DOTENV_TEST_GOOD")
	assert.False(t, set)
}

func TestLoadDotEnvFrom_NoFiles(t *testing.T) {
	loaded, err := LoadDotEnvFrom(t.TempDir(), "prod")
	require.NoError(t, err)
	assert.Empty(t, loaded)
}
