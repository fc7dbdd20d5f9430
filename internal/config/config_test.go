package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfigFromFile(t *testing.T) {
	path := writeTempConfig(t, `
server:
  address: ":9090"
  cors_origins:
    - "https://jobs.example.com"
mysql:
  host: "db.internal"
  port: 3307
  database: "recruitflow"
auth:
  secret: "file-secret"
engine:
  evaluate_cv_url: "http://engine:5678/webhook/evaluate-cv"
  evaluate_timeout_minutes: 8
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Address)
	assert.Equal(t, []string{"https://jobs.example.com"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "db.internal", cfg.MySQL.Host)
	assert.Equal(t, 3307, cfg.MySQL.Port)
	assert.Equal(t, "file-secret", cfg.Auth.Secret)
	assert.Equal(t, 8, cfg.Engine.EvaluateTimeoutMinutes)
}

func TestLoadConfigAppliesDefaults(t *testing.T) {
	path := writeTempConfig(t, `
auth:
  secret: "x"
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, "HS256", cfg.Auth.Algorithm)
	assert.Equal(t, 60, cfg.Auth.AccessExpireMinutes)
	assert.Equal(t, 7*24, cfg.Auth.RefreshExpireHours)
	assert.Equal(t, 120, cfg.Engine.RequestTimeoutSeconds)
	assert.Equal(t, 5, cfg.Engine.EvaluateTimeoutMinutes)
	assert.Equal(t, int64(5*1024*1024), cfg.Form.MaxUploadBytes)
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "recruitflow-go", cfg.Tracing.ServiceName)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	path := writeTempConfig(t, `
auth:
  secret: "file-secret"
mysql:
  password: "file-password"
`)
	t.Setenv("JWT_SECRET", "env-secret")
	t.Setenv("MYSQL_PASSWORD", "env-password")
	t.Setenv("ENGINE_EVALUATE_CV_URL", "http://override:5678/webhook/evaluate-cv")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "env-secret", cfg.Auth.Secret)
	assert.Equal(t, "env-password", cfg.MySQL.Password)
	assert.Equal(t, "http://override:5678/webhook/evaluate-cv", cfg.Engine.EvaluateCVURL)
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	path := writeTempConfig(t, "server: [not: a: map")

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestGetDuration(t *testing.T) {
	assert.Equal(t, 5*time.Second, GetDuration("5s", time.Minute))
	assert.Equal(t, time.Minute, GetDuration("", time.Minute))
	assert.Equal(t, time.Minute, GetDuration("garbage", time.Minute))
}
