package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "http://localhost:8000", cfg.API.BaseURL)
	assert.Equal(t, "HELIOS_TOKEN", cfg.Auth.TokenEnv)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 30*time.Second, cfg.API.TimeoutDuration())
}

func TestLoadMissingFileKeepsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadLayersFileOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
api:
  base_url: https://helios.internal
  timeout: 90s
auth:
  token: file-token
chat:
  goal_id: goal-42
logging:
  level: debug
  development: true
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://helios.internal", cfg.API.BaseURL)
	assert.Equal(t, 90*time.Second, cfg.API.TimeoutDuration())
	assert.Equal(t, "file-token", cfg.Auth.Token)
	assert.Equal(t, "goal-42", cfg.Chat.GoalID)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Development)

	// Untouched sections keep their defaults.
	assert.Equal(t, "HELIOS_TOKEN", cfg.Auth.TokenEnv)
}

func TestLoadPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("chat:\n  goal_id: only-this\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "only-this", cfg.Chat.GoalID)
	assert.Equal(t, "http://localhost:8000", cfg.API.BaseURL)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api: [not a mapping"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverridesWinOverFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
api:
  base_url: https://from-file
chat:
  goal_id: file-goal
`), 0o600))

	t.Setenv("HELIOS_API_URL", "https://from-env")
	t.Setenv("HELIOS_GOAL_ID", "env-goal")
	t.Setenv("HELIOS_LOG_LEVEL", "warn")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://from-env", cfg.API.BaseURL)
	assert.Equal(t, "env-goal", cfg.Chat.GoalID)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestTimeoutDurationFallsBack(t *testing.T) {
	assert.Equal(t, 30*time.Second, APIConfig{Timeout: ""}.TimeoutDuration())
	assert.Equal(t, 30*time.Second, APIConfig{Timeout: "bogus"}.TimeoutDuration())
	assert.Equal(t, 30*time.Second, APIConfig{Timeout: "-5s"}.TimeoutDuration())
	assert.Equal(t, 2*time.Minute, APIConfig{Timeout: "2m"}.TimeoutDuration())
}
