package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "counsel.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "memory", cfg.Store.Backend)
	assert.Equal(t, time.Second, cfg.Runtime.PollInterval.Std())
	assert.Equal(t, 90*time.Second, cfg.Runtime.PollTimeout.Std())
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: ":9000"
runtime:
  assistant_id: asst_abc
  poll_interval: 2s
  poll_timeout: 120s
retrieval:
  host: https://search.internal:7700
  scopes:
    El Salvador: laws-sv
    Guatemala: laws-gt
store:
  backend: redis
  redis:
    addr: redis.internal:6379
    db: 2
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, "asst_abc", cfg.Runtime.AssistantID)
	assert.Equal(t, 2*time.Second, cfg.Runtime.PollInterval.Std())
	assert.Equal(t, "laws-sv", cfg.Retrieval.Scopes["El Salvador"])
	assert.Equal(t, "redis", cfg.Store.Backend)
	assert.Equal(t, 2, cfg.Store.Redis.DB)

	// Untouched sections keep their defaults.
	assert.Equal(t, "gpt-4o", cfg.Runtime.Model)
	assert.Equal(t, "default", cfg.Retrieval.Embedder)
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	path := writeConfig(t, `
runtime:
  api_key: from-file
retrieval:
  api_key: from-file
`)
	t.Setenv("OPENAI_API_KEY", "sk-env")
	t.Setenv("MEILI_API_KEY", "meili-env")
	t.Setenv("REDIS_ADDR", "env-redis:6379")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "sk-env", cfg.Runtime.APIKey)
	assert.Equal(t, "meili-env", cfg.Retrieval.APIKey)
	assert.Equal(t, "env-redis:6379", cfg.Store.Redis.Addr)
}

func TestLoad_MalformedFile(t *testing.T) {
	path := writeConfig(t, "server: [not a mapping")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing config")
}

func TestLoad_BadDuration(t *testing.T) {
	path := writeConfig(t, "runtime:\n  poll_interval: soon\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid duration")
}

func TestValidate(t *testing.T) {
	valid := Default()
	valid.Runtime.APIKey = "sk-test"
	valid.Runtime.AssistantID = "asst_abc"
	require.NoError(t, valid.Validate())

	missingKey := valid
	missingKey.Runtime.APIKey = ""
	assert.Error(t, missingKey.Validate())

	missingAssistant := valid
	missingAssistant.Runtime.AssistantID = ""
	assert.Error(t, missingAssistant.Validate())

	badBackend := valid
	badBackend.Store.Backend = "postgres"
	assert.Error(t, badBackend.Validate())

	badTimeout := valid
	badTimeout.Runtime.PollTimeout = valid.Runtime.PollInterval
	assert.Error(t, badTimeout.Validate())
}
