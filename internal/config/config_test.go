package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RLabs-Inc/memory/internal/store"
)

func TestLoad_DefaultsWhenUnset(t *testing.T) {
	for _, k := range []string{
		"MEMORY_PORT", "MEMORY_HOST", "MEMORY_STORAGE_MODE", "MEMORY_CENTRAL_PATH",
		"MEMORY_API_URL", "MEMORY_MANAGER_ENABLED", "MEMORY_PERSONAL_ENABLED",
		"ANTHROPIC_API_KEY", "ANTHROPIC_MODEL", "OLLAMA_BASE_URL", "EMBEDDING_MODEL", "LOG_LEVEL",
	} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8765, cfg.Port)
	assert.Equal(t, "localhost", cfg.Host)
	assert.Equal(t, store.ModeCentral, cfg.StorageMode)
	assert.True(t, cfg.ManagerEnabled)
	assert.True(t, cfg.PersonalEnabled)
	assert.NotEmpty(t, cfg.CentralPath)
}

func TestLoad_ReadsOverridesFromEnv(t *testing.T) {
	t.Setenv("MEMORY_PORT", "9000")
	t.Setenv("MEMORY_HOST", "0.0.0.0")
	t.Setenv("MEMORY_STORAGE_MODE", "local")
	t.Setenv("MEMORY_CENTRAL_PATH", t.TempDir())
	t.Setenv("MEMORY_MANAGER_ENABLED", "false")
	t.Setenv("MEMORY_PERSONAL_ENABLED", "false")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, "0.0.0.0", cfg.Host)
	assert.Equal(t, store.ModeLocal, cfg.StorageMode)
	assert.False(t, cfg.ManagerEnabled)
	assert.False(t, cfg.PersonalEnabled)
}

func TestLoad_RejectsInvalidPort(t *testing.T) {
	t.Setenv("MEMORY_PORT", "70000")
	_, err := Load()
	require.Error(t, err)
}

func TestLoad_RejectsInvalidStorageMode(t *testing.T) {
	t.Setenv("MEMORY_STORAGE_MODE", "remote")
	_, err := Load()
	require.Error(t, err)
}

func TestLoad_FallsBackToDotMemoryWhenHomeUnset(t *testing.T) {
	t.Setenv("MEMORY_CENTRAL_PATH", "")
	t.Setenv("XDG_DATA_HOME", "")
	t.Setenv("HOME", "")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ".memory", cfg.CentralPath)
}
