package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/RLabs-Inc/memory/internal/store"
)

// Config is the server's environment-derived configuration (spec.md §6).
type Config struct {
	Port int
	Host string

	StorageMode store.StorageMode
	CentralPath string
	LocalPath   string // cwd, used only when StorageMode == ModeLocal
	APIURL      string

	ManagerEnabled  bool
	PersonalEnabled bool

	AnthropicAPIKey string
	AnthropicModel  string

	OllamaBaseURL  string
	EmbeddingModel string

	LogLevel string
}

func Load() (*Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("config: getwd: %w", err)
	}

	cfg := &Config{
		Port:            envInt("MEMORY_PORT", 8765),
		Host:            envStr("MEMORY_HOST", "localhost"),
		StorageMode:     store.StorageMode(envStr("MEMORY_STORAGE_MODE", string(store.ModeCentral))),
		CentralPath:     envStr("MEMORY_CENTRAL_PATH", defaultCentralPath()),
		LocalPath:       cwd,
		APIURL:          envStr("MEMORY_API_URL", ""),
		ManagerEnabled:  envBool("MEMORY_MANAGER_ENABLED", true),
		PersonalEnabled: envBool("MEMORY_PERSONAL_ENABLED", true),
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicModel:  envStr("ANTHROPIC_MODEL", "claude-sonnet-4-5"),
		OllamaBaseURL:   envStr("OLLAMA_BASE_URL", "http://localhost:11434"),
		EmbeddingModel:  envStr("EMBEDDING_MODEL", "nomic-embed-text"),
		LogLevel:        envStr("LOG_LEVEL", "info"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("MEMORY_PORT must be between 1 and 65535, got %d", c.Port)
	}
	if c.StorageMode != store.ModeCentral && c.StorageMode != store.ModeLocal {
		return fmt.Errorf("MEMORY_STORAGE_MODE must be central or local, got %q", c.StorageMode)
	}
	if c.CentralPath == "" {
		return fmt.Errorf("MEMORY_CENTRAL_PATH must not be empty")
	}
	return nil
}

// defaultCentralPath follows XDG_DATA_HOME, falling back to ~/.local/share.
func defaultCentralPath() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "memory")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".memory")
	}
	return filepath.Join(home, ".local", "share", "memory")
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
