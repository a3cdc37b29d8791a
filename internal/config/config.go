package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultModel is the model name reported in translated responses when
	// the provider stream does not carry one.
	DefaultModel = "gpt-4o"
)

// Config holds all translation runtime configuration.
type Config struct {
	Model           string
	Debug           bool
	SessionTTL      time.Duration
	SessionCapacity int
	ColdStorageDir  string
	LogFile         string
}

// DefaultFromEnv creates a Config with defaults from environment variables.
func DefaultFromEnv() *Config {
	return &Config{
		Model:           envOrDefault("LLMBRIDGE_MODEL", DefaultModel),
		Debug:           envBool("LLMBRIDGE_DEBUG"),
		SessionTTL:      envDuration("LLMBRIDGE_SESSION_TTL", 0),
		SessionCapacity: envInt("LLMBRIDGE_SESSION_CAPACITY", 0),
		ColdStorageDir:  strings.TrimSpace(os.Getenv("LLMBRIDGE_COLD_STORAGE_DIR")),
		LogFile:         strings.TrimSpace(os.Getenv("LLMBRIDGE_LOG_FILE")),
	}
}

func envOrDefault(key, defaultVal string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return defaultVal
}

func envBool(key string) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	return v == "1" || v == "true" || v == "yes" || v == "on"
}

func envInt(key string, defaultVal int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return n
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
