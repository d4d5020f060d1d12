package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type APIConfig struct {
	Addr        string
	SessionTTL  time.Duration
	ReapEvery   time.Duration
	MaxSessions int
	LogLevel    slog.Level
}

type CLIConfig struct {
	APIBaseURL string
}

func LoadAPIFromEnv() (APIConfig, error) {
	addr := os.Getenv("PORT")
	if addr != "" {
		if !strings.HasPrefix(addr, ":") {
			addr = ":" + addr
		}
	} else {
		addr = envDefault("COFFEE_API_ADDR", ":8080")
	}

	cfg := APIConfig{
		Addr:        addr,
		SessionTTL:  envDurationDefault("COFFEE_SESSION_TTL", 30*time.Minute),
		ReapEvery:   envDurationDefault("COFFEE_REAP_EVERY", time.Minute),
		MaxSessions: envIntDefault("COFFEE_MAX_SESSIONS", 1000),
		LogLevel:    envLevelDefault("COFFEE_LOG_LEVEL", slog.LevelInfo),
	}
	if cfg.SessionTTL <= 0 {
		return cfg, fmt.Errorf("COFFEE_SESSION_TTL must be positive")
	}
	if cfg.ReapEvery <= 0 {
		return cfg, fmt.Errorf("COFFEE_REAP_EVERY must be positive")
	}
	if cfg.MaxSessions < 0 {
		return cfg, fmt.Errorf("COFFEE_MAX_SESSIONS must not be negative")
	}
	return cfg, nil
}

func LoadCLIFromEnv() CLIConfig {
	return CLIConfig{
		APIBaseURL: strings.TrimRight(envDefault("COFFEE_API_BASE_URL", "http://localhost:8080"), "/"),
	}
}

func envDefault(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envDurationDefault(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func envIntDefault(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envLevelDefault(key string, fallback slog.Level) slog.Level {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(v)); err != nil {
		return fallback
	}
	return level
}
