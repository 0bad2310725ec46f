// Package config loads bot configuration from the environment. All settings
// are read once at startup and passed down explicitly; nothing in the rating
// core reads the environment on its own.
package config

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

// Config holds every tunable for the bot process.
type Config struct {
	DiscordToken string
	OMDBAPIKey   string
	OMDBBaseURL  string

	DatabaseURL string
	RedisURL    string // optional; empty selects the in-process stats cache
	NATSURL     string // optional; empty disables event publishing

	LogLevel string
	HTTPAddr string

	StatsCacheTTL time.Duration
	EventTimeout  time.Duration
}

// Load reads configuration from the environment, applies defaults and
// validates required fields.
func Load(getenv func(string) string) (Config, error) {
	env := func(key string) string { return strings.TrimSpace(getenv(key)) }

	cfg := Config{
		DiscordToken:  env("DISCORD_TOKEN"),
		OMDBAPIKey:    env("OMDB_API_KEY"),
		OMDBBaseURL:   env("OMDB_BASE_URL"),
		DatabaseURL:   env("DATABASE_URL"),
		RedisURL:      env("REDIS_URL"),
		NATSURL:       env("NATS_URL"),
		LogLevel:      env("LOG_LEVEL"),
		HTTPAddr:      env("HTTP_ADDR"),
		StatsCacheTTL: envDuration(env("STATS_CACHE_TTL"), 2*time.Minute),
		EventTimeout:  envDuration(env("EVENT_TIMEOUT"), 10*time.Second),
	}

	if cfg.DiscordToken == "" {
		return Config{}, errors.New("DISCORD_TOKEN is required")
	}
	if cfg.OMDBAPIKey == "" {
		return Config{}, errors.New("OMDB_API_KEY is required")
	}
	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("DATABASE_URL is required")
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}
	return cfg, nil
}

func envDuration(v string, fallback time.Duration) time.Duration {
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}
	// Bare numbers are read as seconds for parity with the old deployment.
	if n, err := strconv.Atoi(v); err == nil && n > 0 {
		return time.Duration(n) * time.Second
	}
	return fallback
}
