package config

import (
	"os"
	"time"
)

const (
	// StoreOpTimeout bounds every storage call so a dead backend surfaces as
	// a transient failure instead of a hang.
	StoreOpTimeout = 5 * time.Second

	// WaitingQueueKey is the Redis sorted set holding the waiting pool.
	WaitingQueueKey = "waiting_queue"
	// SessionCachePrefix prefixes the per-user session cache keys in Redis.
	SessionCachePrefix = "session:"
	// SessionCacheTTL bounds a cached session entry so a missed
	// invalidation self-heals instead of shadowing the database forever.
	SessionCacheTTL = time.Minute

	// HTTPReadTimeout / HTTPWriteTimeout bound the gin server.
	HTTPReadTimeout  = 10 * time.Second
	HTTPWriteTimeout = 10 * time.Second
)

// Config holds everything read from the environment at startup.
type Config struct {
	BotToken string
	// WebhookURL enables webhook mode when set; empty means long polling.
	WebhookURL string
	HTTPAddr   string

	PostgresDSN string

	RedisAddr     string
	RedisPassword string

	JWTSecret string
}

// Load collects the environment. Defaults match the local docker-compose.
func Load() Config {
	cfg := Config{
		BotToken:   os.Getenv("TELEGRAM_BOT_TOKEN"),
		WebhookURL: os.Getenv("WEBHOOK_URL"),
		HTTPAddr:   os.Getenv("HTTP_ADDR"),

		PostgresDSN: os.Getenv("POSTGRES_DSN"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		JWTSecret: os.Getenv("JWT_SECRET"),
	}

	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}
	if cfg.PostgresDSN == "" {
		cfg.PostgresDSN = "host=localhost user=user password=password dbname=strangerchat port=5432 sslmode=disable"
	}
	if cfg.RedisAddr == "" {
		cfg.RedisAddr = "localhost:6379"
	}

	return cfg
}
