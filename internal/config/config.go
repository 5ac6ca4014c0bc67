package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultOperatorID is the bot operator's Discord user id. It bypasses
// every permission check.
const DefaultOperatorID = "201215609189564416"

// DefaultTrackImageBaseURL is where circuit map images are served from
// when an event has no uploaded track map.
const DefaultTrackImageBaseURL = "https://www.formula1.com/content/dam/fom-website/2018-redesign-assets/Circuit%20maps%2016x9/"

// Config holds all configuration values for the bot
type Config struct {
	// Discord
	DiscordToken string
	GuildIDs     []string

	// Database
	DatabasePath string

	// Redis (optional, enables cross-process locking)
	RedisURL string
	// LockTTL is how long a crashed holder blocks a key. Live holders
	// extend their locks.
	LockTTL time.Duration

	// Permissions
	OperatorID string

	// Rosters
	RosterRepostDelay     time.Duration
	RosterRefreshInterval time.Duration

	// Check-ins
	TrackImageBaseURL string

	// Logging
	LogLevel string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		DiscordToken:      os.Getenv("DISCORD_BOT_TOKEN"),
		GuildIDs:          splitList(os.Getenv("GUILD_IDS")),
		DatabasePath:      getEnvOrDefault("DATABASE_PATH", "./data/checkin_bot.db"),
		RedisURL:          os.Getenv("REDIS_URL"),
		OperatorID:        getEnvOrDefault("OPERATOR_USER_ID", DefaultOperatorID),
		TrackImageBaseURL: getEnvOrDefault("TRACK_IMAGE_BASE_URL", DefaultTrackImageBaseURL),
		LogLevel:          getEnvOrDefault("LOG_LEVEL", "info"),
	}

	lockTTL, err := getIntOrDefault("LOCK_TTL_SECONDS", 10)
	if err != nil {
		return nil, err
	}
	if lockTTL <= 0 {
		return nil, fmt.Errorf("LOCK_TTL_SECONDS must be positive, got %d", lockTTL)
	}
	cfg.LockTTL = time.Duration(lockTTL) * time.Second

	repostDelay, err := getIntOrDefault("ROSTER_REPOST_DELAY_MS", 500)
	if err != nil {
		return nil, err
	}
	cfg.RosterRepostDelay = time.Duration(repostDelay) * time.Millisecond

	refresh, err := getIntOrDefault("ROSTER_REFRESH_INTERVAL_SECONDS", 0)
	if err != nil {
		return nil, err
	}
	cfg.RosterRefreshInterval = time.Duration(refresh) * time.Second

	// Validate required fields
	if cfg.DiscordToken == "" {
		return nil, fmt.Errorf("DISCORD_BOT_TOKEN is required")
	}

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if value < 0 {
		return 0, fmt.Errorf("invalid %s: must not be negative", key)
	}
	return value, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
