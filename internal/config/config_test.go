package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DISCORD_BOT_TOKEN", "token")
	t.Setenv("DATABASE_PATH", "")
	t.Setenv("OPERATOR_USER_ID", "")
	t.Setenv("LOCK_TTL_SECONDS", "")
	t.Setenv("ROSTER_REPOST_DELAY_MS", "")
	t.Setenv("ROSTER_REFRESH_INTERVAL_SECONDS", "")
	t.Setenv("GUILD_IDS", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "./data/checkin_bot.db", cfg.DatabasePath)
	assert.Equal(t, DefaultOperatorID, cfg.OperatorID)
	assert.Equal(t, 10*time.Second, cfg.LockTTL)
	assert.Equal(t, 500*time.Millisecond, cfg.RosterRepostDelay)
	assert.Zero(t, cfg.RosterRefreshInterval)
	assert.Empty(t, cfg.GuildIDs)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DISCORD_BOT_TOKEN", "token")
	t.Setenv("GUILD_IDS", " 1, 2 ,,3")
	t.Setenv("ROSTER_REPOST_DELAY_MS", "0")
	t.Setenv("ROSTER_REFRESH_INTERVAL_SECONDS", "300")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"1", "2", "3"}, cfg.GuildIDs)
	assert.Zero(t, cfg.RosterRepostDelay)
	assert.Equal(t, 5*time.Minute, cfg.RosterRefreshInterval)
	assert.Equal(t, "redis://localhost:6379/0", cfg.RedisURL)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing token", func(t *testing.T) {
		t.Setenv("DISCORD_BOT_TOKEN", "")
		_, err := Load()
		assert.ErrorContains(t, err, "DISCORD_BOT_TOKEN")
	})

	t.Run("invalid integer", func(t *testing.T) {
		t.Setenv("DISCORD_BOT_TOKEN", "token")
		t.Setenv("ROSTER_REPOST_DELAY_MS", "soon")
		_, err := Load()
		assert.ErrorContains(t, err, "ROSTER_REPOST_DELAY_MS")
	})

	t.Run("zero lock ttl", func(t *testing.T) {
		t.Setenv("DISCORD_BOT_TOKEN", "token")
		t.Setenv("LOCK_TTL_SECONDS", "0")
		_, err := Load()
		assert.ErrorContains(t, err, "LOCK_TTL_SECONDS")
	})
}
