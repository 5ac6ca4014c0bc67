package storage

import (
	"database/sql"
	"fmt"
)

// Guild settings operations

// SetNotificationChannel creates or updates the guild's notification channel
func (r *Repository) SetNotificationChannel(guildID, channelID string) error {
	_, err := r.db.Exec(
		`INSERT INTO guild_settings (guild_id, notification_channel_id) VALUES (?, ?)
		 ON CONFLICT(guild_id) DO UPDATE SET
		 notification_channel_id = excluded.notification_channel_id,
		 updated_at = CURRENT_TIMESTAMP`,
		guildID, nullString(channelID),
	)
	if err != nil {
		return fmt.Errorf("failed to set notification channel for guild %s: %w", guildID, err)
	}
	return nil
}

// SetManagerRole creates or updates the guild's manager role
func (r *Repository) SetManagerRole(guildID, roleID string) error {
	_, err := r.db.Exec(
		`INSERT INTO guild_settings (guild_id, manager_role_id) VALUES (?, ?)
		 ON CONFLICT(guild_id) DO UPDATE SET
		 manager_role_id = excluded.manager_role_id,
		 updated_at = CURRENT_TIMESTAMP`,
		guildID, nullString(roleID),
	)
	if err != nil {
		return fmt.Errorf("failed to set manager role for guild %s: %w", guildID, err)
	}
	return nil
}

// ClearManagerRole removes the manager role requirement. The rest of the
// guild's settings are kept.
func (r *Repository) ClearManagerRole(guildID string) error {
	_, err := r.db.Exec(
		`UPDATE guild_settings SET manager_role_id = NULL, updated_at = CURRENT_TIMESTAMP WHERE guild_id = ?`,
		guildID,
	)
	if err != nil {
		return fmt.Errorf("failed to clear manager role for guild %s: %w", guildID, err)
	}
	return nil
}

// GetGuildSettings retrieves guild settings
func (r *Repository) GetGuildSettings(guildID string) (*GuildSettings, error) {
	var channelID, roleID sql.NullString
	settings := &GuildSettings{}
	err := r.db.QueryRow(
		`SELECT guild_id, notification_channel_id, manager_role_id FROM guild_settings WHERE guild_id = ?`,
		guildID,
	).Scan(&settings.GuildID, &channelID, &roleID)
	if err != nil {
		return nil, notFound(err, "guild settings "+guildID)
	}
	settings.NotificationChannelID = channelID.String
	settings.ManagerRoleID = roleID.String
	return settings, nil
}
