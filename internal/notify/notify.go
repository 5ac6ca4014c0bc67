// Package notify posts an audit line to a guild's notification channel
// whenever a member changes their check-in status.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/flor3z/paddock-bot/internal/checkin"
	"github.com/flor3z/paddock-bot/internal/storage"
	"github.com/flor3z/paddock-bot/internal/team"
	"github.com/flor3z/paddock-bot/internal/track"
)

// Sender delivers a plain text message to a channel
type Sender interface {
	SendMessage(ctx context.Context, channelID, content string) error
}

// Notification describes one check-in change
type Notification struct {
	GuildID     string
	MemberID    string
	DisplayName string
	Team        team.ID
	Action      checkin.Action
	Season      int
	Round       int
	Track       string
	// EventTime is the event start. Zero means unknown.
	EventTime time.Time
}

// Dispatcher sends notifications to the configured guild channel
type Dispatcher struct {
	repo   *storage.Repository
	sender Sender
}

// New creates a Dispatcher
func New(repo *storage.Repository, sender Sender) *Dispatcher {
	return &Dispatcher{repo: repo, sender: sender}
}

// SetChannel stores the guild's notification channel
func (d *Dispatcher) SetChannel(guildID, channelID string) error {
	return d.repo.SetNotificationChannel(guildID, channelID)
}

// Channel returns the guild's notification channel, or "" when none is set
func (d *Dispatcher) Channel(guildID string) (string, error) {
	settings, err := d.repo.GetGuildSettings(guildID)
	if errors.Is(err, storage.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return settings.NotificationChannelID, nil
}

// Notify sends n to the guild's notification channel. It is a no-op when
// no channel is configured. Failures are logged and never returned; the
// check-in itself has already succeeded.
func (d *Dispatcher) Notify(ctx context.Context, n Notification) {
	channelID, err := d.Channel(n.GuildID)
	if err != nil {
		slog.Error("Failed to load notification channel", "guildID", n.GuildID, "error", err)
		return
	}
	if channelID == "" {
		slog.Debug("No notification channel set for guild", "guildID", n.GuildID)
		return
	}

	if err := d.sender.SendMessage(ctx, channelID, Format(n)); err != nil {
		slog.Error("Failed to send notification", "guildID", n.GuildID, "channel", channelID, "error", err)
		return
	}
	slog.Info("Sent notification", "guildID", n.GuildID, "member", n.MemberID, "team", n.Team, "action", n.Action)
}

// Format renders a notification line
func Format(n Notification) string {
	line := fmt.Sprintf("%s **%s** %s to %s for Season %d, Round %d at %s",
		actionEmoji(n.Action), n.DisplayName, n.Action, team.Emoji(n.Team),
		n.Season, n.Round, trackName(n.Track))
	if !n.EventTime.IsZero() {
		line += fmt.Sprintf(" <t:%d:R>", n.EventTime.Unix())
	}
	return line
}

func actionEmoji(a checkin.Action) string {
	switch a {
	case checkin.ActionCheckedIn:
		return "✅"
	case checkin.ActionUpdatedStatus:
		return "🔄"
	default:
		return "❌"
	}
}

// trackName prefers the catalog display name for a catalog key
func trackName(name string) string {
	if t, err := track.Lookup(name); err == nil {
		return t.DisplayName
	}
	return name
}
