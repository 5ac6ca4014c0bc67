package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/flor3z/paddock-bot/internal/checkin"
	"github.com/flor3z/paddock-bot/internal/discord"
	"github.com/flor3z/paddock-bot/internal/notify"
	"github.com/flor3z/paddock-bot/internal/storage"
	"github.com/flor3z/paddock-bot/internal/team"
	"github.com/flor3z/paddock-bot/internal/track"
)

// handlePostCheckIn handles the /postcheckin command
func (b *Bot) handlePostCheckIn(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	opts := options(i)

	// Respond immediately to avoid timeout
	deferResponse(s, i)

	t, err := track.Lookup(opts["track"].StringValue())
	if err != nil {
		editResponse(s, i, "❌ Unknown track.")
		return
	}

	if _, err := checkin.ParseEventTime(opts["date_time"].StringValue(), opts["timezone"].StringValue()); err != nil {
		editResponse(s, i, "❌ Invalid date/time. Use a format like `2024-11-02 8:00 PM`.")
		return
	}

	guildRoles, err := s.GuildRoles(i.GuildID, discordgo.WithContext(ctx))
	if err != nil {
		slog.Error("Failed to load guild roles", "guildID", i.GuildID, "error", err)
		editResponse(s, i, "❌ Failed to look up server roles. Please try again.")
		return
	}
	roleIDs := validRoles(ParseRoleMentions(opts["roles"].StringValue()), guildRoles, i.GuildID)
	if len(roleIDs) == 0 {
		editResponse(s, i, "❌ No valid roles found. Please mention roles like: @role1 @role2")
		return
	}

	channel := opts["channel"].ChannelValue(nil)

	event := &storage.Event{
		ServerName: b.guildName(i.GuildID),
		Season:     int(opts["season"].IntValue()),
		Round:      int(opts["round"].IntValue()),
		ChannelID:  channel.ID,
		DateTime:   opts["date_time"].StringValue(),
		Timezone:   opts["timezone"].StringValue(),
		RoleIDs:    roleIDs,
		TrackName:  t.DisplayName,
		TrackImage: t.Image,
	}
	// An uploaded map replaces the catalog image
	if url := attachmentURL(i, opts["track_map"]); url != "" {
		event.TrackImage = url
	}

	eventID, err := b.checkins.Post(ctx, event)
	if err != nil {
		slog.Error("Failed to post check-in", "guildID", i.GuildID, "event", eventID, "error", err)
		editResponse(s, i, "❌ Failed to post the check-in. Make sure I can send messages in that channel.")
		return
	}

	editResponse(s, i, fmt.Sprintf("✅ Check-in created!\n\n**Channel:** <#%s>\n**Roles:** %s",
		channel.ID, strings.Join(mentionRoles(roleIDs), ", ")))
}

// handleSetCheckInChannel handles the /setcheckinchannel command
func (b *Bot) handleSetCheckInChannel(s *discordgo.Session, i *discordgo.InteractionCreate) {
	channel := options(i)["channel"].ChannelValue(nil)

	if err := b.notifier.SetChannel(i.GuildID, channel.ID); err != nil {
		slog.Error("Failed to save notification channel", "guildID", i.GuildID, "error", err)
		respondWithMessage(s, i, "❌ Failed to set notification channel. Please try again.")
		return
	}

	respondWithMessage(s, i, fmt.Sprintf("Check-in notifications will now be sent to <#%s>", channel.ID))
}

// handleSetManagerRole handles the /setmanagerole command
func (b *Bot) handleSetManagerRole(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !b.gate.CanSetManagerRole(b.actor(i)) {
		respondWithMessage(s, i, "❌ Only administrators can set the manager role.")
		return
	}

	opt, ok := options(i)["role"]
	if !ok {
		if err := b.gate.ClearManagerRole(i.GuildID); err != nil {
			slog.Error("Failed to clear manager role", "guildID", i.GuildID, "error", err)
			respondWithMessage(s, i, "❌ Failed to set manager role. Please try again.")
			return
		}
		respondWithMessage(s, i, "✅ Manager role requirement removed. All users can now use bot commands.")
		return
	}

	roleID := opt.RoleValue(nil, "").ID
	if err := b.gate.SetManagerRole(i.GuildID, roleID); err != nil {
		slog.Error("Failed to set manager role", "guildID", i.GuildID, "error", err)
		respondWithMessage(s, i, "❌ Failed to set manager role. Please try again.")
		return
	}
	respondWithMessage(s, i, fmt.Sprintf("✅ Manager role set to <@&%s>. Only users with this role can use bot commands.", roleID))
}

// handleCheckInButton toggles the presser on the team and re-renders the
// check-in message in place
func (b *Bot) handleCheckInButton(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	customID := i.MessageComponentData().CustomID
	teamID, eventID, err := team.ParseCustomID(customID)
	if err != nil {
		slog.Warn("Ignoring unknown button", "customID", customID, "error", err)
		return
	}

	member, user := i.Member, i.User
	if member != nil {
		user = member.User
	}
	if user == nil {
		return
	}
	displayName := discord.MemberDisplayName(member, user)

	result, err := b.checkins.Toggle(ctx, eventID, teamID, user.ID, displayName)
	if errors.Is(err, checkin.ErrEventNotFound) {
		respondWithMessage(s, i, "❌ This check-in no longer exists.")
		return
	}
	if err != nil {
		slog.Error("Failed to toggle check-in", "event", eventID, "team", teamID, "member", user.ID, "error", err)
		respondWithMessage(s, i, "❌ Failed to update your check-in. Please try again.")
		return
	}

	status, err := b.checkins.Status(eventID)
	if err != nil {
		slog.Error("Failed to load check-in status", "event", eventID, "error", err)
		respondWithMessage(s, i, "❌ Your check-in was saved but the message could not be refreshed.")
		return
	}

	err = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{b.checkInEmbed(i.Message, result.Event, status)},
		},
	})
	if err != nil {
		slog.Error("Failed to update check-in message", "event", eventID, "error", err)
	} else if i.Message != nil {
		render := func(latest map[team.ID][]storage.CheckInMember) *discordgo.MessageEmbed {
			return b.checkInEmbed(i.Message, result.Event, latest)
		}
		if _, err := b.checkins.Resync(ctx, i.ChannelID, i.Message.ID, eventID, status, render); err != nil {
			slog.Warn("Failed to resync check-in message", "event", eventID, "error", err)
		}
	}

	if i.GuildID == "" {
		return
	}
	n := notify.Notification{
		GuildID:     i.GuildID,
		MemberID:    user.ID,
		DisplayName: displayName,
		Team:        teamID,
		Action:      result.Action,
		Season:      result.Event.Season,
		Round:       result.Event.Round,
		Track:       result.Event.TrackName,
	}
	if start, err := checkin.ParseEventTime(result.Event.DateTime, result.Event.Timezone); err == nil {
		n.EventTime = start
	}
	b.notifier.Notify(ctx, n)
}

// checkInEmbed keeps the posted embed and replaces its fields with the
// current status
func (b *Bot) checkInEmbed(msg *discordgo.Message, event *storage.Event, status map[team.ID][]storage.CheckInMember) *discordgo.MessageEmbed {
	if msg == nil || len(msg.Embeds) == 0 {
		return checkin.EventEmbed(event, status, b.config.TrackImageBaseURL)
	}
	embed := *msg.Embeds[0]
	embed.Fields = checkin.Fields(event, status)
	return &embed
}

func (b *Bot) guildName(guildID string) string {
	if guild, err := b.session.State.Guild(guildID); err == nil && guild.Name != "" {
		return guild.Name
	}
	if guild, err := b.session.Guild(guildID); err == nil {
		return guild.Name
	}
	return "Unknown Server"
}
