package checkin

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/flor3z/paddock-bot/internal/storage"
	"github.com/flor3z/paddock-bot/internal/team"
	"github.com/flor3z/paddock-bot/internal/track"
)

const (
	embedColor     = 0x202020
	buttonsPerRow  = 5
	countdownEmoji = "<:countdown:1299484915137511444>"
)

// dateLayouts are tried in order when reading an event's date_time
var dateLayouts = []string{
	"2006-01-02 3:04 PM",
	"2006-01-02 3:04PM",
	"2006-01-02 15:04",
}

// ParseEventTime reads the event's local date/time in its IANA zone
func ParseEventTime(dateTime, timezone string) (time.Time, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timezone %q: %w", timezone, err)
	}
	value := strings.ToUpper(strings.TrimSpace(dateTime))
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date/time %q", dateTime)
}

// EventTimeField renders the event start as Discord timestamps
func EventTimeField(event *storage.Event) *discordgo.MessageEmbedField {
	t, err := ParseEventTime(event.DateTime, event.Timezone)
	if err != nil {
		return &discordgo.MessageEmbedField{Name: "Event Time", Value: "Invalid Date"}
	}
	unix := t.Unix()
	return &discordgo.MessageEmbedField{
		Name:  "Event Time",
		Value: fmt.Sprintf("<t:%d:F>\n%s <t:%d:R>", unix, countdownEmoji, unix),
	}
}

// TeamFields renders one inline field per team with its member count and
// nicknames
func TeamFields(status map[team.ID][]storage.CheckInMember) []*discordgo.MessageEmbedField {
	teams := team.All()
	fields := make([]*discordgo.MessageEmbedField, 0, len(teams))
	for _, info := range teams {
		members := status[info.ID]
		value := "-"
		if len(members) > 0 {
			lines := make([]string, len(members))
			for i, m := range members {
				lines[i] = "> " + m.Nickname
			}
			value = strings.Join(lines, "\n")
		}
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:   fmt.Sprintf("%s %s (%d)", info.Emoji, info.DisplayName, len(members)),
			Value:  value,
			Inline: true,
		})
	}
	return fields
}

// Fields is the full field list of a check-in embed
func Fields(event *storage.Event, status map[team.ID][]storage.CheckInMember) []*discordgo.MessageEmbedField {
	return append([]*discordgo.MessageEmbedField{EventTimeField(event)}, TeamFields(status)...)
}

// EventEmbed renders the whole check-in embed
func EventEmbed(event *storage.Event, status map[team.ID][]storage.CheckInMember, imageBase string) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: fmt.Sprintf("%s Season %d - Round %d: %s",
			event.ServerName, event.Season, event.Round, event.TrackName),
		Description: "Check in for your team!",
		Color:       embedColor,
		Fields:      Fields(event, status),
	}
	if url := track.ImageURL(imageBase, event.TrackImage); url != "" {
		embed.Image = &discordgo.MessageEmbedImage{URL: url}
	}
	return embed
}

// Buttons renders one button per team, grouped into rows of five
func Buttons(eventID string) []discordgo.MessageComponent {
	teams := team.All()
	var rows []discordgo.MessageComponent
	for start := 0; start < len(teams); start += buttonsPerRow {
		end := min(start+buttonsPerRow, len(teams))
		row := discordgo.ActionsRow{}
		for _, info := range teams[start:end] {
			row.Components = append(row.Components, discordgo.Button{
				CustomID: team.CustomID(info.ID, eventID),
				Emoji:    parseEmoji(info.Emoji),
				Style:    discordgo.SecondaryButton,
			})
		}
		rows = append(rows, row)
	}
	return rows
}

// RoleMentions renders role ids as space-separated mentions
func RoleMentions(roleIDs []string) string {
	mentions := make([]string, len(roleIDs))
	for i, id := range roleIDs {
		mentions[i] = "<@&" + id + ">"
	}
	return strings.Join(mentions, " ")
}

// parseEmoji turns "<:name:id>" into a custom emoji reference and anything
// else into a unicode emoji
func parseEmoji(raw string) *discordgo.ComponentEmoji {
	if strings.HasPrefix(raw, "<") && strings.HasSuffix(raw, ">") {
		parts := strings.Split(strings.Trim(raw, "<>"), ":")
		if len(parts) == 3 {
			return &discordgo.ComponentEmoji{
				Name:     parts[1],
				ID:       parts[2],
				Animated: parts[0] == "a",
			}
		}
	}
	return &discordgo.ComponentEmoji{Name: raw}
}
