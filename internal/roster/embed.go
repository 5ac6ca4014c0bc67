package roster

import (
	"slices"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/flor3z/paddock-bot/internal/discord"
	"github.com/flor3z/paddock-bot/internal/storage"
)

const (
	fallbackColor   = 0x7289DA
	memberSeparator = " & "
	emptySpecial    = "*Not assigned*"
	emptyRegular    = "*No drivers currently assigned to this team*"
)

// SortMembers orders members by display name, ignoring case, using
// English collation
func SortMembers(members []discord.Member) {
	c := collate.New(language.English, collate.IgnoreCase)
	slices.SortStableFunc(members, func(a, b discord.Member) int {
		return c.CompareString(a.DisplayName, b.DisplayName)
	})
}

// TeamEmbed renders a roster team message from the team's role and its
// current members. members must already be sorted.
func TeamEmbed(team *storage.RosterTeam, role *discordgo.Role, members []discord.Member, iconURL string, now time.Time) *discordgo.MessageEmbed {
	color := role.Color
	if color == 0 {
		color = fallbackColor
	}

	embed := &discordgo.MessageEmbed{
		Title:     team.TeamName,
		Color:     color,
		Timestamp: now.UTC().Format(time.RFC3339),
		Footer: &discordgo.MessageEmbedFooter{
			Text:    "Role: @" + role.Name + " • Last Updated",
			IconURL: iconURL,
		},
	}

	if len(members) > 0 {
		mentions := make([]string, len(members))
		for i, m := range members {
			mentions[i] = "<@" + m.ID + ">"
		}
		embed.Fields = []*discordgo.MessageEmbedField{{
			Name:  "Drivers",
			Value: strings.Join(mentions, memberSeparator),
		}}
	} else if team.IsSpecial {
		embed.Description = emptySpecial
	} else {
		embed.Description = emptyRegular
	}

	if team.ImageURL != "" {
		embed.Image = &discordgo.MessageEmbedImage{URL: team.ImageURL}
	}

	return embed
}
