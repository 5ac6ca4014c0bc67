package bot

import (
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"github.com/flor3z/paddock-bot/internal/track"
)

// maxChoices is Discord's limit on choices and autocomplete results
const maxChoices = 25

var timezoneChoices = []*discordgo.ApplicationCommandOptionChoice{
	{Name: "Eastern", Value: "America/Kentucky/Louisville"},
	{Name: "Central", Value: "America/Chicago"},
	{Name: "Mountain", Value: "America/Denver"},
	{Name: "Pacific", Value: "America/Los_Angeles"},
}

// buildTrackChoices creates the track selection choices for /postcheckin
func buildTrackChoices() []*discordgo.ApplicationCommandOptionChoice {
	tracks := track.All()
	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, min(len(tracks), maxChoices))
	for _, t := range tracks[:min(len(tracks), maxChoices)] {
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{
			Name:  t.DisplayName,
			Value: t.Name,
		})
	}
	return choices
}

func rosterOption(description string, required bool) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:         discordgo.ApplicationCommandOptionString,
		Name:         "roster",
		Description:  description,
		Required:     required,
		Autocomplete: true,
	}
}

func teamNameOption(description string) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:         discordgo.ApplicationCommandOptionString,
		Name:         "teamname",
		Description:  description,
		Required:     true,
		Autocomplete: true,
	}
}

func textChannelOption(description string) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:         discordgo.ApplicationCommandOptionChannel,
		Name:         "channel",
		Description:  description,
		Required:     true,
		ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildText},
	}
}

// Slash command definitions
func getCommandDefinitions() []*discordgo.ApplicationCommand {
	minOrder := 0.0

	return []*discordgo.ApplicationCommand{
		{
			Name:        "postcheckin",
			Description: "Posts a check-in for an event",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "season",
					Description: "What Season are we in?",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "round",
					Description: "What Round are we in?",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "date_time",
					Description: "Date and time of the event (e.g., 2024-11-02 8:00 PM)",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "timezone",
					Description: "Timezone of the event",
					Required:    true,
					Choices:     timezoneChoices,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "track",
					Description: "The track for the event",
					Required:    true,
					Choices:     buildTrackChoices(),
				},
				textChannelOption("Channel for the check-in"),
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "roles",
					Description: "Roles to notify (mention them: @role1 @role2)",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionAttachment,
					Name:        "track_map",
					Description: "Upload an image for the track map",
				},
			},
		},
		{
			Name:        "setcheckinchannel",
			Description: "Set the channel for check-in/out notifications",
			Options: []*discordgo.ApplicationCommandOption{
				textChannelOption("The channel to send check-in/out notifications to"),
			},
		},
		{
			Name:        "setmanagerole",
			Description: "Set the role required to manage the bot (Admin only)",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionRole,
					Name:        "role",
					Description: "The role that can use bot commands (leave empty to allow all)",
				},
			},
		},
		{
			Name:        "createroster",
			Description: "Create a new roster set for managing team displays",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "name",
					Description: "Name for this roster set (e.g., 'Division 1')",
					Required:    true,
				},
				textChannelOption("Channel where team rosters will be posted"),
			},
		},
		{
			Name:        "addteam",
			Description: "Add a team to a roster set",
			Options: []*discordgo.ApplicationCommandOption{
				rosterOption("Name of the roster set to add the team to", true),
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "teamname",
					Description: "Name of the team",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionRole,
					Name:        "role",
					Description: "Role that defines team members",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionAttachment,
					Name:        "image",
					Description: "Team logo/image",
				},
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "order",
					Description: "Display order (lower numbers appear first)",
					MinValue:    &minOrder,
				},
				{
					Type:        discordgo.ApplicationCommandOptionBoolean,
					Name:        "special",
					Description: "Is this a special role? (e.g., Stewards, Division Host)",
				},
			},
		},
		{
			Name:        "updateteam",
			Description: "Update a team's information",
			Options: []*discordgo.ApplicationCommandOption{
				rosterOption("Name of the roster set", true),
				teamNameOption("Current name of the team to update"),
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "newname",
					Description: "New name for the team",
				},
				{
					Type:        discordgo.ApplicationCommandOptionAttachment,
					Name:        "image",
					Description: "New team logo/image",
				},
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "order",
					Description: "New display order",
					MinValue:    &minOrder,
				},
			},
		},
		{
			Name:        "deleteroster",
			Description: "Delete an entire roster set and all its teams",
			Options: []*discordgo.ApplicationCommandOption{
				rosterOption("Name of the roster set to delete", true),
			},
		},
		{
			Name:        "deleteteam",
			Description: "Remove a team from a roster set",
			Options: []*discordgo.ApplicationCommandOption{
				rosterOption("Name of the roster set", true),
				teamNameOption("Name of the team to remove"),
			},
		},
		{
			Name:        "refreshroster",
			Description: "Refresh roster messages to update their member lists",
			Options: []*discordgo.ApplicationCommandOption{
				rosterOption("Name of the roster set to refresh (leave empty to refresh all)", false),
			},
		},
		{
			Name:        "reorderroster",
			Description: "Repost all teams in a roster to apply display order changes",
			Options: []*discordgo.ApplicationCommandOption{
				rosterOption("Name of the roster set to reorder", true),
			},
		},
	}
}

// registerCommands registers all slash commands with Discord, per guild
// when GUILD_IDS is set and globally otherwise
func (b *Bot) registerCommands() error {
	slog.Info("Registering slash commands")

	guildIDs := b.config.GuildIDs
	if len(guildIDs) == 0 {
		guildIDs = []string{""} // Empty string = global command
	}

	commandDefinitions := getCommandDefinitions()
	for _, guildID := range guildIDs {
		registered, err := b.session.ApplicationCommandBulkOverwrite(
			b.session.State.User.ID,
			guildID,
			commandDefinitions,
		)
		if err != nil {
			return fmt.Errorf("failed to register commands for guild %q: %w", guildID, err)
		}
		b.commands = append(b.commands, registered...)
		slog.Debug("Registered commands", "guild", guildID, "count", len(registered))
	}

	slog.Info("Slash commands registered", "count", len(b.commands))
	return nil
}

// Helper functions

func respondWithMessage(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		slog.Error("Failed to respond to interaction", "error", err)
	}
}

// deferResponse acknowledges a slow command with an ephemeral "thinking"
// state; finish it with editResponse
func deferResponse(s *discordgo.Session, i *discordgo.InteractionCreate) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Flags: discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		slog.Error("Failed to defer interaction", "error", err)
	}
}

func editResponse(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	if _, err := s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
		Content: &content,
	}); err != nil {
		slog.Error("Failed to edit interaction response", "error", err)
	}
}

// options indexes a command's options by name
func options(i *discordgo.InteractionCreate) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	opts := i.ApplicationCommandData().Options
	m := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(opts))
	for _, o := range opts {
		m[o.Name] = o
	}
	return m
}

// attachmentURL resolves an attachment option to its URL
func attachmentURL(i *discordgo.InteractionCreate, opt *discordgo.ApplicationCommandInteractionDataOption) string {
	if opt == nil {
		return ""
	}
	id, _ := opt.Value.(string)
	resolved := i.ApplicationCommandData().Resolved
	if resolved == nil || resolved.Attachments == nil {
		return ""
	}
	if a, ok := resolved.Attachments[id]; ok {
		return a.URL
	}
	return ""
}
