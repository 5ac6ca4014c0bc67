package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"github.com/flor3z/paddock-bot/internal/roster"
	"github.com/flor3z/paddock-bot/internal/storage"
)

// handleCreateRoster handles the /createroster command
func (b *Bot) handleCreateRoster(s *discordgo.Session, i *discordgo.InteractionCreate) {
	opts := options(i)
	name := opts["name"].StringValue()
	channel := opts["channel"].ChannelValue(nil)

	if _, err := b.rosters.CreateRosterSet(i.GuildID, channel.ID, name); err != nil {
		if errors.Is(err, roster.ErrEmptyName) {
			respondWithMessage(s, i, "❌ The roster name must not be empty.")
			return
		}
		slog.Error("Failed to create roster set", "guildID", i.GuildID, "error", err)
		respondWithMessage(s, i, "❌ Failed to create roster set. Please try again.")
		return
	}

	respondWithMessage(s, i, fmt.Sprintf("✅ Created roster set **%s** in <#%s>. Use `/addteam` to add teams to this roster.", name, channel.ID))
}

// handleAddTeam handles the /addteam command
func (b *Bot) handleAddTeam(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	opts := options(i)
	deferResponse(s, i)

	set, ok := b.findSet(s, i, opts["roster"].StringValue())
	if !ok {
		return
	}

	spec := roster.TeamSpec{
		RosterSetID: set.ID,
		Name:        opts["teamname"].StringValue(),
		RoleID:      opts["role"].RoleValue(nil, "").ID,
		ImageURL:    attachmentURL(i, opts["image"]),
	}
	if o, ok := opts["order"]; ok {
		spec.DisplayOrder = int(o.IntValue())
	}
	if o, ok := opts["special"]; ok {
		spec.IsSpecial = o.BoolValue()
	}

	_, err := b.rosters.AddTeam(ctx, spec)
	switch {
	case errors.Is(err, roster.ErrNotPosted):
		slog.Warn("Team added but not posted", "rosterSetID", set.ID, "error", err)
		editResponse(s, i, fmt.Sprintf("⚠️ Added team **%s** to roster **%s**, but its message could not be posted yet. Try `/refreshroster`.", spec.Name, set.Name))
	case errors.Is(err, roster.ErrEmptyName):
		editResponse(s, i, "❌ The team name must not be empty.")
	case err != nil:
		slog.Error("Failed to add team", "rosterSetID", set.ID, "error", err)
		editResponse(s, i, "❌ Failed to add team. Please try again.")
	default:
		editResponse(s, i, fmt.Sprintf("✅ Added team **%s** with role <@&%s> to roster **%s**.", spec.Name, spec.RoleID, set.Name))
	}
}

// handleUpdateTeam handles the /updateteam command
func (b *Bot) handleUpdateTeam(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	opts := options(i)
	deferResponse(s, i)

	set, ok := b.findSet(s, i, opts["roster"].StringValue())
	if !ok {
		return
	}
	t, ok := b.findTeam(s, i, set, opts["teamname"].StringValue())
	if !ok {
		return
	}

	var patch storage.RosterTeamPatch
	if o, ok := opts["newname"]; ok {
		name := o.StringValue()
		patch.TeamName = &name
	}
	if url := attachmentURL(i, opts["image"]); url != "" {
		patch.ImageURL = &url
	}
	if o, ok := opts["order"]; ok {
		order := int(o.IntValue())
		patch.DisplayOrder = &order
	}

	if err := b.rosters.UpdateTeam(ctx, t.ID, patch); err != nil {
		if errors.Is(err, roster.ErrEmptyName) {
			editResponse(s, i, "❌ The team name must not be empty.")
			return
		}
		slog.Error("Failed to update team", "teamID", t.ID, "error", err)
		editResponse(s, i, "❌ Failed to update team. Please try again.")
		return
	}

	editResponse(s, i, fmt.Sprintf("✅ Updated team **%s** in roster **%s**.", t.TeamName, set.Name))
}

// handleDeleteRoster handles the /deleteroster command
func (b *Bot) handleDeleteRoster(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	deferResponse(s, i)

	set, ok := b.findSet(s, i, options(i)["roster"].StringValue())
	if !ok {
		return
	}

	if err := b.rosters.DeleteRosterSet(ctx, set.ID); err != nil {
		slog.Error("Failed to delete roster set", "rosterSetID", set.ID, "error", err)
		editResponse(s, i, "❌ Failed to delete roster set. Please try again.")
		return
	}

	editResponse(s, i, fmt.Sprintf("✅ Deleted roster set **%s** and all its teams.", set.Name))
}

// handleDeleteTeam handles the /deleteteam command
func (b *Bot) handleDeleteTeam(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	opts := options(i)
	deferResponse(s, i)

	set, ok := b.findSet(s, i, opts["roster"].StringValue())
	if !ok {
		return
	}
	t, ok := b.findTeam(s, i, set, opts["teamname"].StringValue())
	if !ok {
		return
	}

	if err := b.rosters.DeleteTeam(ctx, t.ID); err != nil {
		slog.Error("Failed to delete team", "teamID", t.ID, "error", err)
		editResponse(s, i, "❌ Failed to delete team. Please try again.")
		return
	}

	editResponse(s, i, fmt.Sprintf("✅ Removed team **%s** from roster **%s**.", t.TeamName, set.Name))
}

// handleRefreshRoster handles the /refreshroster command
func (b *Bot) handleRefreshRoster(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	deferResponse(s, i)

	opt, ok := options(i)["roster"]
	if !ok {
		if err := b.rosters.RefreshGuild(ctx, i.GuildID); err != nil {
			slog.Error("Failed to refresh rosters", "guildID", i.GuildID, "error", err)
			editResponse(s, i, "❌ Failed to refresh some roster messages. Please try again.")
			return
		}
		editResponse(s, i, "✅ Refreshed all roster messages in this server.")
		return
	}

	set, ok := b.findSet(s, i, opt.StringValue())
	if !ok {
		return
	}
	if err := b.rosters.RefreshSet(ctx, set.ID); err != nil {
		slog.Error("Failed to refresh roster set", "rosterSetID", set.ID, "error", err)
		editResponse(s, i, "❌ Failed to refresh some roster messages. Please try again.")
		return
	}
	editResponse(s, i, fmt.Sprintf("✅ Refreshed all team messages in roster **%s**.", set.Name))
}

// handleReorderRoster handles the /reorderroster command
func (b *Bot) handleReorderRoster(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	deferResponse(s, i)

	set, ok := b.findSet(s, i, options(i)["roster"].StringValue())
	if !ok {
		return
	}

	if err := b.rosters.Reorder(ctx, set.ID); err != nil {
		slog.Error("Failed to reorder roster set", "rosterSetID", set.ID, "error", err)
		editResponse(s, i, "❌ Failed to reorder roster. Teams that were not reposted will return on the next refresh.")
		return
	}
	editResponse(s, i, fmt.Sprintf("✅ Reordered all teams in roster **%s** according to their display order.", set.Name))
}

// handleAutocomplete suggests roster and team names
func (b *Bot) handleAutocomplete(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.GuildID == "" {
		return
	}

	var names []string
	data := i.ApplicationCommandData()
	for _, o := range data.Options {
		if !o.Focused {
			continue
		}
		switch o.Name {
		case "roster":
			names = b.rosterNames(i.GuildID)
		case "teamname":
			if r, ok := options(i)["roster"]; ok {
				names = b.teamNames(i.GuildID, r.StringValue())
			}
		}
		names = filterChoices(names, o.StringValue())
	}

	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionApplicationCommandAutocompleteResult,
		Data: &discordgo.InteractionResponseData{
			Choices: autocompleteChoices(names),
		},
	})
	if err != nil {
		slog.Error("Failed to respond to autocomplete", "error", err)
	}
}

func (b *Bot) rosterNames(guildID string) []string {
	sets, err := b.rosters.Sets(guildID)
	if err != nil {
		slog.Error("Failed to load roster sets", "guildID", guildID, "error", err)
		return nil
	}
	names := make([]string, len(sets))
	for i, set := range sets {
		names[i] = set.Name
	}
	return names
}

func (b *Bot) teamNames(guildID, rosterName string) []string {
	set, err := b.rosters.FindSet(guildID, rosterName)
	if err != nil {
		return nil
	}
	teams, err := b.rosters.Teams(set.ID)
	if err != nil {
		slog.Error("Failed to load roster teams", "rosterSetID", set.ID, "error", err)
		return nil
	}
	names := make([]string, len(teams))
	for i, t := range teams {
		names[i] = t.TeamName
	}
	return names
}

// findSet resolves a roster name, replying when it does not exist
func (b *Bot) findSet(s *discordgo.Session, i *discordgo.InteractionCreate, name string) (*storage.RosterSet, bool) {
	set, err := b.rosters.FindSet(i.GuildID, name)
	if errors.Is(err, roster.ErrRosterSetNotFound) {
		editResponse(s, i, fmt.Sprintf("❌ Roster set **%s** not found. Use `/createroster` to create it first.", name))
		return nil, false
	}
	if err != nil {
		slog.Error("Failed to load roster set", "guildID", i.GuildID, "error", err)
		editResponse(s, i, "❌ Failed to load roster set. Please try again.")
		return nil, false
	}
	return set, true
}

// findTeam resolves a team name within set, replying when it does not exist
func (b *Bot) findTeam(s *discordgo.Session, i *discordgo.InteractionCreate, set *storage.RosterSet, name string) (*storage.RosterTeam, bool) {
	t, err := b.rosters.FindTeam(set.ID, name)
	if errors.Is(err, roster.ErrTeamNotFound) {
		editResponse(s, i, fmt.Sprintf("❌ Team **%s** not found in roster **%s**.", name, set.Name))
		return nil, false
	}
	if err != nil {
		slog.Error("Failed to load roster team", "rosterSetID", set.ID, "error", err)
		editResponse(s, i, "❌ Failed to load team. Please try again.")
		return nil, false
	}
	return t, true
}
