// Package roster keeps per-team roster messages in sync with live role
// membership.
package roster

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"

	"github.com/flor3z/paddock-bot/internal/discord"
	"github.com/flor3z/paddock-bot/internal/lock"
	"github.com/flor3z/paddock-bot/internal/storage"
)

var (
	ErrRosterSetNotFound = errors.New("roster set not found")
	ErrTeamNotFound      = errors.New("roster team not found")
	// ErrNotPosted means the team was stored but its message could not be
	// posted. The next refresh retries.
	ErrNotPosted = errors.New("roster message not posted")
	ErrEmptyName = errors.New("name must not be empty")
)

// Discord is the subset of the Discord adapter rosters need
type Discord interface {
	MembersWithRole(ctx context.Context, guildID, roleID string) ([]discord.Member, error)
	Role(ctx context.Context, guildID, roleID string) (*discordgo.Role, error)
	GuildIconURL(ctx context.Context, guildID string) string
	SendEmbed(ctx context.Context, channelID string, embed *discordgo.MessageEmbed) (string, error)
	EditEmbed(ctx context.Context, channelID, messageID string, embed *discordgo.MessageEmbed) error
	DeleteMessage(ctx context.Context, channelID, messageID string) error
}

// TeamSpec describes a team to add to a roster set
type TeamSpec struct {
	RosterSetID  string
	Name         string
	RoleID       string
	ImageURL     string
	DisplayOrder int
	IsSpecial    bool
}

// Service is the roster aggregate
type Service struct {
	repo        *storage.Repository
	discord     Discord
	locker      lock.Locker
	repostDelay time.Duration
	newID       func() string
	now         func() time.Time
}

// NewService creates a roster service. repostDelay is the pause between
// posts while reordering a set.
func NewService(repo *storage.Repository, dc Discord, locker lock.Locker, repostDelay time.Duration) *Service {
	return &Service{
		repo:        repo,
		discord:     dc,
		locker:      locker,
		repostDelay: repostDelay,
		newID:       uuid.NewString,
		now:         time.Now,
	}
}

// CreateRosterSet creates an empty roster set posting to channelID
func (s *Service) CreateRosterSet(guildID, channelID, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrEmptyName
	}

	set := &storage.RosterSet{ID: s.newID(), GuildID: guildID, ChannelID: channelID, Name: name}
	if err := s.repo.CreateRosterSet(set); err != nil {
		return "", err
	}

	slog.Info("Created roster set", "guildID", guildID, "rosterSetID", set.ID, "name", name)
	return set.ID, nil
}

// AddTeam stores a new team and posts its message. When the post fails
// the team id is still returned along with ErrNotPosted.
func (s *Service) AddTeam(ctx context.Context, spec TeamSpec) (string, error) {
	name := strings.TrimSpace(spec.Name)
	if name == "" {
		return "", ErrEmptyName
	}
	if _, err := s.set(spec.RosterSetID); err != nil {
		return "", err
	}

	team := &storage.RosterTeam{
		ID:           s.newID(),
		RosterSetID:  spec.RosterSetID,
		TeamName:     name,
		RoleID:       spec.RoleID,
		ImageURL:     spec.ImageURL,
		DisplayOrder: spec.DisplayOrder,
		IsSpecial:    spec.IsSpecial,
	}
	if err := s.repo.CreateRosterTeam(team); err != nil {
		return "", err
	}

	slog.Info("Added roster team", "rosterSetID", spec.RosterSetID, "teamID", team.ID, "name", name)

	if err := s.PostOrUpdate(ctx, team.ID); err != nil {
		return team.ID, fmt.Errorf("%w: %w", ErrNotPosted, err)
	}
	return team.ID, nil
}

// RenderTeam builds a team's message from the members holding its role
// right now
func (s *Service) RenderTeam(ctx context.Context, set *storage.RosterSet, team *storage.RosterTeam) (*discordgo.MessageEmbed, error) {
	role, err := s.discord.Role(ctx, set.GuildID, team.RoleID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve role of team %q: %w", team.TeamName, err)
	}

	members, err := s.discord.MembersWithRole(ctx, set.GuildID, team.RoleID)
	if err != nil {
		return nil, fmt.Errorf("failed to load members of team %q: %w", team.TeamName, err)
	}
	SortMembers(members)

	return TeamEmbed(team, role, members, s.discord.GuildIconURL(ctx, set.GuildID), s.now()), nil
}

// PostOrUpdate renders a team and edits its message, posting a new one
// when the team has none or the stored one was deleted.
func (s *Service) PostOrUpdate(ctx context.Context, teamID string) error {
	return s.withTeam(ctx, teamID, func(team *storage.RosterTeam) error {
		set, err := s.set(team.RosterSetID)
		if err != nil {
			return err
		}
		return s.post(ctx, set, team)
	})
}

func (s *Service) post(ctx context.Context, set *storage.RosterSet, team *storage.RosterTeam) error {
	embed, err := s.RenderTeam(ctx, set, team)
	if err != nil {
		return err
	}

	if team.Posted() {
		err := s.discord.EditEmbed(ctx, set.ChannelID, *team.MessageID, embed)
		if err == nil {
			return nil
		}
		if !errors.Is(err, discord.ErrUnknownMessage) {
			return fmt.Errorf("failed to edit roster message for team %q: %w", team.TeamName, err)
		}
		slog.Warn("Roster message is gone, reposting", "teamID", team.ID, "messageID", *team.MessageID)
		if err := s.repo.SetRosterTeamMessage(team.ID, nil); err != nil {
			return err
		}
	}

	messageID, err := s.discord.SendEmbed(ctx, set.ChannelID, embed)
	if err != nil {
		return fmt.Errorf("failed to post roster message for team %q: %w", team.TeamName, err)
	}
	if err := s.repo.SetRosterTeamMessage(team.ID, &messageID); err != nil {
		return err
	}

	slog.Debug("Posted roster message", "teamID", team.ID, "messageID", messageID)
	return nil
}

// UpdateForRole re-renders every team, across all roster sets, backed by
// roleID. One team failing does not stop the others.
func (s *Service) UpdateForRole(ctx context.Context, roleID string) error {
	teams, err := s.repo.GetRosterTeamsByRole(roleID)
	if err != nil {
		return err
	}
	return s.syncTeams(ctx, teams)
}

// Reorder deletes every message of a set and reposts the teams in display
// order. It is not atomic: a team whose repost fails stays unposted until
// the next refresh.
func (s *Service) Reorder(ctx context.Context, setID string) error {
	set, err := s.set(setID)
	if err != nil {
		return err
	}

	unlock, err := s.locker.Lock(ctx, setLockKey(setID))
	if err != nil {
		return fmt.Errorf("failed to lock roster set %s: %w", setID, err)
	}
	defer unlock()

	teams, err := s.repo.GetRosterTeamsBySet(setID)
	if err != nil {
		return err
	}

	for _, team := range teams {
		err := s.withTeam(ctx, team.ID, func(team *storage.RosterTeam) error {
			s.deleteMessage(ctx, set, team)
			return s.repo.SetRosterTeamMessage(team.ID, nil)
		})
		if err != nil && !errors.Is(err, ErrTeamNotFound) {
			return err
		}
	}

	var errs []error
	for i, team := range teams {
		if i > 0 && s.repostDelay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.repostDelay):
			}
		}
		err := s.PostOrUpdate(ctx, team.ID)
		if errors.Is(err, ErrTeamNotFound) {
			continue
		}
		if err != nil {
			slog.Error("Failed to repost roster team", "teamID", team.ID, "error", err)
			errs = append(errs, err)
		}
	}

	slog.Info("Reordered roster set", "rosterSetID", setID, "teams", len(teams))
	return errors.Join(errs...)
}

// DeleteTeam deletes a team's message, best effort, and then the team
func (s *Service) DeleteTeam(ctx context.Context, teamID string) error {
	return s.withTeam(ctx, teamID, func(team *storage.RosterTeam) error {
		if set, err := s.set(team.RosterSetID); err == nil {
			s.deleteMessage(ctx, set, team)
		}
		if err := s.repo.DeleteRosterTeam(team.ID); err != nil {
			return err
		}
		slog.Info("Deleted roster team", "teamID", team.ID, "name", team.TeamName)
		return nil
	})
}

// DeleteRosterSet deletes every message of a set, best effort, and then
// the set with its teams
func (s *Service) DeleteRosterSet(ctx context.Context, setID string) error {
	set, err := s.set(setID)
	if err != nil {
		return err
	}

	unlock, err := s.locker.Lock(ctx, setLockKey(setID))
	if err != nil {
		return fmt.Errorf("failed to lock roster set %s: %w", setID, err)
	}
	defer unlock()

	teams, err := s.repo.GetRosterTeamsBySet(setID)
	if err != nil {
		return err
	}

	// Teams go one by one under their own lock so a post in flight cannot
	// leave a message behind
	for _, team := range teams {
		err := s.withTeam(ctx, team.ID, func(team *storage.RosterTeam) error {
			s.deleteMessage(ctx, set, team)
			return s.repo.DeleteRosterTeam(team.ID)
		})
		if err != nil && !errors.Is(err, ErrTeamNotFound) {
			return err
		}
	}

	if err := s.repo.DeleteRosterSet(setID); err != nil {
		return err
	}
	slog.Info("Deleted roster set", "rosterSetID", setID, "name", set.Name)
	return nil
}

// UpdateTeam patches the given fields and re-renders the team
func (s *Service) UpdateTeam(ctx context.Context, teamID string, patch storage.RosterTeamPatch) error {
	if patch.TeamName != nil {
		name := strings.TrimSpace(*patch.TeamName)
		if name == "" {
			return ErrEmptyName
		}
		patch.TeamName = &name
	}

	err := s.repo.UpdateRosterTeam(teamID, patch)
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrTeamNotFound, teamID)
	}
	if err != nil {
		return err
	}
	return s.PostOrUpdate(ctx, teamID)
}

// RefreshSet re-renders every team of a set
func (s *Service) RefreshSet(ctx context.Context, setID string) error {
	if _, err := s.set(setID); err != nil {
		return err
	}
	teams, err := s.repo.GetRosterTeamsBySet(setID)
	if err != nil {
		return err
	}
	return s.syncTeams(ctx, teams)
}

// RefreshGuild re-renders every roster set of a guild
func (s *Service) RefreshGuild(ctx context.Context, guildID string) error {
	sets, err := s.repo.GetRosterSetsByGuild(guildID)
	if err != nil {
		return err
	}
	return s.refreshSets(ctx, sets)
}

// RefreshAll re-renders every roster set the bot knows about
func (s *Service) RefreshAll(ctx context.Context) error {
	sets, err := s.repo.GetAllRosterSets()
	if err != nil {
		return err
	}
	return s.refreshSets(ctx, sets)
}

// FindSet looks a guild's roster set up by name
func (s *Service) FindSet(guildID, name string) (*storage.RosterSet, error) {
	set, err := s.repo.FindRosterSetByName(guildID, strings.TrimSpace(name))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrRosterSetNotFound, name)
	}
	return set, err
}

// FindTeam looks a team up by name within a roster set
func (s *Service) FindTeam(setID, name string) (*storage.RosterTeam, error) {
	team, err := s.repo.FindRosterTeamByName(setID, strings.TrimSpace(name))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrTeamNotFound, name)
	}
	return team, err
}

// Sets returns a guild's roster sets
func (s *Service) Sets(guildID string) ([]*storage.RosterSet, error) {
	return s.repo.GetRosterSetsByGuild(guildID)
}

// Teams returns a roster set's teams in display order
func (s *Service) Teams(setID string) ([]*storage.RosterTeam, error) {
	return s.repo.GetRosterTeamsBySet(setID)
}

func (s *Service) refreshSets(ctx context.Context, sets []*storage.RosterSet) error {
	var errs []error
	for _, set := range sets {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.RefreshSet(ctx, set.ID); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *Service) syncTeams(ctx context.Context, teams []*storage.RosterTeam) error {
	var errs []error
	for _, team := range teams {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := s.PostOrUpdate(ctx, team.ID)
		if errors.Is(err, ErrTeamNotFound) {
			// deleted since it was listed
			continue
		}
		if err != nil {
			slog.Error("Failed to update roster team", "teamID", team.ID, "name", team.TeamName, "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// withTeam runs fn on a fresh read of the team while holding its lock.
// Every path that posts, deletes or forgets a team's message goes through
// here.
func (s *Service) withTeam(ctx context.Context, teamID string, fn func(*storage.RosterTeam) error) error {
	unlock, err := s.locker.Lock(ctx, teamLockKey(teamID))
	if err != nil {
		return fmt.Errorf("failed to lock roster team %s: %w", teamID, err)
	}
	defer unlock()

	team, err := s.team(teamID)
	if err != nil {
		return err
	}
	return fn(team)
}

// deleteMessage deletes a team's posted message, logging failures
func (s *Service) deleteMessage(ctx context.Context, set *storage.RosterSet, team *storage.RosterTeam) {
	if !team.Posted() {
		return
	}
	if err := s.discord.DeleteMessage(ctx, set.ChannelID, *team.MessageID); err != nil {
		slog.Warn("Failed to delete roster message", "teamID", team.ID, "messageID", *team.MessageID, "error", err)
	}
}

func teamLockKey(teamID string) string { return "roster:team:" + teamID }

func setLockKey(setID string) string { return "roster:set:" + setID }

func (s *Service) set(id string) (*storage.RosterSet, error) {
	set, err := s.repo.GetRosterSet(id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrRosterSetNotFound, id)
	}
	return set, err
}

func (s *Service) team(id string) (*storage.RosterTeam, error) {
	team, err := s.repo.GetRosterTeam(id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrTeamNotFound, id)
	}
	return team, err
}
