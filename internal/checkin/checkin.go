// Package checkin owns the mapping from (event, team) to checked-in
// members.
package checkin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"

	"github.com/flor3z/paddock-bot/internal/lock"
	"github.com/flor3z/paddock-bot/internal/storage"
	"github.com/flor3z/paddock-bot/internal/team"
)

var (
	// ErrEventNotFound is returned for an event id with no stored event
	ErrEventNotFound = errors.New("event not found")
	// ErrUnknownTeam is returned for a team outside the team catalog
	ErrUnknownTeam = errors.New("unknown team")
	// ErrNoChannel is returned when posting an event without a target channel
	ErrNoChannel = errors.New("event has no target channel")
)

// Action is the human-readable framing of a toggle
type Action string

const (
	ActionCheckedIn     Action = "checked-in"
	ActionCheckedOut    Action = "checked-out"
	ActionUpdatedStatus Action = "updated-status"
)

// ActionFor frames a toggle on id. Joining the decline team reads as
// checking out; leaving it reads as a status update.
func ActionFor(id team.ID, removed bool) Action {
	if id.IsDecline() {
		if removed {
			return ActionUpdatedStatus
		}
		return ActionCheckedOut
	}
	if removed {
		return ActionCheckedOut
	}
	return ActionCheckedIn
}

// Poster sends and edits the rendered check-in message
type Poster interface {
	SendComplex(ctx context.Context, channelID string, msg *discordgo.MessageSend) (string, error)
	EditEmbed(ctx context.Context, channelID, messageID string, embed *discordgo.MessageEmbed) error
}

// Result is the state after a toggle
type Result struct {
	Event   *storage.Event
	Team    team.ID
	Members []storage.CheckInMember
	Removed bool
	Action  Action
}

// Service is the check-in aggregate
type Service struct {
	repo      *storage.Repository
	locker    lock.Locker
	poster    Poster
	imageBase string
	newID     func() string
}

// NewService creates a check-in service. imageBase resolves catalog track
// images to URLs.
func NewService(repo *storage.Repository, locker lock.Locker, poster Poster, imageBase string) *Service {
	return &Service{
		repo:      repo,
		locker:    locker,
		poster:    poster,
		imageBase: imageBase,
		newID:     uuid.NewString,
	}
}

// SaveEvent upserts an event by its unique id
func (s *Service) SaveEvent(event *storage.Event) error {
	return s.repo.SaveEvent(event)
}

// GetEvent retrieves an event
func (s *Service) GetEvent(id string) (*storage.Event, error) {
	event, err := s.repo.GetEvent(id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrEventNotFound, id)
	}
	return event, err
}

// Status returns every team's member list for an event from one read
func (s *Service) Status(eventID string) (map[team.ID][]storage.CheckInMember, error) {
	raw, err := s.repo.GetCheckInStatus(eventID)
	if err != nil {
		return nil, err
	}
	status := make(map[team.ID][]storage.CheckInMember, len(raw))
	for k, v := range raw {
		status[team.ID(k)] = v
	}
	return status, nil
}

// Toggle adds the member to the team's list if absent and removes them if
// present. Toggles on the same (event, team) are serialized.
func (s *Service) Toggle(ctx context.Context, eventID string, teamID team.ID, memberID, displayName string) (*Result, error) {
	if !team.Valid(teamID) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTeam, teamID)
	}

	unlock, err := s.locker.Lock(ctx, lockKey(eventID, teamID))
	if err != nil {
		return nil, fmt.Errorf("failed to lock check-in %s/%s: %w", eventID, teamID, err)
	}
	defer unlock()

	event, err := s.GetEvent(eventID)
	if err != nil {
		return nil, err
	}

	current, err := s.repo.GetTeamCheckIns(eventID, string(teamID))
	if err != nil {
		return nil, err
	}

	updated, removed := ToggleMember(current, memberID, displayName)
	if err := s.repo.SaveCheckInStatus(eventID, string(teamID), updated); err != nil {
		return nil, err
	}

	slog.Debug("Toggled check-in", "event", eventID, "team", teamID, "member", memberID, "removed", removed)

	return &Result{
		Event:   event,
		Team:    teamID,
		Members: updated,
		Removed: removed,
		Action:  ActionFor(teamID, removed),
	}, nil
}

// Post stores a new event under a fresh id and sends its check-in message
// to the event's channel. Only the first channel is addressed.
func (s *Service) Post(ctx context.Context, event *storage.Event) (string, error) {
	if event.ChannelID == "" {
		return "", ErrNoChannel
	}

	event.UniqueID = s.newID()
	if err := s.repo.SaveEvent(event); err != nil {
		return "", err
	}

	status, err := s.Status(event.UniqueID)
	if err != nil {
		return "", err
	}

	msg := &discordgo.MessageSend{
		Content:    RoleMentions(event.RoleIDs),
		Embeds:     []*discordgo.MessageEmbed{EventEmbed(event, status, s.imageBase)},
		Components: Buttons(event.UniqueID),
		AllowedMentions: &discordgo.MessageAllowedMentions{
			Roles: event.RoleIDs,
		},
	}
	if _, err := s.poster.SendComplex(ctx, event.ChannelID, msg); err != nil {
		return event.UniqueID, fmt.Errorf("failed to send check-in for event %s: %w", event.UniqueID, err)
	}

	slog.Info("Posted check-in", "event", event.UniqueID, "channel", event.ChannelID)
	return event.UniqueID, nil
}

// Resync re-reads an event's status after a button response and edits the
// message when the status moved on from rendered. Responses to concurrent
// presses can land out of order; this brings the message back to the
// latest stored status. It reports whether an edit was made.
func (s *Service) Resync(ctx context.Context, channelID, messageID, eventID string,
	rendered map[team.ID][]storage.CheckInMember,
	render func(map[team.ID][]storage.CheckInMember) *discordgo.MessageEmbed,
) (bool, error) {
	latest, err := s.Status(eventID)
	if err != nil {
		return false, err
	}
	if maps.EqualFunc(rendered, latest, slices.Equal[[]storage.CheckInMember]) {
		return false, nil
	}

	if err := s.poster.EditEmbed(ctx, channelID, messageID, render(latest)); err != nil {
		return false, fmt.Errorf("failed to refresh check-in message for event %s: %w", eventID, err)
	}
	slog.Debug("Refreshed stale check-in message", "event", eventID, "message", messageID)
	return true, nil
}

// ToggleMember returns members with memberID removed if present, or
// appended if absent. The input slice is not modified.
func ToggleMember(members []storage.CheckInMember, memberID, displayName string) ([]storage.CheckInMember, bool) {
	out := make([]storage.CheckInMember, 0, len(members)+1)
	removed := false
	for _, m := range members {
		if m.UserID == memberID {
			removed = true
			continue
		}
		out = append(out, m)
	}
	if !removed {
		out = append(out, storage.CheckInMember{UserID: memberID, Nickname: displayName})
	}
	return out, removed
}

func lockKey(eventID string, teamID team.ID) string {
	return "checkin:" + eventID + ":" + string(teamID)
}
