// Package discord adapts a discordgo session to the narrow operations the
// check-in and roster components need, and maps Discord REST error codes
// onto sentinel errors.
package discord

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"
)

var (
	// ErrUnknownMessage means the addressed message no longer exists
	ErrUnknownMessage = errors.New("unknown message")
	// ErrUnknownRole means the addressed role no longer exists
	ErrUnknownRole = errors.New("unknown role")
	// ErrUnknownChannel means the addressed channel no longer exists
	ErrUnknownChannel = errors.New("unknown channel")
)

// membersPageSize is the largest page GET /guilds/{id}/members allows
const membersPageSize = 1000

// Member is a guild member reduced to what rendering needs
type Member struct {
	ID          string
	DisplayName string
	RoleIDs     []string
}

// Client wraps a discordgo session
type Client struct {
	session *discordgo.Session
}

// New creates a Client over an open session
func New(session *discordgo.Session) *Client {
	return &Client{session: session}
}

// SendMessage posts a plain text message
func (c *Client) SendMessage(ctx context.Context, channelID, content string) error {
	_, err := c.session.ChannelMessageSend(channelID, content, discordgo.WithContext(ctx))
	return classify(err)
}

// SendComplex posts a message with content, embeds and components and
// returns the new message id
func (c *Client) SendComplex(ctx context.Context, channelID string, msg *discordgo.MessageSend) (string, error) {
	sent, err := c.session.ChannelMessageSendComplex(channelID, msg, discordgo.WithContext(ctx))
	if err != nil {
		return "", classify(err)
	}
	return sent.ID, nil
}

// SendEmbed posts a single embed and returns the new message id
func (c *Client) SendEmbed(ctx context.Context, channelID string, embed *discordgo.MessageEmbed) (string, error) {
	sent, err := c.session.ChannelMessageSendEmbed(channelID, embed, discordgo.WithContext(ctx))
	if err != nil {
		return "", classify(err)
	}
	return sent.ID, nil
}

// EditEmbed replaces the embed of an existing message
func (c *Client) EditEmbed(ctx context.Context, channelID, messageID string, embed *discordgo.MessageEmbed) error {
	_, err := c.session.ChannelMessageEditEmbed(channelID, messageID, embed, discordgo.WithContext(ctx))
	return classify(err)
}

// DeleteMessage removes a message
func (c *Client) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	return classify(c.session.ChannelMessageDelete(channelID, messageID, discordgo.WithContext(ctx)))
}

// Role resolves a guild role, preferring the gateway state cache
func (c *Client) Role(ctx context.Context, guildID, roleID string) (*discordgo.Role, error) {
	if c.session.State != nil {
		if role, err := c.session.State.Role(guildID, roleID); err == nil {
			return role, nil
		}
	}

	roles, err := c.session.GuildRoles(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch roles of guild %s: %w", guildID, classify(err))
	}
	for _, role := range roles {
		if role.ID == roleID {
			return role, nil
		}
	}
	return nil, fmt.Errorf("role %s: %w", roleID, ErrUnknownRole)
}

// GuildIconURL returns the guild's icon URL, or "" when unavailable
func (c *Client) GuildIconURL(ctx context.Context, guildID string) string {
	var guild *discordgo.Guild
	if c.session.State != nil {
		guild, _ = c.session.State.Guild(guildID)
	}
	if guild == nil {
		var err error
		guild, err = c.session.Guild(guildID, discordgo.WithContext(ctx))
		if err != nil {
			return ""
		}
	}
	return guild.IconURL("")
}

// MembersWithRole fetches the full member list of a guild and returns the
// members holding roleID. Nothing is cached between calls.
func (c *Client) MembersWithRole(ctx context.Context, guildID, roleID string) ([]Member, error) {
	var out []Member
	after := ""
	for {
		page, err := c.session.GuildMembers(guildID, after, membersPageSize, discordgo.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("failed to fetch members of guild %s: %w", guildID, classify(err))
		}
		for _, m := range page {
			if m.User == nil || !hasRole(m.Roles, roleID) {
				continue
			}
			out = append(out, Member{ID: m.User.ID, DisplayName: m.DisplayName(), RoleIDs: m.Roles})
		}
		if len(page) < membersPageSize {
			return out, nil
		}
		after = page[len(page)-1].User.ID
	}
}

// MemberDisplayName returns the member's guild nickname, falling back to
// the account name
func MemberDisplayName(m *discordgo.Member, u *discordgo.User) string {
	if m != nil {
		if m.Nick != "" {
			return m.Nick
		}
		if m.User != nil {
			u = m.User
		}
	}
	if u == nil {
		return ""
	}
	return u.Username
}

func hasRole(roles []string, roleID string) bool {
	for _, r := range roles {
		if r == roleID {
			return true
		}
	}
	return false
}

// classify maps Discord REST errors onto this package's sentinels
func classify(err error) error {
	if err == nil {
		return nil
	}
	var restErr *discordgo.RESTError
	if !errors.As(err, &restErr) {
		return err
	}
	if restErr.Message != nil {
		switch restErr.Message.Code {
		case discordgo.ErrCodeUnknownMessage:
			return fmt.Errorf("%w: %v", ErrUnknownMessage, err)
		case discordgo.ErrCodeUnknownRole:
			return fmt.Errorf("%w: %v", ErrUnknownRole, err)
		case discordgo.ErrCodeUnknownChannel:
			return fmt.Errorf("%w: %v", ErrUnknownChannel, err)
		}
	}
	return err
}
