// Package permission decides who may run management commands.
package permission

import (
	"errors"
	"log/slog"
	"slices"

	"github.com/flor3z/paddock-bot/internal/storage"
)

// DeniedMessage is shown to members who fail the gate
const DeniedMessage = "❌ You don't have permission to use this command. Ask a server administrator to give you the manager role."

// Actor is the invoking member as seen by the gate
type Actor struct {
	ID      string
	IsOwner bool
	IsAdmin bool
	RoleIDs []string
}

// Gate authorizes management commands per guild
type Gate struct {
	repo       *storage.Repository
	operatorID string
}

// NewGate creates a Gate. operatorID always passes.
func NewGate(repo *storage.Repository, operatorID string) *Gate {
	return &Gate{repo: repo, operatorID: operatorID}
}

// Authorize reports whether actor may run a management command in guildID.
// The operator, the guild owner and administrators always pass. Everyone
// else needs the manager role; with none configured the gate is open. A
// failed settings read denies.
func (g *Gate) Authorize(actor Actor, guildID string) bool {
	if g.privileged(actor) {
		return true
	}

	roleID, err := g.ManagerRole(guildID)
	if err != nil {
		slog.Error("Failed to load manager role, denying", "guildID", guildID, "error", err)
		return false
	}
	if roleID == "" {
		return true
	}
	return slices.Contains(actor.RoleIDs, roleID)
}

// CanSetManagerRole reports whether actor may change the manager role
func (g *Gate) CanSetManagerRole(actor Actor) bool {
	return g.privileged(actor)
}

// ManagerRole returns the guild's manager role, or "" when none is set
func (g *Gate) ManagerRole(guildID string) (string, error) {
	settings, err := g.repo.GetGuildSettings(guildID)
	if errors.Is(err, storage.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return settings.ManagerRoleID, nil
}

// SetManagerRole requires roleID for management commands in guildID
func (g *Gate) SetManagerRole(guildID, roleID string) error {
	return g.repo.SetManagerRole(guildID, roleID)
}

// ClearManagerRole opens management commands to everyone in guildID
func (g *Gate) ClearManagerRole(guildID string) error {
	return g.repo.ClearManagerRole(guildID)
}

func (g *Gate) privileged(actor Actor) bool {
	return (g.operatorID != "" && actor.ID == g.operatorID) || actor.IsOwner || actor.IsAdmin
}
