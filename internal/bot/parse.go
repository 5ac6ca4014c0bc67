package bot

import (
	"regexp"
	"strings"

	"github.com/bwmarrin/discordgo"
)

var roleMentionPattern = regexp.MustCompile(`<@&(\d+)>`)

// ParseRoleMentions extracts role ids from text like "<@&1> <@&2>",
// dropping duplicates
func ParseRoleMentions(input string) []string {
	var ids []string
	seen := make(map[string]bool)
	for _, m := range roleMentionPattern.FindAllStringSubmatch(input, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			ids = append(ids, m[1])
		}
	}
	return ids
}

// validRoles keeps the ids naming a real, mentionable guild role. Managed
// roles and @everyone are dropped.
func validRoles(ids []string, roles []*discordgo.Role, guildID string) []string {
	byID := make(map[string]*discordgo.Role, len(roles))
	for _, r := range roles {
		byID[r.ID] = r
	}

	var out []string
	for _, id := range ids {
		r, ok := byID[id]
		if !ok || r.Managed || r.ID == guildID {
			continue
		}
		out = append(out, id)
	}
	return out
}

func mentionRoles(ids []string) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = "<@&" + id + ">"
	}
	return out
}

// changedRoles returns the roles gained or lost between before and after.
// When the previous state is unknown every current role counts as changed.
func changedRoles(before, after []string, known bool) []string {
	if !known {
		return after
	}

	inBefore := make(map[string]bool, len(before))
	for _, r := range before {
		inBefore[r] = true
	}
	inAfter := make(map[string]bool, len(after))
	for _, r := range after {
		inAfter[r] = true
	}

	var changed []string
	for _, r := range after {
		if !inBefore[r] {
			changed = append(changed, r)
		}
	}
	for _, r := range before {
		if !inAfter[r] {
			changed = append(changed, r)
		}
	}
	return changed
}

// filterChoices keeps names containing query, case-insensitively, capped
// at Discord's choice limit
func filterChoices(names []string, query string) []string {
	query = strings.ToLower(strings.TrimSpace(query))
	var out []string
	for _, n := range names {
		if query == "" || strings.Contains(strings.ToLower(n), query) {
			out = append(out, n)
		}
		if len(out) == maxChoices {
			break
		}
	}
	return out
}

func autocompleteChoices(names []string) []*discordgo.ApplicationCommandOptionChoice {
	choices := make([]*discordgo.ApplicationCommandOptionChoice, len(names))
	for i, n := range names {
		choices[i] = &discordgo.ApplicationCommandOptionChoice{Name: n, Value: n}
	}
	return choices
}
