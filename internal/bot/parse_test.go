package bot

import (
	"fmt"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/flor3z/paddock-bot/internal/track"
)

func TestParseRoleMentions(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"two roles", "<@&111> <@&222>", []string{"111", "222"}},
		{"duplicates dropped", "<@&111><@&111> <@&222>", []string{"111", "222"}},
		{"user mentions ignored", "<@333> <@!444> <@&555>", []string{"555"}},
		{"plain text", "@drivers", nil},
		{"empty", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseRoleMentions(tt.input))
		})
	}
}

func TestValidRoles(t *testing.T) {
	roles := []*discordgo.Role{
		{ID: "g1", Name: "@everyone"},
		{ID: "r1", Name: "Drivers"},
		{ID: "r2", Name: "Bot", Managed: true},
		{ID: "r3", Name: "Reserves"},
	}

	got := validRoles([]string{"g1", "r1", "r2", "missing", "r3"}, roles, "g1")
	assert.Equal(t, []string{"r1", "r3"}, got)
	assert.Empty(t, validRoles([]string{"g1"}, roles, "g1"))
}

func TestChangedRoles(t *testing.T) {
	assert.ElementsMatch(t, []string{"c", "a"}, changedRoles([]string{"a", "b"}, []string{"b", "c"}, true))
	assert.Empty(t, changedRoles([]string{"a"}, []string{"a"}, true))
	assert.Equal(t, []string{"x", "y"}, changedRoles(nil, []string{"x", "y"}, false))
}

func TestChangedRoles_IsSymmetricDifference(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		pool := []string{"r1", "r2", "r3", "r4", "r5"}
		before := rapid.SliceOfDistinct(rapid.SampledFrom(pool), rapid.ID[string]).Draw(rt, "before")
		after := rapid.SliceOfDistinct(rapid.SampledFrom(pool), rapid.ID[string]).Draw(rt, "after")

		changed := map[string]bool{}
		for _, r := range changedRoles(before, after, true) {
			if changed[r] {
				rt.Fatalf("role %s reported twice", r)
			}
			changed[r] = true
		}

		for _, r := range pool {
			want := contains(before, r) != contains(after, r)
			if changed[r] != want {
				rt.Fatalf("role %s: changed=%v, want %v (before=%v after=%v)", r, changed[r], want, before, after)
			}
		}
	})
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func TestFilterChoices(t *testing.T) {
	names := []string{"Division 1", "Division 2", "Academy"}
	assert.Equal(t, names, filterChoices(names, ""))
	assert.Equal(t, []string{"Division 1", "Division 2"}, filterChoices(names, "div"))
	assert.Empty(t, filterChoices(names, "zzz"))

	var many []string
	for i := 0; i < 40; i++ {
		many = append(many, fmt.Sprintf("Set %d", i))
	}
	assert.Len(t, filterChoices(many, "set"), maxChoices)
}

func TestCommandDefinitions(t *testing.T) {
	defs := getCommandDefinitions()

	byName := map[string]*discordgo.ApplicationCommand{}
	for _, d := range defs {
		byName[d.Name] = d
	}
	for _, name := range []string{
		"postcheckin", "setcheckinchannel", "setmanagerole", "createroster", "addteam",
		"updateteam", "deleteroster", "deleteteam", "refreshroster", "reorderroster",
	} {
		assert.Contains(t, byName, name)
	}

	post := byName["postcheckin"]
	require.NotNil(t, post)
	for _, o := range post.Options {
		if o.Name == "track" {
			assert.Len(t, o.Choices, min(len(track.All()), maxChoices))
		}
	}

	// Discord rejects required options after optional ones
	for _, d := range defs {
		optional := false
		for _, o := range d.Options {
			if o.Required {
				assert.False(t, optional, "%s: required option %s after optional", d.Name, o.Name)
			} else {
				optional = true
			}
		}
	}
}
