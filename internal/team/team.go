// Package team defines the closed set of affiliations a member can check
// into for an event.
package team

import (
	"fmt"
	"strings"
)

// ID identifies a team. It is also the button custom-id prefix and the
// check_in_statuses.team column value.
type ID string

const (
	Alpine    ID = "alpine"
	Aston     ID = "aston"
	Ferrari   ID = "ferrari"
	Haas      ID = "haas"
	Kick      ID = "kick"
	McLaren   ID = "mclaren"
	Mercedes  ID = "mercedes"
	RedBull   ID = "redbull"
	Williams  ID = "williams"
	VCARB     ID = "vcarb"
	Reserve   ID = "reserve"
	Decline   ID = "decline"
	Tentative ID = "tentative"
)

// Info contains display information about a team
type Info struct {
	ID          ID
	Emoji       string
	DisplayName string
}

// catalog is in display order: constructors first, then the
// pseudo-teams.
var catalog = []Info{
	{Alpine, "<:alpine:1299419733895942255>", "Alpine"},
	{Aston, "<:aston:1299419776233373828>", "Aston Martin"},
	{Ferrari, "<:ferrari:1299419871922098299>", "Ferrari"},
	{Haas, "<:haas:1299419901361918126>", "HAAS"},
	{Kick, "<:kick:1299419919246561300>", "Kick Sauber"},
	{McLaren, "<:mclaren:1299419975831916667>", "McLaren"},
	{Mercedes, "<:mercedes:1299420016323596339>", "Mercedes"},
	{RedBull, "<:redbull:1299420037312024689>", "Red Bull"},
	{Williams, "<:williams:1299420064214286386>", "Williams"},
	{VCARB, "<:vcarb:1299420082748784680>", "VCARB"},
	{Reserve, "🆓", "Reserve"},
	{Decline, "❌", "Decline"},
	{Tentative, "<:tentative:1299432097194315807>", "Tentative"},
}

var byID = func() map[ID]Info {
	m := make(map[ID]Info, len(catalog))
	for _, info := range catalog {
		m[info.ID] = info
	}
	return m
}()

// All returns every team in display order
func All() []Info {
	out := make([]Info, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup retrieves a team by id
func Lookup(id ID) (Info, error) {
	info, ok := byID[id]
	if !ok {
		return Info{}, fmt.Errorf("unknown team: %s", id)
	}
	return info, nil
}

// Valid reports whether id names a known team
func Valid(id ID) bool {
	_, ok := byID[id]
	return ok
}

// Emoji returns the team's emoji, or the raw id for unknown teams
func Emoji(id ID) string {
	if info, ok := byID[id]; ok {
		return info.Emoji
	}
	return string(id)
}

// IsDecline reports whether checking into id means declining the event
func (id ID) IsDecline() bool {
	return id == Decline
}

// CustomID builds the button custom id for a team on an event
func CustomID(id ID, eventID string) string {
	return string(id) + "_" + eventID
}

// ParseCustomID splits a button custom id into team and event id
func ParseCustomID(customID string) (ID, string, error) {
	prefix, eventID, ok := strings.Cut(customID, "_")
	if !ok || eventID == "" {
		return "", "", fmt.Errorf("malformed check-in button id: %q", customID)
	}
	id := ID(strings.ToLower(prefix))
	if !Valid(id) {
		return "", "", fmt.Errorf("unknown team in button id: %q", customID)
	}
	return id, eventID, nil
}
