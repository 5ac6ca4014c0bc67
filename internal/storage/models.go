package storage

// Event is a posted check-in occasion
type Event struct {
	UniqueID   string
	ServerName string
	Season     int
	Round      int
	ChannelID  string   // first target channel; the only one persisted
	DateTime   string   // "2006-01-02 3:04 PM" in Timezone
	Timezone   string   // IANA zone name
	RoleIDs    []string // roles mentioned when the check-in is posted
	TrackName  string   // display name
	TrackImage string   // file name or absolute URL
}

// CheckInMember is one entry in a team's checked-in list
type CheckInMember struct {
	UserID   string `json:"userId"`
	Nickname string `json:"nickname"`
}

// GuildSettings stores per-server configuration
type GuildSettings struct {
	GuildID               string
	NotificationChannelID string // empty when unset
	ManagerRoleID         string // empty when unset
}

// RosterSet is a named group of teams posted to one channel
type RosterSet struct {
	ID        string
	GuildID   string
	ChannelID string
	Name      string
}

// RosterTeam is one renderable team within a roster set
type RosterTeam struct {
	ID           string
	RosterSetID  string
	TeamName     string
	RoleID       string
	ImageURL     string  // empty when unset
	MessageID    *string // nil until a message has been posted
	DisplayOrder int
	IsSpecial    bool
}

// Posted reports whether the team has a live message on record
func (t *RosterTeam) Posted() bool {
	return t.MessageID != nil && *t.MessageID != ""
}

// RosterTeamPatch carries the fields of an UpdateRosterTeam call. Nil
// fields are left untouched.
type RosterTeamPatch struct {
	TeamName     *string
	ImageURL     *string
	DisplayOrder *int
}

// Empty reports whether the patch changes nothing
func (p RosterTeamPatch) Empty() bool {
	return p.TeamName == nil && p.ImageURL == nil && p.DisplayOrder == nil
}
