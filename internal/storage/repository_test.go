package storage

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewRepository(filepath.Join(t.TempDir(), "bot.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func strPtr(s string) *string { return &s }

func TestNewRepository_MigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "bot.db")

	repo, err := NewRepository(path)
	require.NoError(t, err)
	require.NoError(t, repo.Close())

	// Reopening re-runs every migration, including the ADD COLUMN steps
	repo, err = NewRepository(path)
	require.NoError(t, err)
	defer repo.Close()

	require.NoError(t, repo.migrate())
}

func TestNewRepository_UpgradesLegacySchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legacy.db")

	legacy, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	_, err = legacy.Exec(`CREATE TABLE roster_teams (
		id TEXT PRIMARY KEY,
		roster_set_id TEXT NOT NULL,
		team_name TEXT NOT NULL,
		role_id TEXT NOT NULL,
		image_url TEXT,
		message_id TEXT,
		display_order INTEGER DEFAULT 0
	)`)
	require.NoError(t, err)
	_, err = legacy.Exec(`INSERT INTO roster_teams (id, roster_set_id, team_name, role_id) VALUES ('t1', 's1', 'Ferrari', 'r1')`)
	require.NoError(t, err)
	require.NoError(t, legacy.Close())

	repo, err := NewRepository(path)
	require.NoError(t, err)
	defer repo.Close()

	team, err := repo.GetRosterTeam("t1")
	require.NoError(t, err)
	assert.False(t, team.IsSpecial)
}

func TestEvents(t *testing.T) {
	repo := newTestRepository(t)

	event := &Event{
		UniqueID:   "evt-1",
		ServerName: "Paddock League",
		Season:     3,
		Round:      7,
		ChannelID:  "chan-1",
		DateTime:   "2024-11-02 8:00 PM",
		Timezone:   "America/Chicago",
		RoleIDs:    []string{"role-a", "role-b"},
		TrackName:  "Monaco",
		TrackImage: "Monaco_Circuit.png",
	}
	require.NoError(t, repo.SaveEvent(event))

	got, err := repo.GetEvent("evt-1")
	require.NoError(t, err)
	assert.Equal(t, event, got)

	t.Run("save overwrites wholesale", func(t *testing.T) {
		updated := *event
		updated.Round = 8
		updated.RoleIDs = nil
		require.NoError(t, repo.SaveEvent(&updated))

		got, err := repo.GetEvent("evt-1")
		require.NoError(t, err)
		assert.Equal(t, 8, got.Round)
		assert.Empty(t, got.RoleIDs)
	})

	t.Run("missing event", func(t *testing.T) {
		_, err := repo.GetEvent("nope")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("malformed roles column fails clearly", func(t *testing.T) {
		_, err := repo.db.Exec(`UPDATE events SET roles = 'not json' WHERE unique_id = 'evt-1'`)
		require.NoError(t, err)

		_, err = repo.GetEvent("evt-1")
		assert.ErrorContains(t, err, "malformed roles")
		assert.NotErrorIs(t, err, ErrNotFound)
	})
}

func TestCheckInStatus(t *testing.T) {
	repo := newTestRepository(t)
	require.NoError(t, repo.SaveEvent(&Event{UniqueID: "evt-1"}))

	members, err := repo.GetTeamCheckIns("evt-1", "ferrari")
	require.NoError(t, err)
	assert.Empty(t, members)

	require.NoError(t, repo.SaveCheckInStatus("evt-1", "ferrari", []CheckInMember{
		{UserID: "u1", Nickname: "Lando"},
		{UserID: "u2", Nickname: "Oscar"},
	}))
	require.NoError(t, repo.SaveCheckInStatus("evt-1", "decline", nil))

	members, err = repo.GetTeamCheckIns("evt-1", "ferrari")
	require.NoError(t, err)
	assert.Equal(t, []CheckInMember{{"u1", "Lando"}, {"u2", "Oscar"}}, members)

	// Whole list is replaced on write
	require.NoError(t, repo.SaveCheckInStatus("evt-1", "ferrari", []CheckInMember{{UserID: "u2", Nickname: "Oscar"}}))

	status, err := repo.GetCheckInStatus("evt-1")
	require.NoError(t, err)
	assert.Equal(t, map[string][]CheckInMember{
		"ferrari": {{UserID: "u2", Nickname: "Oscar"}},
		"decline": {},
	}, status)
}

func TestGuildSettings(t *testing.T) {
	repo := newTestRepository(t)

	_, err := repo.GetGuildSettings("g1")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, repo.SetNotificationChannel("g1", "chan-1"))
	require.NoError(t, repo.SetManagerRole("g1", "role-1"))

	settings, err := repo.GetGuildSettings("g1")
	require.NoError(t, err)
	assert.Equal(t, &GuildSettings{GuildID: "g1", NotificationChannelID: "chan-1", ManagerRoleID: "role-1"}, settings)

	// Clearing the manager role keeps the notification channel
	require.NoError(t, repo.ClearManagerRole("g1"))
	settings, err = repo.GetGuildSettings("g1")
	require.NoError(t, err)
	assert.Equal(t, "chan-1", settings.NotificationChannelID)
	assert.Empty(t, settings.ManagerRoleID)

	require.NoError(t, repo.SetNotificationChannel("g1", "chan-2"))
	settings, err = repo.GetGuildSettings("g1")
	require.NoError(t, err)
	assert.Equal(t, "chan-2", settings.NotificationChannelID)
}

func TestRosterSets(t *testing.T) {
	repo := newTestRepository(t)

	require.NoError(t, repo.CreateRosterSet(&RosterSet{ID: "s1", GuildID: "g1", ChannelID: "c1", Name: "Division 1"}))
	require.NoError(t, repo.CreateRosterSet(&RosterSet{ID: "s2", GuildID: "g1", ChannelID: "c2", Name: "Division 2"}))
	require.NoError(t, repo.CreateRosterSet(&RosterSet{ID: "s3", GuildID: "g2", ChannelID: "c3", Name: "Division 1"}))

	sets, err := repo.GetRosterSetsByGuild("g1")
	require.NoError(t, err)
	require.Len(t, sets, 2)
	assert.Equal(t, "Division 1", sets[0].Name)
	assert.Equal(t, "Division 2", sets[1].Name)

	all, err := repo.GetAllRosterSets()
	require.NoError(t, err)
	assert.Len(t, all, 3)

	set, err := repo.FindRosterSetByName("g2", "Division 1")
	require.NoError(t, err)
	assert.Equal(t, "s3", set.ID)

	_, err = repo.FindRosterSetByName("g2", "Division 2")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = repo.GetRosterSet("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRosterTeams(t *testing.T) {
	repo := newTestRepository(t)
	require.NoError(t, repo.CreateRosterSet(&RosterSet{ID: "s1", GuildID: "g1", ChannelID: "c1", Name: "Division 1"}))

	teams := []*RosterTeam{
		{ID: "t1", RosterSetID: "s1", TeamName: "Williams", RoleID: "r1", DisplayOrder: 2},
		{ID: "t2", RosterSetID: "s1", TeamName: "Ferrari", RoleID: "r2", ImageURL: "https://img/f.png"},
		{ID: "t3", RosterSetID: "s1", TeamName: "Stewards", RoleID: "r1", DisplayOrder: 2, IsSpecial: true},
	}
	for _, team := range teams {
		require.NoError(t, repo.CreateRosterTeam(team))
	}

	t.Run("ordered by display order then insertion", func(t *testing.T) {
		got, err := repo.GetRosterTeamsBySet("s1")
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, []string{"t2", "t1", "t3"}, []string{got[0].ID, got[1].ID, got[2].ID})
		assert.Equal(t, "https://img/f.png", got[0].ImageURL)
		assert.Nil(t, got[0].MessageID)
		assert.True(t, got[2].IsSpecial)
	})

	t.Run("teams by role", func(t *testing.T) {
		got, err := repo.GetRosterTeamsByRole("r1")
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("message id set and cleared", func(t *testing.T) {
		require.NoError(t, repo.SetRosterTeamMessage("t1", strPtr("m1")))
		team, err := repo.GetRosterTeam("t1")
		require.NoError(t, err)
		require.True(t, team.Posted())
		assert.Equal(t, "m1", *team.MessageID)

		require.NoError(t, repo.SetRosterTeamMessage("t2", strPtr("m2")))
		for _, id := range []string{"t1", "t2"} {
			require.NoError(t, repo.SetRosterTeamMessage(id, nil))
		}
		got, err := repo.GetRosterTeamsBySet("s1")
		require.NoError(t, err)
		for _, team := range got {
			assert.False(t, team.Posted(), team.ID)
		}
	})

	t.Run("partial update touches only given fields", func(t *testing.T) {
		order := 0
		require.NoError(t, repo.UpdateRosterTeam("t1", RosterTeamPatch{DisplayOrder: &order}))

		team, err := repo.GetRosterTeam("t1")
		require.NoError(t, err)
		assert.Equal(t, 0, team.DisplayOrder)
		assert.Equal(t, "Williams", team.TeamName)

		require.NoError(t, repo.UpdateRosterTeam("t1", RosterTeamPatch{TeamName: strPtr("Williams Racing"), ImageURL: strPtr("https://img/w.png")}))
		team, err = repo.FindRosterTeamByName("s1", "Williams Racing")
		require.NoError(t, err)
		assert.Equal(t, "https://img/w.png", team.ImageURL)
		assert.Equal(t, 0, team.DisplayOrder)

		assert.NoError(t, repo.UpdateRosterTeam("t1", RosterTeamPatch{}))
		assert.ErrorIs(t, repo.UpdateRosterTeam("missing", RosterTeamPatch{DisplayOrder: &order}), ErrNotFound)
	})

	t.Run("delete team", func(t *testing.T) {
		require.NoError(t, repo.DeleteRosterTeam("t3"))
		_, err := repo.GetRosterTeam("t3")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("delete set cascades", func(t *testing.T) {
		require.NoError(t, repo.DeleteRosterSet("s1"))
		got, err := repo.GetRosterTeamsBySet("s1")
		require.NoError(t, err)
		assert.Empty(t, got)
		_, err = repo.GetRosterSet("s1")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}
