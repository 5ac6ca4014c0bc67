package storage

import (
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
)

var rosterTeamColumns = []string{
	"t.id", "t.roster_set_id", "t.team_name", "t.role_id", "t.image_url",
	"t.message_id", "t.display_order", "COALESCE(t.is_special, 0)",
}

// selectTeams is the base query for every roster team read. Ties on
// display_order keep insertion order.
func selectTeams() sq.SelectBuilder {
	return sq.Select(rosterTeamColumns...).
		From("roster_teams t").
		OrderBy("t.display_order", "t.rowid")
}

// Roster set operations

// CreateRosterSet inserts a new roster set
func (r *Repository) CreateRosterSet(set *RosterSet) error {
	_, err := r.db.Exec(
		`INSERT INTO roster_sets (id, guild_id, channel_id, name) VALUES (?, ?, ?, ?)`,
		set.ID, set.GuildID, set.ChannelID, set.Name,
	)
	if err != nil {
		return fmt.Errorf("failed to create roster set %q: %w", set.Name, err)
	}
	return nil
}

// GetRosterSet finds a roster set by id
func (r *Repository) GetRosterSet(id string) (*RosterSet, error) {
	set := &RosterSet{}
	err := r.db.QueryRow(
		`SELECT id, guild_id, channel_id, name FROM roster_sets WHERE id = ?`,
		id,
	).Scan(&set.ID, &set.GuildID, &set.ChannelID, &set.Name)
	if err != nil {
		return nil, notFound(err, "roster set "+id)
	}
	return set, nil
}

// FindRosterSetByName finds a guild's roster set by its display name
func (r *Repository) FindRosterSetByName(guildID, name string) (*RosterSet, error) {
	set := &RosterSet{}
	err := r.db.QueryRow(
		`SELECT id, guild_id, channel_id, name FROM roster_sets
		 WHERE guild_id = ? AND name = ? ORDER BY rowid LIMIT 1`,
		guildID, name,
	).Scan(&set.ID, &set.GuildID, &set.ChannelID, &set.Name)
	if err != nil {
		return nil, notFound(err, "roster set "+name)
	}
	return set, nil
}

// GetRosterSetsByGuild returns all roster sets in a guild
func (r *Repository) GetRosterSetsByGuild(guildID string) ([]*RosterSet, error) {
	return r.queryRosterSets(sq.Eq{"guild_id": guildID})
}

// GetAllRosterSets returns every roster set across all guilds
func (r *Repository) GetAllRosterSets() ([]*RosterSet, error) {
	return r.queryRosterSets(nil)
}

func (r *Repository) queryRosterSets(where sq.Sqlizer) ([]*RosterSet, error) {
	q := sq.Select("id", "guild_id", "channel_id", "name").From("roster_sets").OrderBy("rowid")
	if where != nil {
		q = q.Where(where)
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load roster sets: %w", err)
	}
	defer rows.Close()

	var sets []*RosterSet
	for rows.Next() {
		set := &RosterSet{}
		if err := rows.Scan(&set.ID, &set.GuildID, &set.ChannelID, &set.Name); err != nil {
			return nil, err
		}
		sets = append(sets, set)
	}

	return sets, rows.Err()
}

// DeleteRosterSet removes a roster set and all of its teams
func (r *Repository) DeleteRosterSet(id string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM roster_teams WHERE roster_set_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete teams of roster set %s: %w", id, err)
	}
	if _, err := tx.Exec(`DELETE FROM roster_sets WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete roster set %s: %w", id, err)
	}

	return tx.Commit()
}

// Roster team operations

// CreateRosterTeam inserts a new roster team without a message
func (r *Repository) CreateRosterTeam(team *RosterTeam) error {
	_, err := exec(r.db, sq.Insert("roster_teams").
		Columns("id", "roster_set_id", "team_name", "role_id", "image_url", "display_order", "is_special").
		Values(team.ID, team.RosterSetID, team.TeamName, team.RoleID,
			nullString(team.ImageURL), team.DisplayOrder, team.IsSpecial))
	if err != nil {
		return fmt.Errorf("failed to create roster team %q: %w", team.TeamName, err)
	}
	return nil
}

// GetRosterTeam finds a roster team by id
func (r *Repository) GetRosterTeam(id string) (*RosterTeam, error) {
	teams, err := r.queryTeams(selectTeams().Where(sq.Eq{"t.id": id}))
	if err != nil {
		return nil, err
	}
	if len(teams) == 0 {
		return nil, notFound(sql.ErrNoRows, "roster team "+id)
	}
	return teams[0], nil
}

// FindRosterTeamByName finds a team in a roster set by its display name
func (r *Repository) FindRosterTeamByName(rosterSetID, name string) (*RosterTeam, error) {
	teams, err := r.queryTeams(selectTeams().
		Where(sq.Eq{"t.roster_set_id": rosterSetID, "t.team_name": name}).
		Limit(1))
	if err != nil {
		return nil, err
	}
	if len(teams) == 0 {
		return nil, notFound(sql.ErrNoRows, "roster team "+name)
	}
	return teams[0], nil
}

// GetRosterTeamsBySet returns a roster set's teams in display order
func (r *Repository) GetRosterTeamsBySet(rosterSetID string) ([]*RosterTeam, error) {
	return r.queryTeams(selectTeams().Where(sq.Eq{"t.roster_set_id": rosterSetID}))
}

// GetRosterTeamsByRole returns every team, across all roster sets, backed
// by the given role
func (r *Repository) GetRosterTeamsByRole(roleID string) ([]*RosterTeam, error) {
	return r.queryTeams(selectTeams().
		Join("roster_sets rs ON t.roster_set_id = rs.id").
		Where(sq.Eq{"t.role_id": roleID}))
}

func (r *Repository) queryTeams(q sq.SelectBuilder) ([]*RosterTeam, error) {
	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load roster teams: %w", err)
	}
	defer rows.Close()

	var teams []*RosterTeam
	for rows.Next() {
		team := &RosterTeam{}
		var imageURL, messageID sql.NullString
		if err := rows.Scan(&team.ID, &team.RosterSetID, &team.TeamName, &team.RoleID,
			&imageURL, &messageID, &team.DisplayOrder, &team.IsSpecial); err != nil {
			return nil, fmt.Errorf("failed to decode roster team row: %w", err)
		}
		team.ImageURL = imageURL.String
		team.MessageID = stringPtr(messageID)
		teams = append(teams, team)
	}

	return teams, rows.Err()
}

// UpdateRosterTeam applies only the fields present in the patch
func (r *Repository) UpdateRosterTeam(id string, patch RosterTeamPatch) error {
	if patch.Empty() {
		return nil
	}

	q := sq.Update("roster_teams").
		Set("updated_at", sq.Expr("CURRENT_TIMESTAMP")).
		Where(sq.Eq{"id": id})
	if patch.TeamName != nil {
		q = q.Set("team_name", *patch.TeamName)
	}
	if patch.ImageURL != nil {
		q = q.Set("image_url", nullStringPtr(patch.ImageURL))
	}
	if patch.DisplayOrder != nil {
		q = q.Set("display_order", *patch.DisplayOrder)
	}

	res, err := exec(r.db, q)
	if err != nil {
		return fmt.Errorf("failed to update roster team %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return notFound(sql.ErrNoRows, "roster team "+id)
	}
	return nil
}

// SetRosterTeamMessage records the posted message id, or clears it when
// messageID is nil
func (r *Repository) SetRosterTeamMessage(id string, messageID *string) error {
	_, err := r.db.Exec(
		`UPDATE roster_teams SET message_id = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		nullStringPtr(messageID), id,
	)
	if err != nil {
		return fmt.Errorf("failed to store message id for roster team %s: %w", id, err)
	}
	return nil
}

// DeleteRosterTeam removes a roster team
func (r *Repository) DeleteRosterTeam(id string) error {
	if _, err := r.db.Exec(`DELETE FROM roster_teams WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete roster team %s: %w", id, err)
	}
	return nil
}
