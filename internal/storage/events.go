package storage

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/bytedance/sonic"
)

// Event operations

// SaveEvent inserts or replaces an event wholesale
func (r *Repository) SaveEvent(e *Event) error {
	roles, err := sonic.Marshal(nonNilRoles(e.RoleIDs))
	if err != nil {
		return fmt.Errorf("failed to encode roles: %w", err)
	}

	_, err = r.db.Exec(
		`INSERT OR REPLACE INTO events
		 (unique_id, server_name, season, round, channel_id, date_time, timezone, roles, track_name, track_image)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.UniqueID, e.ServerName, e.Season, e.Round, e.ChannelID,
		e.DateTime, e.Timezone, string(roles), e.TrackName, e.TrackImage,
	)
	if err != nil {
		return fmt.Errorf("failed to save event %s: %w", e.UniqueID, err)
	}
	return nil
}

// GetEvent retrieves an event by its unique id
func (r *Repository) GetEvent(uniqueID string) (*Event, error) {
	e := &Event{}
	var roles string
	err := r.db.QueryRow(
		`SELECT unique_id, server_name, season, round, channel_id, date_time, timezone,
		        COALESCE(roles, '[]'), track_name, track_image
		 FROM events WHERE unique_id = ?`,
		uniqueID,
	).Scan(&e.UniqueID, &e.ServerName, &e.Season, &e.Round, &e.ChannelID,
		&e.DateTime, &e.Timezone, &roles, &e.TrackName, &e.TrackImage)
	if err != nil {
		return nil, notFound(err, "event "+uniqueID)
	}

	if err := sonic.UnmarshalString(roles, &e.RoleIDs); err != nil {
		return nil, fmt.Errorf("event %s has malformed roles column: %w", uniqueID, err)
	}
	return e, nil
}

func nonNilRoles(roles []string) []string {
	if roles == nil {
		return []string{}
	}
	return roles
}

// Check-in operations

// SaveCheckInStatus replaces the whole member list for one (event, team) row
func (r *Repository) SaveCheckInStatus(eventID, team string, members []CheckInMember) error {
	if members == nil {
		members = []CheckInMember{}
	}
	encoded, err := sonic.Marshal(members)
	if err != nil {
		return fmt.Errorf("failed to encode members: %w", err)
	}

	_, err = r.db.Exec(
		`INSERT OR REPLACE INTO check_in_statuses (unique_id, team, members) VALUES (?, ?, ?)`,
		eventID, team, string(encoded),
	)
	if err != nil {
		return fmt.Errorf("failed to save check-in status for %s/%s: %w", eventID, team, err)
	}
	return nil
}

// GetTeamCheckIns returns the member list for one (event, team) row. A
// missing row is an empty list.
func (r *Repository) GetTeamCheckIns(eventID, team string) ([]CheckInMember, error) {
	var raw string
	err := r.db.QueryRow(
		`SELECT members FROM check_in_statuses WHERE unique_id = ? AND team = ?`,
		eventID, team,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return []CheckInMember{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load check-in status for %s/%s: %w", eventID, team, err)
	}
	return decodeMembers(eventID, team, raw)
}

// GetCheckInStatus returns every team's member list for an event
func (r *Repository) GetCheckInStatus(eventID string) (map[string][]CheckInMember, error) {
	rows, err := r.db.Query(
		`SELECT team, members FROM check_in_statuses WHERE unique_id = ?`,
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load check-in status for %s: %w", eventID, err)
	}
	defer rows.Close()

	status := make(map[string][]CheckInMember)
	for rows.Next() {
		var team, raw string
		if err := rows.Scan(&team, &raw); err != nil {
			return nil, err
		}
		members, err := decodeMembers(eventID, team, raw)
		if err != nil {
			return nil, err
		}
		status[team] = members
	}

	return status, rows.Err()
}

func decodeMembers(eventID, team, raw string) ([]CheckInMember, error) {
	var members []CheckInMember
	if err := sonic.UnmarshalString(raw, &members); err != nil {
		return nil, fmt.Errorf("check-in status %s/%s has malformed members column: %w", eventID, team, err)
	}
	if members == nil {
		members = []CheckInMember{}
	}
	return members, nil
}
