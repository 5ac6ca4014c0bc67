package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a row addressed by primary key does not exist
var ErrNotFound = errors.New("not found")

// connection pragmas: cascades need foreign_keys, WAL lets readers run
// alongside the single writer.
const pragmas = "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"

// Repository handles all database operations
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new repository with SQLite
func NewRepository(dbPath string) (*Repository, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+pragmas)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite serializes writers; one connection keeps transactions from
	// tripping over SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	// Test connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	repo := &Repository{db: db}

	// Run migrations
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return repo, nil
}

// Close closes the database connection
func (r *Repository) Close() error {
	return r.db.Close()
}

// migrate creates the database schema
func (r *Repository) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS events (
			unique_id TEXT PRIMARY KEY,
			server_name TEXT,
			season INTEGER,
			round INTEGER,
			channel_id TEXT,
			date_time TEXT,
			timezone TEXT,
			roles TEXT,
			track_name TEXT,
			track_image TEXT,
			created_at TEXT DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS check_in_statuses (
			unique_id TEXT NOT NULL,
			team TEXT NOT NULL,
			members TEXT NOT NULL DEFAULT '[]',
			PRIMARY KEY (unique_id, team),
			FOREIGN KEY (unique_id) REFERENCES events (unique_id)
		)`,
		`CREATE TABLE IF NOT EXISTS guild_settings (
			guild_id TEXT PRIMARY KEY,
			notification_channel_id TEXT,
			created_at TEXT DEFAULT CURRENT_TIMESTAMP,
			updated_at TEXT DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS roster_sets (
			id TEXT PRIMARY KEY,
			guild_id TEXT NOT NULL,
			channel_id TEXT NOT NULL,
			name TEXT NOT NULL,
			created_at TEXT DEFAULT CURRENT_TIMESTAMP,
			updated_at TEXT DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS roster_teams (
			id TEXT PRIMARY KEY,
			roster_set_id TEXT NOT NULL,
			team_name TEXT NOT NULL,
			role_id TEXT NOT NULL,
			image_url TEXT,
			message_id TEXT,
			display_order INTEGER DEFAULT 0,
			created_at TEXT DEFAULT CURRENT_TIMESTAMP,
			updated_at TEXT DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (roster_set_id) REFERENCES roster_sets (id) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_roster_sets_guild ON roster_sets(guild_id)`,
		`CREATE INDEX IF NOT EXISTS idx_roster_teams_set ON roster_teams(roster_set_id)`,
		`CREATE INDEX IF NOT EXISTS idx_roster_teams_role ON roster_teams(role_id)`,
	}

	for _, migration := range migrations {
		if _, err := r.db.Exec(migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	// Columns added after the first release. Databases created by an
	// older build lack them; fresh ones get them here too.
	columns := []struct{ table, column, definition string }{
		{"roster_teams", "is_special", "BOOLEAN DEFAULT 0"},
		{"guild_settings", "manager_role_id", "TEXT"},
	}
	for _, c := range columns {
		if err := r.addColumn(c.table, c.column, c.definition); err != nil {
			return err
		}
	}

	return nil
}

// addColumn runs ALTER TABLE ADD COLUMN and treats an already existing
// column as success.
func (r *Repository) addColumn(table, column, definition string) error {
	_, err := r.db.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, definition))
	if err == nil {
		slog.Info("Added column", "table", table, "column", column)
		return nil
	}
	if isDuplicateColumn(err) {
		return nil
	}
	return fmt.Errorf("failed to add column %s.%s: %w", table, column, err)
}

func isDuplicateColumn(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "duplicate column name")
}

// notFound maps sql.ErrNoRows onto ErrNotFound and wraps everything else
func notFound(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return fmt.Errorf("failed to load %s: %w", what, err)
}

// exec runs a squirrel statement against the database or a transaction
func exec(runner sq.BaseRunner, q sq.Sqlizer) (sql.Result, error) {
	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}
	return runner.Exec(query, args...)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullStringPtr(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return nullString(*s)
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	s := ns.String
	return &s
}
