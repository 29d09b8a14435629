package notes

import (
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

// Migration represents a schema migration
type Migration struct {
	Version     int
	Description string
	Up          func(db *sql.DB) error
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "create notes table",
		Up: func(db *sql.DB) error {
			_, err := db.Exec(`
				CREATE TABLE IF NOT EXISTS notes (
					id         INTEGER PRIMARY KEY AUTOINCREMENT,
					list       TEXT NOT NULL,
					body       TEXT NOT NULL,
					created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
				)
			`)
			return err
		},
	},
	{
		Version:     2,
		Description: "index notes by list",
		Up: func(db *sql.DB) error {
			_, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_notes_list ON notes (list, id)`)
			return err
		},
	},
}

// Store persists notes in a SQLite file
type Store struct {
	db   *sql.DB
	path string
}

// OpenStore opens (creating if needed) the database at path and migrates it
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	// Measures in several skins may share one file
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db, path: path}, nil
}

// migrate runs pending migrations
func migrate(db *sql.DB) error {
	createTable := `
		CREATE TABLE IF NOT EXISTS notes_migrations (
			version INTEGER PRIMARY KEY,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`
	if _, err := db.Exec(createTable); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	var currentVersion int
	row := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM notes_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	for _, m := range migrations {
		if m.Version <= currentVersion {
			continue
		}
		if err := m.Up(db); err != nil {
			return fmt.Errorf("migration %d (%s) failed: %w", m.Version, m.Description, err)
		}
		if _, err := db.Exec("INSERT INTO notes_migrations (version) VALUES (?)", m.Version); err != nil {
			return fmt.Errorf("failed to record migration %d: %w", m.Version, err)
		}
	}
	return nil
}

// Path returns the database file
func (s *Store) Path() string {
	return s.path
}

// Add appends a note to list
func (s *Store) Add(list, body string) error {
	_, err := s.db.Exec("INSERT INTO notes (list, body) VALUES (?, ?)", list, body)
	if err != nil {
		return fmt.Errorf("failed to add note: %w", err)
	}
	return nil
}

// Latest returns the most recent note of list
func (s *Store) Latest(list string) (string, bool, error) {
	var body string
	err := s.db.QueryRow("SELECT body FROM notes WHERE list = ? ORDER BY id DESC LIMIT 1", list).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read latest note: %w", err)
	}
	return body, true, nil
}

// Count returns the number of notes in list
func (s *Store) Count(list string) (int, error) {
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM notes WHERE list = ?", list).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count notes: %w", err)
	}
	return n, nil
}

// Pop removes the most recent note of list
func (s *Store) Pop(list string) error {
	_, err := s.db.Exec(`DELETE FROM notes WHERE id = (
		SELECT id FROM notes WHERE list = ? ORDER BY id DESC LIMIT 1)`, list)
	if err != nil {
		return fmt.Errorf("failed to remove note: %w", err)
	}
	return nil
}

// Clear removes every note of list
func (s *Store) Clear(list string) error {
	if _, err := s.db.Exec("DELETE FROM notes WHERE list = ?", list); err != nil {
		return fmt.Errorf("failed to clear notes: %w", err)
	}
	return nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}
