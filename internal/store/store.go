package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Store is the SQLite catalog of profiles the cache has loaded or built.
type Store struct {
	db *sql.DB
}

// NewStore opens a SQLite database at dbPath with WAL mode enabled.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{db: db}, nil
}

// Open opens the database at dbPath and migrates it.
func Open(dbPath string) (*Store, error) {
	s, err := NewStore(dbPath)
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate creates the catalog tables and indexes. Idempotent.
func (s *Store) Migrate() error {
	_, err := s.db.Exec(schemaDDL)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS profiles (
  id              TEXT PRIMARY KEY,
  path            TEXT,
  schema_version  TEXT,
  os_family       TEXT,
  os_name         TEXT,
  architecture    TEXT,
  ps_version      TEXT,
  ps_edition      TEXT,
  dotnet_runtime  TEXT,
  is_union        INTEGER NOT NULL DEFAULT 0,
  module_count    INTEGER NOT NULL DEFAULT 0,
  command_count   INTEGER NOT NULL DEFAULT 0,
  type_count      INTEGER NOT NULL DEFAULT 0,
  loaded_at       TIMESTAMP
);

CREATE TABLE IF NOT EXISTS constituents (
  union_id        TEXT NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
  profile_id      TEXT NOT NULL,
  PRIMARY KEY (union_id, profile_id)
);

CREATE INDEX IF NOT EXISTS idx_profiles_family ON profiles(os_family);
CREATE INDEX IF NOT EXISTS idx_profiles_path ON profiles(path);
CREATE INDEX IF NOT EXISTS idx_constituents_profile ON constituents(profile_id);
`
