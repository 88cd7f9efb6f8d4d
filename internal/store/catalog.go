package store

import (
	"database/sql"
	"fmt"
)

// --- Profile operations ---

// UpsertProfile records p, replacing any earlier record with the same id
// along with its constituents.
func (s *Store) UpsertProfile(p *Profile) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("upsert profile: begin: %w", err)
	}
	defer tx.Rollback()

	if err := upsertProfileTx(tx, p); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("upsert profile: commit: %w", err)
	}
	return nil
}

func upsertProfileTx(tx *sql.Tx, p *Profile) error {
	if _, err := tx.Exec("DELETE FROM constituents WHERE union_id = ?", p.ID); err != nil {
		return fmt.Errorf("upsert profile %q: clear constituents: %w", p.ID, err)
	}
	_, err := tx.Exec(
		`INSERT INTO profiles (id, path, schema_version, os_family, os_name, architecture,
		   ps_version, ps_edition, dotnet_runtime, is_union, module_count, command_count, type_count, loaded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   path = excluded.path, schema_version = excluded.schema_version,
		   os_family = excluded.os_family, os_name = excluded.os_name,
		   architecture = excluded.architecture, ps_version = excluded.ps_version,
		   ps_edition = excluded.ps_edition, dotnet_runtime = excluded.dotnet_runtime,
		   is_union = excluded.is_union, module_count = excluded.module_count,
		   command_count = excluded.command_count, type_count = excluded.type_count,
		   loaded_at = excluded.loaded_at`,
		p.ID, p.Path, p.SchemaVersion, p.OSFamily, p.OSName, p.Architecture,
		p.PSVersion, p.PSEdition, p.DotnetRuntime, p.Union, p.ModuleCount, p.CommandCount, p.TypeCount, p.LoadedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert profile %q: %w", p.ID, err)
	}
	for _, c := range p.Constituents {
		if _, err := tx.Exec(
			"INSERT OR IGNORE INTO constituents (union_id, profile_id) VALUES (?, ?)", p.ID, c,
		); err != nil {
			return fmt.Errorf("upsert profile %q: constituent %q: %w", p.ID, c, err)
		}
	}
	return nil
}

const profileColumns = `id, path, schema_version, os_family, os_name, architecture,
	ps_version, ps_edition, dotnet_runtime, is_union, module_count, command_count, type_count, loaded_at`

func scanProfile(scanner interface{ Scan(...any) error }) (*Profile, error) {
	p := &Profile{}
	var path, schema, family, osName, arch, psVersion, edition, dotnet sql.NullString
	var loadedAt sql.NullTime
	err := scanner.Scan(&p.ID, &path, &schema, &family, &osName, &arch,
		&psVersion, &edition, &dotnet, &p.Union, &p.ModuleCount, &p.CommandCount, &p.TypeCount, &loadedAt)
	if err != nil {
		return nil, err
	}
	p.Path = path.String
	p.SchemaVersion = schema.String
	p.OSFamily = family.String
	p.OSName = osName.String
	p.Architecture = arch.String
	p.PSVersion = psVersion.String
	p.PSEdition = edition.String
	p.DotnetRuntime = dotnet.String
	p.LoadedAt = loadedAt.Time
	return p, nil
}

// ProfileByID returns the record for id, or nil if there is none.
func (s *Store) ProfileByID(id string) (*Profile, error) {
	p, err := scanProfile(s.db.QueryRow("SELECT "+profileColumns+" FROM profiles WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("profile by id: %w", err)
	}
	if p.Union {
		if p.Constituents, err = s.Constituents(id); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Profiles lists recorded profiles by id. A non-empty family keeps only
// profiles of that operating system family, compared without case.
func (s *Store) Profiles(family string) ([]*Profile, error) {
	query := "SELECT " + profileColumns + " FROM profiles"
	var args []any
	if family != "" {
		query += " WHERE os_family = ? COLLATE NOCASE"
		args = append(args, family)
	}
	query += " ORDER BY id"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("profiles: %w", err)
	}
	defer rows.Close()

	var out []*Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("profiles: scan: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("profiles: %w", err)
	}
	for _, p := range out {
		if p.Union {
			if p.Constituents, err = s.Constituents(p.ID); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

// Constituents returns the sorted constituent ids of a union profile.
func (s *Store) Constituents(unionID string) ([]string, error) {
	rows, err := s.db.Query(
		"SELECT profile_id FROM constituents WHERE union_id = ? ORDER BY profile_id", unionID,
	)
	if err != nil {
		return nil, fmt.Errorf("constituents: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("constituents: scan: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// UnionsContaining returns the ids of the unions that list profileID as a
// constituent.
func (s *Store) UnionsContaining(profileID string) ([]string, error) {
	rows, err := s.db.Query(
		"SELECT union_id FROM constituents WHERE profile_id = ? ORDER BY union_id", profileID,
	)
	if err != nil {
		return nil, fmt.Errorf("unions containing: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("unions containing: scan: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// DeleteProfile removes the record for id and, for a union, its
// constituents.
func (s *Store) DeleteProfile(id string) error {
	if _, err := s.db.Exec("DELETE FROM profiles WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	return nil
}
