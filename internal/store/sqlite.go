// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package store

import (
	"database/sql"
	"fmt"
	"sync"
	"time"
)

// Current schema version
const SchemaVersion = "2"

// SQLite is a SQLite-backed store.
type SQLite struct {
	mu sync.Mutex
	db *sql.DB
}

// NewSQLite creates a new SQLite store at the given path.
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, err
	}

	// Create tables if not exists
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS formats (
			name TEXT PRIMARY KEY,
			data BLOB NOT NULL,
			digest TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS metadata (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`)
	if err != nil {
		db.Close()
		return nil, err
	}

	s := &SQLite{db: db}

	// Check/set schema version (use unlocked versions since we're in init)
	version, err := s.getMetadataUnlocked("schema_version")
	if err != nil {
		db.Close()
		return nil, err
	}

	if version == "" || version == "1" {
		// New DB or migrate from v1 to v2: add the history table
		if err := s.migrateToV2(); err != nil {
			db.Close()
			return nil, err
		}
		if err := s.setMetadataUnlocked("schema_version", SchemaVersion); err != nil {
			db.Close()
			return nil, err
		}
	} else if version != SchemaVersion {
		db.Close()
		return nil, fmt.Errorf("unsupported schema version: %s (expected %s)", version, SchemaVersion)
	}

	return s, nil
}

// migrateToV2 creates the version history table and seeds it from the
// current formats.
func (s *SQLite) migrateToV2() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS format_versions (
			name TEXT NOT NULL,
			version INTEGER NOT NULL,
			digest TEXT NOT NULL,
			entries INTEGER NOT NULL DEFAULT 0,
			ts TEXT NOT NULL,
			PRIMARY KEY (name, version)
		);
		INSERT OR IGNORE INTO format_versions (name, version, digest, ts)
			SELECT name, 1, digest, datetime('now') FROM formats;
	`)
	return err
}

// Get retrieves a snapshot by name and verifies its digest.
func (s *SQLite) Get(name string) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var data []byte
	var digest string
	err := s.db.QueryRow("SELECT data, digest FROM formats WHERE name = ?", name).Scan(&data, &digest)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return Decode(data, digest)
}

// Put stores a snapshot by name and records a new version unless the
// content is unchanged.
func (s *SQLite) Put(name string, snap *Snapshot) error {
	data, digest, err := Encode(snap)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var current string
	err = s.db.QueryRow("SELECT digest FROM formats WHERE name = ?", name).Scan(&current)
	if err != nil && err != sql.ErrNoRows {
		return err
	}
	if current == digest {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO formats (name, data, digest) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET data = excluded.data, digest = excluded.digest
	`, name, data, digest)
	if err != nil {
		return err
	}
	_, err = tx.Exec(`
		INSERT INTO format_versions (name, version, digest, entries, ts)
		SELECT ?, COALESCE(MAX(version), 0) + 1, ?, ?, ?
		FROM format_versions WHERE name = ?
	`, name, digest, len(snap.Entries), time.Now().UTC().Format(time.RFC3339), name)
	if err != nil {
		return err
	}
	tracer().Debugf("stored format %s (%d entries, %s)", name, len(snap.Entries), digest[:12])
	return tx.Commit()
}

// Delete removes a snapshot and its history.
func (s *SQLite) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec("DELETE FROM formats WHERE name = ?", name); err != nil {
		return err
	}
	_, err := s.db.Exec("DELETE FROM format_versions WHERE name = ?", name)
	return err
}

// GetHistory returns versions newest first; limit <= 0 means all.
func (s *SQLite) GetHistory(name string, limit int) ([]VersionEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	q := "SELECT version, digest, entries, ts FROM format_versions WHERE name = ? ORDER BY version DESC"
	args := []any{name}
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []VersionEntry
	for rows.Next() {
		var v VersionEntry
		if err := rows.Scan(&v.Version, &v.Digest, &v.Entries, &v.Ts); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// Close closes the database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// GetMetadata retrieves a metadata value by key.
func (s *SQLite) GetMetadata(key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getMetadataUnlocked(key)
}

// getMetadataUnlocked retrieves metadata without locking (caller must hold lock).
func (s *SQLite) getMetadataUnlocked(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM metadata WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

// SetMetadata stores a metadata value by key.
func (s *SQLite) SetMetadata(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setMetadataUnlocked(key, value)
}

// setMetadataUnlocked stores metadata without locking (caller must hold lock).
func (s *SQLite) setMetadataUnlocked(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}
