package blacklist

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"skipdetect/internal/segments"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump when the schema changes;
// users then need to delete the blacklist database.
const schemaVersion = 1

// Entry is one remembered no-result: this item yielded no segment for this
// mode on a previous run.
type Entry struct {
	ItemID    uuid.UUID
	Mode      segments.Mode
	Name      string
	CreatedAt time.Time
}

// Store is the durable blacklist memory backed by SQLite. A disabled store
// never persists anything and reports every item as unlisted, so every run
// re-attempts previously unresolved items.
type Store struct {
	mu      sync.Mutex
	db      *sql.DB
	path    string
	enabled bool
}

// Open initializes or connects to the blacklist database. When enabled is
// false no database is touched.
func Open(path string, enabled bool) (*Store, error) {
	if !enabled {
		return &Store{enabled: false}, nil
	}

	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure blacklist directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open blacklist db: %w", err)
	}
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path, enabled: true}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Enabled reports whether entries are being persisted.
func (s *Store) Enabled() bool { return s != nil && s.enabled }

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}
	if tableExists == 0 {
		if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
			return fmt.Errorf("create blacklist schema: %w", err)
		}
		return nil
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("blacklist database has schema version %d, expected %d (delete %s to reset)",
			version, schemaVersion, s.path)
	}
	return nil
}

// Record merges entries into the durable set. Inserting an existing
// (item, mode) pair is a no-op; the blacklist has set semantics.
func (s *Store) Record(ctx context.Context, entries []Entry) error {
	if !s.Enabled() || len(entries) == 0 {
		return nil
	}

	// Multiple pipeline workers append concurrently; all mutation funnels
	// through this one critical section.
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin blacklist tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, entry := range entries {
		_, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO blacklist_segments (item_id, mode, name, created_at)
			 VALUES (?, ?, ?, ?)`,
			entry.ItemID.String(), string(entry.Mode), entry.Name, now,
		)
		if err != nil {
			return fmt.Errorf("insert blacklist entry: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit blacklist tx: %w", err)
	}
	return nil
}

// Contains reports whether an item/mode pair is blacklisted.
func (s *Store) Contains(ctx context.Context, itemID uuid.UUID, mode segments.Mode) (bool, error) {
	if !s.Enabled() {
		return false, nil
	}
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM blacklist_segments WHERE item_id = ? AND mode = ?",
		itemID.String(), string(mode),
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("query blacklist: %w", err)
	}
	return count > 0, nil
}

// List returns every stored entry, newest first.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	if !s.Enabled() {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT item_id, mode, name, created_at FROM blacklist_segments ORDER BY created_at DESC, item_id",
	)
	if err != nil {
		return nil, fmt.Errorf("list blacklist: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var rawID, rawMode, name, rawCreated string
		if err := rows.Scan(&rawID, &rawMode, &name, &rawCreated); err != nil {
			return nil, fmt.Errorf("scan blacklist row: %w", err)
		}
		id, err := uuid.Parse(rawID)
		if err != nil {
			continue
		}
		entry := Entry{ItemID: id, Mode: segments.Mode(rawMode), Name: name}
		if created, err := time.Parse(time.RFC3339, rawCreated); err == nil {
			entry.CreatedAt = created
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// DeleteItem removes all entries for an item, e.g. when the library deletes
// the underlying media.
func (s *Store) DeleteItem(ctx context.Context, itemID uuid.UUID) error {
	if !s.Enabled() {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM blacklist_segments WHERE item_id = ?", itemID.String(),
	); err != nil {
		return fmt.Errorf("delete blacklist entries: %w", err)
	}
	return nil
}

// Reset removes every entry; used for the explicit user reset.
func (s *Store) Reset(ctx context.Context) error {
	if !s.Enabled() {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.ExecContext(ctx, "DELETE FROM blacklist_segments"); err != nil {
		return fmt.Errorf("reset blacklist: %w", err)
	}
	return nil
}
