package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"
)

var ErrStoreUnavailable = errors.New("dedup store unavailable")

var _ SeenStore = (*SQLiteStore)(nil)

// SQLiteStore keeps seen listing ids in a SQLite file. Every operation opens
// the file, does its work and closes it again, so no handle outlives a call
// and an interrupted process never leaves the store locked.
type SQLiteStore struct {
	path string

	mu       sync.Mutex
	migrated bool
}

// NewSQLiteStore does not touch the filesystem; the file and schema are
// created on first use.
func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

func (s *SQLiteStore) Path() string {
	return s.path
}

// Migrate applies pending schema migrations and returns the resulting version.
func (s *SQLiteStore) Migrate(ctx context.Context) (uint, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return 0, false, err
	}

	m, err := newMigrate(s)
	if err != nil {
		return 0, false, unavailable(err)
	}
	defer func() {
		if sourceErr, dbErr := m.Close(); sourceErr != nil || dbErr != nil {
			slog.Warn("Failed to close migration handles", "path", s.path, "source_error", sourceErr, "db_error", dbErr)
		}
	}()

	version, dirty, err := runMigrations(m)
	if err != nil {
		return 0, false, unavailable(err)
	}

	s.migrated = true
	return version, dirty, nil
}

// Seen reports whether listingID has been marked.
func (s *SQLiteStore) Seen(ctx context.Context, listingID string) (bool, error) {
	var seen bool
	err := s.withDB(ctx, func(db *sql.DB) error {
		var one int
		err := db.QueryRowContext(ctx,
			`SELECT 1 FROM seen_listings WHERE listing_id = ? LIMIT 1`, listingID).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to check listing %s: %w", listingID, err)
		}
		seen = true
		return nil
	})
	return seen, err
}

// MarkSeen records listingID. Marking an id twice is a no-op.
func (s *SQLiteStore) MarkSeen(ctx context.Context, listingID string) error {
	return s.withDB(ctx, func(db *sql.DB) error {
		_, err := db.ExecContext(ctx, `
			INSERT INTO seen_listings (listing_id, seen_at)
			VALUES (?, CURRENT_TIMESTAMP)
			ON CONFLICT(listing_id) DO NOTHING
		`, listingID)
		if err != nil {
			return fmt.Errorf("failed to mark listing %s: %w", listingID, err)
		}
		return nil
	})
}

// Count returns the number of seen listing ids.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var count int
	err := s.withDB(ctx, func(db *sql.DB) error {
		if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM seen_listings").Scan(&count); err != nil {
			return fmt.Errorf("failed to count seen listings: %w", err)
		}
		return nil
	})
	return count, err
}

func (s *SQLiteStore) withDB(ctx context.Context, fn func(db *sql.DB) error) error {
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}

	db, err := s.open()
	if err != nil {
		return unavailable(err)
	}
	defer db.Close()

	if err := fn(db); err != nil {
		return unavailable(err)
	}
	return nil
}

func (s *SQLiteStore) ensureSchema(ctx context.Context) error {
	s.mu.Lock()
	migrated := s.migrated
	s.mu.Unlock()

	if migrated {
		return nil
	}

	version, _, err := s.Migrate(ctx)
	if err != nil {
		return err
	}
	slog.Debug("Dedup store schema ready", "path", s.path, "version", version)
	return nil
}

// open returns a single-connection handle. synchronous(FULL) makes a
// committed write durable before the call returns.
func (s *SQLiteStore) open() (*sql.DB, error) {
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating store dir: %w", err)
		}
	}

	dsn := "file:" + s.path + "?_pragma=busy_timeout(5000)&_pragma=synchronous(FULL)&_pragma=journal_mode(DELETE)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("opening store %s: %w", s.path, err)
	}
	return db, nil
}

func unavailable(err error) error {
	if errors.Is(err, ErrStoreUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
}
