package store

import (
	"database/sql"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	_ "modernc.org/sqlite"
)

const (
	protectionCacheSize = 4096
	stashCacheSize      = 512
)

// Store is the local repository metadata store. It owns the four
// persisted tables and layers in-memory caches over the two hot read
// paths (branch protection, stash-check timestamps).
//
// The store assumes a single logical writer. The caches carry their
// own locking, but concurrent mutating calls can still race on the
// recursive identity upsert and create duplicate rows.
type Store struct {
	db *sql.DB

	protection *lru.Cache[branchKey, bool]
	stash      *lru.Cache[int64, time.Time]

	notifier notifier

	// trackProtection gates whether protected-branch rows are
	// persisted and refreshed at all.
	trackProtection bool
}

// Option configures a Store at construction time.
type Option func(*Store)

// WithBranchProtection toggles persistence of protected-branch data.
// Enabled by default. When disabled, attaching a remote repository
// skips the branch refresh entirely and IsBranchProtected always
// reports false.
func WithBranchProtection(enabled bool) Option {
	return func(s *Store) {
		s.trackProtection = enabled
	}
}

// New creates a new Store with the specified database path.
// Use ":memory:" for in-memory databases (useful for testing).
func New(dbPath string, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Set connection pool defaults
	db.SetMaxOpenConns(1) // SQLite only allows one writer at a time
	db.SetMaxIdleConns(1)

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	protection, err := lru.New[branchKey, bool](protectionCacheSize)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create protection cache: %w", err)
	}
	stash, err := lru.New[int64, time.Time](stashCacheSize)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create timestamp cache: %w", err)
	}

	s := &Store{
		db:              db,
		protection:      protection,
		stash:           stash,
		trackProtection: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// DB returns the underlying database connection for advanced queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// CreateSchema creates all tables and indexes.
func (s *Store) CreateSchema() error {
	_, err := s.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// dbtx is satisfied by both *sql.DB and *sql.Tx so lookups and
// reconstruction can run inside or outside a transaction.
type dbtx interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// formatTime renders a timestamp the way every date column in the
// schema stores one.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// parseNullableTime converts a nullable RFC3339 column into *time.Time.
func parseNullableTime(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, ns.String)
	if err != nil {
		return nil, fmt.Errorf("failed to parse timestamp %q: %w", ns.String, err)
	}
	return &t, nil
}
