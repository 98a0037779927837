package store

import (
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

const currentVersion = 1

// Storage keys. The codechrono-* names predate the rename and are kept so
// existing data keeps loading.
const (
	KeyLegacyLogs       = "codechrono-logs"
	KeySessions         = "devpulse-sessions-v1"
	KeyDailyGoal        = "codechrono-daily-goal"
	KeyBadges           = "codechrono-badges"
	KeyNotes            = "codechrono-notes"
	KeyReminder         = "devpulse-reminder-settings"
	KeyLastReminder     = "devpulse-last-reminder-date"
	KeyCloudSession     = "devpulse-cloud-session"
	KeyPomodoroSettings = "devpulse-pomodoro-settings"
)

var allKeys = []string{
	KeyLegacyLogs,
	KeySessions,
	KeyDailyGoal,
	KeyBadges,
	KeyNotes,
	KeyReminder,
	KeyLastReminder,
	KeyCloudSession,
	KeyPomodoroSettings,
}

// Store is the local persistence handle. It keeps JSON documents in a
// key/value table and layers the session, goal, reminder, badge and note
// records on top of it.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time

	mirrorLegacy bool

	// mu serializes read-modify-write cycles on stored documents.
	mu sync.Mutex
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for recovered parse failures and migrations.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLegacyMirror controls whether mutations rewrite the legacy date → minutes
// map under KeyLegacyLogs.
func WithLegacyMirror(enabled bool) Option {
	return func(s *Store) {
		s.mirrorLegacy = enabled
	}
}

// New opens (or creates) the SQLite database at dbPath and runs migrations.
func New(dbPath string, opts ...Option) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", p, err)
		}
	}

	s := &Store{
		db:           db,
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:          time.Now,
		mirrorLegacy: true,
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// NewMemory creates an in-memory store for testing.
func NewMemory(opts ...Option) (*Store, error) {
	return New(":memory:", opts...)
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Now returns the store's current time.
func (s *Store) Now() time.Time {
	return s.now()
}

func (s *Store) migrate() error {
	var version int
	err := s.db.QueryRow("PRAGMA user_version").Scan(&version)
	if err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}

	if version >= currentVersion {
		return nil
	}

	if version < 1 {
		if err := s.migrateV1(); err != nil {
			return err
		}
	}

	_, err = s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentVersion))
	return err
}

func (s *Store) migrateV1() error {
	const ddl = `
	CREATE TABLE IF NOT EXISTS local_storage (
		key         TEXT PRIMARY KEY,
		value       TEXT NOT NULL,
		updated_at  TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now'))
	);
	`
	_, err := s.db.Exec(ddl)
	return err
}

// ClearAll removes every DevPulse record.
func (s *Store) ClearAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, k := range allKeys {
		if err := s.removeItem(k); err != nil {
			return err
		}
	}
	s.logger.Info("cleared all local data")
	return nil
}
