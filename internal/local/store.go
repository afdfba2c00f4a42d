// Package local implements the device-resident store: one SQLite database
// holding every entity table plus its per-row sync metadata. All mutation of
// persisted state goes through this package; each write is a single atomic
// transaction.
package local

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/hdrahman/PlateMate-Prod-sub009/internal/local/migrations"
)

// Store owns the local database connection and vends per-kind repositories.
type Store struct {
	db  *sql.DB
	now func() time.Time

	Profiles      *ProfileRepo
	FoodLogs      *FoodLogRepo
	Weights       *WeightRepo
	Exercises     *ExerciseRepo
	Streaks       *StreakRepo
	Subscriptions *SubscriptionRepo
	Settings      *SettingsRepo
	Meta          *MetaRepo
}

// Option customizes Store construction.
type Option func(*Store)

// WithClock overrides the time source used for last_modified stamps.
// Tests inject a fake clock here.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Open opens (creating if needed) the local database at dsn, applies the
// embedded migrations and wires the repositories.
func Open(ctx context.Context, dsn string, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open local db: %w", err)
	}

	// modernc sqlite mishandles concurrent writers on one connection pool;
	// the store serializes through a single connection.
	db.SetMaxOpenConns(1)

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate local db: %w", err)
	}

	s := &Store{db: db, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}

	s.Profiles = &ProfileRepo{db: db, now: s.clock}
	s.FoodLogs = &FoodLogRepo{db: db, now: s.clock}
	s.Weights = &WeightRepo{db: db, now: s.clock}
	s.Exercises = &ExerciseRepo{db: db, now: s.clock}
	s.Streaks = &StreakRepo{db: db, now: s.clock}
	s.Subscriptions = &SubscriptionRepo{db: db, now: s.clock}
	s.Settings = &SettingsRepo{db: db, now: s.clock}
	s.Meta = &MetaRepo{db: db}

	return s, nil
}

// RunMigrations applies the embedded goose migrations to db.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, ".")
}

func (s *Store) clock() time.Time { return s.now() }

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// Ping verifies the local database is reachable. Run before a sync pass as a
// cheap health check; remote reachability is deliberately not pre-checked.
func (s *Store) Ping(ctx context.Context) error {
	var one int
	if err := s.db.QueryRowContext(ctx, `SELECT 1`).Scan(&one); err != nil {
		return fmt.Errorf("local db ping: %w", err)
	}
	return nil
}

// DB exposes the raw handle for tests and migrations tooling.
func (s *Store) DB() *sql.DB { return s.db }

// CountUnsynced returns the number of dirty rows across every entity table
// for the given owner. The daemon reports it on startup; an embedding app
// can use it the same way on foreground transitions to decide whether a
// pass is worth triggering.
func (s *Store) CountUnsynced(ctx context.Context, ownerID string) (int, error) {
	const q = `
SELECT
  (SELECT COUNT(*) FROM user_profiles     WHERE owner_id = ?1 AND synced = 0) +
  (SELECT COUNT(*) FROM food_logs         WHERE owner_id = ?1 AND synced = 0) +
  (SELECT COUNT(*) FROM weight_entries    WHERE owner_id = ?1 AND synced = 0) +
  (SELECT COUNT(*) FROM exercise_entries  WHERE owner_id = ?1 AND synced = 0) +
  (SELECT COUNT(*) FROM streaks           WHERE owner_id = ?1 AND synced = 0) +
  (SELECT COUNT(*) FROM subscriptions     WHERE owner_id = ?1 AND synced = 0) +
  (SELECT COUNT(*) FROM settings_blobs    WHERE owner_id = ?1 AND synced = 0)
`
	var n int
	if err := s.db.QueryRowContext(ctx, q, ownerID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count unsynced: %w", err)
	}
	return n, nil
}

// millis converts t to the unix-millisecond representation stored in the
// timestamp columns. Zero time maps to 0.
func millis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
