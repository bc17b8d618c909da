package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"weighttrack/internal/domain"
)

// DB wraps a *sql.DB and implements domain repository interfaces.
type DB struct {
	sql *sql.DB
}

// Pool sizes the connection pool. Zero fields take the defaults.
type Pool struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Ensure interfaces are met.
var _ domain.UserRepository = (*DB)(nil)
var _ domain.ProfileRepository = (*DB)(nil)
var _ domain.ObservationRepository = (*DB)(nil)
var _ domain.AchievementRepository = (*DB)(nil)
var _ domain.SummaryRepository = (*DB)(nil)

// Open connects to PostgreSQL, pings, and runs migrations.
func Open(connStr string, pool Pool) (*DB, error) {
	s, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}
	s.SetMaxOpenConns(orDefault(pool.MaxOpenConns, 10))
	s.SetMaxIdleConns(orDefault(pool.MaxIdleConns, 5))
	s.SetConnMaxLifetime(orDefault(pool.ConnMaxLifetime, 5*time.Minute))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.PingContext(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}

	d := &DB{sql: s}
	if err := d.migrate(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return d, nil
}

func orDefault[T comparable](v, def T) T {
	var zero T
	if v == zero {
		return def
	}
	return v
}

// Close closes the underlying database connection.
func (d *DB) Close() error {
	return d.sql.Close()
}

// Ping checks that the database still answers.
func (d *DB) Ping(ctx context.Context) error {
	return d.sql.PingContext(ctx)
}

func (d *DB) migrate(ctx context.Context) error {
	stmts := []string{
		"CREATE TABLE IF NOT EXISTS users (id BIGSERIAL PRIMARY KEY, username TEXT UNIQUE NOT NULL, created_at TIMESTAMPTZ NOT NULL);",
		`CREATE TABLE IF NOT EXISTS profiles (
			user_id BIGINT PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
			height_cm DOUBLE PRECISION NOT NULL DEFAULT 0,
			target_weight DOUBLE PRECISION,
			birth_date DATE,
			gender TEXT NOT NULL DEFAULT '',
			streak INTEGER NOT NULL DEFAULT 0,
			streak_from TIMESTAMPTZ
		);`,
		`CREATE TABLE IF NOT EXISTS observations (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			day DATE NOT NULL,
			weight DOUBLE PRECISION CHECK (weight > 0),
			note TEXT NOT NULL DEFAULT '',
			checked_in BOOLEAN NOT NULL DEFAULT FALSE,
			checked_in_at TIMESTAMPTZ,
			bmi DOUBLE PRECISION,
			UNIQUE (user_id, day)
		);`,
		`CREATE TABLE IF NOT EXISTS achievements (
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			milestone_key TEXT NOT NULL,
			achieved_on DATE NOT NULL,
			displayed BOOLEAN NOT NULL DEFAULT FALSE,
			PRIMARY KEY (user_id, milestone_key)
		);`,
		`CREATE TABLE IF NOT EXISTS weekly_summaries (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			week_start DATE NOT NULL,
			week_end DATE NOT NULL,
			avg_weight DOUBLE PRECISION NOT NULL,
			change_from_last_week DOUBLE PRECISION NOT NULL,
			bmi_status TEXT NOT NULL DEFAULT '',
			streak INTEGER NOT NULL DEFAULT 0,
			highlights JSONB NOT NULL DEFAULT '{}',
			has_checked BOOLEAN NOT NULL DEFAULT FALSE,
			checked_on TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL,
			UNIQUE (user_id, week_start, week_end)
		);`,
		"CREATE INDEX IF NOT EXISTS idx_observations_user_day ON observations(user_id, day);",
		"CREATE INDEX IF NOT EXISTS idx_weekly_summaries_user_week ON weekly_summaries(user_id, week_start DESC);",
	}

	for _, stmt := range stmts {
		if _, err := d.sql.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// dayParam renders a calendar day for a DATE column without a timezone shift.
func dayParam(t time.Time) string {
	return domain.DayOf(t).Format(domain.DayLayout)
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func timePtr(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}
