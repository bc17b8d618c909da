package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"weighttrack/internal/domain"
)

const observationColumns = "id, user_id, day, weight, note, checked_in, checked_in_at, bmi"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanObservation(r rowScanner) (*domain.Observation, error) {
	var (
		o           domain.Observation
		weight, bmi sql.NullFloat64
		checkedAt   sql.NullTime
	)
	if err := r.Scan(&o.ID, &o.UserID, &o.Date, &weight, &o.Note, &o.CheckedIn, &checkedAt, &bmi); err != nil {
		return nil, err
	}
	o.Date = domain.DayOf(o.Date)
	o.Weight = floatPtr(weight)
	o.BMI = floatPtr(bmi)
	o.CheckedInAt = timePtr(checkedAt)
	return &o, nil
}

// SaveObservation upserts by (user_id, day) and returns the stored row.
func (d *DB) SaveObservation(ctx context.Context, o domain.Observation) (*domain.Observation, error) {
	row := d.sql.QueryRowContext(ctx,
		`INSERT INTO observations (user_id, day, weight, note, checked_in, checked_in_at, bmi)
		 VALUES ($1, $2::date, $3, $4, $5, $6, $7)
		 ON CONFLICT (user_id, day) DO UPDATE SET
		   weight = EXCLUDED.weight,
		   note = EXCLUDED.note,
		   checked_in = EXCLUDED.checked_in,
		   checked_in_at = EXCLUDED.checked_in_at,
		   bmi = EXCLUDED.bmi
		 RETURNING `+observationColumns,
		o.UserID, dayParam(o.Date), nullFloat(o.Weight), o.Note, o.CheckedIn, nullTime(o.CheckedInAt), nullFloat(o.BMI),
	)
	return scanObservation(row)
}

// GetObservation returns domain.ErrNotFound unless id belongs to userID.
func (d *DB) GetObservation(ctx context.Context, userID, id int64) (*domain.Observation, error) {
	row := d.sql.QueryRowContext(ctx,
		"SELECT "+observationColumns+" FROM observations WHERE user_id = $1 AND id = $2", userID, id)
	o, err := scanObservation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return o, err
}

// GetObservationForDay returns the observation for day, or nil.
func (d *DB) GetObservationForDay(ctx context.Context, userID int64, day time.Time) (*domain.Observation, error) {
	row := d.sql.QueryRowContext(ctx,
		"SELECT "+observationColumns+" FROM observations WHERE user_id = $1 AND day = $2::date", userID, dayParam(day))
	o, err := scanObservation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return o, err
}

// DeleteObservation removes the observation and reports whether it existed.
func (d *DB) DeleteObservation(ctx context.Context, userID, id int64) (bool, error) {
	res, err := d.sql.ExecContext(ctx, "DELETE FROM observations WHERE user_id = $1 AND id = $2", userID, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// ListObservations returns the user's matching observations by date.
func (d *DB) ListObservations(ctx context.Context, userID int64, f domain.ObservationFilter) ([]domain.Observation, error) {
	where := []string{"user_id = $1"}
	args := []any{userID}
	if !f.From.IsZero() {
		args = append(args, dayParam(f.From))
		where = append(where, fmt.Sprintf("day >= $%d::date", len(args)))
	}
	if !f.To.IsZero() {
		args = append(args, dayParam(f.To))
		where = append(where, fmt.Sprintf("day <= $%d::date", len(args)))
	}
	if f.WithWeight {
		where = append(where, "weight IS NOT NULL")
	}
	if f.CheckedInOnly {
		where = append(where, "checked_in")
	}

	rows, err := d.sql.QueryContext(ctx,
		"SELECT "+observationColumns+" FROM observations WHERE "+strings.Join(where, " AND ")+" ORDER BY day",
		args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Observation
	for rows.Next() {
		o, err := scanObservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

// UpdateBMIs rewrites the bmi column of the given rows in one statement.
func (d *DB) UpdateBMIs(ctx context.Context, userID int64, obs []domain.Observation) error {
	if len(obs) == 0 {
		return nil
	}
	ids := make([]int64, len(obs))
	bmis := make([]sql.NullFloat64, len(obs))
	for i, o := range obs {
		ids[i] = o.ID
		bmis[i] = nullFloat(o.BMI)
	}
	_, err := d.sql.ExecContext(ctx,
		`UPDATE observations AS o SET bmi = u.bmi
		 FROM unnest($2::bigint[], $3::double precision[]) AS u(id, bmi)
		 WHERE o.id = u.id AND o.user_id = $1`,
		userID, pq.Array(ids), pq.Array(bmis),
	)
	return err
}
