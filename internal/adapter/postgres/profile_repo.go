package postgres

import (
	"context"
	"database/sql"
	"errors"

	"weighttrack/internal/domain"
)

// GetProfile returns the user's profile, or nil.
func (d *DB) GetProfile(ctx context.Context, userID int64) (*domain.Profile, error) {
	var (
		p          domain.Profile
		target     sql.NullFloat64
		birth      sql.NullTime
		streakFrom sql.NullTime
	)
	err := d.sql.QueryRowContext(ctx,
		"SELECT user_id, height_cm, target_weight, birth_date, gender, streak, streak_from FROM profiles WHERE user_id = $1",
		userID,
	).Scan(&p.UserID, &p.HeightCM, &target, &birth, &p.Gender, &p.Streak, &streakFrom)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	p.TargetWeight = floatPtr(target)
	if birth.Valid {
		day := domain.DayOf(birth.Time)
		p.BirthDate = &day
	}
	p.StreakFrom = timePtr(streakFrom)
	return &p, nil
}

// SaveProfile upserts the biometric fields; the streak columns are left alone.
func (d *DB) SaveProfile(ctx context.Context, p domain.Profile) error {
	var birth any
	if p.BirthDate != nil {
		birth = dayParam(*p.BirthDate)
	}
	_, err := d.sql.ExecContext(ctx,
		`INSERT INTO profiles (user_id, height_cm, target_weight, birth_date, gender)
		 VALUES ($1, $2, $3, $4::date, $5)
		 ON CONFLICT (user_id) DO UPDATE SET
		   height_cm = EXCLUDED.height_cm,
		   target_weight = EXCLUDED.target_weight,
		   birth_date = EXCLUDED.birth_date,
		   gender = EXCLUDED.gender`,
		p.UserID, p.HeightCM, nullFloat(p.TargetWeight), birth, p.Gender,
	)
	return err
}

// UpdateStreak writes both streak columns in one statement.
func (d *DB) UpdateStreak(ctx context.Context, userID int64, s domain.StreakState) error {
	_, err := d.sql.ExecContext(ctx,
		`INSERT INTO profiles (user_id, streak, streak_from) VALUES ($1, $2, $3)
		 ON CONFLICT (user_id) DO UPDATE SET streak = EXCLUDED.streak, streak_from = EXCLUDED.streak_from`,
		userID, s.Length, nullTime(s.From),
	)
	return err
}

// ListProfileUserIDs returns every user with a profile, ascending.
func (d *DB) ListProfileUserIDs(ctx context.Context) ([]int64, error) {
	rows, err := d.sql.QueryContext(ctx, "SELECT user_id FROM profiles ORDER BY user_id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
