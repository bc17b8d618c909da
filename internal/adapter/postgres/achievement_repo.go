package postgres

import (
	"context"

	"weighttrack/internal/domain"
)

// CreateAchievement inserts the link unless it exists; the primary key makes
// concurrent duplicates a no-op.
func (d *DB) CreateAchievement(ctx context.Context, a domain.Achievement) (bool, error) {
	res, err := d.sql.ExecContext(ctx,
		`INSERT INTO achievements (user_id, milestone_key, achieved_on, displayed)
		 VALUES ($1, $2, $3::date, $4)
		 ON CONFLICT (user_id, milestone_key) DO NOTHING`,
		a.UserID, a.MilestoneKey, dayParam(a.AchievedOn), a.Displayed,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

// ListAchievements returns the user's achievements, oldest first.
func (d *DB) ListAchievements(ctx context.Context, userID int64) ([]domain.Achievement, error) {
	rows, err := d.sql.QueryContext(ctx,
		"SELECT user_id, milestone_key, achieved_on, displayed FROM achievements WHERE user_id = $1 ORDER BY achieved_on, milestone_key",
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Achievement
	for rows.Next() {
		var a domain.Achievement
		if err := rows.Scan(&a.UserID, &a.MilestoneKey, &a.AchievedOn, &a.Displayed); err != nil {
			return nil, err
		}
		a.AchievedOn = domain.DayOf(a.AchievedOn)
		out = append(out, a)
	}
	return out, rows.Err()
}

// MarkAchievementDisplayed flags the achievement as shown.
func (d *DB) MarkAchievementDisplayed(ctx context.Context, userID int64, key string) error {
	res, err := d.sql.ExecContext(ctx,
		"UPDATE achievements SET displayed = TRUE WHERE user_id = $1 AND milestone_key = $2", userID, key)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
