package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"weighttrack/internal/domain"
)

const summaryColumns = "id, user_id, week_start, week_end, avg_weight, change_from_last_week, bmi_status, streak, highlights, has_checked, checked_on, created_at"

func scanSummary(r rowScanner) (*domain.WeeklySummary, error) {
	var (
		s          domain.WeeklySummary
		status     string
		highlights []byte
		checkedOn  sql.NullTime
	)
	err := r.Scan(&s.ID, &s.UserID, &s.WeekStart, &s.WeekEnd, &s.AvgWeight, &s.ChangeFromLastWeek,
		&status, &s.Streak, &highlights, &s.HasChecked, &checkedOn, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(highlights, &s.Highlights); err != nil {
		return nil, fmt.Errorf("decode highlights: %w", err)
	}
	s.WeekStart, s.WeekEnd = domain.DayOf(s.WeekStart), domain.DayOf(s.WeekEnd)
	s.BMIStatus = domain.Zone(status)
	s.CheckedOn = timePtr(checkedOn)
	return &s, nil
}

// UpsertWeeklySummary overwrites the row for the same window in place and
// clears its review flag.
func (d *DB) UpsertWeeklySummary(ctx context.Context, s domain.WeeklySummary) (*domain.WeeklySummary, error) {
	highlights, err := json.Marshal(s.Highlights)
	if err != nil {
		return nil, err
	}
	row := d.sql.QueryRowContext(ctx,
		`INSERT INTO weekly_summaries
		   (user_id, week_start, week_end, avg_weight, change_from_last_week, bmi_status, streak, highlights, has_checked, checked_on, created_at)
		 VALUES ($1, $2::date, $3::date, $4, $5, $6, $7, $8, FALSE, NULL, $9)
		 ON CONFLICT (user_id, week_start, week_end) DO UPDATE SET
		   avg_weight = EXCLUDED.avg_weight,
		   change_from_last_week = EXCLUDED.change_from_last_week,
		   bmi_status = EXCLUDED.bmi_status,
		   streak = EXCLUDED.streak,
		   highlights = EXCLUDED.highlights,
		   has_checked = FALSE,
		   checked_on = NULL,
		   created_at = EXCLUDED.created_at
		 RETURNING `+summaryColumns,
		s.UserID, dayParam(s.WeekStart), dayParam(s.WeekEnd), s.AvgWeight, s.ChangeFromLastWeek,
		string(s.BMIStatus), s.Streak, highlights, s.CreatedAt.UTC(),
	)
	return scanSummary(row)
}

// ListWeeklySummaries returns up to limit summaries, newest week first.
func (d *DB) ListWeeklySummaries(ctx context.Context, userID int64, limit int) ([]domain.WeeklySummary, error) {
	if limit <= 0 {
		limit = 52
	}
	rows, err := d.sql.QueryContext(ctx,
		"SELECT "+summaryColumns+" FROM weekly_summaries WHERE user_id = $1 ORDER BY week_start DESC LIMIT $2",
		userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.WeeklySummary, 0, limit)
	for rows.Next() {
		s, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

// MarkSummaryChecked records that the user reviewed the summary.
func (d *DB) MarkSummaryChecked(ctx context.Context, userID, id int64, at time.Time) error {
	res, err := d.sql.ExecContext(ctx,
		"UPDATE weekly_summaries SET has_checked = TRUE, checked_on = $3 WHERE user_id = $1 AND id = $2",
		userID, id, at.UTC())
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
