package domain

import (
	"context"
	"time"
)

// Highlights are the human-readable lines of a weekly summary.
type Highlights struct {
	Logs   string `json:"logs"`
	Streak string `json:"streak"`
	Gain   string `json:"gain"`
}

// WeeklySummary is one user's rollup for a Monday..Sunday window, unique per
// (UserID, WeekStart, WeekEnd).
type WeeklySummary struct {
	ID                 int64      `json:"id"`
	UserID             int64      `json:"userId"`
	WeekStart          time.Time  `json:"weekStart"`
	WeekEnd            time.Time  `json:"weekEnd"`
	AvgWeight          float64    `json:"avgWeight"`
	ChangeFromLastWeek float64    `json:"changeFromLastWeek"`
	BMIStatus          Zone       `json:"bmiStatus"`
	Streak             int        `json:"streak"`
	Highlights         Highlights `json:"highlights"`
	HasChecked         bool       `json:"hasChecked"`
	CheckedOn          *time.Time `json:"checkedOn"`
	CreatedAt          time.Time  `json:"createdAt"`
}

// SummaryRepository is the port for weekly summary persistence.
type SummaryRepository interface {
	// UpsertWeeklySummary overwrites any summary for the same window and
	// returns the stored row.
	UpsertWeeklySummary(ctx context.Context, s WeeklySummary) (*WeeklySummary, error)
	// ListWeeklySummaries returns the user's summaries, newest week first.
	ListWeeklySummaries(ctx context.Context, userID int64, limit int) ([]WeeklySummary, error)
	MarkSummaryChecked(ctx context.Context, userID, id int64, at time.Time) error
}
