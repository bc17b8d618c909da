package domain

import (
	"context"
	"time"
)

// Achievement records that a user unlocked a catalog milestone. It is unique
// per (UserID, MilestoneKey) and never updated apart from Displayed.
type Achievement struct {
	UserID       int64     `json:"userId"`
	MilestoneKey string    `json:"milestoneKey"`
	AchievedOn   time.Time `json:"achievedOn"`
	Displayed    bool      `json:"displayed"`
}

// AchievementRepository is the port for achievement persistence.
type AchievementRepository interface {
	// CreateAchievement inserts the link if absent and reports whether it was created.
	CreateAchievement(ctx context.Context, a Achievement) (bool, error)
	// ListAchievements returns the user's achievements, oldest first.
	ListAchievements(ctx context.Context, userID int64) ([]Achievement, error)
	MarkAchievementDisplayed(ctx context.Context, userID int64, key string) error
}
