package domain

import (
	"context"
	"errors"
	"time"
)

// ErrInvalidHeight indicates a non-positive height.
var ErrInvalidHeight = errors.New("height must be > 0")

// Profile holds per-user biometric settings and the derived streak state.
// Streak and StreakFrom are always written together.
type Profile struct {
	UserID       int64      `json:"userId"`
	HeightCM     float64    `json:"heightCm"`
	TargetWeight *float64   `json:"targetWeight"`
	BirthDate    *time.Time `json:"birthDate"`
	Gender       string     `json:"gender"`
	Streak       int        `json:"streak"`
	StreakFrom   *time.Time `json:"streakFrom"`
}

// ProfileRepository is the port for profile persistence.
type ProfileRepository interface {
	// GetProfile returns nil when the user has no profile yet.
	GetProfile(ctx context.Context, userID int64) (*Profile, error)
	// SaveProfile writes the biometric fields; streak fields are left untouched.
	SaveProfile(ctx context.Context, p Profile) error
	UpdateStreak(ctx context.Context, userID int64, s StreakState) error
	// ListProfileUserIDs returns every user that has a profile, ascending.
	ListProfileUserIDs(ctx context.Context) ([]int64, error)
}
