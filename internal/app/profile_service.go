package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"weighttrack/internal/domain"
)

// ProfileService manages biometric settings.
type ProfileService struct {
	profiles domain.ProfileRepository
	progress *ProgressionService
}

// NewProfileService creates a ProfileService.
func NewProfileService(profiles domain.ProfileRepository, progress *ProgressionService) *ProfileService {
	return &ProfileService{profiles: profiles, progress: progress}
}

// ProfileInput is the editable part of a profile.
type ProfileInput struct {
	HeightCM     float64    `json:"heightCm"`
	TargetWeight *float64   `json:"targetWeight"`
	BirthDate    *time.Time `json:"birthDate"`
	Gender       string     `json:"gender"`
}

// Get returns the user's profile; a user without one gets an empty profile.
func (s *ProfileService) Get(ctx context.Context, userID int64) (*domain.Profile, error) {
	p, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		p = &domain.Profile{UserID: userID}
	}
	return p, nil
}

// Update stores the profile. A height change re-derives every stored BMI and
// the milestones are re-evaluated against the new height and target.
func (s *ProfileService) Update(ctx context.Context, userID int64, in ProfileInput) (*domain.Profile, *Refresh, error) {
	if !domain.ValidMeasure(in.HeightCM) {
		return nil, nil, domain.ErrInvalidHeight
	}
	if in.TargetWeight != nil && !domain.ValidMeasure(*in.TargetWeight) {
		return nil, nil, fmt.Errorf("target %w", domain.ErrInvalidWeight)
	}

	var saved *domain.Profile
	refresh, err := s.progress.Apply(ctx, userID, func(ctx context.Context) error {
		cur, err := s.Get(ctx, userID)
		if err != nil {
			return err
		}
		heightChanged := cur.HeightCM != in.HeightCM

		next := *cur
		next.HeightCM = in.HeightCM
		next.TargetWeight = in.TargetWeight
		next.BirthDate = in.BirthDate
		next.Gender = strings.TrimSpace(in.Gender)
		if err := s.profiles.SaveProfile(ctx, next); err != nil {
			return fmt.Errorf("save profile: %w", err)
		}
		if heightChanged {
			if _, err := s.progress.recomputeBMIs(ctx, userID); err != nil {
				return err
			}
		}
		saved = &next
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	saved.Streak, saved.StreakFrom = refresh.Streak.Length, refresh.Streak.From
	return saved, refresh, nil
}
