package app

import (
	"context"
	"fmt"
	"time"

	"weighttrack/internal/domain"
)

// WeightService encapsulates weight-logging use cases. Every write goes
// through the progression service so streaks and milestones follow it.
type WeightService struct {
	obs      domain.ObservationRepository
	profiles domain.ProfileRepository
	progress *ProgressionService
	now      func() time.Time
}

// NewWeightService creates a WeightService backed by the given repositories.
func NewWeightService(obs domain.ObservationRepository, profiles domain.ProfileRepository, progress *ProgressionService) *WeightService {
	return &WeightService{obs: obs, profiles: profiles, progress: progress, now: time.Now}
}

// LogInput describes one write to a day's observation. A nil Weight or Note
// leaves the stored value as is; a zero Day means today.
type LogInput struct {
	Day     time.Time
	Weight  *float64
	Note    *string
	CheckIn bool
}

// LogResult is the stored observation plus the derived state it produced.
type LogResult struct {
	Observation *domain.Observation `json:"observation"`
	Refresh     *Refresh            `json:"refresh"`
}

// Log upserts the observation for the input's day.
func (s *WeightService) Log(ctx context.Context, userID int64, in LogInput) (*LogResult, error) {
	if in.Weight != nil && !domain.ValidMeasure(*in.Weight) {
		return nil, domain.ErrInvalidWeight
	}
	day := in.Day
	if day.IsZero() {
		day = s.now()
	}
	day = domain.DayOf(day)

	var saved *domain.Observation
	refresh, err := s.progress.Apply(ctx, userID, func(ctx context.Context) error {
		height, err := s.heightOf(ctx, userID)
		if err != nil {
			return err
		}
		o, err := s.obs.GetObservationForDay(ctx, userID, day)
		if err != nil {
			return fmt.Errorf("get observation: %w", err)
		}
		if o == nil {
			o = &domain.Observation{UserID: userID, Date: day}
		}
		if in.Weight != nil {
			o.SetWeight(in.Weight, height)
		}
		if in.Note != nil {
			o.Note = *in.Note
		}
		if in.CheckIn {
			at := s.now()
			o.CheckedIn = true
			o.CheckedInAt = &at
		}
		saved, err = s.obs.SaveObservation(ctx, *o)
		if err != nil {
			return fmt.Errorf("save observation: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &LogResult{Observation: saved, Refresh: refresh}, nil
}

// CheckIn marks today as checked in, recording weight when given.
func (s *WeightService) CheckIn(ctx context.Context, userID int64, weight *float64, note *string) (*LogResult, error) {
	return s.Log(ctx, userID, LogInput{Weight: weight, Note: note, CheckIn: true})
}

// Edit changes the weight or note of an existing observation. A nil weight
// leaves it unchanged; use ClearWeight to null it.
func (s *WeightService) Edit(ctx context.Context, userID, id int64, weight *float64, note *string) (*LogResult, error) {
	if weight != nil && !domain.ValidMeasure(*weight) {
		return nil, domain.ErrInvalidWeight
	}
	var saved *domain.Observation
	refresh, err := s.progress.Apply(ctx, userID, func(ctx context.Context) error {
		o, err := s.obs.GetObservation(ctx, userID, id)
		if err != nil {
			return err
		}
		if weight != nil {
			height, err := s.heightOf(ctx, userID)
			if err != nil {
				return err
			}
			o.SetWeight(weight, height)
		}
		if note != nil {
			o.Note = *note
		}
		saved, err = s.obs.SaveObservation(ctx, *o)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &LogResult{Observation: saved, Refresh: refresh}, nil
}

// ClearWeight sets an observation's weight to null, which also drops its BMI.
func (s *WeightService) ClearWeight(ctx context.Context, userID, id int64) (*LogResult, error) {
	var saved *domain.Observation
	refresh, err := s.progress.Apply(ctx, userID, func(ctx context.Context) error {
		o, err := s.obs.GetObservation(ctx, userID, id)
		if err != nil {
			return err
		}
		o.SetWeight(nil, 0)
		saved, err = s.obs.SaveObservation(ctx, *o)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &LogResult{Observation: saved, Refresh: refresh}, nil
}

// Delete removes an observation. It reports ErrNotFound when nothing matched.
func (s *WeightService) Delete(ctx context.Context, userID, id int64) (*Refresh, error) {
	return s.progress.Apply(ctx, userID, func(ctx context.Context) error {
		deleted, err := s.obs.DeleteObservation(ctx, userID, id)
		if err != nil {
			return err
		}
		if !deleted {
			return domain.ErrNotFound
		}
		return nil
	})
}

// GetToday returns today's observation, or nil when none exists.
func (s *WeightService) GetToday(ctx context.Context, userID int64) (*domain.Observation, error) {
	return s.obs.GetObservationForDay(ctx, userID, domain.DayOf(s.now()))
}

// ListRecent returns up to limit observations, newest first.
func (s *WeightService) ListRecent(ctx context.Context, userID int64, limit int) ([]domain.Observation, error) {
	all, err := s.obs.ListObservations(ctx, userID, domain.ObservationFilter{})
	if err != nil {
		return nil, err
	}
	return newestFirst(all, limit), nil
}

// List returns the observations matching f in date order.
func (s *WeightService) List(ctx context.Context, userID int64, f domain.ObservationFilter) ([]domain.Observation, error) {
	return s.obs.ListObservations(ctx, userID, f)
}

// heightOf returns the user's height, creating an empty profile on first use.
func (s *WeightService) heightOf(ctx context.Context, userID int64) (float64, error) {
	p, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("get profile: %w", err)
	}
	if p == nil {
		// Batch jobs enumerate users by profile.
		if err := s.profiles.SaveProfile(ctx, domain.Profile{UserID: userID}); err != nil {
			return 0, fmt.Errorf("create profile: %w", err)
		}
		return 0, nil
	}
	return p.HeightCM, nil
}

// newestFirst reverses an ascending slice and keeps at most limit entries.
func newestFirst(obs []domain.Observation, limit int) []domain.Observation {
	n := len(obs)
	if limit > 0 && n > limit {
		n = limit
	}
	out := make([]domain.Observation, 0, n)
	for i := len(obs) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, obs[i])
	}
	return out
}
