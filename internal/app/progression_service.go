package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"weighttrack/internal/domain"
	"weighttrack/internal/milestone"
)

// Refresh is the derived state after a write: the current streak and the
// milestones unlocked by this pass.
type Refresh struct {
	Streak   domain.StreakState    `json:"streak"`
	Unlocked []milestone.Milestone `json:"unlocked"`
}

// ProgressionService owns every write of the profile streak fields and every
// achievement unlock. All passes for one user are serialized.
type ProgressionService struct {
	obs          domain.ObservationRepository
	profiles     domain.ProfileRepository
	achievements domain.AchievementRepository
	catalog      *milestone.Catalog
	locks        *userLocks
	now          func() time.Time
}

// NewProgressionService creates a ProgressionService evaluating against catalog.
func NewProgressionService(
	obs domain.ObservationRepository,
	profiles domain.ProfileRepository,
	achievements domain.AchievementRepository,
	catalog *milestone.Catalog,
) *ProgressionService {
	return &ProgressionService{
		obs:          obs,
		profiles:     profiles,
		achievements: achievements,
		catalog:      catalog,
		locks:        newUserLocks(),
		now:          time.Now,
	}
}

// Catalog returns the milestone catalog in use.
func (s *ProgressionService) Catalog() *milestone.Catalog {
	return s.catalog
}

// Apply runs write while holding the user's lock, then recomputes the streak
// and evaluates milestones from a fresh read. A nil write only refreshes.
func (s *ProgressionService) Apply(ctx context.Context, userID int64, write func(ctx context.Context) error) (*Refresh, error) {
	unlock := s.locks.lock(userID)
	defer unlock()

	if write != nil {
		if err := write(ctx); err != nil {
			return nil, err
		}
	}
	st, err := s.recomputeStreak(ctx, userID)
	if err != nil {
		return nil, err
	}
	unlocked, err := s.evaluate(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &Refresh{Streak: st, Unlocked: unlocked}, nil
}

// WithUser runs fn while holding the user's lock without refreshing derived
// state. Readers use it to take a consistent snapshot.
func (s *ProgressionService) WithUser(userID int64, fn func() error) error {
	unlock := s.locks.lock(userID)
	defer unlock()
	return fn()
}

// RecomputeStreak recomputes and stores the user's current streak.
func (s *ProgressionService) RecomputeStreak(ctx context.Context, userID int64) (domain.StreakState, error) {
	unlock := s.locks.lock(userID)
	defer unlock()
	return s.recomputeStreak(ctx, userID)
}

// EvaluateMilestones unlocks every milestone the user now satisfies and
// returns the newly created ones.
func (s *ProgressionService) EvaluateMilestones(ctx context.Context, userID int64) ([]milestone.Milestone, error) {
	unlock := s.locks.lock(userID)
	defer unlock()
	return s.evaluate(ctx, userID)
}

// recomputeStreak leaves the stored streak untouched when the user has no
// qualifying check-ins.
func (s *ProgressionService) recomputeStreak(ctx context.Context, userID int64) (domain.StreakState, error) {
	checkIns, err := s.obs.ListObservations(ctx, userID, domain.ObservationFilter{WithWeight: true, CheckedInOnly: true})
	if err != nil {
		return domain.StreakState{}, fmt.Errorf("list check-ins: %w", err)
	}
	st, ok := domain.CurrentStreak(checkIns)
	if !ok {
		p, err := s.profiles.GetProfile(ctx, userID)
		if err != nil || p == nil {
			return domain.StreakState{}, err
		}
		return domain.StreakState{Length: p.Streak, From: p.StreakFrom}, nil
	}
	if err := s.profiles.UpdateStreak(ctx, userID, st); err != nil {
		return domain.StreakState{}, fmt.Errorf("update streak: %w", err)
	}
	return st, nil
}

func (s *ProgressionService) evaluate(ctx context.Context, userID int64) ([]milestone.Milestone, error) {
	p, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	if p == nil {
		p = &domain.Profile{UserID: userID}
	}
	history, err := s.obs.ListObservations(ctx, userID, domain.ObservationFilter{WithWeight: true})
	if err != nil {
		return nil, fmt.Errorf("list observations: %w", err)
	}

	var unlocked []milestone.Milestone
	today := domain.DayOf(s.now())
	for _, m := range s.catalog.Eligible(milestone.NewFacts(*p, history)) {
		created, err := s.achievements.CreateAchievement(ctx, domain.Achievement{
			UserID:       userID,
			MilestoneKey: m.Key,
			AchievedOn:   today,
		})
		if err != nil {
			return unlocked, fmt.Errorf("unlock %s: %w", m.Key, err)
		}
		if created {
			log.Printf("user %d achieved %q", userID, m.Title)
			unlocked = append(unlocked, m)
		}
	}
	return unlocked, nil
}

// SyncTask selects what SyncAll recomputes.
type SyncTask string

// Sync tasks.
const (
	SyncMilestones SyncTask = "milestones"
	SyncBMI        SyncTask = "bmi"
	SyncStreaks    SyncTask = "streaks"
)

// SyncReport counts the users touched by a sync pass.
type SyncReport struct {
	Users      int `json:"users"`
	Unlocked   int `json:"unlocked"`
	BMIUpdated int `json:"bmiUpdated"`
}

// SyncAll runs the selected tasks for every user with a profile; an empty
// task list runs all of them. BMI backfill runs first so that milestones see
// fresh values.
func (s *ProgressionService) SyncAll(ctx context.Context, tasks ...SyncTask) (*SyncReport, error) {
	want := func(t SyncTask) bool {
		if len(tasks) == 0 {
			return true
		}
		for _, v := range tasks {
			if v == t {
				return true
			}
		}
		return false
	}

	ids, err := s.profiles.ListProfileUserIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	rep := &SyncReport{Users: len(ids)}
	for _, id := range ids {
		if want(SyncBMI) {
			n, err := s.RecomputeBMIs(ctx, id)
			if err != nil {
				return rep, err
			}
			rep.BMIUpdated += n
		}
		if want(SyncStreaks) {
			if _, err := s.RecomputeStreak(ctx, id); err != nil {
				return rep, err
			}
		}
		if want(SyncMilestones) {
			unlocked, err := s.EvaluateMilestones(ctx, id)
			if err != nil {
				return rep, err
			}
			rep.Unlocked += len(unlocked)
		}
	}
	return rep, nil
}

// RecomputeBMIs re-derives the BMI of every weighed observation from the
// profile's current height and returns how many were written.
func (s *ProgressionService) RecomputeBMIs(ctx context.Context, userID int64) (int, error) {
	unlock := s.locks.lock(userID)
	defer unlock()
	return s.recomputeBMIs(ctx, userID)
}

func (s *ProgressionService) recomputeBMIs(ctx context.Context, userID int64) (int, error) {
	p, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("get profile: %w", err)
	}
	if p == nil || p.HeightCM <= 0 {
		return 0, nil
	}
	history, err := s.obs.ListObservations(ctx, userID, domain.ObservationFilter{WithWeight: true})
	if err != nil {
		return 0, fmt.Errorf("list observations: %w", err)
	}
	for i := range history {
		history[i].RefreshBMI(p.HeightCM)
	}
	if err := s.obs.UpdateBMIs(ctx, userID, history); err != nil {
		return 0, fmt.Errorf("update bmis: %w", err)
	}
	return len(history), nil
}
