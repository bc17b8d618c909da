package app

import (
	"context"
	"errors"
	"time"

	"weighttrack/internal/domain"
	"weighttrack/internal/insights"
	"weighttrack/internal/milestone"
)

// recentEntries is how many observations the dashboard lists.
const recentEntries = 5

// InsightsService assembles read-only views over a user's history.
type InsightsService struct {
	obs          domain.ObservationRepository
	profiles     domain.ProfileRepository
	achievements domain.AchievementRepository
	catalog      *milestone.Catalog
	now          func() time.Time
}

// NewInsightsService creates an InsightsService.
func NewInsightsService(
	obs domain.ObservationRepository,
	profiles domain.ProfileRepository,
	achievements domain.AchievementRepository,
	catalog *milestone.Catalog,
) *InsightsService {
	return &InsightsService{obs: obs, profiles: profiles, achievements: achievements, catalog: catalog, now: time.Now}
}

// Dashboard is the landing view.
type Dashboard struct {
	Latest       *domain.Observation  `json:"latest"`
	BMI          *domain.BMI          `json:"bmi"`
	TargetWeight *float64             `json:"targetWeight"`
	Progress     insights.Progress    `json:"progress"`
	Recent       []domain.Observation `json:"recent"`
	Trend        insights.TrendLine   `json:"trend"`
	Changes      []insights.Change    `json:"changes"`
	Streak       int                  `json:"streak"`
	CheckedInAt  *time.Time           `json:"checkedInAt"`
}

// Dashboard returns the latest reading with its BMI zone, goal progress and
// recent history.
func (s *InsightsService) Dashboard(ctx context.Context, userID int64) (*Dashboard, error) {
	p, err := s.profile(ctx, userID)
	if err != nil {
		return nil, err
	}
	history, err := s.obs.ListObservations(ctx, userID, domain.ObservationFilter{WithWeight: true})
	if err != nil {
		return nil, err
	}

	d := &Dashboard{
		TargetWeight: p.TargetWeight,
		Progress:     insights.ComputeProgress(history, p.TargetWeight),
		Recent:       newestFirst(history, recentEntries),
		Trend:        insights.Trend(history, insights.Window{}),
		Changes:      insights.DailyChanges(history),
		Streak:       p.Streak,
	}
	if n := len(history); n > 0 {
		latest := history[n-1]
		d.Latest = &latest
		if b, err := domain.CalculateBMI(*latest.Weight, p.HeightCM); err == nil {
			d.BMI = &b
		}
	}

	today, err := s.obs.GetObservationForDay(ctx, userID, domain.DayOf(s.now()))
	if err != nil {
		return nil, err
	}
	if today != nil && today.CheckedIn {
		d.CheckedInAt = today.CheckedInAt
	}
	return d, nil
}

// EarnedMilestone pairs an achievement with its catalog entry.
type EarnedMilestone struct {
	milestone.Milestone
	AchievedOn time.Time `json:"achievedOn"`
	Displayed  bool      `json:"displayed"`
}

// Analytics is the long-range statistics view.
type Analytics struct {
	Trend             insights.TrendLine        `json:"trend"`
	Changes           []insights.Change         `json:"changes"`
	Monthly           []insights.MonthlyAverage `json:"monthly"`
	Zones             []insights.ZoneCount      `json:"zones"`
	Streak            int                       `json:"streak"`
	FastestDrop       *insights.Drop            `json:"fastestDrop"`
	LatestAchievement *EarnedMilestone          `json:"latestAchievement"`
}

// Analytics returns the full statistics view.
func (s *InsightsService) Analytics(ctx context.Context, userID int64) (*Analytics, error) {
	p, err := s.profile(ctx, userID)
	if err != nil {
		return nil, err
	}
	history, err := s.obs.ListObservations(ctx, userID, domain.ObservationFilter{WithWeight: true})
	if err != nil {
		return nil, err
	}
	earned, err := s.Achievements(ctx, userID)
	if err != nil {
		return nil, err
	}

	a := &Analytics{
		Trend:       insights.Trend(history, insights.Window{}),
		Changes:     insights.DailyChanges(history),
		Monthly:     insights.MonthlyAverages(history),
		Zones:       insights.ZoneHistogram(history),
		Streak:      p.Streak,
		FastestDrop: insights.FastestDrop(history),
	}
	if n := len(earned); n > 0 {
		a.LatestAchievement = &earned[n-1]
	}
	return a, nil
}

// Trend returns the weight series inside w converted to unit ("kg" or "lb").
func (s *InsightsService) Trend(ctx context.Context, userID int64, w insights.Window, unit string) (insights.TrendLine, error) {
	if unit != "kg" && unit != "lb" {
		return insights.TrendLine{}, errors.New("unit must be \"kg\" or \"lb\"")
	}
	history, err := s.obs.ListObservations(ctx, userID, domain.ObservationFilter{WithWeight: true})
	if err != nil {
		return insights.TrendLine{}, err
	}
	line := insights.Trend(history, w)
	if unit != "kg" {
		for i, v := range line.Weights {
			line.Weights[i] = domain.Round(domain.ConvertWeight(v, "kg", unit), 1)
		}
	}
	return line, nil
}

// Achievements returns the user's unlocked milestones, oldest first.
// Achievements whose key left the catalog are skipped.
func (s *InsightsService) Achievements(ctx context.Context, userID int64) ([]EarnedMilestone, error) {
	list, err := s.achievements.ListAchievements(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]EarnedMilestone, 0, len(list))
	for _, a := range list {
		m, ok := s.catalog.Lookup(a.MilestoneKey)
		if !ok {
			continue
		}
		out = append(out, EarnedMilestone{Milestone: m, AchievedOn: a.AchievedOn, Displayed: a.Displayed})
	}
	return out, nil
}

// MarkDisplayed flags an achievement as shown to the user.
func (s *InsightsService) MarkDisplayed(ctx context.Context, userID int64, key string) error {
	if _, ok := s.catalog.Lookup(key); !ok {
		return domain.ErrNotFound
	}
	return s.achievements.MarkAchievementDisplayed(ctx, userID, key)
}

func (s *InsightsService) profile(ctx context.Context, userID int64) (*domain.Profile, error) {
	p, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		p = &domain.Profile{UserID: userID}
	}
	return p, nil
}
