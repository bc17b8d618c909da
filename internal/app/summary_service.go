package app

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"weighttrack/internal/domain"
)

// noGains is the gain highlight of a week without any increase.
const noGains = "No gains this week!"

// LastCompletedWeek returns the Monday..Sunday window ending on the most
// recent Sunday strictly before today.
func LastCompletedWeek(today time.Time) (start, end time.Time) {
	today = domain.DayOf(today)
	back := int(today.Weekday())
	if back == 0 {
		back = 7
	}
	end = today.AddDate(0, 0, -back)
	return end.AddDate(0, 0, -6), end
}

// BuildSummary rolls up one week of observations. prev holds the prior
// week's observations. It reports false when week has nothing to summarize.
func BuildSummary(userID int64, start, end time.Time, week, prev []domain.Observation) (*domain.WeeklySummary, bool) {
	weights := domain.Weights(week)
	if len(week) == 0 || len(weights) == 0 {
		return nil, false
	}
	avg := mean(weights)
	prevAvg := avg
	if pw := domain.Weights(prev); len(pw) > 0 {
		prevAvg = mean(pw)
	}

	var status domain.Zone
	for i := len(week) - 1; i >= 0; i-- {
		if week[i].BMI != nil {
			status = domain.ClassifyBMI(*week[i].BMI)
			break
		}
	}

	run := domain.LongestDailyRun(week)
	return &domain.WeeklySummary{
		UserID:             userID,
		WeekStart:          start,
		WeekEnd:            end,
		AvgWeight:          domain.Round(avg, 2),
		ChangeFromLastWeek: domain.Round(avg-prevAvg, 2),
		BMIStatus:          status,
		Streak:             run,
		Highlights: domain.Highlights{
			Logs:   fmt.Sprintf("You logged weight %d times this week.", len(week)),
			Streak: fmt.Sprintf("Your longest streak: %d days in a row.", run),
			Gain:   gains(week),
		},
	}, true
}

func gains(week []domain.Observation) string {
	var parts []string
	var prev *float64
	for _, o := range week {
		if o.Weight == nil {
			continue
		}
		if prev != nil {
			// Gains that round to 0.0 are noise.
			if diff := domain.Round(*o.Weight-*prev, 1); diff > 0 {
				parts = append(parts, fmt.Sprintf("You gained %.1f kg on %s", diff, o.Date.Weekday()))
			}
		}
		prev = o.Weight
	}
	if len(parts) == 0 {
		return noGains
	}
	return strings.Join(parts, ", ")
}

func mean(vs []float64) float64 {
	var sum float64
	for _, v := range vs {
		sum += v
	}
	return sum / float64(len(vs))
}

// SummaryReport is the outcome of one generator run.
type SummaryReport struct {
	mu sync.Mutex

	WeekStart time.Time        `json:"weekStart"`
	WeekEnd   time.Time        `json:"weekEnd"`
	Generated int              `json:"generated"`
	Skipped   int              `json:"skipped"`
	Failed    int              `json:"failed"`
	Errors    map[int64]string `json:"errors,omitempty"`
}

func (r *SummaryReport) record(userID int64, generated bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch {
	case err != nil:
		r.Failed++
		if r.Errors == nil {
			r.Errors = make(map[int64]string)
		}
		r.Errors[userID] = err.Error()
	case generated:
		r.Generated++
	default:
		r.Skipped++
	}
}

// SummaryService generates and serves weekly summaries.
type SummaryService struct {
	obs       domain.ObservationRepository
	profiles  domain.ProfileRepository
	summaries domain.SummaryRepository
	progress  *ProgressionService
	workers   int
	now       func() time.Time
}

// NewSummaryService creates a SummaryService processing up to workers users
// concurrently.
func NewSummaryService(
	obs domain.ObservationRepository,
	profiles domain.ProfileRepository,
	summaries domain.SummaryRepository,
	progress *ProgressionService,
	workers int,
) *SummaryService {
	if workers < 1 {
		workers = 1
	}
	return &SummaryService{obs: obs, profiles: profiles, summaries: summaries, progress: progress, workers: workers, now: time.Now}
}

// Run generates summaries for the last completed week.
func (s *SummaryService) Run(ctx context.Context) (*SummaryReport, error) {
	start, end := LastCompletedWeek(s.now())
	return s.RunWindow(ctx, start, end)
}

// RunWindow generates summaries for every user over [start, end]. A failing
// user is recorded in the report and the run continues; only a failure to
// enumerate users aborts it.
func (s *SummaryService) RunWindow(ctx context.Context, start, end time.Time) (*SummaryReport, error) {
	ids, err := s.profiles.ListProfileUserIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	rep := &SummaryReport{WeekStart: start, WeekEnd: end}

	var g errgroup.Group
	g.SetLimit(s.workers)
	for _, id := range ids {
		g.Go(func() error {
			sum, err := s.Summarize(ctx, id, start, end)
			if err != nil {
				log.Printf("weekly summary for user %d: %v", id, err)
			}
			rep.record(id, sum != nil, err)
			return nil
		})
	}
	_ = g.Wait()

	log.Printf("weekly summaries %s..%s: %d generated, %d skipped, %d failed",
		start.Format(domain.DayLayout), end.Format(domain.DayLayout), rep.Generated, rep.Skipped, rep.Failed)
	return rep, nil
}

// Summarize builds and stores one user's summary for [start, end]. It
// returns nil without error when the user has no weights in the window.
func (s *SummaryService) Summarize(ctx context.Context, userID int64, start, end time.Time) (*domain.WeeklySummary, error) {
	var week, prev []domain.Observation
	err := s.progress.WithUser(userID, func() error {
		var err error
		week, err = s.obs.ListObservations(ctx, userID, domain.ObservationFilter{From: start, To: end})
		if err != nil {
			return err
		}
		prev, err = s.obs.ListObservations(ctx, userID, domain.ObservationFilter{
			From: start.AddDate(0, 0, -7),
			To:   end.AddDate(0, 0, -7),
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list observations: %w", err)
	}

	sum, ok := BuildSummary(userID, start, end, week, prev)
	if !ok {
		return nil, nil
	}
	sum.CreatedAt = s.now()
	return s.summaries.UpsertWeeklySummary(ctx, *sum)
}

// List returns the user's summaries, newest week first.
func (s *SummaryService) List(ctx context.Context, userID int64, limit int) ([]domain.WeeklySummary, error) {
	return s.summaries.ListWeeklySummaries(ctx, userID, limit)
}

// MarkChecked records that the user reviewed a summary.
func (s *SummaryService) MarkChecked(ctx context.Context, userID, id int64) error {
	return s.summaries.MarkSummaryChecked(ctx, userID, id, s.now())
}
