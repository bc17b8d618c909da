package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"weighttrack/internal/app"
	"weighttrack/internal/domain"
)

func TestLastCompletedWeek(t *testing.T) {
	tests := []struct {
		name  string
		today time.Time
	}{
		{"monday", jan(8)},
		{"wednesday", jan(10).Add(23 * time.Hour)},
		{"sunday excludes itself", jan(14)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			start, end := app.LastCompletedWeek(tc.today)
			if !start.Equal(jan(1)) || !end.Equal(jan(7)) {
				t.Errorf("expected 2024-01-01..2024-01-07, got %s..%s", start.Format(domain.DayLayout), end.Format(domain.DayLayout))
			}
		})
	}
}

func weighedOn(d int, w float64) domain.Observation {
	o := domain.Observation{Date: jan(d)}
	o.SetWeight(domain.Float(w), 180)
	return o
}

func TestBuildSummary(t *testing.T) {
	week := []domain.Observation{weighedOn(8, 80), weighedOn(9, 81), weighedOn(11, 79), weighedOn(12, 80)}
	prev := []domain.Observation{weighedOn(1, 82), weighedOn(3, 81)}

	s, ok := app.BuildSummary(1, jan(8), jan(14), week, prev)
	if !ok {
		t.Fatal("expected a summary")
	}
	if s.AvgWeight != 80 {
		t.Errorf("expected avg 80, got %v", s.AvgWeight)
	}
	if s.ChangeFromLastWeek != -1.5 {
		t.Errorf("expected change -1.5, got %v", s.ChangeFromLastWeek)
	}
	if s.BMIStatus != domain.ZoneNormal {
		t.Errorf("expected Normal, got %s", s.BMIStatus)
	}
	if s.Streak != 2 {
		t.Errorf("expected longest run 2, got %d", s.Streak)
	}
	want := domain.Highlights{
		Logs:   "You logged weight 4 times this week.",
		Streak: "Your longest streak: 2 days in a row.",
		Gain:   "You gained 1.0 kg on Tuesday, You gained 1.0 kg on Friday",
	}
	if s.Highlights != want {
		t.Errorf("unexpected highlights:\n got %+v\nwant %+v", s.Highlights, want)
	}
}

func TestBuildSummary_Fallbacks(t *testing.T) {
	s, ok := app.BuildSummary(1, jan(8), jan(14), []domain.Observation{weighedOn(8, 80), weighedOn(9, 79)}, nil)
	if !ok {
		t.Fatal("expected a summary")
	}
	if s.ChangeFromLastWeek != 0 {
		t.Errorf("no prior week must mean no change, got %v", s.ChangeFromLastWeek)
	}
	if s.Highlights.Gain != "No gains this week!" {
		t.Errorf("unexpected gain line %q", s.Highlights.Gain)
	}

	if _, ok := app.BuildSummary(1, jan(8), jan(14), nil, nil); ok {
		t.Error("expected empty week to be skipped")
	}
	if _, ok := app.BuildSummary(1, jan(8), jan(14), []domain.Observation{{Date: jan(8)}}, nil); ok {
		t.Error("expected week without weights to be skipped")
	}
}

func TestBuildSummary_IgnoresSubRoundingGains(t *testing.T) {
	week := []domain.Observation{weighedOn(8, 80), weighedOn(9, 80.04), weighedOn(10, 80.2)}
	s, ok := app.BuildSummary(1, jan(8), jan(14), week, nil)
	if !ok {
		t.Fatal("expected a summary")
	}
	if want := "You gained 0.2 kg on Wednesday"; s.Highlights.Gain != want {
		t.Errorf("expected %q, got %q", want, s.Highlights.Gain)
	}

	s, _ = app.BuildSummary(1, jan(8), jan(14), week[:2], nil)
	if s.Highlights.Gain != "No gains this week!" {
		t.Errorf("expected 0.04 kg gain to be dropped, got %q", s.Highlights.Gain)
	}
}

func TestSummaryRun_UpsertsOncePerWindow(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.logOn(t, 1, 2, 80)
	e.logOn(t, 1, 3, 79)
	e.clock.Set(jan(10))

	rep, err := e.summary.Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rep.Generated != 1 || !rep.WeekStart.Equal(jan(1)) {
		t.Fatalf("unexpected report %+v", rep)
	}

	list, _ := e.summary.List(ctx, 1, 10)
	if err := e.summary.MarkChecked(ctx, 1, list[0].ID); err != nil {
		t.Fatalf("MarkChecked: %v", err)
	}

	e.logOn(t, 1, 4, 78)
	if _, err := e.summary.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	list, _ = e.summary.List(ctx, 1, 10)
	if len(list) != 1 {
		t.Fatalf("expected exactly one summary, got %d", len(list))
	}
	if list[0].AvgWeight != 79 {
		t.Errorf("expected second run to overwrite avg to 79, got %v", list[0].AvgWeight)
	}
	if list[0].HasChecked {
		t.Error("expected regenerated summary to need review again")
	}
}

// failingObs fails every listing for one user.
type failingObs struct {
	domain.ObservationRepository
	userID int64
}

func (f *failingObs) ListObservations(ctx context.Context, userID int64, filter domain.ObservationFilter) ([]domain.Observation, error) {
	if userID == f.userID {
		return nil, errors.New("disk on fire")
	}
	return f.ObservationRepository.ListObservations(ctx, userID, filter)
}

func TestSummaryRun_PerUserFailureContinues(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.logOn(t, 1, 2, 80)
	e.logOn(t, 2, 2, 90)
	e.logOn(t, 3, 20, 70)

	svc := app.NewSummaryService(&failingObs{ObservationRepository: e.db, userID: 2}, e.db, e.db, e.progress, 2)
	rep, err := svc.RunWindow(ctx, jan(1), jan(7))
	if err != nil {
		t.Fatalf("RunWindow: %v", err)
	}
	if rep.Generated != 1 || rep.Failed != 1 || rep.Skipped != 1 {
		t.Errorf("expected 1 generated, 1 failed, 1 skipped, got %+v", rep)
	}
	if _, ok := rep.Errors[2]; !ok {
		t.Errorf("expected error recorded for user 2, got %v", rep.Errors)
	}
}

type failingProfiles struct {
	domain.ProfileRepository
}

func (failingProfiles) ListProfileUserIDs(context.Context) ([]int64, error) {
	return nil, errors.New("connection refused")
}

func TestSummaryRun_AbortsWhenUsersUnavailable(t *testing.T) {
	e := newEnv(t)
	svc := app.NewSummaryService(e.db, failingProfiles{e.db}, e.db, e.progress, 1)
	if _, err := svc.RunWindow(context.Background(), jan(1), jan(7)); err == nil {
		t.Fatal("expected run to abort")
	}
}
