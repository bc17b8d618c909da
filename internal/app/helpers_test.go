package app_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"weighttrack/internal/adapter/memory"
	"weighttrack/internal/app"
	"weighttrack/internal/domain"
	"weighttrack/internal/milestone"
)

// clock is a settable time source shared by every service in an env.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

type env struct {
	db       *memory.DB
	clock    *clock
	progress *app.ProgressionService
	weights  *app.WeightService
	profiles *app.ProfileService
	insights *app.InsightsService
	summary  *app.SummaryService
	imports  *app.ImportService
}

// newEnv wires every service over one in-memory store. The clock starts on
// Monday 2024-01-01 at 08:00 UTC.
func newEnv(t *testing.T) *env {
	t.Helper()
	catalog, err := milestone.Default()
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	db := memory.New()
	c := &clock{now: time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)}

	progress := app.NewProgressionService(db, db, db, catalog)
	progress.SetClock(c.Now)
	weights := app.NewWeightService(db, db, progress)
	weights.SetClock(c.Now)
	insights := app.NewInsightsService(db, db, db, catalog)
	insights.SetClock(c.Now)
	summary := app.NewSummaryService(db, db, db, progress, 4)
	summary.SetClock(c.Now)
	imports := app.NewImportService(db, weights)
	imports.SetSeed(42)

	return &env{
		db:       db,
		clock:    c,
		progress: progress,
		weights:  weights,
		profiles: app.NewProfileService(db, progress),
		insights: insights,
		summary:  summary,
		imports:  imports,
	}
}

// logOn stores weight w for the given January 2024 day.
func (e *env) logOn(t *testing.T, userID int64, d int, w float64) *app.LogResult {
	t.Helper()
	res, err := e.weights.Log(context.Background(), userID, app.LogInput{
		Day:    jan(d),
		Weight: domain.Float(w),
	})
	if err != nil {
		t.Fatalf("Log: %v", err)
	}
	return res
}

// checkInOn moves the clock to 08:00 on the given January 2024 day and checks in.
func (e *env) checkInOn(t *testing.T, userID int64, d int, w float64) *app.LogResult {
	t.Helper()
	e.clock.Set(jan(d).Add(8 * time.Hour))
	res, err := e.weights.CheckIn(context.Background(), userID, domain.Float(w), nil)
	if err != nil {
		t.Fatalf("CheckIn: %v", err)
	}
	return res
}

func jan(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func unlockedKeys(r *app.Refresh) []string {
	var out []string
	for _, m := range r.Unlocked {
		out = append(out, m.Key)
	}
	return out
}

func contains(keys []string, want string) bool {
	for _, k := range keys {
		if k == want {
			return true
		}
	}
	return false
}
