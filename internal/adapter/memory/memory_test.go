package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"weighttrack/internal/domain"
)

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func TestObservationRepository(t *testing.T) {
	db := New()
	ctx := context.Background()
	userID := int64(1)

	// Insert
	first, err := db.SaveObservation(ctx, domain.Observation{UserID: userID, Date: day(2).Add(15 * time.Hour), Weight: domain.Float(80)})
	if err != nil {
		t.Fatalf("SaveObservation: %v", err)
	}
	if first.ID == 0 {
		t.Error("expected non-zero ID")
	}
	if !first.Date.Equal(day(2)) {
		t.Errorf("expected date truncated to day, got %v", first.Date)
	}

	// Same day upserts
	second, err := db.SaveObservation(ctx, domain.Observation{UserID: userID, Date: day(2), Weight: domain.Float(79)})
	if err != nil {
		t.Fatalf("SaveObservation: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("expected upsert to keep ID %d, got %d", first.ID, second.ID)
	}

	if _, err := db.SaveObservation(ctx, domain.Observation{UserID: userID, Date: day(1)}); err != nil {
		t.Fatalf("SaveObservation: %v", err)
	}

	// List ordered, filtered
	all, err := db.ListObservations(ctx, userID, domain.ObservationFilter{})
	if err != nil {
		t.Fatalf("ListObservations: %v", err)
	}
	if len(all) != 2 || !all[0].Date.Equal(day(1)) {
		t.Fatalf("expected 2 observations ordered by date, got %+v", all)
	}
	weighed, _ := db.ListObservations(ctx, userID, domain.ObservationFilter{WithWeight: true})
	if len(weighed) != 1 || *weighed[0].Weight != 79 {
		t.Errorf("expected one weighed observation of 79, got %+v", weighed)
	}

	// Other user sees nothing
	if other, _ := db.ListObservations(ctx, 999, domain.ObservationFilter{}); len(other) != 0 {
		t.Error("expected 0 observations for other user")
	}
	if _, err := db.GetObservation(ctx, 999, first.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound for other user, got %v", err)
	}

	// BMI rewrite
	bmi := 24.4
	if err := db.UpdateBMIs(ctx, userID, []domain.Observation{{ID: first.ID, BMI: &bmi}}); err != nil {
		t.Fatalf("UpdateBMIs: %v", err)
	}
	got, _ := db.GetObservationForDay(ctx, userID, day(2))
	if got == nil || got.BMI == nil || *got.BMI != 24.4 {
		t.Errorf("expected BMI 24.4, got %+v", got)
	}

	// Delete
	ok, err := db.DeleteObservation(ctx, userID, first.ID)
	if err != nil || !ok {
		t.Fatalf("DeleteObservation: ok=%v err=%v", ok, err)
	}
	ok, _ = db.DeleteObservation(ctx, userID, first.ID)
	if ok {
		t.Error("expected second delete to report false")
	}
}

func TestProfileRepository(t *testing.T) {
	db := New()
	ctx := context.Background()

	p, err := db.GetProfile(ctx, 1)
	if err != nil || p != nil {
		t.Fatalf("expected no profile, got %v %v", p, err)
	}

	from := day(3)
	if err := db.UpdateStreak(ctx, 1, domain.StreakState{Length: 4, From: &from}); err != nil {
		t.Fatalf("UpdateStreak: %v", err)
	}
	if err := db.SaveProfile(ctx, domain.Profile{UserID: 1, HeightCM: 180, Streak: 99}); err != nil {
		t.Fatalf("SaveProfile: %v", err)
	}
	p, _ = db.GetProfile(ctx, 1)
	if p.HeightCM != 180 {
		t.Errorf("expected height 180, got %v", p.HeightCM)
	}
	if p.Streak != 4 || p.StreakFrom == nil || !p.StreakFrom.Equal(from) {
		t.Errorf("SaveProfile must not touch streak, got %d %v", p.Streak, p.StreakFrom)
	}

	_ = db.SaveProfile(ctx, domain.Profile{UserID: 7})
	ids, _ := db.ListProfileUserIDs(ctx)
	if len(ids) != 2 || ids[0] != 1 || ids[1] != 7 {
		t.Errorf("expected [1 7], got %v", ids)
	}
}

func TestAchievementRepository(t *testing.T) {
	db := New()
	ctx := context.Background()

	a := domain.Achievement{UserID: 1, MilestoneKey: "first-step", AchievedOn: day(1)}
	created, err := db.CreateAchievement(ctx, a)
	if err != nil || !created {
		t.Fatalf("CreateAchievement: created=%v err=%v", created, err)
	}
	created, _ = db.CreateAchievement(ctx, a)
	if created {
		t.Error("expected duplicate create to be a no-op")
	}
	_, _ = db.CreateAchievement(ctx, domain.Achievement{UserID: 1, MilestoneKey: "5kg-down", AchievedOn: day(5)})

	list, _ := db.ListAchievements(ctx, 1)
	if len(list) != 2 || list[0].MilestoneKey != "first-step" {
		t.Fatalf("expected 2 achievements oldest first, got %+v", list)
	}

	if err := db.MarkAchievementDisplayed(ctx, 1, "first-step"); err != nil {
		t.Fatalf("MarkAchievementDisplayed: %v", err)
	}
	if err := db.MarkAchievementDisplayed(ctx, 2, "first-step"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	list, _ = db.ListAchievements(ctx, 1)
	if !list[0].Displayed {
		t.Error("expected achievement to be displayed")
	}
}

func TestSummaryRepository(t *testing.T) {
	db := New()
	ctx := context.Background()

	s := domain.WeeklySummary{UserID: 1, WeekStart: day(1), WeekEnd: day(7), AvgWeight: 80}
	first, err := db.UpsertWeeklySummary(ctx, s)
	if err != nil {
		t.Fatalf("UpsertWeeklySummary: %v", err)
	}
	if err := db.MarkSummaryChecked(ctx, 1, first.ID, day(8)); err != nil {
		t.Fatalf("MarkSummaryChecked: %v", err)
	}

	s.AvgWeight = 79
	again, _ := db.UpsertWeeklySummary(ctx, s)
	if again.ID != first.ID {
		t.Errorf("expected upsert to keep ID %d, got %d", first.ID, again.ID)
	}
	_, _ = db.UpsertWeeklySummary(ctx, domain.WeeklySummary{UserID: 1, WeekStart: day(8), WeekEnd: day(14)})

	list, _ := db.ListWeeklySummaries(ctx, 1, 10)
	if len(list) != 2 {
		t.Fatalf("expected 2 summaries, got %d", len(list))
	}
	if !list[0].WeekStart.Equal(day(8)) {
		t.Errorf("expected newest first, got %v", list[0].WeekStart)
	}
	if list[1].AvgWeight != 79 || list[1].HasChecked {
		t.Errorf("expected overwritten, unchecked summary, got %+v", list[1])
	}

	if err := db.MarkSummaryChecked(ctx, 2, first.ID, day(8)); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound for other user, got %v", err)
	}
}

func TestUserRepository(t *testing.T) {
	db := New()
	ctx := context.Background()

	u, err := db.Create(ctx, "alice")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	got, _ := db.GetByUsername(ctx, "alice")
	if got == nil || got.ID != u.ID {
		t.Errorf("expected user %d, got %v", u.ID, got)
	}
	if missing, _ := db.GetByUsername(ctx, "bob"); missing != nil {
		t.Errorf("expected nil, got %v", missing)
	}
}
