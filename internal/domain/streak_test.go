package domain_test

import (
	"testing"
	"time"

	"weighttrack/internal/domain"
)

// 2024-01-01 is a Monday.
func checkIn(day int) domain.Observation {
	at := time.Date(2024, 1, day, 8, 30, 0, 0, time.UTC)
	return domain.Observation{
		Date:        domain.DayOf(at),
		Weight:      domain.Float(80),
		CheckedIn:   true,
		CheckedInAt: &at,
	}
}

func TestCurrentStreak(t *testing.T) {
	tests := []struct {
		name     string
		days     []int
		wantLen  int
		wantFrom int
	}{
		{"consecutive mon-wed", []int{1, 2, 3}, 3, 1},
		{"gap of two from monday resets", []int{1, 3}, 1, 3},
		{"saturday to monday grace", []int{6, 8}, 2, 6},
		{"sunday to tuesday resets", []int{7, 9}, 1, 9},
		{"reset then regrow", []int{1, 2, 5, 6, 7}, 3, 5},
		{"single", []int{4}, 1, 4},
		{"unordered input", []int{3, 1, 2}, 3, 1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var obs []domain.Observation
			for _, d := range tc.days {
				obs = append(obs, checkIn(d))
			}
			got, ok := domain.CurrentStreak(obs)
			if !ok {
				t.Fatal("expected a streak")
			}
			if got.Length != tc.wantLen {
				t.Errorf("length = %d; want %d", got.Length, tc.wantLen)
			}
			if got.From == nil || got.From.Day() != tc.wantFrom {
				t.Errorf("from = %v; want day %d", got.From, tc.wantFrom)
			}
		})
	}
}

func TestCurrentStreak_IgnoresNonQualifying(t *testing.T) {
	noWeight := checkIn(2)
	noWeight.Weight = nil
	notChecked := checkIn(3)
	notChecked.CheckedIn = false

	if _, ok := domain.CurrentStreak(nil); ok {
		t.Fatal("expected no streak for empty input")
	}
	if _, ok := domain.CurrentStreak([]domain.Observation{noWeight, notChecked}); ok {
		t.Fatal("expected no streak when nothing qualifies")
	}

	got, _ := domain.CurrentStreak([]domain.Observation{checkIn(1), noWeight, checkIn(3)})
	if got.Length != 1 {
		t.Fatalf("expected reset to 1 after skipped day, got %d", got.Length)
	}
}

func TestLongestDailyRun(t *testing.T) {
	day := func(d int) domain.Observation {
		return domain.Observation{Date: time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)}
	}
	tests := []struct {
		name string
		obs  []domain.Observation
		want int
	}{
		{"empty", nil, 0},
		{"single", []domain.Observation{day(1)}, 1},
		{"run in the middle", []domain.Observation{day(1), day(3), day(4), day(5), day(7)}, 3},
		{"whole week", []domain.Observation{day(1), day(2), day(3), day(4), day(5), day(6), day(7)}, 7},
	}
	for _, tc := range tests {
		if got := domain.LongestDailyRun(tc.obs); got != tc.want {
			t.Errorf("%s: LongestDailyRun = %d; want %d", tc.name, got, tc.want)
		}
	}
}
