package milestone_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weighttrack/internal/domain"
	"weighttrack/internal/milestone"
)

func weighed(day int, w, heightCM float64) domain.Observation {
	o := domain.Observation{Date: time.Date(2024, 3, day, 0, 0, 0, 0, time.UTC)}
	o.SetWeight(domain.Float(w), heightCM)
	return o
}

func keys(ms []milestone.Milestone) []string {
	out := make([]string, 0, len(ms))
	for _, m := range ms {
		out = append(out, m.Key)
	}
	return out
}

func TestDefaultCatalog(t *testing.T) {
	c, err := milestone.Default()
	require.NoError(t, err)

	assert.Equal(t, 2, c.Version())
	assert.Len(t, c.All(), 16)
	assert.Len(t, c.ByCategory(milestone.CategoryStreak), 3)
	assert.Len(t, c.ByCategory(milestone.CategoryBMITransition), 2)

	m, ok := c.Lookup("bullseye")
	require.True(t, ok)
	assert.Equal(t, milestone.CategoryTargetReached, m.Category)

	again, err := milestone.Default()
	require.NoError(t, err)
	assert.Same(t, c, again)
}

func TestParse_Rejects(t *testing.T) {
	tests := map[string]string{
		"unknown category": `
version: 1
milestones:
  - {key: a, title: A, category: bmi_target, threshold: 1}`,
		"duplicate key": `
version: 1
milestones:
  - {key: a, title: A, category: streak, threshold: 1}
  - {key: a, title: B, category: streak, threshold: 2}`,
		"missing version": `
milestones:
  - {key: a, title: A, category: streak, threshold: 1}`,
		"upward transition": `
version: 1
milestones:
  - {key: a, title: A, category: bmi_transition, from_zone: Normal, to_zone: Obese}`,
		"unknown field": `
version: 1
milestones:
  - {key: a, title: A, category: streak, value: 1}`,
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := milestone.Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestEligible_EmptyHistory(t *testing.T) {
	c, err := milestone.Default()
	require.NoError(t, err)

	got := c.Eligible(milestone.NewFacts(domain.Profile{TargetWeight: domain.Float(70)}, nil))
	assert.Empty(t, got)
}

func TestEligible_WeightLossAndLogCount(t *testing.T) {
	c, err := milestone.Default()
	require.NoError(t, err)

	obs := []domain.Observation{weighed(1, 90, 180), {Date: time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)}, weighed(3, 84.5, 180)}
	got := keys(c.Eligible(milestone.NewFacts(domain.Profile{HeightCM: 180}, obs)))

	assert.ElementsMatch(t, []string{"first-step", "first-2kg-down", "5kg-down"}, got)
}

func TestEligible_BMI(t *testing.T) {
	c, err := milestone.Default()
	require.NoError(t, err)

	// 180cm: 100kg -> 30.86 obese, 85kg -> 26.23 overweight, 80kg -> 24.69 normal.
	obeseToOver := []domain.Observation{weighed(1, 100, 180), weighed(2, 85, 180)}
	got := keys(c.Eligible(milestone.NewFacts(domain.Profile{}, obeseToOver)))
	assert.Contains(t, got, "obese-crusher")
	assert.NotContains(t, got, "overweight-slayer")
	assert.NotContains(t, got, "normal-bmi-ninja")

	overToNormal := []domain.Observation{weighed(1, 85, 180), weighed(2, 80, 180)}
	got = keys(c.Eligible(milestone.NewFacts(domain.Profile{}, overToNormal)))
	assert.Contains(t, got, "overweight-slayer")
	assert.Contains(t, got, "normal-bmi-ninja")
	assert.NotContains(t, got, "obese-crusher")

	alwaysNormal := []domain.Observation{weighed(1, 80, 180), weighed(2, 79, 180)}
	got = keys(c.Eligible(milestone.NewFacts(domain.Profile{}, alwaysNormal)))
	assert.NotContains(t, got, "overweight-slayer")
}

func TestEligible_StreakIsExact(t *testing.T) {
	c, err := milestone.Default()
	require.NoError(t, err)

	obs := []domain.Observation{weighed(1, 80, 180)}
	assert.Contains(t, keys(c.Eligible(milestone.NewFacts(domain.Profile{Streak: 7}, obs))), "7-day-hustler")
	assert.NotContains(t, keys(c.Eligible(milestone.NewFacts(domain.Profile{Streak: 8}, obs))), "7-day-hustler")
}

func TestEligible_Target(t *testing.T) {
	c, err := milestone.Default()
	require.NoError(t, err)

	profile := domain.Profile{TargetWeight: domain.Float(75)}
	got := keys(c.Eligible(milestone.NewFacts(profile, []domain.Observation{weighed(1, 80, 180), weighed(2, 75, 180)})))
	assert.Contains(t, got, "bullseye")
	assert.NotContains(t, got, "target-maintainer")

	var month []domain.Observation
	for d := 1; d <= 30; d++ {
		month = append(month, weighed(d, 75.2, 180))
	}
	got = keys(c.Eligible(milestone.NewFacts(profile, month)))
	assert.Contains(t, got, "target-maintainer")
	assert.NotContains(t, got, "bullseye")

	gap := append([]domain.Observation{}, month[:10]...)
	gap = append(gap, month[11:]...)
	got = keys(c.Eligible(milestone.NewFacts(profile, gap)))
	assert.NotContains(t, got, "target-maintainer")
}
