package domain

import (
	"sort"
	"time"
)

// StreakState is the current check-in streak and the timestamp it started at.
type StreakState struct {
	Length int        `json:"length"`
	From   *time.Time `json:"from"`
}

// CurrentStreak walks check-ins chronologically and returns the streak as of
// the last one. Only observations that are checked in, carry a weight and have
// a check-in timestamp count. A gap of one day continues the run, as does a gap
// of two days when the previous check-in fell on a Saturday. The boolean is
// false when nothing qualifies.
func CurrentStreak(obs []Observation) (StreakState, bool) {
	checkIns := make([]time.Time, 0, len(obs))
	for _, o := range obs {
		if o.CheckedIn && o.Weight != nil && o.CheckedInAt != nil {
			checkIns = append(checkIns, *o.CheckedInAt)
		}
	}
	if len(checkIns) == 0 {
		return StreakState{}, false
	}
	sort.SliceStable(checkIns, func(i, j int) bool { return checkIns[i].Before(checkIns[j]) })

	var st StreakState
	for i, at := range checkIns {
		if i == 0 {
			st = StreakState{Length: 1, From: &at}
			continue
		}
		prev := checkIns[i-1]
		gap := DaysBetween(prev, at)
		switch {
		case gap == 1:
			st.Length++
		case gap == 2 && prev.Weekday() == time.Saturday:
			st.Length++
		default:
			st = StreakState{Length: 1, From: &at}
		}
	}
	return st, true
}

// LongestDailyRun returns the longest run of consecutive calendar days among
// the given observation dates. Dates are taken in the order given; the run
// resets whenever the gap to the previous date is not exactly one day.
func LongestDailyRun(obs []Observation) int {
	longest, run := 0, 0
	for i, o := range obs {
		if i > 0 && DaysBetween(obs[i-1].Date, o.Date) == 1 {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}
	return longest
}
