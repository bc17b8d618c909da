// Package memory implements an in-memory repository for development and testing.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"weighttrack/internal/domain"
)

type achievementKey struct {
	userID int64
	key    string
}

type summaryKey struct {
	userID     int64
	start, end time.Time
}

// DB implements an in-memory database storage.
type DB struct {
	mu           sync.Mutex
	users        []*domain.User
	profiles     map[int64]domain.Profile
	observations map[int64]domain.Observation
	achievements map[achievementKey]domain.Achievement
	summaries    map[int64]domain.WeeklySummary
	summaryIDs   map[summaryKey]int64

	userIDCounter        int64
	observationIDCounter int64
	summaryIDCounter     int64
}

// New creates a new in-memory database.
func New() *DB {
	return &DB{
		profiles:     make(map[int64]domain.Profile),
		observations: make(map[int64]domain.Observation),
		achievements: make(map[achievementKey]domain.Achievement),
		summaries:    make(map[int64]domain.WeeklySummary),
		summaryIDs:   make(map[summaryKey]int64),
	}
}

// Close is a no-op; it lets DB stand in wherever a closable store is expected.
func (db *DB) Close() error { return nil }

// Ping always succeeds; an in-memory store is reachable while the process is.
func (db *DB) Ping(ctx context.Context) error { return nil }

// Ensure interfaces are met.
var _ domain.UserRepository = (*DB)(nil)
var _ domain.ProfileRepository = (*DB)(nil)
var _ domain.ObservationRepository = (*DB)(nil)
var _ domain.AchievementRepository = (*DB)(nil)
var _ domain.SummaryRepository = (*DB)(nil)

// --- UserRepository ---

// GetByUsername returns the user with the given name, or nil.
func (db *DB) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.Username == username {
			c := *u
			return &c, nil
		}
	}
	return nil, nil
}

// Create adds a user, returning the existing one if the name is taken.
func (db *DB) Create(ctx context.Context, username string) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.Username == username {
			c := *u
			return &c, nil
		}
	}
	db.userIDCounter++
	u := &domain.User{ID: db.userIDCounter, Username: username, CreatedAt: time.Now().UTC()}
	db.users = append(db.users, u)
	c := *u
	return &c, nil
}

// --- ProfileRepository ---

// GetProfile returns the user's profile, or nil.
func (db *DB) GetProfile(ctx context.Context, userID int64) (*domain.Profile, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	p, ok := db.profiles[userID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

// SaveProfile upserts the biometric fields, keeping the stored streak.
func (db *DB) SaveProfile(ctx context.Context, p domain.Profile) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if cur, ok := db.profiles[p.UserID]; ok {
		p.Streak, p.StreakFrom = cur.Streak, cur.StreakFrom
	} else {
		p.Streak, p.StreakFrom = 0, nil
	}
	db.profiles[p.UserID] = p
	return nil
}

// UpdateStreak writes both streak fields, creating the profile if needed.
func (db *DB) UpdateStreak(ctx context.Context, userID int64, s domain.StreakState) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	p := db.profiles[userID]
	p.UserID = userID
	p.Streak, p.StreakFrom = s.Length, s.From
	db.profiles[userID] = p
	return nil
}

// ListProfileUserIDs returns every user with a profile, ascending.
func (db *DB) ListProfileUserIDs(ctx context.Context) ([]int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	ids := make([]int64, 0, len(db.profiles))
	for id := range db.profiles {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// --- ObservationRepository ---

// SaveObservation upserts by (user, day) and returns the stored row.
func (db *DB) SaveObservation(ctx context.Context, o domain.Observation) (*domain.Observation, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	o.Date = domain.DayOf(o.Date)
	if id, ok := db.findDay(o.UserID, o.Date); ok {
		o.ID = id
	} else {
		db.observationIDCounter++
		o.ID = db.observationIDCounter
	}
	db.observations[o.ID] = o
	return &o, nil
}

func (db *DB) findDay(userID int64, day time.Time) (int64, bool) {
	for id, o := range db.observations {
		if o.UserID == userID && o.Date.Equal(day) {
			return id, true
		}
	}
	return 0, false
}

// GetObservation returns domain.ErrNotFound unless id belongs to userID.
func (db *DB) GetObservation(ctx context.Context, userID, id int64) (*domain.Observation, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	o, ok := db.observations[id]
	if !ok || o.UserID != userID {
		return nil, domain.ErrNotFound
	}
	return &o, nil
}

// GetObservationForDay returns the observation for day, or nil.
func (db *DB) GetObservationForDay(ctx context.Context, userID int64, day time.Time) (*domain.Observation, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	id, ok := db.findDay(userID, domain.DayOf(day))
	if !ok {
		return nil, nil
	}
	o := db.observations[id]
	return &o, nil
}

// DeleteObservation removes the observation and reports whether it existed.
func (db *DB) DeleteObservation(ctx context.Context, userID, id int64) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	o, ok := db.observations[id]
	if !ok || o.UserID != userID {
		return false, nil
	}
	delete(db.observations, id)
	return true, nil
}

// ListObservations returns the user's matching observations by date.
func (db *DB) ListObservations(ctx context.Context, userID int64, f domain.ObservationFilter) ([]domain.Observation, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var result []domain.Observation
	for _, o := range db.observations {
		if o.UserID == userID && f.Match(o) {
			result = append(result, o)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Date.Before(result[j].Date)
	})
	return result, nil
}

// UpdateBMIs copies the BMI of each given observation into the store.
func (db *DB) UpdateBMIs(ctx context.Context, userID int64, obs []domain.Observation) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, in := range obs {
		o, ok := db.observations[in.ID]
		if !ok || o.UserID != userID {
			continue
		}
		o.BMI = in.BMI
		db.observations[in.ID] = o
	}
	return nil
}

// --- AchievementRepository ---

// CreateAchievement stores a if the user has not unlocked that milestone yet.
func (db *DB) CreateAchievement(ctx context.Context, a domain.Achievement) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	k := achievementKey{a.UserID, a.MilestoneKey}
	if _, ok := db.achievements[k]; ok {
		return false, nil
	}
	db.achievements[k] = a
	return true, nil
}

// ListAchievements returns the user's achievements, oldest first.
func (db *DB) ListAchievements(ctx context.Context, userID int64) ([]domain.Achievement, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var result []domain.Achievement
	for k, a := range db.achievements {
		if k.userID == userID {
			result = append(result, a)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].AchievedOn.Equal(result[j].AchievedOn) {
			return result[i].AchievedOn.Before(result[j].AchievedOn)
		}
		return result[i].MilestoneKey < result[j].MilestoneKey
	})
	return result, nil
}

// MarkAchievementDisplayed flags the achievement as shown.
func (db *DB) MarkAchievementDisplayed(ctx context.Context, userID int64, key string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	k := achievementKey{userID, key}
	a, ok := db.achievements[k]
	if !ok {
		return domain.ErrNotFound
	}
	a.Displayed = true
	db.achievements[k] = a
	return nil
}

// --- SummaryRepository ---

// UpsertWeeklySummary replaces any summary for the same window, keeping its ID.
func (db *DB) UpsertWeeklySummary(ctx context.Context, s domain.WeeklySummary) (*domain.WeeklySummary, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	s.WeekStart, s.WeekEnd = domain.DayOf(s.WeekStart), domain.DayOf(s.WeekEnd)
	k := summaryKey{s.UserID, s.WeekStart, s.WeekEnd}
	id, ok := db.summaryIDs[k]
	if !ok {
		db.summaryIDCounter++
		id = db.summaryIDCounter
		db.summaryIDs[k] = id
	}
	s.ID = id
	s.HasChecked, s.CheckedOn = false, nil
	db.summaries[id] = s
	return &s, nil
}

// ListWeeklySummaries returns up to limit summaries (52 when unset), newest
// week first.
func (db *DB) ListWeeklySummaries(ctx context.Context, userID int64, limit int) ([]domain.WeeklySummary, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var result []domain.WeeklySummary
	for _, s := range db.summaries {
		if s.UserID == userID {
			result = append(result, s)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].WeekStart.After(result[j].WeekStart)
	})
	if limit <= 0 {
		limit = 52
	}
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// MarkSummaryChecked records that the user reviewed the summary.
func (db *DB) MarkSummaryChecked(ctx context.Context, userID, id int64, at time.Time) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	s, ok := db.summaries[id]
	if !ok || s.UserID != userID {
		return domain.ErrNotFound
	}
	s.HasChecked = true
	s.CheckedOn = &at
	db.summaries[id] = s
	return nil
}
