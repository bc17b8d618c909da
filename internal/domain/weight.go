package domain

import (
	"context"
	"errors"
	"math"
	"time"
)

var (
	// ErrNotFound indicates that the requested record does not exist for the user.
	ErrNotFound = errors.New("not found")
	// ErrInvalidWeight indicates a non-positive weight value.
	ErrInvalidWeight = errors.New("weight must be > 0")
)

// ValidMeasure reports whether v is a finite positive measurement.
func ValidMeasure(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}

// Observation represents one dated weight measurement for a user. At most one
// Observation exists per (UserID, Date).
type Observation struct {
	ID          int64      `json:"id"`
	UserID      int64      `json:"userId"`
	Date        time.Time  `json:"date"`
	Weight      *float64   `json:"weight"`
	Note        string     `json:"note"`
	CheckedIn   bool       `json:"checkedIn"`
	CheckedInAt *time.Time `json:"checkedInAt"`
	BMI         *float64   `json:"bmi"`
}

// Day returns the observation's calendar day as "2006-01-02".
func (o Observation) Day() string {
	return o.Date.Format(DayLayout)
}

// HasWeight reports whether a weight value was logged.
func (o Observation) HasWeight() bool {
	return o.Weight != nil
}

// SetWeight stores w and re-derives the BMI from heightCM. A missing height
// clears the BMI rather than failing the write.
func (o *Observation) SetWeight(w *float64, heightCM float64) {
	o.Weight = w
	o.RefreshBMI(heightCM)
}

// RefreshBMI re-derives the BMI from the current weight.
func (o *Observation) RefreshBMI(heightCM float64) {
	o.BMI = nil
	if o.Weight == nil {
		return
	}
	if b, err := CalculateBMI(*o.Weight, heightCM); err == nil {
		v := b.Value
		o.BMI = &v
	}
}

// ObservationFilter narrows an observation listing. From and To are inclusive
// calendar days; a zero time leaves that side open.
type ObservationFilter struct {
	From          time.Time
	To            time.Time
	WithWeight    bool
	CheckedInOnly bool
}

// Match reports whether o passes the filter.
func (f ObservationFilter) Match(o Observation) bool {
	if !f.From.IsZero() && o.Date.Before(DayOf(f.From)) {
		return false
	}
	if !f.To.IsZero() && o.Date.After(DayOf(f.To)) {
		return false
	}
	if f.WithWeight && o.Weight == nil {
		return false
	}
	if f.CheckedInOnly && !o.CheckedIn {
		return false
	}
	return true
}

// ObservationRepository is the port for observation persistence.
type ObservationRepository interface {
	// SaveObservation inserts or updates the observation keyed by (UserID, Date)
	// and returns the stored row.
	SaveObservation(ctx context.Context, o Observation) (*Observation, error)
	GetObservation(ctx context.Context, userID, id int64) (*Observation, error)
	GetObservationForDay(ctx context.Context, userID int64, day time.Time) (*Observation, error)
	DeleteObservation(ctx context.Context, userID, id int64) (bool, error)
	// ListObservations returns the user's observations ordered by date ascending.
	ListObservations(ctx context.Context, userID int64, f ObservationFilter) ([]Observation, error)
	// UpdateBMIs rewrites the derived BMI column of the given observations.
	UpdateBMIs(ctx context.Context, userID int64, obs []Observation) error
}

// Weights returns the non-null weights of obs in order.
func Weights(obs []Observation) []float64 {
	out := make([]float64, 0, len(obs))
	for _, o := range obs {
		if o.Weight != nil {
			out = append(out, *o.Weight)
		}
	}
	return out
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}
