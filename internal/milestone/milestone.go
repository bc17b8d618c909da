// Package milestone defines the achievement catalog and decides which
// milestones a user's history satisfies.
package milestone

import (
	"errors"
	"fmt"
	"math"

	"weighttrack/internal/domain"
)

// ErrUnknownCategory indicates a catalog entry with an unsupported category.
var ErrUnknownCategory = errors.New("unknown milestone category")

// MaintainTolerance is how far (kg) a weight may sit from the target and still
// count as "at target" for maintenance milestones.
const MaintainTolerance = 0.5

// Category identifies how a milestone threshold is evaluated.
type Category string

// Milestone categories.
const (
	CategoryWeightLoss       Category = "weight_loss"
	CategoryBMI              Category = "bmi"
	CategoryBMITransition    Category = "bmi_transition"
	CategoryTargetReached    Category = "target_reached"
	CategoryTargetMaintained Category = "target_maintained"
	CategoryStreak           Category = "streak"
	CategoryLogCount         Category = "log_count"
)

// Milestone is an immutable catalog entry.
type Milestone struct {
	Key         string      `yaml:"key" json:"key"`
	Title       string      `yaml:"title" json:"title"`
	Description string      `yaml:"description" json:"description"`
	Category    Category    `yaml:"category" json:"category"`
	Threshold   float64     `yaml:"threshold" json:"threshold"`
	FromZone    domain.Zone `yaml:"from_zone" json:"fromZone,omitempty"`
	ToZone      domain.Zone `yaml:"to_zone" json:"toZone,omitempty"`
}

// Facts is the state a user's milestones are evaluated against.
type Facts struct {
	// Weighed holds the observations with a weight, date ascending.
	Weighed []domain.Observation
	Target  *float64
	Streak  int
}

// NewFacts builds Facts from a profile and its date-ordered observations.
func NewFacts(p domain.Profile, obs []domain.Observation) Facts {
	f := Facts{Target: p.TargetWeight, Streak: p.Streak}
	for _, o := range obs {
		if o.Weight != nil {
			f.Weighed = append(f.Weighed, o)
		}
	}
	return f
}

func (f Facts) first() *domain.Observation {
	if len(f.Weighed) == 0 {
		return nil
	}
	return &f.Weighed[0]
}

func (f Facts) latest() *domain.Observation {
	if len(f.Weighed) == 0 {
		return nil
	}
	return &f.Weighed[len(f.Weighed)-1]
}

type evaluator func(m Milestone, f Facts) bool

var evaluators = map[Category]evaluator{
	CategoryLogCount:         logCount,
	CategoryWeightLoss:       weightLoss,
	CategoryBMI:              bmiAtMost,
	CategoryBMITransition:    bmiTransition,
	CategoryTargetReached:    targetReached,
	CategoryTargetMaintained: targetMaintained,
	CategoryStreak:           streakExact,
}

// Valid reports whether c is a supported category.
func (c Category) Valid() bool {
	_, ok := evaluators[c]
	return ok
}

// Reached reports whether f satisfies m.
func (m Milestone) Reached(f Facts) bool {
	eval, ok := evaluators[m.Category]
	if !ok {
		return false
	}
	return eval(m, f)
}

func (m Milestone) validate() error {
	if m.Key == "" || m.Title == "" {
		return fmt.Errorf("milestone %q: key and title are required", m.Key)
	}
	if !m.Category.Valid() {
		return fmt.Errorf("milestone %q: %w: %q", m.Key, ErrUnknownCategory, m.Category)
	}
	if m.Threshold < 0 {
		return fmt.Errorf("milestone %q: threshold must be >= 0", m.Key)
	}
	if m.Category == CategoryBMITransition {
		if !m.FromZone.Valid() || !m.ToZone.Valid() || m.ToZone.Rank() >= m.FromZone.Rank() {
			return fmt.Errorf("milestone %q: transition needs from_zone above to_zone", m.Key)
		}
	}
	return nil
}

func logCount(m Milestone, f Facts) bool {
	return float64(len(f.Weighed)) >= m.Threshold
}

func weightLoss(m Milestone, f Facts) bool {
	first, latest := f.first(), f.latest()
	if first == nil {
		return false
	}
	return domain.Round(*first.Weight-*latest.Weight, 2) >= m.Threshold
}

func bmiAtMost(m Milestone, f Facts) bool {
	latest := f.latest()
	return latest != nil && latest.BMI != nil && *latest.BMI <= m.Threshold
}

// bmiTransition holds when an earlier observation sat in FromZone and the
// latest one is in ToZone or lower.
func bmiTransition(m Milestone, f Facts) bool {
	latest := f.latest()
	if latest == nil || latest.BMI == nil {
		return false
	}
	if domain.ClassifyBMI(*latest.BMI).Rank() > m.ToZone.Rank() {
		return false
	}
	for _, o := range f.Weighed[:len(f.Weighed)-1] {
		if o.BMI != nil && domain.ClassifyBMI(*o.BMI) == m.FromZone {
			return true
		}
	}
	return false
}

func targetReached(_ Milestone, f Facts) bool {
	latest := f.latest()
	if latest == nil || f.Target == nil {
		return false
	}
	return domain.Round(*latest.Weight, 1) == domain.Round(*f.Target, 1)
}

// targetMaintained counts the trailing run of consecutive days at target,
// ending at the latest observation.
func targetMaintained(m Milestone, f Facts) bool {
	if f.Target == nil || len(f.Weighed) == 0 {
		return false
	}
	run := 0
	for i := len(f.Weighed) - 1; i >= 0; i-- {
		o := f.Weighed[i]
		if math.Abs(*o.Weight-*f.Target) > MaintainTolerance {
			break
		}
		if i < len(f.Weighed)-1 && domain.DaysBetween(o.Date, f.Weighed[i+1].Date) != 1 {
			break
		}
		run++
	}
	return run > 0 && float64(run) >= m.Threshold
}

// streakExact fires on the exact streak length so that a milestone is crossed
// once per run.
func streakExact(m Milestone, f Facts) bool {
	return float64(f.Streak) == m.Threshold
}
