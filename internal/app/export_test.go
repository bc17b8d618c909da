package app

import (
	"math/rand/v2"
	"time"
)

// Clock pins every service's notion of now for tests.
func (s *ProgressionService) SetClock(now func() time.Time) { s.now = now }
func (s *WeightService) SetClock(now func() time.Time)      { s.now = now }
func (s *InsightsService) SetClock(now func() time.Time)    { s.now = now }
func (s *SummaryService) SetClock(now func() time.Time)     { s.now = now }

func (s *ImportService) SetSeed(seed uint64) {
	s.newRand = func() *rand.Rand { return rand.New(rand.NewPCG(seed, seed)) }
}
