package app

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"sort"
	"time"

	"weighttrack/internal/csvio"
	"weighttrack/internal/domain"
)

const (
	// backfillNote marks observations synthesized between imported rows.
	backfillNote = "interpolated"
	// backfillJitter bounds the random offset applied to interpolated weights.
	backfillJitter = 0.2
)

// ImportReport summarizes a CSV import.
type ImportReport struct {
	Imported   int              `json:"imported"`
	Backfilled int              `json:"backfilled"`
	Skipped    []csvio.RowError `json:"skipped"`
	Refresh    *Refresh         `json:"refresh"`
}

// ImportService moves weight history in and out of CSV.
type ImportService struct {
	obs     domain.ObservationRepository
	weights *WeightService
	newRand func() *rand.Rand
}

// NewImportService creates an ImportService writing through weights.
func NewImportService(obs domain.ObservationRepository, weights *WeightService) *ImportService {
	return &ImportService{
		obs:     obs,
		weights: weights,
		newRand: func() *rand.Rand { return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())) },
	}
}

// Import upserts every valid row of r, synthesizing daily observations across
// gaps between consecutive weighed rows. Streaks and milestones are refreshed
// once after all rows are written.
func (s *ImportService) Import(ctx context.Context, userID int64, r io.Reader) (*ImportReport, error) {
	recs, skipped, err := csvio.Read(r)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].Date.Before(recs[j].Date) })
	synthetic := Backfill(recs, s.newRand())

	rep := &ImportReport{Skipped: skipped}
	rep.Refresh, err = s.weights.progress.Apply(ctx, userID, func(ctx context.Context) error {
		height, err := s.weights.heightOf(ctx, userID)
		if err != nil {
			return err
		}
		for _, rec := range recs {
			if err := s.upsert(ctx, userID, rec, height); err != nil {
				return err
			}
			rep.Imported++
		}
		for _, rec := range synthetic {
			existing, err := s.obs.GetObservationForDay(ctx, userID, rec.Date)
			if err != nil {
				return err
			}
			if existing != nil {
				continue
			}
			if err := s.upsert(ctx, userID, rec, height); err != nil {
				return err
			}
			rep.Backfilled++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rep, nil
}

func (s *ImportService) upsert(ctx context.Context, userID int64, rec csvio.Record, height float64) error {
	day := domain.DayOf(rec.Date)
	o, err := s.obs.GetObservationForDay(ctx, userID, day)
	if err != nil {
		return fmt.Errorf("get observation %s: %w", day.Format(domain.DayLayout), err)
	}
	if o == nil {
		o = &domain.Observation{UserID: userID, Date: day}
	}
	o.SetWeight(rec.Weight, height)
	o.Note = rec.Note
	if _, err := s.obs.SaveObservation(ctx, *o); err != nil {
		return fmt.Errorf("save observation %s: %w", day.Format(domain.DayLayout), err)
	}
	return nil
}

// Backfill returns one synthetic record per missing day between consecutive
// weighed records of the date-ordered recs. Each weight lies on the line
// between its neighbours, offset by up to backfillJitter and rounded to one
// decimal. Days already present in recs are never synthesized.
func Backfill(recs []csvio.Record, rng *rand.Rand) []csvio.Record {
	present := make(map[time.Time]bool, len(recs))
	for _, r := range recs {
		present[domain.DayOf(r.Date)] = true
	}

	var out []csvio.Record
	var prev *csvio.Record
	for i := range recs {
		cur := &recs[i]
		if cur.Weight == nil {
			continue
		}
		if prev != nil {
			from, to := domain.DayOf(prev.Date), domain.DayOf(cur.Date)
			gap := domain.DaysBetween(from, to)
			step := (*cur.Weight - *prev.Weight) / float64(gap)
			for k := 1; k < gap; k++ {
				day := from.AddDate(0, 0, k)
				if present[day] {
					continue
				}
				jitter := (rng.Float64()*2 - 1) * backfillJitter
				w := domain.Round(*prev.Weight+step*float64(k)+jitter, 1)
				out = append(out, csvio.Record{Date: day, Weight: &w, Note: backfillNote})
			}
		}
		prev = cur
	}
	return out
}

// Export writes the user's full history as CSV.
func (s *ImportService) Export(ctx context.Context, userID int64, w io.Writer) error {
	all, err := s.obs.ListObservations(ctx, userID, domain.ObservationFilter{})
	if err != nil {
		return err
	}
	recs := make([]csvio.Record, 0, len(all))
	for _, o := range all {
		recs = append(recs, csvio.Record{Date: o.Date, Weight: o.Weight, Note: o.Note})
	}
	return csvio.Write(w, recs)
}
