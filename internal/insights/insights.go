// Package insights derives progress, trend and distribution metrics from a
// user's date-ordered observations. Every function is a pure read.
package insights

import (
	"math"
	"time"

	"weighttrack/internal/domain"
)

// LabelLayout formats dates in trend and change series.
const LabelLayout = "02-01-2006"

// progressRadius is the radius of the circular progress indicator.
const progressRadius = 54

// Circumference is the full arc length of the progress indicator.
var Circumference = 2 * math.Pi * progressRadius

// Progress is the share of the way from the first logged weight to the target.
// Percent is nil when no target is set or the start already equals it.
type Progress struct {
	Percent *int    `json:"percent"`
	Offset  float64 `json:"offset"`
}

// ComputeProgress measures how far the latest weight has moved from the first
// weight toward target, clamped to [0,100].
func ComputeProgress(obs []domain.Observation, target *float64) Progress {
	p := Progress{Offset: Circumference}
	weights := domain.Weights(obs)
	if target == nil || len(weights) == 0 {
		return p
	}
	start, latest := weights[0], weights[len(weights)-1]
	span := start - *target
	if span == 0 {
		return p
	}
	pct := int(math.Round((start - latest) / span * 100))
	pct = max(0, min(pct, 100))
	p.Percent = &pct
	p.Offset = Circumference - float64(pct)/100*Circumference
	return p
}

// Window selects the observations a trend line covers. Recent > 0 keeps the
// last Recent weighed observations; otherwise From/To bound an inclusive date
// range and zero values leave a side open.
type Window struct {
	Recent int
	From   time.Time
	To     time.Time
}

// TrendLine is a pair of parallel series for charting.
type TrendLine struct {
	Labels  []string  `json:"labels"`
	Weights []float64 `json:"weights"`
}

// Trend returns the weighed observations inside w in chronological order.
func Trend(obs []domain.Observation, w Window) TrendLine {
	var sel []domain.Observation
	f := domain.ObservationFilter{WithWeight: true}
	if w.Recent <= 0 {
		f.From, f.To = w.From, w.To
	}
	for _, o := range obs {
		if f.Match(o) {
			sel = append(sel, o)
		}
	}
	if w.Recent > 0 && len(sel) > w.Recent {
		sel = sel[len(sel)-w.Recent:]
	}

	line := TrendLine{Labels: make([]string, 0, len(sel)), Weights: make([]float64, 0, len(sel))}
	for _, o := range sel {
		line.Labels = append(line.Labels, o.Date.Format(LabelLayout))
		line.Weights = append(line.Weights, *o.Weight)
	}
	return line
}

// Change is a day-over-day weight difference.
type Change struct {
	Date   string  `json:"date"`
	Change float64 `json:"change"`
}

// DailyChanges returns the change between each observation and the previous
// one, rounded to one decimal. The series stops at the first missing weight.
func DailyChanges(obs []domain.Observation) []Change {
	var out []Change
	var prev *float64
	for _, o := range obs {
		if o.Weight == nil {
			break
		}
		if prev != nil {
			out = append(out, Change{
				Date:   o.Date.Format(LabelLayout),
				Change: domain.Round(*o.Weight-*prev, 1),
			})
		}
		prev = o.Weight
	}
	return out
}

// MonthlyAverage is the mean weight and BMI of one calendar month.
type MonthlyAverage struct {
	Month     string   `json:"month"`
	AvgWeight float64  `json:"avgWeight"`
	AvgBMI    *float64 `json:"avgBmi"`
}

// MonthlyAverages groups weighed observations by calendar month, in order of
// first appearance. AvgBMI is nil when no observation in the month has one.
func MonthlyAverages(obs []domain.Observation) []MonthlyAverage {
	type acc struct {
		label             string
		weightSum, bmiSum float64
		weights, bmis     int
	}
	var order []string
	groups := make(map[string]*acc)
	for _, o := range obs {
		if o.Weight == nil {
			continue
		}
		key := o.Date.Format("2006-01")
		g, ok := groups[key]
		if !ok {
			g = &acc{label: o.Date.Format("Jan 2006")}
			groups[key] = g
			order = append(order, key)
		}
		g.weightSum += *o.Weight
		g.weights++
		if o.BMI != nil {
			g.bmiSum += *o.BMI
			g.bmis++
		}
	}

	out := make([]MonthlyAverage, 0, len(order))
	for _, key := range order {
		g := groups[key]
		m := MonthlyAverage{Month: g.label, AvgWeight: domain.Round(g.weightSum/float64(g.weights), 1)}
		if g.bmis > 0 {
			m.AvgBMI = domain.Float(domain.Round(g.bmiSum/float64(g.bmis), 1))
		}
		out = append(out, m)
	}
	return out
}

// ZoneCount is the number of observations in one BMI zone.
type ZoneCount struct {
	Zone  domain.Zone `json:"zone"`
	Count int         `json:"count"`
}

// ZoneHistogram counts observations per BMI zone, skipping those without a
// BMI. All four zones are always present, in ascending order.
func ZoneHistogram(obs []domain.Observation) []ZoneCount {
	counts := make(map[domain.Zone]int, len(domain.Zones))
	for _, o := range obs {
		if o.BMI == nil {
			continue
		}
		counts[domain.ClassifyBMI(*o.BMI)]++
	}
	out := make([]ZoneCount, 0, len(domain.Zones))
	for _, z := range domain.Zones {
		out = append(out, ZoneCount{Zone: z, Count: counts[z]})
	}
	return out
}

// Drop is the largest single-step weight decrease.
type Drop struct {
	Date string  `json:"date"`
	Drop float64 `json:"drop"`
}

// FastestDrop returns the most negative change between consecutive weighed
// observations, or nil when weight never went down.
func FastestDrop(obs []domain.Observation) *Drop {
	var fastest *Drop
	var prev *float64
	for _, o := range obs {
		if o.Weight == nil {
			continue
		}
		if prev != nil {
			d := domain.Round(*o.Weight-*prev, 1)
			if d < 0 && (fastest == nil || d < fastest.Drop) {
				fastest = &Drop{Date: o.Date.Format(LabelLayout), Drop: d}
			}
		}
		prev = o.Weight
	}
	return fastest
}
