// Package scoring ranks variations by how urgently they need a physical
// recount. Scoring is pure: the same variation, event clock and instant
// always produce the same result.
package scoring

import (
	"math"
	"time"

	"github.com/c3foc/hagrid/internal/domain"
	"github.com/c3foc/hagrid/internal/eventclock"
)

// Reason names one component of a priority score.
type Reason string

const (
	ReasonBumped              Reason = "bumped"
	ReasonDepleted            Reason = "depleted"
	ReasonInvalid             Reason = "invalid"
	ReasonMissingCount        Reason = "missing_count"
	ReasonRunningLowEstimated Reason = "running_low_estimated"
	ReasonRunningLow          Reason = "running_low"
	ReasonOutdatedCount       Reason = "outdated_count"
)

// reasonOrder breaks ties when two components carry the same value.
var reasonOrder = []Reason{
	ReasonBumped,
	ReasonDepleted,
	ReasonInvalid,
	ReasonMissingCount,
	ReasonRunningLowEstimated,
	ReasonRunningLow,
	ReasonOutdatedCount,
}

// countAgeNorm normalizes count staleness; four hours of event time yields
// an outdated_count component of 0.5.
const countAgeNorm = 4 * time.Hour

// Info carries display values computed alongside the score.
type Info struct {
	EstimatedCount  float64
	SaleRatePerHour float64
	CountAge        time.Duration
}

type Priority struct {
	Scores    map[Reason]float64
	Info      Info
	Total     float64
	TopReason Reason
}

// Score computes the counting priority of a variation at the given instant.
//
// Depleted (count of zero) and invalid (no initial amount) variations always
// total zero; a manual bump contributes a component that dominates every
// organically computed score.
func Score(v domain.Variation, ec *eventclock.EventClock, now time.Time) Priority {
	scores := make(map[Reason]float64)
	var info Info

	if v.CountPrioBumped {
		scores[ReasonBumped] = 1.0
	}

	switch {
	case v.Count != nil && *v.Count == 0:
		scores[ReasonDepleted] = 0
		return finish(scores, info, true)

	case v.InitialAmount == 0:
		scores[ReasonInvalid] = 0
		return finish(scores, info, true)
	}

	nowET := ec.At(now).Seconds()
	initial := float64(v.InitialAmount)

	var refCount, refET float64
	if v.Count == nil || v.CountedAt == nil {
		// Pretend the line was full at event time zero, and flag that we know
		// nothing certain about its count or sale rate.
		refCount = initial
		refET = 0
		scores[ReasonMissingCount] = 0.2
	} else {
		refCount = float64(*v.Count)
		refET = ec.At(*v.CountedAt).Seconds()
	}

	saleRate := math.Max(0, (initial-refCount)/math.Max(1, nowET-refET))
	estimated := clamp(initial-nowET*saleRate, 0, initial)

	scores[ReasonRunningLowEstimated] = severity(estimated, refCount)
	scores[ReasonRunningLow] = 0.5 * severity(refCount, initial)

	countAge := math.Max(0, nowET-refET)
	scores[ReasonOutdatedCount] = 0.5 * math.Sqrt(countAge/countAgeNorm.Seconds())

	info.EstimatedCount = estimated
	info.SaleRatePerHour = saleRate * 3600
	info.CountAge = time.Duration(countAge * float64(time.Second))

	return finish(scores, info, false)
}

// severity grows from 0 towards 1 as x shrinks relative to ref, with
// diminishing sensitivity (square root). Undefined ratios count as fully
// severe.
func severity(x, ref float64) float64 {
	if ref <= 0 || x < 0 {
		return 1
	}
	return math.Max(0, 1-math.Sqrt(x/ref))
}

func clamp(x, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, x))
}

func finish(scores map[Reason]float64, info Info, forceZero bool) Priority {
	total := 0.0
	if !forceZero {
		for _, v := range scores {
			total += v
		}
	}

	top := Reason("")
	best := math.Inf(-1)
	for _, r := range reasonOrder {
		v, ok := scores[r]
		if !ok {
			continue
		}
		if v > best {
			best = v
			top = r
		}
	}

	return Priority{Scores: scores, Info: info, Total: total, TopReason: top}
}
