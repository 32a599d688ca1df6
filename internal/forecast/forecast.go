// Package forecast estimates remaining stock and sale velocity across the
// whole event from sparse, irregularly timed manual counts.
//
// The model fits one low-degree polynomial per variation and sums the
// coefficients into a single aggregate curve. That superposition is a
// deliberate simplifying approximation the operator charts are built around,
// not a rigorous statistical model.
package forecast

import (
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/c3foc/hagrid/internal/domain"
	"github.com/c3foc/hagrid/internal/eventclock"
)

// MaxFitDegree caps the per-variation polynomial; it is reduced automatically
// when a variation has fewer samples than coefficients.
const MaxFitDegree = 2

const (
	stockStep = 5 * time.Minute
	rateStep  = time.Hour
)

// VariationHistory is the per-line input: the starting amount plus the full
// count and availability logs.
type VariationHistory struct {
	Label              string
	InitialAmount      int
	CountEvents        []domain.CountEvent
	AvailabilityEvents []domain.AvailabilityEvent
}

// Point is a sample of a curve over event time (seconds).
type Point struct {
	T     float64 `json:"t"`
	Value float64 `json:"value"`
}

// Segment is one flat span of an availability timeline.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Level int     `json:"level"`
}

// ItemTimeline is a variation's availability history over event time.
// Levels: 2 available, 1 running low, 0 sold out.
type ItemTimeline struct {
	Label    string    `json:"label"`
	Segments []Segment `json:"segments"`
}

type Forecast struct {
	Now       float64        `json:"now"`
	Stock     []Point        `json:"stock"`
	SaleRate  []Point        `json:"saleRate"`
	Downtimes []float64      `json:"downtimes"`
	Items     []ItemTimeline `json:"items"`
}

// Build computes the aggregate stock and sale-rate series plus per-item
// availability timelines. Degenerate inputs (no counts, zero event duration)
// fall back to documented defaults and never fail.
func Build(histories []VariationHistory, ec *eventclock.EventClock, now time.Time) Forecast {
	total := ec.TotalAt(now).Seconds()

	var coeffs [MaxFitDegree + 1]float64
	for _, h := range histories {
		c := fitHistory(h, ec, total)
		for i, v := range c {
			coeffs[i] += v
		}
	}

	f := Forecast{
		Now:       ec.At(now).Seconds(),
		Stock:     sampleCurve(total, stockStep, func(x float64) float64 { return polyEval(coeffs[:], x) }),
		SaleRate:  sampleCurve(total, rateStep, func(x float64) float64 { return -polyDerivEval(coeffs[:], x) * 3600 }),
		Items:     make([]ItemTimeline, 0, len(histories)),
		Downtimes: make([]float64, 0),
	}
	for _, d := range ec.Downtimes() {
		f.Downtimes = append(f.Downtimes, d.Seconds())
	}
	for _, h := range histories {
		f.Items = append(f.Items, timeline(h, ec, total))
	}
	return f
}

// fitHistory fits one variation's remaining-stock polynomial. Samples are
// keyed by event time so a later count at the same instant replaces an
// earlier one; the initial amount always wins the slot at zero.
func fitHistory(h VariationHistory, ec *eventclock.EventClock, total float64) []float64 {
	samples := make(map[float64]float64)
	for _, e := range h.CountEvents {
		samples[ec.At(e.At).Seconds()] = float64(e.Count)
	}
	if len(samples) == 0 {
		// Never counted: pretend full sell-through by event end.
		samples[total] = 0
	}
	samples[0] = float64(h.InitialAmount)

	xs := make([]float64, 0, len(samples))
	for x := range samples {
		xs = append(xs, x)
	}
	sort.Float64s(xs)
	ys := make([]float64, len(xs))
	for i, x := range xs {
		ys[i] = samples[x]
	}

	degree := MaxFitDegree
	if len(xs)-1 < degree {
		degree = len(xs) - 1
	}

	for ; degree > 0; degree-- {
		if c, err := polyfit(xs, ys, degree); err == nil {
			return c
		}
	}

	// Constant fallback: mean of the samples.
	sum := 0.0
	for _, y := range ys {
		sum += y
	}
	return []float64{sum / float64(len(ys))}
}

func polyfit(xs, ys []float64, degree int) ([]float64, error) {
	a := mat.NewDense(len(xs), degree+1, nil)
	for i, x := range xs {
		v := 1.0
		for j := 0; j <= degree; j++ {
			a.Set(i, j, v)
			v *= x
		}
	}
	b := mat.NewVecDense(len(ys), append([]float64(nil), ys...))

	var qr mat.QR
	qr.Factorize(a)

	var sol mat.VecDense
	if err := qr.SolveVecTo(&sol, false, b); err != nil {
		if _, degenerate := err.(mat.Condition); !degenerate {
			return nil, err
		}
	}

	out := make([]float64, degree+1)
	for i := range out {
		out[i] = sol.AtVec(i)
	}
	return out, nil
}

func polyEval(coeffs []float64, x float64) float64 {
	sum := 0.0
	for i := len(coeffs) - 1; i >= 0; i-- {
		sum = sum*x + coeffs[i]
	}
	return sum
}

func polyDerivEval(coeffs []float64, x float64) float64 {
	sum := 0.0
	for i := len(coeffs) - 1; i >= 1; i-- {
		sum = sum*x + float64(i)*coeffs[i]
	}
	return sum
}

func sampleCurve(total float64, step time.Duration, eval func(float64) float64) []Point {
	steps := int(math.Ceil(total / step.Seconds()))
	points := make([]Point, 0, max(steps, 0))
	for i := 0; i < steps; i++ {
		x := float64(i) * step.Seconds()
		points = append(points, Point{T: x, Value: eval(x)})
	}
	return points
}

func availabilityLevel(state domain.Availability) int {
	switch state {
	case domain.AvailabilityManyAvailable:
		return 2
	case domain.AvailabilityFewAvailable:
		return 1
	default:
		return 0
	}
}

// timeline flattens a variation's availability log into ordered segments
// ending at the total event duration. Lines start fully available.
func timeline(h VariationHistory, ec *eventclock.EventClock, total float64) ItemTimeline {
	levels := map[float64]int{0: 2}
	for _, e := range h.AvailabilityEvents {
		levels[ec.At(e.At).Seconds()] = availabilityLevel(e.NewState)
	}

	xs := make([]float64, 0, len(levels))
	for x := range levels {
		xs = append(xs, x)
	}
	sort.Float64s(xs)

	segments := make([]Segment, 0, len(xs))
	for i, x := range xs {
		end := total
		if i+1 < len(xs) {
			end = xs[i+1]
		}
		segments = append(segments, Segment{Start: x, End: end, Level: levels[x]})
	}
	return ItemTimeline{Label: h.Label, Segments: segments}
}
