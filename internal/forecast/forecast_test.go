package forecast

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c3foc/hagrid/internal/domain"
	"github.com/c3foc/hagrid/internal/eventclock"
)

var openAt = time.Date(2025, 8, 1, 9, 0, 0, 0, time.UTC)

func openClock() *eventclock.EventClock {
	return eventclock.Build([]domain.StatusChange{{At: openAt, Mode: domain.StatusOpen}})
}

func TestBuild_LinearSellThrough(t *testing.T) {
	t.Parallel()

	// 100 at open, 50 after two hours: a straight line losing 25/h.
	h := VariationHistory{
		Label:         "Shirt (M)",
		InitialAmount: 100,
		CountEvents: []domain.CountEvent{
			{At: openAt.Add(2 * time.Hour), Count: 50},
		},
	}
	now := openAt.Add(4 * time.Hour)

	f := Build([]VariationHistory{h}, openClock(), now)

	require.NotEmpty(t, f.Stock)
	assert.InDelta(t, 100, f.Stock[0].Value, 1e-6)

	// 4h at 300s steps.
	assert.Len(t, f.Stock, 48)
	// One hour in: 75 left.
	assert.InDelta(t, 75, f.Stock[12].Value, 1e-6)

	require.Len(t, f.SaleRate, 4)
	for _, p := range f.SaleRate {
		assert.InDelta(t, 25, p.Value, 1e-6, "constant sale rate in items/hour")
	}

	assert.InDelta(t, 4*3600, f.Now, 1e-6)
}

func TestBuild_SumsAcrossVariations(t *testing.T) {
	t.Parallel()

	histories := []VariationHistory{
		{Label: "A", InitialAmount: 100, CountEvents: []domain.CountEvent{{At: openAt.Add(2 * time.Hour), Count: 50}}},
		{Label: "B", InitialAmount: 40, CountEvents: []domain.CountEvent{{At: openAt.Add(2 * time.Hour), Count: 20}}},
	}
	now := openAt.Add(2 * time.Hour)

	f := Build(histories, openClock(), now)

	require.NotEmpty(t, f.Stock)
	assert.InDelta(t, 140, f.Stock[0].Value, 1e-6, "aggregate starts at summed initial amounts")
}

func TestBuild_NeverCountedAssumesSellOutByEnd(t *testing.T) {
	t.Parallel()

	h := VariationHistory{Label: "C", InitialAmount: 60}
	now := openAt.Add(6 * time.Hour)

	f := Build([]VariationHistory{h}, openClock(), now)

	require.NotEmpty(t, f.Stock)
	assert.InDelta(t, 60, f.Stock[0].Value, 1e-6)
	// Pessimistic default: linear to zero at the current end of the event.
	assert.InDelta(t, 30, f.Stock[len(f.Stock)/2].Value, 1.0)
}

func TestBuild_ZeroEventDuration(t *testing.T) {
	t.Parallel()

	// Store never opened: no series, but nothing blows up.
	ec := eventclock.Build(nil)
	f := Build([]VariationHistory{{Label: "D", InitialAmount: 10}}, ec, openAt)

	assert.Empty(t, f.Stock)
	assert.Empty(t, f.SaleRate)
	assert.Zero(t, f.Now)
	require.Len(t, f.Items, 1)
}

func TestBuild_DuplicateEventTimesCollapse(t *testing.T) {
	t.Parallel()

	// Two counts while closed map to the same event time; the fit must not
	// see contradictory duplicate samples.
	ec := eventclock.Build([]domain.StatusChange{
		{At: openAt, Mode: domain.StatusOpen},
		{At: openAt.Add(2 * time.Hour), Mode: domain.StatusClosed},
	})
	h := VariationHistory{
		Label:         "E",
		InitialAmount: 30,
		CountEvents: []domain.CountEvent{
			{At: openAt.Add(3 * time.Hour), Count: 25},
			{At: openAt.Add(4 * time.Hour), Count: 20},
		},
	}

	f := Build([]VariationHistory{h}, ec, openAt.Add(5*time.Hour))

	require.NotEmpty(t, f.Stock)
	assert.InDelta(t, 30, f.Stock[0].Value, 1e-6)
}

func TestBuild_AvailabilityTimeline(t *testing.T) {
	t.Parallel()

	h := VariationHistory{
		Label:         "Hoodie (L)",
		InitialAmount: 20,
		CountEvents: []domain.CountEvent{
			{At: openAt.Add(1 * time.Hour), Count: 10},
		},
		AvailabilityEvents: []domain.AvailabilityEvent{
			{At: openAt.Add(2 * time.Hour), NewState: domain.AvailabilityFewAvailable},
			{At: openAt.Add(3 * time.Hour), NewState: domain.AvailabilitySoldOut},
		},
	}
	now := openAt.Add(4 * time.Hour)

	f := Build([]VariationHistory{h}, openClock(), now)

	require.Len(t, f.Items, 1)
	segs := f.Items[0].Segments
	require.Len(t, segs, 3)

	assert.Equal(t, Segment{Start: 0, End: 7200, Level: 2}, segs[0])
	assert.Equal(t, Segment{Start: 7200, End: 10800, Level: 1}, segs[1])
	assert.Equal(t, Segment{Start: 10800, End: 14400, Level: 0}, segs[2])
}

func TestBuild_DowntimeMarkers(t *testing.T) {
	t.Parallel()

	ec := eventclock.Build([]domain.StatusChange{
		{At: openAt, Mode: domain.StatusOpen},
		{At: openAt.Add(9 * time.Hour), Mode: domain.StatusClosed},
		{At: openAt.Add(24 * time.Hour), Mode: domain.StatusOpen},
	})

	f := Build(nil, ec, openAt.Add(26*time.Hour))

	assert.Equal(t, []float64{0, 9 * 3600}, f.Downtimes)
}
