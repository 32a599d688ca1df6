package scoring

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c3foc/hagrid/internal/domain"
	"github.com/c3foc/hagrid/internal/eventclock"
)

var (
	openAt = time.Date(2025, 8, 1, 9, 0, 0, 0, time.UTC)
	clk    = eventclock.Build([]domain.StatusChange{{At: openAt, Mode: domain.StatusOpen}})
)

func intp(v int) *int { return &v }

func timep(t time.Time) *time.Time { return &t }

func TestScore_DepletedAlwaysZero(t *testing.T) {
	t.Parallel()

	v := domain.Variation{
		InitialAmount:   100,
		Count:           intp(0),
		CountedAt:       timep(openAt.Add(time.Hour)),
		CountPrioBumped: true,
	}

	p := Score(v, clk, openAt.Add(6*time.Hour))

	assert.Zero(t, p.Total, "sold-out lines never need recounting")
	assert.Contains(t, p.Scores, ReasonDepleted)
}

func TestScore_NoInitialAmountIsZero(t *testing.T) {
	t.Parallel()

	p := Score(domain.Variation{InitialAmount: 0, Count: intp(5)}, clk, openAt.Add(time.Hour))

	assert.Zero(t, p.Total)
	assert.Contains(t, p.Scores, ReasonInvalid)
}

func TestScore_BumpedDominates(t *testing.T) {
	t.Parallel()

	v := domain.Variation{
		InitialAmount:   100,
		Count:           intp(90),
		CountedAt:       timep(openAt.Add(time.Hour)),
		CountPrioBumped: true,
	}

	p := Score(v, clk, openAt.Add(2*time.Hour))

	assert.Equal(t, 1.0, p.Scores[ReasonBumped])
	assert.GreaterOrEqual(t, p.Total, 1.0)
	assert.Equal(t, ReasonBumped, p.TopReason)
}

func TestScore_NeverCounted(t *testing.T) {
	t.Parallel()

	v := domain.Variation{InitialAmount: 100}

	p := Score(v, clk, openAt.Add(3*time.Hour))

	require.Contains(t, p.Scores, ReasonMissingCount)
	assert.Equal(t, 0.2, p.Scores[ReasonMissingCount])
	assert.Equal(t, 100.0, p.Info.EstimatedCount, "no sales observed, assume still full")
	assert.Zero(t, p.Info.SaleRatePerHour)
	// Three hours without any count at all.
	assert.Equal(t, 3*time.Hour, p.Info.CountAge)
}

func TestScore_EstimatesFromLastCount(t *testing.T) {
	t.Parallel()

	// Counted 60 of 100 left after two open hours; scored two hours later.
	v := domain.Variation{
		InitialAmount: 100,
		Count:         intp(60),
		CountedAt:     timep(openAt.Add(2 * time.Hour)),
	}
	now := openAt.Add(4 * time.Hour)

	p := Score(v, clk, now)

	// 40 sold over the 2h between count and now: 20/h.
	assert.InDelta(t, 20.0, p.Info.SaleRatePerHour, 1e-6)
	// Projected over all 4 open hours: 100 - 4*20 = 20 remain.
	assert.InDelta(t, 20.0, p.Info.EstimatedCount, 1e-6)
	assert.Equal(t, 2*time.Hour, p.Info.CountAge)

	assert.InDelta(t, 1-math.Sqrt(20.0/60.0), p.Scores[ReasonRunningLowEstimated], 1e-6)
	assert.InDelta(t, 0.5*(1-math.Sqrt(60.0/100.0)), p.Scores[ReasonRunningLow], 1e-6)
	// Count age 2h against the 4h normalization.
	assert.InDelta(t, 0.5*math.Sqrt(0.5), p.Scores[ReasonOutdatedCount], 1e-6)

	sum := 0.0
	for _, s := range p.Scores {
		sum += s
	}
	assert.InDelta(t, sum, p.Total, 1e-9)
}

func TestScore_FreshFullCountScoresLow(t *testing.T) {
	t.Parallel()

	now := openAt.Add(5 * time.Hour)
	v := domain.Variation{
		InitialAmount: 50,
		Count:         intp(50),
		CountedAt:     timep(now),
	}

	p := Score(v, clk, now)

	assert.InDelta(t, 0, p.Total, 1e-9)
}

func TestScore_ClosedStoreFreezesAging(t *testing.T) {
	t.Parallel()

	closed := eventclock.Build([]domain.StatusChange{
		{At: openAt, Mode: domain.StatusOpen},
		{At: openAt.Add(9 * time.Hour), Mode: domain.StatusClosed},
	})

	v := domain.Variation{
		InitialAmount: 100,
		Count:         intp(80),
		CountedAt:     timep(openAt.Add(8 * time.Hour)),
	}

	atClose := Score(v, closed, openAt.Add(9*time.Hour))
	overnight := Score(v, closed, openAt.Add(20*time.Hour))

	assert.Equal(t, atClose.Scores[ReasonOutdatedCount], overnight.Scores[ReasonOutdatedCount],
		"staleness must not grow while the store is closed")
	assert.Equal(t, atClose.Total, overnight.Total)
}

func TestScore_TopReasonTieBreaksByOrder(t *testing.T) {
	t.Parallel()

	// A fresh, full count makes every organic component zero; the tie must
	// resolve to the earliest reason in the fixed enumeration order.
	now := openAt
	v := domain.Variation{
		InitialAmount: 10,
		Count:         intp(10),
		CountedAt:     timep(now),
	}

	p := Score(v, clk, now)

	assert.Equal(t, ReasonRunningLowEstimated, p.TopReason)
}
