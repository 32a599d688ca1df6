package eventclock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/c3foc/hagrid/internal/domain"
)

func day(d, hour int) time.Time {
	return time.Date(2025, 8, d, hour, 0, 0, 0, time.UTC)
}

func ledger(entries ...domain.StatusChange) []domain.StatusChange {
	return entries
}

func change(at time.Time, mode domain.StatusMode) domain.StatusChange {
	return domain.StatusChange{At: at, Mode: mode}
}

func TestEventClock_TwoDaySchedule(t *testing.T) {
	t.Parallel()

	ec := Build(ledger(
		change(day(1, 9), domain.StatusOpen),
		change(day(1, 18), domain.StatusClosed),
		change(day(2, 9), domain.StatusOpen),
	))

	assert.Equal(t, 3*time.Hour, ec.At(day(1, 12)), "inside first open interval")
	assert.Equal(t, 9*time.Hour, ec.At(day(1, 18)), "at closing")
	assert.Equal(t, 9*time.Hour, ec.At(day(1, 20)), "frozen overnight")
	assert.Equal(t, 10*time.Hour, ec.At(day(2, 10)), "second day resumes")
}

func TestEventClock_ZeroBeforeFirstEntry(t *testing.T) {
	t.Parallel()

	ec := Build(ledger(change(day(1, 9), domain.StatusOpen)))

	assert.Equal(t, time.Duration(0), ec.At(day(1, 8)))
	assert.Equal(t, time.Duration(0), ec.At(day(1, 9).Add(-time.Nanosecond)))
}

func TestEventClock_EmptyLedger(t *testing.T) {
	t.Parallel()

	ec := Build(nil)

	assert.Equal(t, time.Duration(0), ec.At(day(1, 12)))
	assert.Equal(t, time.Duration(0), ec.TotalAt(day(1, 12)))
	assert.Empty(t, ec.Downtimes())
}

func TestEventClock_PresaleDoesNotAdvance(t *testing.T) {
	t.Parallel()

	ec := Build(ledger(
		change(day(1, 8), domain.StatusPresale),
		change(day(1, 10), domain.StatusOpen),
		change(day(1, 12), domain.StatusClosed),
	))

	assert.Equal(t, time.Duration(0), ec.At(day(1, 9)), "flat during presale")
	assert.Equal(t, time.Duration(0), ec.At(day(1, 10)))
	assert.Equal(t, time.Hour, ec.At(day(1, 11)))
	assert.Equal(t, 2*time.Hour, ec.At(day(1, 14)), "flat after closing")
}

func TestEventClock_FlatWithinNonOpenInterval(t *testing.T) {
	t.Parallel()

	ec := Build(ledger(
		change(day(1, 9), domain.StatusOpen),
		change(day(1, 18), domain.StatusClosed),
		change(day(2, 9), domain.StatusOpen),
	))

	// Any two instants inside the same non-open interval map to the same value.
	assert.Equal(t, ec.At(day(1, 19)), ec.At(day(2, 8)))
}

func TestEventClock_Monotonic(t *testing.T) {
	t.Parallel()

	ec := Build(ledger(
		change(day(1, 8), domain.StatusPresale),
		change(day(1, 9), domain.StatusOpen),
		change(day(1, 18), domain.StatusClosed),
		change(day(2, 9), domain.StatusOpen),
		change(day(2, 17), domain.StatusPresale),
		change(day(2, 19), domain.StatusClosed),
	))

	start := day(1, 0)
	prev := time.Duration(-1)
	for minutes := 0; minutes < 3*24*60; minutes += 7 {
		at := ec.At(start.Add(time.Duration(minutes) * time.Minute))
		if at < prev {
			t.Fatalf("event time decreased at +%dmin: %v < %v", minutes, at, prev)
		}
		prev = at
	}
}

func TestEventClock_UnsortedLedger(t *testing.T) {
	t.Parallel()

	ec := Build(ledger(
		change(day(2, 9), domain.StatusOpen),
		change(day(1, 9), domain.StatusOpen),
		change(day(1, 18), domain.StatusClosed),
	))

	assert.Equal(t, 10*time.Hour, ec.At(day(2, 10)))
}

func TestEventClock_Downtimes(t *testing.T) {
	t.Parallel()

	ec := Build(ledger(
		change(day(1, 9), domain.StatusOpen),
		change(day(1, 18), domain.StatusClosed),
		change(day(2, 9), domain.StatusOpen),
		change(day(2, 18), domain.StatusClosed),
		change(day(3, 9), domain.StatusOpen),
	))

	assert.Equal(t, []time.Duration{0, 9 * time.Hour, 18 * time.Hour}, ec.Downtimes())
}
