// Package eventclock maps wall-clock time onto "event time": the cumulative
// duration the store has been open. Event time is the time basis for all
// sale-rate and staleness computations, so closed and presale periods must
// not advance it.
package eventclock

import (
	"sort"
	"time"

	"github.com/c3foc/hagrid/internal/domain"
)

// EventClock is an immutable snapshot derived from a status-change ledger.
// Build one per computation; construction is O(len(ledger)) and the expected
// ledger holds tens of entries, so no caching is done.
type EventClock struct {
	times      []time.Time
	modes      []domain.StatusMode
	cumulative []time.Duration
	downtimes  []time.Duration
}

// Build constructs a snapshot from the ledger. Entries are sorted by
// timestamp; the input slice is not modified.
func Build(changes []domain.StatusChange) *EventClock {
	sorted := append([]domain.StatusChange(nil), changes...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].At.Before(sorted[j].At)
	})

	ec := &EventClock{
		times:      make([]time.Time, len(sorted)),
		modes:      make([]domain.StatusMode, len(sorted)),
		cumulative: make([]time.Duration, len(sorted)),
	}

	var total time.Duration
	for i, c := range sorted {
		if i > 0 && ec.modes[i-1] == domain.StatusOpen {
			total += c.At.Sub(ec.times[i-1])
		}
		ec.times[i] = c.At
		ec.modes[i] = c.Mode
		ec.cumulative[i] = total

		opening := c.Mode == domain.StatusOpen && (i == 0 || ec.modes[i-1] != domain.StatusOpen)
		if opening {
			ec.downtimes = append(ec.downtimes, total)
		}
	}
	return ec
}

// At converts a wall-clock instant to event time. It is monotonic
// non-decreasing, returns 0 before the first ledger entry, stays flat inside
// closed and presale intervals and advances 1:1 inside open intervals.
func (ec *EventClock) At(t time.Time) time.Duration {
	idx := sort.Search(len(ec.times), func(i int) bool {
		return ec.times[i].After(t)
	}) - 1
	if idx < 0 {
		return 0
	}

	et := ec.cumulative[idx]
	if ec.modes[idx] == domain.StatusOpen {
		et += t.Sub(ec.times[idx])
	}
	return et
}

// TotalAt is the total event duration as of now.
func (ec *EventClock) TotalAt(now time.Time) time.Duration {
	return ec.At(now)
}

// Downtimes returns the event-time offsets at which open periods began.
// Timelines use them to draw the gaps between opening days.
func (ec *EventClock) Downtimes() []time.Duration {
	return append([]time.Duration(nil), ec.downtimes...)
}
