package app

import (
	"context"
	"sort"
	"time"

	"github.com/c3foc/hagrid/internal/clock"
	"github.com/c3foc/hagrid/internal/domain"
	"github.com/c3foc/hagrid/internal/eventclock"
	"github.com/c3foc/hagrid/internal/scoring"
)

type OverviewRepository interface {
	ListStatusChanges(ctx context.Context) ([]domain.StatusChange, error)
	ListAllVariations(ctx context.Context) ([]domain.Variation, error)
	ListCountEvents(ctx context.Context) ([]domain.CountEvent, error)
	SetPrioBumped(ctx context.Context, variationID string, bumped bool) error
	ClearCountDisabled(ctx context.Context, variationID string) error
}

// OverviewService backs the operator's priority table and its admin actions.
type OverviewService struct {
	repo  OverviewRepository
	clock clock.Clock
}

func NewOverviewService(repo OverviewRepository, clk clock.Clock) *OverviewService {
	return &OverviewService{repo: repo, clock: clk}
}

type PriorityRow struct {
	Variation domain.Variation
	Priority  scoring.Priority
}

// Overview scores every variation and returns rows ordered by descending
// total, catalog order within ties.
func (s *OverviewService) Overview(ctx context.Context) ([]PriorityRow, error) {
	changes, err := s.repo.ListStatusChanges(ctx)
	if err != nil {
		return nil, err
	}
	ec := eventclock.Build(changes)

	variations, err := s.repo.ListAllVariations(ctx)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	rows := make([]PriorityRow, 0, len(variations))
	for _, v := range variations {
		rows = append(rows, PriorityRow{Variation: v, Priority: scoring.Score(v, ec, now)})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Priority.Total > rows[j].Priority.Total
	})
	return rows, nil
}

// Bump toggles the manual priority override.
func (s *OverviewService) Bump(ctx context.Context, variationID string, bumped bool) error {
	return s.repo.SetPrioBumped(ctx, variationID, bumped)
}

// ClearDisabled force-clears a cooldown regardless of its remaining window.
func (s *OverviewService) ClearDisabled(ctx context.Context, variationID string) error {
	return s.repo.ClearCountDisabled(ctx, variationID)
}

type CountLogEntry struct {
	Event domain.CountEvent
	// Age is the event-time age of the entry, so it does not grow overnight.
	Age time.Duration
}

// CountLog lists submitted counts, newest first.
func (s *OverviewService) CountLog(ctx context.Context) ([]CountLogEntry, error) {
	changes, err := s.repo.ListStatusChanges(ctx)
	if err != nil {
		return nil, err
	}
	ec := eventclock.Build(changes)
	now := ec.At(s.clock.Now())

	events, err := s.repo.ListCountEvents(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].At.After(events[j].At)
	})

	entries := make([]CountLogEntry, 0, len(events))
	for _, e := range events {
		entries = append(entries, CountLogEntry{Event: e, Age: now - ec.At(e.At)})
	}
	return entries, nil
}
