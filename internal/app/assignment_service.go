package app

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/c3foc/hagrid/internal/clock"
	"github.com/c3foc/hagrid/internal/domain"
	"github.com/c3foc/hagrid/internal/eventclock"
	"github.com/c3foc/hagrid/internal/scoring"
)

// AssignmentRepository is the storage surface of the counting queue.
//
// ReserveVariation must be a single atomic read-modify-write: it places the
// lease only if the variation is still eligible at "now" and returns nil when
// the compare-and-set lost to a competing counter.
type AssignmentRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	StoreSettings(ctx context.Context) (domain.StoreSettings, error)
	FindAccessCode(ctx context.Context, code string) (domain.AccessCode, error)
	ListStatusChanges(ctx context.Context) ([]domain.StatusChange, error)
	ListVariationsInScope(ctx context.Context, scope domain.Scope) ([]domain.Variation, error)
	ReserveVariation(ctx context.Context, variationID string, until, now time.Time) (*domain.Variation, error)
	GetVariationInScopeForUpdate(ctx context.Context, scope domain.Scope, variationID string) (domain.Variation, error)
	ApplyCount(ctx context.Context, variationID string, count int, countedAt time.Time, availability domain.Availability) error
	SetCountUnavailability(ctx context.Context, variationID string, reason *string, until *time.Time) error
	AppendCountEvent(ctx context.Context, event domain.CountEvent) error
	AppendAvailabilityEvent(ctx context.Context, event domain.AvailabilityEvent) error
}

// Publisher notifies the surrounding application of count activity.
// Publishing is best-effort; failures must not affect the submission.
type Publisher interface {
	CountRecorded(ctx context.Context, event domain.CountEvent) error
	AvailabilityChanged(ctx context.Context, event domain.AvailabilityEvent) error
}

type AssignmentService struct {
	repo      AssignmentRepository
	clock     clock.Clock
	publisher Publisher
	leaseTTL  time.Duration
	cooldown  time.Duration
}

const (
	defaultLeaseTTL = 15 * time.Minute
	defaultCooldown = 15 * time.Minute
)

type AssignmentServiceOption func(*AssignmentService)

// WithLeaseTTL overrides how long an assignment stays reserved.
func WithLeaseTTL(d time.Duration) AssignmentServiceOption {
	return func(s *AssignmentService) {
		if d > 0 {
			s.leaseTTL = d
		}
	}
}

// WithCooldown overrides the disable window set by transient unable reports.
func WithCooldown(d time.Duration) AssignmentServiceOption {
	return func(s *AssignmentService) {
		if d > 0 {
			s.cooldown = d
		}
	}
}

// WithPublisher wires an event publisher; without one nothing is emitted.
func WithPublisher(p Publisher) AssignmentServiceOption {
	return func(s *AssignmentService) {
		s.publisher = p
	}
}

func NewAssignmentService(repo AssignmentRepository, clk clock.Clock, opts ...AssignmentServiceOption) *AssignmentService {
	svc := &AssignmentService{
		repo:     repo,
		clock:    clk,
		leaseTTL: defaultLeaseTTL,
		cooldown: defaultCooldown,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Assignment is one reserved counting task. The variation carries the
// post-reservation CountVersion the counter must echo back on submission.
type Assignment struct {
	Variation     domain.Variation
	Priority      scoring.Priority
	ReservedUntil time.Time
}

// RequestNext hands out the highest-priority variation in the access code's
// scope, or nil when nothing is eligible. Ties rank in catalog order.
//
// Under concurrent calls at most one caller wins any given variation while
// its lease is live; losers fall through to the next-ranked candidate.
func (s *AssignmentService) RequestNext(ctx context.Context, code string) (*Assignment, error) {
	ac, err := s.authorize(ctx, code)
	if err != nil {
		return nil, err
	}
	if !ac.AsQueue {
		return nil, domain.ErrNotQueueCode
	}

	now := s.clock.Now()
	ec, err := s.buildEventClock(ctx)
	if err != nil {
		return nil, err
	}

	variations, err := s.repo.ListVariationsInScope(ctx, ac.Scope)
	if err != nil {
		return nil, err
	}

	type candidate struct {
		variation domain.Variation
		priority  scoring.Priority
	}
	candidates := make([]candidate, 0, len(variations))
	for _, v := range variations {
		if v.Count != nil && *v.Count == 0 {
			continue
		}
		if v.IsCountReserved(now) || v.IsCountDisabled(now) {
			continue
		}
		candidates = append(candidates, candidate{variation: v, priority: scoring.Score(v, ec, now)})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].priority.Total > candidates[j].priority.Total
	})

	until := now.Add(s.leaseTTL)
	for _, c := range candidates {
		reserved, err := s.repo.ReserveVariation(ctx, c.variation.ID, until, now)
		if err != nil {
			return nil, err
		}
		if reserved == nil {
			// Lost the race for this one; the next-ranked candidate is ours to try.
			continue
		}
		return &Assignment{Variation: *reserved, Priority: c.priority, ReservedUntil: until}, nil
	}
	return nil, nil
}

// CountSubmission is one submitted value. ExpectedVersion is set for
// queue-mode submissions and detects a lease lost since the assignment.
type CountSubmission struct {
	VariationID     string
	Count           int
	ExpectedVersion *int64
}

type SubmitInput struct {
	Code    string
	Entries []CountSubmission
	Name    string
	Comment string
}

type SubmitResult struct {
	Total        int
	ItemsChanged int
}

// SubmitCounts records counted values. Each changed variation gets exactly
// one CountEvent; its lease, cooldown and bump flag are cleared and its
// availability state recomputed.
func (s *AssignmentService) SubmitCounts(ctx context.Context, in SubmitInput) (SubmitResult, error) {
	for _, e := range in.Entries {
		if e.Count < 0 {
			return SubmitResult{}, domain.ErrInvalidCount
		}
	}

	ac, err := s.authorize(ctx, in.Code)
	if err != nil {
		return SubmitResult{}, err
	}

	now := s.clock.Now()
	var result SubmitResult
	var countEvents []domain.CountEvent
	var availabilityEvents []domain.AvailabilityEvent

	err = s.repo.WithTx(ctx, func(txCtx context.Context) error {
		for _, entry := range in.Entries {
			variation, err := s.repo.GetVariationInScopeForUpdate(txCtx, ac.Scope, entry.VariationID)
			if err != nil {
				return err
			}
			if entry.ExpectedVersion != nil && *entry.ExpectedVersion != variation.CountVersion {
				return domain.ErrAssignmentConflict
			}

			count := entry.Count
			updated := variation
			updated.Count = &count
			newState := updated.ComputedAvailability()

			applyState := domain.Availability("")
			if newState != "" && newState != variation.Availability {
				applyState = newState
				availabilityEvents = append(availabilityEvents, domain.AvailabilityEvent{
					ID:          uuid.NewString(),
					VariationID: variation.ID,
					At:          now,
					OldState:    variation.Availability,
					NewState:    newState,
				})
			}

			if err := s.repo.ApplyCount(txCtx, variation.ID, count, now, applyState); err != nil {
				return err
			}

			countEvents = append(countEvents, domain.CountEvent{
				ID:          uuid.NewString(),
				VariationID: variation.ID,
				At:          now,
				Count:       count,
				Name:        in.Name,
				Comment:     in.Comment,
			})

			result.Total += count
			result.ItemsChanged++
		}

		for _, e := range availabilityEvents {
			if err := s.repo.AppendAvailabilityEvent(txCtx, e); err != nil {
				return err
			}
		}
		for _, e := range countEvents {
			if err := s.repo.AppendCountEvent(txCtx, e); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return SubmitResult{}, err
	}

	if s.publisher != nil {
		// The counts are committed; publishing failures are the bus's problem.
		for _, e := range countEvents {
			_ = s.publisher.CountRecorded(ctx, e)
		}
		for _, e := range availabilityEvents {
			_ = s.publisher.AvailabilityChanged(ctx, e)
		}
	}

	return result, nil
}

// ReportUnable releases an assignment without a count. Transient reasons put
// the variation on a cooldown so the next counter is not sent straight back;
// a counter who just has to leave frees it immediately.
func (s *AssignmentService) ReportUnable(ctx context.Context, code, variationID string, reason domain.UnableReason) error {
	if !reason.Valid() {
		return domain.ErrInvalidUnableReason
	}

	ac, err := s.authorize(ctx, code)
	if err != nil {
		return err
	}

	now := s.clock.Now()
	return s.repo.WithTx(ctx, func(txCtx context.Context) error {
		variation, err := s.repo.GetVariationInScopeForUpdate(txCtx, ac.Scope, variationID)
		if err != nil {
			return err
		}

		if reason.IsTransient() {
			reasonStr := string(reason)
			until := now.Add(s.cooldown)
			return s.repo.SetCountUnavailability(txCtx, variation.ID, &reasonStr, &until)
		}
		return s.repo.SetCountUnavailability(txCtx, variation.ID, nil, nil)
	})
}

func (s *AssignmentService) authorize(ctx context.Context, code string) (domain.AccessCode, error) {
	settings, err := s.repo.StoreSettings(ctx)
	if err != nil {
		return domain.AccessCode{}, err
	}
	if !settings.CountingEnabled {
		return domain.AccessCode{}, domain.ErrCountingDisabled
	}
	return s.repo.FindAccessCode(ctx, code)
}

// ListScope returns the full scoped variation list for free-pick codes.
func (s *AssignmentService) ListScope(ctx context.Context, code string) ([]domain.Variation, error) {
	ac, err := s.authorize(ctx, code)
	if err != nil {
		return nil, err
	}
	return s.repo.ListVariationsInScope(ctx, ac.Scope)
}

func (s *AssignmentService) buildEventClock(ctx context.Context) (*eventclock.EventClock, error) {
	changes, err := s.repo.ListStatusChanges(ctx)
	if err != nil {
		return nil, err
	}
	return eventclock.Build(changes), nil
}
