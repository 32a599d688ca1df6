package app

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/c3foc/hagrid/internal/clock"
	"github.com/c3foc/hagrid/internal/domain"
)

type ScheduleRepository interface {
	ListStatusChanges(ctx context.Context) ([]domain.StatusChange, error)
	AppendStatusChange(ctx context.Context, change domain.StatusChange) error
	SetCountingEnabled(ctx context.Context, enabled bool) error
}

// ScheduleService manages the open/closed status ledger.
type ScheduleService struct {
	repo  ScheduleRepository
	clock clock.Clock
}

func NewScheduleService(repo ScheduleRepository, clk clock.Clock) *ScheduleService {
	return &ScheduleService{repo: repo, clock: clk}
}

func (s *ScheduleService) List(ctx context.Context) ([]domain.StatusChange, error) {
	return s.repo.ListStatusChanges(ctx)
}

type AppendStatusChangeInput struct {
	At         *time.Time
	Mode       domain.StatusMode
	Comment    string
	PublicInfo string
}

func (s *ScheduleService) Append(ctx context.Context, in AppendStatusChangeInput) (domain.StatusChange, error) {
	if !in.Mode.Valid() {
		return domain.StatusChange{}, domain.ErrInvalidStatusMode
	}
	at := s.clock.Now()
	if in.At != nil {
		at = *in.At
	}

	change := domain.StatusChange{
		ID:         uuid.NewString(),
		At:         at,
		Mode:       in.Mode,
		Comment:    in.Comment,
		PublicInfo: in.PublicInfo,
	}
	if err := s.repo.AppendStatusChange(ctx, change); err != nil {
		return domain.StatusChange{}, err
	}
	return change, nil
}

// CurrentStatus describes the interval "now" falls into, for the dashboard.
type CurrentStatus struct {
	Mode       domain.StatusMode
	Open       bool
	Since      *time.Time
	Until      *time.Time
	PublicInfo string
}

// Current derives the store status from the ledger: the last change before
// now rules, the next change bounds it. Before the first entry the store is
// closed.
func (s *ScheduleService) Current(ctx context.Context) (CurrentStatus, error) {
	changes, err := s.repo.ListStatusChanges(ctx)
	if err != nil {
		return CurrentStatus{}, err
	}

	now := s.clock.Now()
	status := CurrentStatus{Mode: domain.StatusClosed}
	for i := range changes {
		c := changes[i]
		if !c.At.After(now) {
			status.Mode = c.Mode
			status.Since = &changes[i].At
			status.PublicInfo = c.PublicInfo
			continue
		}
		status.Until = &changes[i].At
		if status.PublicInfo == "" {
			status.PublicInfo = c.PublicInfo
		}
		break
	}
	status.Open = status.Mode == domain.StatusOpen
	return status, nil
}

// SetCountingEnabled flips the store-wide counting kill-switch.
func (s *ScheduleService) SetCountingEnabled(ctx context.Context, enabled bool) error {
	return s.repo.SetCountingEnabled(ctx, enabled)
}
