package app

import (
	"context"

	"github.com/c3foc/hagrid/internal/clock"
	"github.com/c3foc/hagrid/internal/domain"
	"github.com/c3foc/hagrid/internal/eventclock"
	"github.com/c3foc/hagrid/internal/forecast"
)

type ForecastRepository interface {
	ListStatusChanges(ctx context.Context) ([]domain.StatusChange, error)
	ListAllVariations(ctx context.Context) ([]domain.Variation, error)
	ListCountEvents(ctx context.Context) ([]domain.CountEvent, error)
	ListAvailabilityEvents(ctx context.Context) ([]domain.AvailabilityEvent, error)
}

// ForecastService assembles the inputs for the operator chart.
type ForecastService struct {
	repo  ForecastRepository
	clock clock.Clock
}

func NewForecastService(repo ForecastRepository, clk clock.Clock) *ForecastService {
	return &ForecastService{repo: repo, clock: clk}
}

func (s *ForecastService) Forecast(ctx context.Context) (forecast.Forecast, error) {
	changes, err := s.repo.ListStatusChanges(ctx)
	if err != nil {
		return forecast.Forecast{}, err
	}
	ec := eventclock.Build(changes)

	variations, err := s.repo.ListAllVariations(ctx)
	if err != nil {
		return forecast.Forecast{}, err
	}
	countEvents, err := s.repo.ListCountEvents(ctx)
	if err != nil {
		return forecast.Forecast{}, err
	}
	availabilityEvents, err := s.repo.ListAvailabilityEvents(ctx)
	if err != nil {
		return forecast.Forecast{}, err
	}

	countsByVariation := make(map[string][]domain.CountEvent)
	for _, e := range countEvents {
		countsByVariation[e.VariationID] = append(countsByVariation[e.VariationID], e)
	}
	availByVariation := make(map[string][]domain.AvailabilityEvent)
	for _, e := range availabilityEvents {
		availByVariation[e.VariationID] = append(availByVariation[e.VariationID], e)
	}

	histories := make([]forecast.VariationHistory, 0, len(variations))
	for _, v := range variations {
		histories = append(histories, forecast.VariationHistory{
			Label:              v.Label(),
			InitialAmount:      v.InitialAmount,
			CountEvents:        countsByVariation[v.ID],
			AvailabilityEvents: availByVariation[v.ID],
		})
	}

	return forecast.Build(histories, ec, s.clock.Now()), nil
}
