package eventbus

import (
	"context"

	"github.com/c3foc/hagrid/internal/domain"
)

// Noop discards every event. Used when no broker is configured.
type Noop struct{}

func (Noop) CountRecorded(context.Context, domain.CountEvent) error { return nil }

func (Noop) AvailabilityChanged(context.Context, domain.AvailabilityEvent) error { return nil }
