package domain

import "time"

// CountEvent is an append-only log row recording one submitted count.
type CountEvent struct {
	ID          string
	VariationID string
	At          time.Time
	Count       int
	Name        string
	Comment     string
}

// AvailabilityEvent records a transition of a variation's availability state.
type AvailabilityEvent struct {
	ID          string
	VariationID string
	At          time.Time
	OldState    Availability
	NewState    Availability
}
