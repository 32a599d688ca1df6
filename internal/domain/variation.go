package domain

import "time"

type Availability string

const (
	AvailabilityManyAvailable Availability = "available"
	AvailabilityFewAvailable  Availability = "few available"
	AvailabilitySoldOut       Availability = "sold out"
)

// UnableReason is what a counter reports when they give an assignment back
// without a count.
type UnableReason string

const (
	UnableNeedToGo       UnableReason = "need_to_go"
	UnableCannotFind     UnableReason = "cannot_find"
	UnableSomethingWrong UnableReason = "something_wrong"
	UnableOther          UnableReason = "other"
)

// IsTransient reports whether the reason should put the variation on a
// cooldown instead of releasing it immediately.
func (r UnableReason) IsTransient() bool {
	switch r {
	case UnableCannotFind, UnableSomethingWrong, UnableOther:
		return true
	}
	return false
}

func (r UnableReason) Valid() bool {
	switch r {
	case UnableNeedToGo, UnableCannotFind, UnableSomethingWrong, UnableOther:
		return true
	}
	return false
}

// Variation is one product-and-size inventory line tracked for counting.
//
// The lease (CountReservedUntil) and the cooldown (CountDisabledUntil) are
// never expired by a background job; they are compared against "now" on every
// read, so an elapsed deadline is indistinguishable from an unset one.
type Variation struct {
	ID        string
	ProductID string
	SizeID    string

	InitialAmount int
	Count         *int
	CountedAt     *time.Time

	CountReservedUntil  *time.Time
	CountDisabledUntil  *time.Time
	CountDisabledReason *string
	CountPrioBumped     bool

	// CountVersion increments on every write to the counting fields and backs
	// the optimistic check on submission.
	CountVersion int64

	Availability Availability

	// Display metadata resolved from the catalog.
	ProductName string
	SizeName    string
}

func (v Variation) Label() string {
	return v.ProductName + " (" + v.SizeName + ")"
}

func (v Variation) IsCountReserved(now time.Time) bool {
	return v.CountReservedUntil != nil && v.CountReservedUntil.After(now)
}

func (v Variation) IsCountDisabled(now time.Time) bool {
	return v.CountDisabledUntil != nil && v.CountDisabledUntil.After(now)
}

// ComputedAvailability derives the availability state from the last count.
// It returns "" when no meaningful state can be derived.
func (v Variation) ComputedAvailability() Availability {
	if v.Count == nil || v.InitialAmount == 0 {
		return ""
	}
	count := *v.Count
	if count == 0 {
		return AvailabilitySoldOut
	}
	if count <= 2 || float64(count) < float64(v.InitialAmount)*0.1 {
		return AvailabilityFewAvailable
	}
	return AvailabilityManyAvailable
}
