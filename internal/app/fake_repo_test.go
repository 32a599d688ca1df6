package app

import (
	"context"
	"sync"
	"time"

	"github.com/c3foc/hagrid/internal/domain"
)

// fakeRepo is an in-memory stand-in for the Postgres repositories. All
// methods serialize through one mutex, which is what makes ReserveVariation
// an atomic compare-and-set here.
type fakeRepo struct {
	mu sync.Mutex

	settings           domain.StoreSettings
	codes              map[string]domain.AccessCode
	variations         []domain.Variation
	sizeGroupBySize    map[string]string
	changes            []domain.StatusChange
	countEvents        []domain.CountEvent
	availabilityEvents []domain.AvailabilityEvent
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		settings:        domain.StoreSettings{CountingEnabled: true},
		codes:           make(map[string]domain.AccessCode),
		sizeGroupBySize: make(map[string]string),
	}
}

func (f *fakeRepo) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (f *fakeRepo) StoreSettings(context.Context) (domain.StoreSettings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.settings, nil
}

func (f *fakeRepo) SetCountingEnabled(_ context.Context, enabled bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.settings.CountingEnabled = enabled
	return nil
}

func (f *fakeRepo) FindAccessCode(_ context.Context, code string) (domain.AccessCode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ac, ok := f.codes[code]
	if !ok || ac.Disabled {
		return domain.AccessCode{}, domain.ErrAccessCodeNotFound
	}
	return ac, nil
}

func (f *fakeRepo) ListStatusChanges(context.Context) ([]domain.StatusChange, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.StatusChange(nil), f.changes...), nil
}

func (f *fakeRepo) AppendStatusChange(_ context.Context, change domain.StatusChange) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.changes = append(f.changes, change)
	return nil
}

func (f *fakeRepo) matchesScope(v domain.Variation, scope domain.Scope) bool {
	if len(scope.ProductIDs) > 0 && !contains(scope.ProductIDs, v.ProductID) {
		return false
	}
	if len(scope.SizeIDs) > 0 && !contains(scope.SizeIDs, v.SizeID) {
		return false
	}
	if len(scope.SizeGroupIDs) > 0 && !contains(scope.SizeGroupIDs, f.sizeGroupBySize[v.SizeID]) {
		return false
	}
	return true
}

func contains(list []string, item string) bool {
	for _, v := range list {
		if v == item {
			return true
		}
	}
	return false
}

func (f *fakeRepo) ListVariationsInScope(_ context.Context, scope domain.Scope) ([]domain.Variation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Variation, 0, len(f.variations))
	for _, v := range f.variations {
		if f.matchesScope(v, scope) {
			out = append(out, v)
		}
	}
	return out, nil
}

func (f *fakeRepo) ListAllVariations(context.Context) ([]domain.Variation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Variation(nil), f.variations...), nil
}

func (f *fakeRepo) ReserveVariation(_ context.Context, variationID string, until, now time.Time) (*domain.Variation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.variations {
		v := &f.variations[i]
		if v.ID != variationID {
			continue
		}
		if v.Count != nil && *v.Count == 0 {
			return nil, nil
		}
		if v.IsCountReserved(now) || v.IsCountDisabled(now) {
			return nil, nil
		}
		u := until
		v.CountReservedUntil = &u
		v.CountVersion++
		copied := *v
		return &copied, nil
	}
	return nil, nil
}

func (f *fakeRepo) GetVariationInScopeForUpdate(_ context.Context, scope domain.Scope, variationID string) (domain.Variation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, v := range f.variations {
		if v.ID == variationID && f.matchesScope(v, scope) {
			return v, nil
		}
	}
	return domain.Variation{}, domain.ErrVariationNotFound
}

func (f *fakeRepo) ApplyCount(_ context.Context, variationID string, count int, countedAt time.Time, availability domain.Availability) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.variations {
		v := &f.variations[i]
		if v.ID != variationID {
			continue
		}
		c := count
		at := countedAt
		v.Count = &c
		v.CountedAt = &at
		v.CountReservedUntil = nil
		v.CountDisabledUntil = nil
		v.CountDisabledReason = nil
		v.CountPrioBumped = false
		v.CountVersion++
		if availability != "" {
			v.Availability = availability
		}
		return nil
	}
	return domain.ErrVariationNotFound
}

func (f *fakeRepo) SetCountUnavailability(_ context.Context, variationID string, reason *string, until *time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.variations {
		v := &f.variations[i]
		if v.ID != variationID {
			continue
		}
		v.CountReservedUntil = nil
		v.CountDisabledReason = reason
		v.CountDisabledUntil = until
		v.CountVersion++
		return nil
	}
	return domain.ErrVariationNotFound
}

func (f *fakeRepo) SetPrioBumped(_ context.Context, variationID string, bumped bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.variations {
		if f.variations[i].ID == variationID {
			f.variations[i].CountPrioBumped = bumped
			return nil
		}
	}
	return domain.ErrVariationNotFound
}

func (f *fakeRepo) ClearCountDisabled(_ context.Context, variationID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.variations {
		if f.variations[i].ID == variationID {
			f.variations[i].CountDisabledUntil = nil
			f.variations[i].CountDisabledReason = nil
			return nil
		}
	}
	return domain.ErrVariationNotFound
}

func (f *fakeRepo) AppendCountEvent(_ context.Context, event domain.CountEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.countEvents = append(f.countEvents, event)
	return nil
}

func (f *fakeRepo) AppendAvailabilityEvent(_ context.Context, event domain.AvailabilityEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.availabilityEvents = append(f.availabilityEvents, event)
	return nil
}

func (f *fakeRepo) ListCountEvents(context.Context) ([]domain.CountEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.CountEvent(nil), f.countEvents...), nil
}

func (f *fakeRepo) ListAvailabilityEvents(context.Context) ([]domain.AvailabilityEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.AvailabilityEvent(nil), f.availabilityEvents...), nil
}

func (f *fakeRepo) variation(id string) domain.Variation {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, v := range f.variations {
		if v.ID == id {
			return v
		}
	}
	return domain.Variation{}
}
