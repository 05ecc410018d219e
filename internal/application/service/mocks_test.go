package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/garyjia/business-trip/internal/application/port"
	"github.com/garyjia/business-trip/internal/domain/entity"
	"github.com/shopspring/decimal"
)

type nopLogger struct {
	mu    sync.Mutex
	warns []string
}

func (l *nopLogger) Info(string, ...interface{})  {}
func (l *nopLogger) Error(string, ...interface{}) {}
func (l *nopLogger) Warn(msg string, _ ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, msg)
}

type memTripRepo struct {
	mu    sync.Mutex
	trips map[string]*entity.Trip
	order []string
}

func newMemTripRepo() *memTripRepo {
	return &memTripRepo{trips: map[string]*entity.Trip{}}
}

func (m *memTripRepo) Create(ctx context.Context, trip *entity.Trip) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := trip.Clone()
	cp.Settlement = nil
	m.trips[trip.ID] = cp
	m.order = append(m.order, trip.ID)
	return nil
}

func (m *memTripRepo) GetByID(ctx context.Context, id string) (*entity.Trip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.trips[id]
	if !ok {
		return nil, fmt.Errorf("%w: trip %s", entity.ErrNotFound, id)
	}
	return t.Clone(), nil
}

func (m *memTripRepo) Update(ctx context.Context, trip *entity.Trip, expectedVersion int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.trips[trip.ID]
	if !ok {
		return entity.ErrNotFound
	}
	if stored.Version != expectedVersion {
		return fmt.Errorf("%w: trip %s", entity.ErrConcurrentModification, trip.ID)
	}
	trip.Version = expectedVersion + 1
	cp := trip.Clone()
	cp.Settlement = nil
	m.trips[trip.ID] = cp
	return nil
}

func (m *memTripRepo) List(ctx context.Context, filter port.TripFilter) ([]*entity.Trip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.Trip
	for _, id := range m.order {
		t := m.trips[id]
		if filter.RequesterID != "" && t.RequesterID != filter.RequesterID {
			continue
		}
		if filter.Status != "" && t.Status != filter.Status {
			continue
		}
		out = append(out, t.Clone())
	}
	return out, nil
}

type memSettlementRepo struct {
	mu    sync.Mutex
	saved map[string]*entity.Settlement
}

func newMemSettlementRepo() *memSettlementRepo {
	return &memSettlementRepo{saved: map[string]*entity.Settlement{}}
}

func (m *memSettlementRepo) Save(ctx context.Context, s *entity.Settlement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved[s.TripID] = s.Clone()
	return nil
}

func (m *memSettlementRepo) GetByTripID(ctx context.Context, tripID string) (*entity.Settlement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.saved[tripID]
	if !ok {
		return nil, fmt.Errorf("%w: settlement of %s", entity.ErrNotFound, tripID)
	}
	return s.Clone(), nil
}

func (m *memSettlementRepo) MarkApproved(ctx context.Context, tripID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.saved[tripID]; ok {
		s.ApprovedAt = &at
	}
	return nil
}

type memHistoryRepo struct {
	mu      sync.Mutex
	entries []*entity.TripHistory
}

func (m *memHistoryRepo) Create(ctx context.Context, h *entity.TripHistory) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, h)
	return nil
}

func (m *memHistoryRepo) GetByTripID(ctx context.Context, tripID string) ([]*entity.TripHistory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.TripHistory
	for _, h := range m.entries {
		if h.TripID == tripID {
			out = append(out, h)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

type passTx struct{}

func (passTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type mutexLocker struct {
	mu sync.Mutex
}

func (l *mutexLocker) Lock(ctx context.Context, tripID string) (func(), error) {
	l.mu.Lock()
	return l.mu.Unlock, nil
}

type fakeReference struct {
	cities map[string]*entity.City
	rates  map[string]decimal.Decimal
	routes map[string]*entity.Route
	hotels map[string]*entity.Hotel
}

func newFakeReference() *fakeReference {
	return &fakeReference{
		cities: map[string]*entity.City{
			"WAW": {ID: "WAW", Name: "Warsaw", CountryID: "PL"},
			"BER": {ID: "BER", Name: "Berlin", CountryID: "DE"},
			"KRK": {ID: "KRK", Name: "Krakow", CountryID: "PL"},
			"LIS": {ID: "LIS", Name: "Lisbon", CountryID: "PT"},
		},
		rates: map[string]decimal.Decimal{
			"DE": decimal.NewFromInt(200),
		},
		routes: map[string]*entity.Route{
			"WAW-BER-TRAIN": {ID: "WAW-BER-TRAIN", Provider: "PKP Intercity", Kind: "train", OneWayPrice: decimal.NewFromInt(300)},
		},
		hotels: map[string]*entity.Hotel{
			"BER-MITTE": {ID: "BER-MITTE", Name: "Hotel Mitte", CityID: "BER", NightlyPrice: decimal.NewFromInt(300)},
		},
	}
}

func (f *fakeReference) GetCity(ctx context.Context, id string) (*entity.City, error) {
	if c, ok := f.cities[id]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("%w: city %s", entity.ErrNotFound, id)
}

func (f *fakeReference) GetPerDiemRate(ctx context.Context, countryID string) (*decimal.Decimal, error) {
	if r, ok := f.rates[countryID]; ok {
		return &r, nil
	}
	return nil, nil
}

func (f *fakeReference) GetRoute(ctx context.Context, id string) (*entity.Route, error) {
	if r, ok := f.routes[id]; ok {
		return r, nil
	}
	return nil, fmt.Errorf("%w: route %s", entity.ErrNotFound, id)
}

func (f *fakeReference) GetHotel(ctx context.Context, id string) (*entity.Hotel, error) {
	if h, ok := f.hotels[id]; ok {
		return h, nil
	}
	return nil, fmt.Errorf("%w: hotel %s", entity.ErrNotFound, id)
}
