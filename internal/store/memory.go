package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/aodx/arbitrage-engine/internal/model"
)

// MemoryStore implements Store with in-memory maps. Used for testing and
// development. Not suitable for production (no persistence).
type MemoryStore struct {
	mu     sync.RWMutex
	orders map[int64]model.OrderSnapshot
	prices map[priceKey]model.PriceObservation
	now    func() time.Time
}

type priceKey struct {
	itemTypeID   string
	locationID   string
	qualityLevel int
	source       string
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		orders: make(map[int64]model.OrderSnapshot),
		prices: make(map[priceKey]model.PriceObservation),
		now:    time.Now,
	}
}

// SetClock overrides the store's notion of now. Test hook.
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.now = now
}

// UpsertOrders applies the batch under one lock so readers never observe a
// partially applied batch. Matches the Postgres change guard: rows identical
// in price, amount, and expiry do not count as modifications.
func (s *MemoryStore) UpsertOrders(_ context.Context, orders []model.OrderSnapshot) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	modified := 0
	for _, o := range orders {
		existing, ok := s.orders[o.ID]
		if ok && existing.UnitPrice == o.UnitPrice &&
			existing.Amount == o.Amount && existing.Expires.Equal(o.Expires) {
			continue
		}
		s.orders[o.ID] = o
		modified++
	}
	return modified, nil
}

func (s *MemoryStore) ActiveOrders(_ context.Context) ([]model.OrderSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now()
	var orders []model.OrderSnapshot
	for _, o := range s.orders {
		if o.Expires.After(now) {
			orders = append(orders, o)
		}
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].ID < orders[j].ID })
	return orders, nil
}

func (s *MemoryStore) UpsertPrices(_ context.Context, prices []model.PriceObservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range prices {
		key := priceKey{p.ItemTypeID, p.LocationID, p.QualityLevel, p.Source}
		if existing, ok := s.prices[key]; ok && !p.ObservedAt.After(existing.ObservedAt) {
			continue
		}
		s.prices[key] = p
	}
	return nil
}

func (s *MemoryStore) RecentPrices(_ context.Context, window time.Duration) ([]model.PriceObservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cutoff := s.now().Add(-window)
	var prices []model.PriceObservation
	for _, p := range s.prices {
		if p.ObservedAt.After(cutoff) {
			prices = append(prices, p)
		}
	}
	sort.Slice(prices, func(i, j int) bool {
		a, b := prices[i], prices[j]
		if a.ItemTypeID != b.ItemTypeID {
			return a.ItemTypeID < b.ItemTypeID
		}
		if a.LocationID != b.LocationID {
			return a.LocationID < b.LocationID
		}
		if a.QualityLevel != b.QualityLevel {
			return a.QualityLevel < b.QualityLevel
		}
		return a.ObservedAt.After(b.ObservedAt)
	})
	return prices, nil
}
