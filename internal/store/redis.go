package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aodx/arbitrage-engine/internal/model"
)

const activeOrdersKey = "orders:active"

// CachedStore wraps a primary Store (PostgreSQL) with a Redis read-through
// cache over the active-order snapshot. Every opportunity query starts with
// an ActiveOrders read, so a short TTL here absorbs bursts of recomputation
// without serving the engine data older than one cache window. Ingestion
// writes go to the primary and invalidate the snapshot.
type CachedStore struct {
	primary Store
	rdb     *redis.Client
	ttl     time.Duration
}

// NewCachedStore creates a cached wrapper around a primary store.
func NewCachedStore(primary Store, rdb *redis.Client, ttl time.Duration) *CachedStore {
	return &CachedStore{
		primary: primary,
		rdb:     rdb,
		ttl:     ttl,
	}
}

// UpsertOrders writes through to the primary. A batch that changed nothing
// keeps the cached snapshot; anything else invalidates it.
func (s *CachedStore) UpsertOrders(ctx context.Context, orders []model.OrderSnapshot) (int, error) {
	modified, err := s.primary.UpsertOrders(ctx, orders)
	if err != nil {
		return 0, err
	}
	if modified > 0 {
		s.rdb.Del(ctx, activeOrdersKey)
	}
	return modified, nil
}

func (s *CachedStore) ActiveOrders(ctx context.Context) ([]model.OrderSnapshot, error) {
	data, err := s.rdb.Get(ctx, activeOrdersKey).Bytes()
	if err == nil {
		var orders []model.OrderSnapshot
		if json.Unmarshal(data, &orders) == nil {
			return orders, nil
		}
	}

	// Cache miss: read from primary.
	orders, err := s.primary.ActiveOrders(ctx)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(orders); err == nil {
		s.rdb.Set(ctx, activeOrdersKey, data, s.ttl)
	}
	return orders, nil
}

// --- Passthrough (not cached) ---

func (s *CachedStore) UpsertPrices(ctx context.Context, prices []model.PriceObservation) error {
	return s.primary.UpsertPrices(ctx, prices)
}

func (s *CachedStore) RecentPrices(ctx context.Context, window time.Duration) ([]model.PriceObservation, error) {
	return s.primary.RecentPrices(ctx, window)
}
