// Package store defines the persistence interface for the arbitrage engine.
// Implementations include PostgreSQL (source of truth), Redis (read-through
// cache for the active-order snapshot), and in-memory (for testing).
package store

import (
	"context"
	"time"

	"github.com/aodx/arbitrage-engine/internal/model"
)

// Store is the snapshot store the engine reads from and ingestion writes to.
// PostgreSQL is the source of truth; Redis provides a read-through cache.
type Store interface {
	// UpsertOrders applies one ingestion batch as a single atomic unit:
	// all rows commit or none do. Upserts are keyed by order ID and
	// change-guarded — a write that alters neither price, amount, nor
	// expiry does not count toward the returned modification count.
	UpsertOrders(ctx context.Context, orders []model.OrderSnapshot) (int, error)

	// ActiveOrders returns every order whose expiry lies in the future.
	// The engine never mutates the returned slice's backing records.
	ActiveOrders(ctx context.Context) ([]model.OrderSnapshot, error)

	// UpsertPrices records price-history observations, newest-wins per
	// (item, location, quality, source).
	UpsertPrices(ctx context.Context, prices []model.PriceObservation) error

	// RecentPrices returns observations younger than the window.
	RecentPrices(ctx context.Context, window time.Duration) ([]model.PriceObservation, error)
}
