package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aodx/arbitrage-engine/internal/model"
)

// PostgresStore implements Store using PostgreSQL as the source of truth.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const upsertOrderSQL = `
	INSERT INTO market_orders (
		id, item_type_id, item_group_type_id, location_id,
		quality_level, enchantment_level, unit_price_silver,
		amount, auction_type, expires, updated_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())
	ON CONFLICT (id) DO UPDATE SET
		unit_price_silver = EXCLUDED.unit_price_silver,
		amount = EXCLUDED.amount,
		expires = EXCLUDED.expires,
		updated_at = NOW()
	WHERE (market_orders.unit_price_silver, market_orders.amount, market_orders.expires)
		IS DISTINCT FROM
		(EXCLUDED.unit_price_silver, EXCLUDED.amount, EXCLUDED.expires)`

// UpsertOrders writes one ingestion batch inside a single transaction.
// The conflict guard makes re-ingesting an identical batch a no-op: such
// rows affect nothing and do not count as modifications.
func (s *PostgresStore) UpsertOrders(ctx context.Context, orders []model.OrderSnapshot) (int, error) {
	if len(orders) == 0 {
		return 0, nil
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, fmt.Errorf("begin order batch: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, o := range orders {
		batch.Queue(upsertOrderSQL,
			o.ID, o.ItemTypeID, o.GroupTypeID, o.LocationID,
			o.QualityLevel, o.Enchantment, o.UnitPrice,
			o.Amount, o.AuctionType, o.Expires,
		)
	}

	br := tx.SendBatch(ctx, batch)
	modified := 0
	for range orders {
		ct, err := br.Exec()
		if err != nil {
			br.Close()
			return 0, fmt.Errorf("upsert order: %w", err)
		}
		modified += int(ct.RowsAffected())
	}
	if err := br.Close(); err != nil {
		return 0, fmt.Errorf("close order batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit order batch: %w", err)
	}
	return modified, nil
}

func (s *PostgresStore) ActiveOrders(ctx context.Context) ([]model.OrderSnapshot, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, item_type_id, item_group_type_id, location_id,
		        quality_level, enchantment_level, unit_price_silver,
		        amount, auction_type, expires
		 FROM market_orders
		 WHERE expires > NOW()
		 ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query active orders: %w", err)
	}
	defer rows.Close()

	var orders []model.OrderSnapshot
	for rows.Next() {
		var o model.OrderSnapshot
		if err := rows.Scan(&o.ID, &o.ItemTypeID, &o.GroupTypeID, &o.LocationID,
			&o.QualityLevel, &o.Enchantment, &o.UnitPrice,
			&o.Amount, &o.AuctionType, &o.Expires); err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

const upsertPriceSQL = `
	INSERT INTO prices (
		item_type_id, location_id, quality_level,
		sell_price_min, buy_price_max, observed_at, source
	) VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (item_type_id, location_id, quality_level, source) DO UPDATE SET
		sell_price_min = EXCLUDED.sell_price_min,
		buy_price_max = EXCLUDED.buy_price_max,
		observed_at = EXCLUDED.observed_at
	WHERE EXCLUDED.observed_at > prices.observed_at`

func (s *PostgresStore) UpsertPrices(ctx context.Context, prices []model.PriceObservation) error {
	if len(prices) == 0 {
		return nil
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin price batch: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, p := range prices {
		batch.Queue(upsertPriceSQL,
			p.ItemTypeID, p.LocationID, p.QualityLevel,
			p.SellPriceMin, p.BuyPriceMax, p.ObservedAt, p.Source,
		)
	}

	br := tx.SendBatch(ctx, batch)
	for range prices {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("upsert price: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("close price batch: %w", err)
	}
	return tx.Commit(ctx)
}

func (s *PostgresStore) RecentPrices(ctx context.Context, window time.Duration) ([]model.PriceObservation, error) {
	cutoff := time.Now().UTC().Add(-window)
	rows, err := s.pool.Query(ctx,
		`SELECT item_type_id, location_id, quality_level,
		        sell_price_min, buy_price_max, observed_at, source
		 FROM prices
		 WHERE observed_at > $1
		 ORDER BY item_type_id, location_id, quality_level, observed_at DESC`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("query recent prices: %w", err)
	}
	defer rows.Close()

	var prices []model.PriceObservation
	for rows.Next() {
		var p model.PriceObservation
		if err := rows.Scan(&p.ItemTypeID, &p.LocationID, &p.QualityLevel,
			&p.SellPriceMin, &p.BuyPriceMax, &p.ObservedAt, &p.Source); err != nil {
			return nil, err
		}
		prices = append(prices, p)
	}
	return prices, rows.Err()
}
