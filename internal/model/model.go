// Package model defines the core domain types shared across the arbitrage
// engine. Prices are integers in silver (the minor currency unit); derived
// percentage values use shopspring/decimal — never float64 for money.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order sides. An offer is someone selling; a request is someone buying.
const (
	SideOffer   = "offer"
	SideRequest = "request"
)

// Price observation sources for the history table.
const (
	SourceLocal    = "local"
	SourceExternal = "external"
)

// OrderSnapshot is one active market order as reported by the ingestion
// client. Upserts are keyed by ID; a record is logically dead once Expires
// has passed, even if the store has not deleted it yet.
type OrderSnapshot struct {
	ID           int64     `json:"id" db:"id"`
	ItemTypeID   string    `json:"item_type_id" db:"item_type_id"`
	GroupTypeID  string    `json:"item_group_type_id" db:"item_group_type_id"`
	LocationID   string    `json:"location_id" db:"location_id"`
	QualityLevel int       `json:"quality_level" db:"quality_level"`         // 1–5
	Enchantment  int       `json:"enchantment_level" db:"enchantment_level"` // 0–4
	UnitPrice    int64     `json:"unit_price_silver" db:"unit_price_silver"`
	Amount       int       `json:"amount" db:"amount"`
	AuctionType  string    `json:"auction_type" db:"auction_type"` // "offer" or "request"
	Expires      time.Time `json:"expires" db:"expires"`
}

// QuoteEntry is one order's contribution to an aggregated quote.
type QuoteEntry struct {
	Price   int64 `json:"price"`
	Amount  int   `json:"amount"`
	OrderID int64 `json:"order_id"`
}

// AggregatedQuote groups all live orders for one
// (item, location, quality, side) key, price-sorted ascending.
// Derived at query time, never persisted.
type AggregatedQuote struct {
	ItemTypeID     string       `json:"item_type_id"`
	LocationID     string       `json:"location_id"`
	QualityLevel   int          `json:"quality_level"`
	Side           string       `json:"side"`
	Entries        []QuoteEntry `json:"entries"` // ascending by price, ties retained
	EarliestExpiry time.Time    `json:"earliest_expiry"`
}

// MinPrice returns the lowest price in the quote (the best ask for offers).
func (q *AggregatedQuote) MinPrice() int64 {
	return q.Entries[0].Price
}

// MaxPrice returns the highest price in the quote (the best bid for requests).
func (q *AggregatedQuote) MaxPrice() int64 {
	return q.Entries[len(q.Entries)-1].Price
}

// OrderIDs returns the contributing order IDs in price order.
func (q *AggregatedQuote) OrderIDs() []int64 {
	ids := make([]int64, len(q.Entries))
	for i, e := range q.Entries {
		ids[i] = e.OrderID
	}
	return ids
}

// ArbitrageOpportunity is one profitable cross-location match: buy the item
// cheap from sell orders in one location, flip it to buy orders in another.
// Invariants: Profit > 0 strictly, SellQuality >= BuyQuality.
type ArbitrageOpportunity struct {
	ItemTypeID   string          `json:"item_type_id"`
	ItemName     string          `json:"item_name"`
	BuyLocation  string          `json:"buy_location"`
	SellLocation string          `json:"sell_location"`
	BuyQuality   int             `json:"buy_quality"`
	SellQuality  int             `json:"sell_quality"`
	BuyPrice     int64           `json:"buy_price"`  // highest bid at the buy side
	SellPrice    int64           `json:"sell_price"` // lowest ask at the sell side
	Profit       int64           `json:"profit"`
	ROI          decimal.Decimal `json:"roi"` // profit / sell_price * 100, 2dp
	BuyOrderIDs  []int64         `json:"buy_order_ids"`
	SellOrderIDs []int64         `json:"sell_order_ids"`
	Expires      time.Time       `json:"expires"`
}

// EnchantmentOpportunity models buying a base item plus tier-specific
// materials and selling the enchanted variant. Present in the actionable
// list only when Profit > 0 and every required material had a priced quote;
// otherwise the combination shows up in the diagnostic list with Reason
// naming the missing materials.
type EnchantmentOpportunity struct {
	ItemTypeID     string          `json:"item_type_id"` // base item
	ItemName       string          `json:"item_name"`
	EnchantedID    string          `json:"enchanted_item_id"` // base + "@level"
	Level          int             `json:"enchantment_level"` // 1–3
	Tier           int             `json:"tier"`
	BuyLocation    string          `json:"buy_location"`
	SellLocation   string          `json:"sell_location"`
	UnitPriceBase  int64           `json:"unit_price_base"`
	RunePrice      int64           `json:"rune_price,omitempty"`
	SoulPrice      int64           `json:"soul_price,omitempty"`
	RelicPrice     int64           `json:"relic_price,omitempty"`
	MaterialQty    int             `json:"material_quantity"`
	MaterialCost   int64           `json:"material_cost"`
	TotalCost      int64           `json:"total_cost"`
	EnchantedPrice int64           `json:"enchanted_price"`
	Profit         int64           `json:"profit"`
	ROI            decimal.Decimal `json:"roi"` // profit / total_cost * 100, 2dp
	Reason         string          `json:"reason"`
}

// PriceObservation is one row of the price-history table, fed by either the
// local client or the external aggregate feed.
type PriceObservation struct {
	ItemTypeID   string    `json:"item_type_id" db:"item_type_id"`
	LocationID   string    `json:"location_id" db:"location_id"`
	QualityLevel int       `json:"quality_level" db:"quality_level"`
	SellPriceMin int64     `json:"sell_price_min" db:"sell_price_min"`
	BuyPriceMax  int64     `json:"buy_price_max" db:"buy_price_max"`
	ObservedAt   time.Time `json:"observed_at" db:"observed_at"`
	Source       string    `json:"source" db:"source"` // "local" or "external"
}

// FlipOpportunity is a tax-adjusted location-pair flip over the price-history
// table. Figures for both tax regimes are reported together; only
// combinations whose common-regime profit is positive are retained.
type FlipOpportunity struct {
	ItemTypeID     string          `json:"item_type_id"`
	ItemName       string          `json:"item_name"`
	Tier           int             `json:"tier"`
	BuyLocation    string          `json:"buy_location"`
	SellLocation   string          `json:"sell_location"`
	BuyPrice       int64           `json:"buy_price"`  // min ask at the buy location
	SellPrice      int64           `json:"sell_price"` // max bid at the sell location
	ProfitCommon   int64           `json:"profit_common"`
	ProfitPremium  int64           `json:"profit_premium"`
	ROICommon      decimal.Decimal `json:"roi_common"`
	ROIPremium     decimal.Decimal `json:"roi_premium"`
	BuyObservedAt  time.Time       `json:"buy_observed_at"`
	SellObservedAt time.Time       `json:"sell_observed_at"`
	Staleness      string          `json:"staleness"` // green, yellow, red
}
