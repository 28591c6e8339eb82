// Package flip derives tax-adjusted location-pair flips from the
// price-history table and classifies how stale each underlying price
// observation is. Unlike the live order matchers, this path works on
// periodic min-ask/max-bid observations rather than individual orders.
package flip

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/aodx/arbitrage-engine/internal/engine"
	"github.com/aodx/arbitrage-engine/internal/model"
)

// Staleness tiers for a price observation's age.
const (
	StalenessGreen  = "green"
	StalenessYellow = "yellow"
	StalenessRed    = "red"
)

// Flat market tax rates per account regime: 2.5% listing fee plus the
// regime's sales tax (4% premium, 8% common).
var (
	TaxPremium = decimal.NewFromFloat(0.065)
	TaxCommon  = decimal.NewFromFloat(0.105)
)

// Config holds the staleness thresholds and the local-data freshness window.
type Config struct {
	YellowAfter time.Duration // age at which green turns yellow
	RedAfter    time.Duration // age at which yellow turns red
	LocalWindow time.Duration // how long a local observation outranks any other
}

// DefaultConfig mirrors the historical defaults: 15 and 60 minute staleness
// thresholds, 10 minute local-data priority window.
func DefaultConfig() Config {
	return Config{
		YellowAfter: 15 * time.Minute,
		RedAfter:    60 * time.Minute,
		LocalWindow: 10 * time.Minute,
	}
}

// Calculator finds flips over price observations. Stateless apart from its
// configuration and clock.
type Calculator struct {
	cfg Config
	now func() time.Time
}

// NewCalculator creates a calculator with the given config. A zero threshold
// falls back to its default.
func NewCalculator(cfg Config) *Calculator {
	def := DefaultConfig()
	if cfg.YellowAfter <= 0 {
		cfg.YellowAfter = def.YellowAfter
	}
	if cfg.RedAfter <= 0 {
		cfg.RedAfter = def.RedAfter
	}
	if cfg.LocalWindow <= 0 {
		cfg.LocalWindow = def.LocalWindow
	}
	return &Calculator{cfg: cfg, now: time.Now}
}

// SetClock overrides the calculator's notion of now. Test hook.
func (c *Calculator) SetClock(now func() time.Time) {
	c.now = now
}

// Staleness classifies an observation's age against the two thresholds:
// younger than yellow → green, younger than red → yellow, else red.
func (c *Calculator) Staleness(observedAt time.Time) string {
	age := c.now().Sub(observedAt)
	switch {
	case age < c.cfg.YellowAfter:
		return StalenessGreen
	case age < c.cfg.RedAfter:
		return StalenessYellow
	default:
		return StalenessRed
	}
}

// TaxedProfit applies a flat tax rate to the sell side before subtracting
// the buy price: sell*(1-rate) - buy, rounded to whole silver.
func TaxedProfit(buyPrice, sellPrice int64, rate decimal.Decimal) int64 {
	one := decimal.NewFromInt(1)
	return decimal.NewFromInt(sellPrice).Mul(one.Sub(rate)).
		Sub(decimal.NewFromInt(buyPrice)).Round(0).IntPart()
}

// roi is profit as a percentage of the buy-side capital, guarded to 0 when
// the buy price is 0.
func roi(profit, buyPrice int64) decimal.Decimal {
	if buyPrice == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(profit).Div(decimal.NewFromInt(buyPrice)).
		Mul(decimal.NewFromInt(100)).Round(2)
}

// obsKey identifies one price series.
type obsKey struct {
	itemTypeID   string
	locationID   string
	qualityLevel int
}

// selectObservations reduces multiple observations per (item, location,
// quality) to one: a locally-sourced observation still inside the freshness
// window outranks anything else; otherwise the most recent observation wins.
func (c *Calculator) selectObservations(observations []model.PriceObservation) map[obsKey]model.PriceObservation {
	localCutoff := c.now().Add(-c.cfg.LocalWindow)
	preferred := make(map[obsKey]model.PriceObservation)

	rank := func(p model.PriceObservation) int {
		if p.Source == model.SourceLocal && p.ObservedAt.After(localCutoff) {
			return 0
		}
		return 1
	}

	for _, p := range observations {
		key := obsKey{p.ItemTypeID, p.LocationID, p.QualityLevel}
		cur, ok := preferred[key]
		if !ok {
			preferred[key] = p
			continue
		}
		pr, cr := rank(p), rank(cur)
		if pr < cr || (pr == cr && p.ObservedAt.After(cur.ObservedAt)) {
			preferred[key] = p
		}
	}
	return preferred
}

// Find computes tax-adjusted flips across every location pair of every item.
// Both regimes' figures are reported; a pair is retained only when the
// common-regime profit is positive (the conservative case). Results are
// ranked by common profit descending; total is reported unbounded.
func (c *Calculator) Find(observations []model.PriceObservation, filter engine.Filter) ([]model.FlipOpportunity, int) {
	preferred := c.selectObservations(observations)

	byItem := make(map[string][]model.PriceObservation)
	for _, p := range preferred {
		// A pair needs a real ask on one side and a real bid on the other.
		if p.SellPriceMin <= 0 || p.BuyPriceMax <= 0 {
			continue
		}
		byItem[p.ItemTypeID] = append(byItem[p.ItemTypeID], p)
	}
	for _, prices := range byItem {
		sort.Slice(prices, func(i, j int) bool {
			if prices[i].LocationID != prices[j].LocationID {
				return prices[i].LocationID < prices[j].LocationID
			}
			return prices[i].QualityLevel < prices[j].QualityLevel
		})
	}

	itemIDs := make([]string, 0, len(byItem))
	for itemID := range byItem {
		itemIDs = append(itemIDs, itemID)
	}
	sort.Strings(itemIDs)

	var flips []model.FlipOpportunity
	for _, itemID := range itemIDs {
		if !filter.MatchesTier(itemID) {
			continue
		}
		prices := byItem[itemID]
		tier := engine.Tier(itemID)

		for i := range prices {
			for j := range prices {
				if i == j {
					continue
				}
				buy, sell := prices[i], prices[j]
				if !filter.MatchesLocations(buy.LocationID, sell.LocationID) {
					continue
				}

				// Buy from sell orders, sell to buy orders.
				buyPrice := buy.SellPriceMin
				sellPrice := sell.BuyPriceMax

				profitCommon := TaxedProfit(buyPrice, sellPrice, TaxCommon)
				if profitCommon <= 0 {
					continue
				}
				profitPremium := TaxedProfit(buyPrice, sellPrice, TaxPremium)

				roiCommon := roi(profitCommon, buyPrice)
				if !filter.MinROI.IsZero() && roiCommon.LessThan(filter.MinROI) {
					continue
				}

				oldest := buy.ObservedAt
				if sell.ObservedAt.Before(oldest) {
					oldest = sell.ObservedAt
				}

				flips = append(flips, model.FlipOpportunity{
					ItemTypeID:     itemID,
					Tier:           tier,
					BuyLocation:    buy.LocationID,
					SellLocation:   sell.LocationID,
					BuyPrice:       buyPrice,
					SellPrice:      sellPrice,
					ProfitCommon:   profitCommon,
					ProfitPremium:  profitPremium,
					ROICommon:      roiCommon,
					ROIPremium:     roi(profitPremium, buyPrice),
					BuyObservedAt:  buy.ObservedAt,
					SellObservedAt: sell.ObservedAt,
					Staleness:      c.Staleness(oldest),
				})
			}
		}
	}

	return engine.Rank(flips, func(f model.FlipOpportunity) int64 { return f.ProfitCommon }, filter.Limit)
}
