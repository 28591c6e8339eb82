package engine

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/aodx/arbitrage-engine/internal/model"
	"github.com/aodx/arbitrage-engine/internal/store"
)

// NameResolver decorates raw identifiers with display names. A missing
// mapping falls back to echoing the identifier.
type NameResolver interface {
	ItemName(itemTypeID string) string
	LocationName(locationID string) string
}

// Filter narrows a computation. Zero values mean "no constraint".
type Filter struct {
	MinTier   int
	MaxTier   int
	Locations []string        // keep pairs touching at least one of these
	MinROI    decimal.Decimal // drop opportunities below this ROI
	Limit     int             // page size; <= 0 returns everything
}

func (f Filter) MatchesTier(itemTypeID string) bool {
	tier := Tier(itemTypeID)
	if f.MinTier > 0 && tier < f.MinTier {
		return false
	}
	if f.MaxTier > 0 && tier > f.MaxTier {
		return false
	}
	return true
}

func (f Filter) MatchesLocations(buyLoc, sellLoc string) bool {
	if len(f.Locations) == 0 {
		return true
	}
	for _, loc := range f.Locations {
		if loc == buyLoc || loc == sellLoc {
			return true
		}
	}
	return false
}

// DirectResult is the outcome of one direct-arbitrage computation.
type DirectResult struct {
	Opportunities []model.ArbitrageOpportunity `json:"opportunities"`
	Total         int                          `json:"total"`
	ComputedAt    time.Time                    `json:"timestamp"`
}

// EnchantResult is the outcome of one enchantment-arbitrage computation.
// Diagnostics cover every combination examined, including non-actionable
// ones; MaterialsFound lists the reagents that had a priced supply quote.
type EnchantResult struct {
	Opportunities   []model.EnchantmentOpportunity `json:"opportunities"`
	Diagnostics     []model.EnchantmentOpportunity `json:"diagnostics"`
	Total           int                            `json:"total"`
	DiagnosticTotal int                            `json:"diagnostic_total"`
	MaterialsFound  []string                       `json:"materials_found"`
	ComputedAt      time.Time                      `json:"timestamp"`
}

// Engine recomputes opportunities from the current snapshot state on every
// query. It holds no mutable state of its own; matching is parallelized per
// item and the final global sort happens only after all items finish, so a
// cancelled computation never surfaces partial results.
type Engine struct {
	store store.Store
	names NameResolver
}

// New creates an engine over the given snapshot store. names may be nil, in
// which case output carries raw identifiers.
func New(st store.Store, names NameResolver) *Engine {
	return &Engine{store: st, names: names}
}

// ComputeDirect aggregates the live snapshot set and runs the direct
// cross-location matcher over every item that passes the filter.
func (e *Engine) ComputeDirect(ctx context.Context, filter Filter) (*DirectResult, error) {
	book, err := e.loadBook(ctx)
	if err != nil {
		return nil, err
	}

	items := filterItems(book.ItemIDs(), filter)
	perItem := make([][]model.ArbitrageOpportunity, len(items))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, itemID := range items {
		i, itemID := i, itemID
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			perItem[i] = MatchDirect(book, itemID)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []model.ArbitrageOpportunity
	for _, opps := range perItem {
		for _, opp := range opps {
			if !filter.MatchesLocations(opp.BuyLocation, opp.SellLocation) {
				continue
			}
			if !filter.MinROI.IsZero() && opp.ROI.LessThan(filter.MinROI) {
				continue
			}
			all = append(all, opp)
		}
	}

	page, total := Rank(all, func(o model.ArbitrageOpportunity) int64 { return o.Profit }, filter.Limit)
	for i := range page {
		page[i].ItemName = e.itemName(page[i].ItemTypeID)
	}
	if page == nil {
		page = []model.ArbitrageOpportunity{}
	}

	return &DirectResult{
		Opportunities: page,
		Total:         total,
		ComputedAt:    time.Now().UTC(),
	}, nil
}

// ComputeEnchantment aggregates the live snapshot set and runs the
// enchantment-upgrade matcher over every base item that passes the filter.
func (e *Engine) ComputeEnchantment(ctx context.Context, filter Filter) (*EnchantResult, error) {
	book, err := e.loadBook(ctx)
	if err != nil {
		return nil, err
	}

	items := filterItems(book.ItemIDs(), filter)

	type itemResult struct {
		opps  []model.EnchantmentOpportunity
		diags []model.EnchantmentOpportunity
	}
	perItem := make([]itemResult, len(items))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, itemID := range items {
		i, itemID := i, itemID
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			opps, diags := MatchEnchantment(book, itemID)
			perItem[i] = itemResult{opps: opps, diags: diags}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var opps, diags []model.EnchantmentOpportunity
	for _, r := range perItem {
		for _, opp := range r.opps {
			if filter.MatchesLocations(opp.BuyLocation, opp.SellLocation) {
				opps = append(opps, opp)
			}
		}
		for _, diag := range r.diags {
			if filter.MatchesLocations(diag.BuyLocation, diag.SellLocation) {
				diags = append(diags, diag)
			}
		}
	}

	page, total := Rank(opps, func(o model.EnchantmentOpportunity) int64 { return o.Profit }, filter.Limit)
	for i := range page {
		page[i].ItemName = e.itemName(page[i].ItemTypeID)
	}
	if page == nil {
		page = []model.EnchantmentOpportunity{}
	}
	if diags == nil {
		diags = []model.EnchantmentOpportunity{}
	}

	return &EnchantResult{
		Opportunities:   page,
		Diagnostics:     diags,
		Total:           total,
		DiagnosticTotal: len(diags),
		MaterialsFound:  book.MaterialsFound(),
		ComputedAt:      time.Now().UTC(),
	}, nil
}

// loadBook performs the single snapshot read backing one computation.
func (e *Engine) loadBook(ctx context.Context) (*QuoteBook, error) {
	orders, err := e.store.ActiveOrders(ctx)
	if err != nil {
		return nil, fmt.Errorf("load active orders: %w", err)
	}
	return Aggregate(orders), nil
}

func (e *Engine) itemName(itemTypeID string) string {
	if e.names == nil {
		return itemTypeID
	}
	return e.names.ItemName(itemTypeID)
}

func filterItems(items []string, filter Filter) []string {
	if filter.MinTier == 0 && filter.MaxTier == 0 {
		return items
	}
	kept := items[:0:0]
	for _, id := range items {
		if filter.MatchesTier(id) {
			kept = append(kept, id)
		}
	}
	return kept
}
