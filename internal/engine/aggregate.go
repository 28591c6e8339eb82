// Package engine implements the arbitrage opportunity core: aggregation of
// raw order snapshots into per-item quote sets, the direct cross-location
// matcher, and the enchantment-upgrade matcher with material-cost modeling.
//
// The engine is stateless. Every computation reads the current snapshot set
// once and transforms it in memory; nothing is cached between queries.
package engine

import (
	"sort"

	"github.com/aodx/arbitrage-engine/internal/model"
)

// QuoteKey identifies one aggregated quote set.
type QuoteKey struct {
	ItemTypeID   string
	LocationID   string
	QualityLevel int
	Side         string
}

// MaterialKey identifies an aggregated material quote. Materials carry no
// quality dimension; reagents are fungible.
type MaterialKey struct {
	ItemTypeID string
	LocationID string
	Side       string
}

// QuoteBook holds the aggregated view of one snapshot read. Empty groups are
// simply absent; price lists are multisets, duplicates at the same price are
// retained.
type QuoteBook struct {
	Quotes    map[QuoteKey]*model.AggregatedQuote
	Materials map[MaterialKey]*model.AggregatedQuote
}

// Aggregate groups non-expired order snapshots into per-(item, location,
// quality, side) quote sets with ascending price lists. Items recognized as
// crafting reagents by their naming convention go into the separate material
// book, keyed without quality.
func Aggregate(orders []model.OrderSnapshot) *QuoteBook {
	book := &QuoteBook{
		Quotes:    make(map[QuoteKey]*model.AggregatedQuote),
		Materials: make(map[MaterialKey]*model.AggregatedQuote),
	}

	for _, o := range orders {
		entry := model.QuoteEntry{Price: o.UnitPrice, Amount: o.Amount, OrderID: o.ID}

		if IsMaterial(o.ItemTypeID) {
			key := MaterialKey{ItemTypeID: o.ItemTypeID, LocationID: o.LocationID, Side: o.AuctionType}
			q, ok := book.Materials[key]
			if !ok {
				q = &model.AggregatedQuote{
					ItemTypeID:     o.ItemTypeID,
					LocationID:     o.LocationID,
					Side:           o.AuctionType,
					EarliestExpiry: o.Expires,
				}
				book.Materials[key] = q
			}
			q.Entries = append(q.Entries, entry)
			if o.Expires.Before(q.EarliestExpiry) {
				q.EarliestExpiry = o.Expires
			}
			continue
		}

		key := QuoteKey{
			ItemTypeID:   o.ItemTypeID,
			LocationID:   o.LocationID,
			QualityLevel: o.QualityLevel,
			Side:         o.AuctionType,
		}
		q, ok := book.Quotes[key]
		if !ok {
			q = &model.AggregatedQuote{
				ItemTypeID:     o.ItemTypeID,
				LocationID:     o.LocationID,
				QualityLevel:   o.QualityLevel,
				Side:           o.AuctionType,
				EarliestExpiry: o.Expires,
			}
			book.Quotes[key] = q
		}
		q.Entries = append(q.Entries, entry)
		if o.Expires.Before(q.EarliestExpiry) {
			q.EarliestExpiry = o.Expires
		}
	}

	for _, q := range book.Quotes {
		sortEntries(q.Entries)
	}
	for _, q := range book.Materials {
		sortEntries(q.Entries)
	}
	return book
}

// sortEntries orders a price list ascending by price, breaking price ties by
// order ID so repeated aggregation of the same snapshot set is byte-identical.
func sortEntries(entries []model.QuoteEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Price != entries[j].Price {
			return entries[i].Price < entries[j].Price
		}
		return entries[i].OrderID < entries[j].OrderID
	})
}

// ItemIDs returns the distinct non-material item identifiers in the book,
// sorted for deterministic iteration.
func (b *QuoteBook) ItemIDs() []string {
	seen := make(map[string]bool)
	for key := range b.Quotes {
		seen[key.ItemTypeID] = true
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// MinMaterialPrice returns the lowest offered price for a material across all
// locations, or false when no supply quote exists anywhere. Reagents are
// costed as freely transportable; locality of purchase is not modeled.
func (b *QuoteBook) MinMaterialPrice(materialID string) (int64, bool) {
	var best int64
	found := false
	for key, q := range b.Materials {
		if key.ItemTypeID != materialID || key.Side != model.SideOffer {
			continue
		}
		if p := q.MinPrice(); !found || p < best {
			best = p
			found = true
		}
	}
	return best, found
}
