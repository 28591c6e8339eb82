package engine

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/aodx/arbitrage-engine/internal/model"
)

var hundred = decimal.NewFromInt(100)

// roundedROI computes profit/base*100 rounded to 2 decimal places
// (half away from zero). Returns 0 when base is 0.
func roundedROI(profit, base int64) decimal.Decimal {
	if base == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(profit).Div(decimal.NewFromInt(base)).Mul(hundred).Round(2)
}

// MatchDirect finds every profitable cross-location buy/sell pair for one
// item. For each location holding demand (request) quotes, the best bid at
// quality q is matched against the best ask of every location's supply
// (offer) quotes at quality >= q — a higher-quality item always satisfies a
// lower-quality requirement. A pair is emitted iff ask < bid strictly; the
// same location on both sides therefore falls out naturally.
func MatchDirect(book *QuoteBook, itemTypeID string) []model.ArbitrageOpportunity {
	demand, supply := quotesByLocation(book, itemTypeID)
	if len(demand) == 0 || len(supply) == 0 {
		return nil
	}

	buyLocs := sortedKeys(demand)
	sellLocs := sortedKeys(supply)

	var opps []model.ArbitrageOpportunity
	for _, buyLoc := range buyLocs {
		for _, bid := range demand[buyLoc] {
			buyPrice := bid.MaxPrice()

			for _, sellLoc := range sellLocs {
				for _, ask := range supply[sellLoc] {
					if ask.QualityLevel < bid.QualityLevel {
						continue
					}
					sellPrice := ask.MinPrice()
					if sellPrice >= buyPrice {
						continue
					}

					profit := buyPrice - sellPrice
					expires := bid.EarliestExpiry
					if ask.EarliestExpiry.Before(expires) {
						expires = ask.EarliestExpiry
					}

					opps = append(opps, model.ArbitrageOpportunity{
						ItemTypeID:   itemTypeID,
						BuyLocation:  buyLoc,
						SellLocation: sellLoc,
						BuyQuality:   bid.QualityLevel,
						SellQuality:  ask.QualityLevel,
						BuyPrice:     buyPrice,
						SellPrice:    sellPrice,
						Profit:       profit,
						ROI:          roundedROI(profit, sellPrice),
						BuyOrderIDs:  bid.OrderIDs(),
						SellOrderIDs: ask.OrderIDs(),
						Expires:      expires,
					})
				}
			}
		}
	}
	return opps
}

// quotesByLocation splits one item's quotes into demand and supply sides,
// grouped by location with quality-ascending quote lists.
func quotesByLocation(book *QuoteBook, itemTypeID string) (demand, supply map[string][]*model.AggregatedQuote) {
	demand = make(map[string][]*model.AggregatedQuote)
	supply = make(map[string][]*model.AggregatedQuote)

	for key, q := range book.Quotes {
		if key.ItemTypeID != itemTypeID {
			continue
		}
		switch key.Side {
		case model.SideRequest:
			demand[key.LocationID] = append(demand[key.LocationID], q)
		case model.SideOffer:
			supply[key.LocationID] = append(supply[key.LocationID], q)
		}
	}

	for _, quotes := range demand {
		sortByQuality(quotes)
	}
	for _, quotes := range supply {
		sortByQuality(quotes)
	}
	return demand, supply
}

func sortByQuality(quotes []*model.AggregatedQuote) {
	sort.Slice(quotes, func(i, j int) bool {
		return quotes[i].QualityLevel < quotes[j].QualityLevel
	})
}

func sortedKeys(m map[string][]*model.AggregatedQuote) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
