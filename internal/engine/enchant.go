package engine

import (
	"sort"
	"strings"

	"github.com/aodx/arbitrage-engine/internal/model"
)

// Diagnostic reason strings. A combination with every material priced gets
// one of the two verdicts; otherwise the reason names the missing reagents.
const (
	ReasonProfitable    = "Profitable"
	ReasonNotProfitable = "Not profitable"
	missingPrefix       = "Missing materials: "
)

// enchantmentLevels are the upgrade targets the matcher models.
var enchantmentLevels = []int{1, 2, 3}

// materialPricing is the resolved cost basis for one (tier, level) pair.
type materialPricing struct {
	runePrice  int64
	soulPrice  int64
	relicPrice int64
	cost       int64    // Σ unit price × quantity over priced materials only
	missing    []string // short names of unpriced materials: rune, soul, relic
}

// priceMaterials resolves the cumulative material requirement for upgrading
// a tier-t item to the given level, costing each reagent at its global
// minimum ask. A missing quote is recorded, not fatal: the rest of the
// computation proceeds so the combination can still be diagnosed.
func priceMaterials(book *QuoteBook, tier, level, quantity int) materialPricing {
	var mp materialPricing
	for _, materialID := range RequiredMaterials(tier, level) {
		price, ok := book.MinMaterialPrice(materialID)
		if !ok {
			mp.missing = append(mp.missing, shortMaterialName(materialID))
			continue
		}
		switch {
		case strings.HasSuffix(materialID, materialRune):
			mp.runePrice = price
		case strings.HasSuffix(materialID, materialSoul):
			mp.soulPrice = price
		case strings.HasSuffix(materialID, materialRelic):
			mp.relicPrice = price
		}
		mp.cost += price * int64(quantity)
	}
	return mp
}

func shortMaterialName(materialID string) string {
	switch {
	case strings.HasSuffix(materialID, materialRune):
		return "rune"
	case strings.HasSuffix(materialID, materialSoul):
		return "soul"
	case strings.HasSuffix(materialID, materialRelic):
		return "relic"
	}
	return materialID
}

// MatchEnchantment models the economics of buying a base item, consuming
// tier-specific materials, and selling the enchanted result. Only normal
// quality (level 1) stock is considered on both sides — a deliberate scoping
// of the model, not an oversight. It returns the actionable opportunities
// and a diagnostic record for every (level, buy, sell) combination examined.
func MatchEnchantment(book *QuoteBook, baseItemID string) (opps, diags []model.EnchantmentOpportunity) {
	// Enchanted variants are matching targets, not bases.
	if EnchantmentLevel(baseItemID) != 0 {
		return nil, nil
	}
	quantity := MaterialQuantity(baseItemID)
	if quantity == 0 {
		return nil, nil
	}
	tier := Tier(baseItemID)
	if tier == 0 {
		return nil, nil
	}

	// Best ask for the base item per location, quality 1 only.
	baseAsks := make(map[string]*model.AggregatedQuote)
	for key, q := range book.Quotes {
		if key.ItemTypeID == baseItemID && key.Side == model.SideOffer && key.QualityLevel == 1 {
			baseAsks[key.LocationID] = q
		}
	}
	if len(baseAsks) == 0 {
		return nil, nil
	}
	buyLocs := make([]string, 0, len(baseAsks))
	for loc := range baseAsks {
		buyLocs = append(buyLocs, loc)
	}
	sort.Strings(buyLocs)

	for _, level := range enchantmentLevels {
		enchantedID := EnchantedID(baseItemID, level)

		// Best bid for the enchanted variant per location, quality 1 only.
		// No demand anywhere means this level has no matching target.
		enchantedBids := make(map[string]*model.AggregatedQuote)
		for key, q := range book.Quotes {
			if key.ItemTypeID == enchantedID && key.Side == model.SideRequest && key.QualityLevel == 1 {
				enchantedBids[key.LocationID] = q
			}
		}
		if len(enchantedBids) == 0 {
			continue
		}
		sellLocs := make([]string, 0, len(enchantedBids))
		for loc := range enchantedBids {
			sellLocs = append(sellLocs, loc)
		}
		sort.Strings(sellLocs)

		mp := priceMaterials(book, tier, level, quantity)
		hasAllMaterials := len(mp.missing) == 0

		for _, buyLoc := range buyLocs {
			basePrice := baseAsks[buyLoc].MinPrice()

			for _, sellLoc := range sellLocs {
				enchantedPrice := enchantedBids[sellLoc].MaxPrice()
				totalCost := basePrice + mp.cost
				profit := enchantedPrice - totalCost

				opp := model.EnchantmentOpportunity{
					ItemTypeID:     baseItemID,
					EnchantedID:    enchantedID,
					Level:          level,
					Tier:           tier,
					BuyLocation:    buyLoc,
					SellLocation:   sellLoc,
					UnitPriceBase:  basePrice,
					RunePrice:      mp.runePrice,
					SoulPrice:      mp.soulPrice,
					RelicPrice:     mp.relicPrice,
					MaterialQty:    quantity,
					MaterialCost:   mp.cost,
					TotalCost:      totalCost,
					EnchantedPrice: enchantedPrice,
					Profit:         profit,
					ROI:            roundedROI(profit, totalCost),
				}

				switch {
				case !hasAllMaterials:
					opp.Reason = missingPrefix + strings.Join(mp.missing, ", ")
				case profit > 0:
					opp.Reason = ReasonProfitable
				default:
					opp.Reason = ReasonNotProfitable
				}
				diags = append(diags, opp)

				if hasAllMaterials && profit > 0 {
					opps = append(opps, opp)
				}
			}
		}
	}
	return opps, diags
}

// MaterialsFound lists the distinct material identifiers with at least one
// supply quote anywhere, sorted for stable output.
func (b *QuoteBook) MaterialsFound() []string {
	seen := make(map[string]bool)
	for key := range b.Materials {
		if key.Side == model.SideOffer {
			seen[key.ItemTypeID] = true
		}
	}
	found := make([]string, 0, len(seen))
	for id := range seen {
		found = append(found, id)
	}
	sort.Strings(found)
	return found
}
