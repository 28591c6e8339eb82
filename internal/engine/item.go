package engine

import (
	"fmt"
	"strings"
)

// Category is the equipment slot class of an item, derived deterministically
// from its type identifier. The category decides how many enchanting
// materials an upgrade consumes.
type Category int

const (
	CategoryUnknown Category = iota
	CategoryTwoHanded
	CategoryMainHand
	CategoryOffHand
	CategoryHead
	CategoryArmor
	CategoryShoes
	CategoryCape
	CategoryBag
)

func (c Category) String() string {
	switch c {
	case CategoryTwoHanded:
		return "two_handed"
	case CategoryMainHand:
		return "main_hand"
	case CategoryOffHand:
		return "off_hand"
	case CategoryHead:
		return "head"
	case CategoryArmor:
		return "armor"
	case CategoryShoes:
		return "shoes"
	case CategoryCape:
		return "cape"
	case CategoryBag:
		return "bag"
	default:
		return "unknown"
	}
}

// materialQuantities maps each category to the number of runes/souls/relics
// consumed per enchantment level. This is configuration, not logic: the
// numbers mirror the in-game enchanting table. Unknown categories map to 0
// and are skipped by the matcher.
var materialQuantities = map[Category]int{
	CategoryTwoHanded: 384,
	CategoryMainHand:  288,
	CategoryOffHand:   96,
	CategoryHead:      96,
	CategoryArmor:     192,
	CategoryShoes:     96,
	CategoryCape:      48,
	CategoryBag:       96,
}

// categoryTokens maps identifier substrings to categories. Checked in order;
// first match wins (2H before MAIN so "2H" never falls through).
var categoryTokens = []struct {
	token    string
	category Category
}{
	{"_2H_", CategoryTwoHanded},
	{"_MAIN_", CategoryMainHand},
	{"_OFF_", CategoryOffHand},
	{"_HEAD_", CategoryHead},
	{"_ARMOR_", CategoryArmor},
	{"_SHOES_", CategoryShoes},
	{"_CAPE", CategoryCape},
	{"_BAG", CategoryBag},
}

// Classify returns the equipment category of an item type identifier.
func Classify(itemTypeID string) Category {
	for _, ct := range categoryTokens {
		if strings.Contains(itemTypeID, ct.token) {
			return ct.category
		}
	}
	return CategoryUnknown
}

// MaterialQuantity returns the per-level material count for an item, or 0
// when the item is not enchantable equipment.
func MaterialQuantity(itemTypeID string) int {
	return materialQuantities[Classify(itemTypeID)]
}

// Tier extracts the numeric tier from a leading "T{n}_" token.
// Returns 0 when the identifier carries no tier token.
func Tier(itemTypeID string) int {
	if len(itemTypeID) < 3 || itemTypeID[0] != 'T' {
		return 0
	}
	if itemTypeID[1] < '1' || itemTypeID[1] > '8' || itemTypeID[2] != '_' {
		return 0
	}
	return int(itemTypeID[1] - '0')
}

// EnchantmentLevel extracts the "@{n}" suffix, or 0 for an unenchanted item.
func EnchantmentLevel(itemTypeID string) int {
	i := strings.LastIndexByte(itemTypeID, '@')
	if i < 0 || i != len(itemTypeID)-2 {
		return 0
	}
	n := itemTypeID[i+1]
	if n < '1' || n > '4' {
		return 0
	}
	return int(n - '0')
}

// EnchantedID returns the identifier of the enchanted variant of a base item.
func EnchantedID(baseID string, level int) string {
	return fmt.Sprintf("%s@%d", baseID, level)
}

// Material name suffixes. Items whose type identifier ends in one of these
// are crafting reagents and are aggregated without a quality dimension.
const (
	materialRune  = "_RUNE"
	materialSoul  = "_SOUL"
	materialRelic = "_RELIC"
)

// IsMaterial reports whether an item type identifier denotes an enchanting
// reagent (rune, soul, or relic).
func IsMaterial(itemTypeID string) bool {
	return strings.HasSuffix(itemTypeID, materialRune) ||
		strings.HasSuffix(itemTypeID, materialSoul) ||
		strings.HasSuffix(itemTypeID, materialRelic)
}

// RuneID returns the tier-specific rune identifier, e.g. "T4_RUNE".
func RuneID(tier int) string { return fmt.Sprintf("T%d%s", tier, materialRune) }

// SoulID returns the tier-specific soul identifier, e.g. "T4_SOUL".
func SoulID(tier int) string { return fmt.Sprintf("T%d%s", tier, materialSoul) }

// RelicID returns the tier-specific relic identifier, e.g. "T4_RELIC".
func RelicID(tier int) string { return fmt.Sprintf("T%d%s", tier, materialRelic) }

// RequiredMaterials returns the tier-specific material identifiers consumed
// by an upgrade to the given level. Level 1 needs runes only; level 2 adds
// souls; level 3 adds relics.
func RequiredMaterials(tier, level int) []string {
	switch level {
	case 1:
		return []string{RuneID(tier)}
	case 2:
		return []string{RuneID(tier), SoulID(tier)}
	case 3:
		return []string{RuneID(tier), SoulID(tier), RelicID(tier)}
	default:
		return nil
	}
}
