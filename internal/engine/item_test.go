package engine

import (
	"reflect"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		itemID   string
		category Category
	}{
		{"T4_2H_BOW", CategoryTwoHanded},
		{"T5_MAIN_SWORD", CategoryMainHand},
		{"T4_OFF_SHIELD", CategoryOffHand},
		{"T6_HEAD_PLATE_SET1", CategoryHead},
		{"T4_ARMOR_LEATHER_SET2", CategoryArmor},
		{"T7_SHOES_CLOTH_SET1", CategoryShoes},
		{"T4_CAPE", CategoryCape},
		{"T3_BAG", CategoryBag},
		{"T4_RUNE", CategoryUnknown},
		{"T4_PLANKS", CategoryUnknown},
	}
	for _, tt := range tests {
		if got := Classify(tt.itemID); got != tt.category {
			t.Errorf("Classify(%s) = %s, want %s", tt.itemID, got, tt.category)
		}
	}
}

func TestMaterialQuantity(t *testing.T) {
	tests := []struct {
		itemID string
		want   int
	}{
		{"T4_2H_BOW", 384},
		{"T5_MAIN_SWORD", 288},
		{"T4_OFF_SHIELD", 96},
		{"T6_HEAD_PLATE_SET1", 96},
		{"T4_ARMOR_LEATHER_SET2", 192},
		{"T7_SHOES_CLOTH_SET1", 96},
		{"T4_CAPE", 48},
		{"T3_BAG", 96},
		{"T4_PLANKS", 0}, // not enchantable equipment
	}
	for _, tt := range tests {
		if got := MaterialQuantity(tt.itemID); got != tt.want {
			t.Errorf("MaterialQuantity(%s) = %d, want %d", tt.itemID, got, tt.want)
		}
	}
}

func TestTier(t *testing.T) {
	tests := []struct {
		itemID string
		want   int
	}{
		{"T4_BAG", 4},
		{"T8_2H_BOW", 8},
		{"T1_SHOES_CLOTH", 1},
		{"TREASURE_CHEST", 0}, // no tier token
		{"T9_BAG", 0},         // out of range
		{"XT4_BAG", 0},
		{"T4", 0},
	}
	for _, tt := range tests {
		if got := Tier(tt.itemID); got != tt.want {
			t.Errorf("Tier(%s) = %d, want %d", tt.itemID, got, tt.want)
		}
	}
}

func TestEnchantmentLevel(t *testing.T) {
	tests := []struct {
		itemID string
		want   int
	}{
		{"T4_BAG", 0},
		{"T4_BAG@1", 1},
		{"T4_BAG@3", 3},
		{"T4_BAG@4", 4},
		{"T4_BAG@9", 0}, // out of range
		{"T4_B@G_X", 0}, // @ not a suffix
	}
	for _, tt := range tests {
		if got := EnchantmentLevel(tt.itemID); got != tt.want {
			t.Errorf("EnchantmentLevel(%s) = %d, want %d", tt.itemID, got, tt.want)
		}
	}
}

func TestEnchantedID(t *testing.T) {
	if got := EnchantedID("T4_BAG", 2); got != "T4_BAG@2" {
		t.Errorf("EnchantedID = %s, want T4_BAG@2", got)
	}
}

func TestIsMaterial(t *testing.T) {
	for _, id := range []string{"T4_RUNE", "T5_SOUL", "T8_RELIC"} {
		if !IsMaterial(id) {
			t.Errorf("IsMaterial(%s) = false, want true", id)
		}
	}
	for _, id := range []string{"T4_BAG", "T4_RUNESTONE_X", "SOUL_T4"} {
		if IsMaterial(id) {
			t.Errorf("IsMaterial(%s) = true, want false", id)
		}
	}
}

func TestRequiredMaterials_CumulativeByLevel(t *testing.T) {
	tests := []struct {
		level int
		want  []string
	}{
		{1, []string{"T4_RUNE"}},
		{2, []string{"T4_RUNE", "T4_SOUL"}},
		{3, []string{"T4_RUNE", "T4_SOUL", "T4_RELIC"}},
		{4, nil},
		{0, nil},
	}
	for _, tt := range tests {
		if got := RequiredMaterials(4, tt.level); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("RequiredMaterials(4, %d) = %v, want %v", tt.level, got, tt.want)
		}
	}
}
