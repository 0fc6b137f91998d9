package domain

import (
	"math"
	"testing"
)

func TestRarityTable_Invariants(t *testing.T) {
	tiers := Rarities()
	if len(tiers) != 5 {
		t.Fatalf("got %d tiers, want 5", len(tiers))
	}
	if table := RarityTable(); len(table) != len(tiers) {
		t.Fatalf("table has %d tiers, order has %d", len(table), len(tiers))
	}

	totalWeight := 0.0
	prevMax := 0
	prevSale := 0
	for _, r := range tiers {
		info, ok := RarityDetails(r)
		if !ok {
			t.Fatalf("tier %s missing from table", r)
		}
		if info.MinScore > info.MaxScore {
			t.Fatalf("tier %s band [%d, %d] inverted", r, info.MinScore, info.MaxScore)
		}
		if info.MinScore <= prevMax {
			t.Fatalf("tier %s band overlaps previous tier (min=%d, prev max=%d)",
				r, info.MinScore, prevMax)
		}
		if info.SaleValue <= prevSale {
			t.Fatalf("tier %s sale value %d does not ascend past %d",
				r, info.SaleValue, prevSale)
		}
		totalWeight += info.Weight
		prevMax = info.MaxScore
		prevSale = info.SaleValue
	}

	if math.Abs(totalWeight-1.0) > 1e-9 {
		t.Fatalf("weights sum to %v, want 1.0", totalWeight)
	}
}

func TestValidRarity(t *testing.T) {
	if !ValidRarity(RarityLegendary) {
		t.Fatalf("legendary rejected")
	}
	if ValidRarity(Rarity("mythic")) {
		t.Fatalf("unknown tier accepted")
	}
}

func TestCreature_SaleValue(t *testing.T) {
	c := Creature{Rarity: RarityEpic}
	v, err := c.SaleValue()
	if err != nil {
		t.Fatalf("sale value: %v", err)
	}
	if v != 60 {
		t.Fatalf("epic sale value=%d, want 60", v)
	}

	c.Rarity = "mythic"
	if _, err := c.SaleValue(); err != ErrUnknownRarity {
		t.Fatalf("got %v, want ErrUnknownRarity", err)
	}
}

func TestValidSortOrder(t *testing.T) {
	for _, s := range []SortOrder{SortDateAsc, SortDateDesc, SortRarityAsc, SortRarityDesc} {
		if !ValidSortOrder(s) {
			t.Fatalf("sort mode %s rejected", s)
		}
	}
	if ValidSortOrder(SortOrder("name-asc")) {
		t.Fatalf("unknown sort mode accepted")
	}
}
