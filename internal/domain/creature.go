package domain

import (
	"time"
)

// Rarity represents the quality grade assigned to a creature at generation time
type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityUncommon  Rarity = "uncommon"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
)

// RarityInfo holds the static attributes of a rarity tier
type RarityInfo struct {
	MinScore  int     `json:"min_score"`
	MaxScore  int     `json:"max_score"`
	SaleValue int     `json:"sale_value"`
	Weight    float64 `json:"weight"`
	Ordinal   int     `json:"-"`
}

// rarityTable is the closed five-tier scheme. Score bands are disjoint and
// ascending, sale values ascend with rarity, and weights sum to 1.0.
var rarityTable = map[Rarity]RarityInfo{
	RarityCommon:    {MinScore: 10, MaxScore: 50, SaleValue: 5, Weight: 0.50, Ordinal: 0},
	RarityUncommon:  {MinScore: 51, MaxScore: 100, SaleValue: 15, Weight: 0.25, Ordinal: 1},
	RarityRare:      {MinScore: 101, MaxScore: 200, SaleValue: 30, Weight: 0.15, Ordinal: 2},
	RarityEpic:      {MinScore: 201, MaxScore: 400, SaleValue: 60, Weight: 0.07, Ordinal: 3},
	RarityLegendary: {MinScore: 401, MaxScore: 800, SaleValue: 100, Weight: 0.03, Ordinal: 4},
}

// rarityOrder lists the tiers from most to least likely. The weighted draw
// walks this slice, so it must stay aligned with the table's weights.
var rarityOrder = []Rarity{
	RarityCommon,
	RarityUncommon,
	RarityRare,
	RarityEpic,
	RarityLegendary,
}

// Rarities returns the closed set of tiers in canonical order
func Rarities() []Rarity {
	out := make([]Rarity, len(rarityOrder))
	copy(out, rarityOrder)
	return out
}

// RarityTable returns a copy of the full tier table
func RarityTable() map[Rarity]RarityInfo {
	out := make(map[Rarity]RarityInfo, len(rarityTable))
	for r, info := range rarityTable {
		out[r] = info
	}
	return out
}

// RarityDetails returns the static attributes for a tier, and whether the
// tier is part of the closed set
func RarityDetails(r Rarity) (RarityInfo, bool) {
	info, ok := rarityTable[r]
	return info, ok
}

// ValidRarity reports whether r belongs to the closed tier set
func ValidRarity(r Rarity) bool {
	_, ok := rarityTable[r]
	return ok
}

// Creature represents a generated collectible owned by the player.
// Records are immutable after creation except for deletion on sale.
type Creature struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Rarity    Rarity    `json:"rarity"`
	Score     int       `json:"score"`
	ImageURL  string    `json:"image_url"`
	CreatedAt time.Time `json:"created_at"`
}

// SaleValue returns the fixed token value credited when the creature is sold
func (c *Creature) SaleValue() (int, error) {
	info, ok := rarityTable[c.Rarity]
	if !ok {
		return 0, ErrUnknownRarity
	}
	return info.SaleValue, nil
}
