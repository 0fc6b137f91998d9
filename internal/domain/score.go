package domain

import "time"

// Setting keys persisted in the settings collection
const (
	SettingTokens     = "tokens"
	SettingSaleProfit = "accumulated_sale_profit"
)

// DefaultNickname is used when a session score is saved without one
const DefaultNickname = "Anonymous"

// MaxNicknameLen bounds the nickname stored on a leaderboard entry
const MaxNicknameLen = 32

// SessionScore is a leaderboard entry: a snapshot of the total score at save
// time. Entries are immutable once written.
type SessionScore struct {
	ID       int64     `json:"id"`
	Score    int       `json:"score"`
	Nickname string    `json:"nickname"`
	Date     time.Time `json:"date"`
}

// Wallet is the player's economy snapshot served to the UI
type Wallet struct {
	Tokens     int `json:"tokens"`
	SaleProfit int `json:"sale_profit"`
	TotalScore int `json:"total_score"`
}

// SortOrder represents a collection listing order
type SortOrder string

const (
	SortDateDesc   SortOrder = "date-desc"
	SortDateAsc    SortOrder = "date-asc"
	SortRarityDesc SortOrder = "rarity-desc"
	SortRarityAsc  SortOrder = "rarity-asc"
)

// ValidSortOrder reports whether s is one of the supported listing orders
func ValidSortOrder(s SortOrder) bool {
	switch s {
	case SortDateDesc, SortDateAsc, SortRarityDesc, SortRarityAsc:
		return true
	}
	return false
}

// CollectionQuery describes the filter, sort and pagination applied on top of
// the stored collection. Ordering is a presentation concern, not a store one.
type CollectionQuery struct {
	Rarity  Rarity    `json:"rarity,omitempty"` // empty means all tiers
	Sort    SortOrder `json:"sort,omitempty"`
	Page    int       `json:"page,omitempty"`
	PerPage int       `json:"per_page,omitempty"`
}

// CollectionPage is one page of the filtered, sorted collection
type CollectionPage struct {
	Creatures  []Creature `json:"creatures"`
	Page       int        `json:"page"`
	TotalPages int        `json:"total_pages"`
	TotalCount int        `json:"total_count"`
}

// SaveScoreRequest asks for the current total score to be snapshotted to the
// leaderboard under a nickname
type SaveScoreRequest struct {
	Nickname string `json:"nickname,omitempty"`
}
