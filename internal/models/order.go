package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order is a fixed-odds bet on one side of a market. Orders are never
// deleted; once matched they stay in the book as history.
type Order struct {
	ID         uint64          `gorm:"primaryKey;autoIncrement" json:"id"`
	MarketID   string          `gorm:"size:66;not null;index:idx_orders_book,priority:1" json:"market_id"`
	Owner      string          `gorm:"size:64;not null;index" json:"owner"`
	Side       Side            `gorm:"not null" json:"side"`
	Amount     decimal.Decimal `gorm:"type:decimal(78,0);not null" json:"amount"`
	Odds       decimal.Decimal `gorm:"type:decimal(78,0);not null" json:"odds"`
	Collateral decimal.Decimal `gorm:"type:decimal(78,0);not null" json:"collateral"`
	Active     bool            `gorm:"not null;index:idx_orders_book,priority:2" json:"active"`
	Matched    bool            `gorm:"not null;default:false;index:idx_orders_book,priority:3" json:"matched"`
	MatchID    *uint64         `gorm:"index" json:"match_id,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// TableName specifies the table name for Order model
func (Order) TableName() string {
	return "orders"
}

// Match pairs a side A order with a side B order. The pooled collateral of
// both orders at the matched amount is paid to the winning side on claim.
type Match struct {
	ID        uint64          `gorm:"primaryKey;autoIncrement" json:"id"`
	MarketID  string          `gorm:"size:66;not null;index" json:"market_id"`
	OrderAID  uint64          `gorm:"not null;index" json:"order_a_id"`
	OrderBID  uint64          `gorm:"not null;index" json:"order_b_id"`
	Amount    decimal.Decimal `gorm:"type:decimal(78,0);not null" json:"amount"`
	OddsA     decimal.Decimal `gorm:"type:decimal(78,0);not null" json:"odds_a"`
	OddsB     decimal.Decimal `gorm:"type:decimal(78,0);not null" json:"odds_b"`
	Claimed   bool            `gorm:"not null;default:false" json:"claimed"`
	Winner    string          `gorm:"size:64" json:"winner,omitempty"`
	Payout    decimal.Decimal `gorm:"type:decimal(78,0);not null" json:"payout"`
	ClaimedAt *time.Time      `json:"claimed_at,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// TableName specifies the table name for Match model
func (Match) TableName() string {
	return "matches"
}

// PlaceOrderRequest is the request body for placing an order.
// Amount and odds are integer strings; odds use 1e18 fixed point.
type PlaceOrderRequest struct {
	MarketID string          `json:"market_id" binding:"required"`
	Side     Side            `json:"side" binding:"required"`
	Amount   decimal.Decimal `json:"amount"`
	Odds     decimal.Decimal `json:"odds"`
}

// OrderBookView lists a market's active unmatched orders as parallel
// sequences in insertion order
type OrderBookView struct {
	MarketID string            `json:"market_id"`
	IDs      []uint64          `json:"ids"`
	Amounts  []decimal.Decimal `json:"amounts"`
	Odds     []decimal.Decimal `json:"odds"`
	Sides    []Side            `json:"sides"`
}
