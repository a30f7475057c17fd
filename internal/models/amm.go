package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// LiquidityPool is the per-market constant-product pool
type LiquidityPool struct {
	MarketID    string          `gorm:"primaryKey;size:66" json:"market_id"`
	ReserveA    decimal.Decimal `gorm:"type:decimal(78,0);not null" json:"reserve_a"`
	ReserveB    decimal.Decimal `gorm:"type:decimal(78,0);not null" json:"reserve_b"`
	TotalShares decimal.Decimal `gorm:"type:decimal(78,0);not null" json:"total_shares"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (LiquidityPool) TableName() string {
	return "liquidity_pools"
}

// LiquidityShare is a provider's share balance in a pool
type LiquidityShare struct {
	MarketID  string          `gorm:"primaryKey;size:66" json:"market_id"`
	Provider  string          `gorm:"primaryKey;size:64" json:"provider"`
	Shares    decimal.Decimal `gorm:"type:decimal(78,0);not null" json:"shares"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (LiquidityShare) TableName() string {
	return "liquidity_shares"
}

// AMMSwap records an executed swap and the reserves it left behind
type AMMSwap struct {
	ID        uint64          `gorm:"primaryKey;autoIncrement" json:"id"`
	MarketID  string          `gorm:"size:66;not null;index" json:"market_id"`
	Trader    string          `gorm:"size:64;not null;index" json:"trader"`
	Side      Side            `gorm:"not null" json:"side"`
	AmountIn  decimal.Decimal `gorm:"type:decimal(78,0);not null" json:"amount_in"`
	AmountOut decimal.Decimal `gorm:"type:decimal(78,0);not null" json:"amount_out"`
	ReserveA  decimal.Decimal `gorm:"type:decimal(78,0);not null" json:"reserve_a"`
	ReserveB  decimal.Decimal `gorm:"type:decimal(78,0);not null" json:"reserve_b"`
	CreatedAt time.Time       `json:"created_at"`
}

func (AMMSwap) TableName() string {
	return "amm_swaps"
}

// Credit is the internal balance a trader accrues from swap output.
// Side is the outcome the credit is denominated in.
type Credit struct {
	Owner     string          `gorm:"primaryKey;size:64" json:"owner"`
	MarketID  string          `gorm:"primaryKey;size:66" json:"market_id"`
	Side      Side            `gorm:"primaryKey" json:"side"`
	Amount    decimal.Decimal `gorm:"type:decimal(78,0);not null" json:"amount"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (Credit) TableName() string {
	return "credits"
}

// ---- Request/Response DTOs ----

// AddLiquidityRequest is the request body for depositing into a pool
type AddLiquidityRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// SwapRequest is the request body for a swap
type SwapRequest struct {
	Side     Side            `json:"side" binding:"required"`
	AmountIn decimal.Decimal `json:"amount_in"`
}

// SwapQuote is the result of pricing a swap without executing it
type SwapQuote struct {
	MarketID  string          `json:"market_id"`
	Side      Side            `json:"side"`
	AmountIn  decimal.Decimal `json:"amount_in"`
	AmountOut decimal.Decimal `json:"amount_out"`
	ReserveA  decimal.Decimal `json:"reserve_a"`
	ReserveB  decimal.Decimal `json:"reserve_b"`
}

// PoolResponse is the API response for a pool
type PoolResponse struct {
	MarketID    string          `json:"market_id"`
	ReserveA    decimal.Decimal `json:"reserve_a"`
	ReserveB    decimal.Decimal `json:"reserve_b"`
	TotalShares decimal.Decimal `json:"total_shares"`
	PriceA      float64         `json:"price_a"`
	PriceB      float64         `json:"price_b"`
	MyShares    decimal.Decimal `json:"my_shares"`
	UpdatedAt   time.Time       `json:"updated_at"`
}
