package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OracleReport holds operator-posted oracle data for a market. Price is a
// 1e18 fixed-point probability of side A.
type OracleReport struct {
	MarketID       string          `gorm:"primaryKey;size:66" json:"market_id"`
	Price          decimal.Decimal `gorm:"type:decimal(78,0);not null" json:"price"`
	PriceUpdatedAt *time.Time      `json:"price_updated_at,omitempty"`
	Resolved       bool            `gorm:"not null;default:false" json:"resolved"`
	Outcome        Side            `gorm:"not null;default:0" json:"outcome"`
	Reporter       string          `gorm:"size:64" json:"reporter"`
	ResolvedAt     *time.Time      `json:"resolved_at,omitempty"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

func (OracleReport) TableName() string {
	return "oracle_reports"
}

// ResolveRequest is the operator request to post a market outcome
type ResolveRequest struct {
	Outcome Side `json:"outcome" binding:"required"`
}

// PriceRequest is the operator request to post a price
type PriceRequest struct {
	Price string `json:"price" binding:"required"`
}
