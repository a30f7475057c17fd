package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Side identifies one of the two outcomes of a binary market
type Side int16

const (
	SideNone Side = 0
	SideA    Side = 1
	SideB    Side = 2
)

// Valid reports whether s is A or B
func (s Side) Valid() bool {
	return s == SideA || s == SideB
}

// Opposite returns the other side
func (s Side) Opposite() Side {
	switch s {
	case SideA:
		return SideB
	case SideB:
		return SideA
	}
	return SideNone
}

func (s Side) String() string {
	switch s {
	case SideA:
		return "A"
	case SideB:
		return "B"
	}
	return "none"
}

// Market represents a binary-outcome market
type Market struct {
	ID             string          `gorm:"primaryKey;size:66" json:"id"`
	Description    string          `gorm:"type:text;not null" json:"description"`
	Creator        string          `gorm:"size:64;not null" json:"creator"`
	EndTime        time.Time       `gorm:"not null;index" json:"end_time"`
	SettlementTime time.Time       `gorm:"not null;index" json:"settlement_time"`
	Active         bool            `gorm:"not null;index" json:"active"`
	Settled        bool            `gorm:"not null;default:false;index" json:"settled"`
	Outcome        Side            `gorm:"not null;default:0" json:"outcome"`
	VolumeA        decimal.Decimal `gorm:"type:decimal(78,0);not null" json:"volume_a"`
	VolumeB        decimal.Decimal `gorm:"type:decimal(78,0);not null" json:"volume_b"`
	SettledAt      *time.Time      `json:"settled_at,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// TableName specifies the table name for Market model
func (Market) TableName() string {
	return "markets"
}

// Market status filters for listings
const (
	MarketStatusActive  = "active"
	MarketStatusClosed  = "closed"
	MarketStatusSettled = "settled"
)

// CreateMarketRequest is the request body for creating a market
type CreateMarketRequest struct {
	Description    string    `json:"description" binding:"required"`
	EndTime        time.Time `json:"end_time" binding:"required"`
	SettlementTime time.Time `json:"settlement_time" binding:"required"`
}
