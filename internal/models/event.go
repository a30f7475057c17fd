package models

import (
	"time"

	"github.com/google/uuid"
)

// Event kinds published by the venue
const (
	EventMarketCreated   = "MarketCreated"
	EventOrderPlaced     = "OrderPlaced"
	EventOrderMatched    = "OrderMatched"
	EventMarketSettled   = "MarketSettled"
	EventLiquidityAdded  = "LiquidityAdded"
	EventSwapExecuted    = "SwapExecuted"
	EventWinningsClaimed = "WinningsClaimed"
)

// VenueEvent is an outbox row written in the same transaction as the state
// change it describes and published after commit.
type VenueEvent struct {
	ID          uint64     `gorm:"primaryKey;autoIncrement" json:"seq"`
	EventID     uuid.UUID  `gorm:"type:uuid;uniqueIndex;not null" json:"id"`
	Kind        string     `gorm:"size:50;not null;index" json:"kind"`
	MarketID    string     `gorm:"size:66;not null;index" json:"market_id"`
	Payload     string     `gorm:"type:text;not null" json:"payload"`
	PublishedAt *time.Time `gorm:"index" json:"published_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

func (VenueEvent) TableName() string {
	return "venue_events"
}
