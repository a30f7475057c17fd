package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// EscrowKind classifies a movement of collateral in or out of venue custody
type EscrowKind string

const (
	EscrowKindOrder     EscrowKind = "ORDER"     // order collateral pulled in
	EscrowKindLiquidity EscrowKind = "LIQUIDITY" // pool deposit pulled in
	EscrowKindSwap      EscrowKind = "SWAP"      // swap input pulled in
	EscrowKindPayout    EscrowKind = "PAYOUT"    // winnings paid out
	EscrowKindStranded  EscrowKind = "STRANDED"  // unmatched remainder of a matched order
)

// Inbound reports whether the kind moves collateral into custody
func (k EscrowKind) Inbound() bool {
	return k == EscrowKindOrder || k == EscrowKindLiquidity || k == EscrowKindSwap
}

// EscrowEntry is one line of the escrow journal. STRANDED entries are
// informational and do not move funds.
type EscrowEntry struct {
	ID        uint64          `gorm:"primaryKey;autoIncrement" json:"id"`
	MarketID  string          `gorm:"size:66;not null;index" json:"market_id"`
	Account   string          `gorm:"size:64;not null;index" json:"account"`
	Kind      EscrowKind      `gorm:"size:20;not null;index" json:"kind"`
	Ref       string          `gorm:"size:64" json:"ref"`
	Amount    decimal.Decimal `gorm:"type:decimal(78,0);not null" json:"amount"`
	CreatedAt time.Time       `json:"created_at"`
}

func (EscrowEntry) TableName() string {
	return "escrow_entries"
}
