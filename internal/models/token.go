package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TokenBalance is an account balance of the database-backed collateral token
type TokenBalance struct {
	Owner     string          `gorm:"primaryKey;size:64" json:"owner"`
	Balance   decimal.Decimal `gorm:"type:decimal(78,0);not null" json:"balance"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (TokenBalance) TableName() string {
	return "token_balances"
}

// TokenAllowance is the amount Spender may pull from Owner
type TokenAllowance struct {
	Owner     string          `gorm:"primaryKey;size:64" json:"owner"`
	Spender   string          `gorm:"primaryKey;size:64" json:"spender"`
	Amount    decimal.Decimal `gorm:"type:decimal(78,0);not null" json:"amount"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (TokenAllowance) TableName() string {
	return "token_allowances"
}

// MintRequest is the operator request to credit virtual collateral
type MintRequest struct {
	Owner  string          `json:"owner" binding:"required"`
	Amount decimal.Decimal `json:"amount"`
}

// ApproveRequest sets the venue's allowance over the caller's balance
type ApproveRequest struct {
	Amount decimal.Decimal `json:"amount"`
}
