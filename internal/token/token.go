// Package token defines the collateral asset the venue escrows and pays out,
// and a database-backed implementation of it.
package token

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrInsufficientBalance   = errors.New("token: insufficient balance")
	ErrInsufficientAllowance = errors.New("token: insufficient allowance")
	ErrInvalidAmount         = errors.New("token: invalid amount")
)

// Token is a fungible collateral asset. Every call is fallible and callers
// must check the returned error.
type Token interface {
	// TransferFrom moves amount from owner to recipient using the allowance
	// owner granted to the venue.
	TransferFrom(ctx context.Context, owner, recipient string, amount decimal.Decimal) error
	// Transfer moves amount out of venue custody to recipient.
	Transfer(ctx context.Context, recipient string, amount decimal.Decimal) error
	BalanceOf(ctx context.Context, account string) (decimal.Decimal, error)
	// Custodian is the account that holds escrowed collateral.
	Custodian() string
}

// Transactional is implemented by tokens whose transfers commit or roll back
// with the database transaction carried by the context.
type Transactional interface {
	JoinsTransaction() bool
}

// IsTransactional reports whether t participates in database transactions
func IsTransactional(t Token) bool {
	tt, ok := t.(Transactional)
	return ok && tt.JoinsTransaction()
}
