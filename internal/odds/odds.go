// Package odds implements the 1e18 fixed-point arithmetic used for order
// collateral, match compatibility and the AMM curve. Every value is a
// non-negative integer carried in a decimal.Decimal, and every division
// truncates toward zero.
package odds

import (
	"errors"

	"github.com/shopspring/decimal"
)

// ErrEmptyReserves is returned when shares are priced against a pool whose
// reserves sum to zero.
var ErrEmptyReserves = errors.New("pool reserves are empty")

var (
	// Scale is 1.0 in fixed point.
	Scale = decimal.New(1, 18)
	// ScaleSquared is the numerator of the implied-odds inversion.
	ScaleSquared = decimal.New(1, 36)

	two = decimal.NewFromInt(2)
)

// Div divides two integers and truncates toward zero.
func Div(a, b decimal.Decimal) decimal.Decimal {
	q, _ := a.QuoRem(b, 0)
	return q
}

// MulDiv computes a*b/c with a single truncation.
func MulDiv(a, b, c decimal.Decimal) decimal.Decimal {
	return Div(a.Mul(b), c)
}

// Half returns floor(a/2).
func Half(a decimal.Decimal) decimal.Decimal {
	return Div(a, two)
}

// IsWhole reports whether d is a non-negative integer.
func IsWhole(d decimal.Decimal) bool {
	return !d.IsNegative() && d.Equal(d.Truncate(0))
}

// Collateral is the escrow a taker of the given side locks. Side A escrows the
// stake itself, side B escrows stake*odds/1e18.
func Collateral(sideA bool, amount, o decimal.Decimal) decimal.Decimal {
	if sideA {
		return amount
	}
	return MulDiv(amount, o, Scale)
}

// Implied returns 1e36/o, the reciprocal odds in fixed point.
func Implied(o decimal.Decimal) decimal.Decimal {
	return Div(ScaleSquared, o)
}

// Compatible reports whether an incoming order with odds incoming can take a
// resting order with odds resting: 1e36/incoming >= resting.
func Compatible(incoming, resting decimal.Decimal) bool {
	return Implied(incoming).GreaterThanOrEqual(resting)
}

// SwapOut is the constant-product output for amountIn against reserves
// (in, out): out*amountIn/(in+amountIn). No fee is taken.
func SwapOut(reserveIn, reserveOut, amountIn decimal.Decimal) decimal.Decimal {
	denom := reserveIn.Add(amountIn)
	if denom.IsZero() {
		return decimal.Zero
	}
	return MulDiv(reserveOut, amountIn, denom)
}

// Shares is the number of LP shares minted for amount against the current pool.
func Shares(amount, totalShares, reserveA, reserveB decimal.Decimal) (decimal.Decimal, error) {
	if totalShares.IsZero() {
		return amount, nil
	}
	reserves := reserveA.Add(reserveB)
	if reserves.IsZero() {
		return decimal.Zero, ErrEmptyReserves
	}
	return MulDiv(amount, totalShares, reserves), nil
}
