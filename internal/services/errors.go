package services

import "errors"

// Validation failures
var (
	ErrMarketNotFound        = errors.New("market not found")
	ErrMarketExists          = errors.New("market id already exists")
	ErrInvalidMarketWindow   = errors.New("settlement time must not precede end time")
	ErrInvalidDescription    = errors.New("description is required")
	ErrInvalidStatus         = errors.New("unknown market status")
	ErrMarketInactive        = errors.New("market is not active")
	ErrMarketEnded           = errors.New("market has ended")
	ErrInvalidSide           = errors.New("side must be A or B")
	ErrInvalidAmount         = errors.New("amount must be a positive integer")
	ErrInvalidOdds           = errors.New("odds must be a positive integer")
	ErrOrderNotFound         = errors.New("order not found")
	ErrMatchNotFound         = errors.New("match not found")
	ErrPoolNotFound          = errors.New("pool not found")
	ErrInsufficientLiquidity = errors.New("insufficient pool liquidity")
)

// Precondition failures
var (
	ErrNotReadyForSettlement = errors.New("market is not ready for settlement")
	ErrAlreadySettled        = errors.New("market already settled")
	ErrOracleNotSettled      = errors.New("oracle has not resolved the market")
	ErrInvalidOutcome        = errors.New("oracle reported an invalid outcome")
	ErrAlreadyClaimed        = errors.New("match already claimed")
	ErrMarketNotSettled      = errors.New("market not settled")
	ErrReentrantCall         = errors.New("reentrant call")
)

// Collaborator failures
var (
	ErrTransferFailed    = errors.New("collateral transfer failed")
	ErrOracleUnavailable = errors.New("oracle unavailable")
)

// Authorization failures
var ErrUnauthorized = errors.New("unauthorized")

// IsNotFound reports whether err is one of the venue's not found conditions
func IsNotFound(err error) bool {
	return errors.Is(err, ErrMarketNotFound) ||
		errors.Is(err, ErrOrderNotFound) ||
		errors.Is(err, ErrMatchNotFound) ||
		errors.Is(err, ErrPoolNotFound)
}
