// Package oracle provides market prices and resolved outcomes to settlement.
package oracle

import (
	"context"
	"errors"
	"time"

	"prediction-venue/internal/models"

	"github.com/shopspring/decimal"
)

var (
	ErrNoPrice          = errors.New("oracle: no price reported")
	ErrInvalidOutcome   = errors.New("oracle: outcome must be A or B")
	ErrAlreadyResolved  = errors.New("oracle: market already resolved")
	ErrUnexpectedStatus = errors.New("oracle: unexpected response status")
)

// Oracle reports prices and resolution state for markets. An unresolved
// market reports (false, SideNone).
type Oracle interface {
	GetPrice(ctx context.Context, marketID string) (decimal.Decimal, time.Time, error)
	IsSettled(ctx context.Context, marketID string) (bool, models.Side, error)
}
