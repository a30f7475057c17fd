// Package events records venue notifications in an outbox table and fans
// them out to observers after the recording transaction commits.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"prediction-venue/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Event is the published form of an outbox row
type Event struct {
	ID        uuid.UUID       `json:"id"`
	Seq       uint64          `json:"seq"`
	Kind      string          `json:"kind"`
	MarketID  string          `json:"market_id"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

// Publisher delivers events to one observer channel
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Multi publishes to every publisher and joins their errors
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, ev Event) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type MarketCreated struct {
	MarketID       string    `json:"market_id"`
	Description    string    `json:"description"`
	EndTime        time.Time `json:"end_time"`
	SettlementTime time.Time `json:"settlement_time"`
}

type OrderPlaced struct {
	OrderID  uint64 `json:"order_id"`
	User     string `json:"user"`
	MarketID string `json:"market_id"`
}

type OrderMatched struct {
	MatchID  uint64          `json:"match_id"`
	OrderAID uint64          `json:"order_a_id"`
	OrderBID uint64          `json:"order_b_id"`
	Amount   decimal.Decimal `json:"amount"`
}

type MarketSettled struct {
	MarketID string      `json:"market_id"`
	Outcome  models.Side `json:"outcome"`
}

type LiquidityAdded struct {
	MarketID string          `json:"market_id"`
	Provider string          `json:"provider"`
	Amount   decimal.Decimal `json:"amount"`
	Shares   decimal.Decimal `json:"shares"`
}

type SwapExecuted struct {
	MarketID  string          `json:"market_id"`
	Trader    string          `json:"trader"`
	Side      models.Side     `json:"side"`
	AmountIn  decimal.Decimal `json:"amount_in"`
	AmountOut decimal.Decimal `json:"amount_out"`
}

type WinningsClaimed struct {
	MatchID uint64          `json:"match_id"`
	Winner  string          `json:"winner"`
	Payout  decimal.Decimal `json:"payout"`
}

// Append writes an event to the outbox on tx. It becomes visible to the
// dispatcher only if tx commits.
func Append(tx *gorm.DB, kind, marketID string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", kind, err)
	}
	row := models.VenueEvent{
		EventID:  uuid.New(),
		Kind:     kind,
		MarketID: marketID,
		Payload:  string(body),
	}
	if err := tx.Create(&row).Error; err != nil {
		return fmt.Errorf("failed to record %s event: %w", kind, err)
	}
	return nil
}

// FromRow converts an outbox row to its published form
func FromRow(row models.VenueEvent) Event {
	return Event{
		ID:        row.EventID,
		Seq:       row.ID,
		Kind:      row.Kind,
		MarketID:  row.MarketID,
		Payload:   json.RawMessage(row.Payload),
		CreatedAt: row.CreatedAt,
	}
}
