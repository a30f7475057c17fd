package events

import (
	"context"
	"fmt"
	"time"

	"prediction-venue/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Dispatcher drains the outbox in sequence order. An event is marked
// published only after every publisher accepted it, so delivery is
// at-least-once.
type Dispatcher struct {
	db        *gorm.DB
	publisher Publisher
	batchSize int
	log       *zap.Logger
}

func NewDispatcher(db *gorm.DB, publisher Publisher, log *zap.Logger) *Dispatcher {
	return &Dispatcher{
		db:        db,
		publisher: publisher,
		batchSize: 100,
		log:       log.Named("dispatcher"),
	}
}

// Dispatch publishes one batch of pending events and returns how many were sent
func (d *Dispatcher) Dispatch(ctx context.Context) (int, error) {
	var rows []models.VenueEvent
	if err := d.db.WithContext(ctx).
		Where("published_at IS NULL").
		Order("id ASC").
		Limit(d.batchSize).
		Find(&rows).Error; err != nil {
		return 0, fmt.Errorf("failed to load pending events: %w", err)
	}

	sent := 0
	for _, row := range rows {
		if err := d.publisher.Publish(ctx, FromRow(row)); err != nil {
			// stop so later events are not delivered ahead of this one
			d.log.Warn("publish failed", zap.Uint64("seq", row.ID), zap.String("kind", row.Kind), zap.Error(err))
			return sent, err
		}
		now := time.Now().UTC()
		if err := d.db.WithContext(ctx).Model(&models.VenueEvent{}).
			Where("id = ?", row.ID).
			Update("published_at", now).Error; err != nil {
			return sent, fmt.Errorf("failed to mark event %d published: %w", row.ID, err)
		}
		sent++
	}
	return sent, nil
}

// Pending lists unpublished events for a market, oldest first
func (d *Dispatcher) Pending(ctx context.Context, marketID string) ([]Event, error) {
	var rows []models.VenueEvent
	if err := d.db.WithContext(ctx).
		Where("published_at IS NULL AND market_id = ?", marketID).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]Event, 0, len(rows))
	for _, r := range rows {
		out = append(out, FromRow(r))
	}
	return out, nil
}
