package oracle

import (
	"context"
	"fmt"
	"time"

	"prediction-venue/internal/database"
	"prediction-venue/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Manual is an oracle fed by operator reports stored in the database
type Manual struct {
	db *gorm.DB
}

func NewManual(db *gorm.DB) *Manual {
	return &Manual{db: db}
}

func (o *Manual) report(ctx context.Context, marketID string) (*models.OracleReport, error) {
	var r models.OracleReport
	res := database.Conn(ctx, o.db).Where("market_id = ?", marketID).Limit(1).Find(&r)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to load oracle report: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return &r, nil
}

func (o *Manual) GetPrice(ctx context.Context, marketID string) (decimal.Decimal, time.Time, error) {
	r, err := o.report(ctx, marketID)
	if err != nil {
		return decimal.Zero, time.Time{}, err
	}
	if r == nil || r.PriceUpdatedAt == nil {
		return decimal.Zero, time.Time{}, ErrNoPrice
	}
	return r.Price, *r.PriceUpdatedAt, nil
}

func (o *Manual) IsSettled(ctx context.Context, marketID string) (bool, models.Side, error) {
	r, err := o.report(ctx, marketID)
	if err != nil {
		return false, models.SideNone, err
	}
	if r == nil || !r.Resolved {
		return false, models.SideNone, nil
	}
	return true, r.Outcome, nil
}

// SetPrice records the latest price for a market
func (o *Manual) SetPrice(ctx context.Context, marketID string, price decimal.Decimal, reporter string) error {
	now := time.Now().UTC()
	r := models.OracleReport{
		MarketID:       marketID,
		Price:          price,
		PriceUpdatedAt: &now,
		Reporter:       reporter,
		UpdatedAt:      now,
	}
	return database.Conn(ctx, o.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "market_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"price", "price_updated_at", "reporter", "updated_at"}),
	}).Create(&r).Error
}

// Resolve records the final outcome. Resolution is final: posting the same
// outcome again is a no-op, posting a different one fails.
func (o *Manual) Resolve(ctx context.Context, marketID string, outcome models.Side, reporter string) error {
	if !outcome.Valid() {
		return ErrInvalidOutcome
	}
	return database.Conn(ctx, o.db).Transaction(func(tx *gorm.DB) error {
		var existing models.OracleReport
		res := tx.Where("market_id = ?", marketID).Limit(1).Find(&existing)
		if res.Error != nil {
			return fmt.Errorf("failed to load oracle report: %w", res.Error)
		}
		if res.RowsAffected > 0 && existing.Resolved {
			if existing.Outcome == outcome {
				return nil
			}
			return ErrAlreadyResolved
		}

		now := time.Now().UTC()
		r := models.OracleReport{
			MarketID:   marketID,
			Resolved:   true,
			Outcome:    outcome,
			Reporter:   reporter,
			ResolvedAt: &now,
			UpdatedAt:  now,
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "market_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"resolved", "outcome", "reporter", "resolved_at", "updated_at"}),
		}).Create(&r).Error
	})
}

var _ Oracle = (*Manual)(nil)
