package repository

import (
	"context"

	"prediction-venue/internal/models"

	"github.com/shopspring/decimal"
)

// CreateOrder appends an order to the book
func (r *Repository) CreateOrder(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

// GetOrder retrieves an order by id
func (r *Repository) GetOrder(ctx context.Context, orderID uint64) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).Where("id = ?", orderID).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// OpenOrders returns a market's active, unmatched orders in insertion order
func (r *Repository) OpenOrders(ctx context.Context, marketID string) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Where("market_id = ? AND active = ? AND matched = ?", marketID, true, false).
		Order("id ASC").
		Find(&orders).Error
	return orders, err
}

// ListOrdersByOwner lists an owner's orders newest first
func (r *Repository) ListOrdersByOwner(ctx context.Context, owner, marketID string, limit, offset int) ([]models.Order, error) {
	query := r.db.WithContext(ctx).Where("owner = ?", owner)
	if marketID != "" {
		query = query.Where("market_id = ?", marketID)
	}
	var orders []models.Order
	err := query.Order("id DESC").Limit(limit).Offset(offset).Find(&orders).Error
	return orders, err
}

// MarkMatched flags both orders as matched. It fails if either order was
// already matched so a flag never flips twice.
func (r *Repository) MarkMatched(ctx context.Context, matchID uint64, orderIDs ...uint64) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id IN ? AND matched = ?", orderIDs, false).
		Updates(map[string]interface{}{
			"matched":  true,
			"match_id": matchID,
		})
	return res.RowsAffected, res.Error
}

// CreateMatch records a match
func (r *Repository) CreateMatch(ctx context.Context, match *models.Match) error {
	return r.db.WithContext(ctx).Create(match).Error
}

// GetMatch retrieves a match by id
func (r *Repository) GetMatch(ctx context.Context, matchID uint64) (*models.Match, error) {
	var match models.Match
	if err := r.db.WithContext(ctx).Where("id = ?", matchID).First(&match).Error; err != nil {
		return nil, err
	}
	return &match, nil
}

// ListMatches lists a market's matches in creation order
func (r *Repository) ListMatches(ctx context.Context, marketID string) ([]models.Match, error) {
	var matches []models.Match
	err := r.db.WithContext(ctx).Where("market_id = ?", marketID).Order("id ASC").Find(&matches).Error
	return matches, err
}

// ClaimMatch flips claimed false->true and records the payout. It reports
// false when the match was already claimed.
func (r *Repository) ClaimMatch(ctx context.Context, match *models.Match) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Match{}).
		Where("id = ? AND claimed = ?", match.ID, false).
		Updates(map[string]interface{}{
			"claimed":    true,
			"winner":     match.Winner,
			"payout":     match.Payout,
			"claimed_at": match.ClaimedAt,
		})
	return res.RowsAffected == 1, res.Error
}

// UnclaimedMatches lists every match whose pooled collateral is still held
func (r *Repository) UnclaimedMatches(ctx context.Context) ([]models.Match, error) {
	var matches []models.Match
	err := r.db.WithContext(ctx).Where("claimed = ?", false).Find(&matches).Error
	return matches, err
}

// OpenCollateral sums the collateral of active unmatched orders
func (r *Repository) OpenCollateral(ctx context.Context) (decimal.Decimal, error) {
	var orders []models.Order
	if err := r.db.WithContext(ctx).Select("collateral").
		Where("active = ? AND matched = ?", true, false).
		Find(&orders).Error; err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, o := range orders {
		total = total.Add(o.Collateral)
	}
	return total, nil
}
