package repository

import (
	"context"
	"time"

	"prediction-venue/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GetPool retrieves a market's pool, returning nil when none exists yet
func (r *Repository) GetPool(ctx context.Context, marketID string) (*models.LiquidityPool, error) {
	var pool models.LiquidityPool
	res := r.db.WithContext(ctx).Where("market_id = ?", marketID).Limit(1).Find(&pool)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return &pool, nil
}

// CreatePool inserts a market's pool
func (r *Repository) CreatePool(ctx context.Context, pool *models.LiquidityPool) error {
	return r.db.WithContext(ctx).Create(pool).Error
}

// UpdatePool writes reserves and total shares
func (r *Repository) UpdatePool(ctx context.Context, pool *models.LiquidityPool) error {
	return r.db.WithContext(ctx).Model(&models.LiquidityPool{}).
		Where("market_id = ?", pool.MarketID).
		Updates(map[string]interface{}{
			"reserve_a":    pool.ReserveA,
			"reserve_b":    pool.ReserveB,
			"total_shares": pool.TotalShares,
			"updated_at":   pool.UpdatedAt,
		}).Error
}

// AddShares credits LP shares to a provider
func (r *Repository) AddShares(ctx context.Context, marketID, provider string, shares decimal.Decimal, at time.Time) error {
	row := models.LiquidityShare{
		MarketID:  marketID,
		Provider:  provider,
		Shares:    shares,
		UpdatedAt: at,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "market_id"}, {Name: "provider"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"shares":     gorm.Expr("liquidity_shares.shares + ?", shares),
			"updated_at": at,
		}),
	}).Create(&row).Error
}

// GetShares returns a provider's share balance in a pool
func (r *Repository) GetShares(ctx context.Context, marketID, provider string) (decimal.Decimal, error) {
	var row models.LiquidityShare
	err := r.db.WithContext(ctx).
		Where("market_id = ? AND provider = ?", marketID, provider).
		Limit(1).Find(&row).Error
	return row.Shares, err
}

// CreateSwap records an executed swap
func (r *Repository) CreateSwap(ctx context.Context, swap *models.AMMSwap) error {
	return r.db.WithContext(ctx).Create(swap).Error
}

// ListSwaps lists a market's swaps in execution order
func (r *Repository) ListSwaps(ctx context.Context, marketID string, limit int) ([]models.AMMSwap, error) {
	var swaps []models.AMMSwap
	err := r.db.WithContext(ctx).Where("market_id = ?", marketID).Order("id ASC").Limit(limit).Find(&swaps).Error
	return swaps, err
}

// AddCredit increases an owner's internal balance on one side of a market
func (r *Repository) AddCredit(ctx context.Context, owner, marketID string, side models.Side, amount decimal.Decimal, at time.Time) error {
	row := models.Credit{
		Owner:     owner,
		MarketID:  marketID,
		Side:      side,
		Amount:    amount,
		UpdatedAt: at,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "owner"}, {Name: "market_id"}, {Name: "side"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"amount":     gorm.Expr("credits.amount + ?", amount),
			"updated_at": at,
		}),
	}).Create(&row).Error
}

// ListCredits lists an owner's internal balances
func (r *Repository) ListCredits(ctx context.Context, owner string) ([]models.Credit, error) {
	var credits []models.Credit
	err := r.db.WithContext(ctx).Where("owner = ?", owner).Order("market_id, side").Find(&credits).Error
	return credits, err
}
