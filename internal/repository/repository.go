package repository

import (
	"context"
	"time"

	"prediction-venue/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to tx
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// DB exposes the underlying handle for callers that append outbox rows
func (r *Repository) DB() *gorm.DB {
	return r.db
}

// CreateMarket inserts a new market
func (r *Repository) CreateMarket(ctx context.Context, market *models.Market) error {
	return r.db.WithContext(ctx).Create(market).Error
}

// GetMarket retrieves a market by id
func (r *Repository) GetMarket(ctx context.Context, marketID string) (*models.Market, error) {
	var market models.Market
	if err := r.db.WithContext(ctx).Where("id = ?", marketID).First(&market).Error; err != nil {
		return nil, err
	}
	return &market, nil
}

// MarketExists reports whether a market id has been created
func (r *Repository) MarketExists(ctx context.Context, marketID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Market{}).Where("id = ?", marketID).Count(&count).Error
	return count > 0, err
}

// ListMarkets lists markets newest first, optionally filtered by status
func (r *Repository) ListMarkets(ctx context.Context, status string, now time.Time, limit, offset int) ([]models.Market, error) {
	query := r.db.WithContext(ctx).Model(&models.Market{})
	switch status {
	case models.MarketStatusActive:
		query = query.Where("active = ? AND end_time > ?", true, now)
	case models.MarketStatusClosed:
		query = query.Where("settled = ? AND end_time <= ?", false, now)
	case models.MarketStatusSettled:
		query = query.Where("settled = ?", true)
	}

	var markets []models.Market
	err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&markets).Error
	return markets, err
}

// MarketsDueForSettlement returns unsettled markets whose settlement time has passed
func (r *Repository) MarketsDueForSettlement(ctx context.Context, now time.Time, limit int) ([]models.Market, error) {
	var markets []models.Market
	err := r.db.WithContext(ctx).
		Where("settled = ? AND settlement_time <= ?", false, now).
		Order("settlement_time ASC").
		Limit(limit).
		Find(&markets).Error
	return markets, err
}

// AddVolume increments both cumulative volumes by amount
func (r *Repository) AddVolume(ctx context.Context, marketID string, amount decimal.Decimal) error {
	return r.db.WithContext(ctx).Model(&models.Market{}).
		Where("id = ?", marketID).
		Updates(map[string]interface{}{
			"volume_a": gorm.Expr("volume_a + ?", amount),
			"volume_b": gorm.Expr("volume_b + ?", amount),
		}).Error
}

// SettleMarket freezes the outcome. It only touches unsettled rows and
// reports whether a row changed.
func (r *Repository) SettleMarket(ctx context.Context, marketID string, outcome models.Side, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Market{}).
		Where("id = ? AND settled = ?", marketID, false).
		Updates(map[string]interface{}{
			"settled":    true,
			"active":     false,
			"outcome":    outcome,
			"settled_at": at,
		})
	return res.RowsAffected == 1, res.Error
}

// UpsertUser records a wallet login
func (r *Repository) UpsertUser(ctx context.Context, wallet string, at time.Time) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Where(models.User{WalletAddress: wallet}).
		Attrs(models.User{CreatedAt: at}).
		FirstOrCreate(&user).Error
	if err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Model(&user).Update("last_login_at", at).Error; err != nil {
		return nil, err
	}
	user.LastLoginAt = &at
	return &user, nil
}

// GetUserByWallet retrieves a user by wallet address
func (r *Repository) GetUserByWallet(ctx context.Context, wallet string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("wallet_address = ?", wallet).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}
