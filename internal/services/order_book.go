package services

import (
	"context"
	"errors"
	"fmt"

	"prediction-venue/internal/models"
	"prediction-venue/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderBook exposes the stored orders of each market
type OrderBook struct {
	repo *repository.Repository
}

func NewOrderBook(deps Deps) *OrderBook {
	return &OrderBook{repo: repository.NewRepository(deps.DB)}
}

// GetOrderBook returns the market's active unmatched orders as parallel
// sequences in insertion order. No sorting or price-level aggregation.
func (b *OrderBook) GetOrderBook(ctx context.Context, marketID string) (*models.OrderBookView, error) {
	if _, err := loadMarket(ctx, b.repo, marketID); err != nil {
		return nil, err
	}
	orders, err := b.repo.OpenOrders(ctx, marketID)
	if err != nil {
		return nil, fmt.Errorf("failed to load order book: %w", err)
	}
	return bookView(marketID, orders), nil
}

func bookView(marketID string, orders []models.Order) *models.OrderBookView {
	view := &models.OrderBookView{
		MarketID: marketID,
		IDs:      make([]uint64, 0, len(orders)),
		Amounts:  make([]decimal.Decimal, 0, len(orders)),
		Odds:     make([]decimal.Decimal, 0, len(orders)),
		Sides:    make([]models.Side, 0, len(orders)),
	}
	for _, o := range orders {
		view.IDs = append(view.IDs, o.ID)
		view.Amounts = append(view.Amounts, o.Amount)
		view.Odds = append(view.Odds, o.Odds)
		view.Sides = append(view.Sides, o.Side)
	}
	return view
}

// GetOrder retrieves any order, matched or not
func (b *OrderBook) GetOrder(ctx context.Context, orderID uint64) (*models.Order, error) {
	order, err := b.repo.GetOrder(ctx, orderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	return order, nil
}

// ListOrders lists an owner's orders newest first, optionally for one market
func (b *OrderBook) ListOrders(ctx context.Context, owner, marketID string, limit, offset int) ([]models.Order, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	orders, err := b.repo.ListOrdersByOwner(ctx, owner, marketID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}
