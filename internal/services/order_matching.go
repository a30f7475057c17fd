package services

import (
	"context"
	"fmt"
	"time"

	"prediction-venue/internal/events"
	"prediction-venue/internal/models"
	"prediction-venue/internal/odds"
	"prediction-venue/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// OrderMatchingService accepts fixed-odds orders and pairs each new order
// with at most one resting counterpart.
type OrderMatchingService struct {
	exec *executor
}

func NewOrderMatchingService(deps Deps) *OrderMatchingService {
	return &OrderMatchingService{exec: newExecutor(deps, "matching")}
}

// PlaceOrderResult is the stored order and the match it produced, if any
type PlaceOrderResult struct {
	Order *models.Order `json:"order"`
	Match *models.Match `json:"match,omitempty"`
}

// PlaceOrder escrows the order's collateral, appends it to the book and
// runs one first-fit matching pass.
func (s *OrderMatchingService) PlaceOrder(ctx context.Context, owner, marketID string, side models.Side, amount, oddsValue decimal.Decimal) (*PlaceOrderResult, error) {
	result := &PlaceOrderResult{}

	err := s.exec.atomic(ctx, marketID, func(ctx context.Context, repo *repository.Repository) error {
		market, err := loadMarket(ctx, repo, marketID)
		if err != nil {
			return err
		}
		if err := validateOrder(market, s.exec.now(), side, amount, oddsValue); err != nil {
			return err
		}

		order := &models.Order{
			MarketID:   marketID,
			Owner:      owner,
			Side:       side,
			Amount:     amount,
			Odds:       oddsValue,
			Collateral: odds.Collateral(side == models.SideA, amount, oddsValue),
			Active:     true,
		}

		// the insert only becomes visible if the escrow below succeeds
		if err := repo.CreateOrder(ctx, order); err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}
		if err := s.exec.ledger.Lock(ctx, repo, marketID, owner, models.EscrowKindOrder, refID(order.ID), order.Collateral); err != nil {
			return err
		}
		if err := events.Append(repo.DB(), models.EventOrderPlaced, marketID, events.OrderPlaced{
			OrderID:  order.ID,
			User:     owner,
			MarketID: marketID,
		}); err != nil {
			return err
		}
		result.Order = order

		candidates, err := repo.OpenOrders(ctx, marketID)
		if err != nil {
			return fmt.Errorf("failed to scan order book: %w", err)
		}
		counterpart := findCounterpart(order, candidates)
		if counterpart == nil {
			return nil
		}

		match, err := s.execute(ctx, repo, order, counterpart)
		if err != nil {
			return err
		}
		result.Match = match
		return nil
	})
	if err != nil {
		return nil, err
	}

	fields := []zap.Field{
		zap.Uint64("order_id", result.Order.ID),
		zap.String("market_id", marketID),
		zap.Stringer("side", side),
	}
	if result.Match != nil {
		fields = append(fields, zap.Uint64("match_id", result.Match.ID))
	}
	s.exec.log.Info("order placed", fields...)
	return result, nil
}

func validateOrder(market *models.Market, now time.Time, side models.Side, amount, oddsValue decimal.Decimal) error {
	if !market.Active {
		return ErrMarketInactive
	}
	if !now.Before(market.EndTime) {
		return ErrMarketEnded
	}
	if !side.Valid() {
		return ErrInvalidSide
	}
	if !amount.IsPositive() || !odds.IsWhole(amount) {
		return ErrInvalidAmount
	}
	if !oddsValue.IsPositive() || !odds.IsWhole(oddsValue) {
		return ErrInvalidOdds
	}
	return nil
}

// findCounterpart returns the first order in insertion order that is on the
// opposite side and passes the directional odds check against incoming.
func findCounterpart(incoming *models.Order, book []models.Order) *models.Order {
	for i := range book {
		candidate := &book[i]
		if candidate.ID == incoming.ID || !candidate.Active || candidate.Matched {
			continue
		}
		if candidate.Side == incoming.Side {
			continue
		}
		if odds.Compatible(incoming.Odds, candidate.Odds) {
			return candidate
		}
	}
	return nil
}

// execute records the match and locks both orders. Both are marked fully
// matched at min(amountA, amountB); the larger order's excess collateral
// stays in custody and is journaled as stranded.
func (s *OrderMatchingService) execute(ctx context.Context, repo *repository.Repository, incoming, resting *models.Order) (*models.Match, error) {
	orderA, orderB := incoming, resting
	if incoming.Side == models.SideB {
		orderA, orderB = resting, incoming
	}

	match := &models.Match{
		MarketID: incoming.MarketID,
		OrderAID: orderA.ID,
		OrderBID: orderB.ID,
		Amount:   decimal.Min(orderA.Amount, orderB.Amount),
		OddsA:    orderA.Odds,
		OddsB:    orderB.Odds,
		Payout:   decimal.Zero,
	}
	if err := repo.CreateMatch(ctx, match); err != nil {
		return nil, fmt.Errorf("failed to create match: %w", err)
	}

	n, err := repo.MarkMatched(ctx, match.ID, orderA.ID, orderB.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock matched orders: %w", err)
	}
	if n != 2 {
		return nil, fmt.Errorf("failed to lock matched orders: %d of 2 updated", n)
	}
	for _, o := range []*models.Order{orderA, orderB} {
		o.Matched = true
		o.MatchID = &match.ID
	}

	if err := repo.AddVolume(ctx, match.MarketID, match.Amount); err != nil {
		return nil, fmt.Errorf("failed to record volume: %w", err)
	}

	for _, o := range []*models.Order{orderA, orderB} {
		used := odds.Collateral(o.Side == models.SideA, match.Amount, o.Odds)
		if err := s.exec.ledger.Strand(ctx, repo, o.MarketID, o.Owner, refID(o.ID), o.Collateral.Sub(used)); err != nil {
			return nil, err
		}
	}

	if err := events.Append(repo.DB(), models.EventOrderMatched, match.MarketID, events.OrderMatched{
		MatchID:  match.ID,
		OrderAID: match.OrderAID,
		OrderBID: match.OrderBID,
		Amount:   match.Amount,
	}); err != nil {
		return nil, err
	}
	return match, nil
}

// PooledCollateral is what the winner of a match receives: both orders'
// escrow recomputed at the matched amount.
func PooledCollateral(match *models.Match) decimal.Decimal {
	return odds.Collateral(true, match.Amount, match.OddsA).
		Add(odds.Collateral(false, match.Amount, match.OddsB))
}
