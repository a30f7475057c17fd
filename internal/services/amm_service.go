package services

import (
	"context"
	"fmt"

	"prediction-venue/internal/events"
	"prediction-venue/internal/models"
	"prediction-venue/internal/odds"
	"prediction-venue/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// AMMService runs the per-market constant-product pools. Swaps take no fee
// and there is no withdrawal path, so reserveA*reserveB never decreases.
type AMMService struct {
	exec *executor
}

func NewAMMService(deps Deps) *AMMService {
	return &AMMService{exec: newExecutor(deps, "amm")}
}

// LiquidityResult is the pool after a deposit and the shares minted for it
type LiquidityResult struct {
	Pool   *models.LiquidityPool `json:"pool"`
	Shares decimal.Decimal       `json:"shares"`
}

// ============================================================================
// LIQUIDITY
// ============================================================================

// AddLiquidity escrows amount and splits it evenly into both reserves,
// whatever the current skew. The first deposit seeds the pool.
func (s *AMMService) AddLiquidity(ctx context.Context, provider, marketID string, amount decimal.Decimal) (*LiquidityResult, error) {
	result := &LiquidityResult{}

	err := s.exec.atomic(ctx, marketID, func(ctx context.Context, repo *repository.Repository) error {
		market, err := loadMarket(ctx, repo, marketID)
		if err != nil {
			return err
		}
		now := s.exec.now()
		if !now.Before(market.EndTime) {
			return ErrMarketEnded
		}
		if !amount.IsPositive() || !odds.IsWhole(amount) {
			return ErrInvalidAmount
		}

		pool, err := repo.GetPool(ctx, marketID)
		if err != nil {
			return fmt.Errorf("failed to load pool: %w", err)
		}
		half := odds.Half(amount)
		// a seed must put at least one unit on each side
		if pool == nil && half.IsZero() {
			return ErrInvalidAmount
		}

		if err := s.exec.ledger.Lock(ctx, repo, marketID, provider, models.EscrowKindLiquidity, "pool", amount); err != nil {
			return err
		}

		if pool == nil {
			pool = &models.LiquidityPool{
				MarketID:    marketID,
				ReserveA:    half,
				ReserveB:    half,
				TotalShares: amount,
			}
			result.Shares = amount
			if err := repo.CreatePool(ctx, pool); err != nil {
				return fmt.Errorf("failed to create pool: %w", err)
			}
		} else {
			shares, err := odds.Shares(amount, pool.TotalShares, pool.ReserveA, pool.ReserveB)
			if err != nil {
				return fmt.Errorf("%w: %v", ErrInsufficientLiquidity, err)
			}
			result.Shares = shares
			pool.ReserveA = pool.ReserveA.Add(half)
			pool.ReserveB = pool.ReserveB.Add(half)
			pool.TotalShares = pool.TotalShares.Add(result.Shares)
			pool.UpdatedAt = now
			if err := repo.UpdatePool(ctx, pool); err != nil {
				return fmt.Errorf("failed to update pool: %w", err)
			}
		}

		if err := repo.AddShares(ctx, marketID, provider, result.Shares, now); err != nil {
			return fmt.Errorf("failed to credit shares: %w", err)
		}
		result.Pool = pool

		return events.Append(repo.DB(), models.EventLiquidityAdded, marketID, events.LiquidityAdded{
			MarketID: marketID,
			Provider: provider,
			Amount:   amount,
			Shares:   result.Shares,
		})
	})
	if err != nil {
		return nil, err
	}

	s.exec.log.Info("liquidity added",
		zap.String("market_id", marketID),
		zap.String("provider", provider),
		zap.Stringer("amount", amount),
		zap.Stringer("shares", result.Shares))
	return result, nil
}

// ============================================================================
// SWAPS (constant product formula: x * y = k)
// ============================================================================

// Swap escrows amountIn on side and credits the constant-product output of
// the opposite side to the trader's internal balance.
func (s *AMMService) Swap(ctx context.Context, trader, marketID string, side models.Side, amountIn decimal.Decimal) (*models.AMMSwap, error) {
	var swap *models.AMMSwap

	err := s.exec.atomic(ctx, marketID, func(ctx context.Context, repo *repository.Repository) error {
		market, err := loadMarket(ctx, repo, marketID)
		if err != nil {
			return err
		}
		if !market.Active {
			return ErrMarketInactive
		}
		if !side.Valid() {
			return ErrInvalidSide
		}
		if !amountIn.IsPositive() || !odds.IsWhole(amountIn) {
			return ErrInvalidAmount
		}

		pool, err := repo.GetPool(ctx, marketID)
		if err != nil {
			return fmt.Errorf("failed to load pool: %w", err)
		}
		if pool == nil {
			return ErrPoolNotFound
		}
		amountOut := quote(pool, side, amountIn)
		if amountOut.IsZero() {
			return ErrInsufficientLiquidity
		}

		if err := s.exec.ledger.Lock(ctx, repo, marketID, trader, models.EscrowKindSwap, "swap", amountIn); err != nil {
			return err
		}

		now := s.exec.now()
		if side == models.SideA {
			pool.ReserveA = pool.ReserveA.Add(amountIn)
			pool.ReserveB = pool.ReserveB.Sub(amountOut)
		} else {
			pool.ReserveB = pool.ReserveB.Add(amountIn)
			pool.ReserveA = pool.ReserveA.Sub(amountOut)
		}
		pool.UpdatedAt = now
		if err := repo.UpdatePool(ctx, pool); err != nil {
			return fmt.Errorf("failed to update pool: %w", err)
		}

		swap = &models.AMMSwap{
			MarketID:  marketID,
			Trader:    trader,
			Side:      side,
			AmountIn:  amountIn,
			AmountOut: amountOut,
			ReserveA:  pool.ReserveA,
			ReserveB:  pool.ReserveB,
		}
		if err := repo.CreateSwap(ctx, swap); err != nil {
			return fmt.Errorf("failed to record swap: %w", err)
		}
		if err := repo.AddCredit(ctx, trader, marketID, side.Opposite(), amountOut, now); err != nil {
			return fmt.Errorf("failed to credit swap output: %w", err)
		}

		return events.Append(repo.DB(), models.EventSwapExecuted, marketID, events.SwapExecuted{
			MarketID:  marketID,
			Trader:    trader,
			Side:      side,
			AmountIn:  amountIn,
			AmountOut: amountOut,
		})
	})
	if err != nil {
		return nil, err
	}

	s.exec.log.Info("swap executed",
		zap.String("market_id", marketID),
		zap.String("trader", trader),
		zap.Stringer("side", side),
		zap.Stringer("amount_in", amountIn),
		zap.Stringer("amount_out", swap.AmountOut))
	return swap, nil
}

// Quote prices a swap against the current reserves without executing it
func (s *AMMService) Quote(ctx context.Context, marketID string, side models.Side, amountIn decimal.Decimal) (*models.SwapQuote, error) {
	if !side.Valid() {
		return nil, ErrInvalidSide
	}
	if !amountIn.IsPositive() || !odds.IsWhole(amountIn) {
		return nil, ErrInvalidAmount
	}
	pool, err := s.loadPool(ctx, marketID)
	if err != nil {
		return nil, err
	}
	return &models.SwapQuote{
		MarketID:  marketID,
		Side:      side,
		AmountIn:  amountIn,
		AmountOut: quote(pool, side, amountIn),
		ReserveA:  pool.ReserveA,
		ReserveB:  pool.ReserveB,
	}, nil
}

func quote(pool *models.LiquidityPool, side models.Side, amountIn decimal.Decimal) decimal.Decimal {
	if side == models.SideA {
		return odds.SwapOut(pool.ReserveA, pool.ReserveB, amountIn)
	}
	return odds.SwapOut(pool.ReserveB, pool.ReserveA, amountIn)
}

// ============================================================================
// QUERIES
// ============================================================================

func (s *AMMService) loadPool(ctx context.Context, marketID string) (*models.LiquidityPool, error) {
	if _, err := loadMarket(ctx, s.exec.repo, marketID); err != nil {
		return nil, err
	}
	pool, err := s.exec.repo.GetPool(ctx, marketID)
	if err != nil {
		return nil, fmt.Errorf("failed to load pool: %w", err)
	}
	if pool == nil {
		return nil, ErrPoolNotFound
	}
	return pool, nil
}

// GetPool returns a market's pool with spot prices. When provider is set the
// response carries that provider's share balance.
func (s *AMMService) GetPool(ctx context.Context, marketID, provider string) (*models.PoolResponse, error) {
	pool, err := s.loadPool(ctx, marketID)
	if err != nil {
		return nil, err
	}
	resp := ToPoolResponse(pool)
	if provider != "" {
		shares, err := s.exec.repo.GetShares(ctx, marketID, provider)
		if err != nil {
			return nil, fmt.Errorf("failed to load shares: %w", err)
		}
		resp.MyShares = shares
	}
	return resp, nil
}

// ToPoolResponse converts a pool to its API response format
func ToPoolResponse(pool *models.LiquidityPool) *models.PoolResponse {
	total := pool.ReserveA.Add(pool.ReserveB)
	var priceA, priceB float64
	if total.IsPositive() {
		// Price = opposite reserve / total reserves
		priceA = pool.ReserveB.DivRound(total, 8).InexactFloat64()
		priceB = pool.ReserveA.DivRound(total, 8).InexactFloat64()
	}
	return &models.PoolResponse{
		MarketID:    pool.MarketID,
		ReserveA:    pool.ReserveA,
		ReserveB:    pool.ReserveB,
		TotalShares: pool.TotalShares,
		PriceA:      priceA,
		PriceB:      priceB,
		MyShares:    decimal.Zero,
		UpdatedAt:   pool.UpdatedAt,
	}
}

// ListSwaps lists a market's swaps in execution order
func (s *AMMService) ListSwaps(ctx context.Context, marketID string, limit int) ([]models.AMMSwap, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	swaps, err := s.exec.repo.ListSwaps(ctx, marketID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list swaps: %w", err)
	}
	return swaps, nil
}

// ListCredits lists the internal balances an owner accrued from swaps
func (s *AMMService) ListCredits(ctx context.Context, owner string) ([]models.Credit, error) {
	credits, err := s.exec.repo.ListCredits(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to list credits: %w", err)
	}
	return credits, nil
}
