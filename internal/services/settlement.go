package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"prediction-venue/internal/events"
	"prediction-venue/internal/models"
	"prediction-venue/internal/oracle"
	"prediction-venue/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SettlementService freezes market outcomes from the oracle and pays out
// matches to their winners.
type SettlementService struct {
	exec   *executor
	oracle oracle.Oracle
}

func NewSettlementService(deps Deps, o oracle.Oracle) *SettlementService {
	return &SettlementService{
		exec:   newExecutor(deps, "settlement"),
		oracle: o,
	}
}

// SettleMarket records the oracle's outcome once settlementTime has passed.
// Anyone may call it; only the first successful call changes state.
func (s *SettlementService) SettleMarket(ctx context.Context, marketID string) (*models.Market, error) {
	var settled *models.Market

	err := s.exec.atomic(ctx, marketID, func(ctx context.Context, repo *repository.Repository) error {
		market, err := loadMarket(ctx, repo, marketID)
		if err != nil {
			return err
		}
		now := s.exec.now()
		if now.Before(market.SettlementTime) {
			return ErrNotReadyForSettlement
		}
		if market.Settled {
			return ErrAlreadySettled
		}

		outcome, err := s.resolvedOutcome(ctx, marketID)
		if err != nil {
			return err
		}

		ok, err := repo.SettleMarket(ctx, marketID, outcome, now)
		if err != nil {
			return fmt.Errorf("failed to settle market: %w", err)
		}
		if !ok {
			return ErrAlreadySettled
		}
		market.Settled = true
		market.Active = false
		market.Outcome = outcome
		market.SettledAt = &now
		settled = market

		return events.Append(repo.DB(), models.EventMarketSettled, marketID, events.MarketSettled{
			MarketID: marketID,
			Outcome:  outcome,
		})
	})
	if err != nil {
		return nil, err
	}

	s.exec.log.Info("market settled",
		zap.String("market_id", marketID),
		zap.Stringer("outcome", settled.Outcome))
	return settled, nil
}

// resolvedOutcome maps the oracle's answer onto settlement errors. Outcome 0
// means no outcome yet.
func (s *SettlementService) resolvedOutcome(ctx context.Context, marketID string) (models.Side, error) {
	resolved, outcome, err := s.oracle.IsSettled(ctx, marketID)
	if err != nil {
		if errors.Is(err, ErrReentrantCall) {
			return models.SideNone, err
		}
		return models.SideNone, fmt.Errorf("%w: %w", ErrOracleUnavailable, err)
	}
	if !resolved || outcome == models.SideNone {
		return models.SideNone, ErrOracleNotSettled
	}
	if !outcome.Valid() {
		return models.SideNone, fmt.Errorf("%w: %d", ErrInvalidOutcome, outcome)
	}
	return outcome, nil
}

// ClaimWinnings pays a match's pooled collateral to the owner of the order
// on the winning side. Any caller may trigger it; the payout always goes to
// the winner. The claimed flag and the payout commit together.
func (s *SettlementService) ClaimWinnings(ctx context.Context, caller string, matchID uint64) (*models.Match, error) {
	match, err := s.GetMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}

	err = s.exec.atomic(ctx, match.MarketID, func(ctx context.Context, repo *repository.Repository) error {
		match, err = repo.GetMatch(ctx, matchID)
		if err != nil {
			return fmt.Errorf("failed to load match: %w", err)
		}
		if match.Claimed {
			return ErrAlreadyClaimed
		}
		market, err := loadMarket(ctx, repo, match.MarketID)
		if err != nil {
			return err
		}
		if !market.Settled {
			return ErrMarketNotSettled
		}

		winningOrderID := match.OrderAID
		if market.Outcome == models.SideB {
			winningOrderID = match.OrderBID
		}
		winner, err := repo.GetOrder(ctx, winningOrderID)
		if err != nil {
			return fmt.Errorf("failed to load winning order: %w", err)
		}

		now := s.exec.now()
		match.Winner = winner.Owner
		match.Payout = PooledCollateral(match)
		match.ClaimedAt = &now

		ok, err := repo.ClaimMatch(ctx, match)
		if err != nil {
			return fmt.Errorf("failed to flag claim: %w", err)
		}
		if !ok {
			return ErrAlreadyClaimed
		}
		match.Claimed = true

		if err := events.Append(repo.DB(), models.EventWinningsClaimed, match.MarketID, events.WinningsClaimed{
			MatchID: match.ID,
			Winner:  match.Winner,
			Payout:  match.Payout,
		}); err != nil {
			return err
		}

		// last step: a failed transfer rolls the flag back with everything else
		return s.exec.ledger.Pay(ctx, repo, match.MarketID, match.Winner, refID(match.ID), match.Payout)
	})
	if err != nil {
		return nil, err
	}

	s.exec.log.Info("winnings claimed",
		zap.Uint64("match_id", match.ID),
		zap.String("caller", caller),
		zap.String("winner", match.Winner),
		zap.Stringer("payout", match.Payout))
	return match, nil
}

// GetMatch retrieves a match by id
func (s *SettlementService) GetMatch(ctx context.Context, matchID uint64) (*models.Match, error) {
	match, err := s.exec.repo.GetMatch(ctx, matchID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrMatchNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load match: %w", err)
	}
	return match, nil
}

// ListMatches lists a market's matches in creation order
func (s *SettlementService) ListMatches(ctx context.Context, marketID string) ([]models.Match, error) {
	if _, err := loadMarket(ctx, s.exec.repo, marketID); err != nil {
		return nil, err
	}
	matches, err := s.exec.repo.ListMatches(ctx, marketID)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}
	return matches, nil
}

// OraclePrice returns the oracle's latest price for a market
func (s *SettlementService) OraclePrice(ctx context.Context, marketID string) (decimal.Decimal, time.Time, error) {
	if _, err := loadMarket(ctx, s.exec.repo, marketID); err != nil {
		return decimal.Zero, time.Time{}, err
	}
	price, at, err := s.oracle.GetPrice(ctx, marketID)
	if err != nil && !errors.Is(err, oracle.ErrNoPrice) {
		return decimal.Zero, time.Time{}, fmt.Errorf("%w: %w", ErrOracleUnavailable, err)
	}
	return price, at, err
}

// SettleDue settles every market whose settlement time has passed and whose
// oracle has resolved. It returns how many markets were settled.
func (s *SettlementService) SettleDue(ctx context.Context) (int, error) {
	markets, err := s.exec.repo.MarketsDueForSettlement(ctx, s.exec.now(), 50)
	if err != nil {
		return 0, fmt.Errorf("failed to load due markets: %w", err)
	}

	settled := 0
	for _, m := range markets {
		if ctx.Err() != nil {
			return settled, ctx.Err()
		}
		_, err := s.SettleMarket(ctx, m.ID)
		switch {
		case err == nil:
			settled++
		case errors.Is(err, ErrOracleNotSettled):
			s.exec.log.Debug("oracle not resolved yet", zap.String("market_id", m.ID))
		case errors.Is(err, ErrAlreadySettled):
		default:
			s.exec.log.Warn("failed to settle market", zap.String("market_id", m.ID), zap.Error(err))
		}
	}
	return settled, nil
}
