package services

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"prediction-venue/internal/events"
	"prediction-venue/internal/models"
	"prediction-venue/internal/repository"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// MarketRegistry creates and tracks markets. Only the operator may create.
type MarketRegistry struct {
	exec     *executor
	operator string
}

func NewMarketRegistry(deps Deps, operator string) *MarketRegistry {
	return &MarketRegistry{
		exec:     newExecutor(deps, "markets"),
		operator: operator,
	}
}

// Operator returns the wallet allowed to create markets
func (s *MarketRegistry) Operator() string {
	return s.operator
}

// MarketID derives a market id from its description and creation time:
// keccak256(description || uint256(createdAt unix seconds)).
func MarketID(description string, createdAt time.Time) string {
	salt := common.LeftPadBytes(big.NewInt(createdAt.Unix()).Bytes(), 32)
	return crypto.Keccak256Hash([]byte(description), salt).Hex()
}

// CreateMarket opens a new active market
func (s *MarketRegistry) CreateMarket(ctx context.Context, caller, description string, endTime, settlementTime time.Time) (*models.Market, error) {
	if s.operator == "" || caller != s.operator {
		return nil, ErrUnauthorized
	}
	if strings.TrimSpace(description) == "" {
		return nil, ErrInvalidDescription
	}
	if settlementTime.Before(endTime) {
		return nil, ErrInvalidMarketWindow
	}

	now := s.exec.now()
	market := &models.Market{
		ID:             MarketID(description, now),
		Description:    description,
		Creator:        caller,
		EndTime:        endTime.UTC(),
		SettlementTime: settlementTime.UTC(),
		Active:         true,
		Outcome:        models.SideNone,
		VolumeA:        decimal.Zero,
		VolumeB:        decimal.Zero,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	err := s.exec.atomic(ctx, market.ID, func(ctx context.Context, repo *repository.Repository) error {
		exists, err := repo.MarketExists(ctx, market.ID)
		if err != nil {
			return fmt.Errorf("failed to check market id: %w", err)
		}
		if exists {
			return ErrMarketExists
		}
		if err := repo.CreateMarket(ctx, market); err != nil {
			return fmt.Errorf("failed to create market: %w", err)
		}
		return events.Append(repo.DB(), models.EventMarketCreated, market.ID, events.MarketCreated{
			MarketID:       market.ID,
			Description:    market.Description,
			EndTime:        market.EndTime,
			SettlementTime: market.SettlementTime,
		})
	})
	if err != nil {
		return nil, err
	}

	s.exec.log.Info("market created",
		zap.String("market_id", market.ID),
		zap.Time("end_time", market.EndTime),
		zap.Time("settlement_time", market.SettlementTime))
	return market, nil
}

// GetMarket retrieves a market by id
func (s *MarketRegistry) GetMarket(ctx context.Context, marketID string) (*models.Market, error) {
	return loadMarket(ctx, s.exec.repo, marketID)
}

// ListMarkets lists markets newest first. status is one of active, closed,
// settled or empty for all.
func (s *MarketRegistry) ListMarkets(ctx context.Context, status string, limit, offset int) ([]models.Market, error) {
	switch status {
	case "", models.MarketStatusActive, models.MarketStatusClosed, models.MarketStatusSettled:
	default:
		return nil, fmt.Errorf("%w %q", ErrInvalidStatus, status)
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	markets, err := s.exec.repo.ListMarkets(ctx, status, s.exec.now(), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list markets: %w", err)
	}
	return markets, nil
}
