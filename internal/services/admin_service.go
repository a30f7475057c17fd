package services

import (
	"context"
	"fmt"

	"prediction-venue/internal/models"
	"prediction-venue/internal/token"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// AdminService holds operator-only views over venue custody
type AdminService struct {
	exec  *executor
	token token.Token
}

func NewAdminService(deps Deps) *AdminService {
	return &AdminService{
		exec:  newExecutor(deps, "admin"),
		token: deps.Token,
	}
}

// Reconciliation compares what the escrow journal says custody holds with
// what the venue owes against it.
type Reconciliation struct {
	Held             decimal.Decimal `json:"held"`
	OpenOrders       decimal.Decimal `json:"open_orders"`
	UnclaimedMatches decimal.Decimal `json:"unclaimed_matches"`
	Stranded         decimal.Decimal `json:"stranded"`
	Pools            decimal.Decimal `json:"pools"`
	CustodyBalance   decimal.Decimal `json:"custody_balance"`
	Balanced         bool            `json:"balanced"`
}

// Obligations is everything custody must cover
func (r *Reconciliation) Obligations() decimal.Decimal {
	return r.OpenOrders.Add(r.UnclaimedMatches).Add(r.Stranded).Add(r.Pools)
}

// Reconcile checks collateral conservation: the journal balance must equal
// open order escrow plus the pooled collateral of unclaimed matches plus
// stranded remainders plus AMM deposits and swap inputs.
func (s *AdminService) Reconcile(ctx context.Context) (*Reconciliation, error) {
	repo := s.exec.repo
	rec := &Reconciliation{}

	held, err := s.exec.ledger.Held(ctx, repo)
	if err != nil {
		return nil, err
	}
	rec.Held = held

	if rec.OpenOrders, err = repo.OpenCollateral(ctx); err != nil {
		return nil, fmt.Errorf("failed to total open collateral: %w", err)
	}

	matches, err := repo.UnclaimedMatches(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load unclaimed matches: %w", err)
	}
	rec.UnclaimedMatches = decimal.Zero
	for i := range matches {
		rec.UnclaimedMatches = rec.UnclaimedMatches.Add(PooledCollateral(&matches[i]))
	}

	totals, err := repo.EscrowTotals(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to total escrow journal: %w", err)
	}
	rec.Stranded = totals[models.EscrowKindStranded]
	rec.Pools = totals[models.EscrowKindLiquidity].Add(totals[models.EscrowKindSwap])

	if rec.CustodyBalance, err = s.token.BalanceOf(ctx, s.token.Custodian()); err != nil {
		return nil, fmt.Errorf("failed to read custody balance: %w", err)
	}

	rec.Balanced = rec.Held.Equal(rec.Obligations())
	if !rec.Balanced {
		s.exec.log.Error("escrow out of balance",
			zap.Stringer("held", rec.Held),
			zap.Stringer("obligations", rec.Obligations()))
	}
	return rec, nil
}

// EscrowJournal lists an account's escrow entries newest first
func (s *AdminService) EscrowJournal(ctx context.Context, account string, limit int) ([]models.EscrowEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	entries, err := s.exec.repo.ListEscrowEntries(ctx, account, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list escrow entries: %w", err)
	}
	return entries, nil
}
