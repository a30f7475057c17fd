package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"prediction-venue/internal/models"
	"prediction-venue/internal/token"

	"github.com/shopspring/decimal"
)

func TestSettleMarketGating(t *testing.T) {
	v := newVenue(t)
	market := v.createMarket(t, "gating")
	ctx := context.Background()

	v.clock.Set(market.SettlementTime.Add(-time.Second))
	if _, err := v.settle.SettleMarket(ctx, market.ID); !errors.Is(err, ErrNotReadyForSettlement) {
		t.Fatalf("expected ErrNotReadyForSettlement, got %v", err)
	}
	if err := v.oracle.Resolve(ctx, market.ID, models.SideA, operator); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if _, err := v.settle.SettleMarket(ctx, market.ID); !errors.Is(err, ErrNotReadyForSettlement) {
		t.Fatalf("expected ErrNotReadyForSettlement before settlement time even when resolved, got %v", err)
	}

	v.clock.Set(market.SettlementTime.Add(-time.Nanosecond))
	if _, err := v.settle.SettleMarket(ctx, market.ID); !errors.Is(err, ErrNotReadyForSettlement) {
		t.Fatalf("expected ErrNotReadyForSettlement one nanosecond early, got %v", err)
	}

	// settlement time itself is inclusive
	v.clock.Set(market.SettlementTime)
	settled, err := v.settle.SettleMarket(ctx, market.ID)
	if err != nil {
		t.Fatalf("SettleMarket at settlement time failed: %v", err)
	}
	if !settled.Settled || settled.Active || settled.Outcome != models.SideA {
		t.Errorf("unexpected settled state: %+v", settled)
	}
	if _, err := v.settle.SettleMarket(ctx, market.ID); !errors.Is(err, ErrAlreadySettled) {
		t.Errorf("expected ErrAlreadySettled, got %v", err)
	}

	var count int64
	v.db.Model(&models.VenueEvent{}).Where("kind = ?", models.EventMarketSettled).Count(&count)
	if count != 1 {
		t.Errorf("expected exactly one MarketSettled event, got %d", count)
	}
}

func TestSettleMarketRequiresOracleOutcome(t *testing.T) {
	v := newVenue(t)
	market := v.createMarket(t, "unresolved")
	ctx := context.Background()

	v.clock.Set(market.SettlementTime)
	if _, err := v.settle.SettleMarket(ctx, market.ID); !errors.Is(err, ErrOracleNotSettled) {
		t.Fatalf("expected ErrOracleNotSettled, got %v", err)
	}
	got, _ := v.markets.GetMarket(ctx, market.ID)
	if got.Settled || !got.Active {
		t.Errorf("expected market untouched, got %+v", got)
	}

	if _, err := v.settle.SettleMarket(ctx, "0xmissing"); !errors.Is(err, ErrMarketNotFound) {
		t.Errorf("expected ErrMarketNotFound, got %v", err)
	}
}

// stubOracle reports a fixed resolution
type stubOracle struct {
	settled bool
	outcome models.Side
	err     error
}

func (s stubOracle) GetPrice(context.Context, string) (decimal.Decimal, time.Time, error) {
	return decimal.Zero, time.Time{}, s.err
}

func (s stubOracle) IsSettled(context.Context, string) (bool, models.Side, error) {
	return s.settled, s.outcome, s.err
}

func TestSettleMarketOracleAnswers(t *testing.T) {
	tests := []struct {
		name   string
		oracle stubOracle
		want   error
	}{
		{"resolved without outcome", stubOracle{settled: true, outcome: models.SideNone}, ErrOracleNotSettled},
		{"out of range outcome", stubOracle{settled: true, outcome: models.Side(7)}, ErrInvalidOutcome},
		{"oracle down", stubOracle{err: errors.New("connection refused")}, ErrOracleUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newVenue(t)
			market := v.createMarket(t, "oracle answers")
			svc := NewSettlementService(Deps{DB: v.db, Token: v.token, Clock: v.clock.Now}, tt.oracle)

			v.clock.Set(market.SettlementTime)
			if _, err := svc.SettleMarket(context.Background(), market.ID); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestClaimWinningsPaysPooledCollateralOnce(t *testing.T) {
	v := newVenue(t)
	v.fund(t, "alice", 1000)
	v.fund(t, "bob", 1000)
	market := v.createMarket(t, "claim")
	ctx := context.Background()

	v.place(t, "alice", market.ID, models.SideA, 100, "2")
	res := v.place(t, "bob", market.ID, models.SideB, 100, "0.5")

	if _, err := v.settle.ClaimWinnings(ctx, "alice", res.Match.ID); !errors.Is(err, ErrMarketNotSettled) {
		t.Fatalf("expected ErrMarketNotSettled, got %v", err)
	}

	v.settleAs(t, market, models.SideA)

	before := v.balance(t, "alice")
	claimed, err := v.settle.ClaimWinnings(ctx, "alice", res.Match.ID)
	if err != nil {
		t.Fatalf("ClaimWinnings failed: %v", err)
	}
	// 100 from side A plus 100*0.5 from side B
	if !claimed.Payout.Equal(amt(150)) || claimed.Winner != "alice" || !claimed.Claimed {
		t.Errorf("unexpected claim: %+v", claimed)
	}
	if got := v.balance(t, "alice").Sub(before); !got.Equal(amt(150)) {
		t.Errorf("expected alice to gain 150, got %s", got)
	}

	_, err = v.settle.ClaimWinnings(ctx, "alice", res.Match.ID)
	if !errors.Is(err, ErrAlreadyClaimed) {
		t.Fatalf("expected ErrAlreadyClaimed, got %v", err)
	}
	if got := v.balance(t, "alice").Sub(before); !got.Equal(amt(150)) {
		t.Errorf("second claim paid out again: gain %s", got)
	}
	v.assertBalanced(t)
}

func TestClaimWinningsByThirdPartyPaysWinner(t *testing.T) {
	v := newVenue(t)
	v.fund(t, "alice", 1000)
	v.fund(t, "bob", 1000)
	market := v.createMarket(t, "third party")

	v.place(t, "alice", market.ID, models.SideA, 100, "2")
	res := v.place(t, "bob", market.ID, models.SideB, 100, "0.5")
	v.settleAs(t, market, models.SideB)

	claimed, err := v.settle.ClaimWinnings(context.Background(), "carol", res.Match.ID)
	if err != nil {
		t.Fatalf("ClaimWinnings failed: %v", err)
	}
	if claimed.Winner != "bob" {
		t.Errorf("expected bob to win, got %s", claimed.Winner)
	}
	if bal := v.balance(t, "bob"); !bal.Equal(amt(1100)) {
		t.Errorf("expected bob balance 1100, got %s", bal)
	}
	if bal := v.balance(t, "carol"); !bal.IsZero() {
		t.Errorf("expected caller to receive nothing, got %s", bal)
	}
	v.assertBalanced(t)
}

// flakyToken fails payouts while down is set
type flakyToken struct {
	*token.VirtualToken
	down bool
}

func (f *flakyToken) Transfer(ctx context.Context, recipient string, amount decimal.Decimal) error {
	if f.down {
		return errors.New("rpc unavailable")
	}
	return f.VirtualToken.Transfer(ctx, recipient, amount)
}

func TestClaimWinningsFailedPayoutStaysClaimable(t *testing.T) {
	db := setupTestDB(t)
	vt := token.NewVirtualToken(db, "venue")
	ft := &flakyToken{VirtualToken: vt}
	v := newVenueWithToken(t, db, vt, ft)
	v.fund(t, "alice", 1000)
	v.fund(t, "bob", 1000)
	market := v.createMarket(t, "flaky payout")
	ctx := context.Background()

	v.place(t, "alice", market.ID, models.SideA, 100, "2")
	res := v.place(t, "bob", market.ID, models.SideB, 100, "0.5")
	v.settleAs(t, market, models.SideA)

	ft.down = true
	if _, err := v.settle.ClaimWinnings(ctx, "alice", res.Match.ID); !errors.Is(err, ErrTransferFailed) {
		t.Fatalf("expected ErrTransferFailed, got %v", err)
	}
	match, err := v.settle.GetMatch(ctx, res.Match.ID)
	if err != nil {
		t.Fatalf("GetMatch failed: %v", err)
	}
	if match.Claimed {
		t.Fatal("claimed flag survived a failed payout")
	}
	var payouts int64
	db.Model(&models.EscrowEntry{}).Where("kind = ?", models.EscrowKindPayout).Count(&payouts)
	if payouts != 0 {
		t.Errorf("expected no payout journal entries, got %d", payouts)
	}

	ft.down = false
	if _, err := v.settle.ClaimWinnings(ctx, "alice", res.Match.ID); err != nil {
		t.Fatalf("retry ClaimWinnings failed: %v", err)
	}
	if bal := v.balance(t, "alice"); !bal.Equal(amt(1050)) {
		t.Errorf("expected alice balance 1050, got %s", bal)
	}
	v.assertBalanced(t)
}

func TestClaimWinningsUnknownMatch(t *testing.T) {
	v := newVenue(t)
	if _, err := v.settle.ClaimWinnings(context.Background(), "alice", 42); !errors.Is(err, ErrMatchNotFound) {
		t.Errorf("expected ErrMatchNotFound, got %v", err)
	}
}

func TestSettleDue(t *testing.T) {
	v := newVenue(t)
	ctx := context.Background()
	resolved := v.createMarket(t, "resolved")
	pending := v.createMarket(t, "pending")
	if err := v.oracle.Resolve(ctx, resolved.ID, models.SideB, operator); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	n, err := v.settle.SettleDue(ctx)
	if err != nil || n != 0 {
		t.Fatalf("expected nothing due yet, got %d, %v", n, err)
	}

	v.clock.Set(resolved.SettlementTime)
	n, err = v.settle.SettleDue(ctx)
	if err != nil {
		t.Fatalf("SettleDue failed: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 market settled, got %d", n)
	}

	got, _ := v.markets.GetMarket(ctx, resolved.ID)
	if !got.Settled || got.Outcome != models.SideB {
		t.Errorf("expected resolved market settled on B, got %+v", got)
	}
	got, _ = v.markets.GetMarket(ctx, pending.ID)
	if got.Settled {
		t.Error("expected pending market to stay open")
	}
}
