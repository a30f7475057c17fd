package repository

import (
	"context"
	"strings"
	"testing"
	"time"

	"prediction-venue/internal/database"
	"prediction-venue/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Discard,
	})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}
	return db
}

func order(marketID, owner string, side models.Side) *models.Order {
	return &models.Order{
		MarketID:   marketID,
		Owner:      owner,
		Side:       side,
		Amount:     decimal.NewFromInt(10),
		Odds:       decimal.NewFromInt(1e18),
		Collateral: decimal.NewFromInt(10),
		Active:     true,
	}
}

func TestOpenOrdersAndMarkMatched(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	ctx := context.Background()

	first, second, other := order("m1", "a", models.SideA), order("m1", "b", models.SideB), order("m2", "c", models.SideA)
	for _, o := range []*models.Order{first, second, other} {
		if err := repo.CreateOrder(ctx, o); err != nil {
			t.Fatalf("CreateOrder failed: %v", err)
		}
	}

	open, err := repo.OpenOrders(ctx, "m1")
	if err != nil {
		t.Fatalf("OpenOrders failed: %v", err)
	}
	if len(open) != 2 || open[0].ID != first.ID || open[1].ID != second.ID {
		t.Fatalf("expected m1 orders in insertion order, got %+v", open)
	}

	n, err := repo.MarkMatched(ctx, 1, first.ID, second.ID)
	if err != nil || n != 2 {
		t.Fatalf("MarkMatched = %d, %v; want 2", n, err)
	}
	n, err = repo.MarkMatched(ctx, 2, first.ID, second.ID)
	if err != nil || n != 0 {
		t.Errorf("second MarkMatched = %d, %v; want 0", n, err)
	}

	open, _ = repo.OpenOrders(ctx, "m1")
	if len(open) != 0 {
		t.Errorf("matched orders must leave the book, got %d", len(open))
	}
	collateral, err := repo.OpenCollateral(ctx)
	if err != nil {
		t.Fatalf("OpenCollateral failed: %v", err)
	}
	if !collateral.Equal(decimal.NewFromInt(10)) {
		t.Errorf("expected open collateral 10, got %s", collateral)
	}
}

func TestClaimMatchIsConditional(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	ctx := context.Background()

	match := &models.Match{
		MarketID: "m1",
		OrderAID: 1,
		OrderBID: 2,
		Amount:   decimal.NewFromInt(10),
		OddsA:    decimal.NewFromInt(1e18),
		OddsB:    decimal.NewFromInt(1e18),
		Payout:   decimal.Zero,
	}
	if err := repo.CreateMatch(ctx, match); err != nil {
		t.Fatalf("CreateMatch failed: %v", err)
	}

	now := time.Now().UTC()
	match.Winner, match.Payout, match.ClaimedAt = "a", decimal.NewFromInt(20), &now
	claimed, err := repo.ClaimMatch(ctx, match)
	if err != nil || !claimed {
		t.Fatalf("first claim = %v, %v; want true", claimed, err)
	}
	claimed, err = repo.ClaimMatch(ctx, match)
	if err != nil || claimed {
		t.Errorf("second claim = %v, %v; want false", claimed, err)
	}

	unclaimed, err := repo.UnclaimedMatches(ctx)
	if err != nil || len(unclaimed) != 0 {
		t.Errorf("expected no unclaimed matches, got %d (%v)", len(unclaimed), err)
	}
}

func TestAddSharesAccumulates(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	ctx := context.Background()
	now := time.Now().UTC()

	for _, n := range []int64{100, 50} {
		if err := repo.AddShares(ctx, "m1", "lp", decimal.NewFromInt(n), now); err != nil {
			t.Fatalf("AddShares failed: %v", err)
		}
	}
	shares, err := repo.GetShares(ctx, "m1", "lp")
	if err != nil {
		t.Fatalf("GetShares failed: %v", err)
	}
	if !shares.Equal(decimal.NewFromInt(150)) {
		t.Errorf("expected 150 shares, got %s", shares)
	}
	if pool, err := repo.GetPool(ctx, "m1"); err != nil || pool != nil {
		t.Errorf("expected no pool, got %+v, %v", pool, err)
	}
}
