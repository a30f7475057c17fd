package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"prediction-venue/internal/database"
	"prediction-venue/internal/lock"
	"prediction-venue/internal/models"
	"prediction-venue/internal/odds"
	"prediction-venue/internal/oracle"
	"prediction-venue/internal/token"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const operator = "operator"

var dbSeq atomic.Int64

func setupTestDB(t testing.TB) *gorm.DB {
	t.Helper()
	name := fmt.Sprintf("%s_%d", strings.NewReplacer("/", "_", " ", "_").Replace(t.Name()), dbSeq.Add(1))
	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Discard,
	})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}
	return db
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// venue wires every service over one in-memory database
type venue struct {
	db       *gorm.DB
	token    *token.VirtualToken
	oracle   *oracle.Manual
	clock    *testClock
	start    time.Time
	markets  *MarketRegistry
	book     *OrderBook
	matching *OrderMatchingService
	amm      *AMMService
	settle   *SettlementService
	admin    *AdminService
}

func newVenue(t testing.TB) *venue {
	t.Helper()
	db := setupTestDB(t)
	tok := token.NewVirtualToken(db, "venue")
	return newVenueWithToken(t, db, tok, tok)
}

// newVenueWithToken lets tests swap the collateral the services see while
// keeping the virtual token for funding accounts.
func newVenueWithToken(t testing.TB, db *gorm.DB, funding *token.VirtualToken, collateral token.Token) *venue {
	t.Helper()
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := &testClock{now: start}
	deps := Deps{
		DB:     db,
		Token:  collateral,
		Locker: lock.NewLocalLocker(),
		Clock:  clock.Now,
	}
	manual := oracle.NewManual(db)
	return &venue{
		db:       db,
		token:    funding,
		oracle:   manual,
		clock:    clock,
		start:    start,
		markets:  NewMarketRegistry(deps, operator),
		book:     NewOrderBook(deps),
		matching: NewOrderMatchingService(deps),
		amm:      NewAMMService(deps),
		settle:   NewSettlementService(deps, manual),
		admin:    NewAdminService(deps),
	}
}

func amt(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

// e18 converts a decimal odds literal like "0.5" to 1e18 fixed point
func e18(s string) decimal.Decimal {
	return decimal.RequireFromString(s).Mul(odds.Scale)
}

// fund mints collateral to owner and approves the venue to pull all of it
func (v *venue) fund(t testing.TB, owner string, amount int64) {
	t.Helper()
	ctx := context.Background()
	if err := v.token.Mint(ctx, owner, amt(amount)); err != nil {
		t.Fatalf("Mint failed: %v", err)
	}
	if err := v.token.Approve(ctx, owner, "venue", amt(amount)); err != nil {
		t.Fatalf("Approve failed: %v", err)
	}
}

func (v *venue) balance(t testing.TB, owner string) decimal.Decimal {
	t.Helper()
	bal, err := v.token.BalanceOf(context.Background(), owner)
	if err != nil {
		t.Fatalf("BalanceOf failed: %v", err)
	}
	return bal
}

// createMarket opens a market ending in one hour and settling in two
func (v *venue) createMarket(t testing.TB, description string) *models.Market {
	t.Helper()
	market, err := v.markets.CreateMarket(context.Background(), operator, description,
		v.start.Add(time.Hour), v.start.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("CreateMarket failed: %v", err)
	}
	return market
}

func (v *venue) place(t testing.TB, owner, marketID string, side models.Side, amount int64, o string) *PlaceOrderResult {
	t.Helper()
	res, err := v.matching.PlaceOrder(context.Background(), owner, marketID, side, amt(amount), e18(o))
	if err != nil {
		t.Fatalf("PlaceOrder(%s %s %d @%s) failed: %v", owner, side, amount, o, err)
	}
	return res
}

// settleAs resolves the oracle and settles the market after its settlement time
func (v *venue) settleAs(t testing.TB, market *models.Market, outcome models.Side) {
	t.Helper()
	ctx := context.Background()
	if err := v.oracle.Resolve(ctx, market.ID, outcome, operator); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	v.clock.Set(market.SettlementTime.Add(time.Second))
	if _, err := v.settle.SettleMarket(ctx, market.ID); err != nil {
		t.Fatalf("SettleMarket failed: %v", err)
	}
}

func (v *venue) eventKinds(t testing.TB, marketID string) []string {
	t.Helper()
	var rows []models.VenueEvent
	if err := v.db.Where("market_id = ?", marketID).Order("id ASC").Find(&rows).Error; err != nil {
		t.Fatalf("failed to load events: %v", err)
	}
	kinds := make([]string, 0, len(rows))
	for _, r := range rows {
		kinds = append(kinds, r.Kind)
	}
	return kinds
}

func (v *venue) assertBalanced(t testing.TB) {
	t.Helper()
	rec, err := v.admin.Reconcile(context.Background())
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if !rec.Balanced {
		t.Fatalf("escrow out of balance: held %s, obligations %s", rec.Held, rec.Obligations())
	}
	if !rec.CustodyBalance.Equal(rec.Held) {
		t.Fatalf("custody balance %s does not match journal %s", rec.CustodyBalance, rec.Held)
	}
}
