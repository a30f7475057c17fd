package oracle

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
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
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}
	return db
}

func TestManualResolutionIsFinal(t *testing.T) {
	o := NewManual(setupTestDB(t))
	ctx := context.Background()

	settled, outcome, err := o.IsSettled(ctx, "m1")
	if err != nil || settled || outcome != models.SideNone {
		t.Fatalf("expected unresolved market, got %v %v %v", settled, outcome, err)
	}

	if err := o.Resolve(ctx, "m1", models.SideNone, "op"); !errors.Is(err, ErrInvalidOutcome) {
		t.Fatalf("expected ErrInvalidOutcome, got %v", err)
	}
	if err := o.Resolve(ctx, "m1", models.SideA, "op"); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if err := o.Resolve(ctx, "m1", models.SideA, "op"); err != nil {
		t.Errorf("expected idempotent re-resolve, got %v", err)
	}
	if err := o.Resolve(ctx, "m1", models.SideB, "op"); !errors.Is(err, ErrAlreadyResolved) {
		t.Errorf("expected ErrAlreadyResolved, got %v", err)
	}

	settled, outcome, _ = o.IsSettled(ctx, "m1")
	if !settled || outcome != models.SideA {
		t.Errorf("expected resolved to A, got %v %v", settled, outcome)
	}
}

func TestManualPrice(t *testing.T) {
	o := NewManual(setupTestDB(t))
	ctx := context.Background()

	if _, _, err := o.GetPrice(ctx, "m1"); !errors.Is(err, ErrNoPrice) {
		t.Fatalf("expected ErrNoPrice, got %v", err)
	}

	price := decimal.New(65, 16)
	if err := o.SetPrice(ctx, "m1", price, "op"); err != nil {
		t.Fatalf("SetPrice failed: %v", err)
	}
	got, ts, err := o.GetPrice(ctx, "m1")
	if err != nil {
		t.Fatalf("GetPrice failed: %v", err)
	}
	if !got.Equal(price) {
		t.Errorf("expected price %s, got %s", price, got)
	}
	if ts.IsZero() {
		t.Errorf("expected a price timestamp")
	}

	// a later resolution keeps the price
	if err := o.Resolve(ctx, "m1", models.SideB, "op"); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	got, _, _ = o.GetPrice(ctx, "m1")
	if !got.Equal(price) {
		t.Errorf("expected price to survive resolution, got %s", got)
	}
}

func TestHTTPOracle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-API-KEY") != "key" || r.Header.Get("X-SIGNATURE") == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch r.URL.Path {
		case "/markets/m1/price":
			w.Write([]byte(`{"price":"650000000000000000","timestamp":1700000000}`))
		case "/markets/m1/resolution":
			w.Write([]byte(`{"settled":true,"outcome":2}`))
		case "/markets/m2/resolution":
			w.Write([]byte(`{"settled":false,"outcome":0}`))
		case "/markets/m3/resolution":
			w.WriteHeader(http.StatusBadGateway)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	o := NewHTTP(srv.URL+"/", "key", "secret", time.Second)
	ctx := context.Background()

	price, ts, err := o.GetPrice(ctx, "m1")
	if err != nil {
		t.Fatalf("GetPrice failed: %v", err)
	}
	if price.String() != "650000000000000000" || ts.Unix() != 1700000000 {
		t.Errorf("unexpected price %s at %v", price, ts)
	}

	settled, outcome, err := o.IsSettled(ctx, "m1")
	if err != nil || !settled || outcome != models.SideB {
		t.Errorf("expected settled B, got %v %v %v", settled, outcome, err)
	}

	settled, _, err = o.IsSettled(ctx, "m2")
	if err != nil || settled {
		t.Errorf("expected unsettled m2, got %v %v", settled, err)
	}

	settled, _, err = o.IsSettled(ctx, "unknown")
	if err != nil || settled {
		t.Errorf("expected unknown market to read as unsettled, got %v %v", settled, err)
	}

	if _, _, err := o.IsSettled(ctx, "m3"); !errors.Is(err, ErrUnexpectedStatus) {
		t.Errorf("expected ErrUnexpectedStatus, got %v", err)
	}

	if _, _, err := o.GetPrice(ctx, "nope"); !errors.Is(err, ErrNoPrice) {
		t.Errorf("expected ErrNoPrice, got %v", err)
	}
}
