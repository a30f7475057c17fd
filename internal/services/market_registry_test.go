package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"prediction-venue/internal/models"
)

func TestCreateMarket(t *testing.T) {
	v := newVenue(t)
	market := v.createMarket(t, "Will it rain in Lisbon tomorrow?")

	if !market.Active || market.Settled || market.Outcome != models.SideNone {
		t.Errorf("unexpected initial state: active=%v settled=%v outcome=%v", market.Active, market.Settled, market.Outcome)
	}
	if want := MarketID("Will it rain in Lisbon tomorrow?", v.start); market.ID != want {
		t.Errorf("expected id %s, got %s", want, market.ID)
	}
	if len(market.ID) != 66 {
		t.Errorf("expected 32-byte hex id, got %q", market.ID)
	}

	got, err := v.markets.GetMarket(context.Background(), market.ID)
	if err != nil {
		t.Fatalf("GetMarket failed: %v", err)
	}
	if !got.EndTime.Equal(v.start.Add(time.Hour)) {
		t.Errorf("expected end time %v, got %v", v.start.Add(time.Hour), got.EndTime)
	}

	kinds := v.eventKinds(t, market.ID)
	if len(kinds) != 1 || kinds[0] != models.EventMarketCreated {
		t.Errorf("expected a single MarketCreated event, got %v", kinds)
	}
}

func TestMarketIDIsTimeSalted(t *testing.T) {
	at := time.Unix(1700000000, 0)
	if MarketID("q", at) == MarketID("q", at.Add(time.Second)) {
		t.Error("expected different ids for different creation times")
	}
	if MarketID("q", at) != MarketID("q", at) {
		t.Error("expected deterministic ids")
	}
}

func TestCreateMarketRejections(t *testing.T) {
	v := newVenue(t)
	ctx := context.Background()
	end := v.start.Add(time.Hour)

	_, err := v.markets.CreateMarket(ctx, "mallory", "q", end, end.Add(time.Hour))
	if !errors.Is(err, ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}

	_, err = v.markets.CreateMarket(ctx, operator, "   ", end, end.Add(time.Hour))
	if !errors.Is(err, ErrInvalidDescription) {
		t.Errorf("expected ErrInvalidDescription, got %v", err)
	}

	_, err = v.markets.CreateMarket(ctx, operator, "q", end, end.Add(-time.Second))
	if !errors.Is(err, ErrInvalidMarketWindow) {
		t.Errorf("expected ErrInvalidMarketWindow, got %v", err)
	}

	v.createMarket(t, "same question")
	_, err = v.markets.CreateMarket(ctx, operator, "same question", end, end.Add(time.Hour))
	if !errors.Is(err, ErrMarketExists) {
		t.Errorf("expected ErrMarketExists, got %v", err)
	}

	var count int64
	v.db.Model(&models.Market{}).Count(&count)
	if count != 1 {
		t.Errorf("expected 1 market, got %d", count)
	}
}

func TestListMarketsByStatus(t *testing.T) {
	v := newVenue(t)
	ctx := context.Background()

	open := v.createMarket(t, "open")
	v.clock.Set(v.start.Add(time.Second))
	closing := v.createMarket(t, "settles")
	v.settleAs(t, closing, models.SideA)

	tests := []struct {
		status string
		want   []string
	}{
		{models.MarketStatusSettled, []string{closing.ID}},
		{models.MarketStatusClosed, []string{open.ID}},
		{models.MarketStatusActive, nil},
		{"", []string{closing.ID, open.ID}},
	}
	for _, tt := range tests {
		t.Run("status_"+tt.status, func(t *testing.T) {
			markets, err := v.markets.ListMarkets(ctx, tt.status, 0, 0)
			if err != nil {
				t.Fatalf("ListMarkets failed: %v", err)
			}
			if len(markets) != len(tt.want) {
				t.Fatalf("expected %d markets, got %d", len(tt.want), len(markets))
			}
			for i, id := range tt.want {
				if markets[i].ID != id {
					t.Errorf("market %d: expected %s, got %s", i, id, markets[i].ID)
				}
			}
		})
	}

	if _, err := v.markets.ListMarkets(ctx, "bogus", 0, 0); !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("expected ErrInvalidStatus, got %v", err)
	}
}

func TestGetMarketNotFound(t *testing.T) {
	v := newVenue(t)
	_, err := v.markets.GetMarket(context.Background(), "0xmissing")
	if !errors.Is(err, ErrMarketNotFound) {
		t.Errorf("expected ErrMarketNotFound, got %v", err)
	}
}
