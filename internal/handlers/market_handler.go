package handlers

import (
	"net/http"

	"prediction-venue/internal/auth"
	"prediction-venue/internal/models"
	"prediction-venue/internal/services"

	"github.com/gin-gonic/gin"
)

type MarketHandler struct {
	registry   *services.MarketRegistry
	book       *services.OrderBook
	settlement *services.SettlementService
}

func NewMarketHandler(registry *services.MarketRegistry, book *services.OrderBook, settlement *services.SettlementService) *MarketHandler {
	return &MarketHandler{registry: registry, book: book, settlement: settlement}
}

// GetMarkets lists markets filtered by status (active, closed, settled)
// GET /api/markets
func (h *MarketHandler) GetMarkets(c *gin.Context) {
	limit, offset := paging(c, 20, 100)
	markets, err := h.registry.ListMarkets(c.Request.Context(), c.Query("status"), limit, offset)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    markets,
		"count":   len(markets),
	})
}

// GET /api/markets/:id
func (h *MarketHandler) GetMarketByID(c *gin.Context) {
	market, err := h.registry.GetMarket(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, market)
}

// CreateMarket registers a new market (operator only)
// POST /api/markets
func (h *MarketHandler) CreateMarket(c *gin.Context) {
	wallet, _ := auth.GetWalletAddress(c)

	var req models.CreateMarketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	market, err := h.registry.CreateMarket(c.Request.Context(), wallet, req.Description, req.EndTime, req.SettlementTime)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusCreated, market)
}

// GetOrderBook returns the market's active unmatched orders
// GET /api/markets/:id/orderbook
func (h *MarketHandler) GetOrderBook(c *gin.Context) {
	view, err := h.book.GetOrderBook(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, view)
}

// GetMatches lists a market's matches
// GET /api/markets/:id/matches
func (h *MarketHandler) GetMatches(c *gin.Context) {
	matches, err := h.settlement.ListMatches(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, matches)
}

// GetPrice returns the oracle's latest price for the market
// GET /api/markets/:id/price
func (h *MarketHandler) GetPrice(c *gin.Context) {
	price, at, err := h.settlement.OraclePrice(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{
		"market_id":  c.Param("id"),
		"price":      price,
		"updated_at": at,
	})
}

// SettleMarket settles the market from the oracle's outcome. Anyone may
// trigger it once the settlement time has passed.
// POST /api/markets/:id/settle
func (h *MarketHandler) SettleMarket(c *gin.Context) {
	market, err := h.settlement.SettleMarket(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, market)
}
