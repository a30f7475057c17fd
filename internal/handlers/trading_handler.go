package handlers

import (
	"net/http"

	"prediction-venue/internal/auth"
	"prediction-venue/internal/models"
	"prediction-venue/internal/services"

	"github.com/gin-gonic/gin"
)

// TradingHandler serves order placement and claims
type TradingHandler struct {
	matching   *services.OrderMatchingService
	book       *services.OrderBook
	settlement *services.SettlementService
}

func NewTradingHandler(matching *services.OrderMatchingService, book *services.OrderBook, settlement *services.SettlementService) *TradingHandler {
	return &TradingHandler{matching: matching, book: book, settlement: settlement}
}

// PlaceOrder escrows collateral and tries to match the order
// POST /api/orders
func (h *TradingHandler) PlaceOrder(c *gin.Context) {
	wallet, _ := auth.GetWalletAddress(c)

	var req models.PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	result, err := h.matching.PlaceOrder(c.Request.Context(), wallet, req.MarketID, req.Side, req.Amount, req.Odds)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusCreated, gin.H{
		"order": result.Order,
		"match": result.Match,
	})
}

// GET /api/orders/:id
func (h *TradingHandler) GetOrder(c *gin.Context) {
	id, valid := uintParam(c, "id")
	if !valid {
		return
	}
	order, err := h.book.GetOrder(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, order)
}

// GetUserOrders lists the caller's orders, optionally for one market
// GET /api/orders
func (h *TradingHandler) GetUserOrders(c *gin.Context) {
	wallet, _ := auth.GetWalletAddress(c)
	limit, offset := paging(c, 50, 200)

	orders, err := h.book.ListOrders(c.Request.Context(), wallet, c.Query("market_id"), limit, offset)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, orders)
}

// GET /api/matches/:id
func (h *TradingHandler) GetMatch(c *gin.Context) {
	id, valid := uintParam(c, "id")
	if !valid {
		return
	}
	match, err := h.settlement.GetMatch(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{
		"match":             match,
		"pooled_collateral": services.PooledCollateral(match),
	})
}

// ClaimWinnings pays a settled match's pooled collateral to the winning side
// POST /api/matches/:id/claim
func (h *TradingHandler) ClaimWinnings(c *gin.Context) {
	id, valid := uintParam(c, "id")
	if !valid {
		return
	}
	wallet, _ := auth.GetWalletAddress(c)

	match, err := h.settlement.ClaimWinnings(c.Request.Context(), wallet, id)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, match)
}
