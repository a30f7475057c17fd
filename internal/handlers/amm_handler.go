package handlers

import (
	"net/http"
	"strconv"

	"prediction-venue/internal/auth"
	"prediction-venue/internal/models"
	"prediction-venue/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type AMMHandler struct {
	ammService *services.AMMService
}

func NewAMMHandler(ammService *services.AMMService) *AMMHandler {
	return &AMMHandler{ammService: ammService}
}

// GetPool retrieves a market's pool. ?provider=<wallet> fills my_shares.
// GET /api/markets/:id/pool
func (h *AMMHandler) GetPool(c *gin.Context) {
	pool, err := h.ammService.GetPool(c.Request.Context(), c.Param("id"), c.Query("provider"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, pool)
}

// GetTradeQuote prices a swap without executing it
// GET /api/markets/:id/quote?side=A&amount_in=100
func (h *AMMHandler) GetTradeQuote(c *gin.Context) {
	side, valid := parseSide(c.Query("side"))
	if !valid {
		badRequest(c, "side must be A or B")
		return
	}
	amountIn, err := decimal.NewFromString(c.Query("amount_in"))
	if err != nil {
		badRequest(c, "invalid amount_in")
		return
	}

	quote, err := h.ammService.Quote(c.Request.Context(), c.Param("id"), side, amountIn)
	if err != nil {
		fail(c, err)
		return
	}
	pool, err := h.ammService.GetPool(c.Request.Context(), c.Param("id"), "")
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{
		"quote":   quote,
		"price_a": pool.PriceA,
		"price_b": pool.PriceB,
	})
}

// AddLiquidity deposits collateral split evenly into both reserves
// POST /api/markets/:id/liquidity
func (h *AMMHandler) AddLiquidity(c *gin.Context) {
	wallet, _ := auth.GetWalletAddress(c)

	var req models.AddLiquidityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	result, err := h.ammService.AddLiquidity(c.Request.Context(), wallet, c.Param("id"), req.Amount)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusCreated, gin.H{
		"pool":   services.ToPoolResponse(result.Pool),
		"shares": result.Shares,
	})
}

// Swap trades one side for the other against the pool
// POST /api/markets/:id/swap
func (h *AMMHandler) Swap(c *gin.Context) {
	wallet, _ := auth.GetWalletAddress(c)

	var req models.SwapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	swap, err := h.ammService.Swap(c.Request.Context(), wallet, c.Param("id"), req.Side, req.AmountIn)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusCreated, swap)
}

// GetSwaps lists a market's swap history
// GET /api/markets/:id/swaps
func (h *AMMHandler) GetSwaps(c *gin.Context) {
	limit, _ := paging(c, 100, 500)
	swaps, err := h.ammService.ListSwaps(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, swaps)
}

// GetCredits lists the caller's swap credits
// GET /api/credits
func (h *AMMHandler) GetCredits(c *gin.Context) {
	wallet, _ := auth.GetWalletAddress(c)
	credits, err := h.ammService.ListCredits(c.Request.Context(), wallet)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, credits)
}

// parseSide accepts "A"/"B" or the numeric form 1/2
func parseSide(raw string) (models.Side, bool) {
	switch raw {
	case "A", "a":
		return models.SideA, true
	case "B", "b":
		return models.SideB, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return models.SideNone, false
	}
	side := models.Side(n)
	return side, side.Valid()
}
